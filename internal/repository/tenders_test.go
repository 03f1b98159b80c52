package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/entity"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenInMemory(nil)
	require.NoError(t, err)
	return db
}

func seedTender(t *testing.T, repo TenderRepository) *entity.Tender {
	t.Helper()
	tender := &entity.Tender{
		Reference:    "TN-42",
		Title:        "Road maintenance",
		Organization: "Roads Dept",
		Items: []entity.TenderItem{
			{Position: 2, Description: "Asphalt", Quantity: 10, Unit: "ton"},
			{Position: 1, Description: "Gravel", Quantity: 40, Unit: "ton"},
		},
	}
	require.NoError(t, repo.Create(context.Background(), tender))
	return tender
}

func TestTenderCreateAndGet(t *testing.T) {
	repo := NewTenderRepository(testDB(t), nil)
	tender := seedTender(t, repo)
	require.NotEqual(t, uuid.Nil, tender.ID)

	got, err := repo.GetByID(context.Background(), tender.ID)
	require.NoError(t, err)
	assert.Equal(t, "TN-42", got.Reference)
	require.Len(t, got.Items, 2)
	// Items come back in position order regardless of insert order.
	assert.Equal(t, "Gravel", got.Items[0].Description)
	assert.Equal(t, "Asphalt", got.Items[1].Description)
}

func TestTenderGetMissing(t *testing.T) {
	repo := NewTenderRepository(testDB(t), nil)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrTenderNotFound)
}

func TestTenderAppendNote(t *testing.T) {
	repo := NewTenderRepository(testDB(t), nil)
	tender := seedTender(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.AppendNote(ctx, tender.ID, "first note"))
	require.NoError(t, repo.AppendNote(ctx, tender.ID, "second note"))

	got, err := repo.GetByID(ctx, tender.ID)
	require.NoError(t, err)
	assert.Equal(t, "first note\nsecond note", got.Notes)

	assert.ErrorIs(t, repo.AppendNote(ctx, uuid.New(), "x"), common.ErrTenderNotFound)
}

func TestTenderArchiveExcludedFromList(t *testing.T) {
	repo := NewTenderRepository(testDB(t), nil)
	tender := seedTender(t, repo)
	ctx := context.Background()

	list, err := repo.List(ctx, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.Archive(ctx, tender.ID))

	list, err = repo.List(ctx, false, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := repo.List(ctx, true, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// Archiving twice is an error, not a silent no-op.
	assert.ErrorIs(t, repo.Archive(ctx, tender.ID), common.ErrTenderNotFound)
}

func TestDraftSaveLatestDelete(t *testing.T) {
	repo := NewDraftRepository(testDB(t), nil)
	ctx := context.Background()

	_, err := repo.Save(ctx, "alice", []byte(`{"extractedTenders":[]}`))
	require.NoError(t, err)
	_, err = repo.Save(ctx, "alice", []byte(`{"extractedTenders":[{}]}`))
	require.NoError(t, err)

	latest, err := repo.Latest(ctx, "alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"extractedTenders":[{}]}`, string(latest.Payload))

	_, err = repo.Latest(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "alice"))
	_, err = repo.Latest(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
