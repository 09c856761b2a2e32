package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/pantry-chef/internal/database"
	"github.com/foxxcyber/pantry-chef/internal/database/testhelper"
	"github.com/foxxcyber/pantry-chef/internal/models"
)

func strPtr(s string) *string { return &s }

func sampleIngredients() []models.Ingredient {
	return []models.Ingredient{
		{Name: "Rice", Quantity: "2", Unit: "kg", Confidence: models.ParsedConfidence},
		{Name: "Onions", Quantity: "1", Unit: "piece", Confidence: models.ParsedConfidence},
		{Name: "Eggs", Quantity: "12", Unit: "piece", Confidence: models.ParsedConfidence},
	}
}

func TestScanRepo_CreateAndSaveResult(t *testing.T) {
	t.Parallel()
	db := testhelper.SetupTestDB(t)
	ctx := context.Background()
	user := testhelper.SeedUser(t, db)

	id := uuid.NewString()
	scan, err := db.CreateScan(ctx, &models.CreateScanRequest{
		ID:               id,
		UserID:           user.ID,
		ImageKey:         strPtr("scans/1/2026/10/" + id + ".jpg"),
		OriginalFilename: strPtr("list.jpg"),
		ContentType:      strPtr("image/jpeg"),
		Status:           models.ScanStatusProcessing,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusProcessing, scan.Status)
	assert.True(t, scan.HasImage())

	require.NoError(t, db.SaveScanResult(ctx, id, "Rice - 2kg\nOnions\nEggs - 12", sampleIngredients()))

	got, err := db.GetScanByID(ctx, id, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusCompleted, got.Status)
	assert.Equal(t, "Rice - 2kg\nOnions\nEggs - 12", got.RawText)
	assert.Equal(t, sampleIngredients(), got.Ingredients)
}

func TestScanRepo_GetScanByID_Ownership(t *testing.T) {
	t.Parallel()
	db := testhelper.SetupTestDB(t)
	ctx := context.Background()
	owner := testhelper.SeedUser(t, db)
	other := testhelper.SeedUser(t, db)
	scan := testhelper.SeedScan(t, db, owner.ID, "Rice", sampleIngredients()[:1])

	_, err := db.GetScanByID(ctx, scan.ID, other.ID)
	assert.ErrorIs(t, err, database.ErrScanNotFound)

	_, err = db.GetScanByID(ctx, scan.ID, 0)
	assert.NoError(t, err)

	_, err = db.GetScanByID(ctx, uuid.NewString(), owner.ID)
	assert.ErrorIs(t, err, database.ErrScanNotFound)
}

func TestScanRepo_UpdateScanIngredients(t *testing.T) {
	t.Parallel()
	db := testhelper.SetupTestDB(t)
	ctx := context.Background()
	user := testhelper.SeedUser(t, db)
	scan := testhelper.SeedScan(t, db, user.ID, "Rice", sampleIngredients())

	replacement := []models.Ingredient{
		{Name: "Tomato", Quantity: "3", Unit: "piece", Confidence: models.ManualConfidence},
	}
	require.NoError(t, db.UpdateScanIngredients(ctx, scan.ID, user.ID, replacement))

	got, err := db.GetScanIngredients(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, replacement, got)

	err = db.UpdateScanIngredients(ctx, scan.ID, user.ID+1000000, replacement)
	assert.ErrorIs(t, err, database.ErrScanNotFound)
}

func TestScanRepo_UpdateScanStatus(t *testing.T) {
	t.Parallel()
	db := testhelper.SetupTestDB(t)
	ctx := context.Background()
	user := testhelper.SeedUser(t, db)

	id := uuid.NewString()
	_, err := db.CreateScan(ctx, &models.CreateScanRequest{ID: id, UserID: user.ID})
	require.NoError(t, err)

	require.NoError(t, db.UpdateScanStatus(ctx, id, models.ScanStatusFailed, strPtr("no text")))

	got, err := db.GetScanByID(ctx, id, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "no text", *got.ErrorMessage)
	assert.Empty(t, got.Ingredients)

	err = db.UpdateScanStatus(ctx, uuid.NewString(), models.ScanStatusFailed, nil)
	assert.ErrorIs(t, err, database.ErrScanNotFound)
}

func TestScanRepo_ListAndCount(t *testing.T) {
	t.Parallel()
	db := testhelper.SetupTestDB(t)
	ctx := context.Background()
	user := testhelper.SeedUser(t, db)

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, testhelper.SeedScan(t, db, user.ID, "Rice", nil).ID)
	}

	count, err := db.CountScans(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	scans, total, err := db.ListScans(ctx, models.ScanListParams{UserID: user.ID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, scans, 2)
	assert.False(t, scans[0].CreatedAt.Before(scans[1].CreatedAt))

	failed := models.ScanStatusFailed
	scans, total, err = db.ListScans(ctx, models.ScanListParams{UserID: user.ID, Status: &failed})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, scans)
}

func TestScanRepo_Delete(t *testing.T) {
	t.Parallel()
	db := testhelper.SetupTestDB(t)
	ctx := context.Background()
	user := testhelper.SeedUser(t, db)

	withImage := uuid.NewString()
	_, err := db.CreateScan(ctx, &models.CreateScanRequest{
		ID:       withImage,
		UserID:   user.ID,
		ImageKey: strPtr("scans/key.jpg"),
	})
	require.NoError(t, err)
	plain := testhelper.SeedScan(t, db, user.ID, "Rice", sampleIngredients())
	kept := testhelper.SeedScan(t, db, user.ID, "Eggs", nil)

	key, err := db.DeleteScan(ctx, plain.ID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = db.DeleteScan(ctx, plain.ID, user.ID)
	assert.ErrorIs(t, err, database.ErrScanNotFound)

	keys, err := db.DeleteAllScans(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"scans/key.jpg"}, keys)

	_, err = db.GetScanByID(ctx, kept.ID, user.ID)
	assert.ErrorIs(t, err, database.ErrScanNotFound)
}
