package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/foxxcyber/pantry-chef/internal/database"
	"github.com/foxxcyber/pantry-chef/internal/models"
)

// SeedUser inserts a user with a unique email
func SeedUser(t *testing.T, db *database.DB) *models.User {
	t.Helper()

	email := "cook-" + uuid.NewString()[:8] + "@example.com"
	user, err := db.CreateUser(context.Background(), email, "not-a-real-hash", nil)
	if err != nil {
		t.Fatalf("testhelper: seed user: %v", err)
	}
	return user
}

// SeedScan inserts a completed scan with the given ingredients
func SeedScan(t *testing.T, db *database.DB, userID int, rawText string, ingredients []models.Ingredient) *models.Scan {
	t.Helper()
	ctx := context.Background()

	scan, err := db.CreateScan(ctx, &models.CreateScanRequest{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: models.ScanStatusProcessing,
	})
	if err != nil {
		t.Fatalf("testhelper: seed scan: %v", err)
	}
	if err := db.SaveScanResult(ctx, scan.ID, rawText, ingredients); err != nil {
		t.Fatalf("testhelper: save scan result: %v", err)
	}
	return scan
}
