package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

var ErrScanNotFound = errors.New("scan not found")

const scanColumns = `id, user_id, raw_text, image_key, original_filename, content_type,
	status, error_message, created_at, updated_at`

func scanScan(row pgx.Row, scan *models.Scan) error {
	return row.Scan(
		&scan.ID, &scan.UserID, &scan.RawText, &scan.ImageKey, &scan.OriginalFilename, &scan.ContentType,
		&scan.Status, &scan.ErrorMessage, &scan.CreatedAt, &scan.UpdatedAt,
	)
}

// CreateScan creates a new scan record
func (db *DB) CreateScan(ctx context.Context, req *models.CreateScanRequest) (*models.Scan, error) {
	status := req.Status
	if status == "" {
		status = models.ScanStatusPending
	}

	scan := &models.Scan{}
	err := scanScan(db.Pool.QueryRow(ctx, `
		INSERT INTO scans (id, user_id, raw_text, image_key, original_filename, content_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+scanColumns,
		req.ID, req.UserID, req.RawText, req.ImageKey, req.OriginalFilename, req.ContentType, status,
	), scan)
	if err != nil {
		return nil, fmt.Errorf("create scan: %w", err)
	}

	return scan, nil
}

// SaveScanResult stores the recognized text and parsed ingredients and marks the scan completed
func (db *DB) SaveScanResult(ctx context.Context, scanID, rawText string, ingredients []models.Ingredient) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE scans
		SET raw_text = $2, status = $3, error_message = NULL, updated_at = NOW()
		WHERE id = $1
	`, scanID, rawText, models.ScanStatusCompleted)
	if err != nil {
		return fmt.Errorf("save scan result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScanNotFound
	}

	if err := replaceIngredients(ctx, tx, scanID, ingredients); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateScanIngredients replaces the ingredient list of a scan owned by userID
func (db *DB) UpdateScanIngredients(ctx context.Context, scanID string, userID int, ingredients []models.Ingredient) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE scans SET updated_at = NOW() WHERE id = $1 AND user_id = $2
	`, scanID, userID)
	if err != nil {
		return fmt.Errorf("update scan ingredients: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScanNotFound
	}

	if err := replaceIngredients(ctx, tx, scanID, ingredients); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func replaceIngredients(ctx context.Context, tx pgx.Tx, scanID string, ingredients []models.Ingredient) error {
	if _, err := tx.Exec(ctx, "DELETE FROM scan_ingredients WHERE scan_id = $1", scanID); err != nil {
		return fmt.Errorf("clear ingredients: %w", err)
	}
	if len(ingredients) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, ing := range ingredients {
		batch.Queue(`
			INSERT INTO scan_ingredients (scan_id, position, name, quantity, unit, confidence)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, scanID, i, ing.Name, ing.Quantity, ing.Unit, ing.Confidence)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert ingredients: %w", err)
	}
	return nil
}

// UpdateScanStatus sets the status and error message of a scan
func (db *DB) UpdateScanStatus(ctx context.Context, scanID string, status models.ScanStatus, errorMessage *string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE scans SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1
	`, scanID, status, errorMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScanNotFound
	}
	return nil
}

// GetScanByID retrieves a scan with its ingredients. A userID of 0 skips the ownership check.
func (db *DB) GetScanByID(ctx context.Context, scanID string, userID int) (*models.ScanWithIngredients, error) {
	scan := &models.ScanWithIngredients{}

	err := scanScan(db.Pool.QueryRow(ctx, `
		SELECT `+scanColumns+`
		FROM scans
		WHERE id = $1 AND ($2 = 0 OR user_id = $2)
	`, scanID, userID), &scan.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}

	ingredients, err := db.GetScanIngredients(ctx, scanID)
	if err != nil {
		return nil, err
	}
	scan.Ingredients = ingredients

	return scan, nil
}

// GetScanIngredients retrieves the ingredients of a scan in position order
func (db *DB) GetScanIngredients(ctx context.Context, scanID string) ([]models.Ingredient, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT name, quantity, unit, confidence
		FROM scan_ingredients
		WHERE scan_id = $1
		ORDER BY position ASC
	`, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := []models.Ingredient{}
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.Name, &ing.Quantity, &ing.Unit, &ing.Confidence); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}

	return ingredients, rows.Err()
}

// ListScans returns a user's scans, newest first
func (db *DB) ListScans(ctx context.Context, params models.ScanListParams) ([]models.Scan, int, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	var status *string
	if params.Status != nil {
		s := string(*params.Status)
		status = &s
	}

	var total int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM scans
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
	`, params.UserID, status).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+scanColumns+`
		FROM scans
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`, params.UserID, status, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	scans := []models.Scan{}
	for rows.Next() {
		var scan models.Scan
		if err := scanScan(rows, &scan); err != nil {
			return nil, 0, err
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return scans, total, nil
}

// CountScans returns the number of scans a user owns
func (db *DB) CountScans(ctx context.Context, userID int) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM scans WHERE user_id = $1", userID).Scan(&count)
	return count, err
}

// DeleteScan deletes a scan and returns its image key, if any
func (db *DB) DeleteScan(ctx context.Context, scanID string, userID int) (*string, error) {
	var imageKey *string
	err := db.Pool.QueryRow(ctx, `
		DELETE FROM scans WHERE id = $1 AND user_id = $2
		RETURNING image_key
	`, scanID, userID).Scan(&imageKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}
	return imageKey, nil
}

// DeleteAllScans deletes every scan a user owns and returns the stored image keys
func (db *DB) DeleteAllScans(ctx context.Context, userID int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		DELETE FROM scans WHERE user_id = $1
		RETURNING image_key
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key *string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if key != nil && *key != "" {
			keys = append(keys, *key)
		}
	}

	return keys, rows.Err()
}
