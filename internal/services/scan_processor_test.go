package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

type fakeRecognizer struct {
	result models.RecognitionResult
}

func (f fakeRecognizer) Recognize([]byte) models.RecognitionResult { return f.result }

type memoryScanStore struct {
	mu          sync.Mutex
	scans       map[string]*models.Scan
	ingredients map[string][]models.Ingredient
	createErr   error
	saveErr     error
}

func newMemoryScanStore() *memoryScanStore {
	return &memoryScanStore{
		scans:       map[string]*models.Scan{},
		ingredients: map[string][]models.Ingredient{},
	}
}

func (m *memoryScanStore) CreateScan(_ context.Context, req *models.CreateScanRequest) (*models.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	scan := &models.Scan{
		ID:               req.ID,
		UserID:           req.UserID,
		RawText:          req.RawText,
		ImageKey:         req.ImageKey,
		OriginalFilename: req.OriginalFilename,
		ContentType:      req.ContentType,
		Status:           req.Status,
		CreatedAt:        time.Now(),
	}
	m.scans[req.ID] = scan
	return scan, nil
}

func (m *memoryScanStore) SaveScanResult(_ context.Context, scanID, rawText string, ingredients []models.Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	scan, ok := m.scans[scanID]
	if !ok {
		return errors.New("missing scan")
	}
	scan.RawText = rawText
	scan.Status = models.ScanStatusCompleted
	m.ingredients[scanID] = ingredients
	return nil
}

func (m *memoryScanStore) UpdateScanStatus(_ context.Context, scanID string, status models.ScanStatus, errorMessage *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	scan, ok := m.scans[scanID]
	if !ok {
		return errors.New("missing scan")
	}
	scan.Status = status
	scan.ErrorMessage = errorMessage
	return nil
}

func (m *memoryScanStore) GetScanByID(_ context.Context, scanID string, userID int) (*models.ScanWithIngredients, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scan, ok := m.scans[scanID]
	if !ok || (userID != 0 && scan.UserID != userID) {
		return nil, errors.New("missing scan")
	}
	return &models.ScanWithIngredients{Scan: *scan, Ingredients: m.ingredients[scanID]}, nil
}

func (m *memoryScanStore) only(t *testing.T) *models.Scan {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.scans, 1)
	for _, s := range m.scans {
		return s
	}
	return nil
}

type memoryImageStore struct {
	objects map[string][]byte
	deleted []string
}

func (m *memoryImageStore) Upload(_ context.Context, key string, data []byte, contentType string) (*UploadResult, error) {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return &UploadResult{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *memoryImageStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func recognized(text string) models.RecognitionResult {
	return models.RecognitionResult{Text: text, Success: true}
}

func TestScanProcessor_ProcessImage(t *testing.T) {
	t.Parallel()
	store := newMemoryScanStore()
	images := &memoryImageStore{}
	p := NewScanProcessor(fakeRecognizer{recognized("Rice - 2kg\nOnions\nEggs - 12")}, NewIngredientParser(), store, images, nopLogger())

	scan, err := p.ProcessImage(context.Background(), ImageUpload{
		UserID:      7,
		Filename:    "list.png",
		ContentType: "image/png",
		Data:        []byte("png"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.ScanStatusCompleted, scan.Status)
	assert.Equal(t, 7, scan.UserID)
	assert.Equal(t, []string{"Rice", "Onions", "Eggs"}, models.IngredientNames(scan.Ingredients))
	require.True(t, scan.HasImage())
	assert.Contains(t, images.objects, *scan.ImageKey)
	assert.Contains(t, *scan.ImageKey, scan.ID+".png")
}

func TestScanProcessor_ProcessImage_WithoutStorage(t *testing.T) {
	t.Parallel()
	store := newMemoryScanStore()
	p := NewScanProcessor(fakeRecognizer{recognized("Tomatoes - 1kg")}, NewIngredientParser(), store, nil, nopLogger())

	scan, err := p.ProcessImage(context.Background(), ImageUpload{UserID: 1, Data: []byte("jpg")})
	require.NoError(t, err)
	assert.False(t, scan.HasImage())
	assert.Len(t, scan.Ingredients, 1)
}

func TestScanProcessor_ProcessImage_Failures(t *testing.T) {
	t.Parallel()

	msg := "tesseract exploded"
	tests := []struct {
		name    string
		result  models.RecognitionResult
		wantErr error
	}{
		{
			name:    "recognition failed",
			result:  models.RecognitionResult{Success: false, Error: &msg},
			wantErr: ErrRecognitionFailed,
		},
		{
			name:    "no ingredients",
			result:  recognized("!!\n  \na"),
			wantErr: ErrNoIngredientsFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newMemoryScanStore()
			p := NewScanProcessor(fakeRecognizer{tt.result}, NewIngredientParser(), store, nil, nopLogger())

			_, err := p.ProcessImage(context.Background(), ImageUpload{UserID: 1, Data: []byte("x")})
			require.ErrorIs(t, err, tt.wantErr)

			scan := store.only(t)
			assert.Equal(t, models.ScanStatusFailed, scan.Status)
			require.NotNil(t, scan.ErrorMessage)
			assert.Equal(t, tt.wantErr.Error(), *scan.ErrorMessage)
		})
	}
}

func TestScanProcessor_ProcessImage_CleansUpImage(t *testing.T) {
	t.Parallel()
	store := newMemoryScanStore()
	store.createErr = errors.New("db down")
	images := &memoryImageStore{}
	p := NewScanProcessor(fakeRecognizer{recognized("Rice")}, NewIngredientParser(), store, images, nopLogger())

	_, err := p.ProcessImage(context.Background(), ImageUpload{UserID: 1, Filename: "a.jpg", Data: []byte("x")})
	require.Error(t, err)
	assert.Len(t, images.deleted, 1)
	assert.Empty(t, images.objects)
}

func TestScanProcessor_SaveFailureMarksScanFailed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("image", func(t *testing.T) {
		t.Parallel()
		store := newMemoryScanStore()
		store.saveErr = errors.New("db down")
		p := NewScanProcessor(fakeRecognizer{recognized("Rice - 2kg")}, NewIngredientParser(), store, nil, nopLogger())

		_, err := p.ProcessImage(ctx, ImageUpload{UserID: 1, Filename: "a.jpg", Data: []byte("x")})
		require.ErrorContains(t, err, "db down")

		scan := store.only(t)
		assert.Equal(t, models.ScanStatusFailed, scan.Status)
		require.NotNil(t, scan.ErrorMessage)
		assert.Equal(t, saveFailedReason, *scan.ErrorMessage)
	})

	t.Run("manual", func(t *testing.T) {
		t.Parallel()
		store := newMemoryScanStore()
		store.saveErr = errors.New("db down")
		p := NewScanProcessor(nil, NewIngredientParser(), store, nil, nopLogger())

		_, err := p.CreateManualScan(ctx, 3, models.ManualScanRequest{RawText: "Milk - 1l"})
		require.ErrorContains(t, err, "db down")
		assert.Equal(t, models.ScanStatusFailed, store.only(t).Status)
	})
}

func TestScanProcessor_ProcessImage_NoOCR(t *testing.T) {
	t.Parallel()
	p := NewScanProcessor(nil, NewIngredientParser(), newMemoryScanStore(), nil, nopLogger())

	assert.False(t, p.CanRecognize())
	_, err := p.ProcessImage(context.Background(), ImageUpload{UserID: 1})
	assert.ErrorIs(t, err, ErrOCRUnavailable)
}

func TestScanProcessor_CreateManualScan(t *testing.T) {
	t.Parallel()
	unit := "g"

	tests := []struct {
		name      string
		req       models.ManualScanRequest
		wantNames []string
		wantConf  float64
		wantText  string
		wantErr   error
	}{
		{
			name:      "raw text is parsed",
			req:       models.ManualScanRequest{RawText: "Rice - 2kg\nrice\nMilk - 1l"},
			wantNames: []string{"Rice", "Milk"},
			wantConf:  models.ParsedConfidence,
			wantText:  "Rice - 2kg\nrice\nMilk - 1l",
		},
		{
			name: "explicit ingredients win",
			req: models.ManualScanRequest{
				RawText: "ignored for parsing",
				Ingredients: []models.IngredientInput{
					{Name: " Basil ", Unit: &unit},
					{Name: "   "},
				},
			},
			wantNames: []string{"Basil"},
			wantConf:  models.ManualConfidence,
			wantText:  "ignored for parsing",
		},
		{
			name:      "ingredient names become raw text",
			req:       models.ManualScanRequest{Ingredients: []models.IngredientInput{{Name: "Eggs"}, {Name: "Flour"}}},
			wantNames: []string{"Eggs", "Flour"},
			wantConf:  models.ManualConfidence,
			wantText:  "Eggs\nFlour",
		},
		{
			name:    "nothing usable",
			req:     models.ManualScanRequest{RawText: "\n\n"},
			wantErr: ErrNoIngredientsFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewScanProcessor(nil, NewIngredientParser(), newMemoryScanStore(), nil, nopLogger())

			scan, err := p.CreateManualScan(context.Background(), 3, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, models.IngredientNames(scan.Ingredients))
			assert.Equal(t, tt.wantText, scan.RawText)
			for _, ing := range scan.Ingredients {
				assert.Equal(t, tt.wantConf, ing.Confidence)
			}
		})
	}
}

func TestManualIngredients_DropsShortNames(t *testing.T) {
	t.Parallel()
	got := ManualIngredients([]models.IngredientInput{
		{Name: "x"},
		{Name: " é "},
		{Name: ""},
		{Name: " Oj "},
		{Name: "Rice"},
	})
	assert.Equal(t, []string{"Oj", "Rice"}, models.IngredientNames(got))
}

func TestManualIngredients_Defaults(t *testing.T) {
	t.Parallel()
	got := ManualIngredients([]models.IngredientInput{{Name: "Salt"}})
	require.Len(t, got, 1)
	assert.Equal(t, models.Ingredient{
		Name:       "Salt",
		Quantity:   models.DefaultQuantity,
		Unit:       models.DefaultUnit,
		Confidence: models.ManualConfidence,
	}, got[0])
}
