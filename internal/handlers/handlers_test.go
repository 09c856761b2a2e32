package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/config"
	"github.com/foxxcyber/pantry-chef/internal/database"
	"github.com/foxxcyber/pantry-chef/internal/middleware"
	"github.com/foxxcyber/pantry-chef/internal/models"
	"github.com/foxxcyber/pantry-chef/internal/services"
)

// memoryUsers is an in-memory UserStore
type memoryUsers struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{nextID: 1, users: map[string]*models.User{}}
}

func (m *memoryUsers) CreateUser(_ context.Context, email, passwordHash string, displayName *string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return nil, database.ErrEmailExists
	}
	u := &models.User{ID: m.nextID, Email: email, PasswordHash: passwordHash, DisplayName: displayName, Role: models.RoleUser}
	m.nextID++
	m.users[email] = u
	return u, nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, database.ErrUserNotFound
}

func (m *memoryUsers) GetUserByID(_ context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (m *memoryUsers) UpdateUserLastLogin(_ context.Context, id int) error {
	return nil
}

// memoryScans serves both the handlers and the scan processor
type memoryScans struct {
	mu          sync.Mutex
	scans       map[string]*models.Scan
	ingredients map[string][]models.Ingredient
	seq         int
}

func newMemoryScans() *memoryScans {
	return &memoryScans{scans: map[string]*models.Scan{}, ingredients: map[string][]models.Ingredient{}}
}

func (m *memoryScans) CreateScan(_ context.Context, req *models.CreateScanRequest) (*models.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	s := &models.Scan{
		ID:               req.ID,
		UserID:           req.UserID,
		RawText:          req.RawText,
		ImageKey:         req.ImageKey,
		OriginalFilename: req.OriginalFilename,
		ContentType:      req.ContentType,
		Status:           req.Status,
		CreatedAt:        time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC),
	}
	m.scans[s.ID] = s
	return s, nil
}

func (m *memoryScans) SaveScanResult(_ context.Context, scanID, rawText string, ingredients []models.Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[scanID]
	if !ok {
		return database.ErrScanNotFound
	}
	s.RawText = rawText
	s.Status = models.ScanStatusCompleted
	m.ingredients[scanID] = ingredients
	return nil
}

func (m *memoryScans) UpdateScanStatus(_ context.Context, scanID string, status models.ScanStatus, msg *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[scanID]
	if !ok {
		return database.ErrScanNotFound
	}
	s.Status = status
	s.ErrorMessage = msg
	return nil
}

func (m *memoryScans) GetScanByID(_ context.Context, scanID string, userID int) (*models.ScanWithIngredients, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[scanID]
	if !ok || (userID != 0 && s.UserID != userID) {
		return nil, database.ErrScanNotFound
	}
	ings := m.ingredients[scanID]
	if ings == nil {
		ings = []models.Ingredient{}
	}
	return &models.ScanWithIngredients{Scan: *s, Ingredients: ings}, nil
}

func (m *memoryScans) ListScans(_ context.Context, p models.ScanListParams) ([]models.Scan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Scan
	for _, s := range m.scans {
		if s.UserID != p.UserID || (p.Status != nil && s.Status != *p.Status) {
			continue
		}
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if p.Offset >= total {
		return []models.Scan{}, total, nil
	}
	end := p.Offset + p.Limit
	if end > total {
		end = total
	}
	return all[p.Offset:end], total, nil
}

func (m *memoryScans) CountScans(_ context.Context, userID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.scans {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memoryScans) UpdateScanIngredients(_ context.Context, scanID string, userID int, ingredients []models.Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[scanID]
	if !ok || s.UserID != userID {
		return database.ErrScanNotFound
	}
	m.ingredients[scanID] = ingredients
	return nil
}

func (m *memoryScans) DeleteScan(_ context.Context, scanID string, userID int) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[scanID]
	if !ok || s.UserID != userID {
		return nil, database.ErrScanNotFound
	}
	delete(m.scans, scanID)
	delete(m.ingredients, scanID)
	return s.ImageKey, nil
}

func (m *memoryScans) DeleteAllScans(_ context.Context, userID int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := []string{}
	for id, s := range m.scans {
		if s.UserID != userID {
			continue
		}
		if s.HasImage() {
			keys = append(keys, *s.ImageKey)
		}
		delete(m.scans, id)
		delete(m.ingredients, id)
	}
	return keys, nil
}

// memoryImages is an in-memory object store
type memoryImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryImages() *memoryImages {
	return &memoryImages{objects: map[string][]byte{}}
}

func (m *memoryImages) Upload(_ context.Context, key string, data []byte, contentType string) (*services.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return &services.UploadResult{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *memoryImages) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.example/" + key + "?signed", nil
}

func (m *memoryImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryImages) DeleteMultiple(ctx context.Context, keys []string) error {
	for _, k := range keys {
		_ = m.Delete(ctx, k)
	}
	return nil
}

func (m *memoryImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fixedRecognizer struct {
	text string
}

func (r fixedRecognizer) Recognize([]byte) models.RecognitionResult {
	if r.text == "" {
		msg := "no text"
		return models.RecognitionResult{Success: false, Error: &msg}
	}
	return models.RecognitionResult{Text: r.text, Success: true}
}

type testEnv struct {
	app    *fiber.App
	cfg    *config.Config
	users  *memoryUsers
	scans  *memoryScans
	images *memoryImages
}

type envOptions struct {
	ocrText   string
	noOCR     bool
	generator *services.RecipeGenerator
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:      "test-secret-test-secret",
		JWTExpiry:      time.Hour,
		MaxUploadBytes: 1024 * 1024,
	}
	logger := zap.NewNop()
	users := newMemoryUsers()
	scans := newMemoryScans()
	images := newMemoryImages()
	parser := services.NewIngredientParser()
	catalog := services.NewRecipeCatalog(services.EmbeddedCatalog{}, logger)

	var recognizer services.TextRecognizer
	if !opts.noOCR {
		recognizer = fixedRecognizer{text: opts.ocrText}
	}

	h := New(Deps{
		Config:    cfg,
		Logger:    logger,
		Users:     users,
		Scans:     scans,
		Images:    images,
		Parser:    parser,
		Catalog:   catalog,
		Matcher:   services.NewRecipeMatcher(catalog),
		Processor: services.NewScanProcessor(recognizer, parser, scans, images, logger),
		Generator: opts.generator,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h.RegisterRoutes(app)

	return &testEnv{app: app, cfg: cfg, users: users, scans: scans, images: images}
}

func (e *testEnv) token(t *testing.T, id int, role models.Role) string {
	t.Helper()
	tok, err := middleware.GenerateToken(e.cfg, &models.User{ID: id, Email: "u@example.com", Role: role})
	require.NoError(t, err)
	return tok
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *Meta           `json:"meta"`
}

func (e *testEnv) do(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return resp.StatusCode, env
}

func (e *testEnv) json(t *testing.T, method, path string, body any, token string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(t, req, token)
}

func (e *testEnv) upload(t *testing.T, filename, contentType string, data []byte, token string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/scans/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req, token)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), "data: %s", raw)
	return v
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
