package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-server/internal/cache"
	"media-server/internal/config"
	domain "media-server/internal/domain/media"
	"media-server/internal/infrastructure/transform"
	"media-server/internal/interfaces/httpserver"
	"media-server/internal/utils/platformerrors"
	"media-server/utils/mediaid"
)

// memRepository keeps records in insertion order, assigning ids and
// timestamps the way the gorm repository does.
type memRepository struct {
	mu      sync.Mutex
	records []domain.MediaRecord
}

func (r *memRepository) Insert(ctx context.Context, record *domain.MediaRecord) (*domain.MediaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *record
	stored.ID = mediaid.New()
	stored.UploadTimestamp = time.Now().UTC()
	r.records = append(r.records, stored)
	return &stored, nil
}

func (r *memRepository) FindByID(ctx context.Context, id string) (*domain.MediaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			record := r.records[i]
			return &record, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		"Media not found.", nil, "test")
}

func (r *memRepository) FindAll(ctx context.Context) ([]domain.MediaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.MediaRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

// memBlobStorage hands back URLs without persisting bytes.
type memBlobStorage struct{}

func (memBlobStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	return "https://cdn.test/" + key, nil
}

// memCacheStore is an in-memory cache.Store without expiry; the TTLs used
// here are long enough that it never matters.
type memCacheStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemCacheStore() *memCacheStore {
	return &memCacheStore{entries: make(map[string]string)}
}

func (s *memCacheStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return value, nil
}

func (s *memCacheStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *memCacheStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServiceName:        "media-server",
		Environment:        "test",
		CacheRecordTTL:     time.Minute,
		CacheCollectionTTL: time.Minute,
		MaxMediaBytes:      20 * 1024 * 1024,
		ThumbnailSize:      150,
	}
	log := zerolog.Nop()
	engine := cache.NewEngine(newMemCacheStore(), log)
	service := domain.NewService(cfg, &memRepository{}, memBlobStorage{}, transform.NewThumbnailer(cfg.ThumbnailSize, log), engine, log)
	return httpserver.New(cfg, log, service).Engine()
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

type uploadPart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, parts ...uploadPart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, p := range parts {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		header.Set("Content-Type", p.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, router *gin.Engine, parts ...uploadPart) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadReturnsRecord(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, uploadPart{
		field:       "image",
		filename:    "cat.png",
		contentType: "image/png",
		data:        encodePNG(t, 200, 100),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var record domain.MediaRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))

	assert.True(t, strings.HasPrefix(record.ID, "med_"))
	assert.True(t, mediaid.IsValid(record.ID))
	assert.Equal(t, "cat.png", record.OriginalFilename)
	assert.Equal(t, "image/png", record.MimeType)
	require.NotNil(t, record.Width)
	require.NotNil(t, record.Height)
	assert.Equal(t, 200, *record.Width)
	assert.Equal(t, 100, *record.Height)
	assert.True(t, strings.HasPrefix(record.OriginalURL, "https://cdn.test/uploads/"))
	assert.Contains(t, record.ThumbnailURL, "/uploads/thumbnails/")
	assert.False(t, record.UploadTimestamp.IsZero())
}

func TestUploadWithoutFileReturns400(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No image file was uploaded."}`, rec.Body.String())
}

func TestUploadWithTwoFilesReturns400(t *testing.T) {
	router := newTestRouter(t)
	data := encodePNG(t, 10, 10)

	rec := doUpload(t, router,
		uploadPart{field: "image", filename: "a.png", contentType: "image/png", data: data},
		uploadPart{field: "other", filename: "b.png", contentType: "image/png", data: data},
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Only one image is allowed. Please upload a single image."}`, rec.Body.String())
}

func TestUploadRejectsNonImage(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, uploadPart{
		field:       "image",
		filename:    "notes.txt",
		contentType: "text/plain",
		data:        []byte("just some text"),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid file type. Only images are allowed."}`, rec.Body.String())
}

func TestUploadSniffsTypeWhenHeaderIsGeneric(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, uploadPart{
		field:       "image",
		filename:    "cat.png",
		contentType: "application/octet-stream",
		data:        encodePNG(t, 10, 10),
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestGetUnknownMediaReturns404(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/media/med_doesnotexist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Media not found."}`, rec.Body.String())
}

func TestListReflectsUploadsInOrder(t *testing.T) {
	router := newTestRouter(t)
	data := encodePNG(t, 10, 10)

	// Prime the collection cache before the first upload; the invalidation
	// on insert must keep the listing current anyway.
	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	first := doUpload(t, router, uploadPart{field: "image", filename: "a.png", contentType: "image/png", data: data})
	require.Equal(t, http.StatusCreated, first.Code)
	second := doUpload(t, router, uploadPart{field: "image", filename: "b.png", contentType: "image/png", data: data})
	require.Equal(t, http.StatusCreated, second.Code)

	req = httptest.NewRequest(http.MethodGet, "/media", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []domain.MediaRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "a.png", records[0].OriginalFilename)
	assert.Equal(t, "b.png", records[1].OriginalFilename)
}

func TestGetMediaByIDRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	created := doUpload(t, router, uploadPart{field: "image", filename: "cat.png", contentType: "image/png", data: encodePNG(t, 10, 10)})
	require.Equal(t, http.StatusCreated, created.Code)
	var record domain.MediaRecord
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &record))

	req := httptest.NewRequest(http.MethodGet, "/media/"+record.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched domain.MediaRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, record.ID, fetched.ID)
	assert.Equal(t, record.OriginalURL, fetched.OriginalURL)
}

func TestFileAndThumbnailRedirect(t *testing.T) {
	router := newTestRouter(t)

	created := doUpload(t, router, uploadPart{field: "image", filename: "cat.png", contentType: "image/png", data: encodePNG(t, 10, 10)})
	require.Equal(t, http.StatusCreated, created.Code)
	var record domain.MediaRecord
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &record))

	req := httptest.NewRequest(http.MethodGet, "/media/"+record.ID+"/file", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, record.OriginalURL, rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/media/"+record.ID+"/thumbnail", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, record.ThumbnailURL, rec.Header().Get("Location"))
}

func TestFileRedirectUnknownIDReturns404(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/media/med_missing/file", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Media not found."}`, rec.Body.String())
}
