package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cazamitos/cazamitos/internal/blobstore"
	"github.com/cazamitos/cazamitos/internal/results"
)

const sampleBody = `{"nombre":"Estudiante Test API","email":"test@vercel.com","asignatura":"Economía Política","tema":"Tema 1. La Escasez","puntuacion":10,"totalPreguntas":10,"tiempoSegundos":150,"preguntasFalladas":"Ninguna"}`

type fixture struct {
	handler http.Handler
	svc     *results.Service
}

func newFixture(t *testing.T, cfg Config, bucket blobstore.Bucket) fixture {
	t.Helper()
	if bucket == nil {
		bucket = blobstore.NewMemoryBucket()
	}
	svc := results.NewService(blobstore.NewCollection[results.Record](bucket, "quiz-results.json", nil), nil)
	return fixture{
		handler: NewRouter(cfg, Deps{Results: svc, Metrics: NewMetrics()}),
		svc:     svc,
	}
}

func (f fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.svc.Count(context.Background())
	require.NoError(t, err)
	return n
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), "body: %s", rec.Body.String())
	return m
}

func TestSaveResults_Success(t *testing.T) {
	f := newFixture(t, DefaultConfig(), nil)

	rec := f.do(http.MethodPost, ResultsPath, sampleBody,
		"Content-Type", "application/json",
		"User-Agent", "Mozilla/5.0",
		"X-Forwarded-For", "203.0.113.7")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["totalResults"])
	assert.Equal(t, "Estudiante Test API", body["studentName"])
	assert.Equal(t, "10/10", body["score"])

	stored, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEmpty(t, stored[0].ID)
	assert.NotEmpty(t, stored[0].Timestamp)
	assert.Equal(t, "Mozilla/5.0", stored[0].Metadata.UserAgent)
	assert.Equal(t, "203.0.113.7", stored[0].Metadata.IP)
}

func TestSaveResults_TwoSubmissions(t *testing.T) {
	f := newFixture(t, DefaultConfig(), nil)

	first := f.do(http.MethodPost, ResultsPath, sampleBody)
	second := f.do(http.MethodPost, ResultsPath, strings.Replace(sampleBody, "Estudiante Test API", "Segunda", 1))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.EqualValues(t, 2, decode(t, second)["totalResults"])

	stored, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "Segunda", stored[1].Name)
}

func TestSaveResults_Methods(t *testing.T) {
	f := newFixture(t, DefaultConfig(), nil)

	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := f.do(m, ResultsPath, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, m)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"], m)
		assert.Equal(t, "Only POST requests are allowed", body["message"], m)
	}

	rec := f.do(http.MethodOptions, ResultsPath, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	preflight := f.do(http.MethodOptions, ResultsPath, "",
		"Origin", "https://quiz.example.com",
		"Access-Control-Request-Method", "POST")
	assert.Less(t, preflight.Code, 300)
	assert.NotEmpty(t, preflight.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, 0, f.count(t))
}

func TestSaveResults_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing []any
		invalid []any
	}{
		{
			name:    "missing email",
			body:    strings.Replace(sampleBody, `"email":"test@vercel.com",`, "", 1),
			missing: []any{"email"},
		},
		{
			name:    "score above total",
			body:    strings.Replace(sampleBody, `"puntuacion":10`, `"puntuacion":11`, 1),
			invalid: []any{"puntuacion"},
		},
		{
			name:    "score as string",
			body:    strings.Replace(sampleBody, `"puntuacion":10`, `"puntuacion":"10"`, 1),
			invalid: []any{"puntuacion"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig(), nil)
			rec := f.do(http.MethodPost, ResultsPath, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
			if tt.missing != nil {
				assert.Equal(t, tt.missing, body["missingFields"])
				assert.Contains(t, body["message"], "email")
			}
			if tt.invalid != nil {
				assert.Equal(t, tt.invalid, body["invalidFields"])
			}
			assert.Equal(t, 0, f.count(t), "rejected submission must not touch the collection")
		})
	}
}

func TestSaveResults_BadJSON(t *testing.T) {
	f := newFixture(t, DefaultConfig(), nil)
	rec := f.do(http.MethodPost, ResultsPath, "{nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

type failingBucket struct{ *blobstore.MemoryBucket }

func (failingBucket) Put(context.Context, string, io.Reader, int64, string) error {
	return errors.New("s3: access denied for key quiz-results")
}

func TestSaveResults_StoreFailure(t *testing.T) {
	tests := []struct {
		mode       string
		wantDetail bool
	}{
		{"release", false},
		{"debug", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mode = tt.mode
			f := newFixture(t, cfg, failingBucket{blobstore.NewMemoryBucket()})

			rec := f.do(http.MethodPost, ResultsPath, sampleBody)
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.NotContains(t, rec.Body.String(), "goroutine")

			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Internal server error", body["message"])
			_, hasDetail := body["error"]
			assert.Equal(t, tt.wantDetail, hasDetail)
			if !tt.wantDetail {
				assert.NotContains(t, rec.Body.String(), "access denied")
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 2
	f := newFixture(t, cfg, nil)

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = f.do(http.MethodPost, ResultsPath, sampleBody, "X-Forwarded-For", "198.51.100.4").Code
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	other := f.do(http.MethodPost, ResultsPath, sampleBody, "X-Forwarded-For", "198.51.100.5")
	assert.Equal(t, http.StatusOK, other.Code, "limits are per client address")
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, DefaultConfig(), nil)

	rec := f.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	f.do(http.MethodPost, ResultsPath, sampleBody)
	f.do(http.MethodPost, ResultsPath, "{}")

	rec = f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()
	assert.Contains(t, text, `cazamitos_result_submissions_total{outcome="stored"} 1`)
	assert.Contains(t, text, `cazamitos_result_submissions_total{outcome="invalid"} 1`)
	assert.Contains(t, text, `cazamitos_results_collection_size 1`)
	assert.Contains(t, text, `http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestMetricsBoundMethodLabel(t *testing.T) {
	f := newFixture(t, DefaultConfig(), nil)

	for _, method := range []string{"BREW", "PURGE"} {
		assert.Equal(t, http.StatusMethodNotAllowed, f.do(method, ResultsPath, "").Code)
	}

	text := f.do(http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, text, `http_requests_total{method="other"`)
	assert.NotContains(t, text, `method="BREW"`)
	assert.NotContains(t, text, `method="PURGE"`)
}

func TestMaterialsRoute(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Microeconomía"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Microeconomía", "Tema 1.pdf"), []byte("%PDF"), 0o644))

	cfg := DefaultConfig()
	cfg.MaterialsDir = dir
	f := newFixture(t, cfg, nil)

	rec := f.do(http.MethodGet, "/api/materials", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"Microeconomía": []any{"Tema 1.pdf"}}, decode(t, rec))

	without := newFixture(t, DefaultConfig(), nil)
	assert.Equal(t, http.StatusNotFound, without.do(http.MethodGet, "/api/materials", "").Code)
}

func TestIPLimiter_SweepsIdleVisitors(t *testing.T) {
	l := newIPLimiter(1)
	clock := l.now()
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	clock = clock.Add(10 * time.Minute)
	assert.True(t, l.allow("b"))
	_, kept := l.visitors["a"]
	assert.False(t, kept, "idle visitor should be swept")
}
