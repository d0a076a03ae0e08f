package results

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cazamitos/cazamitos/internal/blobstore"
)

func newTestService(t *testing.T) (*Service, *blobstore.MemoryBucket) {
	t.Helper()
	bucket := blobstore.NewMemoryBucket()
	svc := NewService(blobstore.NewCollection[Record](bucket, "quiz-results.json", nil), nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 10, 30, 0, 0, time.FixedZone("CET", 3600)) }
	return svc, bucket
}

func TestService_SubmitEnriches(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec := SampleRecord()
	rec.ID = "forged"
	receipt, err := svc.Submit(ctx, rec, Metadata{UserAgent: "curl/8.5", IP: "203.0.113.9"})
	require.NoError(t, err)
	assert.Equal(t, Receipt{Success: true, TotalResults: 1, StudentName: "Estudiante Test API", Score: "10/10"}, receipt)

	stored, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEqual(t, "forged", stored[0].ID)
	assert.NotEmpty(t, stored[0].ID)
	assert.Equal(t, "2025-03-10T09:30:00Z", stored[0].Timestamp)
	assert.Equal(t, &Metadata{UserAgent: "curl/8.5", IP: "203.0.113.9"}, stored[0].Metadata)
}

func TestService_SequentialSubmitsAppendInOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SampleRecord(), Metadata{})
	require.NoError(t, err)
	before, err := svc.Count(ctx)
	require.NoError(t, err)

	first := SampleRecord()
	first.Name = "Primera"
	second := SampleRecord()
	second.Name = "Segunda"

	_, err = svc.Submit(ctx, first, Metadata{})
	require.NoError(t, err)
	receipt, err := svc.Submit(ctx, second, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, before+2, receipt.TotalResults)

	stored, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, before+2)
	assert.Equal(t, "Primera", stored[before].Name)
	assert.Equal(t, "Segunda", stored[before+1].Name)
}

type brokenBucket struct{ blobstore.Bucket }

func (brokenBucket) List(context.Context, string) ([]blobstore.Object, error) {
	return nil, errors.New("connection refused")
}

func TestService_StoreFailure(t *testing.T) {
	svc := NewService(blobstore.NewCollection[Record](brokenBucket{}, "quiz-results.json", nil), nil)

	_, err := svc.Submit(context.Background(), SampleRecord(), Metadata{})
	assert.ErrorIs(t, err, ErrStore)

	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, ErrStore)
}

func TestLocalSubmitter(t *testing.T) {
	svc, _ := newTestService(t)
	sub := &LocalSubmitter{Service: svc, UserAgent: "cazamitos/test"}

	receipt, err := sub.Submit(context.Background(), SampleRecord())
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.TotalResults)

	bad := SampleRecord()
	bad.Score = 11
	_, err = sub.Submit(context.Background(), bad)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"puntuacion"}, ve.Invalid)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "rejected record must not be stored")

	stored, _ := svc.List(context.Background())
	assert.Equal(t, "cazamitos/test", stored[0].Metadata.UserAgent)
	assert.Equal(t, "local", stored[0].Metadata.IP)
}

func TestClient_Submit(t *testing.T) {
	var got Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "cazamitos/test", r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"totalResults":3,"studentName":"Estudiante Test API","score":"10/10"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/guardar-resultados", "cazamitos/test", time.Second)
	receipt, err := c.Submit(context.Background(), SampleRecord())
	require.NoError(t, err)
	assert.Equal(t, 3, receipt.TotalResults)
	assert.Equal(t, "Tema 1. La Escasez", got.Topic)
}

func TestClient_SubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Missing required fields","missingFields":["email"]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).Submit(context.Background(), Record{})
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, []string{"email"}, re.MissingFields)
	assert.Contains(t, re.Error(), "missing: email")
}
