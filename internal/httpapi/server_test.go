package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"admissions-intake/internal/common/config"
	"admissions-intake/internal/common/logger"
	"admissions-intake/internal/docstore"
	"admissions-intake/internal/session"
	"admissions-intake/internal/submission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test fixture
// ==========================

type fakeStore struct {
	calls int64
	docID string
	err   error
}

func (f *fakeStore) CreateDocument(ctx context.Context, path docstore.CollectionPath, fields map[string]interface{}) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return "", f.err
	}
	return f.docID, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

// newReadyFixture boots a real session against a stub auth service and waits
// for it to reach ready.
func newReadyFixture(t *testing.T, store *fakeStore) (*Server, *session.Context, *submission.Controller) {
	t.Helper()

	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok",
			"expires_in":   3600,
			"token_type":   "Bearer",
			"principal_id": "u1",
			"anonymous":    true,
		})
	}))
	t.Cleanup(authSrv.Close)

	cfg := &config.Config{}
	cfg.App.ID = "campus-portal"
	cfg.Backend = config.BackendConfig{
		AuthURL:   authSrv.URL,
		Tenant:    "admissions",
		APIKey:    "key",
		APISecret: "secret",
	}

	sess := session.New(cfg, store, logger.NewNoOpLogger())
	t.Cleanup(sess.Close)
	require.NoError(t, sess.Bootstrap(context.Background()))
	require.Eventually(t, sess.Ready, 2*time.Second, 10*time.Millisecond)

	ctrl := submission.NewController(cfg.App.ID, sess, logger.NewNoOpLogger(),
		submission.WithDriverLabel("fake"))

	return New(":0", sess, ctrl, logger.NewNoOpLogger()), sess, ctrl
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// ==========================
// Endpoints
// ==========================

func TestStatusEndpoint(t *testing.T) {
	srv, _, _ := newReadyFixture(t, &fakeStore{docID: "d1"})

	rec := doRequest(t, srv, http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp["state"])
	assert.Equal(t, "u1", resp["identity"])
	assert.Equal(t, true, resp["submitEnabled"])
	assert.Contains(t, resp["status"], "u1")
}

func TestProgramsEndpoint(t *testing.T) {
	srv, _, _ := newReadyFixture(t, &fakeStore{docID: "d1"})

	rec := doRequest(t, srv, http.MethodGet, "/api/programs", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Programs []string `json:"programs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Programs, "Computer Science")
}

func TestSetFieldEndpoint(t *testing.T) {
	srv, _, ctrl := newReadyFixture(t, &fakeStore{docID: "d1"})

	rec := doRequest(t, srv, http.MethodPut, "/api/form/firstName", `{"value":"Ann"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ann", ctrl.Form().FirstName)
}

func TestSetFieldUnknownField(t *testing.T) {
	srv, _, _ := newReadyFixture(t, &fakeStore{docID: "d1"})

	rec := doRequest(t, srv, http.MethodPut, "/api/form/favoriteColor", `{"value":"blue"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitEndpoint(t *testing.T) {
	store := &fakeStore{docID: "doc-55"}
	srv, sess, ctrl := newReadyFixture(t, store)

	require.NoError(t, ctrl.SetField("firstName", "Ann"))
	rec := doRequest(t, srv, http.MethodPost, "/api/submit", "")

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-55", resp["documentId"])
	assert.Contains(t, resp["status"], "doc-55")
	assert.Contains(t, sess.Status(), "doc-55")
	form := ctrl.Form()
	assert.True(t, form.IsEmpty())
}

func TestSubmitEndpointWriteFailure(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("network down")}
	srv, _, ctrl := newReadyFixture(t, store)

	require.NoError(t, ctrl.SetField("firstName", "Ann"))
	rec := doRequest(t, srv, http.MethodPost, "/api/submit", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["status"], "Submission failed: network down")
	assert.Equal(t, "Ann", ctrl.Form().FirstName)
}

func TestReadyEndpoint(t *testing.T) {
	srv, _, _ := newReadyFixture(t, &fakeStore{docID: "d1"})

	rec := doRequest(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyEndpointUnavailableSession(t *testing.T) {
	sess := session.New(&config.Config{}, &fakeStore{}, logger.NewNoOpLogger())
	t.Cleanup(sess.Close)
	_ = sess.Bootstrap(context.Background())

	ctrl := submission.NewController("campus-portal", sess, logger.NewNoOpLogger())
	srv := New(":0", sess, ctrl, logger.NewNoOpLogger())

	rec := doRequest(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/status", "")
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unavailable", resp["state"])
	assert.Contains(t, resp["status"], "config not found")
	assert.Equal(t, false, resp["submitEnabled"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newReadyFixture(t, &fakeStore{docID: "d1"})

	rec := doRequest(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
