package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"admissions-intake/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestESStore spins up a fake Elasticsearch node and a store pointed at it.
func newTestESStore(t *testing.T, handler http.HandlerFunc) (*ElasticsearchStore, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The v8 client refuses to talk to anything that does not
		// identify itself as Elasticsearch.
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	store, err := NewElasticsearchStore(config.ElasticsearchConfig{
		Addresses: []string{srv.URL},
	})
	require.NoError(t, err)

	return store, srv
}

func TestElasticsearchCreateDocument(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	store, _ := newTestESStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"_id":    "es-doc-42",
			"result": "created",
		})
	})

	path := FormsPath("campus-portal", "user-1")
	id, err := store.CreateDocument(context.Background(), path, map[string]interface{}{
		"firstName":    "Ada",
		"reviewStatus": "Pending Review",
	})

	require.NoError(t, err)
	assert.Equal(t, "es-doc-42", id)
	assert.Equal(t, "/apps.campus-portal.users.user-1.admissions_forms/_doc", gotPath)
	assert.Equal(t, "Ada", gotBody["firstName"])
	assert.Equal(t, "Pending Review", gotBody["reviewStatus"])
}

func TestElasticsearchCreateDocumentBackendError(t *testing.T) {
	store, _ := newTestESStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"cluster unavailable"}`))
	})

	path := FormsPath("campus-portal", "user-1")
	id, err := store.CreateDocument(context.Background(), path, map[string]interface{}{"a": "b"})

	assert.Error(t, err)
	assert.Empty(t, id)
}

func TestElasticsearchCreateDocumentInvalidPath(t *testing.T) {
	called := false
	store, _ := newTestESStore(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := store.CreateDocument(context.Background(), CollectionPath{}, map[string]interface{}{"a": "b"})

	assert.Error(t, err)
	assert.False(t, called, "invalid path must be rejected before any network call")
}

func TestElasticsearchPing(t *testing.T) {
	store, _ := newTestESStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, store.Ping(context.Background()))
}
