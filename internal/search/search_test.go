package search

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/kolshi/internal/catalog/domain"
)

type fakeES struct {
	mu         sync.Mutex
	bulkLines  []string
	searchBody map[string]any
	failSearch bool
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			f.bulkLines = append(f.bulkLines, sc.Text())
		}
		_, _ = io.WriteString(w, `{"took":1,"errors":false,"items":[]}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		if f.failSearch {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"boom"}`)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&f.searchBody)
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":7},"hits":[{"_source":{"id":"E2"}},{"_source":{"id":"B1"}}]}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newIndex(t *testing.T) (*Index, *fakeES) {
	t.Helper()
	fake := &fakeES{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	idx, err := NewClient(context.Background(), Config{URL: srv.URL, Index: "catalog"})
	require.NoError(t, err)
	return idx, fake
}

func TestIndex_BulkDocuments(t *testing.T) {
	t.Parallel()

	idx, fake := newIndex(t)
	p, err := domain.NewProduct("E1", "Phone", 3, decimal.NewFromInt(100), domain.ElectronicsDetails{Brand: "Acme", WarrantyMonths: 12})
	require.NoError(t, err)

	require.NoError(t, idx.Index(context.Background(), []domain.Product{*p}))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.bulkLines, 2)
	assert.Contains(t, fake.bulkLines[0], `"_id":"E1"`)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(fake.bulkLines[1]), &doc))
	assert.Equal(t, document{ID: "E1", Name: "Phone", Category: "Electronics", Description: "Brand: Acme, Warranty: 12 months"}, doc)
}

func TestSearch_ReturnsIDs(t *testing.T) {
	t.Parallel()

	idx, fake := newIndex(t)
	total, ids, err := idx.Search(context.Background(), "phon", 10, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	assert.Equal(t, []string{"E2", "B1"}, ids)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.EqualValues(t, 10, fake.searchBody["from"])
	assert.EqualValues(t, 5, fake.searchBody["size"])
}

func TestSearch_BackendError(t *testing.T) {
	t.Parallel()

	idx, fake := newIndex(t)
	fake.mu.Lock()
	fake.failSearch = true
	fake.mu.Unlock()

	_, _, err := idx.Search(context.Background(), "x", 0, 10)
	assert.ErrorIs(t, err, ErrSearch)
}
