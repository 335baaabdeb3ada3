package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/go-faster/errors"

	"github.com/Skotchmaster/kolshi/internal/catalog/domain"
	"github.com/Skotchmaster/kolshi/pkg/logging"
)

const DefaultIndex = "products"

var ErrSearch = errors.New("search backend error")

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

// Index is an Elasticsearch backed full text index over the catalog.
type Index struct {
	es    *elasticsearch.Client
	index string
}

type document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func NewClient(ctx context.Context, cfg Config) (*Index, error) {
	l := logging.FromContext(ctx).With("svc", "search.connect", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		l.Error("es_client_error", "error", err.Error())
		return nil, errors.Wrap(err, "create elasticsearch client")
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		l.Error("es_info_error", "error", err.Error())
		return nil, errors.Wrap(err, "elasticsearch info")
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		l.Error("es_info_error", "status", res.StatusCode, "body", string(body))
		return nil, errors.Wrapf(ErrSearch, "info: %s", res.Status())
	}

	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}
	l.Info("es_connected", "index", index)
	return &Index{es: client, index: index}, nil
}

// Index bulk-upserts every product keyed by its ID.
func (i *Index) Index(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range products {
		meta := map[string]any{"index": map[string]any{"_index": i.index, "_id": p.ID}}
		if err := enc.Encode(meta); err != nil {
			return errors.Wrap(err, "encode bulk meta")
		}
		doc := document{ID: p.ID, Name: p.Name, Category: p.Category().String(), Description: p.Describe()}
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "encode bulk doc")
		}
	}

	res, err := i.es.Bulk(&buf,
		i.es.Bulk.WithContext(ctx),
		i.es.Bulk.WithIndex(i.index),
		i.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return errors.Wrap(err, "bulk index")
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Wrapf(ErrSearch, "bulk index: %s", res.Status())
	}

	var r struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return errors.Wrap(err, "decode bulk response")
	}
	if r.Errors {
		return errors.Wrap(ErrSearch, "bulk index reported item errors")
	}
	logging.FromContext(ctx).Info("es_indexed", "index", i.index, "count", len(products))
	return nil
}

// Search returns the total hit count and the matching product IDs for one page.
func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []string, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "id", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, errors.Wrap(err, "encode search body")
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, errors.Wrap(err, "search")
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, errors.Wrapf(ErrSearch, "search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, errors.Wrap(err, "decode search response")
	}

	ids := make([]string, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		ids[n] = hit.Source.ID
	}
	return r.Hits.Total.Value, ids, nil
}
