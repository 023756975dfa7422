// Package search wraps the Elasticsearch client used for indexing and querying.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
)

// ErrIndexMissing is returned when a search targets an index that does not exist yet.
var ErrIndexMissing = errors.New("search: index not found")

// Hits is a page of matching documents.
type Hits struct {
	Total   int64
	Sources []json.RawMessage
}

// Document is one item of a bulk request.
type Document struct {
	ID   string
	Body interface{}
}

// Client talks to one Elasticsearch cluster. All index names get Prefix.
type Client struct {
	ES     *elasticsearch.Client
	Prefix string
}

// New connects to the cluster at url.
func New(url, prefix string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &Client{ES: es, Prefix: prefix}, nil
}

func (c *Client) index(name string) string {
	return c.Prefix + name
}

// Ping checks the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.ES.Ping(c.ES.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// Index stores doc under id, replacing any previous version.
func (c *Client) Index(ctx context.Context, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := c.ES.Index(c.index(index), bytes.NewReader(body),
		c.ES.Index.WithDocumentID(id),
		c.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index %s/%s: %w", index, id, err)
	}
	return checkResponse(res, "index "+index+"/"+id)
}

// Delete removes a document. Missing documents are not an error.
func (c *Client) Delete(ctx context.Context, index, id string) error {
	res, err := c.ES.Delete(c.index(index), id, c.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", index, id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete "+index+"/"+id)
}

// Search runs query (a search request body) against index.
func (c *Client) Search(ctx context.Context, index string, query map[string]interface{}) (*Hits, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	res, err := c.ES.Search(
		c.ES.Search.WithContext(ctx),
		c.ES.Search.WithIndex(c.index(index)),
		c.ES.Search.WithBody(bytes.NewReader(body)),
		c.ES.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrIndexMissing
	}
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", index, errorReason(res.Body, res.Status()))
	}

	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search %s: %w", index, err)
	}
	hits := &Hits{Total: out.Hits.Total.Value, Sources: make([]json.RawMessage, 0, len(out.Hits.Hits))}
	for _, h := range out.Hits.Hits {
		hits.Sources = append(hits.Sources, h.Source)
	}
	return hits, nil
}

// Bulk indexes docs through the bulk API and returns how many were indexed.
func (c *Client) Bulk(ctx context.Context, index string, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     c.ES,
		Index:      c.index(index),
		NumWorkers: 1,
	})
	if err != nil {
		return 0, err
	}
	for _, d := range docs {
		body, err := json.Marshal(d.Body)
		if err != nil {
			return 0, err
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: d.ID,
			Body:       bytes.NewReader(body),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				ev := log.Error().Str("index", index).Str("id", item.DocumentID)
				if err != nil {
					ev = ev.Err(err)
				} else {
					ev = ev.Str("reason", res.Error.Reason)
				}
				ev.Msg("bulk index failed")
			},
		})
		if err != nil {
			return 0, err
		}
	}
	if err := bi.Close(ctx); err != nil {
		return 0, err
	}
	stats := bi.Stats()
	if stats.NumFailed > 0 {
		return int(stats.NumIndexed), fmt.Errorf("bulk %s: %d documents failed", index, stats.NumFailed)
	}
	return int(stats.NumIndexed), nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%s: %s", op, errorReason(res.Body, res.Status()))
	}
	return nil
}

func errorReason(body io.Reader, status string) string {
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&e); err != nil || e.Error.Reason == "" {
		return status
	}
	return strings.TrimSpace(e.Error.Type + ": " + e.Error.Reason)
}
