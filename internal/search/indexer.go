// Package search projects movie engagement counters into Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

type StatsIndexer struct {
	es    *elasticsearch.Client
	index string
}

func NewStatsIndexer(es *elasticsearch.Client, index string) *StatsIndexer {
	return &StatsIndexer{es: es, index: index}
}

type bulkAction struct {
	Index struct {
		ID string `json:"_id"`
	} `json:"index"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexMovieStats upserts one document per movie, keyed by movie id.
func (s *StatsIndexer) IndexMovieStats(ctx context.Context, stats []models.MovieStats) error {
	if len(stats) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, st := range stats {
		var action bulkAction
		action.Index.ID = strconv.FormatUint(uint64(st.MovieID), 10)
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("search: encode action: %w", err)
		}
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("search: encode document: %w", err)
		}
	}

	res, err := s.es.Bulk(bytes.NewReader(buf.Bytes()),
		s.es.Bulk.WithContext(ctx),
		s.es.Bulk.WithIndex(s.index),
	)
	if err != nil {
		return fmt.Errorf("search: bulk: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("search: bulk: %s: %s", res.Status(), body)
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("search: decode bulk response: %w", err)
	}
	if br.Errors {
		failed := 0
		first := ""
		for _, item := range br.Items {
			for _, r := range item {
				if r.Error != nil {
					if failed == 0 {
						first = r.ID + ": " + r.Error.Reason
					}
					failed++
				}
			}
		}
		return fmt.Errorf("search: bulk: %d documents failed, first %s", failed, first)
	}
	return nil
}
