package repository

import (
	"encoding/json"
	"errors"

	"github.com/cheliu754/CS409-MP3/internal/query"
	"github.com/cheliu754/CS409-MP3/internal/store"
)

// ListDocuments runs a full list query: filter during the scan, then sort,
// window (skip/limit) and project. Results are decoded document maps so the
// projection can drop fields the typed structs would always carry.
func ListDocuments(tx store.Tx, collection string, opts *query.Options) ([]map[string]interface{}, error) {
	docs := []map[string]interface{}{}
	err := tx.Scan(collection, func(id string, raw []byte) error {
		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		if opts.Match(doc) {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	query.SortDocs(docs, opts.Sort)

	if opts.Skip > 0 {
		if opts.Skip >= len(docs) {
			docs = docs[:0]
		} else {
			docs = docs[opts.Skip:]
		}
	}
	if opts.Limit >= 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}

	if opts.Projection != nil {
		for i := range docs {
			docs[i] = opts.Projection.Apply(docs[i])
		}
	}
	return docs, nil
}

// CountDocuments counts matches, honoring only the filter.
func CountDocuments(tx store.Tx, collection string, opts *query.Options) (int, error) {
	count := 0
	err := tx.Scan(collection, func(id string, raw []byte) error {
		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		if opts.Match(doc) {
			count++
		}
		return nil
	})
	return count, err
}

// GetDocument fetches one document as a map and applies a projection.
// Callers map store.ErrNotFound to the collection's domain error.
func GetDocument(tx store.Tx, collection, id string, proj *query.Projection) (map[string]interface{}, error) {
	raw, err := tx.Get(collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return proj.Apply(doc), nil
}
