// Package query translates the list-endpoint query parameters
// (where/sort/select/skip/limit/count) into operations evaluated over
// decoded JSON documents. Both collections share this one translator.
package query

import (
	"strconv"

	"github.com/cheliu754/CS409-MP3/domain"
)

// Params carries the raw, percent-decoded query-string values.
type Params struct {
	Where  string
	Sort   string
	Select string
	Skip   string
	Limit  string
	Count  string
}

// Options is the parsed form of Params, ready for evaluation.
type Options struct {
	Filter     *Filter
	Sort       []SortKey
	Projection *Projection
	Skip       int
	// Limit caps the result set; negative means unlimited.
	Limit int
	Count bool
}

// Parse validates and compiles the raw parameters. defaultLimit applies when
// no explicit limit is given; zero or negative means uncapped.
func Parse(p Params, defaultLimit int) (*Options, error) {
	opts := &Options{Limit: -1}
	if defaultLimit > 0 {
		opts.Limit = defaultLimit
	}

	var err error
	if p.Where != "" {
		if opts.Filter, err = ParseFilter(p.Where); err != nil {
			return nil, err
		}
	}
	if p.Sort != "" {
		if opts.Sort, err = ParseSort(p.Sort); err != nil {
			return nil, err
		}
	}
	if p.Select != "" {
		if opts.Projection, err = ParseProjection(p.Select); err != nil {
			return nil, err
		}
	}
	if p.Skip != "" {
		n, convErr := strconv.Atoi(p.Skip)
		if convErr != nil || n < 0 {
			return nil, domain.Invalidf("skip must be a non-negative integer, got %q", p.Skip)
		}
		opts.Skip = n
	}
	if p.Limit != "" {
		n, convErr := strconv.Atoi(p.Limit)
		if convErr != nil || n < 0 {
			return nil, domain.Invalidf("limit must be a non-negative integer, got %q", p.Limit)
		}
		opts.Limit = n
	}
	if p.Count != "" {
		b, convErr := strconv.ParseBool(p.Count)
		if convErr != nil {
			return nil, domain.Invalidf("count must be a boolean, got %q", p.Count)
		}
		opts.Count = b
	}

	return opts, nil
}

// Match reports whether the document satisfies the where filter.
// A nil filter matches everything.
func (o *Options) Match(doc map[string]interface{}) bool {
	if o == nil || o.Filter == nil {
		return true
	}
	return o.Filter.Match(doc)
}
