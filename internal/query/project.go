package query

import (
	"encoding/json"

	"github.com/cheliu754/CS409-MP3/domain"
)

// Projection is a compiled select clause. It runs in either inclusion mode
// (return only the listed fields) or exclusion mode (return everything but
// the listed fields). The two must not be mixed, except that _id may be
// excluded alongside an inclusion list.
type Projection struct {
	include bool
	fields  map[string]bool
	dropID  bool
}

// ParseProjection compiles a select clause: a JSON object mapping field names
// to 1/true (include) or 0/false (exclude).
func ParseProjection(raw string) (*Projection, error) {
	var clause map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &clause); err != nil {
		return nil, domain.Invalidf("select must be a JSON object: %v", err)
	}
	// null is valid JSON and leaves the map nil; only an object will do
	if clause == nil {
		return nil, domain.Invalidf("select must be a JSON object")
	}
	if len(clause) == 0 {
		return nil, nil
	}

	included := map[string]bool{}
	excluded := map[string]bool{}
	for field, v := range clause {
		switch val := v.(type) {
		case float64:
			if val == 1 {
				included[field] = true
			} else if val == 0 {
				excluded[field] = true
			} else {
				return nil, domain.Invalidf("select.%s must be 0 or 1", field)
			}
		case bool:
			if val {
				included[field] = true
			} else {
				excluded[field] = true
			}
		default:
			return nil, domain.Invalidf("select.%s must be 0 or 1", field)
		}
	}

	switch {
	case len(included) == 0:
		return &Projection{include: false, fields: excluded}, nil
	case len(excluded) == 0:
		return &Projection{include: true, fields: included}, nil
	case len(excluded) == 1 && excluded["_id"]:
		// the one sanctioned mix: pure inclusion while hiding _id
		return &Projection{include: true, fields: included, dropID: true}, nil
	default:
		return nil, domain.Invalidf("select cannot mix included and excluded fields")
	}
}

// Apply returns a copy of the document with the projection applied.
// A nil projection returns the document unchanged.
func (p *Projection) Apply(doc map[string]interface{}) map[string]interface{} {
	if p == nil {
		return doc
	}

	out := make(map[string]interface{})
	if p.include {
		for field := range p.fields {
			if v, ok := doc[field]; ok {
				out[field] = v
			}
		}
		if !p.dropID && !p.fields["_id"] {
			if v, ok := doc["_id"]; ok {
				out["_id"] = v
			}
		}
		if p.dropID {
			delete(out, "_id")
		}
		return out
	}

	for field, v := range doc {
		if !p.fields[field] {
			out[field] = v
		}
	}
	return out
}
