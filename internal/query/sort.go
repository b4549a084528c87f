package query

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/cheliu754/CS409-MP3/domain"
)

// SortKey is one field of a sort clause. Keys apply in listed order as
// tie-breaks, which is why parsing preserves JSON key order.
type SortKey struct {
	Field string
	Desc  bool
}

// ParseSort compiles a sort clause: a JSON object mapping field names to
// 1 (ascending) or -1 (descending).
func ParseSort(raw string) ([]SortKey, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, domain.Invalidf("sort must be a JSON object: %v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, domain.Invalidf("sort must be a JSON object")
	}

	var keys []SortKey
	for dec.More() {
		fieldTok, err := dec.Token()
		if err != nil {
			return nil, domain.Invalidf("sort must be a JSON object: %v", err)
		}
		field := fieldTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return nil, domain.Invalidf("sort.%s: %v", field, err)
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return nil, domain.Invalidf("sort.%s must be 1 or -1", field)
		}
		dir, err := num.Float64()
		if err != nil || (dir != 1 && dir != -1) {
			return nil, domain.Invalidf("sort.%s must be 1 or -1, got %s", field, num)
		}
		keys = append(keys, SortKey{Field: field, Desc: dir == -1})
	}

	// consume the closing brace and require that nothing trails it
	if _, err := dec.Token(); err != nil {
		return nil, domain.Invalidf("sort must be a JSON object: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, domain.Invalidf("sort must be a single JSON object")
	}
	return keys, nil
}

// SortDocs orders documents in place by the given keys. The sort is stable so
// documents that compare equal keep their scan order.
func SortDocs(docs []map[string]interface{}, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			cmp := orderValues(docs[i][key.Field], docs[j][key.Field])
			if cmp == 0 {
				continue
			}
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// orderValues imposes a total order across value kinds so that mixed-type
// fields still sort deterministically: nil < bool < number < string < other.
func orderValues(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if cmp, ok := compareValues(a, b); ok {
		return cmp
	}
	return 0
}

func typeRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
