package query

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"

	"github.com/cheliu754/CS409-MP3/domain"
)

// Filter is a compiled where clause: a conjunction of per-field predicates.
type Filter struct {
	preds []predicate
}

type predicate struct {
	field string
	match func(value interface{}) bool
}

// ParseFilter compiles a where clause. The clause must be a JSON object whose
// values are either literals (equality) or operator objects such as
// {"$in": [...]} and {"$regex": "..."}.
func ParseFilter(raw string) (*Filter, error) {
	var clause map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &clause); err != nil {
		return nil, domain.Invalidf("where must be a JSON object: %v", err)
	}
	// null is valid JSON and leaves the map nil; only an object will do
	if clause == nil {
		return nil, domain.Invalidf("where must be a JSON object")
	}

	f := &Filter{}
	for field, spec := range clause {
		match, err := compileSpec(field, spec)
		if err != nil {
			return nil, err
		}
		f.preds = append(f.preds, predicate{field: field, match: match})
	}
	return f, nil
}

// Match evaluates the filter against a decoded document.
func (f *Filter) Match(doc map[string]interface{}) bool {
	if f == nil {
		return true
	}
	for _, p := range f.preds {
		if !p.match(doc[p.field]) {
			return false
		}
	}
	return true
}

func compileSpec(field string, spec interface{}) (func(interface{}) bool, error) {
	ops, ok := operatorObject(spec)
	if !ok {
		return func(v interface{}) bool { return matchEqual(v, spec) }, nil
	}

	var preds []func(interface{}) bool
	for op, arg := range ops {
		pred, err := compileOperator(field, op, arg)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return func(v interface{}) bool {
		for _, pred := range preds {
			if !pred(v) {
				return false
			}
		}
		return true
	}, nil
}

func compileOperator(field, op string, arg interface{}) (func(interface{}) bool, error) {
	switch op {
	case "$in":
		list, ok := arg.([]interface{})
		if !ok {
			return nil, domain.Invalidf("where.%s: $in expects an array", field)
		}
		return func(v interface{}) bool {
			for _, want := range list {
				if matchEqual(v, want) {
					return true
				}
			}
			return false
		}, nil

	case "$regex":
		pattern, ok := arg.(string)
		if !ok {
			return nil, domain.Invalidf("where.%s: $regex expects a string", field)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, domain.Invalidf("where.%s: invalid regex: %v", field, err)
		}
		return func(v interface{}) bool {
			s, ok := v.(string)
			return ok && re.MatchString(s)
		}, nil

	case "$ne":
		return func(v interface{}) bool { return !matchEqual(v, arg) }, nil

	case "$gt", "$gte", "$lt", "$lte":
		return func(v interface{}) bool {
			cmp, ok := compareValues(v, arg)
			if !ok {
				return false
			}
			switch op {
			case "$gt":
				return cmp > 0
			case "$gte":
				return cmp >= 0
			case "$lt":
				return cmp < 0
			default:
				return cmp <= 0
			}
		}, nil

	default:
		return nil, domain.Invalidf("where.%s: unsupported operator %q", field, op)
	}
}

// operatorObject reports whether spec is an operator object, i.e. a JSON
// object whose keys all start with "$".
func operatorObject(spec interface{}) (map[string]interface{}, bool) {
	m, ok := spec.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

// matchEqual applies equality semantics. Array fields match when any element
// equals the queried value, mirroring document-store behavior for fields
// like pendingTasks.
func matchEqual(value, want interface{}) bool {
	if equalValues(value, want) {
		return true
	}
	if arr, ok := value.([]interface{}); ok {
		for _, el := range arr {
			if equalValues(el, want) {
				return true
			}
		}
	}
	return false
}

func equalValues(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

// compareValues orders two values of the same kind. The second result is
// false when the values are not comparable.
func compareValues(a, b interface{}) (int, bool) {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	default:
		return 0, false
	}
}
