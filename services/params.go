package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gallformers/apperr"
	"gallformers/models"
)

// NormalizeFacet returns the values of a list facet. Values that arrived as a
// list are used as they are; raw text goes through NormalizeList.
func NormalizeFacet(l models.StringList) ([]string, error) {
	if l.Sequence {
		return l.Values, nil
	}
	return NormalizeList(l.Values)
}

// NormalizeList turns a facet parameter into a list of values. Callers may
// send repeated values, a single plain value, or a single JSON encoded array.
//
// A single value is always tried as JSON first and only kept verbatim when it
// does not decode. A value such as "12" therefore becomes ["12"] through the
// number path, and "\"ridge\"" becomes ["ridge"].
func NormalizeList(values []string) ([]string, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
	default:
		return values, nil
	}

	raw := values[0]
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		if strings.HasPrefix(strings.TrimSpace(raw), "[") {
			return nil, fmt.Errorf("%w: malformed list %q", apperr.ErrValidation, raw)
		}
		return []string{raw}, nil
	}

	switch v := decoded.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := scalarString(item)
			if !ok {
				return nil, fmt.Errorf("%w: list %q contains a non-scalar value", apperr.ErrValidation, raw)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		if s, ok := scalarString(v); ok {
			return []string{s}, nil
		}
		return nil, fmt.Errorf("%w: expected a value or a list, got %q", apperr.ErrValidation, raw)
	}
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}
