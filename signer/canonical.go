package signer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type pair struct {
	path  string
	value string
}

// Canonicalize flattens a nested payload into its canonical string form:
// sorted "path=value" pairs joined with "&". Mapping keys append "[key]" to
// the parent path (bare key at the root), sequence elements append the
// numeric index the same way, and scalars terminate a path. Sorting is
// byte-wise ascending over the path so the result is identical across
// runtimes regardless of map iteration order.
//
// An empty payload canonicalizes to the empty string.
func Canonicalize(payload map[string]any) (string, error) {
	pairs, err := flattenMap("", payload)
	if err != nil {
		return "", err
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].path < pairs[j].path })

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.path)
		b.WriteByte('=')
		b.WriteString(p.value)
	}
	return b.String(), nil
}

func flattenMap(prefix string, m map[string]any) ([]pair, error) {
	pairs := make([]pair, 0, len(m))
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "[" + k + "]"
		}
		child, err := flatten(path, v)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, child...)
	}
	return pairs, nil
}

func flatten(path string, v any) ([]pair, error) {
	switch val := v.(type) {
	case map[string]any:
		return flattenMap(path, val)
	case []any:
		var pairs []pair
		for i, elem := range val {
			child, err := flatten(path+"["+strconv.Itoa(i)+"]", elem)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, child...)
		}
		return pairs, nil
	default:
		rendered, err := renderScalar(v)
		if err != nil {
			return nil, err
		}
		return []pair{{path: path, value: rendered}}, nil
	}
}

// renderScalar is the single rendering rule per scalar kind. Changing any
// branch here breaks signature compatibility with other implementations.
func renderScalar(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case json.Number:
		return val.String(), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}
