package marketplace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"oldphonedeals/internal/listview"
)

// decodePage reads a paged collection. The marketplace wraps collections
// in several ways:
//
//	[...]
//	{"phones": [...], "currentPage": 2, "totalPages": 5, "total": 48}
//	{"items": [...], "page": 2, "totalItems": 48}
//	{"data": {"users": [...], "pagination": {"page": 1, "totalCount": 3}}}
//
// Metadata the body does not carry is left zero.
func decodePage[D any](raw []byte, collection string) (listview.PageResult[D], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return listview.PageResult[D]{Items: []D{}}, nil
	}
	if raw[0] == '[' {
		var items []D
		if err := json.Unmarshal(raw, &items); err != nil {
			return listview.PageResult[D]{}, fmt.Errorf("decode %s: %w", collection, err)
		}
		return listview.PageResult[D]{Items: items, CurrentPage: 1, TotalItems: len(items)}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return listview.PageResult[D]{}, fmt.Errorf("decode %s envelope: %w", collection, err)
	}
	if data, ok := obj["data"]; ok && isObject(data) {
		return decodePage[D](data, collection)
	}

	var items []D
	found := false
	for _, key := range []string{collection, "items", "data", "results"} {
		v, ok := obj[key]
		if !ok || !isArray(v) {
			continue
		}
		if err := json.Unmarshal(v, &items); err != nil {
			return listview.PageResult[D]{}, fmt.Errorf("decode %s: %w", collection, err)
		}
		found = true
		break
	}
	if !found {
		return listview.PageResult[D]{}, fmt.Errorf("decode %s: no collection in response", collection)
	}

	meta := []map[string]json.RawMessage{obj}
	if p, ok := obj["pagination"]; ok && isObject(p) {
		var pm map[string]json.RawMessage
		if err := json.Unmarshal(p, &pm); err == nil {
			meta = append([]map[string]json.RawMessage{pm}, meta...)
		}
	}

	res := listview.PageResult[D]{
		Items:       items,
		CurrentPage: intField(meta, "currentPage", "page"),
		TotalPages:  intField(meta, "totalPages", "pages"),
		TotalItems:  intField(meta, "total", "totalItems", "totalCount", "count"),
	}
	if res.Items == nil {
		res.Items = []D{}
	}
	return res, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// intField returns the first of keys present in any of the maps, accepting
// numbers and numeric strings.
func intField(maps []map[string]json.RawMessage, keys ...string) int {
	for _, m := range maps {
		for _, k := range keys {
			v, ok := m[k]
			if !ok {
				continue
			}
			var n json.Number
			if err := json.Unmarshal(v, &n); err == nil {
				if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
					return int(f)
				}
			}
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				if i, err := strconv.Atoi(s); err == nil {
					return i
				}
			}
		}
	}
	return 0
}
