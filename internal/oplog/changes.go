package oplog

import (
	"encoding/json"
	"sort"
)

// FieldChange is one field whose displayed value differs between two
// snapshots. Values are display strings, not raw values.
type FieldChange struct {
	Field    string `json:"field"`
	Label    string `json:"label"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// priorityFields sort ahead of all other fields, in this exact order.
var priorityFields = []string{"name", "username", "display_name", "status", "group", "groups", "quota", "role"}

// hiddenFields never surface in change sets, except for the redemption
// module where code values remain comparable.
var hiddenFields = map[string]bool{"key": true, "keys": true, "id": true}

// Changes computes the ordered list of field-level differences between two
// snapshots. Snapshots may be JSON strings, decoded objects, or nil; anything
// that does not coerce to an object is treated as empty. Two raw values count
// as equal when they format to the same display string.
func Changes(oldSnapshot, newSnapshot any, module Module) []FieldChange {
	oldObj := coerceObject(oldSnapshot)
	newObj := coerceObject(newSnapshot)

	keys := make([]string, 0, len(oldObj)+len(newObj))
	seen := make(map[string]bool, len(oldObj)+len(newObj))
	for key := range oldObj {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for key := range newObj {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sortFieldKeys(keys)

	changes := make([]FieldChange, 0, len(keys))
	for _, key := range keys {
		if hiddenFields[key] && module != ModuleRedemption {
			continue
		}
		oldFormatted := FormatValue(key, oldObj[key], module)
		newFormatted := FormatValue(key, newObj[key], module)
		if oldFormatted == newFormatted {
			continue
		}
		changes = append(changes, FieldChange{
			Field:    key,
			Label:    Label(module, key),
			OldValue: oldFormatted,
			NewValue: newFormatted,
		})
	}
	return changes
}

// coerceObject turns a snapshot into a field map. JSON strings are parsed;
// parse failures and non-object values collapse to an empty map so the diff
// degrades to "nothing changed" instead of erroring.
func coerceObject(snapshot any) map[string]any {
	switch v := snapshot.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return v
	case string:
		if v == "" {
			return map[string]any{}
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(v), &obj); err != nil || obj == nil {
			return map[string]any{}
		}
		return obj
	case []byte:
		return coerceObject(string(v))
	}
	// Structs and typed maps go through a JSON round trip.
	data, err := json.Marshal(snapshot)
	if err != nil {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

// sortFieldKeys orders keys by the priority list first, then lexicographically.
func sortFieldKeys(keys []string) {
	rank := make(map[string]int, len(priorityFields))
	for i, field := range priorityFields {
		rank[field] = i
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, iOK := rank[keys[i]]
		rj, jOK := rank[keys[j]]
		switch {
		case iOK && jOK:
			return ri < rj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}
