package oplog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Entry is the subset of an operation log record the summary builder needs.
// Old and new values are the raw JSON strings persisted with the entry.
type Entry struct {
	Module      Module
	Action      Action
	TargetID    string
	TargetName  string
	OldValue    string
	NewValue    string
	Description string
}

const summaryChangeLimit = 2

// Summarize builds the one-line change summary shown in the log table.
// Create and delete entries use their description, or a synthesized
// "action module: target" line. Option entries carry opaque JSON blobs and
// get key-level raw-value diffs; structured modules go through Changes.
func Summarize(entry Entry) string {
	if entry.Action == ActionCreate || entry.Action == ActionDelete {
		if entry.Description != "" {
			return entry.Description
		}
		return fmt.Sprintf("%s%s: %s", ActionLabel(entry.Action), ModuleLabel(entry.Module), entry.TargetName)
	}

	if entry.Module == ModuleOption {
		return summarizeOption(entry)
	}

	changes := Changes(entry.OldValue, entry.NewValue, entry.Module)
	if len(changes) == 0 {
		if entry.Description != "" {
			return entry.Description
		}
		return "-"
	}

	shown := changes
	if len(shown) > summaryChangeLimit {
		shown = shown[:summaryChangeLimit]
	}
	parts := make([]string, len(shown))
	for i, change := range shown {
		parts[i] = fmt.Sprintf("%s: %s → %s", change.Label, change.OldValue, change.NewValue)
	}
	summary := strings.Join(parts, "; ")
	if len(changes) > summaryChangeLimit {
		return fmt.Sprintf("%s 等%d项变更", summary, len(changes))
	}
	return summary
}

// summarizeOption handles the option module, whose old/new values are a
// single JSON-encoded (possibly double-encoded) parameter value rather than
// a structured snapshot.
func summarizeOption(entry Entry) string {
	paramName := entry.TargetID
	if paramName == "" {
		paramName = entry.TargetName
	}
	label := Label(ModuleOption, paramName)

	oldObj, oldOK := parseOptionValue(entry.OldValue)
	newObj, newOK := parseOptionValue(entry.NewValue)

	if oldOK && newOK {
		changed := diffRawKeys(oldObj, newObj)
		if len(changed) == 0 {
			if entry.Description != "" {
				return entry.Description
			}
			return "-"
		}
		shown := changed
		if len(shown) > summaryChangeLimit {
			shown = shown[:summaryChangeLimit]
		}
		parts := make([]string, len(shown))
		for i, c := range shown {
			parts[i] = fmt.Sprintf("%s: %s → %s", c.key, c.oldDisplay, c.newDisplay)
		}
		summary := strings.Join(parts, "; ")
		if len(changed) > summaryChangeLimit {
			return fmt.Sprintf("%s: %s 等%d项", label, summary, len(changed))
		}
		return fmt.Sprintf("%s: %s", label, summary)
	}

	oldVal := entry.OldValue
	if oldVal == "" {
		oldVal = "(空)"
	}
	newVal := entry.NewValue
	if newVal == "" {
		newVal = "(空)"
	}
	return fmt.Sprintf("%s: %s → %s", label, oldVal, newVal)
}

// parseOptionValue decodes a stored option value, retrying once when the
// first decode yields a string (the backend sometimes double-encodes).
// Returns ok only for plain objects.
func parseOptionValue(raw string) (map[string]any, bool) {
	if raw == "" {
		return nil, false
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, false
	}
	if inner, isString := decoded.(string); isString {
		if err := json.Unmarshal([]byte(inner), &decoded); err != nil {
			return nil, false
		}
	}
	obj, isObject := decoded.(map[string]any)
	if !isObject {
		return nil, false
	}
	return obj, true
}

type rawKeyChange struct {
	key        string
	oldDisplay string
	newDisplay string
}

// diffRawKeys finds keys whose raw JSON encoding differs between two option
// objects. Unlike Changes, equality here is on raw values, not formatted
// display strings.
func diffRawKeys(oldObj, newObj map[string]any) []rawKeyChange {
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

	var changed []rawKeyChange
	for _, key := range keys {
		oldVal, oldHas := oldObj[key]
		newVal, newHas := newObj[key]
		if oldHas == newHas && rawJSON(oldVal) == rawJSON(newVal) {
			continue
		}
		changed = append(changed, rawKeyChange{
			key:        key,
			oldDisplay: displayOptionValue(oldVal, oldHas),
			newDisplay: displayOptionValue(newVal, newHas),
		})
	}
	return changed
}

func rawJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}

// displayOptionValue renders an option sub-value for the summary line:
// absent keys show as (无), explicit nulls as (空), objects as compact JSON.
func displayOptionValue(value any, present bool) string {
	if !present {
		return "(无)"
	}
	if value == nil {
		return "(空)"
	}
	switch v := value.(type) {
	case string:
		return v
	case map[string]any, []any:
		return rawJSON(v)
	}
	if num, ok := asNumber(value); ok {
		return formatNumber(num)
	}
	return fmt.Sprintf("%v", value)
}
