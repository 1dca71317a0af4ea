package oplog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// quotaPerUnit is the token-to-currency conversion used for quota display:
// 500000 tokens equal one dollar.
const quotaPerUnit = 500000

var statusValueLabels = map[int64]string{
	1: "启用",
	2: "禁用",
	3: "已过期",
	4: "已耗尽",
}

var roleValueLabels = map[int64]string{
	1:   "普通用户",
	10:  "管理员",
	100: "超级管理员",
}

// quotaFields are displayed as currency amounts instead of raw token counts.
var quotaFields = map[string]bool{
	"quota":        true,
	"remain_quota": true,
	"used_quota":   true,
}

// FormatValue renders a raw snapshot value as a display string. It is total
// over JSON-decodable values: nil, bools, numbers, strings, arrays, and
// objects all map to some string. The first matching rule wins.
func FormatValue(field string, value any, module Module) string {
	if value == nil {
		return "(无)"
	}

	switch v := value.(type) {
	case bool:
		if v {
			return "是"
		}
		return "否"
	case string:
		if v == "" {
			return "(空)"
		}
		return v
	}

	if num, ok := asNumber(value); ok {
		if field == "status" {
			if label, ok := statusValueLabels[int64(num)]; ok && num == float64(int64(num)) {
				return label
			}
			return formatNumber(num)
		}
		if field == "role" {
			if label, ok := roleValueLabels[int64(num)]; ok && num == float64(int64(num)) {
				return label
			}
			return formatNumber(num)
		}
		if strings.Contains(strings.ToLower(field), "time") {
			// -1 is the sentinel for tokens and codes that never expire.
			if num == -1 {
				return "永不过期"
			}
			if num > 1_000_000_000 {
				return time.Unix(int64(num), 0).Format("2006-01-02 15:04:05")
			}
		}
		if quotaFields[field] {
			return fmt.Sprintf("$%.2f", num/quotaPerUnit)
		}
		return formatNumber(num)
	}

	switch v := value.(type) {
	case []any:
		if len(v) == 0 {
			return "(空)"
		}
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, "、")
	case map[string]any:
		return stringify(v)
	}

	return fmt.Sprintf("%v", value)
}

// asNumber normalizes the numeric types a snapshot value can arrive as:
// float64 from JSON decoding, or Go integer types when snapshots are built
// in-process.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// formatNumber renders a number without a trailing fractional part for
// integral values, matching how raw values read back from JSON.
func formatNumber(num float64) string {
	return strconv.FormatFloat(num, 'f', -1, 64)
}

// stringify renders an arbitrary value compactly: strings verbatim, numbers
// without exponent notation, everything else as compact JSON.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "null"
	}
	if num, ok := asNumber(value); ok {
		return formatNumber(num)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
