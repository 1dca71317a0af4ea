package pricing

import (
	"fmt"
	"sort"
)

// Billing modes for a model.
const (
	QuotaTypeUsage   = 0 // billed per token usage
	QuotaTypePerCall = 1 // billed per call
)

// Table display modes.
const (
	TableModeTiered  = "tiered"
	TableModeSpecial = "special"
	TableModeFlat    = "flat"
)

// resolutionOrder fixes the display order of known resolution keys; unknown
// keys follow alphabetically.
var resolutionOrder = []string{"1k", "2k", "4k"}

// ModelRecord is a model's pricing configuration as supplied by the caller.
type ModelRecord struct {
	Model           string             `json:"model"`
	QuotaType       int                `json:"quota_type"`
	ModelRatio      float64            `json:"model_ratio"`
	CompletionRatio float64            `json:"completion_ratio"`
	ModelPrice      float64            `json:"model_price"`
	EnableGroups    []string           `json:"enable_groups"`
	SpecialPrices   map[string]float64 `json:"special_prices,omitempty"`
	TextPrice       *TextPrice         `json:"text_model_price,omitempty"`
}

// TableOptions carries the externally supplied configuration for one build.
type TableOptions struct {
	GroupRatio   map[string]float64
	UsableGroups map[string]bool
	AutoGroups   []string
	Currency     string // "USD" or "CNY"
	TokenUnit    string // "K" or "M"
	USDToCNY     float64
}

// Row is one rendered price table row. Price pointers are nil where the
// column does not apply (absent tier, other billing mode).
type Row struct {
	Group     string  `json:"group"`
	Ratio     float64 `json:"ratio"`
	GroupSpan int     `json:"group_span"` // >0 only on a group's first row

	TokenRange     string   `json:"token_range,omitempty"`
	Input          *float64 `json:"input,omitempty"`
	Output         *float64 `json:"output,omitempty"`
	ThinkingInput  *float64 `json:"thinking_input,omitempty"`
	ThinkingOutput *float64 `json:"thinking_output,omitempty"`

	Price         *float64           `json:"price,omitempty"`
	SpecialPrices map[string]float64 `json:"special_prices,omitempty"`
}

// Table is the full rendering of a model's per-group prices.
type Table struct {
	Mode        string   `json:"mode"`
	Currency    string   `json:"currency"`
	TokenUnit   string   `json:"token_unit"`
	AutoChain   []string `json:"auto_chain,omitempty"`
	Resolutions []string `json:"resolutions,omitempty"`
	Rows        []Row    `json:"rows"`
}

// BuildTable computes the per-group price table for a model. Eligible groups
// are the usable groups (excluding the empty and synthetic auto groups)
// intersected with the model's enabled groups. Tiered text prices take
// precedence, then per-call resolution prices, then flat pricing.
func BuildTable(record ModelRecord, opts TableOptions) Table {
	table := Table{
		Mode:      TableModeFlat,
		Currency:  opts.Currency,
		TokenUnit: opts.TokenUnit,
		AutoChain: autoChain(opts.AutoGroups, record.EnableGroups),
	}
	groups := eligibleGroups(opts.UsableGroups, record.EnableGroups)
	if len(groups) == 0 {
		table.Rows = []Row{}
		return table
	}

	switch {
	case record.TextPrice != nil && (len(record.TextPrice.Tiers) > 0 || len(record.TextPrice.ThinkingTiers) > 0):
		table.Mode = TableModeTiered
		table.Rows = tieredRows(record, groups, opts)
	case record.QuotaType == QuotaTypePerCall && len(record.SpecialPrices) > 0:
		table.Mode = TableModeSpecial
		table.Resolutions = orderedResolutions(record.SpecialPrices)
		table.Rows = specialRows(record, groups, table.Resolutions, opts)
	default:
		table.Rows = flatRows(record, groups, opts)
	}
	return table
}

// FormatPrice renders a price value for display in the table's currency.
func FormatPrice(price *float64, currency string) string {
	if price == nil {
		return "-"
	}
	symbol := "$"
	if currency == "CNY" {
		symbol = "¥"
	}
	return fmt.Sprintf("%s%.4f", symbol, *price)
}

func eligibleGroups(usable map[string]bool, enabled []string) []string {
	enabledSet := make(map[string]bool, len(enabled))
	for _, group := range enabled {
		enabledSet[group] = true
	}
	groups := make([]string, 0, len(usable))
	for group := range usable {
		if group == "" || group == "auto" {
			continue
		}
		if enabledSet[group] {
			groups = append(groups, group)
		}
	}
	sort.Strings(groups)
	return groups
}

// autoChain is the ordered fallback sequence displayed above the table when
// the model participates in auto-group routing. Informational only.
func autoChain(autoGroups, enabled []string) []string {
	enabledSet := make(map[string]bool, len(enabled))
	for _, group := range enabled {
		enabledSet[group] = true
	}
	var chain []string
	for _, group := range autoGroups {
		if enabledSet[group] {
			chain = append(chain, group)
		}
	}
	return chain
}

// tieredRows emits one row per eligible group per token boundary. The
// boundary axis is the sorted union of normal and thinking tier boundaries;
// a tier absent at some boundary leaves its price columns nil.
func tieredRows(record ModelRecord, groups []string, opts TableOptions) []Row {
	price := record.TextPrice
	boundaries := boundaryUnion(price.Tiers, price.ThinkingTiers)

	normalAt := tiersByBoundary(price.Tiers)
	thinkingAt := tiersByBoundary(price.ThinkingTiers)

	rows := make([]Row, 0, len(groups)*len(boundaries))
	for _, group := range groups {
		ratio := groupRatioOrDefault(opts.GroupRatio, group)
		prev := 0
		for i, boundary := range boundaries {
			row := Row{
				Group:      group,
				Ratio:      ratio,
				TokenRange: tokenRangeLabel(prev, boundary, i == 0),
			}
			if i == 0 {
				row.GroupSpan = len(boundaries)
			}
			if tier, ok := normalAt[boundary]; ok {
				row.Input = scaledPrice(tier.Input, ratio, opts)
				row.Output = scaledPrice(tier.Output, ratio, opts)
			}
			if tier, ok := thinkingAt[boundary]; ok {
				row.ThinkingInput = scaledPrice(tier.Input, ratio, opts)
				row.ThinkingOutput = scaledPrice(tier.Output, ratio, opts)
			}
			rows = append(rows, row)
			prev = boundary
		}
	}
	return rows
}

func specialRows(record ModelRecord, groups, resolutions []string, opts TableOptions) []Row {
	rows := make([]Row, 0, len(groups))
	for _, group := range groups {
		ratio := groupRatioOrDefault(opts.GroupRatio, group)
		prices := make(map[string]float64, len(resolutions))
		for _, resolution := range resolutions {
			prices[resolution] = *scaledPrice(record.SpecialPrices[resolution], ratio, opts)
		}
		rows = append(rows, Row{Group: group, Ratio: ratio, GroupSpan: 1, SpecialPrices: prices})
	}
	return rows
}

func flatRows(record ModelRecord, groups []string, opts TableOptions) []Row {
	rows := make([]Row, 0, len(groups))
	for _, group := range groups {
		ratio := groupRatioOrDefault(opts.GroupRatio, group)
		row := Row{Group: group, Ratio: ratio, GroupSpan: 1}
		if record.QuotaType == QuotaTypePerCall {
			row.Price = scaledPrice(record.ModelPrice, ratio, opts)
		} else {
			input, output := usagePrices(record)
			row.Input = scaledPrice(input, ratio, opts)
			row.Output = scaledPrice(output, ratio, opts)
		}
		rows = append(rows, row)
	}
	return rows
}

// usagePrices derives per-token prices ($/1M) from a usage-billed model's
// ratio: one ratio unit is two dollars per million tokens, completion scaled
// by the completion ratio.
func usagePrices(record ModelRecord) (input, output float64) {
	input = record.ModelRatio * 2
	completionRatio := record.CompletionRatio
	if completionRatio == 0 {
		completionRatio = 1
	}
	return input, input * completionRatio
}

// scaledPrice applies the group ratio, currency conversion, and token unit to
// a base price.
func scaledPrice(base, ratio float64, opts TableOptions) *float64 {
	price := base * ratio
	if opts.Currency == "CNY" {
		rate := opts.USDToCNY
		if rate <= 0 {
			rate = 7 // static approximation, overridable via config
		}
		price *= rate
	}
	if opts.TokenUnit == "K" {
		price /= 1000
	}
	return &price
}

func groupRatioOrDefault(ratios map[string]float64, group string) float64 {
	if ratio, ok := ratios[group]; ok {
		return ratio
	}
	return 1
}

func boundaryUnion(normal, thinking []Tier) []int {
	seen := make(map[int]bool, len(normal)+len(thinking))
	var boundaries []int
	for _, tier := range normal {
		if !seen[tier.MaxTokens] {
			seen[tier.MaxTokens] = true
			boundaries = append(boundaries, tier.MaxTokens)
		}
	}
	for _, tier := range thinking {
		if !seen[tier.MaxTokens] {
			seen[tier.MaxTokens] = true
			boundaries = append(boundaries, tier.MaxTokens)
		}
	}
	sort.Ints(boundaries)
	return boundaries
}

// tiersByBoundary indexes tiers by MaxTokens; the last tier wins duplicates.
func tiersByBoundary(tiers []Tier) map[int]Tier {
	index := make(map[int]Tier, len(tiers))
	for _, tier := range tiers {
		index[tier.MaxTokens] = tier
	}
	return index
}

// tokenRangeLabel renders the token interval a boundary covers: inclusive of
// the boundary, exclusive of the previous one; the first interval starts at 0.
func tokenRangeLabel(prev, boundary int, first bool) string {
	if first {
		return fmt.Sprintf("[0, %s]", humanTokens(boundary))
	}
	return fmt.Sprintf("(%s, %s]", humanTokens(prev), humanTokens(boundary))
}

func humanTokens(count int) string {
	switch {
	case count >= 1_000_000 && count%1_000_000 == 0:
		return fmt.Sprintf("%dM", count/1_000_000)
	case count >= 1000 && count%1000 == 0:
		return fmt.Sprintf("%dK", count/1000)
	default:
		return fmt.Sprintf("%d", count)
	}
}

func orderedResolutions(prices map[string]float64) []string {
	var resolutions []string
	seen := make(map[string]bool, len(prices))
	for _, key := range resolutionOrder {
		if _, ok := prices[key]; ok {
			resolutions = append(resolutions, key)
			seen[key] = true
		}
	}
	var extra []string
	for key := range prices {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(resolutions, extra...)
}
