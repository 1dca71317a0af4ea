// Package pricing holds the runtime price configuration (group ratios, group
// ordering, tiered text-model prices, per-resolution special prices) and
// builds per-group price tables from it. The store is constructed and
// injected; nothing here reads ambient global state.
package pricing

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
)

// Tier is one token-count price step: requests whose input token count is at
// most MaxTokens bill at this tier's input/output prices ($/1M tokens).
type Tier struct {
	MaxTokens int     `json:"max_tokens"`
	Input     float64 `json:"input"`
	Output    float64 `json:"output"`
}

// TextPrice is the tiered price configuration of one text model. Thinking
// tiers are optional and apply when a request runs in thinking mode.
type TextPrice struct {
	Tiers         []Tier `json:"tiers"`
	ThinkingTiers []Tier `json:"thinking_tiers"`
}

// RatioStore holds all live pricing configuration. Safe for concurrent use.
type RatioStore struct {
	mu              sync.RWMutex
	groupRatio      map[string]float64
	groupOrder      []string
	textPrices      map[string]TextPrice
	specialPrices   map[string]map[string]float64
	modelRatio      map[string]float64
	completionRatio map[string]float64
	modelPrice      map[string]float64
}

// NewRatioStore creates a store with the default group at ratio 1.
func NewRatioStore() *RatioStore {
	return &RatioStore{
		groupRatio:      map[string]float64{"default": 1},
		textPrices:      make(map[string]TextPrice),
		specialPrices:   make(map[string]map[string]float64),
		modelRatio:      make(map[string]float64),
		completionRatio: make(map[string]float64),
		modelPrice:      make(map[string]float64),
	}
}

// GroupRatio returns the multiplier for a group. Unknown groups default to 1.
func (s *RatioStore) GroupRatio(name string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ratio, ok := s.groupRatio[name]; ok {
		return ratio
	}
	return 1
}

// GroupRatioCopy returns a copy of the full ratio map.
func (s *RatioStore) GroupRatioCopy() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.groupRatio))
	for name, ratio := range s.groupRatio {
		out[name] = ratio
	}
	return out
}

// GroupRatioJSON serializes the ratio map for persistence.
func (s *RatioStore) GroupRatioJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return marshalOrEmpty(s.groupRatio, "{}")
}

// LoadGroupRatioJSON replaces the ratio map from its persisted form.
func (s *RatioStore) LoadGroupRatioJSON(jsonStr string) error {
	if err := CheckGroupRatioJSON(jsonStr); err != nil {
		return err
	}
	ratios := make(map[string]float64)
	if err := json.Unmarshal([]byte(jsonStr), &ratios); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupRatio = ratios
	return nil
}

// CheckGroupRatioJSON validates a candidate ratio map before it is applied.
func CheckGroupRatioJSON(jsonStr string) error {
	ratios := make(map[string]float64)
	if err := json.Unmarshal([]byte(jsonStr), &ratios); err != nil {
		return err
	}
	for name, ratio := range ratios {
		if ratio < 0 {
			return errors.New("group ratio must be not less than 0: " + name)
		}
	}
	return nil
}

// GroupOrder returns the configured display order of groups.
func (s *RatioStore) GroupOrder() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.groupOrder))
	copy(out, s.groupOrder)
	return out
}

// GroupOrderJSON serializes the group order list for persistence.
func (s *RatioStore) GroupOrderJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return marshalOrEmpty(s.groupOrder, "[]")
}

// LoadGroupOrderJSON replaces the group order list. An empty string clears it.
func (s *RatioStore) LoadGroupOrderJSON(jsonStr string) error {
	if jsonStr == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.groupOrder = nil
		return nil
	}
	var order []string
	if err := json.Unmarshal([]byte(jsonStr), &order); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupOrder = order
	return nil
}

// SortedGroupNames returns all configured groups, honoring the explicit order
// list first; unlisted groups follow alphabetically.
func (s *RatioStore) SortedGroupNames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.groupRatio))
	for name := range s.groupRatio {
		names = append(names, name)
	}
	order := make([]string, len(s.groupOrder))
	copy(order, s.groupOrder)
	s.mu.RUnlock()

	if len(order) == 0 {
		sort.Strings(names)
		return names
	}

	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	sort.Slice(names, func(i, j int) bool {
		ri, iOK := rank[names[i]]
		rj, jOK := rank[names[j]]
		switch {
		case iOK && jOK:
			return ri < rj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return names[i] < names[j]
		}
	})
	return names
}

// TextPriceFor returns the tiered price record for a model, if one with any
// tiers is configured.
func (s *RatioStore) TextPriceFor(model string) (TextPrice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.textPrices[model]
	if !ok || (len(price.Tiers) == 0 && len(price.ThinkingTiers) == 0) {
		return TextPrice{}, false
	}
	return price.clone(), true
}

// TierPrice resolves the billing price for a request: the first tier whose
// MaxTokens is at least inputTokens, falling back to the last tier when the
// input exceeds every boundary.
func (s *RatioStore) TierPrice(model string, inputTokens int, thinking bool) (input, output float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, found := s.textPrices[model]
	if !found {
		return 0, 0, false
	}
	tiers := price.Tiers
	if thinking && len(price.ThinkingTiers) > 0 {
		tiers = price.ThinkingTiers
	}
	if len(tiers) == 0 {
		return 0, 0, false
	}
	for _, tier := range tiers {
		if inputTokens <= tier.MaxTokens {
			return tier.Input, tier.Output, true
		}
	}
	last := tiers[len(tiers)-1]
	return last.Input, last.Output, true
}

// TextPriceJSON serializes all tiered prices for persistence.
func (s *RatioStore) TextPriceJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return marshalOrEmpty(s.textPrices, "{}")
}

// LoadTextPriceJSON replaces the tiered price map from its persisted form.
func (s *RatioStore) LoadTextPriceJSON(jsonStr string) error {
	prices := make(map[string]TextPrice)
	if err := json.Unmarshal([]byte(jsonStr), &prices); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textPrices = prices
	return nil
}

// SpecialPricesFor returns the per-resolution prices for a model, copied.
func (s *RatioStore) SpecialPricesFor(model string) (map[string]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prices, ok := s.specialPrices[model]
	if !ok || len(prices) == 0 {
		return nil, false
	}
	out := make(map[string]float64, len(prices))
	for key, price := range prices {
		out[key] = price
	}
	return out, true
}

// SpecialPriceJSON serializes all special prices for persistence.
func (s *RatioStore) SpecialPriceJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return marshalOrEmpty(s.specialPrices, "{}")
}

// LoadSpecialPriceJSON replaces the special price map from its persisted form.
func (s *RatioStore) LoadSpecialPriceJSON(jsonStr string) error {
	prices := make(map[string]map[string]float64)
	if err := json.Unmarshal([]byte(jsonStr), &prices); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specialPrices = prices
	return nil
}

// ModelRatio returns the usage billing ratio for a model. Unknown models
// default to 1.
func (s *RatioStore) ModelRatio(model string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ratio, ok := s.modelRatio[model]; ok {
		return ratio
	}
	return 1
}

// CompletionRatio returns the output/input price multiplier for a model.
// Unknown models default to 1.
func (s *RatioStore) CompletionRatio(model string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ratio, ok := s.completionRatio[model]; ok {
		return ratio
	}
	return 1
}

// ModelPrice returns the per-call price for a model, if one is configured.
// Models with a per-call price bill by call instead of token usage.
func (s *RatioStore) ModelPrice(model string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.modelPrice[model]
	return price, ok
}

// ModelRatioJSON serializes the model ratio map for persistence.
func (s *RatioStore) ModelRatioJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return marshalOrEmpty(s.modelRatio, "{}")
}

// LoadModelRatioJSON replaces the model ratio map from its persisted form.
func (s *RatioStore) LoadModelRatioJSON(jsonStr string) error {
	ratios := make(map[string]float64)
	if err := json.Unmarshal([]byte(jsonStr), &ratios); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelRatio = ratios
	return nil
}

// CompletionRatioJSON serializes the completion ratio map for persistence.
func (s *RatioStore) CompletionRatioJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return marshalOrEmpty(s.completionRatio, "{}")
}

// LoadCompletionRatioJSON replaces the completion ratio map from its
// persisted form.
func (s *RatioStore) LoadCompletionRatioJSON(jsonStr string) error {
	ratios := make(map[string]float64)
	if err := json.Unmarshal([]byte(jsonStr), &ratios); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completionRatio = ratios
	return nil
}

// ModelPriceJSON serializes the per-call price map for persistence.
func (s *RatioStore) ModelPriceJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return marshalOrEmpty(s.modelPrice, "{}")
}

// LoadModelPriceJSON replaces the per-call price map from its persisted form.
func (s *RatioStore) LoadModelPriceJSON(jsonStr string) error {
	prices := make(map[string]float64)
	if err := json.Unmarshal([]byte(jsonStr), &prices); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelPrice = prices
	return nil
}

// ModelRecordFor assembles the pricing record for a model from the live
// configuration. enableGroups is the set of groups whose channels serve the
// model.
func (s *RatioStore) ModelRecordFor(model string, enableGroups []string) ModelRecord {
	record := ModelRecord{
		Model:           model,
		ModelRatio:      s.ModelRatio(model),
		CompletionRatio: s.CompletionRatio(model),
		EnableGroups:    enableGroups,
	}
	if price, ok := s.ModelPrice(model); ok {
		record.QuotaType = QuotaTypePerCall
		record.ModelPrice = price
	}
	if special, ok := s.SpecialPricesFor(model); ok {
		record.SpecialPrices = special
	}
	if text, ok := s.TextPriceFor(model); ok {
		record.TextPrice = &text
	}
	return record
}

func (p TextPrice) clone() TextPrice {
	out := TextPrice{
		Tiers:         make([]Tier, len(p.Tiers)),
		ThinkingTiers: make([]Tier, len(p.ThinkingTiers)),
	}
	copy(out.Tiers, p.Tiers)
	copy(out.ThinkingTiers, p.ThinkingTiers)
	return out
}

func marshalOrEmpty(value any, fallback string) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fallback
	}
	return string(data)
}
