package pricing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRatioStore_GroupRatioDefaults(t *testing.T) {
	store := NewRatioStore()
	if got := store.GroupRatio("default"); got != 1 {
		t.Errorf("default ratio: got %v", got)
	}
	if got := store.GroupRatio("missing"); got != 1 {
		t.Errorf("missing group must default to 1, got %v", got)
	}
}

func TestRatioStore_GroupRatioRoundTrip(t *testing.T) {
	store := NewRatioStore()
	if err := store.LoadGroupRatioJSON(`{"default":1,"vip":0.8}`); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := store.GroupRatio("vip"); got != 0.8 {
		t.Errorf("vip ratio: got %v", got)
	}

	reloaded := NewRatioStore()
	if err := reloaded.LoadGroupRatioJSON(store.GroupRatioJSON()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(store.GroupRatioCopy(), reloaded.GroupRatioCopy()); diff != "" {
		t.Errorf("round trip mismatch:\n%s", diff)
	}
}

func TestRatioStore_RejectsNegativeRatio(t *testing.T) {
	store := NewRatioStore()
	if err := store.LoadGroupRatioJSON(`{"vip":-1}`); err == nil {
		t.Fatal("expected error for negative ratio")
	}
	if err := store.LoadGroupRatioJSON(`not json`); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	// Failed loads must not clobber existing state.
	if got := store.GroupRatio("default"); got != 1 {
		t.Errorf("default ratio after failed load: got %v", got)
	}
}

func TestRatioStore_SortedGroupNames(t *testing.T) {
	store := NewRatioStore()
	if err := store.LoadGroupRatioJSON(`{"beta":1,"alpha":1,"vip":1,"default":1}`); err != nil {
		t.Fatalf("load ratios: %v", err)
	}

	// No explicit order: alphabetical.
	want := []string{"alpha", "beta", "default", "vip"}
	if diff := cmp.Diff(want, store.SortedGroupNames()); diff != "" {
		t.Errorf("alphabetical order (-want +got):\n%s", diff)
	}

	// Explicit order first, stragglers alphabetical after.
	if err := store.LoadGroupOrderJSON(`["vip","default"]`); err != nil {
		t.Fatalf("load order: %v", err)
	}
	want = []string{"vip", "default", "alpha", "beta"}
	if diff := cmp.Diff(want, store.SortedGroupNames()); diff != "" {
		t.Errorf("explicit order (-want +got):\n%s", diff)
	}

	// Empty string clears the order.
	if err := store.LoadGroupOrderJSON(""); err != nil {
		t.Fatalf("clear order: %v", err)
	}
	if got := store.GroupOrder(); len(got) != 0 {
		t.Errorf("cleared order: got %v", got)
	}
}

func TestRatioStore_TierPrice(t *testing.T) {
	store := NewRatioStore()
	err := store.LoadTextPriceJSON(`{
		"qwen-plus": {
			"tiers": [
				{"max_tokens": 32000, "input": 0.4, "output": 1.2},
				{"max_tokens": 128000, "input": 1.2, "output": 3.6}
			],
			"thinking_tiers": [
				{"max_tokens": 32000, "input": 0.8, "output": 2.4}
			]
		}
	}`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	input, output, ok := store.TierPrice("qwen-plus", 1000, false)
	if !ok || input != 0.4 || output != 1.2 {
		t.Errorf("first tier: %v %v %v", input, output, ok)
	}

	input, _, ok = store.TierPrice("qwen-plus", 64000, false)
	if !ok || input != 1.2 {
		t.Errorf("second tier: %v %v", input, ok)
	}

	// Beyond the last boundary the last tier applies.
	input, _, ok = store.TierPrice("qwen-plus", 999999, false)
	if !ok || input != 1.2 {
		t.Errorf("overflow tier: %v %v", input, ok)
	}

	// Thinking mode uses the thinking tiers when present.
	input, _, ok = store.TierPrice("qwen-plus", 1000, true)
	if !ok || input != 0.8 {
		t.Errorf("thinking tier: %v %v", input, ok)
	}

	if _, _, ok := store.TierPrice("unknown-model", 10, false); ok {
		t.Error("unknown model should not resolve")
	}
}

func TestRatioStore_TextPriceFor(t *testing.T) {
	store := NewRatioStore()
	if _, ok := store.TextPriceFor("missing"); ok {
		t.Error("missing model should not resolve")
	}
	if err := store.LoadTextPriceJSON(`{"empty":{"tiers":[]},"real":{"tiers":[{"max_tokens":1000,"input":1,"output":2}]}}`); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := store.TextPriceFor("empty"); ok {
		t.Error("model with no tiers should not resolve")
	}
	price, ok := store.TextPriceFor("real")
	if !ok || len(price.Tiers) != 1 {
		t.Errorf("real model: %+v %v", price, ok)
	}
}

func TestRatioStore_SpecialPrices(t *testing.T) {
	store := NewRatioStore()
	if err := store.LoadSpecialPriceJSON(`{"image-gen":{"1k":0.04,"2k":0.08}}`); err != nil {
		t.Fatalf("load: %v", err)
	}
	prices, ok := store.SpecialPricesFor("image-gen")
	if !ok || prices["2k"] != 0.08 {
		t.Errorf("special prices: %v %v", prices, ok)
	}

	// The returned map is a copy.
	prices["2k"] = 999
	again, _ := store.SpecialPricesFor("image-gen")
	if again["2k"] != 0.08 {
		t.Error("SpecialPricesFor must return a copy")
	}
}
