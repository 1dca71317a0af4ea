package oplog

import (
	"strings"
	"testing"
)

func TestSummarize_CreateAndDelete(t *testing.T) {
	got := Summarize(Entry{Module: ModuleUser, Action: ActionCreate, TargetName: "bob"})
	if got != "创建用户: bob" {
		t.Errorf("create summary: got %q", got)
	}

	got = Summarize(Entry{Module: ModuleChannel, Action: ActionDelete, TargetName: "openai-1", Description: "删除渠道: openai-1"})
	if got != "删除渠道: openai-1" {
		t.Errorf("delete with description: got %q", got)
	}
}

func TestSummarize_StructuredUpdate(t *testing.T) {
	entry := Entry{
		Module:   ModuleChannel,
		Action:   ActionUpdate,
		OldValue: `{"status":1,"name":"a"}`,
		NewValue: `{"status":2,"name":"a"}`,
	}
	got := Summarize(entry)
	if got != "状态: 启用 → 禁用" {
		t.Errorf("structured update: got %q", got)
	}
}

func TestSummarize_TruncatesAfterTwoChanges(t *testing.T) {
	entry := Entry{
		Module:   ModuleChannel,
		Action:   ActionUpdate,
		OldValue: `{"name":"a","status":1,"weight":1,"priority":1}`,
		NewValue: `{"name":"b","status":2,"weight":2,"priority":2}`,
	}
	got := Summarize(entry)
	if !strings.Contains(got, "名称: a → b") {
		t.Errorf("expected first change in summary, got %q", got)
	}
	if !strings.HasSuffix(got, "等4项变更") {
		t.Errorf("expected truncation suffix, got %q", got)
	}
	if strings.Count(got, "→") != 2 {
		t.Errorf("expected exactly two fragments, got %q", got)
	}
}

func TestSummarize_NoChangesFallsBack(t *testing.T) {
	entry := Entry{
		Module:   ModuleToken,
		Action:   ActionUpdate,
		OldValue: `{"name":"t"}`,
		NewValue: `{"name":"t"}`,
	}
	if got := Summarize(entry); got != "-" {
		t.Errorf("no changes without description: got %q", got)
	}

	entry.Description = "nothing happened"
	if got := Summarize(entry); got != "nothing happened" {
		t.Errorf("no changes with description: got %q", got)
	}
}

func TestSummarize_OptionObjectDiff(t *testing.T) {
	entry := Entry{
		Module:   ModuleOption,
		Action:   ActionUpdate,
		TargetID: "GroupRatio",
		OldValue: `{"default":1,"vip":0.8}`,
		NewValue: `{"default":1,"vip":0.5}`,
	}
	got := Summarize(entry)
	if got != "分组倍率: vip: 0.8 → 0.5" {
		t.Errorf("option object diff: got %q", got)
	}
}

func TestSummarize_OptionDoubleEncoded(t *testing.T) {
	// The stored value is a JSON string that itself contains JSON.
	entry := Entry{
		Module:   ModuleOption,
		Action:   ActionUpdate,
		TargetID: "GroupRatio",
		OldValue: `"{\"vip\":0.8}"`,
		NewValue: `"{\"vip\":0.5}"`,
	}
	got := Summarize(entry)
	if got != "分组倍率: vip: 0.8 → 0.5" {
		t.Errorf("double-encoded option diff: got %q", got)
	}
}

func TestSummarize_OptionManyChanges(t *testing.T) {
	entry := Entry{
		Module:   ModuleOption,
		Action:   ActionUpdate,
		TargetID: "GroupRatio",
		OldValue: `{"a":1,"b":1,"c":1}`,
		NewValue: `{"a":2,"b":2,"c":2}`,
	}
	got := Summarize(entry)
	if !strings.HasPrefix(got, "分组倍率: ") {
		t.Errorf("expected label prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "等3项") {
		t.Errorf("expected 等3项 suffix, got %q", got)
	}
}

func TestSummarize_OptionScalarFallback(t *testing.T) {
	entry := Entry{
		Module:   ModuleOption,
		Action:   ActionUpdate,
		TargetID: "RetryTimes",
		OldValue: "3",
		NewValue: "5",
	}
	got := Summarize(entry)
	if got != "重试次数: 3 → 5" {
		t.Errorf("scalar option: got %q", got)
	}

	entry.OldValue = ""
	got = Summarize(entry)
	if got != "重试次数: (空) → 5" {
		t.Errorf("empty old value: got %q", got)
	}
}

func TestSummarize_OptionAddedKey(t *testing.T) {
	entry := Entry{
		Module:   ModuleOption,
		Action:   ActionUpdate,
		TargetID: "UserUsableGroups",
		OldValue: `{"default":"默认"}`,
		NewValue: `{"default":"默认","vip":"VIP"}`,
	}
	got := Summarize(entry)
	if got != "用户可用分组: vip: (无) → VIP" {
		t.Errorf("added key: got %q", got)
	}
}
