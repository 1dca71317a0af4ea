package services

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"

	"relaypanel/internal/models"
	"relaypanel/internal/pricing"
	"relaypanel/internal/testutil"
)

func TestInitOptions(t *testing.T) {
	t.Run("loads_stored_options_into_store", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		seed := []models.Option{
			{Key: OptionGroupRatio, Value: `{"default":1,"vip":0.8}`},
			{Key: OptionGroupOrder, Value: `["vip","default"]`},
			{Key: OptionUserUsableGroups, Value: `{"default":"默认分组","vip":"VIP 分组"}`},
		}
		for _, option := range seed {
			if err := db.Create(&option).Error; err != nil {
				t.Fatalf("failed to seed option: %v", err)
			}
		}

		store := pricing.NewRatioStore()
		svc := NewOptionService(db, store, NewOperationLogService(db))
		testutil.AssertNoError(t, svc.InitOptions())

		if got := store.GroupRatio("vip"); got != 0.8 {
			t.Errorf("expected vip ratio 0.8, got %v", got)
		}
		if diff := cmp.Diff([]string{"vip", "default"}, store.GroupOrder()); diff != "" {
			t.Errorf("group order mismatch (-want +got):\n%s", diff)
		}
		usable := svc.UsableGroups()
		if usable["vip"] != "VIP 分组" {
			t.Errorf("expected usable group description, got %q", usable["vip"])
		}
	})

	t.Run("skips_corrupt_rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		seed := []models.Option{
			{Key: OptionGroupRatio, Value: `not json`},
			{Key: OptionGroupOrder, Value: `["vip"]`},
		}
		for _, option := range seed {
			if err := db.Create(&option).Error; err != nil {
				t.Fatalf("failed to seed option: %v", err)
			}
		}

		store := pricing.NewRatioStore()
		svc := NewOptionService(db, store, NewOperationLogService(db))
		testutil.AssertNoError(t, svc.InitOptions())

		// The corrupt ratio row is skipped and the default survives.
		if got := store.GroupRatio("default"); got != 1 {
			t.Errorf("expected default ratio 1, got %v", got)
		}
		if diff := cmp.Diff([]string{"vip"}, store.GroupOrder()); diff != "" {
			t.Errorf("group order mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestUpdateOption(t *testing.T) {
	t.Run("persists_applies_and_logs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := pricing.NewRatioStore()
		svc := NewOptionService(db, store, NewOperationLogService(db))

		err := svc.UpdateOption("admin-id", "root", "127.0.0.1", OptionGroupRatio, `{"default":1,"vip":2}`)
		testutil.AssertNoError(t, err)

		if got := store.GroupRatio("vip"); got != 2 {
			t.Errorf("expected vip ratio 2 in live store, got %v", got)
		}

		var stored models.Option
		if err := db.Where("key = ?", OptionGroupRatio).First(&stored).Error; err != nil {
			t.Fatalf("expected persisted option: %v", err)
		}
		if stored.Value != `{"default":1,"vip":2}` {
			t.Errorf("unexpected stored value: %q", stored.Value)
		}

		var entry models.OperationLog
		if err := db.Where("module = ?", "option").First(&entry).Error; err != nil {
			t.Fatalf("expected option operation log: %v", err)
		}
		if entry.TargetID != OptionGroupRatio || entry.Action != "update" {
			t.Errorf("unexpected log target/action: %s/%s", entry.TargetID, entry.Action)
		}
		if entry.OldValue == "" {
			t.Error("expected old value to record the empty previous value")
		}
	})

	t.Run("upserts_existing_key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := pricing.NewRatioStore()
		svc := NewOptionService(db, store, NewOperationLogService(db))

		testutil.AssertNoError(t, svc.UpdateOption("admin-id", "root", "", OptionGroupOrder, `["vip"]`))
		testutil.AssertNoError(t, svc.UpdateOption("admin-id", "root", "", OptionGroupOrder, `["vip","default"]`))

		var count int64
		db.Model(&models.Option{}).Where("key = ?", OptionGroupOrder).Count(&count)
		if count != 1 {
			t.Errorf("expected single option row after upsert, got %d", count)
		}
		if diff := cmp.Diff([]string{"vip", "default"}, store.GroupOrder()); diff != "" {
			t.Errorf("group order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rejects_negative_group_ratio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := pricing.NewRatioStore()
		svc := NewOptionService(db, store, NewOperationLogService(db))

		err := svc.UpdateOption("admin-id", "root", "", OptionGroupRatio, `{"vip":-1}`)
		testutil.AssertAppError(t, err, "OPTION_VALUE")

		var count int64
		db.Model(&models.Option{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no persisted option after rejection, got %d", count)
		}
	})

	t.Run("rejects_empty_key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOptionService(db, pricing.NewRatioStore(), NewOperationLogService(db))

		err := svc.UpdateOption("admin-id", "root", "", "", "value")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_invalid_structured_value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOptionService(db, pricing.NewRatioStore(), NewOperationLogService(db))

		err := svc.UpdateOption("admin-id", "root", "", OptionUserUsableGroups, `not json`)
		testutil.AssertAppError(t, err, "OPTION_VALUE")
	})

	t.Run("failed_persist_leaves_store_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := pricing.NewRatioStore()
		svc := NewOptionService(db, store, NewOperationLogService(db))

		// Force the upsert to fail after validation passes.
		err := db.Callback().Create().Before("gorm:create").Register("fail_option_create", func(tx *gorm.DB) {
			tx.AddError(errors.New("create rejected"))
		})
		testutil.AssertNoError(t, err)

		updateErr := svc.UpdateOption("admin-id", "root", "", OptionGroupRatio, `{"vip":2}`)
		testutil.AssertAppError(t, updateErr, "INTERNAL_ERROR")

		if got := store.GroupRatio("vip"); got != 1 {
			t.Errorf("expected live store untouched after failed persist, got vip ratio %v", got)
		}
		testutil.AssertNoError(t, db.Callback().Create().Remove("fail_option_create"))
		var count int64
		db.Model(&models.Option{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no persisted option rows, got %d", count)
		}
	})
}

func TestAllOptions(t *testing.T) {
	t.Run("hides_secret_bearing_keys", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOptionService(db, pricing.NewRatioStore(), NewOperationLogService(db))

		seed := []models.Option{
			{Key: "GroupRatio", Value: "{}"},
			{Key: "SMTPToken", Value: "hunter2"},
			{Key: "GitHubClientSecret", Value: "gh-secret"},
			{Key: "ApiKeyPrefix", Value: "sk-"},
		}
		for _, option := range seed {
			if err := db.Create(&option).Error; err != nil {
				t.Fatalf("failed to seed option: %v", err)
			}
		}

		options, err := svc.AllOptions()
		testutil.AssertNoError(t, err)

		// Only exact credential keys are hidden; a setting that merely
		// mentions keys in its name stays visible.
		got := make([]string, len(options))
		for i, option := range options {
			got[i] = option.Key
		}
		if diff := cmp.Diff([]string{"ApiKeyPrefix", "GroupRatio"}, got); diff != "" {
			t.Errorf("visible options mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestUserGroups(t *testing.T) {
	t.Run("orders_by_group_order_then_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := pricing.NewRatioStore()
		svc := NewOptionService(db, store, NewOperationLogService(db))

		testutil.AssertNoError(t, svc.UpdateOption("a", "root", "", OptionGroupRatio, `{"default":1,"vip":0.8,"batch":0.5}`))
		testutil.AssertNoError(t, svc.UpdateOption("a", "root", "", OptionGroupOrder, `["vip"]`))
		testutil.AssertNoError(t, svc.UpdateOption("a", "root", "", OptionUserUsableGroups, `{"default":"默认分组","vip":"VIP 分组","batch":"批量分组"}`))

		entries := svc.UserGroups()
		got := make([]string, len(entries))
		for i, entry := range entries {
			got[i] = entry.Name
		}
		// vip has explicit order, the rest fall back to name order.
		if diff := cmp.Diff([]string{"vip", "batch", "default"}, got); diff != "" {
			t.Errorf("group order mismatch (-want +got):\n%s", diff)
		}
		if entries[0].Ratio != 0.8 {
			t.Errorf("expected vip ratio 0.8, got %v", entries[0].Ratio)
		}
	})

	t.Run("auto_entry_sorts_first_when_configured", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := pricing.NewRatioStore()
		svc := NewOptionService(db, store, NewOperationLogService(db))

		testutil.AssertNoError(t, svc.UpdateOption("a", "root", "", OptionGroupRatio, `{"default":1,"vip":0.8}`))
		testutil.AssertNoError(t, svc.UpdateOption("a", "root", "", OptionUserUsableGroups, `{"default":"默认分组","vip":"VIP 分组"}`))
		testutil.AssertNoError(t, svc.UpdateOption("a", "root", "", OptionAutoGroups, `["vip","default"]`))

		entries := svc.UserGroups()
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries including auto, got %d", len(entries))
		}
		if entries[0].Name != "auto" || entries[0].Order != -1 {
			t.Errorf("expected synthetic auto entry first, got %+v", entries[0])
		}
		// The auto entry carries the ratio of the first group in the chain.
		if entries[0].Ratio != 0.8 {
			t.Errorf("expected auto ratio 0.8, got %v", entries[0].Ratio)
		}
	})

	t.Run("empty_without_usable_groups", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOptionService(db, pricing.NewRatioStore(), NewOperationLogService(db))

		if entries := svc.UserGroups(); len(entries) != 0 {
			t.Errorf("expected no entries, got %d", len(entries))
		}
	})
}
