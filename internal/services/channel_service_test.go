package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"relaypanel/internal/models"
	"relaypanel/internal/pagination"
	"relaypanel/internal/testutil"
)

func TestListChannels(t *testing.T) {
	t.Run("filters_and_orders_by_priority", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))

		low := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Model(low).Update("priority", 1)
		high := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Model(high).Update("priority", 10)
		disabled := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Model(disabled).Update("status", models.ChannelStatusDisabled)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.List(ChannelFilter{Status: models.ChannelStatusEnabled}, page)
		testutil.AssertNoError(t, err)

		if result.Total != 2 {
			t.Fatalf("expected 2 enabled channels, got %d", result.Total)
		}
		if result.Items[0].ID != high.ID {
			t.Errorf("expected highest priority first, got %s", result.Items[0].Name)
		}
	})

	t.Run("keyword_matches_name_or_models", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))

		testutil.CreateTestChannel(t, db, "gpt-4,gpt-3.5-turbo")
		testutil.CreateTestChannel(t, db, "claude-3-opus")

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.List(ChannelFilter{Keyword: "claude"}, page)
		testutil.AssertNoError(t, err)

		if result.Total != 1 {
			t.Errorf("expected 1 matching channel, got %d", result.Total)
		}
	})
}

func TestUpdateChannel(t *testing.T) {
	t.Run("applies_edits_and_logs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))
		channel := testutil.CreateTestChannel(t, db, "gpt-4")

		updated, err := svc.Update("admin-id", "root", "127.0.0.1", channel.ID, ChannelUpdateParams{
			Name:     "renamed",
			Group:    "vip",
			Priority: 5,
			BaseURL:  "https://api.example.com",
		})
		testutil.AssertNoError(t, err)

		if updated.Name != "renamed" || updated.Group != "vip" || updated.Priority != 5 {
			t.Errorf("unexpected channel after update: %+v", updated)
		}

		var entry models.OperationLog
		if err := db.Where("module = ? AND action = ?", "channel", "update").First(&entry).Error; err != nil {
			t.Fatalf("expected update log: %v", err)
		}
		if entry.TargetID != channel.ID {
			t.Errorf("expected target %s, got %s", channel.ID, entry.TargetID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))

		_, err := svc.Update("admin-id", "root", "", "missing-id", ChannelUpdateParams{})
		testutil.AssertAppError(t, err, "CHANNEL_NOT_FOUND")
	})
}

func TestSetChannelStatus(t *testing.T) {
	t.Run("disable_records_log", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))
		channel := testutil.CreateTestChannel(t, db, "gpt-4")

		err := svc.SetStatus("admin-id", "root", "", channel.ID, models.ChannelStatusDisabled)
		testutil.AssertNoError(t, err)

		stored, err := svc.Get(channel.ID)
		testutil.AssertNoError(t, err)
		if stored.Status != models.ChannelStatusDisabled {
			t.Errorf("expected disabled status, got %d", stored.Status)
		}

		var entry models.OperationLog
		if err := db.Where("module = ? AND action = ?", "channel", "disable").First(&entry).Error; err != nil {
			t.Fatalf("expected disable log: %v", err)
		}
	})

	t.Run("enable_clears_auto_disable_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))
		channel := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Model(channel).Updates(map[string]any{
			"status":               models.ChannelStatusAutoDisabled,
			"auto_disabled_time":   1000,
			"auto_disabled_reason": "probe failed",
		})

		err := svc.SetStatus("", "system", "", channel.ID, models.ChannelStatusEnabled)
		testutil.AssertNoError(t, err)

		stored, err := svc.Get(channel.ID)
		testutil.AssertNoError(t, err)
		if stored.Status != models.ChannelStatusEnabled {
			t.Errorf("expected enabled status, got %d", stored.Status)
		}
		if stored.AutoDisabledTime != 0 || stored.AutoDisabledReason != "" {
			t.Errorf("expected auto-disable fields cleared, got %d/%q", stored.AutoDisabledTime, stored.AutoDisabledReason)
		}

		var entry models.OperationLog
		if err := db.Where("module = ? AND action = ?", "channel", "enable").First(&entry).Error; err != nil {
			t.Fatalf("expected enable log: %v", err)
		}
		if entry.Username != "system" {
			t.Errorf("expected system actor, got %q", entry.Username)
		}
	})

	t.Run("same_status_is_a_noop", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))
		channel := testutil.CreateTestChannel(t, db, "gpt-4")

		err := svc.SetStatus("admin-id", "root", "", channel.ID, models.ChannelStatusEnabled)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.OperationLog{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no log for no-op status change, got %d", count)
		}
	})

	t.Run("rejects_unknown_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))
		channel := testutil.CreateTestChannel(t, db, "gpt-4")

		err := svc.SetStatus("admin-id", "root", "", channel.ID, models.ChannelStatusAutoDisabled)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListAutoEnableCandidates(t *testing.T) {
	t.Run("requires_auto_disabled_status_and_opt_in", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))

		optedIn := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Model(optedIn).Update("status", models.ChannelStatusAutoDisabled)
		db.Create(&models.ChannelSetting{ChannelID: optedIn.ID, AutoEnable: true})

		optedOut := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Model(optedOut).Update("status", models.ChannelStatusAutoDisabled)
		db.Create(&models.ChannelSetting{ChannelID: optedOut.ID, AutoEnable: false})

		enabled := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Create(&models.ChannelSetting{ChannelID: enabled.ID, AutoEnable: true})

		candidates, err := svc.ListAutoEnableCandidates()
		testutil.AssertNoError(t, err)

		if len(candidates) != 1 || candidates[0].ID != optedIn.ID {
			t.Errorf("expected only the opted-in auto-disabled channel, got %d candidates", len(candidates))
		}
	})
}

func TestGroupsForModel(t *testing.T) {
	t.Run("distinct_sorted_groups_of_enabled_channels", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))

		first := testutil.CreateTestChannel(t, db, "gpt-4,gpt-3.5-turbo")
		db.Model(first).Update("group", "vip,default")
		second := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Model(second).Update("group", "default")
		disabled := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Model(disabled).Updates(map[string]any{"group": "premium", "status": models.ChannelStatusDisabled})

		groups, err := svc.GroupsForModel("gpt-4")
		testutil.AssertNoError(t, err)

		if diff := cmp.Diff([]string{"default", "vip"}, groups); diff != "" {
			t.Errorf("groups mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("substring_model_names_do_not_match", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))

		channel := testutil.CreateTestChannel(t, db, "gpt-4o,gpt-4o-mini")
		db.Model(channel).Update("group", "vip")

		groups, err := svc.GroupsForModel("gpt-4")
		testutil.AssertNoError(t, err)

		if len(groups) != 0 {
			t.Errorf("expected no groups for substring match, got %v", groups)
		}
	})
}

func TestChannelSettings(t *testing.T) {
	t.Run("get_setting_defaults_to_zero_value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))
		channel := testutil.CreateTestChannel(t, db, "gpt-4")

		setting, err := svc.GetSetting(channel.ID)
		testutil.AssertNoError(t, err)

		if setting.AutoEnable || setting.MaxRPM != 0 {
			t.Errorf("expected zero default setting, got %+v", setting)
		}
	})

	t.Run("set_setting_upserts_and_logs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))
		channel := testutil.CreateTestChannel(t, db, "gpt-4")

		err := svc.SetSetting("admin-id", "root", "", models.ChannelSetting{
			ChannelID:  channel.ID,
			AutoEnable: true,
			MaxRPM:     60,
		})
		testutil.AssertNoError(t, err)

		stored, err := svc.GetSetting(channel.ID)
		testutil.AssertNoError(t, err)
		if !stored.AutoEnable || stored.MaxRPM != 60 {
			t.Errorf("unexpected stored setting: %+v", stored)
		}

		var entry models.OperationLog
		if err := db.Where("module = ? AND target_id = ?", "channel", channel.ID).First(&entry).Error; err != nil {
			t.Fatalf("expected settings update log: %v", err)
		}

		// Re-applying the same values records nothing new.
		testutil.AssertNoError(t, svc.SetSetting("admin-id", "root", "", models.ChannelSetting{
			ChannelID:  channel.ID,
			AutoEnable: true,
			MaxRPM:     60,
		}))
		var count int64
		db.Model(&models.OperationLog{}).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 log after unchanged update, got %d", count)
		}
	})

	t.Run("batch_validates_every_channel_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))
		channel := testutil.CreateTestChannel(t, db, "gpt-4")

		err := svc.SetSettings("admin-id", "root", "", []models.ChannelSetting{
			{ChannelID: channel.ID, MaxRPM: 60},
			{ChannelID: "missing-id", MaxRPM: 10},
		})
		testutil.AssertAppError(t, err, "CHANNEL_NOT_FOUND")

		// Nothing is applied when any entry fails validation.
		stored, getErr := svc.GetSetting(channel.ID)
		testutil.AssertNoError(t, getErr)
		if stored.MaxRPM != 0 {
			t.Errorf("expected no settings applied, got max_rpm %d", stored.MaxRPM)
		}
	})

	t.Run("rejects_negative_max_rpm", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))
		channel := testutil.CreateTestChannel(t, db, "gpt-4")

		err := svc.SetSetting("admin-id", "root", "", models.ChannelSetting{
			ChannelID: channel.ID,
			MaxRPM:    -1,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("get_settings_batch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewChannelService(db, NewOperationLogService(db))

		withSetting := testutil.CreateTestChannel(t, db, "gpt-4")
		db.Create(&models.ChannelSetting{ChannelID: withSetting.ID, MaxRPM: 30})
		without := testutil.CreateTestChannel(t, db, "gpt-4")

		settings, err := svc.GetSettings([]string{withSetting.ID, without.ID})
		testutil.AssertNoError(t, err)

		if len(settings) != 1 {
			t.Fatalf("expected 1 stored setting, got %d", len(settings))
		}
		if settings[withSetting.ID].MaxRPM != 30 {
			t.Errorf("expected max_rpm 30, got %d", settings[withSetting.ID].MaxRPM)
		}
	})
}
