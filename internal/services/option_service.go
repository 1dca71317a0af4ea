package services

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/logger"
	"relaypanel/internal/models"
	"relaypanel/internal/oplog"
	"relaypanel/internal/pricing"
)

// Option keys with structured loaders.
const (
	OptionGroupRatio        = "GroupRatio"
	OptionGroupOrder        = "GroupOrder"
	OptionTextModelPrice    = "TextModelPrice"
	OptionSpecialModelPrice = "SpecialModelPrice"
	OptionModelRatio        = "ModelRatio"
	OptionCompletionRatio   = "CompletionRatio"
	OptionModelPrice        = "ModelPrice"
	OptionUserUsableGroups  = "UserUsableGroups"
	OptionAutoGroups        = "AutoGroups"
)

// optionService owns the options table and keeps the live setting stores in
// sync with it.
type optionService struct {
	db     *gorm.DB
	store  *pricing.RatioStore
	oplogs OperationLogServicer

	mu           sync.RWMutex
	usableGroups map[string]string
	autoGroups   []string
}

// NewOptionService creates a new OptionServicer bound to the given ratio store.
func NewOptionService(db *gorm.DB, store *pricing.RatioStore, oplogs OperationLogServicer) OptionServicer {
	return &optionService{
		db:           db,
		store:        store,
		oplogs:       oplogs,
		usableGroups: map[string]string{},
	}
}

// InitOptions loads all persisted options into the live stores. Bad stored
// values are logged and skipped so one corrupt row cannot block startup.
func (s *optionService) InitOptions() error {
	var options []models.Option
	if err := s.db.Find(&options).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, option := range options {
		if err := s.applyOption(option.Key, option.Value); err != nil {
			logger.Get().Warnw("skipping invalid stored option",
				"key", option.Key,
				"error", err,
			)
		}
	}
	return nil
}

// validateOption checks a structured option value without touching any live
// store, mirroring the decode each loader performs. Keys without a loader
// accept any string.
func validateOption(key, value string) error {
	var err error
	switch key {
	case OptionGroupRatio:
		err = pricing.CheckGroupRatioJSON(value)
	case OptionGroupOrder, OptionAutoGroups:
		if value != "" {
			var groups []string
			err = json.Unmarshal([]byte(value), &groups)
		}
	case OptionTextModelPrice:
		var prices map[string]pricing.TextPrice
		err = json.Unmarshal([]byte(value), &prices)
	case OptionSpecialModelPrice:
		var prices map[string]map[string]float64
		err = json.Unmarshal([]byte(value), &prices)
	case OptionModelRatio, OptionCompletionRatio, OptionModelPrice:
		var ratios map[string]float64
		err = json.Unmarshal([]byte(value), &ratios)
	case OptionUserUsableGroups:
		if value != "" {
			var groups map[string]string
			err = json.Unmarshal([]byte(value), &groups)
		}
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrOptionValue, err)
	}
	return nil
}

// applyOption pushes a structured option value into its live store. Keys
// without a loader are accepted as opaque strings.
func (s *optionService) applyOption(key, value string) error {
	switch key {
	case OptionGroupRatio:
		return s.store.LoadGroupRatioJSON(value)
	case OptionGroupOrder:
		return s.store.LoadGroupOrderJSON(value)
	case OptionTextModelPrice:
		return s.store.LoadTextPriceJSON(value)
	case OptionSpecialModelPrice:
		return s.store.LoadSpecialPriceJSON(value)
	case OptionModelRatio:
		return s.store.LoadModelRatioJSON(value)
	case OptionCompletionRatio:
		return s.store.LoadCompletionRatioJSON(value)
	case OptionModelPrice:
		return s.store.LoadModelPriceJSON(value)
	case OptionUserUsableGroups:
		groups := map[string]string{}
		if value != "" {
			if err := json.Unmarshal([]byte(value), &groups); err != nil {
				return apperrors.Wrap(apperrors.ErrOptionValue, err)
			}
		}
		s.mu.Lock()
		s.usableGroups = groups
		s.mu.Unlock()
		return nil
	case OptionAutoGroups:
		var groups []string
		if value != "" {
			if err := json.Unmarshal([]byte(value), &groups); err != nil {
				return apperrors.Wrap(apperrors.ErrOptionValue, err)
			}
		}
		s.mu.Lock()
		s.autoGroups = groups
		s.mu.Unlock()
		return nil
	}
	return nil
}

// secretOptionKeys are credential-holding options that never leave the
// server. An exact-match list: settings that merely mention keys or tokens
// in their name stay visible.
var secretOptionKeys = map[string]bool{
	"SMTPToken":          true,
	"EpayKey":            true,
	"TelegramBotToken":   true,
	"TurnstileSecretKey": true,
	"GitHubClientSecret": true,
}

// AllOptions lists persisted options, hiding secret-bearing keys.
func (s *optionService) AllOptions() ([]models.Option, error) {
	var options []models.Option
	if err := s.db.Order("key").Find(&options).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	visible := make([]models.Option, 0, len(options))
	for _, option := range options {
		if secretOptionKeys[option.Key] {
			continue
		}
		visible = append(visible, option)
	}
	return visible, nil
}

// UpdateOption validates, persists and applies a new option value, and
// records an option-module operation log with the raw old and new values.
func (s *optionService) UpdateOption(actorID, actorName, ip, key, value string) error {
	if key == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "option key is required")
	}
	if err := validateOption(key, value); err != nil {
		return err
	}

	var oldValue string
	var existing models.Option
	err := s.db.Where("key = ?", key).First(&existing).Error
	switch {
	case err == nil:
		oldValue = existing.Value
	case errors.Is(err, gorm.ErrRecordNotFound):
		oldValue = ""
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	option := models.Option{Key: key, Value: value}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&option).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Applied only after the write lands so a failed persist cannot leave
	// the live stores serving configuration the options table never held.
	if err := s.applyOption(key, value); err != nil {
		return err
	}

	s.oplogs.Record(OperationLogParams{
		UserID:     actorID,
		Username:   actorName,
		Module:     oplog.ModuleOption,
		Action:     oplog.ActionUpdate,
		TargetID:   key,
		TargetName: key,
		Old:        oldValue,
		New:        value,
		IP:         ip,
	})
	return nil
}

// GroupNames returns all known group names, explicit order first and the
// rest alphabetically.
func (s *optionService) GroupNames() []string {
	return s.store.SortedGroupNames()
}

// UsableGroups returns the group -> description map users may select from.
func (s *optionService) UsableGroups() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make(map[string]string, len(s.usableGroups))
	for name, desc := range s.usableGroups {
		groups[name] = desc
	}
	return groups
}

// AutoGroups returns the ordered fallback chain for the synthetic auto group.
func (s *optionService) AutoGroups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.autoGroups...)
}

// UserGroups returns the selectable groups for the current user with ratio
// and ordering metadata. When an auto chain is configured a synthetic auto
// entry sorts first.
func (s *optionService) UserGroups() []GroupEntry {
	s.mu.RLock()
	usable := make(map[string]string, len(s.usableGroups))
	for name, desc := range s.usableGroups {
		usable[name] = desc
	}
	auto := append([]string(nil), s.autoGroups...)
	s.mu.RUnlock()

	order := s.store.GroupOrder()
	orderIndex := make(map[string]int, len(order))
	for i, name := range order {
		orderIndex[name] = i
	}

	entries := make([]GroupEntry, 0, len(usable)+1)
	for name, desc := range usable {
		if name == "auto" {
			continue
		}
		index, ok := orderIndex[name]
		if !ok {
			index = len(order)
		}
		entries = append(entries, GroupEntry{
			Name:  name,
			Desc:  desc,
			Ratio: s.store.GroupRatio(name),
			Order: index,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Order != entries[j].Order {
			return entries[i].Order < entries[j].Order
		}
		return entries[i].Name < entries[j].Name
	})

	if len(auto) > 0 {
		ratio := s.store.GroupRatio(auto[0])
		entries = append([]GroupEntry{{
			Name:  "auto",
			Desc:  "自动选择最优分组",
			Ratio: ratio,
			Order: -1,
		}}, entries...)
	}
	return entries
}
