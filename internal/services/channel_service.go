package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/models"
	"relaypanel/internal/oplog"
	"relaypanel/internal/pagination"
)

// channelService handles upstream channel management.
type channelService struct {
	db     *gorm.DB
	oplogs OperationLogServicer
}

// NewChannelService creates a new ChannelServicer.
func NewChannelService(db *gorm.DB, oplogs OperationLogServicer) ChannelServicer {
	return &channelService{db: db, oplogs: oplogs}
}

// snapshot renders a channel for operation logging with the key omitted.
func channelSnapshot(c *models.Channel) map[string]any {
	return map[string]any{
		"name":     c.Name,
		"type":     c.Type,
		"status":   c.Status,
		"group":    c.Group,
		"models":   c.Models,
		"priority": c.Priority,
		"weight":   c.Weight,
		"base_url": c.BaseURL,
	}
}

// List returns a filtered page of channels ordered by priority.
func (s *channelService) List(filter ChannelFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Channel], error) {
	page.Defaults()

	query := s.db.Model(&models.Channel{})
	if filter.Status != 0 {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Group != "" {
		query = query.Where("\"group\" = ?", filter.Group)
	}
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR models LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var channels []models.Channel
	if err := query.Order("priority DESC, name").
		Scopes(pagination.Paginate(page)).
		Find(&channels).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	response := pagination.NewPageResponse(channels, page.Page, page.PageSize, total)
	return &response, nil
}

// Get retrieves a channel by ID.
func (s *channelService) Get(id string) (*models.Channel, error) {
	var channel models.Channel
	if err := s.db.Where("id = ?", id).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChannelNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &channel, nil
}

// Update applies channel field edits and records an update log with old and
// new snapshots.
func (s *channelService) Update(actorID, actorName, ip, id string, params ChannelUpdateParams) (*models.Channel, error) {
	channel, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	oldSnapshot := channelSnapshot(channel)

	if params.Name != "" {
		channel.Name = params.Name
	}
	if params.Group != "" {
		channel.Group = params.Group
	}
	if params.Models != "" {
		channel.Models = params.Models
	}
	channel.Priority = params.Priority
	channel.Weight = params.Weight
	channel.BaseURL = params.BaseURL

	if err := s.db.Save(channel).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.oplogs.Record(OperationLogParams{
		UserID:     actorID,
		Username:   actorName,
		Module:     oplog.ModuleChannel,
		Action:     oplog.ActionUpdate,
		TargetID:   channel.ID,
		TargetName: channel.Name,
		Old:        oldSnapshot,
		New:        channelSnapshot(channel),
		IP:         ip,
	})
	return channel, nil
}

// SetStatus enables or disables a channel and records the matching
// enable/disable log.
func (s *channelService) SetStatus(actorID, actorName, ip, id string, status int) error {
	if status != models.ChannelStatusEnabled && status != models.ChannelStatusDisabled {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid channel status")
	}

	channel, err := s.Get(id)
	if err != nil {
		return err
	}
	if channel.Status == status {
		return nil
	}
	oldSnapshot := channelSnapshot(channel)

	channel.Status = status
	if status == models.ChannelStatusEnabled {
		channel.AutoDisabledTime = 0
		channel.AutoDisabledReason = ""
	}
	if err := s.db.Save(channel).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	action := oplog.ActionEnable
	if status == models.ChannelStatusDisabled {
		action = oplog.ActionDisable
	}
	s.oplogs.Record(OperationLogParams{
		UserID:     actorID,
		Username:   actorName,
		Module:     oplog.ModuleChannel,
		Action:     action,
		TargetID:   channel.ID,
		TargetName: channel.Name,
		Old:        oldSnapshot,
		New:        channelSnapshot(channel),
		IP:         ip,
	})
	return nil
}

// ListAutoEnableCandidates returns auto-disabled channels whose settings
// opt in to the auto-enable monitor.
func (s *channelService) ListAutoEnableCandidates() ([]models.Channel, error) {
	var channels []models.Channel
	err := s.db.
		Joins("JOIN channel_settings ON channel_settings.channel_id = channels.id").
		Where("channels.status = ? AND channel_settings.auto_enable = ?", models.ChannelStatusAutoDisabled, true).
		Find(&channels).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return channels, nil
}

// GroupsForModel returns the distinct groups of enabled channels that serve
// the given model.
func (s *channelService) GroupsForModel(model string) ([]string, error) {
	var channels []models.Channel
	err := s.db.
		Where("status = ? AND models LIKE ?", models.ChannelStatusEnabled, "%"+model+"%").
		Find(&channels).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	seen := make(map[string]bool)
	var groups []string
	for _, channel := range channels {
		if !channelServesModel(channel.Models, model) {
			continue
		}
		for _, group := range strings.Split(channel.Group, ",") {
			group = strings.TrimSpace(group)
			if group != "" && !seen[group] {
				seen[group] = true
				groups = append(groups, group)
			}
		}
	}
	sort.Strings(groups)
	return groups, nil
}

// channelServesModel rechecks the LIKE match exactly: the models column is a
// comma-separated list and substring matches can cross entry boundaries.
func channelServesModel(modelList, model string) bool {
	for _, entry := range strings.Split(modelList, ",") {
		if strings.TrimSpace(entry) == model {
			return true
		}
	}
	return false
}

// GetSetting returns the monitor settings for one channel, defaulting to a
// zero setting when none is stored.
func (s *channelService) GetSetting(channelID string) (*models.ChannelSetting, error) {
	var setting models.ChannelSetting
	err := s.db.Where("channel_id = ?", channelID).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ChannelSetting{ChannelID: channelID}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &setting, nil
}

// GetSettings returns monitor settings for a batch of channels keyed by
// channel ID. Channels without a stored row are absent from the map.
func (s *channelService) GetSettings(channelIDs []string) (map[string]models.ChannelSetting, error) {
	var settings []models.ChannelSetting
	if err := s.db.Where("channel_id IN ?", channelIDs).Find(&settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byID := make(map[string]models.ChannelSetting, len(settings))
	for _, setting := range settings {
		byID[setting.ChannelID] = setting
	}
	return byID, nil
}

// SetSetting upserts one channel's monitor settings and records the change.
func (s *channelService) SetSetting(actorID, actorName, ip string, setting models.ChannelSetting) error {
	return s.SetSettings(actorID, actorName, ip, []models.ChannelSetting{setting})
}

// SetSettings upserts monitor settings for several channels at once. One
// update log is recorded per changed channel.
func (s *channelService) SetSettings(actorID, actorName, ip string, settings []models.ChannelSetting) error {
	for _, setting := range settings {
		if setting.ChannelID == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "channel_id is required")
		}
		if setting.MaxRPM < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "max_rpm must not be negative")
		}
		if _, err := s.Get(setting.ChannelID); err != nil {
			return err
		}
	}

	for _, setting := range settings {
		old, err := s.GetSetting(setting.ChannelID)
		if err != nil {
			return err
		}
		if old.AutoEnable == setting.AutoEnable && old.MaxRPM == setting.MaxRPM {
			continue
		}

		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"auto_enable", "max_rpm"}),
		}).Create(&setting).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		s.oplogs.Record(OperationLogParams{
			UserID:      actorID,
			Username:    actorName,
			Module:      oplog.ModuleChannel,
			Action:      oplog.ActionUpdate,
			TargetID:    setting.ChannelID,
			Old:         map[string]any{"auto_enable": old.AutoEnable, "max_rpm": old.MaxRPM},
			New:         map[string]any{"auto_enable": setting.AutoEnable, "max_rpm": setting.MaxRPM},
			Description: fmt.Sprintf("更新渠道监控设置: %s", setting.ChannelID),
			IP:          ip,
		})
	}
	return nil
}
