package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/models"
	"relaypanel/internal/monitor"
	"relaypanel/internal/pagination"
	"relaypanel/internal/services"
)

// ChannelHandler handles channel management requests.
type ChannelHandler struct {
	channelService services.ChannelServicer
	stats          *monitor.StatsCollector
	limiter        *monitor.RateLimiter
}

// NewChannelHandler creates a new ChannelHandler.
func NewChannelHandler(channelService services.ChannelServicer, stats *monitor.StatsCollector, limiter *monitor.RateLimiter) *ChannelHandler {
	return &ChannelHandler{channelService: channelService, stats: stats, limiter: limiter}
}

// ListChannelsRequest represents the list query parameters.
type ListChannelsRequest struct {
	pagination.PageRequest
	Status  int    `form:"status" binding:"omitempty,oneof=1 2 3"`
	Group   string `form:"group"`
	Keyword string `form:"keyword"`
}

// List returns a filtered page of channels
// @Summary     List channels
// @Tags        channels
// @Produce     json
// @Security    BearerAuth
// @Param       status query int false "Status filter"
// @Param       group query string false "Group filter"
// @Param       keyword query string false "Name or model keyword"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} SuccessResponse "Channel page"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /channel/ [get]
func (h *ChannelHandler) List(c *gin.Context) {
	var req ListChannelsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	page, err := h.channelService.List(services.ChannelFilter{
		Status:  req.Status,
		Group:   req.Group,
		Keyword: req.Keyword,
	}, req.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, page)
}

// Get returns one channel
// @Summary     Get a channel
// @Tags        channels
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Channel ID"
// @Success     200 {object} SuccessResponse "Channel"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /channel/{id} [get]
func (h *ChannelHandler) Get(c *gin.Context) {
	channel, err := h.channelService.Get(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, channel)
}

// UpdateChannelRequest represents the channel update payload.
type UpdateChannelRequest struct {
	Name     string `json:"name" binding:"omitempty,max=100"`
	Group    string `json:"group" binding:"omitempty,max=64"`
	Models   string `json:"models"`
	Priority int64  `json:"priority"`
	Weight   uint   `json:"weight"`
	BaseURL  string `json:"base_url" binding:"omitempty,url"`
}

// Update modifies a channel
// @Summary     Update a channel
// @Tags        channels
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Channel ID"
// @Param       request body UpdateChannelRequest true "Fields to update"
// @Success     200 {object} SuccessResponse "Updated channel"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /channel/{id} [put]
func (h *ChannelHandler) Update(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	channel, err := h.channelService.Update(userID, username, ip, c.Param("id"), services.ChannelUpdateParams{
		Name:     req.Name,
		Group:    req.Group,
		Models:   req.Models,
		Priority: req.Priority,
		Weight:   req.Weight,
		BaseURL:  req.BaseURL,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, channel)
}

// SetChannelStatusRequest represents the status change payload.
type SetChannelStatusRequest struct {
	Status int `json:"status" binding:"required,oneof=1 2"`
}

// SetStatus enables or disables a channel
// @Summary     Enable or disable a channel
// @Tags        channels
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Channel ID"
// @Param       request body SetChannelStatusRequest true "New status"
// @Success     200 {object} SuccessResponse "Status changed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /channel/{id}/status [put]
func (h *ChannelHandler) SetStatus(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetChannelStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.channelService.SetStatus(userID, username, ip, c.Param("id"), req.Status); err != nil {
		respondWithError(c, err)
		return
	}
	respondMessage(c, "渠道状态已更新")
}

// ChannelSettingRequest represents one channel's monitor settings.
type ChannelSettingRequest struct {
	ChannelID  string `json:"channel_id" binding:"required"`
	AutoEnable bool   `json:"auto_enable"`
	MaxRPM     int    `json:"max_rpm" binding:"gte=0"`
}

// GetSetting returns one channel's monitor settings
// @Summary     Get channel monitor settings
// @Tags        channels
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Channel ID"
// @Success     200 {object} SuccessResponse "Settings"
// @Router      /channel/{id}/setting [get]
func (h *ChannelHandler) GetSetting(c *gin.Context) {
	setting, err := h.channelService.GetSetting(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, setting)
}

// SetSetting updates one channel's monitor settings
// @Summary     Update channel monitor settings
// @Tags        channels
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Channel ID"
// @Param       request body ChannelSettingRequest true "Settings"
// @Success     200 {object} SuccessResponse "Saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /channel/{id}/setting [put]
func (h *ChannelHandler) SetSetting(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChannelSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	req.ChannelID = c.Param("id")

	err = h.channelService.SetSetting(userID, username, ip, models.ChannelSetting{
		ChannelID:  req.ChannelID,
		AutoEnable: req.AutoEnable,
		MaxRPM:     req.MaxRPM,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondMessage(c, "渠道监控设置已保存")
}

// BatchSettingsRequest represents the batch monitor settings payload.
type BatchSettingsRequest struct {
	Settings []ChannelSettingRequest `json:"settings" binding:"required,min=1,dive"`
}

// SetSettings updates monitor settings for several channels at once
// @Summary     Batch update channel monitor settings
// @Tags        channels
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BatchSettingsRequest true "Settings per channel"
// @Success     200 {object} SuccessResponse "Saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /channel/settings [put]
func (h *ChannelHandler) SetSettings(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BatchSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	settings := make([]models.ChannelSetting, 0, len(req.Settings))
	for _, setting := range req.Settings {
		settings = append(settings, models.ChannelSetting{
			ChannelID:  setting.ChannelID,
			AutoEnable: setting.AutoEnable,
			MaxRPM:     setting.MaxRPM,
		})
	}
	if err := h.channelService.SetSettings(userID, username, ip, settings); err != nil {
		respondWithError(c, err)
		return
	}
	respondMessage(c, "渠道监控设置已保存")
}

// ChannelStatsEntry is one channel's stats row including its current RPM.
type ChannelStatsEntry struct {
	monitor.ChannelStats
	CurrentRPM int `json:"current_rpm"`
}

// Stats returns the latest channel stats snapshot
// @Summary     Channel request stats
// @Tags        channels
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Stats per channel"
// @Router      /channel/stats [get]
func (h *ChannelHandler) Stats(c *gin.Context) {
	snapshot := h.stats.Stats()
	entries := make(map[string]ChannelStatsEntry, len(snapshot))
	for id, stats := range snapshot {
		entries[id] = ChannelStatsEntry{
			ChannelStats: stats,
			CurrentRPM:   h.limiter.CurrentRPM(id),
		}
	}
	respondOK(c, entries)
}
