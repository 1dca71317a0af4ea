package handlers

import (
	"github.com/gin-gonic/gin"

	"relaypanel/internal/config"
	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/pricing"
	"relaypanel/internal/services"
)

// PricingHandler builds per-group price tables for models.
type PricingHandler struct {
	store          *pricing.RatioStore
	optionService  services.OptionServicer
	channelService services.ChannelServicer
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(store *pricing.RatioStore, optionService services.OptionServicer, channelService services.ChannelServicer) *PricingHandler {
	return &PricingHandler{store: store, optionService: optionService, channelService: channelService}
}

// PriceTableRequest represents the price table query parameters.
type PriceTableRequest struct {
	Currency  string `form:"currency" binding:"omitempty,price_currency"`
	TokenUnit string `form:"token_unit" binding:"omitempty,token_unit"`
}

// Table returns the per-group price table for a model
// @Summary     Model price table
// @Description Per-group prices for a model: tiered token ranges, per-call resolution prices, or flat rows
// @Tags        pricing
// @Produce     json
// @Security    BearerAuth
// @Param       model path string true "Model name"
// @Param       currency query string false "USD or CNY" default(USD)
// @Param       token_unit query string false "K or M" default(M)
// @Success     200 {object} SuccessResponse "Price table"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /pricing/{model} [get]
func (h *PricingHandler) Table(c *gin.Context) {
	var req PriceTableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.TokenUnit == "" {
		req.TokenUnit = "M"
	}

	model := c.Param("model")
	enableGroups, err := h.channelService.GroupsForModel(model)
	if err != nil {
		respondWithError(c, err)
		return
	}

	usable := make(map[string]bool)
	for name := range h.optionService.UsableGroups() {
		usable[name] = true
	}

	record := h.store.ModelRecordFor(model, enableGroups)
	table := pricing.BuildTable(record, pricing.TableOptions{
		GroupRatio:   h.store.GroupRatioCopy(),
		UsableGroups: usable,
		AutoGroups:   h.optionService.AutoGroups(),
		Currency:     req.Currency,
		TokenUnit:    req.TokenUnit,
		USDToCNY:     config.Get().USDToCNYRate,
	})
	respondOK(c, table)
}
