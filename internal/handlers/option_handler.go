package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/services"
)

// OptionHandler handles runtime settings requests.
type OptionHandler struct {
	optionService services.OptionServicer
}

// NewOptionHandler creates a new OptionHandler.
func NewOptionHandler(optionService services.OptionServicer) *OptionHandler {
	return &OptionHandler{optionService: optionService}
}

// List returns all visible options
// @Summary     List options
// @Description All persisted options except secret-bearing keys
// @Tags        options
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Options"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /option/ [get]
func (h *OptionHandler) List(c *gin.Context) {
	options, err := h.optionService.AllOptions()
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, options)
}

// UpdateOptionRequest represents the option update payload.
type UpdateOptionRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// Update sets an option value
// @Summary     Update an option
// @Description Validate, persist and apply a runtime setting
// @Tags        options
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateOptionRequest true "Option key and value"
// @Success     200 {object} SuccessResponse "Saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /option/ [put]
func (h *OptionHandler) Update(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.optionService.UpdateOption(userID, username, ip, req.Key, req.Value); err != nil {
		respondWithError(c, err)
		return
	}
	respondMessage(c, "设置已保存")
}
