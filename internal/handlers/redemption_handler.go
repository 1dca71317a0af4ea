package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/pagination"
	"relaypanel/internal/services"
)

// RedemptionHandler handles redemption code requests.
type RedemptionHandler struct {
	redemptionService services.RedemptionServicer
}

// NewRedemptionHandler creates a new RedemptionHandler.
func NewRedemptionHandler(redemptionService services.RedemptionServicer) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

// CreateRedemptionRequest represents the batch creation payload.
type CreateRedemptionRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=20"`
	Quota       int64  `json:"quota" binding:"gte=0"`
	Count       int    `json:"count" binding:"required,min=1,max=100"`
	ExpiredTime int64  `json:"expired_time" binding:"gte=0"`
}

// Create generates a batch of redemption codes
// @Summary     Create redemption codes
// @Tags        redemptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRedemptionRequest true "Batch parameters"
// @Success     200 {object} SuccessResponse "Generated keys"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /redemption/ [post]
func (h *RedemptionHandler) Create(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	keys, err := h.redemptionService.Create(userID, username, ip, services.RedemptionCreateParams{
		Name:        req.Name,
		Quota:       req.Quota,
		Count:       req.Count,
		ExpiredTime: req.ExpiredTime,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, keys)
}

// ListRedemptionsRequest represents the list query parameters.
type ListRedemptionsRequest struct {
	pagination.PageRequest
	Keyword string `form:"keyword"`
}

// List returns a page of redemption codes
// @Summary     List redemption codes
// @Tags        redemptions
// @Produce     json
// @Security    BearerAuth
// @Param       keyword query string false "Name or key keyword"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} SuccessResponse "Redemption page"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /redemption/ [get]
func (h *RedemptionHandler) List(c *gin.Context) {
	var req ListRedemptionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	page, err := h.redemptionService.List(req.Keyword, req.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, page)
}

// Get returns one redemption code
// @Summary     Get a redemption code
// @Tags        redemptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Redemption ID"
// @Success     200 {object} SuccessResponse "Redemption code"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /redemption/{id} [get]
func (h *RedemptionHandler) Get(c *gin.Context) {
	code, err := h.redemptionService.Get(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, code)
}

// UpdateRedemptionRequest represents the update payload. With status_only
// set, only the status field is applied.
type UpdateRedemptionRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=20"`
	Quota       int64  `json:"quota" binding:"gte=0"`
	ExpiredTime int64  `json:"expired_time" binding:"gte=0"`
	Status      int    `json:"status" binding:"omitempty,oneof=1 2 3"`
	StatusOnly  bool   `json:"status_only"`
}

// Update modifies a redemption code
// @Summary     Update a redemption code
// @Tags        redemptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Redemption ID"
// @Param       request body UpdateRedemptionRequest true "Fields to update"
// @Success     200 {object} SuccessResponse "Updated code"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /redemption/{id} [put]
func (h *RedemptionHandler) Update(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	code, err := h.redemptionService.Update(userID, username, ip, c.Param("id"), services.RedemptionUpdateParams{
		Name:        req.Name,
		Quota:       req.Quota,
		ExpiredTime: req.ExpiredTime,
		Status:      req.Status,
		StatusOnly:  req.StatusOnly,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, code)
}

// Delete removes a redemption code
// @Summary     Delete a redemption code
// @Tags        redemptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Redemption ID"
// @Success     200 {object} SuccessResponse "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /redemption/{id} [delete]
func (h *RedemptionHandler) Delete(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.redemptionService.Delete(userID, username, ip, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	respondMessage(c, "兑换码已删除")
}

// DeleteInvalid removes used, disabled and expired codes
// @Summary     Purge invalid redemption codes
// @Tags        redemptions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Rows removed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /redemption/invalid [delete]
func (h *RedemptionHandler) DeleteInvalid(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.redemptionService.DeleteInvalid(userID, username, ip)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondMessage(c, fmt.Sprintf("已清理 %d 条无效兑换码", deleted))
}
