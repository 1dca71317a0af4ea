package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/oplog"
	"relaypanel/internal/pagination"
	"relaypanel/internal/services"
)

// OperationLogHandler handles operation log requests.
type OperationLogHandler struct {
	logService services.OperationLogServicer
}

// NewOperationLogHandler creates a new OperationLogHandler.
func NewOperationLogHandler(logService services.OperationLogServicer) *OperationLogHandler {
	return &OperationLogHandler{logService: logService}
}

// ListOperationLogsRequest represents the list query parameters.
type ListOperationLogsRequest struct {
	pagination.PageRequest
	Module         string `form:"module" binding:"omitempty,oplog_module"`
	Action         string `form:"action" binding:"omitempty,oplog_action"`
	Username       string `form:"username"`
	TargetID       string `form:"target_id"`
	Keyword        string `form:"keyword"`
	StartTimestamp int64  `form:"start_timestamp" binding:"omitempty,min=0"`
	EndTimestamp   int64  `form:"end_timestamp" binding:"omitempty,min=0"`
}

// List returns a filtered page of operation logs
// @Summary     List operation logs
// @Description List operation logs with optional module, action, user and time filters
// @Tags        operation-logs
// @Produce     json
// @Security    BearerAuth
// @Param       module query string false "Module filter"
// @Param       action query string false "Action filter"
// @Param       username query string false "Operator username"
// @Param       target_id query string false "Target entity ID"
// @Param       keyword query string false "Target name or description keyword"
// @Param       start_timestamp query int false "Unix seconds lower bound"
// @Param       end_timestamp query int false "Unix seconds upper bound"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} SuccessResponse "Log page"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /operation_log/ [get]
func (h *OperationLogHandler) List(c *gin.Context) {
	var req ListOperationLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	page, err := h.logService.List(services.OperationLogFilter{
		Module:         req.Module,
		Action:         req.Action,
		Username:       req.Username,
		TargetID:       req.TargetID,
		Keyword:        req.Keyword,
		StartTimestamp: req.StartTimestamp,
		EndTimestamp:   req.EndTimestamp,
	}, req.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, page)
}

// DeleteOperationLogsRequest represents the purge payload.
type DeleteOperationLogsRequest struct {
	TargetTimestamp int64 `json:"target_timestamp" binding:"required,min=1"`
}

// Delete purges operation logs older than a timestamp
// @Summary     Purge old operation logs
// @Tags        operation-logs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DeleteOperationLogsRequest true "Purge boundary"
// @Success     200 {object} SuccessResponse "Rows removed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /operation_log/ [delete]
func (h *OperationLogHandler) Delete(c *gin.Context) {
	var req DeleteOperationLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	deleted, err := h.logService.DeleteBefore(c.Request.Context(), req.TargetTimestamp)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondMessage(c, fmt.Sprintf("已删除 %d 条操作日志", deleted))
}

// OptionEntry is one selectable filter value with its display label.
type OptionEntry struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OperationLogOptions lists the selectable module and action filters.
type OperationLogOptions struct {
	Modules []OptionEntry `json:"modules"`
	Actions []OptionEntry `json:"actions"`
}

// Options returns the module and action filter values
// @Summary     Operation log filter options
// @Tags        operation-logs
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=OperationLogOptions} "Filter options"
// @Router      /operation_log/options [get]
func (h *OperationLogHandler) Options(c *gin.Context) {
	options := OperationLogOptions{}
	for _, module := range oplog.Modules() {
		options.Modules = append(options.Modules, OptionEntry{
			Value: string(module),
			Label: oplog.ModuleLabel(module),
		})
	}
	for _, action := range oplog.Actions() {
		options.Actions = append(options.Actions, OptionEntry{
			Value: string(action),
			Label: oplog.ActionLabel(action),
		})
	}
	respondOK(c, options)
}
