package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/logger"
	"relaypanel/internal/metrics"
	"relaypanel/internal/models"
	"relaypanel/internal/oplog"
	"relaypanel/internal/pagination"
)

// deleteBatchSize bounds each DELETE when purging old logs so long purges
// don't hold row locks for the whole run.
const deleteBatchSize = 100

// operationLogService handles operation log recording and queries.
type operationLogService struct {
	db *gorm.DB
}

// NewOperationLogService creates a new OperationLogServicer.
func NewOperationLogService(db *gorm.DB) OperationLogServicer {
	return &operationLogService{db: db}
}

// Record inserts an operation log entry. Errors are logged but never
// propagate to avoid disrupting the main operation.
func (s *operationLogService) Record(params OperationLogParams) {
	entry := &models.OperationLog{
		UserID:      params.UserID,
		Username:    params.Username,
		Module:      string(params.Module),
		Action:      string(params.Action),
		TargetID:    params.TargetID,
		TargetName:  params.TargetName,
		OldValue:    marshalSnapshot(params.Old),
		NewValue:    marshalSnapshot(params.New),
		Description: params.Description,
		IP:          params.IP,
	}

	if err := s.db.Create(entry).Error; err != nil {
		metrics.OperationLogRecordFailures.Inc()
		logger.Get().Errorw("failed to record operation log",
			"error", err,
			"module", entry.Module,
			"action", entry.Action,
			"target_id", entry.TargetID,
		)
		return
	}
	metrics.OperationLogsRecorded.WithLabelValues(entry.Module, entry.Action).Inc()
}

// marshalSnapshot renders a snapshot value to JSON text. Nil snapshots
// become the empty string so create/delete logs carry only one side.
func marshalSnapshot(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Get().Errorw("failed to marshal operation log snapshot", "error", err)
		return "{}"
	}
	return string(data)
}

// List returns a filtered page of operation logs, newest first, each with
// its display summary.
func (s *operationLogService) List(filter OperationLogFilter, page pagination.PageRequest) (*pagination.PageResponse[OperationLogView], error) {
	page.Defaults()

	query := s.db.Model(&models.OperationLog{})
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Username != "" {
		query = query.Where("username = ?", filter.Username)
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		query = query.Where("target_name LIKE ? OR description LIKE ?", keyword, keyword)
	}
	if filter.StartTimestamp > 0 {
		query = query.Where("created_at >= ?", filter.StartTimestamp)
	}
	if filter.EndTimestamp > 0 {
		query = query.Where("created_at <= ?", filter.EndTimestamp)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var logs []models.OperationLog
	if err := query.Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&logs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]OperationLogView, 0, len(logs))
	for _, entry := range logs {
		views = append(views, OperationLogView{
			OperationLog: entry,
			Summary:      summarize(entry),
		})
	}

	response := pagination.NewPageResponse(views, page.Page, page.PageSize, total)
	return &response, nil
}

func summarize(entry models.OperationLog) string {
	return oplog.Summarize(oplog.Entry{
		Module:      oplog.Module(entry.Module),
		Action:      oplog.Action(entry.Action),
		TargetID:    entry.TargetID,
		TargetName:  entry.TargetName,
		OldValue:    entry.OldValue,
		NewValue:    entry.NewValue,
		Description: entry.Description,
	})
}

// DeleteBefore removes logs created before targetTimestamp in batches,
// stopping early when the context is cancelled. Returns the number of rows
// removed.
func (s *operationLogService) DeleteBefore(ctx context.Context, targetTimestamp int64) (int64, error) {
	if targetTimestamp <= 0 {
		return 0, apperrors.ErrTargetTimestampRequired
	}

	var deleted int64
	for {
		select {
		case <-ctx.Done():
			return deleted, ctx.Err()
		default:
		}

		result := s.db.Where("created_at < ?", targetTimestamp).
			Limit(deleteBatchSize).
			Delete(&models.OperationLog{})
		if result.Error != nil {
			return deleted, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		deleted += result.RowsAffected
		if result.RowsAffected < deleteBatchSize {
			return deleted, nil
		}
	}
}
