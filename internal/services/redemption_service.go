package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/models"
	"relaypanel/internal/oplog"
	"relaypanel/internal/pagination"
)

const (
	redemptionNameMaxLen = 20
	redemptionMaxCount   = 100
)

// redemptionService handles redemption code management.
type redemptionService struct {
	db     *gorm.DB
	oplogs OperationLogServicer
}

// NewRedemptionService creates a new RedemptionServicer.
func NewRedemptionService(db *gorm.DB, oplogs OperationLogServicer) RedemptionServicer {
	return &redemptionService{db: db, oplogs: oplogs}
}

func newRedemptionKey() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// snapshot renders a redemption for operation logging with the key omitted.
func redemptionSnapshot(r *models.Redemption) map[string]any {
	return map[string]any{
		"name":         r.Name,
		"quota":        r.Quota,
		"status":       r.Status,
		"expired_time": r.ExpiredTime,
	}
}

func validateRedemptionName(name string) error {
	if name == "" || len([]rune(name)) > redemptionNameMaxLen {
		return apperrors.ErrRedemptionNameLength
	}
	return nil
}

func validateExpiredTime(expiredTime int64) error {
	if expiredTime != 0 && expiredTime < time.Now().Unix() {
		return apperrors.ErrRedemptionExpireTime
	}
	return nil
}

// Create generates a batch of redemption codes and records a single create
// log whose snapshot lists the generated keys.
func (s *redemptionService) Create(actorID, actorName, ip string, params RedemptionCreateParams) ([]string, error) {
	if err := validateRedemptionName(params.Name); err != nil {
		return nil, err
	}
	if params.Count < 1 || params.Count > redemptionMaxCount {
		return nil, apperrors.ErrRedemptionCount
	}
	if params.Quota < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quota must not be negative")
	}
	if err := validateExpiredTime(params.ExpiredTime); err != nil {
		return nil, err
	}

	keys := make([]string, 0, params.Count)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < params.Count; i++ {
			code := &models.Redemption{
				UserID:      actorID,
				Key:         newRedemptionKey(),
				Name:        params.Name,
				Status:      models.RedemptionStatusEnabled,
				Quota:       params.Quota,
				ExpiredTime: params.ExpiredTime,
			}
			if err := tx.Create(code).Error; err != nil {
				return err
			}
			keys = append(keys, code.Key)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.oplogs.Record(OperationLogParams{
		UserID:     actorID,
		Username:   actorName,
		Module:     oplog.ModuleRedemption,
		Action:     oplog.ActionCreate,
		TargetName: params.Name,
		New: map[string]any{
			"name":         params.Name,
			"quota":        params.Quota,
			"count":        params.Count,
			"expired_time": params.ExpiredTime,
			"keys":         keys,
		},
		Description: fmt.Sprintf("创建兑换码: %s, 数量 %d", params.Name, params.Count),
		IP:          ip,
	})
	return keys, nil
}

// List returns a page of redemption codes, optionally filtered by a name
// or key keyword.
func (s *redemptionService) List(keyword string, page pagination.PageRequest) (*pagination.PageResponse[models.Redemption], error) {
	page.Defaults()

	query := s.db.Model(&models.Redemption{})
	if keyword != "" {
		pattern := "%" + keyword + "%"
		query = query.Where("name LIKE ? OR key LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var codes []models.Redemption
	if err := query.Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&codes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	response := pagination.NewPageResponse(codes, page.Page, page.PageSize, total)
	return &response, nil
}

// Get retrieves a redemption code by ID.
func (s *redemptionService) Get(id string) (*models.Redemption, error) {
	var code models.Redemption
	if err := s.db.Where("id = ?", id).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRedemptionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &code, nil
}

// Update modifies a redemption code. A status-only update applies just the
// status field; either path records an update log with sanitized snapshots.
func (s *redemptionService) Update(actorID, actorName, ip, id string, params RedemptionUpdateParams) (*models.Redemption, error) {
	code, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	oldSnapshot := redemptionSnapshot(code)

	if params.StatusOnly {
		code.Status = params.Status
	} else {
		if err := validateRedemptionName(params.Name); err != nil {
			return nil, err
		}
		if err := validateExpiredTime(params.ExpiredTime); err != nil {
			return nil, err
		}
		code.Name = params.Name
		code.Quota = params.Quota
		code.ExpiredTime = params.ExpiredTime
		code.Status = params.Status
	}

	if err := s.db.Save(code).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.oplogs.Record(OperationLogParams{
		UserID:     actorID,
		Username:   actorName,
		Module:     oplog.ModuleRedemption,
		Action:     oplog.ActionUpdate,
		TargetID:   code.ID,
		TargetName: code.Name,
		Old:        oldSnapshot,
		New:        redemptionSnapshot(code),
		IP:         ip,
	})
	return code, nil
}

// Delete removes a redemption code and records a delete log.
func (s *redemptionService) Delete(actorID, actorName, ip, id string) error {
	code, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(code).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.oplogs.Record(OperationLogParams{
		UserID:     actorID,
		Username:   actorName,
		Module:     oplog.ModuleRedemption,
		Action:     oplog.ActionDelete,
		TargetID:   code.ID,
		TargetName: code.Name,
		Old:        redemptionSnapshot(code),
		IP:         ip,
	})
	return nil
}

// DeleteInvalid removes used, disabled and expired codes in one statement
// and records the removed row count.
func (s *redemptionService) DeleteInvalid(actorID, actorName, ip string) (int64, error) {
	now := time.Now().Unix()
	result := s.db.Where(
		"status = ? OR status = ? OR (expired_time != 0 AND expired_time < ?)",
		models.RedemptionStatusUsed, models.RedemptionStatusDisabled, now,
	).Delete(&models.Redemption{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}

	s.oplogs.Record(OperationLogParams{
		UserID:      actorID,
		Username:    actorName,
		Module:      oplog.ModuleRedemption,
		Action:      oplog.ActionDelete,
		Description: fmt.Sprintf("清理无效兑换码, 共 %d 条", result.RowsAffected),
		IP:          ip,
	})
	return result.RowsAffected, nil
}
