package services

import (
	"context"

	"relaypanel/internal/models"
	"relaypanel/internal/oplog"
	"relaypanel/internal/pagination"
)

// OperationLogParams carries everything needed to record one admin mutation.
// Old and New are entity snapshots (maps or structs) marshaled to JSON at
// record time; either may be nil.
type OperationLogParams struct {
	UserID      string
	Username    string
	Module      oplog.Module
	Action      oplog.Action
	TargetID    string
	TargetName  string
	Old         any
	New         any
	Description string
	IP          string
}

// OperationLogFilter holds optional filter parameters for listing operation logs.
type OperationLogFilter struct {
	Module         string
	Action         string
	Username       string
	TargetID       string
	Keyword        string
	StartTimestamp int64
	EndTimestamp   int64
}

// OperationLogView is a log row enriched with its display summary.
type OperationLogView struct {
	models.OperationLog
	Summary string `json:"summary"`
}

// OperationLogServicer defines the contract for operation-log business logic.
type OperationLogServicer interface {
	Record(params OperationLogParams)
	List(filter OperationLogFilter, page pagination.PageRequest) (*pagination.PageResponse[OperationLogView], error)
	DeleteBefore(ctx context.Context, targetTimestamp int64) (int64, error)
}

// GroupEntry describes one usable group for the calling user.
type GroupEntry struct {
	Name  string  `json:"name"`
	Desc  string  `json:"desc"`
	Ratio float64 `json:"ratio"`
	Order int     `json:"order"`
}

// OptionServicer defines the contract for runtime settings backed by the
// options table.
type OptionServicer interface {
	InitOptions() error
	AllOptions() ([]models.Option, error)
	UpdateOption(actorID, actorName, ip, key, value string) error
	GroupNames() []string
	UserGroups() []GroupEntry
	UsableGroups() map[string]string
	AutoGroups() []string
}

// RedemptionCreateParams holds input for batch redemption code creation.
type RedemptionCreateParams struct {
	Name        string
	Quota       int64
	Count       int
	ExpiredTime int64
}

// RedemptionUpdateParams holds input for updating a redemption code. When
// StatusOnly is set only the status field is applied.
type RedemptionUpdateParams struct {
	Name        string
	Quota       int64
	ExpiredTime int64
	Status      int
	StatusOnly  bool
}

// RedemptionServicer defines the contract for redemption code management.
type RedemptionServicer interface {
	Create(actorID, actorName, ip string, params RedemptionCreateParams) ([]string, error)
	List(keyword string, page pagination.PageRequest) (*pagination.PageResponse[models.Redemption], error)
	Get(id string) (*models.Redemption, error)
	Update(actorID, actorName, ip, id string, params RedemptionUpdateParams) (*models.Redemption, error)
	Delete(actorID, actorName, ip, id string) error
	DeleteInvalid(actorID, actorName, ip string) (int64, error)
}

// ChannelFilter holds optional filter parameters for listing channels.
type ChannelFilter struct {
	Status  int
	Group   string
	Keyword string
}

// ChannelUpdateParams holds the mutable channel fields.
type ChannelUpdateParams struct {
	Name     string
	Group    string
	Models   string
	Priority int64
	Weight   uint
	BaseURL  string
}

// ChannelServicer defines the contract for channel management.
type ChannelServicer interface {
	List(filter ChannelFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Channel], error)
	Get(id string) (*models.Channel, error)
	Update(actorID, actorName, ip, id string, params ChannelUpdateParams) (*models.Channel, error)
	SetStatus(actorID, actorName, ip, id string, status int) error
	ListAutoEnableCandidates() ([]models.Channel, error)
	GroupsForModel(model string) ([]string, error)
	GetSetting(channelID string) (*models.ChannelSetting, error)
	GetSettings(channelIDs []string) (map[string]models.ChannelSetting, error)
	SetSetting(actorID, actorName, ip string, setting models.ChannelSetting) error
	SetSettings(actorID, actorName, ip string, settings []models.ChannelSetting) error
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, password, displayName string, role int) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
	UpdateUser(actorID, actorName, ip, id string, updates map[string]any) (*models.User, error)
}
