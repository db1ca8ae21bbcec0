package repository

import (
	"context"
	"time"

	"conveycrm/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type activityModel struct {
	ID         string            `gorm:"column:id;primaryKey;size:36"`
	UserID     string            `gorm:"column:user_id;index"`
	Action     string            `gorm:"column:action;index"`
	TargetType string            `gorm:"column:target_type;index:idx_activity_target"`
	TargetID   string            `gorm:"column:target_id;index:idx_activity_target"`
	Timestamp  time.Time         `gorm:"column:timestamp;index"`
	Details    datatypes.JSONMap `gorm:"column:details"`
}

func (activityModel) TableName() string { return "activity_logs" }

func toDomainActivity(m activityModel) domain.ActivityLog {
	return domain.ActivityLog{
		ID:         m.ID,
		UserID:     m.UserID,
		Action:     m.Action,
		TargetType: domain.TargetType(m.TargetType),
		TargetID:   m.TargetID,
		Timestamp:  m.Timestamp,
		Details:    map[string]any(m.Details),
	}
}

func (r *ActivityRepository) Create(ctx context.Context, a *domain.ActivityLog) error {
	m := activityModel{
		ID:         a.ID,
		UserID:     a.UserID,
		Action:     a.Action,
		TargetType: string(a.TargetType),
		TargetID:   a.TargetID,
		Timestamp:  a.Timestamp,
		Details:    datatypes.JSONMap(a.Details),
	}
	return conn(ctx, r.db).Create(&m).Error
}

func (r *ActivityRepository) ListByTarget(ctx context.Context, targetType domain.TargetType, targetID string) ([]domain.ActivityLog, error) {
	var rows []activityModel
	err := conn(ctx, r.db).
		Where("target_type = ? AND target_id = ?", string(targetType), targetID).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainActivities(rows), nil
}

func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	var rows []activityModel
	err := conn(ctx, r.db).Order("timestamp DESC, id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainActivities(rows), nil
}

// ListByAction returns entries for one action in time order, optionally bounded.
func (r *ActivityRepository) ListByAction(ctx context.Context, action string, from, to *time.Time) ([]domain.ActivityLog, error) {
	q := conn(ctx, r.db).Where("action = ?", action)
	if from != nil {
		q = q.Where("timestamp >= ?", *from)
	}
	if to != nil {
		q = q.Where("timestamp <= ?", *to)
	}
	var rows []activityModel
	if err := q.Order("timestamp ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainActivities(rows), nil
}

func toDomainActivities(rows []activityModel) []domain.ActivityLog {
	out := make([]domain.ActivityLog, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainActivity(m))
	}
	return out
}
