package repository

import (
	"context"
	"time"

	"conveycrm/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutcomeRepository struct {
	db *gorm.DB
}

func NewOutcomeRepository(db *gorm.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

type outcomeModel struct {
	ID            string                      `gorm:"column:id;primaryKey;size:64"`
	Code          string                      `gorm:"column:code;uniqueIndex;not null"`
	Name          string                      `gorm:"column:name;not null"`
	Description   string                      `gorm:"column:description"`
	Category      string                      `gorm:"column:category;not null"`
	NextAction    string                      `gorm:"column:next_action;not null"`
	NextActions   datatypes.JSONSlice[string] `gorm:"column:next_actions"`
	AutoSchedule  bool                        `gorm:"column:auto_schedule"`
	ScheduleDelay int                         `gorm:"column:schedule_delay"`
	MaxAttempts   int                         `gorm:"column:max_attempts"`
	LeadStatus    string                      `gorm:"column:lead_status"`
	LeadStage     string                      `gorm:"column:lead_stage"`
	IsActive      bool                        `gorm:"column:is_active;index"`
	CreatedAt     time.Time                   `gorm:"column:created_at"`
	UpdatedAt     time.Time                   `gorm:"column:updated_at"`
}

func (outcomeModel) TableName() string { return "outcome_codes" }

func toDomainOutcome(m outcomeModel) domain.OutcomeCode {
	actions := make([]string, len(m.NextActions))
	copy(actions, m.NextActions)
	return domain.OutcomeCode{
		ID:            m.ID,
		Code:          m.Code,
		Name:          m.Name,
		Description:   m.Description,
		Category:      domain.OutcomeCategory(m.Category),
		NextAction:    domain.ActionKind(m.NextAction),
		NextActions:   actions,
		AutoSchedule:  m.AutoSchedule,
		ScheduleDelay: m.ScheduleDelay,
		MaxAttempts:   m.MaxAttempts,
		LeadStatus:    domain.LeadStatus(m.LeadStatus),
		LeadStage:     domain.LeadStage(m.LeadStage),
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toOutcomeModel(o *domain.OutcomeCode) outcomeModel {
	actions := datatypes.JSONSlice[string]{}
	actions = append(actions, o.NextActions...)
	return outcomeModel{
		ID:            o.ID,
		Code:          o.Code,
		Name:          o.Name,
		Description:   o.Description,
		Category:      string(o.Category),
		NextAction:    string(o.NextAction),
		NextActions:   actions,
		AutoSchedule:  o.AutoSchedule,
		ScheduleDelay: o.ScheduleDelay,
		MaxAttempts:   o.MaxAttempts,
		LeadStatus:    string(o.LeadStatus),
		LeadStage:     string(o.LeadStage),
		IsActive:      o.IsActive,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func (r *OutcomeRepository) Create(ctx context.Context, o *domain.OutcomeCode) error {
	m := toOutcomeModel(o)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translate(err)
	}
	*o = toDomainOutcome(m)
	return nil
}

// Upsert inserts o or overwrites the row with the same id.
func (r *OutcomeRepository) Upsert(ctx context.Context, o *domain.OutcomeCode) error {
	m := toOutcomeModel(o)
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&m).Error
	return translate(err)
}

func (r *OutcomeRepository) GetByID(ctx context.Context, id string) (*domain.OutcomeCode, error) {
	var m outcomeModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	o := toDomainOutcome(m)
	return &o, nil
}

func (r *OutcomeRepository) List(ctx context.Context, activeOnly bool) ([]domain.OutcomeCode, error) {
	q := conn(ctx, r.db).Model(&outcomeModel{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []outcomeModel
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.OutcomeCode, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainOutcome(m))
	}
	return out, nil
}

func (r *OutcomeRepository) Update(ctx context.Context, o *domain.OutcomeCode) error {
	m := toOutcomeModel(o)
	res := conn(ctx, r.db).Model(&outcomeModel{}).Where("id = ?", o.ID).Updates(map[string]any{
		"code":           m.Code,
		"name":           m.Name,
		"description":    m.Description,
		"category":       m.Category,
		"next_action":    m.NextAction,
		"next_actions":   m.NextActions,
		"auto_schedule":  m.AutoSchedule,
		"schedule_delay": m.ScheduleDelay,
		"max_attempts":   m.MaxAttempts,
		"lead_status":    m.LeadStatus,
		"lead_stage":     m.LeadStage,
		"is_active":      m.IsActive,
		"updated_at":     m.UpdatedAt,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
