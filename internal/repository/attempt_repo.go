package repository

import (
	"context"
	"time"

	"conveycrm/internal/domain"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

type attemptModel struct {
	ID            string     `gorm:"column:id;primaryKey;size:36"`
	LeadID        string     `gorm:"column:lead_id;index;not null"`
	AttemptType   string     `gorm:"column:attempt_type;not null"`
	Status        string     `gorm:"column:status;index;not null"`
	AttemptNumber int        `gorm:"column:attempt_number"`
	ScheduledAt   time.Time  `gorm:"column:scheduled_at;index"`
	CompletedAt   *time.Time `gorm:"column:completed_at"`
	Outcome       string     `gorm:"column:outcome"`
	Notes         string     `gorm:"column:notes"`
	UserID        string     `gorm:"column:user_id"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
}

func (attemptModel) TableName() string { return "contact_attempts" }

func toDomainAttempt(m attemptModel) domain.ContactAttempt {
	return domain.ContactAttempt{
		ID:            m.ID,
		LeadID:        m.LeadID,
		AttemptType:   domain.AttemptType(m.AttemptType),
		Status:        domain.AttemptStatus(m.Status),
		AttemptNumber: m.AttemptNumber,
		ScheduledAt:   m.ScheduledAt,
		CompletedAt:   m.CompletedAt,
		Outcome:       m.Outcome,
		Notes:         m.Notes,
		UserID:        m.UserID,
		CreatedAt:     m.CreatedAt,
	}
}

func toAttemptModel(a *domain.ContactAttempt) attemptModel {
	return attemptModel{
		ID:            a.ID,
		LeadID:        a.LeadID,
		AttemptType:   string(a.AttemptType),
		Status:        string(a.Status),
		AttemptNumber: a.AttemptNumber,
		ScheduledAt:   a.ScheduledAt,
		CompletedAt:   a.CompletedAt,
		Outcome:       a.Outcome,
		Notes:         a.Notes,
		UserID:        a.UserID,
		CreatedAt:     a.CreatedAt,
	}
}

type AttemptQuery struct {
	LeadID string
	Status domain.AttemptStatus
	From   *time.Time
	To     *time.Time
}

func (r *AttemptRepository) Create(ctx context.Context, a *domain.ContactAttempt) error {
	m := toAttemptModel(a)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translate(err)
	}
	*a = toDomainAttempt(m)
	return nil
}

func (r *AttemptRepository) GetByID(ctx context.Context, id string) (*domain.ContactAttempt, error) {
	var m attemptModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	a := toDomainAttempt(m)
	return &a, nil
}

func (r *AttemptRepository) List(ctx context.Context, q AttemptQuery) ([]domain.ContactAttempt, error) {
	tx := conn(ctx, r.db).Model(&attemptModel{})
	if q.LeadID != "" {
		tx = tx.Where("lead_id = ?", q.LeadID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", string(q.Status))
	}
	if q.From != nil {
		tx = tx.Where("scheduled_at >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("scheduled_at <= ?", *q.To)
	}

	var rows []attemptModel
	if err := tx.Order("scheduled_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ContactAttempt, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainAttempt(m))
	}
	return out, nil
}

// Transition moves an attempt out of status from. It fails with ErrConflict if
// another request changed the status first.
func (r *AttemptRepository) Transition(ctx context.Context, a *domain.ContactAttempt, from domain.AttemptStatus) error {
	res := conn(ctx, r.db).Model(&attemptModel{}).
		Where("id = ? AND status = ?", a.ID, string(from)).
		Updates(map[string]any{
			"status":         string(a.Status),
			"attempt_number": a.AttemptNumber,
			"completed_at":   a.CompletedAt,
			"outcome":        a.Outcome,
			"notes":          a.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, a.ID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// CancelScheduled cancels every still-scheduled attempt of a lead.
func (r *AttemptRepository) CancelScheduled(ctx context.Context, leadID string) (int64, error) {
	res := conn(ctx, r.db).Model(&attemptModel{}).
		Where("lead_id = ? AND status = ?", leadID, string(domain.AttemptScheduled)).
		Update("status", string(domain.AttemptCancelled))
	return res.RowsAffected, res.Error
}
