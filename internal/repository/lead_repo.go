package repository

import (
	"context"
	"time"

	"conveycrm/internal/domain"

	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

type leadModel struct {
	ID              string     `gorm:"column:id;primaryKey;size:36"`
	Name            string     `gorm:"column:name;not null"`
	Email           string     `gorm:"column:email;index"`
	Phone           string     `gorm:"column:phone"`
	Source          string     `gorm:"column:source;index"`
	Status          string     `gorm:"column:status;index"`
	Stage           string     `gorm:"column:stage;index"`
	Priority        string     `gorm:"column:priority"`
	AssignedTo      *string    `gorm:"column:assigned_to;index"`
	AssignedAt      *time.Time `gorm:"column:assigned_at"`
	OutcomeCode     *string    `gorm:"column:outcome_code"`
	Notes           string     `gorm:"column:notes"`
	QuoteID         *string    `gorm:"column:quote_id"`
	ContactAttempts int        `gorm:"column:contact_attempts;not null;default:0"`
	MaxAttempts     int        `gorm:"column:max_attempts;not null"`
	Revision        int        `gorm:"column:revision;not null;default:1"`
	CreatedAt       time.Time  `gorm:"column:created_at;index"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
	LastActionAt    *time.Time `gorm:"column:last_action_at"`
}

func (leadModel) TableName() string { return "leads" }

func toDomainLead(m leadModel) domain.Lead {
	return domain.Lead{
		ID:              m.ID,
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		Source:          domain.LeadSource(m.Source),
		Status:          domain.LeadStatus(m.Status),
		Stage:           domain.LeadStage(m.Stage),
		Priority:        domain.Priority(m.Priority),
		AssignedTo:      deref(m.AssignedTo),
		AssignedAt:      m.AssignedAt,
		OutcomeCode:     deref(m.OutcomeCode),
		Notes:           m.Notes,
		QuoteID:         deref(m.QuoteID),
		ContactAttempts: m.ContactAttempts,
		MaxAttempts:     m.MaxAttempts,
		Revision:        m.Revision,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		LastActionAt:    m.LastActionAt,
	}
}

func toLeadModel(l *domain.Lead) leadModel {
	return leadModel{
		ID:              l.ID,
		Name:            l.Name,
		Email:           normalizeEmail(l.Email),
		Phone:           l.Phone,
		Source:          string(l.Source),
		Status:          string(l.Status),
		Stage:           string(l.Stage),
		Priority:        string(l.Priority),
		AssignedTo:      ptr(l.AssignedTo),
		AssignedAt:      l.AssignedAt,
		OutcomeCode:     ptr(l.OutcomeCode),
		Notes:           l.Notes,
		QuoteID:         ptr(l.QuoteID),
		ContactAttempts: l.ContactAttempts,
		MaxAttempts:     l.MaxAttempts,
		Revision:        l.Revision,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
		LastActionAt:    l.LastActionAt,
	}
}

// LeadQuery narrows the rows fetched before in-memory filtering.
type LeadQuery struct {
	Status     domain.LeadStatus
	Source     domain.LeadSource
	Stage      domain.LeadStage
	Priority   domain.Priority
	AssignedTo string
	Unassigned bool
}

func (r *LeadRepository) Create(ctx context.Context, l *domain.Lead) error {
	m := toLeadModel(l)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translate(err)
	}
	*l = toDomainLead(m)
	return nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var m leadModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	l := toDomainLead(m)
	return &l, nil
}

// List returns leads in creation order; ties break on id so paging is stable.
func (r *LeadRepository) List(ctx context.Context, q LeadQuery) ([]domain.Lead, error) {
	tx := conn(ctx, r.db).Model(&leadModel{})
	if q.Status != "" {
		tx = tx.Where("status = ?", string(q.Status))
	}
	if q.Source != "" {
		tx = tx.Where("source = ?", string(q.Source))
	}
	if q.Stage != "" {
		tx = tx.Where("stage = ?", string(q.Stage))
	}
	if q.Priority != "" {
		tx = tx.Where("priority = ?", string(q.Priority))
	}
	if q.Unassigned {
		tx = tx.Where("assigned_to IS NULL OR assigned_to = ''")
	} else if q.AssignedTo != "" {
		tx = tx.Where("assigned_to = ?", q.AssignedTo)
	}

	var rows []leadModel
	if err := tx.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Lead, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainLead(m))
	}
	return out, nil
}

// Update writes l only if the stored revision still equals l.Revision, then bumps it.
func (r *LeadRepository) Update(ctx context.Context, l *domain.Lead) error {
	m := toLeadModel(l)
	res := conn(ctx, r.db).Model(&leadModel{}).
		Where("id = ? AND revision = ?", l.ID, l.Revision).
		Updates(map[string]any{
			"name":           m.Name,
			"email":          m.Email,
			"phone":          m.Phone,
			"source":         m.Source,
			"status":         m.Status,
			"stage":          m.Stage,
			"priority":       m.Priority,
			"assigned_to":    m.AssignedTo,
			"assigned_at":    m.AssignedAt,
			"outcome_code":   m.OutcomeCode,
			"notes":          m.Notes,
			"quote_id":       m.QuoteID,
			"max_attempts":   m.MaxAttempts,
			"last_action_at": m.LastActionAt,
			"updated_at":     m.UpdatedAt,
			"revision":       gorm.Expr("revision + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, l.ID)
	}
	l.Revision++
	return nil
}

// IncrementAttempts adds one logged attempt in a single conditional statement,
// so concurrent callers can never push the counter past max_attempts.
func (r *LeadRepository) IncrementAttempts(ctx context.Context, id string, now time.Time) (*domain.Lead, error) {
	res := conn(ctx, r.db).Model(&leadModel{}).
		Where("id = ? AND contact_attempts < max_attempts", id).
		Updates(map[string]any{
			"contact_attempts": gorm.Expr("contact_attempts + 1"),
			"revision":         gorm.Expr("revision + 1"),
			"last_action_at":   now,
			"updated_at":       now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrLimitReached
	}
	return r.GetByID(ctx, id)
}

func (r *LeadRepository) CountOpenByAssignee(ctx context.Context, agent string) (int, error) {
	var count int64
	err := conn(ctx, r.db).Model(&leadModel{}).
		Where("assigned_to = ?", agent).
		Where("status NOT IN ?", []string{
			string(domain.LeadSold), string(domain.LeadClosed), string(domain.LeadArchived),
		}).
		Count(&count).Error
	return int(count), err
}

func (r *LeadRepository) missOrConflict(ctx context.Context, id string) error {
	var count int64
	if err := conn(ctx, r.db).Model(&leadModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
