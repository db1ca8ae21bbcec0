package repository

import (
	"context"
	"time"

	"conveycrm/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

type quotaModel struct {
	Agent           string    `gorm:"column:agent;primaryKey;size:128"`
	DailyQuota      int       `gorm:"column:daily_quota"`
	WeeklyQuota     int       `gorm:"column:weekly_quota"`
	MonthlyQuota    int       `gorm:"column:monthly_quota"`
	MaxConcurrent   int       `gorm:"column:max_concurrent"`
	PriorityLeads   bool      `gorm:"column:priority_leads"`
	TodayAssigned   int       `gorm:"column:today_assigned"`
	WeeklyAssigned  int       `gorm:"column:weekly_assigned"`
	MonthlyAssigned int       `gorm:"column:monthly_assigned"`
	DayStart        time.Time `gorm:"column:day_start"`
	WeekStart       time.Time `gorm:"column:week_start"`
	MonthStart      time.Time `gorm:"column:month_start"`
	Revision        int       `gorm:"column:revision;not null;default:1"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (quotaModel) TableName() string { return "agent_quotas" }

func toDomainQuota(m quotaModel) domain.AgentQuota {
	return domain.AgentQuota(m)
}

func toQuotaModel(q *domain.AgentQuota) quotaModel {
	return quotaModel(*q)
}

func (r *QuotaRepository) Get(ctx context.Context, agent string) (*domain.AgentQuota, error) {
	var m quotaModel
	if err := conn(ctx, r.db).Where("agent = ?", agent).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	q := toDomainQuota(m)
	return &q, nil
}

func (r *QuotaRepository) Create(ctx context.Context, q *domain.AgentQuota) error {
	if q.Revision == 0 {
		q.Revision = 1
	}
	m := toQuotaModel(q)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translate(err)
	}
	return nil
}

// CreateIfMissing inserts q unless a row for the agent already exists.
// It never fails on a concurrent first insert, so it is safe inside a transaction.
func (r *QuotaRepository) CreateIfMissing(ctx context.Context, q *domain.AgentQuota) error {
	if q.Revision == 0 {
		q.Revision = 1
	}
	m := toQuotaModel(q)
	return conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
}

func (r *QuotaRepository) List(ctx context.Context) ([]domain.AgentQuota, error) {
	var rows []quotaModel
	if err := conn(ctx, r.db).Order("agent ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AgentQuota, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainQuota(m))
	}
	return out, nil
}

// Save persists q if nobody else wrote the row since q was read.
func (r *QuotaRepository) Save(ctx context.Context, q *domain.AgentQuota) error {
	m := toQuotaModel(q)
	res := conn(ctx, r.db).Model(&quotaModel{}).
		Where("agent = ? AND revision = ?", q.Agent, q.Revision).
		Updates(map[string]any{
			"daily_quota":      m.DailyQuota,
			"weekly_quota":     m.WeeklyQuota,
			"monthly_quota":    m.MonthlyQuota,
			"max_concurrent":   m.MaxConcurrent,
			"priority_leads":   m.PriorityLeads,
			"today_assigned":   m.TodayAssigned,
			"weekly_assigned":  m.WeeklyAssigned,
			"monthly_assigned": m.MonthlyAssigned,
			"day_start":        m.DayStart,
			"week_start":       m.WeekStart,
			"month_start":      m.MonthStart,
			"updated_at":       m.UpdatedAt,
			"revision":         gorm.Expr("revision + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, q.Agent); err != nil {
			return err
		}
		return ErrConflict
	}
	q.Revision++
	return nil
}
