package quota

import (
	"context"
	"errors"
	"strings"

	"conveycrm/internal/activity"
	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/repository"
	"conveycrm/internal/workflow"

	"go.uber.org/zap"
)

const maxSaveRetries = 3

type Service struct {
	quotas   QuotaRepository
	leads    LeadCounter
	tx       TxManager
	recorder ActivityRecorder
	defaults workflow.QuotaDefaults
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(
	quotas QuotaRepository,
	leads LeadCounter,
	tx TxManager,
	recorder ActivityRecorder,
	defaults workflow.QuotaDefaults,
	clk clock.Clock,
	log *zap.Logger,
) *Service {
	return &Service{
		quotas:   quotas,
		leads:    leads,
		tx:       tx,
		recorder: recorder,
		defaults: defaults,
		clock:    clk,
		log:      log,
	}
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	rows, err := s.quotas.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := s.clock.Now()
	out := make([]View, 0, len(rows))
	for _, q := range rows {
		workflow.RollWindows(&q, now)
		v, err := s.view(ctx, q)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Get reports an agent's quota. An agent never assigned to reads as the
// configured defaults without creating a row.
func (s *Service) Get(ctx context.Context, agent string) (*View, error) {
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return nil, ErrAgentRequired
	}
	now := s.clock.Now()
	q, err := s.quotas.Get(ctx, agent)
	if errors.Is(err, repository.ErrNotFound) {
		fresh := workflow.NewQuota(agent, s.defaults, now)
		q = &fresh
	} else if err != nil {
		return nil, apperr.Internal(err)
	}
	workflow.RollWindows(q, now)

	v, err := s.view(ctx, *q)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &v, nil
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, agent string, req UpdateRequest) (*View, error) {
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return nil, ErrAgentRequired
	}

	var saved domain.AgentQuota
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()
		for i := 0; i < maxSaveRetries; i++ {
			fresh := workflow.NewQuota(agent, s.defaults, now)
			fresh.UpdatedAt = now
			if err := s.quotas.CreateIfMissing(ctx, &fresh); err != nil {
				return err
			}
			q, err := s.quotas.Get(ctx, agent)
			if err != nil {
				return err
			}

			workflow.RollWindows(q, now)
			apply(q, req)
			q.UpdatedAt = now

			err = s.quotas.Save(ctx, q)
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			if err != nil {
				return err
			}
			saved = *q
			return s.recorder.Record(ctx, actor.UserID, activity.ActionQuotaUpdated, domain.TargetQuota, agent,
				map[string]any{
					"dailyQuota":    q.DailyQuota,
					"weeklyQuota":   q.WeeklyQuota,
					"monthlyQuota":  q.MonthlyQuota,
					"maxConcurrent": q.MaxConcurrent,
				})
		}
		return workflow.ErrStaleUpdate
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	v, err := s.view(ctx, saved)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &v, nil
}

func (s *Service) view(ctx context.Context, q domain.AgentQuota) (View, error) {
	current, err := s.leads.CountOpenByAssignee(ctx, q.Agent)
	if err != nil {
		return View{}, err
	}
	return View{
		AgentQuota:   q,
		CurrentLeads: current,
		Status:       workflow.StatusOf(q, current),
	}, nil
}

func apply(q *domain.AgentQuota, req UpdateRequest) {
	if req.DailyQuota != nil {
		q.DailyQuota = *req.DailyQuota
	}
	if req.WeeklyQuota != nil {
		q.WeeklyQuota = *req.WeeklyQuota
	}
	if req.MonthlyQuota != nil {
		q.MonthlyQuota = *req.MonthlyQuota
	}
	if req.MaxConcurrent != nil {
		q.MaxConcurrent = *req.MaxConcurrent
	}
	if req.PriorityLeads != nil {
		q.PriorityLeads = *req.PriorityLeads
	}
}
