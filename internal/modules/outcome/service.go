package outcome

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

type Service struct {
	outcomes OutcomeRepository
	recorder ActivityRecorder
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(outcomes OutcomeRepository, recorder ActivityRecorder, clk clock.Clock, log *zap.Logger) *Service {
	return &Service{outcomes: outcomes, recorder: recorder, clock: clk, log: log}
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.OutcomeCode, error) {
	rows, err := s.outcomes.List(ctx, f.ActiveOnly)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if f.Category == "" {
		return rows, nil
	}
	out := make([]domain.OutcomeCode, 0, len(rows))
	for _, o := range rows {
		if o.Category == f.Category {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.OutcomeCode, error) {
	o, err := s.outcomes.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOutcomeNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return o, nil
}

// NextAction never fails on an unknown id; it answers "No action defined".
func (s *Service) NextAction(ctx context.Context, id string) (workflow.NextAction, error) {
	o, err := s.outcomes.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return workflow.NextActionFor(nil), nil
	}
	if err != nil {
		return workflow.NextAction{}, apperr.Internal(err)
	}
	return workflow.NextActionFor(o), nil
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, req SaveRequest) (*domain.OutcomeCode, error) {
	o := req.toDomain()
	o.ID = strings.TrimSpace(o.ID)
	if err := workflow.ValidateOutcome(o); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	err := s.outcomes.Create(ctx, &o)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrOutcomeExists
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.audit(ctx, actor, o.ID, "create")
	return &o, nil
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, req SaveRequest) (*domain.OutcomeCode, error) {
	if req.ID != "" && req.ID != id {
		return nil, ErrIDMismatch
	}
	req.ID = id
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o := req.toDomain()
	if req.IsActive == nil {
		o.IsActive = current.IsActive
	}
	if err := workflow.ValidateOutcome(o); err != nil {
		return nil, err
	}
	o.CreatedAt = current.CreatedAt
	o.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, &o); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, o.ID, "update")
	return &o, nil
}

func (s *Service) SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (*domain.OutcomeCode, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o.IsActive = active
	o.UpdatedAt = s.clock.Now()
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	action := "deactivate"
	if active {
		action = "activate"
	}
	s.audit(ctx, actor, o.ID, action)
	return o, nil
}

// Bootstrap inserts the configured outcome codes that are not stored yet.
// Codes edited through the API are left alone.
func (s *Service) Bootstrap(ctx context.Context, codes []domain.OutcomeCode) (int, error) {
	created := 0
	now := s.clock.Now()
	for _, o := range codes {
		_, err := s.outcomes.GetByID(ctx, o.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, err
		}
		o.CreatedAt = now
		o.UpdatedAt = now
		if err := s.outcomes.Create(ctx, &o); err != nil {
			return created, err
		}
		created++
	}
	if created > 0 {
		s.log.Info("outcome codes seeded", zap.Int("created", created))
	}
	return created, nil
}

func (s *Service) save(ctx context.Context, o *domain.OutcomeCode) error {
	err := s.outcomes.Update(ctx, o)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrOutcomeNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrOutcomeExists
	case err != nil:
		return apperr.Internal(err)
	}
	return nil
}

// audit is best effort; a failed entry must not undo a saved definition.
func (s *Service) audit(ctx context.Context, actor domain.Actor, id, op string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, actor.UserID, activity.ActionOutcomeSaved, domain.TargetOutcome, id,
		map[string]any{"op": op}); err != nil {
		s.log.Warn("failed to record outcome change", zap.String("outcome_id", id), zap.Error(err))
	}
}
