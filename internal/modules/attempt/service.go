package attempt

import (
	"context"
	"errors"

	"conveycrm/internal/activity"
	"conveycrm/internal/domain"
	"conveycrm/internal/metrics"
	"conveycrm/internal/modules/realtime"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/pkg/pagination"
	"conveycrm/internal/repository"
	"conveycrm/internal/workflow"

	"go.uber.org/zap"
)

type Service struct {
	attempts AttemptRepository
	leads    LeadRepository
	tx       TxManager
	recorder ActivityRecorder
	events   EventPublisher
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(
	attempts AttemptRepository,
	leads LeadRepository,
	tx TxManager,
	recorder ActivityRecorder,
	events EventPublisher,
	clk clock.Clock,
	log *zap.Logger,
) *Service {
	if events == nil {
		events = realtime.Nop{}
	}
	return &Service{
		attempts: attempts,
		leads:    leads,
		tx:       tx,
		recorder: recorder,
		events:   events,
		clock:    clk,
		log:      log,
	}
}

func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	if p.Status != "" && !workflow.ValidAttemptStatus(p.Status) {
		return nil, ErrUnknownStatus
	}
	rows, err := s.attempts.List(ctx, repository.AttemptQuery{
		LeadID: p.LeadID,
		Status: p.Status,
		From:   p.From,
		To:     p.To,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	page, meta := pagination.Slice(rows, p.Page)
	return &ListResult{Attempts: page, Pagination: meta}, nil
}

// Transition moves an attempt along its status graph. Moving into Completed
// or Failed consumes one of the lead's attempts and is refused at the ceiling;
// the attempt then takes the lead's new attempt count as its number.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, id string, req StatusRequest) (*TransitionResult, error) {
	to := domain.AttemptStatus(req.Status)
	if !workflow.ValidAttemptStatus(to) {
		return nil, ErrUnknownStatus
	}

	var res TransitionResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.attempts.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAttemptNotFound
		}
		if err != nil {
			return err
		}
		from := a.Status
		if err := workflow.CanTransitionAttempt(from, to); err != nil {
			return err
		}

		now := s.clock.Now()
		if to.Counts() {
			lead, err := s.leads.GetByID(ctx, a.LeadID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrLeadNotFound
			}
			if err != nil {
				return err
			}
			if err := workflow.CanLogAttempt(*lead); err != nil {
				return err
			}
			updated, err := s.leads.IncrementAttempts(ctx, lead.ID, now)
			if errors.Is(err, repository.ErrLimitReached) {
				return workflow.ErrAttemptLimitExceeded
			}
			if err != nil {
				return err
			}
			count := updated.ContactAttempts
			res.ContactAttempts = &count
			// numbered by the counter it consumed, not the one it was scheduled against
			a.AttemptNumber = count
		}

		a.Status = to
		if to != domain.AttemptInProgress {
			a.CompletedAt = &now
		}
		if req.Outcome != nil {
			a.Outcome = *req.Outcome
		}
		if req.Notes != nil {
			a.Notes = *req.Notes
		}
		err = s.attempts.Transition(ctx, a, from)
		if errors.Is(err, repository.ErrConflict) {
			return workflow.ErrStaleUpdate
		}
		if err != nil {
			return err
		}
		res.Attempt = *a
		return s.recorder.Record(ctx, actor.UserID, activity.ActionAttemptStatus, domain.TargetLead, a.LeadID,
			map[string]any{"attemptId": a.ID, "from": string(from), "to": string(to)})
	})
	if err != nil {
		if errors.Is(err, workflow.ErrAttemptLimitExceeded) {
			metrics.RecordAttemptLimitRejection()
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	if to.Counts() {
		metrics.RecordAttemptLogged(string(res.Attempt.AttemptType))
	}
	s.events.Publish(realtime.EventAttemptStatus, res.Attempt)
	return &res, nil
}
