package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conveycrm/internal/activity"
	"conveycrm/internal/domain"
	"conveycrm/internal/metrics"
	"conveycrm/internal/modules/realtime"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/pkg/pagination"
	"conveycrm/internal/repository"
	"conveycrm/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxQuotaRetries = 3

type Service struct {
	leads    LeadRepository
	attempts AttemptRepository
	quotas   QuotaRepository
	outcomes OutcomeRepository
	history  ActivityReader
	tx       TxManager
	recorder ActivityRecorder
	events   EventPublisher
	rules    Rules
	clock    clock.Clock
	log      *zap.Logger
}

type Deps struct {
	Leads    LeadRepository
	Attempts AttemptRepository
	Quotas   QuotaRepository
	Outcomes OutcomeRepository
	History  ActivityReader
	Tx       TxManager
	Recorder ActivityRecorder
	Events   EventPublisher
}

func NewService(d Deps, rules Rules, clk clock.Clock, log *zap.Logger) *Service {
	if rules.DefaultMaxAttempts <= 0 {
		rules.DefaultMaxAttempts = 5
	}
	events := d.Events
	if events == nil {
		events = realtime.Nop{}
	}
	return &Service{
		leads:    d.Leads,
		attempts: d.Attempts,
		quotas:   d.Quotas,
		outcomes: d.Outcomes,
		history:  d.History,
		tx:       d.Tx,
		recorder: d.Recorder,
		events:   events,
		rules:    rules,
		clock:    clk,
		log:      log,
	}
}

// List filters on the derived fields, so the store only narrows by plain columns.
func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	f := p.Filter
	q := repository.LeadQuery{
		Status:   f.Status,
		Source:   f.Source,
		Stage:    f.Stage,
		Priority: f.Priority,
	}
	if f.AssignedTo == workflow.Unassigned {
		q.Unassigned = true
	} else {
		q.AssignedTo = f.AssignedTo
	}

	rows, err := s.leads.List(ctx, q)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	views := workflow.FilterLeads(s.rules.Policy.Views(rows, s.clock.Now()), f)
	page, meta := pagination.Slice(views, p.Page)
	return &ListResult{Leads: page, Pagination: meta}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*workflow.LeadView, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*l)
	return &v, nil
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, req CreateLeadRequest) (*workflow.LeadView, error) {
	source, err := parseSource(req.Source, domain.SourceDirect)
	if err != nil {
		return nil, err
	}
	stage, err := parseStage(req.Stage, domain.StageNew)
	if err != nil {
		return nil, err
	}
	priority, err := parsePriority(req.Priority, domain.PriorityMedium)
	if err != nil {
		return nil, err
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.rules.DefaultMaxAttempts
	}

	now := s.clock.Now()
	l := &domain.Lead{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Source:      source,
		Status:      domain.LeadNew,
		Stage:       stage,
		Priority:    priority,
		Notes:       req.Notes,
		MaxAttempts: maxAttempts,
		Revision:    1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.leads.Create(ctx, l); err != nil {
			return err
		}
		return s.recorder.Record(ctx, actor.UserID, activity.ActionLeadCreated, domain.TargetLead, l.ID,
			map[string]any{"source": string(l.Source)})
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	metrics.RecordLeadCreated(string(l.Source))
	v := s.view(*l)
	s.events.Publish(realtime.EventLeadCreated, v)
	return &v, nil
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, req UpdateLeadRequest) (*workflow.LeadView, error) {
	var updated *domain.Lead
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if l.Revision != req.Revision {
			return workflow.ErrStaleUpdate
		}
		changed, err := applyUpdate(l, req)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		l.UpdatedAt = now
		l.LastActionAt = &now
		if err := s.save(ctx, l); err != nil {
			return err
		}
		updated = l
		return s.recorder.Record(ctx, actor.UserID, activity.ActionLeadUpdated, domain.TargetLead, l.ID,
			map[string]any{"fields": changed})
	})
	if err != nil {
		return nil, wrap(err)
	}

	v := s.view(*updated)
	s.events.Publish(realtime.EventLeadUpdated, v)
	return &v, nil
}

// Assign hands the lead to an agent. The agent's quota row is reserved in the
// same transaction, so a rejected assignment leaves no trace.
func (s *Service) Assign(ctx context.Context, actor domain.Actor, canOverride bool, id string, req AssignRequest) (*workflow.LeadView, error) {
	agent := strings.TrimSpace(req.AssignedTo)
	if agent == "" {
		return nil, ErrAssigneeRequired
	}
	if req.Override && !canOverride {
		return nil, ErrOverrideDenied
	}

	var assigned *domain.Lead
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if req.Revision > 0 && l.Revision != req.Revision {
			return workflow.ErrStaleUpdate
		}

		now := s.clock.Now()
		if l.AssignedTo != agent {
			if err := s.reserveQuota(ctx, agent, req.Override); err != nil {
				return err
			}
			l.AssignedAt = &now
		}
		previous := l.AssignedTo
		l.AssignedTo = agent
		l.Status = domain.LeadAssigned
		l.UpdatedAt = now
		l.LastActionAt = &now
		if err := s.save(ctx, l); err != nil {
			return err
		}
		assigned = l
		return s.recorder.Record(ctx, actor.UserID, activity.ActionLeadAssigned, domain.TargetLead, l.ID,
			map[string]any{"assignedTo": agent, "previous": previous, "override": req.Override})
	})
	if err != nil {
		if errors.Is(err, workflow.ErrQuotaExceeded) {
			metrics.RecordQuotaRejection()
		}
		return nil, wrap(err)
	}

	metrics.RecordAssignment(req.Override)
	v := s.view(*assigned)
	s.events.Publish(realtime.EventLeadAssigned, v)
	return &v, nil
}

func (s *Service) reserveQuota(ctx context.Context, agent string, override bool) error {
	now := s.clock.Now()
	for i := 0; i < maxQuotaRetries; i++ {
		q, err := s.quotas.Get(ctx, agent)
		if errors.Is(err, repository.ErrNotFound) {
			fresh := workflow.NewQuota(agent, s.rules.QuotaDefaults, now)
			fresh.UpdatedAt = now
			if err := s.quotas.CreateIfMissing(ctx, &fresh); err != nil {
				return err
			}
			q, err = s.quotas.Get(ctx, agent)
		}
		if err != nil {
			return err
		}

		workflow.RollWindows(q, now)
		if !override {
			current, err := s.leads.CountOpenByAssignee(ctx, agent)
			if err != nil {
				return err
			}
			if err := workflow.CheckAssignment(*q, current); err != nil {
				return err
			}
		}
		workflow.RecordAssignment(q)
		q.UpdatedAt = now

		err = s.quotas.Save(ctx, q)
		if errors.Is(err, repository.ErrConflict) {
			s.log.Debug("quota row changed, retrying", zap.String("agent", agent), zap.Int("attempt", i+1))
			continue
		}
		return err
	}
	return workflow.ErrStaleUpdate
}

// LogOutcome records what happened with the lead and books the follow-up the
// outcome asks for. When the follow-up would exceed the attempt ceiling the
// lead is archived instead.
func (s *Service) LogOutcome(ctx context.Context, actor domain.Actor, id string, req OutcomeRequest) (*OutcomeResult, error) {
	result := &OutcomeResult{}
	var nextFrom *domain.OutcomeCode
	var lead *domain.Lead

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if req.Revision > 0 && l.Revision != req.Revision {
			return workflow.ErrStaleUpdate
		}
		outcome, err := s.outcomes.GetByID(ctx, req.OutcomeCode)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOutcomeNotFound
		}
		if err != nil {
			return err
		}
		if !outcome.IsActive {
			return ErrOutcomeInactive
		}
		nextFrom = outcome

		status, err := parseStatus(deref(req.Status), outcome.LeadStatus)
		if err != nil {
			return err
		}
		stage, err := parseStage(deref(req.Stage), outcome.LeadStage)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if status != "" {
			l.Status = status
		}
		if stage != "" {
			l.Stage = stage
		}
		l.OutcomeCode = outcome.ID
		if req.Notes != nil {
			l.Notes = *req.Notes
		}
		l.LastActionAt = &now
		l.UpdatedAt = now

		plan := workflow.PlanFollowUp(*l, *outcome, now)
		if plan.Archive {
			l.Status = domain.LeadArchived
			l.OutcomeCode = s.rules.MaxAttemptsOutcome
			result.Archived = true
			if archiveOutcome, err := s.outcomes.GetByID(ctx, s.rules.MaxAttemptsOutcome); err == nil {
				nextFrom = archiveOutcome
			}
		}
		if plan.Schedule || plan.Archive {
			if _, err := s.attempts.CancelScheduled(ctx, l.ID); err != nil {
				return err
			}
		}
		if err := s.save(ctx, l); err != nil {
			return err
		}

		if plan.Schedule {
			a := &domain.ContactAttempt{
				ID:            uuid.NewString(),
				LeadID:        l.ID,
				AttemptType:   plan.AttemptType,
				Status:        domain.AttemptScheduled,
				AttemptNumber: plan.AttemptNumber,
				ScheduledAt:   plan.ScheduledAt,
				Outcome:       outcome.ID,
				UserID:        actor.UserID,
				CreatedAt:     now,
			}
			if err := s.attempts.Create(ctx, a); err != nil {
				return err
			}
			result.ScheduledAttempt = a
			if err := s.recorder.Record(ctx, actor.UserID, activity.ActionAttemptScheduled, domain.TargetLead, l.ID,
				map[string]any{"attemptId": a.ID, "attemptNumber": a.AttemptNumber, "scheduledAt": a.ScheduledAt}); err != nil {
				return err
			}
		}

		action := activity.ActionOutcomeLogged
		if plan.Archive {
			action = activity.ActionLeadArchived
		}
		lead = l
		return s.recorder.Record(ctx, actor.UserID, action, domain.TargetLead, l.ID,
			map[string]any{"outcomeCode": outcome.ID, "status": string(l.Status), "stage": string(l.Stage)})
	})
	if err != nil {
		return nil, wrap(err)
	}

	if result.Archived {
		metrics.RecordAutoArchive()
	}
	result.LeadView = s.view(*lead)
	result.NextAction = workflow.NextActionFor(nextFrom)
	s.events.Publish(realtime.EventLeadOutcome, result)
	if result.ScheduledAttempt != nil {
		s.events.Publish(realtime.EventAttemptScheduled, result.ScheduledAttempt)
	}
	return result, nil
}

func (s *Service) ListAttempts(ctx context.Context, id string) ([]domain.ContactAttempt, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.attempts.List(ctx, repository.AttemptQuery{LeadID: id})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

// LogAttempt records a contact that already happened. The lead's counter is
// bumped by a single conditional update, so it can never pass maxAttempts.
func (s *Service) LogAttempt(ctx context.Context, actor domain.Actor, id string, req LogAttemptRequest) (*AttemptResult, error) {
	attemptType, err := parseAttemptType(req.AttemptType)
	if err != nil {
		return nil, err
	}
	status := domain.AttemptCompleted
	if req.Status != "" {
		status = domain.AttemptStatus(req.Status)
		if !status.Counts() {
			return nil, apperr.Validation("status must be Completed or Failed")
		}
	}

	var res AttemptResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := workflow.CanLogAttempt(*l); err != nil {
			return err
		}

		now := s.clock.Now()
		updated, err := s.leads.IncrementAttempts(ctx, id, now)
		if errors.Is(err, repository.ErrLimitReached) {
			return workflow.ErrAttemptLimitExceeded
		}
		if err != nil {
			return err
		}

		a := domain.ContactAttempt{
			ID:            uuid.NewString(),
			LeadID:        id,
			AttemptType:   attemptType,
			Status:        status,
			AttemptNumber: updated.ContactAttempts,
			ScheduledAt:   now,
			CompletedAt:   &now,
			Outcome:       req.Outcome,
			Notes:         req.Notes,
			UserID:        actor.UserID,
			CreatedAt:     now,
		}
		if err := s.attempts.Create(ctx, &a); err != nil {
			return err
		}
		res.Attempt = a
		res.Lead = s.view(*updated)
		return s.recorder.Record(ctx, actor.UserID, activity.ActionAttemptLogged, domain.TargetLead, id,
			map[string]any{"attemptId": a.ID, "attemptNumber": a.AttemptNumber, "status": string(a.Status)})
	})
	if err != nil {
		if errors.Is(err, workflow.ErrAttemptLimitExceeded) {
			metrics.RecordAttemptLimitRejection()
		}
		return nil, wrap(err)
	}

	metrics.RecordAttemptLogged(string(attemptType))
	s.events.Publish(realtime.EventAttemptStatus, res.Attempt)
	return &res, nil
}

// Timeline lists the audit entries of a lead, oldest first.
func (s *Service) Timeline(ctx context.Context, id string) ([]domain.ActivityLog, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.history.ListByTarget(ctx, domain.TargetLead, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Lead, error) {
	l, err := s.leads.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return l, nil
}

func (s *Service) save(ctx context.Context, l *domain.Lead) error {
	err := s.leads.Update(ctx, l)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return workflow.ErrStaleUpdate
	case errors.Is(err, repository.ErrNotFound):
		return ErrLeadNotFound
	}
	return err
}

func (s *Service) view(l domain.Lead) workflow.LeadView {
	return s.rules.Policy.View(l, s.clock.Now())
}

// wrap passes application errors through and hides everything else behind a 500.
func wrap(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err)
}

func applyUpdate(l *domain.Lead, req UpdateLeadRequest) ([]string, error) {
	var changed []string
	if req.Name != nil {
		l.Name = strings.TrimSpace(*req.Name)
		changed = append(changed, "name")
	}
	if req.Email != nil {
		l.Email = strings.TrimSpace(*req.Email)
		changed = append(changed, "email")
	}
	if req.Phone != nil {
		l.Phone = strings.TrimSpace(*req.Phone)
		changed = append(changed, "phone")
	}
	if req.Source != nil {
		v, err := parseSource(*req.Source, l.Source)
		if err != nil {
			return nil, err
		}
		l.Source = v
		changed = append(changed, "source")
	}
	if req.Status != nil {
		v, err := parseStatus(*req.Status, l.Status)
		if err != nil {
			return nil, err
		}
		l.Status = v
		changed = append(changed, "status")
	}
	if req.Stage != nil {
		v, err := parseStage(*req.Stage, l.Stage)
		if err != nil {
			return nil, err
		}
		l.Stage = v
		changed = append(changed, "stage")
	}
	if req.Priority != nil {
		v, err := parsePriority(*req.Priority, l.Priority)
		if err != nil {
			return nil, err
		}
		l.Priority = v
		changed = append(changed, "priority")
	}
	if req.Notes != nil {
		l.Notes = *req.Notes
		changed = append(changed, "notes")
	}
	if req.MaxAttempts != nil {
		if *req.MaxAttempts < l.ContactAttempts {
			return nil, apperr.Validation(fmt.Sprintf("maxAttempts cannot be below the %d attempts already made", l.ContactAttempts))
		}
		l.MaxAttempts = *req.MaxAttempts
		changed = append(changed, "maxAttempts")
	}
	return changed, nil
}

func parseSource(raw string, fallback domain.LeadSource) (domain.LeadSource, error) {
	if raw == "" {
		return fallback, nil
	}
	for _, v := range domain.LeadSources {
		if string(v) == raw {
			return v, nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("Unknown source %q", raw))
}

func parseStatus(raw string, fallback domain.LeadStatus) (domain.LeadStatus, error) {
	if raw == "" {
		return fallback, nil
	}
	for _, v := range domain.LeadStatuses {
		if string(v) == raw {
			return v, nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("Unknown status %q", raw))
}

func parseStage(raw string, fallback domain.LeadStage) (domain.LeadStage, error) {
	if raw == "" {
		return fallback, nil
	}
	if workflow.ValidStage(domain.LeadStage(raw)) {
		return domain.LeadStage(raw), nil
	}
	return "", apperr.Validation(fmt.Sprintf("Unknown stage %q", raw))
}

func parsePriority(raw string, fallback domain.Priority) (domain.Priority, error) {
	if raw == "" {
		return fallback, nil
	}
	for _, v := range domain.Priorities {
		if string(v) == raw {
			return v, nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("Unknown priority %q", raw))
}

func parseAttemptType(raw string) (domain.AttemptType, error) {
	switch domain.AttemptType(raw) {
	case "":
		return domain.AttemptCall, nil
	case domain.AttemptCall, domain.AttemptSMS, domain.AttemptEmail:
		return domain.AttemptType(raw), nil
	}
	return "", apperr.Validation(fmt.Sprintf("Unknown attempt type %q", raw))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
