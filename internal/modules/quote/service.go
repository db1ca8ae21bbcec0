package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conveycrm/internal/activity"
	"conveycrm/internal/domain"
	"conveycrm/internal/mailer"
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

type Service struct {
	quotes   QuoteRepository
	leads    LeadRepository
	history  ActivityReader
	tx       TxManager
	recorder ActivityRecorder
	events   EventPublisher
	renderer Renderer
	mail     mailSender
	clock    clock.Clock
	log      *zap.Logger
}

type Deps struct {
	Quotes   QuoteRepository
	Leads    LeadRepository
	History  ActivityReader
	Tx       TxManager
	Recorder ActivityRecorder
	Events   EventPublisher
	Renderer Renderer
	// Mail, when set, emails the client the quote PDF as it goes out.
	Mail mailSender
}

func NewService(d Deps, clk clock.Clock, log *zap.Logger) *Service {
	events := d.Events
	if events == nil {
		events = realtime.Nop{}
	}
	return &Service{
		quotes:   d.Quotes,
		leads:    d.Leads,
		history:  d.History,
		tx:       d.Tx,
		recorder: d.Recorder,
		events:   events,
		renderer: d.Renderer,
		mail:     d.Mail,
		clock:    clk,
		log:      log,
	}
}

func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	if p.Status != "" && !workflow.ValidQuoteStatus(p.Status) {
		return nil, ErrUnknownStatus
	}
	rows, err := s.quotes.ListCurrent(ctx, repository.QuoteQuery{LeadID: p.LeadID, Status: p.Status})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	page, meta := pagination.Slice(rows, p.Page)
	return &ListResult{Quotes: page, Pagination: meta}, nil
}

// Get returns the current version, or the given one when version > 0.
func (s *Service) Get(ctx context.Context, id string, version int) (*domain.Quote, error) {
	if version > 0 {
		q, err := s.quotes.GetVersion(ctx, id, version)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVersionNotFound
		}
		if err != nil {
			return nil, apperr.Internal(err)
		}
		return q, nil
	}
	return s.current(ctx, id)
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, req CreateRequest) (*domain.Quote, error) {
	items, err := toItems(req.Items)
	if err != nil {
		return nil, err
	}
	items, totals := workflow.ComputeTotals(items)

	var created domain.Quote
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		lead, err := s.leads.GetByID(ctx, req.LeadID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLeadNotFound
		}
		if err != nil {
			return err
		}

		now := s.clock.Now()
		q := domain.Quote{
			RowID:        uuid.NewString(),
			QuoteID:      newQuoteID(),
			Version:      1,
			Current:      true,
			LeadID:       lead.ID,
			LeadName:     lead.Name,
			LeadEmail:    lead.Email,
			Details:      strings.TrimSpace(req.Details),
			Items:        items,
			NetAmount:    totals.Net,
			VATAmount:    totals.VAT,
			TotalAmount:  totals.Total,
			Status:       domain.QuoteDraft,
			CreatedBy:    actor.UserID,
			CreatedAt:    now,
			LastEditedAt: now,
		}
		if err := s.quotes.CreateVersion(ctx, &q); err != nil {
			return err
		}

		lead.QuoteID = q.QuoteID
		lead.UpdatedAt = now
		if err := s.leads.Update(ctx, lead); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return workflow.ErrStaleUpdate
			}
			return err
		}
		created = q
		return s.recorder.Record(ctx, actor.UserID, activity.ActionQuoteCreated, domain.TargetQuote, q.QuoteID,
			map[string]any{"leadId": lead.ID, "totalAmount": q.TotalAmount.StringFixed(2)})
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &created, nil
}

// Update edits a Draft in place. Editing a Sent quote leaves it untouched and
// appends a new Draft version; later states are locked.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, req UpdateRequest) (*domain.Quote, error) {
	var items []domain.QuoteLineItem
	if req.Items != nil {
		var err error
		if items, err = toItems(req.Items); err != nil {
			return nil, err
		}
	}

	var result domain.Quote
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.current(ctx, id)
		if err != nil {
			return err
		}

		mode := workflow.QuoteEditMode(cur.Status)
		if mode == workflow.EditLocked {
			return workflow.ErrQuoteLocked
		}

		next := *cur
		if req.Details != nil {
			next.Details = strings.TrimSpace(*req.Details)
		}
		if items != nil {
			next.Items = items
		}
		var totals workflow.Totals
		next.Items, totals = workflow.ComputeTotals(next.Items)
		next.NetAmount, next.VATAmount, next.TotalAmount = totals.Net, totals.VAT, totals.Total
		next.LastEditedAt = s.clock.Now()

		if mode == workflow.EditInPlace {
			if err := s.quotes.UpdateCurrent(ctx, &next, domain.QuoteDraft); err != nil {
				return conflict(err)
			}
			result = next
			return s.recorder.Record(ctx, actor.UserID, activity.ActionQuoteEdited, domain.TargetQuote, id,
				map[string]any{"version": next.Version})
		}

		if err := s.quotes.Retire(ctx, cur.RowID, domain.QuoteSent); err != nil {
			return conflict(err)
		}
		next.RowID = uuid.NewString()
		next.Version = cur.Version + 1
		next.PreviousVersionID = cur.RowID
		next.Current = true
		next.Status = domain.QuoteDraft
		next.SentAt = nil
		next.DecidedAt = nil
		next.CreatedBy = actor.UserID
		if err := s.quotes.CreateVersion(ctx, &next); err != nil {
			return err
		}
		result = next
		return s.recorder.Record(ctx, actor.UserID, activity.ActionQuoteVersioned, domain.TargetQuote, id,
			map[string]any{"fromVersion": cur.Version, "version": next.Version})
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &result, nil
}

func (s *Service) Transition(ctx context.Context, actor domain.Actor, id string, req StatusRequest) (*domain.Quote, error) {
	to := domain.QuoteStatus(req.Status)
	if !workflow.ValidQuoteStatus(to) {
		return nil, ErrUnknownStatus
	}

	var result domain.Quote
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.current(ctx, id)
		if err != nil {
			return err
		}
		from := cur.Status
		if err := workflow.CanTransitionQuote(from, to); err != nil {
			return err
		}

		now := s.clock.Now()
		cur.Status = to
		if to == domain.QuoteSent {
			cur.SentAt = &now
		} else {
			cur.DecidedAt = &now
		}
		if err := s.quotes.UpdateCurrent(ctx, cur, from); err != nil {
			return conflict(err)
		}
		result = *cur
		if err := s.recorder.Record(ctx, actor.UserID, activity.ActionQuoteStatus, domain.TargetQuote, id,
			map[string]any{"from": string(from), "to": string(to), "version": cur.Version}); err != nil {
			return err
		}
		// last, so a failed delivery rolls the status back
		if to == domain.QuoteSent {
			return s.email(ctx, *cur)
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}

	metrics.RecordQuoteTransition(string(to))
	s.events.Publish(realtime.EventQuoteStatus, result)
	return &result, nil
}

func (s *Service) History(ctx context.Context, id string) (*History, error) {
	versions, err := s.quotes.ListVersions(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(versions) == 0 {
		return nil, ErrQuoteNotFound
	}
	entries, err := s.history.ListByTarget(ctx, domain.TargetQuote, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &History{QuoteID: id, Versions: versions, Activity: entries}, nil
}

// PDF renders a quote version and suggests a file name for it.
func (s *Service) PDF(ctx context.Context, id string, version int) ([]byte, string, error) {
	q, err := s.Get(ctx, id, version)
	if err != nil {
		return nil, "", err
	}
	doc, err := s.renderer.Render(*q)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return doc, fmt.Sprintf("%s-v%d.pdf", q.QuoteID, q.Version), nil
}

func (s *Service) email(ctx context.Context, q domain.Quote) error {
	if s.mail == nil {
		return nil
	}
	if strings.TrimSpace(q.LeadEmail) == "" {
		return ErrNoRecipient
	}
	doc, err := s.renderer.Render(q)
	if err != nil {
		return apperr.Internal(err)
	}
	msg := mailer.QuoteSent(q.LeadEmail, q.LeadName, q.QuoteID, q.Version, q.TotalAmount.StringFixed(2), doc)
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("quote email failed", zap.String("quote_id", q.QuoteID), zap.Error(err))
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) current(ctx context.Context, id string) (*domain.Quote, error) {
	q, err := s.quotes.GetCurrent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return q, nil
}

func toItems(reqs []LineItemRequest) ([]domain.QuoteLineItem, error) {
	if len(reqs) == 0 {
		return nil, ErrNoItems
	}
	out := make([]domain.QuoteLineItem, 0, len(reqs))
	for i, r := range reqs {
		category := domain.LineCategory(r.Category)
		if !workflow.ValidLineCategory(category) {
			return nil, apperr.Validation(fmt.Sprintf("items[%d]: unknown category %q", i, r.Category))
		}
		if !r.Quantity.IsPositive() {
			return nil, apperr.Validation(fmt.Sprintf("items[%d]: quantity must be greater than 0", i))
		}
		if r.UnitPrice.IsNegative() {
			return nil, apperr.Validation(fmt.Sprintf("items[%d]: unitPrice must not be negative", i))
		}
		out = append(out, domain.QuoteLineItem{
			Description: strings.TrimSpace(r.Description),
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			Category:    category,
		})
	}
	return out, nil
}

func newQuoteID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "Q-" + strings.ToUpper(raw[:8])
}

// conflict maps a lost conditional write to a stale update.
func conflict(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return workflow.ErrStaleUpdate
	}
	return err
}

func wrap(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err)
}
