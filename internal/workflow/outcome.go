package workflow

import (
	"fmt"
	"strings"
	"time"

	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/apperr"
)

const NoActionDefined = "No action defined"

type NextAction struct {
	ActionLabel string            `json:"actionLabel"`
	DelayHours  int               `json:"delayHours"`
	Kind        domain.ActionKind `json:"kind,omitempty"`
}

var defaultLabels = map[domain.ActionKind]string{
	domain.ActionCall:     "Call again",
	domain.ActionSMS:      "Send SMS",
	domain.ActionEmail:    "Send email",
	domain.ActionSchedule: "Schedule follow-up",
	domain.ActionArchive:  "Archive lead",
}

// NextActionFor returns the recommended follow-up for an outcome.
// A nil or inactive outcome yields NoActionDefined.
func NextActionFor(o *domain.OutcomeCode) NextAction {
	if o == nil || !o.IsActive {
		return NextAction{ActionLabel: NoActionDefined}
	}
	label := ""
	if len(o.NextActions) > 0 {
		label = o.NextActions[0]
	}
	if label == "" {
		label = defaultLabels[o.NextAction]
	}
	if label == "" {
		label = NoActionDefined
	}
	return NextAction{ActionLabel: label, DelayHours: o.ScheduleDelay, Kind: o.NextAction}
}

// ValidateOutcome rejects outcome definitions that could not drive a follow-up.
func ValidateOutcome(o domain.OutcomeCode) error {
	if strings.TrimSpace(o.ID) == "" {
		return apperr.Validation("outcome id is required")
	}
	if strings.TrimSpace(o.Code) == "" {
		return apperr.Validation(fmt.Sprintf("outcome %s: code is required", o.ID))
	}
	if strings.TrimSpace(o.Name) == "" {
		return apperr.Validation(fmt.Sprintf("outcome %s: name is required", o.ID))
	}
	if !containsCategory(o.Category) {
		return apperr.Validation(fmt.Sprintf("outcome %s: unknown category %q", o.ID, o.Category))
	}
	if !containsAction(o.NextAction) {
		return apperr.Validation(fmt.Sprintf("outcome %s: unknown next action %q", o.ID, o.NextAction))
	}
	if o.ScheduleDelay < 0 {
		return apperr.Validation(fmt.Sprintf("outcome %s: schedule delay must be >= 0", o.ID))
	}
	if o.MaxAttempts < 0 {
		return apperr.Validation(fmt.Sprintf("outcome %s: max attempts must be >= 0", o.ID))
	}
	if o.AutoSchedule && o.NextAction == domain.ActionArchive {
		return apperr.Validation(fmt.Sprintf("outcome %s: an archiving outcome cannot auto-schedule", o.ID))
	}
	if o.LeadStatus != "" && !containsStatus(o.LeadStatus) {
		return apperr.Validation(fmt.Sprintf("outcome %s: unknown lead status %q", o.ID, o.LeadStatus))
	}
	if o.LeadStage != "" && !ValidStage(o.LeadStage) {
		return apperr.Validation(fmt.Sprintf("outcome %s: unknown lead stage %q", o.ID, o.LeadStage))
	}
	return nil
}

// OutcomeTable is an id-keyed, validated set of outcome codes.
type OutcomeTable struct {
	byID  map[string]domain.OutcomeCode
	order []string
}

func NewOutcomeTable(codes []domain.OutcomeCode) (*OutcomeTable, error) {
	t := &OutcomeTable{byID: make(map[string]domain.OutcomeCode, len(codes))}
	seenCodes := make(map[string]string, len(codes))

	for _, o := range codes {
		if err := ValidateOutcome(o); err != nil {
			return nil, err
		}
		if _, dup := t.byID[o.ID]; dup {
			return nil, apperr.Validation(fmt.Sprintf("duplicate outcome id %q", o.ID))
		}
		if other, dup := seenCodes[o.Code]; dup {
			return nil, apperr.Validation(fmt.Sprintf("outcome code %q used by %s and %s", o.Code, other, o.ID))
		}
		seenCodes[o.Code] = o.ID
		t.byID[o.ID] = o
		t.order = append(t.order, o.ID)
	}
	return t, nil
}

func (t *OutcomeTable) Get(id string) (domain.OutcomeCode, bool) {
	o, ok := t.byID[id]
	return o, ok
}

func (t *OutcomeTable) List() []domain.OutcomeCode {
	out := make([]domain.OutcomeCode, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

func (t *OutcomeTable) NextAction(id string) NextAction {
	o, ok := t.byID[id]
	if !ok {
		return NextActionFor(nil)
	}
	return NextActionFor(&o)
}

// FollowUp is what logging an outcome implies for the lead.
type FollowUp struct {
	Schedule      bool
	Archive       bool
	AttemptNumber int
	AttemptType   domain.AttemptType
	ScheduledAt   time.Time
}

// PlanFollowUp decides whether an auto-scheduling outcome books the next
// attempt or, when the ceiling is reached, sends the lead to archive.
func PlanFollowUp(lead domain.Lead, o domain.OutcomeCode, now time.Time) FollowUp {
	if !o.AutoSchedule {
		return FollowUp{}
	}

	ceiling := EffectiveMaxAttempts(lead.MaxAttempts, o.MaxAttempts)
	next := lead.ContactAttempts + 1
	if next > ceiling {
		return FollowUp{Archive: true}
	}

	return FollowUp{
		Schedule:      true,
		AttemptNumber: next,
		AttemptType:   AttemptTypeFor(o.NextAction),
		ScheduledAt:   now.Add(time.Duration(o.ScheduleDelay) * time.Hour),
	}
}

func containsCategory(c domain.OutcomeCategory) bool {
	for _, v := range domain.OutcomeCategories {
		if v == c {
			return true
		}
	}
	return false
}

func containsAction(a domain.ActionKind) bool {
	for _, v := range domain.ActionKinds {
		if v == a {
			return true
		}
	}
	return false
}

func containsStatus(s domain.LeadStatus) bool {
	for _, v := range domain.LeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}
