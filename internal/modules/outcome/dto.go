package outcome

import "conveycrm/internal/domain"

// SaveRequest is the full definition of an outcome code; updates replace every field.
type SaveRequest struct {
	ID            string   `json:"id" validate:"required,max=64"`
	Code          string   `json:"code" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description"`
	Category      string   `json:"category" validate:"required"`
	NextAction    string   `json:"nextAction" validate:"required"`
	NextActions   []string `json:"nextActions"`
	AutoSchedule  bool     `json:"autoSchedule"`
	ScheduleDelay int      `json:"scheduleDelay" validate:"gte=0"`
	MaxAttempts   int      `json:"maxAttempts" validate:"gte=0"`
	LeadStatus    string   `json:"leadStatus"`
	LeadStage     string   `json:"leadStage"`
	IsActive      *bool    `json:"isActive"`
}

func (r SaveRequest) toDomain() domain.OutcomeCode {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return domain.OutcomeCode{
		ID:            r.ID,
		Code:          r.Code,
		Name:          r.Name,
		Description:   r.Description,
		Category:      domain.OutcomeCategory(r.Category),
		NextAction:    domain.ActionKind(r.NextAction),
		NextActions:   r.NextActions,
		AutoSchedule:  r.AutoSchedule,
		ScheduleDelay: r.ScheduleDelay,
		MaxAttempts:   r.MaxAttempts,
		LeadStatus:    domain.LeadStatus(r.LeadStatus),
		LeadStage:     domain.LeadStage(r.LeadStage),
		IsActive:      active,
	}
}

type ActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type ListFilter struct {
	ActiveOnly bool
	Category   domain.OutcomeCategory
}
