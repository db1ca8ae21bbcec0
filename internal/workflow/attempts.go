package workflow

import (
	"fmt"

	"conveycrm/internal/domain"
)

// EffectiveMaxAttempts applies an outcome-specific ceiling on top of the lead's own.
func EffectiveMaxAttempts(leadMax, outcomeMax int) int {
	if outcomeMax > 0 && outcomeMax < leadMax {
		return outcomeMax
	}
	return leadMax
}

// CanLogAttempt rejects a logged attempt once the lead has used all of them.
func CanLogAttempt(lead domain.Lead) error {
	if lead.ContactAttempts >= lead.MaxAttempts {
		return detailed(ErrAttemptLimitExceeded,
			fmt.Sprintf("Maximum contact attempts reached (%d/%d)", lead.ContactAttempts, lead.MaxAttempts))
	}
	return nil
}

var attemptTransitions = map[domain.AttemptStatus]map[domain.AttemptStatus]bool{
	domain.AttemptScheduled: {
		domain.AttemptInProgress: true,
		domain.AttemptCompleted:  true,
		domain.AttemptFailed:     true,
		domain.AttemptCancelled:  true,
	},
	domain.AttemptInProgress: {
		domain.AttemptCompleted: true,
		domain.AttemptFailed:    true,
		domain.AttemptCancelled: true,
	},
	domain.AttemptCompleted: {},
	domain.AttemptFailed:    {},
	domain.AttemptCancelled: {},
}

func CanTransitionAttempt(from, to domain.AttemptStatus) error {
	if attemptTransitions[from][to] {
		return nil
	}
	return detailed(ErrInvalidStatusTransition,
		fmt.Sprintf("Invalid status transition: %s -> %s", from, to))
}

func ValidAttemptStatus(s domain.AttemptStatus) bool {
	_, ok := attemptTransitions[s]
	return ok
}

func AttemptTypeFor(kind domain.ActionKind) domain.AttemptType {
	switch kind {
	case domain.ActionSMS:
		return domain.AttemptSMS
	case domain.ActionEmail:
		return domain.AttemptEmail
	default:
		return domain.AttemptCall
	}
}
