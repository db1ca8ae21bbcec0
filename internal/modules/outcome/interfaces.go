package outcome

import (
	"context"

	"conveycrm/internal/domain"
)

type OutcomeRepository interface {
	Create(ctx context.Context, o *domain.OutcomeCode) error
	GetByID(ctx context.Context, id string) (*domain.OutcomeCode, error)
	List(ctx context.Context, activeOnly bool) ([]domain.OutcomeCode, error)
	Update(ctx context.Context, o *domain.OutcomeCode) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, userID, action string, target domain.TargetType, targetID string, details map[string]any) error
}
