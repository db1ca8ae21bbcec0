package quota

import (
	"context"

	"conveycrm/internal/domain"
)

type QuotaRepository interface {
	Get(ctx context.Context, agent string) (*domain.AgentQuota, error)
	CreateIfMissing(ctx context.Context, q *domain.AgentQuota) error
	List(ctx context.Context) ([]domain.AgentQuota, error)
	Save(ctx context.Context, q *domain.AgentQuota) error
}

type LeadCounter interface {
	CountOpenByAssignee(ctx context.Context, agent string) (int, error)
}

type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, userID, action string, target domain.TargetType, targetID string, details map[string]any) error
}
