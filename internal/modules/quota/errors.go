package quota

import "conveycrm/internal/pkg/apperr"

var ErrAgentRequired = apperr.Validation("agent is required")
