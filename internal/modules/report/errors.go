package report

import "conveycrm/internal/pkg/apperr"

var ErrUnknownReport = apperr.Validation("reportType must be one of overview, performance, leads, revenue")
