package repository

import (
	"context"

	drepo "MarinePulse/internal/domain/repository"
	applogger "MarinePulse/pkg/logger"
)

// LogOpsAlerter surfaces operational failures (rejected credentials, dark
// data kinds) to the structured log, where the operations tooling picks
// them up. Distinct from the domain notification path on purpose.
type LogOpsAlerter struct {
	logger *applogger.Logger
}

func NewLogOpsAlerter(lgr *applogger.Logger) *LogOpsAlerter {
	return &LogOpsAlerter{logger: lgr}
}

func (a *LogOpsAlerter) Alert(_ context.Context, kind string, providerID string, err error) {
	a.logger.Error("operational alert",
		applogger.String("alert", kind),
		applogger.String("provider", providerID),
		applogger.Error(err))
}

var _ drepo.OpsAlerter = (*LogOpsAlerter)(nil)
