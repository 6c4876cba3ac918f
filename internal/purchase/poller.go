package purchase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mintflow/internal/models"
)

// CheckStatus queries confirmation status for one operation id. It returns
// the server status, the resulting mint (when confirmed), and the server
// error message (when failed).
type CheckStatus func(ctx context.Context, operationID string) (status models.ConfirmationStatus, nftMint string, errMessage string, err error)

// PollOutcome is the single result a poller run reports
type PollOutcome struct {
	Status     models.ConfirmationStatus
	NFTMint    string
	ErrMessage string
	TimedOut   bool
	Cancelled  bool
}

// Poller repeatedly queries confirmation status for one operation id until
// a terminal status or the duration bound. It waits one interval before
// every query and runs exactly maxDuration/interval attempts.
type Poller struct {
	operationID string
	interval    time.Duration
	maxDuration time.Duration
	check       CheckStatus
	logger      *zap.Logger
}

// NewPoller creates a confirmation poller
func NewPoller(operationID string, interval, maxDuration time.Duration, check CheckStatus, logger *zap.Logger) *Poller {
	return &Poller{
		operationID: operationID,
		interval:    interval,
		maxDuration: maxDuration,
		check:       check,
		logger:      logger.Named("poller"),
	}
}

// Run polls until terminal, timeout, or cancellation. Network errors on an
// individual poll are swallowed; a transient blip must not abort an
// otherwise-succeeding confirmation.
func (p *Poller) Run(ctx context.Context) PollOutcome {
	attempts := int(p.maxDuration / p.interval)
	if attempts < 1 {
		attempts = 1
	}

	p.logger.Debug("Polling confirmation status",
		zap.String("operation_id", p.operationID),
		zap.Duration("interval", p.interval),
		zap.Int("max_attempts", attempts))

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer.Reset(p.interval)
		}

		select {
		case <-ctx.Done():
			p.logger.Debug("Poll cancelled", zap.String("operation_id", p.operationID))
			return PollOutcome{Cancelled: true}
		case <-timer.C:
		}

		status, mint, errMsg, err := p.check(ctx, p.operationID)
		if err != nil {
			if ctx.Err() != nil {
				return PollOutcome{Cancelled: true}
			}
			p.logger.Debug("Status check failed, continuing",
				zap.String("operation_id", p.operationID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		if status.Terminal() {
			p.logger.Info("Confirmation reached terminal status",
				zap.String("operation_id", p.operationID),
				zap.String("status", string(status)),
				zap.Int("attempts", attempt+1))
			return PollOutcome{Status: status, NFTMint: mint, ErrMessage: errMsg}
		}
	}

	p.logger.Warn("Confirmation polling timed out",
		zap.String("operation_id", p.operationID),
		zap.Duration("max_duration", p.maxDuration))
	return PollOutcome{TimedOut: true}
}
