package purchase

import (
	"go.uber.org/zap"

	"mintflow/internal/models"
)

// LogNotifier is the default toast side channel: it logs the user-facing
// message. A UI integration replaces it with a real notification sink.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notifier")}
}

// Notify logs the outcome message
func (n *LogNotifier) Notify(itemID string, kind models.OperationKind, message string) {
	n.logger.Info("User notification",
		zap.String("item_id", itemID),
		zap.String("kind", string(kind)),
		zap.String("message", message))
}
