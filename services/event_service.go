package services

import (
	"go.uber.org/zap"

	"github.com/cyphera/spend-permission-manager/types"
)

// LogEmitter publishes lifecycle and usage notifications as structured log
// entries. Off-chain observers that need a richer channel can provide their
// own EventEmitter.
type LogEmitter struct {
	logger *zap.Logger
}

// NewLogEmitter creates an emitter writing to the given logger.
func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// PermissionApproved logs a first-time approval.
func (e *LogEmitter) PermissionApproved(event types.PermissionApprovedEvent) {
	e.logger.Info("spend permission approved",
		zap.String("event_id", event.ID.String()),
		zap.String("permission_hash", event.PermissionHash.Hex()),
		zap.String("account", event.Permission.Account.Hex()),
		zap.String("spender", event.Permission.Spender.Hex()),
		zap.String("token", event.Permission.Token.Hex()),
		zap.String("allowance", event.Permission.Allowance.String()),
		zap.Uint64("period", event.Permission.Period),
		zap.Uint64("start", event.Permission.Start),
		zap.Uint64("end", event.Permission.End),
	)
}

// PermissionRevoked logs a first-time revocation.
func (e *LogEmitter) PermissionRevoked(event types.PermissionRevokedEvent) {
	e.logger.Info("spend permission revoked",
		zap.String("event_id", event.ID.String()),
		zap.String("permission_hash", event.PermissionHash.Hex()),
		zap.String("account", event.Permission.Account.Hex()),
		zap.String("spender", event.Permission.Spender.Hex()),
	)
}

// SpendPermissionUsed logs a successful spend with its incremental value.
func (e *LogEmitter) SpendPermissionUsed(event types.SpendPermissionUsedEvent) {
	e.logger.Info("spend permission used",
		zap.String("event_id", event.ID.String()),
		zap.String("permission_hash", event.PermissionHash.Hex()),
		zap.String("account", event.Account.Hex()),
		zap.String("spender", event.Spender.Hex()),
		zap.String("token", event.Token.Hex()),
		zap.Uint64("period_start", event.Period.Start),
		zap.Uint64("period_end", event.Period.End),
		zap.String("period_spend", event.Period.Spend.String()),
		zap.String("value", event.Value.String()),
	)
}
