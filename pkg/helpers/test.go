package helpers

import (
	"context"
	"log/slog"

	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

// TestCtx returns a context carrying a discarding logger at debug level, so debug
// branches run in tests too.
func TestCtx() context.Context {
	log := slog.New(logger.NewTestHandler(slog.LevelDebug))
	return logger.ToContext(context.Background(), log)
}

// TestCtxWithBreaker is TestCtx plus br as the quota breaker.
func TestCtxWithBreaker(br *breaker.Breaker) context.Context {
	return breaker.ToContext(TestCtx(), br)
}
