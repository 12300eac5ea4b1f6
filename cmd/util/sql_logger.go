package util

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pgmold/pgmold/internal/logger"
)

// ExecWithLogging runs stmt inside tx, logging it at debug level before and
// after execution when debug mode is enabled.
func ExecWithLogging(ctx context.Context, tx pgx.Tx, stmt string, description string) error {
	isDebug := logger.IsDebug()
	if isDebug {
		logger.Get().Debug("executing statement", "description", description, "sql", stmt)
	}

	_, err := tx.Exec(ctx, stmt)

	if isDebug {
		if err != nil {
			logger.Get().Debug("statement failed", "description", description, "error", err)
		} else {
			logger.Get().Debug("statement succeeded", "description", description)
		}
	}
	return err
}
