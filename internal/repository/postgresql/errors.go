package postgresql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes raised when a literal fallback column or table does not exist.
const (
	codeUndefinedColumn = "42703"
	codeUndefinedTable  = "42P01"
)

// classifyError wraps an upstream failure with the matching domain error so
// callers can branch with errors.Is. op describes the failed operation.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUndefinedColumn, codeUndefinedTable:
			return fmt.Errorf("%s: %w: %w", op, attendance.ErrUnresolvedSchema, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, attendance.ErrUpstreamUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), "closed pool")
}
