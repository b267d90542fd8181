package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainerrors "contracthub/contexts/progression/job-service/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapError folds driver failures into the job-service error kinds. Errors
// it does not recognise are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%w: %s", domainerrors.ErrConflict, pgErr.ConstraintName)
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "57P01":
			return domainerrors.Transient(err)
		case strings.HasPrefix(pgErr.Code, "08"):
			return domainerrors.Transient(err)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return domainerrors.Transient(err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
