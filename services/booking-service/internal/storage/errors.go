package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/minerva-salon/salonbook/libs/db"
)

// IsConflict reports an exclusion-constraint violation: an overlapping appointment won the race.
func IsConflict(err error) bool {
	return db.HasCode(err, db.CodeExclusionViolation)
}

// IsRetryable reports serialization failures and deadlocks.
func IsRetryable(err error) bool {
	return db.HasCode(err, db.CodeSerializationFailure, db.CodeDeadlockDetected)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
