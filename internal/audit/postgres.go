package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mergington-activities/internal/models"

	"github.com/lib/pq"
)

var ErrAuditInsertFailed = errors.New("AUDIT_INSERT_FAILED")

// PostgresSink appends every event to an audit table.
type PostgresSink struct {
	db    *sql.DB
	query string
}

// NewPostgresSink writes into table, which comes from configuration and is
// quoted as an identifier.
func NewPostgresSink(db *sql.DB, table string) *PostgresSink {
	return &PostgresSink{
		db: db,
		query: fmt.Sprintf(`
		INSERT INTO %s (id, event_type, activity, email, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, pq.QuoteIdentifier(table)),
	}
}

func (s *PostgresSink) Record(ctx context.Context, event models.EnrollmentEvent) error {
	_, err := s.db.ExecContext(ctx, s.query,
		event.ID,
		string(event.Type),
		event.Activity,
		event.Email,
		event.RequestID,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuditInsertFailed, err)
	}
	return nil
}
