// Package postgres provides PostgreSQL implementation of incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"github.com/FedericoTs/dora-comply-sub000/internal/incidents"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is an interface for database operations that both *pgxpool.Pool and pgx.Tx implement.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const incidentColumns = `
	id, title, description, status,
	classification, classification_calculated, classification_override, classification_override_justification,
	clients_affected_percentage, transactions_value_affected, critical_functions_affected,
	data_breach, data_records_affected, economic_impact, reputational_impact,
	occurred_at, detected_at, closed_at, created_by, version, created_at, updated_at
`

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts the incident and its initial classification log entry in one transaction.
func (r *Repository) Create(ctx context.Context, inc *domain.Incident, entry *domain.ClassificationLogEntry) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO incidents (
				title, description, status,
				classification, classification_calculated, classification_override, classification_override_justification,
				clients_affected_percentage, transactions_value_affected, critical_functions_affected,
				data_breach, data_records_affected, economic_impact, reputational_impact,
				occurred_at, detected_at, closed_at, created_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			RETURNING id, version, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			inc.Title,
			inc.Description,
			inc.Status,
			inc.Classification,
			inc.ClassificationCalculated,
			inc.ClassificationOverride,
			inc.ClassificationOverrideJustification,
			inc.Impact.ClientsAffectedPercentage,
			inc.Impact.TransactionsValueAffected,
			nonNil(inc.Impact.CriticalFunctionsAffected),
			inc.Impact.DataBreach,
			inc.Impact.DataRecordsAffected,
			inc.Impact.EconomicImpact,
			inc.Impact.ReputationalImpact,
			inc.OccurredAt,
			inc.DetectedAt,
			inc.ClosedAt,
			inc.CreatedBy,
		).Scan(&inc.ID, &inc.Version, &inc.CreatedAt, &inc.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert incident: %w", err)
		}

		entry.IncidentID = inc.ID
		return insertClassificationLog(ctx, tx, entry)
	})
}

// Get retrieves an incident by ID.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	inc, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return inc, nil
}

// List retrieves incidents with optional filters, newest first, and the total match count.
func (r *Repository) List(ctx context.Context, filter incidents.ListFilter) ([]*domain.Incident, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
		argNum++
	}
	if filter.Classification != nil {
		where += fmt.Sprintf(" AND classification = $%d", argNum)
		args = append(args, *filter.Classification)
		argNum++
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM incidents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count incidents: %w", err)
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents` + where + " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	list, err := r.queryIncidents(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list incidents: %w", err)
	}
	return list, total, nil
}

// ListOpenReportable retrieves detected, unclosed incidents that require reporting.
func (r *Repository) ListOpenReportable(ctx context.Context) ([]*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents
		WHERE status NOT IN ('draft', 'closed')
		  AND classification IN ('major', 'significant')
		  AND detected_at IS NOT NULL
		ORDER BY detected_at`

	list, err := r.queryIncidents(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list open reportable incidents: %w", err)
	}
	return list, nil
}

// UpdateClassification stores the impact and classification and appends the log entry.
// The write applies only while the stored version equals inc.Version and the
// incident is still open; inc.Version is advanced on success.
func (r *Repository) UpdateClassification(ctx context.Context, inc *domain.Incident, entry *domain.ClassificationLogEntry) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE incidents SET
				classification = $2,
				classification_calculated = $3,
				classification_override = $4,
				classification_override_justification = $5,
				clients_affected_percentage = $6,
				transactions_value_affected = $7,
				critical_functions_affected = $8,
				data_breach = $9,
				data_records_affected = $10,
				economic_impact = $11,
				reputational_impact = $12,
				version = version + 1,
				updated_at = NOW()
			WHERE id = $1 AND version = $13 AND status <> 'closed'
			RETURNING version, updated_at
		`
		err := tx.QueryRow(ctx, query,
			inc.ID,
			inc.Classification,
			inc.ClassificationCalculated,
			inc.ClassificationOverride,
			inc.ClassificationOverrideJustification,
			inc.Impact.ClientsAffectedPercentage,
			inc.Impact.TransactionsValueAffected,
			nonNil(inc.Impact.CriticalFunctionsAffected),
			inc.Impact.DataBreach,
			inc.Impact.DataRecordsAffected,
			inc.Impact.EconomicImpact,
			inc.Impact.ReputationalImpact,
			inc.Version,
		).Scan(&inc.Version, &inc.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return classificationConflict(ctx, tx, inc.ID)
			}
			return fmt.Errorf("update classification: %w", err)
		}

		entry.IncidentID = inc.ID
		return insertClassificationLog(ctx, tx, entry)
	})
}

// UpdateStatus stores the new status and timestamps and appends the status change.
// The update only applies while the stored status still equals change.FromStatus.
func (r *Repository) UpdateStatus(ctx context.Context, inc *domain.Incident, change *domain.StatusChange) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE incidents SET
				status = $2,
				detected_at = $3,
				closed_at = $4,
				version = version + 1,
				updated_at = NOW()
			WHERE id = $1 AND status = $5
			RETURNING version, updated_at
		`
		err := tx.QueryRow(ctx, query,
			inc.ID,
			inc.Status,
			inc.DetectedAt,
			inc.ClosedAt,
			change.FromStatus,
		).Scan(&inc.Version, &inc.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return incidents.ErrStatusConflict
			}
			return fmt.Errorf("update status: %w", err)
		}

		change.IncidentID = inc.ID
		return insertStatusChange(ctx, tx, change)
	})
}

// ListClassificationLog retrieves the classification history of an incident, oldest first.
func (r *Repository) ListClassificationLog(ctx context.Context, incidentID string) ([]*domain.ClassificationLogEntry, error) {
	query := `
		SELECT id, incident_id, calculated, effective, override, justification, reason, created_by, created_at
		FROM incident_classification_log
		WHERE incident_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list classification log: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.ClassificationLogEntry, 0)
	for rows.Next() {
		var e domain.ClassificationLogEntry
		if err := rows.Scan(
			&e.ID,
			&e.IncidentID,
			&e.Calculated,
			&e.Effective,
			&e.Override,
			&e.Justification,
			&e.Reason,
			&e.CreatedBy,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan classification log: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classification log: %w", err)
	}
	return entries, nil
}

// ListStatusChanges retrieves the status history of an incident, oldest first.
func (r *Repository) ListStatusChanges(ctx context.Context, incidentID string) ([]*domain.StatusChange, error) {
	query := `
		SELECT id, incident_id, from_status, to_status, created_by, created_at
		FROM incident_status_changes
		WHERE incident_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	defer rows.Close()

	changes := make([]*domain.StatusChange, 0)
	for rows.Next() {
		var c domain.StatusChange
		if err := rows.Scan(&c.ID, &c.IncidentID, &c.FromStatus, &c.ToStatus, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		changes = append(changes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status changes: %w", err)
	}
	return changes, nil
}

func (r *Repository) queryIncidents(ctx context.Context, query string, args ...any) ([]*domain.Incident, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		list = append(list, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(
		&inc.ID,
		&inc.Title,
		&inc.Description,
		&inc.Status,
		&inc.Classification,
		&inc.ClassificationCalculated,
		&inc.ClassificationOverride,
		&inc.ClassificationOverrideJustification,
		&inc.Impact.ClientsAffectedPercentage,
		&inc.Impact.TransactionsValueAffected,
		&inc.Impact.CriticalFunctionsAffected,
		&inc.Impact.DataBreach,
		&inc.Impact.DataRecordsAffected,
		&inc.Impact.EconomicImpact,
		&inc.Impact.ReputationalImpact,
		&inc.OccurredAt,
		&inc.DetectedAt,
		&inc.ClosedAt,
		&inc.CreatedBy,
		&inc.Version,
		&inc.CreatedAt,
		&inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(inc.Impact.CriticalFunctionsAffected) == 0 {
		inc.Impact.CriticalFunctionsAffected = nil
	}
	return &inc, nil
}

// classificationConflict explains why a guarded classification update matched no row.
func classificationConflict(ctx context.Context, q querier, id string) error {
	var status domain.IncidentStatus
	err := q.QueryRow(ctx, `SELECT status FROM incidents WHERE id = $1`, id).Scan(&status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return incidents.ErrIncidentNotFound
	case err != nil:
		return fmt.Errorf("check incident state: %w", err)
	case status == domain.IncidentStatusClosed:
		return incidents.ErrIncidentClosed
	default:
		return incidents.ErrVersionConflict
	}
}

func insertClassificationLog(ctx context.Context, q querier, e *domain.ClassificationLogEntry) error {
	query := `
		INSERT INTO incident_classification_log (
			incident_id, calculated, effective, override, justification, reason, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query,
		e.IncidentID,
		e.Calculated,
		e.Effective,
		e.Override,
		e.Justification,
		e.Reason,
		e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert classification log: %w", err)
	}
	return nil
}

func insertStatusChange(ctx context.Context, q querier, c *domain.StatusChange) error {
	query := `
		INSERT INTO incident_status_changes (incident_id, from_status, to_status, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := q.QueryRow(ctx, query, c.IncidentID, c.FromStatus, c.ToStatus, c.CreatedBy).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
