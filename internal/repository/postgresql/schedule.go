package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paylane/payroll-backend-go/internal/domain/contract"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
)

type scheduleRepository struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) contract.ScheduleRepository {
	return &scheduleRepository{db: db}
}

const scheduleColumns = `
	id, contract_id, active, cadence, day_of_month, lead_days,
	next_fire_at, last_fired_at, created_at, updated_at
`

func scanSchedule(row pgx.Row) (contract.Schedule, error) {
	var s contract.Schedule
	err := row.Scan(
		&s.ID, &s.ContractID, &s.Active, &s.Cadence, &s.DayOfMonth, &s.LeadDays,
		&s.NextFireAt, &s.LastFiredAt, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *scheduleRepository) Create(ctx context.Context, s contract.Schedule) (contract.Schedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO invoice_schedules (contract_id, active, cadence, day_of_month, lead_days, next_fire_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + scheduleColumns + `
	`

	created, err := scanSchedule(q.QueryRow(ctx, query,
		s.ContractID, s.Active, s.Cadence, s.DayOfMonth, s.LeadDays, s.NextFireAt,
	))
	if err != nil {
		return contract.Schedule{}, fmt.Errorf("failed to create schedule: %w", err)
	}

	return created, nil
}

func (r *scheduleRepository) GetByContractID(ctx context.Context, contractID string) (contract.Schedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + scheduleColumns + `
		FROM invoice_schedules
		WHERE contract_id = $1
	`

	s, err := scanSchedule(q.QueryRow(ctx, query, contractID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.Schedule{}, contract.ErrScheduleNotFound
		}
		return contract.Schedule{}, fmt.Errorf("failed to get schedule: %w", err)
	}

	return s, nil
}

func (r *scheduleRepository) ListDue(ctx context.Context, now time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id
		FROM invoice_schedules
		WHERE active = true AND next_fire_at <= $1
		ORDER BY next_fire_at
	`

	rows, err := q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan schedule id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// GetDueForUpdate re-checks the due precondition under a row lock. A
// schedule advanced by a concurrent worker no longer matches and the
// caller skips it; this is what makes firing idempotent without a
// distributed lock.
func (r *scheduleRepository) GetDueForUpdate(ctx context.Context, id string, now time.Time) (contract.Schedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + scheduleColumns + `
		FROM invoice_schedules
		WHERE id = $1 AND active = true AND next_fire_at <= $2
		FOR UPDATE
	`

	s, err := scanSchedule(q.QueryRow(ctx, query, id, now))
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.Schedule{}, contract.ErrScheduleAlreadyFired
		}
		return contract.Schedule{}, fmt.Errorf("failed to lock schedule: %w", err)
	}

	return s, nil
}

func (r *scheduleRepository) Advance(ctx context.Context, id string, nextFireAt time.Time, firedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE invoice_schedules
		SET next_fire_at = $2, last_fired_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, nextFireAt, firedAt).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to advance schedule: %w", err)
	}

	return nil
}

func (r *scheduleRepository) SetActive(ctx context.Context, contractID string, active bool) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE invoice_schedules
		SET active = $2, updated_at = NOW()
		WHERE contract_id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, contractID, active).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to set schedule active flag: %w", err)
	}

	return nil
}

func (r *scheduleRepository) SetNextFire(ctx context.Context, contractID string, nextFireAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE invoice_schedules
		SET next_fire_at = $2, updated_at = NOW()
		WHERE contract_id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, contractID, nextFireAt).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to set schedule next fire: %w", err)
	}

	return nil
}

func (r *scheduleRepository) UpdateCadence(ctx context.Context, upd contract.ScheduleUpdate) error {
	q := GetQuerier(ctx, r.db)

	setParts := []string{"updated_at = NOW()"}
	args := []interface{}{upd.ID}
	argIdx := 2

	if upd.DayOfMonth != nil {
		setParts = append(setParts, fmt.Sprintf("day_of_month = $%d", argIdx))
		args = append(args, *upd.DayOfMonth)
		argIdx++
	}
	if upd.LeadDays != nil {
		setParts = append(setParts, fmt.Sprintf("lead_days = $%d", argIdx))
		args = append(args, *upd.LeadDays)
		argIdx++
	}
	if upd.Cadence != nil {
		setParts = append(setParts, fmt.Sprintf("cadence = $%d", argIdx))
		args = append(args, *upd.Cadence)
		argIdx++
	}
	if upd.NextFireAt != nil {
		setParts = append(setParts, fmt.Sprintf("next_fire_at = $%d", argIdx))
		args = append(args, *upd.NextFireAt)
		argIdx++
	}

	query := fmt.Sprintf(`
		UPDATE invoice_schedules
		SET %s
		WHERE id = $1
		RETURNING id
	`, strings.Join(setParts, ", "))

	var updatedID string
	err := q.QueryRow(ctx, query, args...).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to update schedule cadence: %w", err)
	}

	return nil
}

func (r *scheduleRepository) Deactivate(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE invoice_schedules
		SET active = false, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to deactivate schedule: %w", err)
	}

	return nil
}

func (r *scheduleRepository) DeleteByContractID(ctx context.Context, contractID string) error {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM invoice_schedules WHERE contract_id = $1 RETURNING id`

	var deletedID string
	err := q.QueryRow(ctx, query, contractID).Scan(&deletedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	return nil
}
