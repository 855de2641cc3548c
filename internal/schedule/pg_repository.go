package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Unique constraints the repository maps to domain errors. Names must
// match schema.sql.
const (
	slotPairConstraint   = "slots_date_time_key"
	activeSlotConstraint = "appointments_active_slot_key"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Date,
		&a.Time,
		&a.Notes,
		&a.Status,
		&a.TotalPrice,
		&a.TotalDuration,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

func timesByDate(rows pgx.Rows) (map[string][]string, error) {
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var date, t string
		if err := rows.Scan(&date, &t); err != nil {
			return nil, err
		}
		out[date] = append(out[date], t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Slot ledger

func (r *PgRepository) CreateSlot(ctx context.Context, date, t string) (*Slot, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO slots (id, date, time, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, date, time, created_at
	`, id, date, t)

	var s Slot
	if err := row.Scan(&s.ID, &s.Date, &s.Time, &s.CreatedAt); err != nil {
		if isUniqueViolation(err, slotPairConstraint) {
			return nil, ErrSlotExists
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) DeleteSlot(ctx context.Context, date, t string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM slots
		WHERE date = $1 AND time = $2
	`, date, t)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) SlotTimes(ctx context.Context, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time
		FROM slots
		WHERE date = $1
		ORDER BY time
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	times := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return times, nil
}

func (r *PgRepository) SlotTimesInRange(ctx context.Context, from, to string) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, time
		FROM slots
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, time
	`, from, to)
	if err != nil {
		return nil, err
	}
	return timesByDate(rows)
}

// Booking ledger reads

func (r *PgRepository) ActiveAppointmentTimes(ctx context.Context, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT time
		FROM appointments
		WHERE date = $1 AND status <> 'cancelled'
		ORDER BY time
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	times := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return times, nil
}

func (r *PgRepository) ActiveAppointmentTimesInRange(ctx context.Context, from, to string) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT date, time
		FROM appointments
		WHERE date BETWEEN $1 AND $2 AND status <> 'cancelled'
		ORDER BY date, time
	`, from, to)
	if err != nil {
		return nil, err
	}
	return timesByDate(rows)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, date, time, notes, status, total_price, total_duration, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)

	appt, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	services, err := r.loadServices(ctx, []uuid.UUID{appt.ID})
	if err != nil {
		return nil, err
	}
	appt.Services = services[appt.ID]

	return appt, nil
}

func (r *PgRepository) ListAppointments(ctx context.Context, date string, limit, offset int) ([]Appointment, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if date == "" {
		rows, err = r.pool.Query(ctx, `
			SELECT id, user_id, date, time, notes, status, total_price, total_duration, created_at, updated_at
			FROM appointments
			ORDER BY date DESC, time DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT id, user_id, date, time, notes, status, total_price, total_duration, created_at, updated_at
			FROM appointments
			WHERE date = $1
			ORDER BY time
			LIMIT $2 OFFSET $3
		`, date, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	var ids []uuid.UUID
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		services, err := r.loadServices(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range result {
			result[i].Services = services[result[i].ID]
		}
	}

	return result, nil
}

func (r *PgRepository) loadServices(ctx context.Context, apptIDs []uuid.UUID) (map[uuid.UUID][]BookedService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_id, service_id, name, price, duration
		FROM appointment_services
		WHERE appointment_id = ANY($1)
		ORDER BY name
	`, apptIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]BookedService)
	for rows.Next() {
		var apptID uuid.UUID
		var svc BookedService
		if err := rows.Scan(&apptID, &svc.ServiceID, &svc.Name, &svc.Price, &svc.Duration); err != nil {
			return nil, err
		}
		out[apptID] = append(out[apptID], svc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Booking ledger writes

// CreateAppointment claims a slot for an existing user. The slot check,
// conflict check and insert share one transaction; even if a racing
// writer slips between the check and the insert, the partial unique index
// on active (date, time) pairs rejects the second insert.
func (r *PgRepository) CreateAppointment(ctx context.Context, userID uuid.UUID, p BookingParams) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.checkSlot(ctx, tx, p.Date, p.Time); err != nil {
		return nil, err
	}

	appt, err := r.insertAppointment(ctx, tx, userID, p)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err, activeSlotConstraint) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}

	return appt, nil
}

// CreateManualAppointment claims a slot for a walk-in or phone client
// identified by contact email. The placeholder user is created in the
// same transaction, after the slot checks, so a rejected booking leaves
// no user row behind.
func (r *PgRepository) CreateManualAppointment(ctx context.Context, contact ContactInfo, p BookingParams) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.checkSlot(ctx, tx, p.Date, p.Time); err != nil {
		return nil, err
	}

	var userID uuid.UUID
	row := tx.QueryRow(ctx, `
		INSERT INTO users (id, name, email, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'client', now(), now())
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id
	`, uuid.New(), contact.Name, contact.Email, contact.Phone)
	if err := row.Scan(&userID); err != nil {
		return nil, fmt.Errorf("find or create client by email: %w", err)
	}

	appt, err := r.insertAppointment(ctx, tx, userID, p)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err, activeSlotConstraint) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}

	return appt, nil
}

func (r *PgRepository) checkSlot(ctx context.Context, tx pgx.Tx, date, t string) error {
	var slotExists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM slots WHERE date = $1 AND time = $2)
	`, date, t).Scan(&slotExists)
	if err != nil {
		return fmt.Errorf("check slot exists: %w", err)
	}
	if !slotExists {
		return ErrSlotNotFound
	}

	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE date = $1 AND time = $2 AND status <> 'cancelled'
		)
	`, date, t).Scan(&taken)
	if err != nil {
		return fmt.Errorf("check slot taken: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}

	return nil
}

// insertAppointment writes the appointment row and its line items. The
// caller has already run checkSlot inside the same transaction.
func (r *PgRepository) insertAppointment(ctx context.Context, tx pgx.Tx, userID uuid.UUID, p BookingParams) (*Appointment, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, date, time, notes, status, total_price, total_duration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, user_id, date, time, notes, status, total_price, total_duration, created_at, updated_at
	`, uuid.New(), userID, p.Date, p.Time, p.Notes, p.Status, p.TotalPrice, p.TotalDuration)

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err, activeSlotConstraint) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	for _, svc := range p.Services {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_services (appointment_id, service_id, name, price, duration)
			VALUES ($1, $2, $3, $4, $5)
		`, appt.ID, svc.ServiceID, svc.Name, svc.Price, svc.Duration)
		if err != nil {
			return nil, fmt.Errorf("insert appointment service: %w", err)
		}
	}
	appt.Services = p.Services

	return appt, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, user_id, date, time, notes, status, total_price, total_duration, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
