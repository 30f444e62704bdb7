package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/medischedule/internal/db"
)

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

const appointmentColumns = `id, patient_id, professional_id, specialty_id, date_time, status, type,
	location, notes, video_call_link, origin, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a                        Appointment
		specialtyID, location    *string
		notes, videoCallLink     *string
		status, apptType, origin string
	)

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProfessionalID,
		&specialtyID,
		&a.DateTime,
		&status,
		&apptType,
		&location,
		&notes,
		&videoCallLink,
		&origin,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Status = Status(status)
	a.Type = Type(apptType)
	a.Origin = Role(origin)
	a.SpecialtyID = deref(specialtyID)
	a.Location = deref(location)
	a.Notes = deref(notes)
	a.VideoCallLink = deref(videoCallLink)
	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, professional_id, specialty_id, date_time, status, type,
			location, notes, video_call_link, origin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING `+appointmentColumns,
		a.ID, a.PatientID, a.ProfessionalID, nullable(a.SpecialtyID), a.DateTime, string(a.Status), string(a.Type),
		nullable(a.Location), nullable(a.Notes), nullable(a.VideoCallLink), string(a.Origin))

	created, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, string(to), string(from))

	return scanAppointment(row)
}

func (r *PgRepository) UpdateDateTime(ctx context.Context, id uuid.UUID, dateTime time.Time) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET date_time = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, dateTime)

	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context, q Query) ([]Appointment, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if q.PatientID != "" {
		add("patient_id = $%d", q.PatientID)
	}
	if q.ProfessionalID != "" {
		add("professional_id = $%d", q.ProfessionalID)
	}
	if q.Status != "" {
		add("status = $%d", string(q.Status))
	}
	if !q.From.IsZero() {
		add("date_time >= $%d", q.From)
	}
	if !q.To.IsZero() {
		add("date_time < $%d", q.To)
	}

	sql := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conds) > 0 {
		sql += ` WHERE ` + strings.Join(conds, " AND ")
	}
	sql += ` ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
