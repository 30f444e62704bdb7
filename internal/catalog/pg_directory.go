package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/medischedule/internal/db"
)

type PgDirectory struct {
	db db.DBTX
}

func NewPgDirectory(conn db.DBTX) *PgDirectory {
	return &PgDirectory{db: conn}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Document, &p.Email, &p.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (d *PgDirectory) GetPatient(ctx context.Context, id string) (*Patient, error) {
	row := d.db.QueryRow(ctx, `
		SELECT id, name, document, email, phone
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (d *PgDirectory) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := d.db.Query(ctx, `
		SELECT id, name, document, email, phone
		FROM patients
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (d *PgDirectory) GetSpecialty(ctx context.Context, id string) (*Specialty, error) {
	var s Specialty
	err := d.db.QueryRow(ctx, `SELECT id, name FROM specialties WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (d *PgDirectory) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	rows, err := d.db.Query(ctx, `SELECT id, name FROM specialties ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	defer rows.Close()

	var out []Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *PgDirectory) GetProfessional(ctx context.Context, id string) (*Professional, error) {
	var p Professional
	err := d.db.QueryRow(ctx, `
		SELECT id, name, document
		FROM professionals
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}

	if err := d.loadDetails(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *PgDirectory) ListProfessionals(ctx context.Context) ([]Professional, error) {
	rows, err := d.db.Query(ctx, `
		SELECT id, name, document
		FROM professionals
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}

	var out []Professional
	for rows.Next() {
		var p Professional
		if err := rows.Scan(&p.ID, &p.Name, &p.Document); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := d.loadDetails(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *PgDirectory) loadDetails(ctx context.Context, p *Professional) error {
	rows, err := d.db.Query(ctx, `
		SELECT specialty_id
		FROM professional_specialties
		WHERE professional_id = $1
		ORDER BY specialty_id
	`, p.ID)
	if err != nil {
		return fmt.Errorf("load specialties of %s: %w", p.ID, err)
	}
	p.SpecialtyIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		p.SpecialtyIDs = append(p.SpecialtyIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = d.db.Query(ctx, `
		SELECT day, slots
		FROM availability_days
		WHERE professional_id = $1
		ORDER BY day
	`, p.ID)
	if err != nil {
		return fmt.Errorf("load availability of %s: %w", p.ID, err)
	}
	defer rows.Close()

	p.Availability = nil
	for rows.Next() {
		var day AvailabilityDay
		if err := rows.Scan(&day.Date, &day.Slots); err != nil {
			return err
		}
		p.Availability = append(p.Availability, day)
	}
	return rows.Err()
}

// UpsertPatient writes a patient, replacing an existing row with the same id.
func (d *PgDirectory) UpsertPatient(ctx context.Context, p Patient) error {
	_, err := d.db.Exec(ctx, `
		INSERT INTO patients (id, name, document, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, document = EXCLUDED.document,
		    email = EXCLUDED.email, phone = EXCLUDED.phone
	`, p.ID, p.Name, p.Document, p.Email, p.Phone)
	if err != nil {
		return fmt.Errorf("upsert patient %s: %w", p.ID, err)
	}
	return nil
}

func (d *PgDirectory) UpsertSpecialty(ctx context.Context, s Specialty) error {
	_, err := d.db.Exec(ctx, `
		INSERT INTO specialties (id, name, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("upsert specialty %s: %w", s.ID, err)
	}
	return nil
}

// UpsertProfessional replaces a professional together with its specialties
// and availability in one transaction.
func (d *PgDirectory) UpsertProfessional(ctx context.Context, p Professional) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO professionals (id, name, document, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, document = EXCLUDED.document
	`, p.ID, p.Name, p.Document); err != nil {
		return fmt.Errorf("upsert professional %s: %w", p.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM professional_specialties WHERE professional_id = $1`, p.ID); err != nil {
		return err
	}
	for _, specID := range p.SpecialtyIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO professional_specialties (professional_id, specialty_id)
			VALUES ($1, $2)
		`, p.ID, specID); err != nil {
			return fmt.Errorf("link specialty %s: %w", specID, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM availability_days WHERE professional_id = $1`, p.ID); err != nil {
		return err
	}
	for _, day := range p.Availability {
		date := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), 0, 0, 0, 0, time.UTC)
		if _, err := tx.Exec(ctx, `
			INSERT INTO availability_days (professional_id, day, slots)
			VALUES ($1, $2, $3)
		`, p.ID, date, day.Slots); err != nil {
			return fmt.Errorf("insert availability %s: %w", date.Format(DateLayout), err)
		}
	}

	return tx.Commit(ctx)
}
