package hospital

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/hospital-records/internal/records"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row) (records.Patient, error) {
	var (
		p  records.Patient
		id uuid.UUID
	)
	if err := row.Scan(&id, &p.Name, &p.Age, &p.Condition); err != nil {
		return records.Patient{}, err
	}
	p.ID = records.ID(id.String())
	return p, nil
}

func scanDoctor(row pgx.Row) (records.Doctor, error) {
	var (
		d  records.Doctor
		id uuid.UUID
	)
	if err := row.Scan(&id, &d.Name, &d.Specialization); err != nil {
		return records.Doctor{}, err
	}
	d.ID = records.ID(id.String())
	return d, nil
}

func scanAppointment(row pgx.Row) (records.Appointment, error) {
	var (
		a                   records.Appointment
		id, patient, doctor uuid.UUID
		date                time.Time
	)
	if err := row.Scan(&id, &patient, &doctor, &date); err != nil {
		return records.Appointment{}, err
	}
	a.ID = records.ID(id.String())
	a.PatientID = records.ID(patient.String())
	a.DoctorID = records.ID(doctor.String())
	a.Date = records.Date{Time: date}
	return a, nil
}

func collect[T any](ctx context.Context, pool *pgxpool.Pool, scan func(pgx.Row) (T, error), query string) ([]T, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func parseID(id records.ID) (uuid.UUID, error) {
	u, err := uuid.Parse(id.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("id %q: %w", id, err)
	}
	return u, nil
}

// Interface methods

func (r *PgRepository) ListPatients(ctx context.Context) ([]records.Patient, error) {
	return collect(ctx, r.pool, scanPatient, `
		SELECT id, name, age, condition
		FROM patients
		ORDER BY created_at, id
	`)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]records.Doctor, error) {
	return collect(ctx, r.pool, scanDoctor, `
		SELECT id, name, specialization
		FROM doctors
		ORDER BY created_at, id
	`)
}

func (r *PgRepository) ListAppointments(ctx context.Context) ([]records.Appointment, error) {
	return collect(ctx, r.pool, scanAppointment, `
		SELECT id, patient_id, doctor_id, date
		FROM appointments
		ORDER BY created_at, id
	`)
}

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *PgRepository) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *PgRepository) InsertPatient(ctx context.Context, p records.Patient) error {
	id, err := parseID(p.ID)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, age, condition, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, id, p.Name, p.Age, p.Condition)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PgRepository) InsertDoctor(ctx context.Context, d records.Doctor) error {
	id, err := parseID(d.ID)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, specialization, created_at)
		VALUES ($1, $2, $3, now())
	`, id, d.Name, d.Specialization)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *PgRepository) InsertAppointment(ctx context.Context, a records.Appointment) error {
	id, err := parseID(a.ID)
	if err != nil {
		return err
	}
	patient, err := parseID(a.PatientID)
	if err != nil {
		return err
	}
	doctor, err := parseID(a.DoctorID)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, date, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, id, patient, doctor, a.Date.Time)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}
