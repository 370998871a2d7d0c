package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	var price string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&price,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse plan price: %w", err)
	}
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.TaxID,
		&d.LicenseNumber,
		&d.BirthDate,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var planID *int64

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.TaxID,
		&p.BirthDate,
		&planID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.PlanID = planID
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var price string
	var notes *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ScheduledAt,
		&price,
		&a.Status,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse appointment price: %w", err)
	}
	a.Notes = notes
	return &a, nil
}

// uniqueViolation maps a 23505 to the domain error matching the constraint.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "plans_pkey":
		return ErrPlanIDTaken
	case "doctors_tax_id_key":
		return ErrTaxIDTaken
	case "doctors_license_number_key":
		return ErrLicenseTaken
	case "patients_tax_id_key":
		return ErrTaxIDTaken
	case "appointments_doctor_slot_idx":
		return ErrScheduleConflict
	}
	return err
}

// Plans

func (r *PgRepository) GetPlanByID(ctx context.Context, id int64) (*Plan, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, price::text, created_at, updated_at
		FROM plans
		WHERE id = $1
	`, id)
	return scanPlan(row)
}

func (r *PgRepository) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price::text, created_at, updated_at
		FROM plans
		ORDER BY price
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreatePlan(ctx context.Context, p *Plan) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO plans (id, name, price, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, now(), now())
	`, p.ID, p.Name, p.Price.StringFixed(2))
	if err != nil {
		return uniqueViolation(err)
	}
	return nil
}

func (r *PgRepository) UpdatePlan(ctx context.Context, p *Plan) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE plans
		SET name = $2,
		    price = $3::numeric,
		    updated_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.Price.StringFixed(2))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PgRepository) DeletePlan(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PgRepository) CountPlanDependents(ctx context.Context, planID int64) (int64, int64, error) {
	var doctors, patients int64
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(DISTINCT doctor_id) FROM doctor_plans WHERE plan_id = $1),
			(SELECT count(*) FROM patients WHERE plan_id = $1)
	`, planID).Scan(&doctors, &patients)
	if err != nil {
		return 0, 0, err
	}
	return doctors, patients, nil
}

// Doctors

func (r *PgRepository) GetDoctorByID(ctx context.Context, id int64) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, tax_id, license_number, birth_date, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	d, err := scanDoctor(row)
	if err != nil {
		return nil, err
	}

	d.Plans, err = r.doctorPlans(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *PgRepository) doctorPlans(ctx context.Context, doctorID int64) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.price::text, p.created_at, p.updated_at
		FROM doctor_plans dp
		JOIN plans p ON p.id = dp.plan_id
		WHERE dp.doctor_id = $1
		ORDER BY p.price
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetDoctorByTaxID(ctx context.Context, taxID string) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, tax_id, license_number, birth_date, created_at, updated_at
		FROM doctors
		WHERE tax_id = $1
	`, taxID)
	return scanDoctor(row)
}

func (r *PgRepository) GetDoctorByLicense(ctx context.Context, licenseNumber string) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, tax_id, license_number, birth_date, created_at, updated_at
		FROM doctors
		WHERE license_number = $1
	`, licenseNumber)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return r.queryDoctors(ctx, `
		SELECT id, name, tax_id, license_number, birth_date, created_at, updated_at
		FROM doctors
		ORDER BY name
	`)
}

func (r *PgRepository) ListDoctorsByPlan(ctx context.Context, planID int64) ([]Doctor, error) {
	return r.queryDoctors(ctx, `
		SELECT DISTINCT d.id, d.name, d.tax_id, d.license_number, d.birth_date, d.created_at, d.updated_at
		FROM doctors d
		JOIN doctor_plans dp ON dp.doctor_id = d.id
		WHERE dp.plan_id = $1
		ORDER BY d.name
	`, planID)
}

func (r *PgRepository) queryDoctors(ctx context.Context, sql string, args ...any) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		result[i].Plans, err = r.doctorPlans(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor, planIDs []int64) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO doctors (name, tax_id, license_number, birth_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			RETURNING id
		`, d.Name, d.TaxID, d.LicenseNumber, d.BirthDate).Scan(&id)
		if err != nil {
			return uniqueViolation(err)
		}
		return insertDoctorPlans(ctx, tx, id, planIDs)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateDoctor replaces the full plan-association set rather than diffing.
func (r *PgRepository) UpdateDoctor(ctx context.Context, d *Doctor, planIDs []int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE doctors
			SET name = $2,
			    tax_id = $3,
			    license_number = $4,
			    birth_date = $5,
			    updated_at = now()
			WHERE id = $1
		`, d.ID, d.Name, d.TaxID, d.LicenseNumber, d.BirthDate)
		if err != nil {
			return uniqueViolation(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrDoctorNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM doctor_plans WHERE doctor_id = $1`, d.ID); err != nil {
			return err
		}
		return insertDoctorPlans(ctx, tx, d.ID, planIDs)
	})
}

func insertDoctorPlans(ctx context.Context, tx pgx.Tx, doctorID int64, planIDs []int64) error {
	for _, planID := range planIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO doctor_plans (doctor_id, plan_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, doctorID, planID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PgRepository) DeleteDoctor(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

// Patients

func (r *PgRepository) GetPatientByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, tax_id, birth_date, plan_id, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByTaxID(ctx context.Context, taxID string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, tax_id, birth_date, plan_id, created_at, updated_at
		FROM patients
		WHERE tax_id = $1
	`, taxID)
	return scanPatient(row)
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	return r.queryPatients(ctx, `
		SELECT id, name, tax_id, birth_date, plan_id, created_at, updated_at
		FROM patients
		ORDER BY name
	`)
}

func (r *PgRepository) ListPatientsByPlan(ctx context.Context, planID int64) ([]Patient, error) {
	return r.queryPatients(ctx, `
		SELECT id, name, tax_id, birth_date, plan_id, created_at, updated_at
		FROM patients
		WHERE plan_id = $1
		ORDER BY name
	`, planID)
}

func (r *PgRepository) queryPatients(ctx context.Context, sql string, args ...any) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO patients (name, tax_id, birth_date, plan_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id
	`, p.Name, p.TaxID, p.BirthDate, p.PlanID).Scan(&id)
	if err != nil {
		return 0, uniqueViolation(err)
	}
	return id, nil
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET name = $2,
		    tax_id = $3,
		    birth_date = $4,
		    plan_id = $5,
		    updated_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.TaxID, p.BirthDate, p.PlanID)
	if err != nil {
		return uniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) DeletePatient(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// Appointments

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, scheduled_at, price::text, status, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

const appointmentDetailSQL = `
	SELECT
		a.id, a.patient_id, a.doctor_id, a.scheduled_at, a.price::text, a.status, a.notes,
		a.created_at, a.updated_at,
		pat.name, pat.tax_id,
		doc.name, doc.license_number,
		pl.id, pl.name
	FROM appointments a
	JOIN patients pat ON pat.id = a.patient_id
	JOIN doctors doc ON doc.id = a.doctor_id
	LEFT JOIN plans pl ON pl.id = pat.plan_id
`

func scanAppointmentDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var price string

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.DoctorID,
		&d.ScheduledAt,
		&price,
		&d.Status,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.PatientName,
		&d.PatientTaxID,
		&d.DoctorName,
		&d.DoctorLicense,
		&d.PlanID,
		&d.PlanName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	d.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse appointment price: %w", err)
	}
	return &d, nil
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, appointmentDetailSQL+` WHERE a.id = $1`, id)
	return scanAppointmentDetail(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, appointmentDetailSQL+` ORDER BY a.scheduled_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) HasScheduleConflict(ctx context.Context, doctorID int64, at time.Time, excludeID *int64) (bool, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE doctor_id = $1
		  AND date_trunc('minute', scheduled_at) = date_trunc('minute', $2::timestamptz)
		  AND status <> 'cancelled'
		  AND ($3::bigint IS NULL OR id <> $3)
	`, doctorID, at, excludeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, scheduled_at, price, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, now(), now())
		RETURNING id
	`, a.PatientID, a.DoctorID, a.ScheduledAt, a.Price.StringFixed(2), a.Status, a.Notes).Scan(&id)
	if err != nil {
		return 0, uniqueViolation(err)
	}
	return id, nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    scheduled_at = $3,
		    price = $4::numeric,
		    status = $5,
		    notes = $6,
		    updated_at = now()
		WHERE id = $1
	`, a.ID, a.DoctorID, a.ScheduledAt, a.Price.StringFixed(2), a.Status, a.Notes)
	if err != nil {
		return uniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
