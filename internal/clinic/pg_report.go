package clinic

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

const ageBracketSQL = `
	SELECT
		CASE
			WHEN extract(year FROM age(birth_date)) < 30 THEN 'under 30'
			WHEN extract(year FROM age(birth_date)) BETWEEN 30 AND 50 THEN '30-50'
			WHEN extract(year FROM age(birth_date)) BETWEEN 51 AND 65 THEN '51-65'
			ELSE 'over 65'
		END AS bracket,
		count(*)
	FROM %TABLE%
	WHERE birth_date IS NOT NULL
	GROUP BY bracket
	ORDER BY min(extract(year FROM age(birth_date)))
`

func (r *PgRepository) DoctorsReport(ctx context.Context) (*DoctorsReport, error) {
	var report DoctorsReport

	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM doctors`).Scan(&report.Total)
	if err != nil {
		return nil, err
	}

	report.PerPlan, err = r.planCounts(ctx, `
		SELECT p.name, count(DISTINCT dp.doctor_id)
		FROM plans p
		LEFT JOIN doctor_plans dp ON dp.plan_id = p.id
		GROUP BY p.id, p.name
		ORDER BY count(DISTINCT dp.doctor_id) DESC
	`)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM doctors d
		LEFT JOIN doctor_plans dp ON dp.doctor_id = d.id
		WHERE dp.doctor_id IS NULL
	`).Scan(&report.NoPlan)
	if err != nil {
		return nil, err
	}

	report.PerAge, err = r.ageBrackets(ctx, "doctors")
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *PgRepository) PatientsReport(ctx context.Context) (*PatientsReport, error) {
	var report PatientsReport

	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM patients`).Scan(&report.Total)
	if err != nil {
		return nil, err
	}

	report.PerPlan, err = r.planCounts(ctx, `
		SELECT p.name, count(pat.id)
		FROM plans p
		LEFT JOIN patients pat ON pat.plan_id = p.id
		GROUP BY p.id, p.name
		ORDER BY count(pat.id) DESC
	`)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `SELECT count(*) FROM patients WHERE plan_id IS NULL`).Scan(&report.NoPlan)
	if err != nil {
		return nil, err
	}

	report.PerAge, err = r.ageBrackets(ctx, "patients")
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *PgRepository) AppointmentsReport(ctx context.Context) (*AppointmentsReport, error) {
	var report AppointmentsReport

	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM appointments`).Scan(&report.Total)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT to_char(scheduled_at, 'YYYY-MM') AS month, count(*)
		FROM appointments
		GROUP BY month
		ORDER BY month DESC
		LIMIT 12
	`)
	if err != nil {
		return nil, err
	}
	report.PerMonth, err = collectCounts(rows, func(label string, n int64) MonthCount {
		return MonthCount{Month: label, Count: n}
	})
	if err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT d.name, count(a.id)
		FROM doctors d
		LEFT JOIN appointments a ON a.doctor_id = d.id
		GROUP BY d.id, d.name
		ORDER BY count(a.id) DESC
	`)
	if err != nil {
		return nil, err
	}
	report.PerDoctor, err = collectCounts(rows, func(label string, n int64) DoctorCount {
		return DoctorCount{Doctor: label, Count: n}
	})
	if err != nil {
		return nil, err
	}

	report.PerPlan, err = r.planCounts(ctx, `
		SELECT p.name, count(a.id)
		FROM plans p
		LEFT JOIN patients pat ON pat.plan_id = p.id
		LEFT JOIN appointments a ON a.patient_id = pat.id
		GROUP BY p.id, p.name
		ORDER BY count(a.id) DESC
	`)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN patients pat ON pat.id = a.patient_id
		WHERE pat.plan_id IS NULL
	`).Scan(&report.NoPlan)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *PgRepository) planCounts(ctx context.Context, sql string) ([]PlanCount, error) {
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return collectCounts(rows, func(label string, n int64) PlanCount {
		return PlanCount{Plan: label, Count: n}
	})
}

func (r *PgRepository) ageBrackets(ctx context.Context, table string) ([]AgeBracketCount, error) {
	// table is one of our own identifiers, never user input
	sql := strings.Replace(ageBracketSQL, "%TABLE%", table, 1)
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return collectCounts(rows, func(label string, n int64) AgeBracketCount {
		return AgeBracketCount{Bracket: label, Count: n}
	})
}

func collectCounts[T any](rows pgx.Rows, row func(label string, n int64) T) ([]T, error) {
	defer rows.Close()

	var result []T
	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		result = append(result, row(label, n))
	}
	return result, rows.Err()
}
