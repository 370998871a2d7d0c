package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medsuite/clinic-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedPlans(context.Background(), pool); err != nil {
		log.Fatalf("seed plans: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedPlans(ctx context.Context, pool *pgxpool.Pool) error {
	plans := []struct {
		id    int64
		name  string
		price string
	}{
		{1, "Basic", "100.00"},
		{2, "Silver", "150.00"},
		{3, "Gold", "200.00"},
	}

	log.Printf("seeding %d plans", len(plans))

	for _, p := range plans {
		_, err := pool.Exec(ctx, `
			INSERT INTO plans (id, name, price, created_at, updated_at)
			VALUES ($1, $2, $3::numeric, now(), now())
			ON CONFLICT (id) DO NOTHING
		`, p.id, p.name, p.price)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		name := "Dr. " + gofakeit.Name()
		taxID := fmt.Sprintf("D%010d", gofakeit.Number(0, 999_999_999))
		license := fmt.Sprintf("LIC-%06d", gofakeit.Number(100_000, 999_999))
		birth := gofakeit.DateRange(
			time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(1998, 12, 31, 0, 0, 0, 0, time.UTC),
		)

		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO doctors (name, tax_id, license_number, birth_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT DO NOTHING
			RETURNING id
		`, name, taxID, license, birth).Scan(&id)
		if err != nil {
			if err == pgx.ErrNoRows {
				continue
			}
			return err
		}

		// Each doctor accepts a random non-empty subset of the plans.
		for planID := int64(1); planID <= 3; planID++ {
			if gofakeit.Bool() || planID == int64(gofakeit.Number(1, 3)) {
				_, err := tx.Exec(ctx, `
					INSERT INTO doctor_plans (doctor_id, plan_id)
					VALUES ($1, $2)
					ON CONFLICT DO NOTHING
				`, id, planID)
				if err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit(ctx)
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		taxID := fmt.Sprintf("P%010d", gofakeit.Number(0, 999_999_999))
		birth := gofakeit.DateRange(
			time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC),
		)

		// Roughly one patient in ten has no coverage.
		var planID *int64
		if gofakeit.Number(0, 9) > 0 {
			p := int64(gofakeit.Number(1, 3))
			planID = &p
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (name, tax_id, birth_date, plan_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT DO NOTHING
		`, name, taxID, birth, planID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
