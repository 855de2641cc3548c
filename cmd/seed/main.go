package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/velvetrow/salon-booking/internal/db"
)

// Demo credentials for every seeded account.
const seedPassword = "salon-demo"

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

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedUsers(context.Background(), pool, 40); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	if err := seedServices(context.Background(), pool); err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedSlots(context.Background(), pool, 14); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, clients int) error {
	log.Printf("seeding 1 admin and %d clients", clients)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'admin', now(), now())
		ON CONFLICT (email) DO NOTHING
	`, uuid.New(), "Salon Operator", "admin@salon.local", gofakeit.Phone(), string(hash))
	if err != nil {
		return err
	}

	for i := 0; i < clients; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, name, email, phone, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'client', now(), now())
			ON CONFLICT (email) DO NOTHING
		`, uuid.New(), gofakeit.Name(), gofakeit.Email(), gofakeit.Phone(), string(hash))
		if err != nil {
			return err
		}
	}

	return nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	treatments := []struct {
		name     string
		price    float64
		duration int
	}{
		{"Haircut & Styling", 45, 60},
		{"Hair Coloring", 90, 120},
		{"Balayage", 140, 180},
		{"Manicure", 30, 45},
		{"Pedicure", 35, 60},
		{"Facial Treatment", 65, 75},
		{"Eyebrow Shaping", 20, 30},
		{"Makeup Session", 55, 60},
	}

	log.Printf("seeding %d services", len(treatments))

	for _, t := range treatments {
		_, err := pool.Exec(ctx, `
			INSERT INTO services (id, name, price, duration, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, now(), now())
			ON CONFLICT (name) DO NOTHING
		`, uuid.New(), t.name, t.price, t.duration)
		if err != nil {
			return err
		}
	}

	return nil
}

func seedSlots(ctx context.Context, pool *pgxpool.Pool, days int) error {
	times := []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00"}

	log.Printf("seeding slots for the next %d days", days)

	start := time.Now().AddDate(0, 0, 1)
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		if day.Weekday() == time.Sunday {
			continue
		}
		date := day.Format("2006-01-02")

		for _, t := range times {
			_, err := pool.Exec(ctx, `
				INSERT INTO slots (id, date, time, created_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (date, time) DO NOTHING
			`, uuid.New(), date, t)
			if err != nil {
				return err
			}
		}
	}

	return nil
}
