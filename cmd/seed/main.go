package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/webmarket/dental-scheduling/internal/db"
	"github.com/webmarket/dental-scheduling/internal/directory"
	"github.com/webmarket/dental-scheduling/internal/scheduling"
)

const (
	dentistCount = 20
	patientCount = 500
	slotDays     = 14
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

	gofakeit.Seed(time.Now().UnixNano())

	dirStore := directory.NewPgStore(pool)
	slotStore := scheduling.NewPgStore(pool)

	dentists, err := seedDentists(context.Background(), dirStore, dentistCount)
	if err != nil {
		log.Fatalf("seed dentists: %v", err)
	}
	if err := seedPatients(context.Background(), dirStore, patientCount); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSlots(context.Background(), slotStore, dentists); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func fakeUser(isDentist bool) *directory.User {
	prefix := "pat"
	if isDentist {
		prefix = "dr"
	}
	return &directory.User{
		ID:           uuid.New(),
		Username:     fmt.Sprintf("%s_%s%d", prefix, strings.ToLower(gofakeit.LastName()), gofakeit.Number(100, 9999)),
		PasswordHash: gofakeit.UUID(),
		IsDentist:    isDentist,
	}
}

func seedDentists(ctx context.Context, store *directory.PgStore, count int) ([]directory.Dentist, error) {
	log.Printf("seeding %d dentists", count)

	result := make([]directory.Dentist, 0, count)
	for i := 0; i < count; i++ {
		d := &directory.Dentist{
			ID:        uuid.New(),
			Cedula:    fmt.Sprintf("%010d", gofakeit.Number(1000000000, 1999999999)),
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Phone:     gofakeit.Phone(),
			Email:     gofakeit.Email(),
			Address:   gofakeit.Address().Address,
		}
		created, err := store.CreateDentist(ctx, d, fakeUser(true))
		if err != nil {
			return nil, err
		}
		result = append(result, *created)
	}

	log.Println("dentists seeded")
	return result, nil
}

func seedPatients(ctx context.Context, store *directory.PgStore, count int) error {
	log.Printf("seeding %d patients", count)

	for i := 0; i < count; i++ {
		p := &directory.Patient{
			ID:        uuid.New(),
			Cedula:    fmt.Sprintf("%010d", gofakeit.Number(2000000000, 2147483646)),
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Phone:     gofakeit.Phone(),
			Email:     gofakeit.Email(),
			BirthDate: gofakeit.DateRange(time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC)),
			Address:   gofakeit.Address().Address,
		}
		if _, err := store.CreatePatient(ctx, p, fakeUser(false)); err != nil {
			return err
		}
		if (i+1)%100 == 0 {
			log.Printf("patients seeded: %d/%d", i+1, count)
		}
	}

	log.Println("patients seeded")
	return nil
}

// seedSlots creates hourly windows, 09:00 to 17:00, for each dentist
// over the next slotDays days.
func seedSlots(ctx context.Context, store *scheduling.PgStore, dentists []directory.Dentist) error {
	log.Printf("seeding slots for %d dentists", len(dentists))

	total := 0
	today := time.Now().Truncate(24 * time.Hour)
	for _, d := range dentists {
		for day := 1; day <= slotDays; day++ {
			date := today.AddDate(0, 0, day)
			for hour := 9; hour < 17; hour++ {
				slot := &scheduling.Slot{
					ID:        uuid.New(),
					DentistID: d.ID,
					Date:      date,
					StartTime: time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.Local),
					EndTime:   time.Date(date.Year(), date.Month(), date.Day(), hour+1, 0, 0, 0, time.Local),
					Available: true,
				}
				if _, err := store.SaveSlot(ctx, slot); err != nil {
					return err
				}
				total++
			}
		}
	}

	log.Printf("slots seeded: %d", total)
	return nil
}
