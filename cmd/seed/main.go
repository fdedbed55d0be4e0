package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalbook/doctor-assignment/internal/assignment"
	"github.com/dentalbook/doctor-assignment/internal/db"
)

type seedArea struct {
	Area    string
	City    string
	State   string
	Pincode string
}

var areas = []seedArea{
	{"Koramangala", "Bengaluru", "Karnataka", "560034"},
	{"Indiranagar", "Bengaluru", "Karnataka", "560038"},
	{"HSR Layout", "Bengaluru", "Karnataka", "560102"},
	{"Whitefield", "Bengaluru", "Karnataka", "560066"},
	{"Jayanagar", "Bengaluru", "Karnataka", "560041"},
	{"Malleshwaram", "Bengaluru", "Karnataka", "560003"},
	{"Electronic City", "Bengaluru", "Karnataka", "560100"},
	{"Yelahanka", "Bengaluru", "Karnataka", "560064"},
}

var specializations = []assignment.Specialization{
	assignment.SpecGeneral,
	assignment.SpecOrthodontist,
	assignment.SpecEndodontist,
	assignment.SpecPeriodontist,
	assignment.SpecOralSurgeon,
	assignment.SpecPediatricDentist,
	assignment.SpecProsthodontist,
	assignment.SpecCosmeticDentist,
}

var symptomSamples = []string{
	"crooked teeth need braces",
	"severe pain, might need a root canal",
	"bleeding gums while brushing",
	"impacted wisdom tooth extraction",
	"routine cleaning and checkup",
	"teeth whitening, yellow stains",
	"broken crown needs replacement",
	"my kid has a toothache",
	"small cavity in a molar",
}

var modes = []assignment.VisitMode{
	assignment.ModeVirtual,
	assignment.ModeHome,
	assignment.ModeClinic,
}

var clockTimes = []string{"09:00", "09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00", "16:00"}

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

	if err := seedPractitioners(context.Background(), pool, 40); err != nil {
		log.Fatalf("seed practitioners: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, 200); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d practitioners", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specializations[gofakeit.Number(0, len(specializations)-1)]
		area := areas[gofakeit.Number(0, len(areas)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO practitioners (id, name, specialization, status, area, city, state, pincode, full_address, created_at, updated_at)
			VALUES ($1, $2, $3, 'approved', $4, $5, $6, $7, $8, now(), now())
		`, id, name, spec, area.Area, area.City, area.State, area.Pincode,
			gofakeit.Street()+", "+area.Area+", "+area.City)
		if err != nil {
			return err
		}

		// Most practitioners declare a weekday schedule; leave some without
		// one so the fallback bucket has members.
		if gofakeit.Number(0, 9) < 8 {
			_, err = tx.Exec(ctx, `
				INSERT INTO working_schedules (doctor_id, sunday, monday, tuesday, wednesday, thursday, friday, saturday,
					start_time, end_time, break_start, break_end, slot_minutes, created_at, updated_at)
				VALUES ($1, false, true, true, true, true, true, $2, '09:00', '17:00', '13:00', '14:00', 30, now(), now())
			`, id, gofakeit.Bool())
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("practitioners seeded")
	return nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d pending appointments", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			patientID := uuid.New()
			area := areas[gofakeit.Number(0, len(areas)-1)]
			date := time.Now().AddDate(0, 0, gofakeit.Number(1, 14))

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, patient_id, patient_name, patient_location, date, clock_time, mode,
					symptoms, status, doctor_name, doctor_specialization, assignment_type, assigned_by,
					assignment_warning, prev_doctor_name, reassign_reason, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', '', '', '', '', '', '', '', now(), now())
			`, id, patientID, gofakeit.Name(),
				area.Area+", "+area.City+", "+area.Pincode,
				date.Format("2006-01-02"),
				clockTimes[gofakeit.Number(0, len(clockTimes)-1)],
				modes[gofakeit.Number(0, len(modes)-1)],
				symptomSamples[gofakeit.Number(0, len(symptomSamples)-1)])
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", end, count)
	}

	log.Println("appointments seeded")
	return nil
}
