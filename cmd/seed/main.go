package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/db"
	"github.com/hackgods/hospital-records/internal/hospital"
	"github.com/hackgods/hospital-records/internal/logging"
	"github.com/hackgods/hospital-records/internal/records"
)

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var conditions = []string{
	"flu",
	"hypertension",
	"asthma",
	"diabetes",
	"migraine",
	"fracture",
	"allergy",
	"bronchitis",
}

func main() {
	doctors := flag.Int("doctors", 20, "number of doctors to create")
	patients := flag.Int("patients", 200, "number of patients to create")
	flag.Parse()

	if err := logging.Setup(logging.Options{App: "seed", Level: os.Getenv("LOG_LEVEL")}); err != nil {
		log.Fatal().Err(err).Msg("logging setup error")
	}
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}

	if s := os.Getenv("SEED"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			log.Fatal().Err(err).Msg("SEED must be an unsigned integer")
		}
		if err := gofakeit.Seed(n); err != nil {
			log.Fatal().Err(err).Msg("seed faker")
		}
	}

	// Seeding goes through the service so every row passes the same
	// validation the API applies.
	svc := hospital.NewService(hospital.NewPgRepository(pool))

	if err := seedDoctors(context.Background(), svc, *doctors); err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(context.Background(), svc, *patients); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}

	log.Info().Msg("seed complete")
}

func seedDoctors(ctx context.Context, svc *hospital.Service, count int) error {
	log.Info().Int("count", count).Msg("seeding doctors")

	for i := 0; i < count; i++ {
		name := "Dr. " + gofakeit.LastName()
		spec := specializations[gofakeit.Number(0, len(specializations)-1)]
		if _, err := svc.CreateDoctor(ctx, name, spec); err != nil {
			return err
		}
	}

	log.Info().Msg("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, svc *hospital.Service, count int) error {
	log.Info().Int("count", count).Msg("seeding patients")

	const progressEvery = 50

	for i := 0; i < count; i++ {
		_, err := svc.CreatePatient(ctx, records.NewPatient{
			Name:      gofakeit.Name(),
			Age:       gofakeit.Number(0, 99),
			Condition: conditions[gofakeit.Number(0, len(conditions)-1)],
		})
		if err != nil {
			return err
		}
		if (i+1)%progressEvery == 0 {
			log.Info().Int("done", i+1).Int("total", count).Msg("patients seeded")
		}
	}

	log.Info().Msg("patients seeded")
	return nil
}
