package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/config"
	"github.com/hackgods/hospital-records/internal/logging"
	"github.com/hackgods/hospital-records/internal/records"
	"github.com/hackgods/hospital-records/internal/remote"
	"github.com/hackgods/hospital-records/internal/session"
)

// API is the part of remote.Client the simulator drives.
type API interface {
	ListPatients(ctx context.Context) ([]records.Patient, error)
	ListDoctors(ctx context.Context) ([]records.Doctor, error)
	ListAppointments(ctx context.Context) ([]records.Appointment, error)
	CreatePatient(ctx context.Context, p records.NewPatient) (records.Patient, error)
	CreateAppointment(ctx context.Context, a records.NewAppointment) (records.Appointment, error)
}

// DataPool holds ids known to exist, so bookings reference real rows.
type DataPool struct {
	mu       sync.RWMutex
	patients []records.ID
	doctors  []records.ID
}

func (dp *DataPool) AddPatient(id records.ID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.patients = append(dp.patients, id)
}

func (dp *DataPool) Pick(rng *rand.Rand) (patient, doctor records.ID, ok bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.patients) == 0 || len(dp.doctors) == 0 {
		return "", "", false
	}
	return dp.patients[rng.Intn(len(dp.patients))], dp.doctors[rng.Intn(len(dp.doctors))], true
}

type Metrics struct {
	CreatePatient OperationMetrics
	Book          OperationMetrics
	List          OperationMetrics
}

type Simulator struct {
	config  config.Simulation
	api     API
	pool    *DataPool
	metrics Metrics
}

func main() {
	cfg, err := config.LoadSimulation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Setup(logging.Options{
		App:              "simulate",
		Level:            cfg.LogLevel,
		ElasticsearchURL: cfg.ElasticsearchURL,
		Index:            "records-simulate",
	}); err != nil {
		log.Fatal().Err(err).Msg("logging setup error")
	}

	log.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("create", cfg.CreateRatio).
		Float64("book", cfg.BookRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var token string
	client := remote.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout,
		remote.WithTokenSource(remote.TokenFunc(func() string { return token })))
	if cfg.AuthMode == config.AuthRemote {
		tok, err := client.Authenticate(ctx, session.Credentials{Username: cfg.AuthUsername, Password: cfg.AuthPassword})
		if err != nil {
			log.Fatal().Err(err).Msg("login failed")
		}
		token = string(tok)
	}

	sim := &Simulator{config: cfg, api: client}
	if err := sim.Prepare(ctx); err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}

	sim.Run(ctx)
	sim.PrintReport(os.Stdout)
}

// Prepare loads the current patients and doctors. Doctors cannot be created
// through the API, so at least one must already exist (see cmd/seed).
func (s *Simulator) Prepare(ctx context.Context) error {
	patients, err := s.api.ListPatients(ctx)
	if err != nil {
		return err
	}
	doctors, err := s.api.ListDoctors(ctx)
	if err != nil {
		return err
	}
	if len(doctors) == 0 {
		return errors.New("no doctors loaded, run cmd/seed first")
	}

	s.pool = &DataPool{}
	for _, p := range patients {
		s.pool.patients = append(s.pool.patients, p.ID)
	}
	for _, d := range doctors {
		s.pool.doctors = append(s.pool.doctors, d.ID)
	}
	log.Info().Int("patients", len(patients)).Int("doctors", len(doctors)).Msg("data pool loaded")
	return nil
}

func (s *Simulator) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.config.CreateRatio:
			s.doCreatePatient(ctx)
		case r < s.config.CreateRatio+s.config.BookRatio:
			s.doBook(ctx, rng)
		default:
			s.doList(ctx, rng)
		}
	}
}

func (s *Simulator) doCreatePatient(ctx context.Context) {
	start := time.Now()
	p, err := s.api.CreatePatient(ctx, records.NewPatient{
		Name:      gofakeit.Name(),
		Age:       gofakeit.Number(0, 99),
		Condition: gofakeit.Word(),
	})
	s.metrics.CreatePatient.Record(time.Since(start), err)
	if err == nil {
		s.pool.AddPatient(p.ID)
	}
}

func (s *Simulator) doBook(ctx context.Context, rng *rand.Rand) {
	patient, doctor, ok := s.pool.Pick(rng)
	if !ok {
		return
	}
	date := records.Date{Time: time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, rng.Intn(60))}

	start := time.Now()
	_, err := s.api.CreateAppointment(ctx, records.NewAppointment{PatientID: patient, DoctorID: doctor, Date: date})
	s.metrics.Book.Record(time.Since(start), err)
}

func (s *Simulator) doList(ctx context.Context, rng *rand.Rand) {
	start := time.Now()
	var err error
	switch records.AllCollections[rng.Intn(len(records.AllCollections))] {
	case records.Patients:
		_, err = s.api.ListPatients(ctx)
	case records.Doctors:
		_, err = s.api.ListDoctors(ctx)
	case records.Appointments:
		_, err = s.api.ListAppointments(ctx)
	}
	s.metrics.List.Record(time.Since(start), err)
}

func (s *Simulator) PrintReport(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "SIMULATION REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "Duration: %s\n", s.config.Duration)
	fmt.Fprintf(w, "Workers: %d\n\n", s.config.Workers)

	s.metrics.CreatePatient.Report(w, "Create patient")
	s.metrics.Book.Report(w, "Book appointment")
	s.metrics.List.Report(w, "List collection")
}
