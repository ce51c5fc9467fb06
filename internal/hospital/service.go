package hospital

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/metrics"
	"github.com/hackgods/hospital-records/internal/records"
	redisclient "github.com/hackgods/hospital-records/internal/redis"
)

// ListCache stores encoded collection listings. redisclient.ListCache
// implements it.
type ListCache interface {
	Get(ctx context.Context, collection string, dest any) (bool, error)
	Set(ctx context.Context, collection string, items any) error
	Invalidate(ctx context.Context, collection string) error
}

type Service struct {
	repo   Repository
	cache  ListCache
	locker redisclient.Locker
	newID  func() string
}

type Option func(*Service)

// WithListCache serves listings from cache until the collection is written.
// The locker, if not nil, lets only one replica at a time refill an entry.
func WithListCache(cache ListCache, locker redisclient.Locker) Option {
	return func(s *Service) {
		s.cache = cache
		s.locker = locker
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListPatients(ctx context.Context) ([]records.Patient, error) {
	return cachedList(ctx, s, records.Patients, s.repo.ListPatients)
}

func (s *Service) ListDoctors(ctx context.Context) ([]records.Doctor, error) {
	return cachedList(ctx, s, records.Doctors, s.repo.ListDoctors)
}

func (s *Service) ListAppointments(ctx context.Context) ([]records.Appointment, error) {
	return cachedList(ctx, s, records.Appointments, s.repo.ListAppointments)
}

// CreatePatient validates and stores a new patient. Invalid input is
// reported as *records.ValidationError.
func (s *Service) CreatePatient(ctx context.Context, in records.NewPatient) (records.Patient, error) {
	p := records.Patient{
		ID:        records.ID(s.newID()),
		Name:      strings.TrimSpace(in.Name),
		Age:       in.Age,
		Condition: strings.TrimSpace(in.Condition),
	}
	if err := records.Required("name", p.Name); err != nil {
		return records.Patient{}, err
	}
	if p.Age < 0 {
		return records.Patient{}, &records.ValidationError{Field: "age", Reason: "must be a non-negative integer"}
	}
	if err := records.Required("condition", p.Condition); err != nil {
		return records.Patient{}, err
	}

	if err := s.repo.InsertPatient(ctx, p); err != nil {
		return records.Patient{}, fmt.Errorf("create patient: %w", err)
	}
	s.invalidate(ctx, records.Patients)
	return p, nil
}

// CreateAppointment stores a new appointment after checking that both the
// patient and the doctor exist.
func (s *Service) CreateAppointment(ctx context.Context, in records.NewAppointment) (records.Appointment, error) {
	if err := records.Required("patientId", in.PatientID.String()); err != nil {
		return records.Appointment{}, err
	}
	if err := records.Required("doctorId", in.DoctorID.String()); err != nil {
		return records.Appointment{}, err
	}
	if in.Date.IsZero() {
		return records.Appointment{}, &records.ValidationError{Field: "date", Reason: "required"}
	}

	if err := s.mustExist(ctx, in.PatientID, s.repo.PatientExists, ErrPatientNotFound); err != nil {
		return records.Appointment{}, err
	}
	if err := s.mustExist(ctx, in.DoctorID, s.repo.DoctorExists, ErrDoctorNotFound); err != nil {
		return records.Appointment{}, err
	}

	a := records.Appointment{
		ID:        records.ID(s.newID()),
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Date:      in.Date,
	}
	if err := s.repo.InsertAppointment(ctx, a); err != nil {
		return records.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	s.invalidate(ctx, records.Appointments)
	return a, nil
}

// CreateDoctor is used by the seeder; the API exposes no doctor writes.
func (s *Service) CreateDoctor(ctx context.Context, name, specialization string) (records.Doctor, error) {
	d := records.Doctor{
		ID:             records.ID(s.newID()),
		Name:           strings.TrimSpace(name),
		Specialization: strings.TrimSpace(specialization),
	}
	if err := records.Required("name", d.Name); err != nil {
		return records.Doctor{}, err
	}
	if err := records.Required("specialization", d.Specialization); err != nil {
		return records.Doctor{}, err
	}
	if err := s.repo.InsertDoctor(ctx, d); err != nil {
		return records.Doctor{}, fmt.Errorf("create doctor: %w", err)
	}
	s.invalidate(ctx, records.Doctors)
	return d, nil
}

// mustExist maps a malformed id to notFound, since no row can carry it.
func (s *Service) mustExist(ctx context.Context, id records.ID, exists func(context.Context, uuid.UUID) (bool, error), notFound error) error {
	u, err := uuid.Parse(id.String())
	if err != nil {
		return notFound
	}
	ok, err := exists(ctx, u)
	if err != nil {
		return fmt.Errorf("check %s: %w", notFound, err)
	}
	if !ok {
		return notFound
	}
	return nil
}

// ErrNoListCache is returned by WarmListCache when the service has no cache.
var ErrNoListCache = errors.New("list cache not configured")

// WarmListCache reloads every collection from the repository and rewrites
// its cache entry, so readers rarely see a miss. Collections whose fill lock
// is held elsewhere are skipped.
func (s *Service) WarmListCache(ctx context.Context) error {
	if s.cache == nil {
		return ErrNoListCache
	}
	return errors.Join(
		warm(ctx, s, records.Patients, s.repo.ListPatients),
		warm(ctx, s, records.Doctors, s.repo.ListDoctors),
		warm(ctx, s, records.Appointments, s.repo.ListAppointments),
	)
}

func warm[T any](ctx context.Context, s *Service, coll records.Collection, load func(context.Context) ([]T, error)) error {
	items, err := load(ctx)
	if err != nil {
		return fmt.Errorf("warm %s: %w", coll, err)
	}
	if items == nil {
		items = []T{}
	}
	s.fill(ctx, coll.String(), items)
	return nil
}

func cachedList[T any](ctx context.Context, s *Service, coll records.Collection, load func(context.Context) ([]T, error)) ([]T, error) {
	name := coll.String()
	if s.cache != nil {
		var items []T
		hit, err := s.cache.Get(ctx, name, &items)
		switch {
		case err != nil:
			metrics.RecordListCache(name, "error")
			log.Warn().Err(err).Str("collection", name).Msg("list cache read failed, using database")
		case hit:
			metrics.RecordListCache(name, "hit")
			if items == nil {
				items = []T{}
			}
			return items, nil
		default:
			metrics.RecordListCache(name, "miss")
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", name, err)
	}
	if items == nil {
		items = []T{}
	}

	if s.cache != nil {
		s.fill(ctx, name, items)
	}
	return items, nil
}

func (s *Service) fill(ctx context.Context, name string, items any) {
	store := func(ctx context.Context) error {
		return s.cache.Set(ctx, name, items)
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, "fill:"+name, store)
	} else {
		err = store(ctx)
	}

	switch {
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		log.Debug().Str("collection", name).Msg("another replica is filling the list cache")
	case err != nil:
		log.Warn().Err(err).Str("collection", name).Msg("list cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, coll records.Collection) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, coll.String()); err != nil {
		log.Error().Err(err).Str("collection", coll.String()).Msg("list cache invalidation failed")
	}
}
