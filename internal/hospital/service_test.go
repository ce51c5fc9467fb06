package hospital

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-records/internal/records"
	redisclient "github.com/hackgods/hospital-records/internal/redis"
)

type memRepo struct {
	mu           sync.Mutex
	patients     []records.Patient
	doctors      []records.Doctor
	appointments []records.Appointment
	lists        int
	insertErr    error
}

func (m *memRepo) ListPatients(context.Context) ([]records.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	return append([]records.Patient(nil), m.patients...), nil
}

func (m *memRepo) ListDoctors(context.Context) ([]records.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	return append([]records.Doctor(nil), m.doctors...), nil
}

func (m *memRepo) ListAppointments(context.Context) ([]records.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	return append([]records.Appointment(nil), m.appointments...), nil
}

func (m *memRepo) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.ID.String() == id.String() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if d.ID.String() == id.String() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) InsertPatient(_ context.Context, p records.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.patients = append(m.patients, p)
	return nil
}

func (m *memRepo) InsertDoctor(_ context.Context, d records.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doctors = append(m.doctors, d)
	return nil
}

func (m *memRepo) InsertAppointment(_ context.Context, a records.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.appointments = append(m.appointments, a)
	return nil
}

type memCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, collection string, dest any) (bool, error) {
	data, ok := c.entries[collection]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) Set(_ context.Context, collection string, items any) error {
	data, err := json.Marshal(items)
	c.entries[collection] = data
	return err
}

func (c *memCache) Invalidate(_ context.Context, collection string) error {
	delete(c.entries, collection)
	c.invalidated = append(c.invalidated, collection)
	return nil
}

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
	}
}

func newTestService(repo Repository, opts ...Option) *Service {
	s := NewService(repo, opts...)
	s.newID = seqIDs()
	return s
}

func TestCreatePatient(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo)

	p, err := svc.CreatePatient(context.Background(), records.NewPatient{Name: " Jane Doe ", Age: 34, Condition: "flu"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.Name)
	assert.NotEmpty(t, p.ID)

	list, err := svc.ListPatients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []records.Patient{p}, list)
}

func TestCreatePatientValidation(t *testing.T) {
	svc := newTestService(&memRepo{})
	cases := map[string]records.NewPatient{
		"name":      {Age: 3, Condition: "x"},
		"age":       {Name: "a", Age: -1, Condition: "x"},
		"condition": {Name: "a", Age: 3, Condition: "  "},
	}
	for field, in := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.CreatePatient(context.Background(), in)
			var verr *records.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestCreateAppointmentChecksReferences(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo)
	ctx := context.Background()
	p, err := svc.CreatePatient(ctx, records.NewPatient{Name: "Ann", Age: 5, Condition: "cold"})
	require.NoError(t, err)
	d, err := svc.CreateDoctor(ctx, "Dr. Grey", "surgery")
	require.NoError(t, err)
	date, _ := records.ParseDate("2025-03-01")

	_, err = svc.CreateAppointment(ctx, records.NewAppointment{PatientID: "not-a-uuid", DoctorID: d.ID, Date: date})
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = svc.CreateAppointment(ctx, records.NewAppointment{PatientID: p.ID, DoctorID: records.ID(uuid.NewString()), Date: date})
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = svc.CreateAppointment(ctx, records.NewAppointment{PatientID: p.ID, DoctorID: d.ID})
	var verr *records.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)

	a, err := svc.CreateAppointment(ctx, records.NewAppointment{PatientID: p.ID, DoctorID: d.ID, Date: date})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", a.Date.String())
	assert.Len(t, repo.appointments, 1)
}

func TestInsertFailureIsWrapped(t *testing.T) {
	repo := &memRepo{insertErr: errors.New("disk full")}
	svc := newTestService(repo)

	_, err := svc.CreatePatient(context.Background(), records.NewPatient{Name: "a", Age: 1, Condition: "b"})
	assert.ErrorContains(t, err, "disk full")
}

func TestListsAreCachedUntilWrite(t *testing.T) {
	repo := &memRepo{}
	cache := newMemCache()
	svc := newTestService(repo, WithListCache(cache, nil))
	ctx := context.Background()

	first, err := svc.ListPatients(ctx)
	require.NoError(t, err)
	assert.NotNil(t, first)
	_, err = svc.ListPatients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists)

	_, err = svc.CreatePatient(ctx, records.NewPatient{Name: "a", Age: 1, Condition: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"patients"}, cache.invalidated)

	list, err := svc.ListPatients(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 2, repo.lists)
}

func TestFillSkippedWhenLockHeld(t *testing.T) {
	repo := &memRepo{}
	cache := newMemCache()
	svc := newTestService(repo, WithListCache(cache, busyLocker{}))

	_, err := svc.ListDoctors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cache.entries)
}

func TestWarmListCache(t *testing.T) {
	repo := &memRepo{doctors: []records.Doctor{{ID: "d1", Name: "Dr. House", Specialization: "diagnostics"}}}
	cache := newMemCache()
	svc := newTestService(repo, WithListCache(cache, nil))
	ctx := context.Background()

	require.NoError(t, svc.WarmListCache(ctx))
	assert.Len(t, cache.entries, 3)
	assert.JSONEq(t, `[]`, string(cache.entries["patients"]))
	assert.Equal(t, 3, repo.lists)

	doctors, err := svc.ListDoctors(ctx)
	require.NoError(t, err)
	assert.Equal(t, repo.doctors, doctors)
	assert.Equal(t, 3, repo.lists)
}

func TestWarmListCacheWithoutCache(t *testing.T) {
	svc := newTestService(&memRepo{})
	assert.ErrorIs(t, svc.WarmListCache(context.Background()), ErrNoListCache)
}
