package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-records/internal/config"
	"github.com/hackgods/hospital-records/internal/records"
	"github.com/hackgods/hospital-records/internal/remote"
)

func TestOperationMetricsStats(t *testing.T) {
	var om OperationMetrics
	for i := 1; i <= 100; i++ {
		om.Record(time.Duration(i)*time.Millisecond, nil)
	}
	om.Record(time.Millisecond, &remote.WriteError{Err: &remote.StatusError{Code: http.StatusUnprocessableEntity}})
	om.Record(time.Millisecond, errors.New("connection refused"))

	st := om.Stats()
	assert.Equal(t, 102, st.Total)
	assert.Equal(t, 100, st.Success)
	assert.Equal(t, 1, st.Rejected)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, time.Millisecond, st.Min)
	assert.Equal(t, 100*time.Millisecond, st.Max)
	assert.Equal(t, 50*time.Millisecond, st.P50)
	assert.Equal(t, 95*time.Millisecond, st.P95)
}

func TestReportSkipsUnusedOperations(t *testing.T) {
	var om OperationMetrics
	var buf bytes.Buffer
	om.Report(&buf, "idle")
	assert.Empty(t, buf.String())

	om.Record(2*time.Millisecond, nil)
	om.Report(&buf, "busy")
	assert.Contains(t, buf.String(), "busy:")
	assert.Contains(t, buf.String(), "Success: 1 (100.0%)")
	assert.NotContains(t, buf.String(), "Errors")
}

type fakeAPI struct {
	mu       sync.Mutex
	patients int
	booked   []records.NewAppointment
	lists    int
}

func (f *fakeAPI) ListPatients(context.Context) ([]records.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return []records.Patient{{ID: "p1"}}, nil
}

func (f *fakeAPI) ListDoctors(context.Context) ([]records.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return []records.Doctor{{ID: "d1"}}, nil
}

func (f *fakeAPI) ListAppointments(context.Context) ([]records.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return nil, nil
}

func (f *fakeAPI) CreatePatient(_ context.Context, p records.NewPatient) (records.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patients++
	return records.Patient{ID: records.ID(fmt.Sprintf("new-%d", f.patients)), Name: p.Name}, nil
}

func (f *fakeAPI) CreateAppointment(_ context.Context, a records.NewAppointment) (records.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.booked = append(f.booked, a)
	return records.Appointment{ID: "a", PatientID: a.PatientID, DoctorID: a.DoctorID, Date: a.Date}, nil
}

func TestSimulatorRunsEveryOperation(t *testing.T) {
	api := &fakeAPI{}
	sim := &Simulator{
		config: config.Simulation{
			Duration:    50 * time.Millisecond,
			Workers:     2,
			CreateRatio: 0.3,
			BookRatio:   0.3,
			ReadRatio:   0.4,
		},
		api: api,
	}
	require.NoError(t, sim.Prepare(context.Background()))
	sim.Run(context.Background())

	assert.Positive(t, sim.metrics.CreatePatient.Stats().Success)
	assert.Positive(t, sim.metrics.Book.Stats().Success)
	assert.Positive(t, sim.metrics.List.Stats().Success)

	api.mu.Lock()
	defer api.mu.Unlock()
	for _, a := range api.booked {
		assert.Equal(t, records.ID("d1"), a.DoctorID)
		assert.False(t, a.Date.IsZero())
	}
}

func TestPrepareNeedsDoctors(t *testing.T) {
	sim := &Simulator{api: noDoctors{&fakeAPI{}}}
	assert.Error(t, sim.Prepare(context.Background()))
}

type noDoctors struct{ *fakeAPI }

func (noDoctors) ListDoctors(context.Context) ([]records.Doctor, error) { return nil, nil }

func TestDataPoolPickEmpty(t *testing.T) {
	_, _, ok := (&DataPool{}).Pick(rand.New(rand.NewSource(1)))
	assert.False(t, ok)
}
