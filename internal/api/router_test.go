package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-records/internal/hospital"
	"github.com/hackgods/hospital-records/internal/records"
)

type stubService struct {
	patients   []records.Patient
	listErr    error
	createErr  error
	gotPatient records.NewPatient
	gotAppt    records.NewAppointment
}

func (s *stubService) ListPatients(context.Context) ([]records.Patient, error) {
	return s.patients, s.listErr
}

func (s *stubService) ListDoctors(context.Context) ([]records.Doctor, error) {
	return []records.Doctor{{ID: "d1", Name: "Dr. House", Specialization: "diagnostics"}}, nil
}

func (s *stubService) ListAppointments(context.Context) ([]records.Appointment, error) {
	return []records.Appointment{}, nil
}

func (s *stubService) CreatePatient(_ context.Context, in records.NewPatient) (records.Patient, error) {
	s.gotPatient = in
	if s.createErr != nil {
		return records.Patient{}, s.createErr
	}
	return records.Patient{ID: "p1", Name: in.Name, Age: in.Age, Condition: in.Condition}, nil
}

func (s *stubService) CreateAppointment(_ context.Context, in records.NewAppointment) (records.Appointment, error) {
	s.gotAppt = in
	if s.createErr != nil {
		return records.Appointment{}, s.createErr
	}
	return records.Appointment{ID: "a1", PatientID: in.PatientID, DoctorID: in.DoctorID, Date: in.Date}, nil
}

var okPing = PingFunc(func(context.Context) error { return nil })

func newTestServer(t *testing.T, svc RecordsService, auth *TokenAuth, required bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(RouterConfig{
		Service:  svc,
		Auth:     auth,
		Required: required,
		Postgres: okPing,
		Env:      "test",
		Version:  "v0",
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string, header http.Header) (*http.Response, ErrorResponse) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var e ErrorResponse
	if resp.StatusCode >= 400 {
		_ = json.NewDecoder(resp.Body).Decode(&e)
	}
	return resp, e
}

func TestListPatients(t *testing.T) {
	svc := &stubService{patients: []records.Patient{{ID: "p1", Name: "Jane Doe", Age: 34, Condition: "flu"}}}
	srv := newTestServer(t, svc, nil, false)

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/patients", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var got []records.Patient
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, svc.patients, got)
}

func TestListFailureIs500(t *testing.T) {
	srv := newTestServer(t, &stubService{listErr: errors.New("db down")}, nil, false)

	resp, e := do(t, http.MethodGet, srv.URL+"/api/patients", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal_error", e.Error)
}

func TestCreatePatient(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc, nil, false)

	resp, _ := do(t, http.MethodPost, srv.URL+"/api/patients", `{"name":"Jane Doe","age":34,"condition":"flu"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, records.NewPatient{Name: "Jane Doe", Age: 34, Condition: "flu"}, svc.gotPatient)

	var got records.Patient
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, records.ID("p1"), got.ID)
}

func TestCreateErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"bad json", `{"name":`, nil, http.StatusBadRequest, "invalid_request_body"},
		{"age as text", `{"name":"a","age":"34","condition":"b"}`, nil, http.StatusBadRequest, "invalid_request_body"},
		{"validation", `{"name":"","age":1,"condition":"b"}`, &records.ValidationError{Field: "name", Reason: "required"}, http.StatusBadRequest, "validation_failed"},
		{"internal", `{"name":"a","age":1,"condition":"b"}`, errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &stubService{createErr: tc.err}, nil, false)
			resp, e := do(t, http.MethodPost, srv.URL+"/api/patients", tc.body, nil)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, e.Error)
		})
	}
}

func TestCreateAppointmentUnknownReference(t *testing.T) {
	svc := &stubService{createErr: hospital.ErrDoctorNotFound}
	srv := newTestServer(t, svc, nil, false)

	resp, e := do(t, http.MethodPost, srv.URL+"/api/appointments", `{"patientId":1,"doctorId":"d9","date":"2025-03-01"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "unknown_doctor", e.Error)
	assert.Equal(t, records.ID("1"), svc.gotAppt.PatientID)
	assert.Equal(t, "2025-03-01", svc.gotAppt.Date.String())
}

func TestLoginAndBearer(t *testing.T) {
	auth := NewTokenAuth("s3cret", time.Hour, "op", "pw")
	srv := newTestServer(t, &stubService{}, auth, true)

	resp, e := do(t, http.MethodGet, srv.URL+"/api/doctors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing_token", e.Error)

	resp, e = do(t, http.MethodPost, srv.URL+"/api/auth/login", `{"username":"op","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", e.Error)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/auth/login", `{"username":"op","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.NotEmpty(t, login.Token)
	assert.True(t, login.ExpiresAt.After(time.Now()))

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/doctors", "", http.Header{"Authorization": {"Bearer " + login.Token}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, e = do(t, http.MethodGet, srv.URL+"/api/doctors", "", http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_token", e.Error)
}

func TestVerifyRejectsOtherSecretAndExpiry(t *testing.T) {
	issuer := NewTokenAuth("one", time.Hour, "op", "pw")
	token, _, err := issuer.Issue("op")
	require.NoError(t, err)

	sub, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "op", sub)

	_, err = NewTokenAuth("two", time.Hour, "op", "pw").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenAuth("one", time.Hour, "op", "pw")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("op")
	require.NoError(t, err)
	_, err = issuer.Verify(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestReadiness(t *testing.T) {
	h := NewHealthHandler(okPing, PingFunc(func(context.Context) error { return errors.New("down") }), "test", "v0")
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "down", resp.Dependencies["redis"])

	h = NewHealthHandler(PingFunc(func(context.Context) error { return errors.New("down") }), nil, "test", "v0")
	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
