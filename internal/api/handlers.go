package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/hospital"
	"github.com/hackgods/hospital-records/internal/records"
)

const maxRequestBytes = 1 << 20

// RecordsService is the part of hospital.Service the handlers use.
type RecordsService interface {
	ListPatients(ctx context.Context) ([]records.Patient, error)
	ListDoctors(ctx context.Context) ([]records.Doctor, error)
	ListAppointments(ctx context.Context) ([]records.Appointment, error)
	CreatePatient(ctx context.Context, in records.NewPatient) (records.Patient, error)
	CreateAppointment(ctx context.Context, in records.NewAppointment) (records.Appointment, error)
}

func listHandler[T any](list func(context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := list(r.Context())
		if err != nil {
			log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("list failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "could not load records")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func createHandler[P, T any](create func(context.Context, P) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req P
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
			return
		}

		created, err := create(r.Context(), req)
		if err != nil {
			handleCreateError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

func handleCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *records.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Error())
	case errors.Is(err, hospital.ErrPatientNotFound):
		writeError(w, http.StatusUnprocessableEntity, "unknown_patient", err.Error())
	case errors.Is(err, hospital.ErrDoctorNotFound):
		writeError(w, http.StatusUnprocessableEntity, "unknown_doctor", err.Error())
	default:
		log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("create failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "could not save record")
	}
}
