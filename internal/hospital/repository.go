package hospital

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-records/internal/records"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
)

// Repository contains all DB interactions needed by the service. Listings
// are returned in creation order.
type Repository interface {
	ListPatients(ctx context.Context) ([]records.Patient, error)
	ListDoctors(ctx context.Context) ([]records.Doctor, error)
	ListAppointments(ctx context.Context) ([]records.Appointment, error)

	// For the appointment referential check
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)

	InsertPatient(ctx context.Context, p records.Patient) error
	InsertDoctor(ctx context.Context, d records.Doctor) error
	InsertAppointment(ctx context.Context, a records.Appointment) error
}
