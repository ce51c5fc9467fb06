// Package draft holds the form buffers used to compose create requests.
// Each draft has a fixed field set; values are kept as the text the user
// typed and only converted to typed payloads by Validate.
package draft

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hackgods/hospital-records/internal/records"
)

var ErrUnknownField = errors.New("unknown draft field")

// Kind identifies which draft a command targets.
type Kind int

const (
	KindPatient Kind = iota
	KindAppointment
)

func (k Kind) String() string {
	switch k {
	case KindPatient:
		return "patient"
	case KindAppointment:
		return "appointment"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patient":
		return KindPatient, nil
	case "appointment":
		return KindAppointment, nil
	}
	return 0, fmt.Errorf("unknown draft kind %q", s)
}

type PatientField int

const (
	PatientName PatientField = iota
	PatientAge
	PatientCondition
)

var patientFieldNames = map[PatientField]string{
	PatientName:      "name",
	PatientAge:       "age",
	PatientCondition: "condition",
}

func (f PatientField) String() string { return patientFieldNames[f] }

func ParsePatientField(name string) (PatientField, error) {
	for f, n := range patientFieldNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w %q for patient", ErrUnknownField, name)
}

// Patient is the new-patient form buffer.
type Patient struct {
	Name      string
	Age       string
	Condition string
}

func (d *Patient) Set(f PatientField, value string) {
	switch f {
	case PatientName:
		d.Name = value
	case PatientAge:
		d.Age = value
	case PatientCondition:
		d.Condition = value
	}
}

func (d *Patient) Reset() { *d = Patient{} }

func (d Patient) Snapshot() Patient { return d }

func (d Patient) IsBlank() bool { return d == Patient{} }

// Validate checks every field is present and converts the draft into a create payload.
func (d Patient) Validate() (records.NewPatient, error) {
	if err := records.Required("name", d.Name); err != nil {
		return records.NewPatient{}, err
	}
	if err := records.Required("age", d.Age); err != nil {
		return records.NewPatient{}, err
	}
	if err := records.Required("condition", d.Condition); err != nil {
		return records.NewPatient{}, err
	}
	age, err := records.ParseAge(strings.TrimSpace(d.Age))
	if err != nil {
		return records.NewPatient{}, &records.ValidationError{Field: "age", Reason: err.Error()}
	}
	return records.NewPatient{
		Name:      strings.TrimSpace(d.Name),
		Age:       age,
		Condition: strings.TrimSpace(d.Condition),
	}, nil
}

type AppointmentField int

const (
	AppointmentPatientID AppointmentField = iota
	AppointmentDoctorID
	AppointmentDate
)

var appointmentFieldNames = map[AppointmentField]string{
	AppointmentPatientID: "patientId",
	AppointmentDoctorID:  "doctorId",
	AppointmentDate:      "date",
}

func (f AppointmentField) String() string { return appointmentFieldNames[f] }

func ParseAppointmentField(name string) (AppointmentField, error) {
	for f, n := range appointmentFieldNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w %q for appointment", ErrUnknownField, name)
}

// Appointment is the book-appointment form buffer.
type Appointment struct {
	PatientID string
	DoctorID  string
	Date      string
}

func (d *Appointment) Set(f AppointmentField, value string) {
	switch f {
	case AppointmentPatientID:
		d.PatientID = value
	case AppointmentDoctorID:
		d.DoctorID = value
	case AppointmentDate:
		d.Date = value
	}
}

func (d *Appointment) Reset() { *d = Appointment{} }

func (d Appointment) Snapshot() Appointment { return d }

func (d Appointment) IsBlank() bool { return d == Appointment{} }

// Validate checks presence and date format. knownPatient and knownDoctor
// report whether an id is in the caller's current snapshots; nil skips the check.
func (d Appointment) Validate(knownPatient, knownDoctor func(records.ID) bool) (records.NewAppointment, error) {
	if err := records.Required("patientId", d.PatientID); err != nil {
		return records.NewAppointment{}, err
	}
	if err := records.Required("doctorId", d.DoctorID); err != nil {
		return records.NewAppointment{}, err
	}
	if err := records.Required("date", d.Date); err != nil {
		return records.NewAppointment{}, err
	}

	patientID := records.ID(strings.TrimSpace(d.PatientID))
	doctorID := records.ID(strings.TrimSpace(d.DoctorID))
	if knownPatient != nil && !knownPatient(patientID) {
		return records.NewAppointment{}, &records.ValidationError{Field: "patientId", Reason: "no such patient"}
	}
	if knownDoctor != nil && !knownDoctor(doctorID) {
		return records.NewAppointment{}, &records.ValidationError{Field: "doctorId", Reason: "no such doctor"}
	}

	date, err := records.ParseDate(strings.TrimSpace(d.Date))
	if err != nil {
		return records.NewAppointment{}, &records.ValidationError{Field: "date", Reason: err.Error()}
	}
	return records.NewAppointment{PatientID: patientID, DoctorID: doctorID, Date: date}, nil
}
