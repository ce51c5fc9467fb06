package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Collection names one of the resource collections served under /api.
type Collection string

const (
	Patients     Collection = "patients"
	Doctors      Collection = "doctors"
	Appointments Collection = "appointments"
)

// AllCollections is the fixed load order used for logging; loads themselves are unordered.
var AllCollections = []Collection{Patients, Doctors, Appointments}

func (c Collection) String() string { return string(c) }

// Path returns the collection endpoint relative to the API base URL.
func (c Collection) Path() string { return "/api/" + string(c) }

// ID is a server-assigned opaque identifier. Backends differ on whether they
// emit ids as JSON strings or numbers, so both decode into the same value.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

// Date is a calendar date without a time component.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Some backends serialize dates as full timestamps; keep only the day.
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			*d = Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
			return nil
		}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Patient struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Condition string `json:"condition"`
}

type Doctor struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

type Appointment struct {
	ID        ID   `json:"id"`
	PatientID ID   `json:"patientId"`
	DoctorID  ID   `json:"doctorId"`
	Date      Date `json:"date"`
}

// NewPatient is the body of POST /api/patients.
type NewPatient struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Condition string `json:"condition"`
}

// NewAppointment is the body of POST /api/appointments.
type NewAppointment struct {
	PatientID ID   `json:"patientId"`
	DoctorID  ID   `json:"doctorId"`
	Date      Date `json:"date"`
}

// ParseAge accepts a non-negative base-10 integer.
func ParseAge(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("age must be a non-negative integer")
	}
	return n, nil
}

// ValidationError reports a field that failed a local check. It never reaches the backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Required returns a ValidationError when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "required"}
	}
	return nil
}
