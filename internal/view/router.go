package view

import (
	"errors"
	"fmt"
)

var ErrUnknownView = errors.New("unknown view")

// ID is one of the screens reachable after login.
type ID int

const (
	Dashboard ID = iota
	AddPatient
	BookAppointment
	Patients
	Doctors
	Appointments
)

var names = [...]string{
	Dashboard:       "dashboard",
	AddPatient:      "add-patient",
	BookAppointment: "book-appointment",
	Patients:        "patients",
	Doctors:         "doctors",
	Appointments:    "appointments",
}

// All lists every view in navigation-bar order.
var All = []ID{Dashboard, AddPatient, BookAppointment, Patients, Doctors, Appointments}

func (v ID) String() string {
	if v < 0 || int(v) >= len(names) {
		return fmt.Sprintf("view(%d)", int(v))
	}
	return names[v]
}

func (v ID) Valid() bool { return v >= 0 && int(v) < len(names) }

func Parse(s string) (ID, error) {
	for i, n := range names {
		if n == s {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownView, s)
}

// Mode is the top-level surface: the login screen or the application views.
type Mode int

const (
	ModeLogin Mode = iota
	ModeApp
)

func (m Mode) String() string {
	if m == ModeApp {
		return "app"
	}
	return "login"
}

// Router holds the active view. Every view is reachable from every other and
// there is no history. Not safe for concurrent use; the controller guards it.
type Router struct {
	current ID
}

func NewRouter() *Router {
	return &Router{current: Dashboard}
}

func (r *Router) Navigate(v ID) error {
	if !v.Valid() {
		return fmt.Errorf("%w %d", ErrUnknownView, int(v))
	}
	r.current = v
	return nil
}

func (r *Router) Current() ID { return r.current }

// Reset returns the router to its initial view.
func (r *Router) Reset() { r.current = Dashboard }
