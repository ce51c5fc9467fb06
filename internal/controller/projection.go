package controller

import (
	"sort"
	"time"

	"github.com/hackgods/hospital-records/internal/draft"
	"github.com/hackgods/hospital-records/internal/records"
	"github.com/hackgods/hospital-records/internal/view"
)

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

func (l NoticeLevel) String() string {
	if l == NoticeError {
		return "error"
	}
	return "info"
}

// Notice is the one user-visible message the controller keeps. Each new
// outcome replaces the previous one.
type Notice struct {
	Level   NoticeLevel
	Message string
	At      time.Time
}

func (c *Controller) setNotice(level NoticeLevel, msg string) {
	c.notice = &Notice{Level: level, Message: msg, At: c.now()}
}

// DismissNotice clears the pending notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = nil
}

// Projection is a read-only copy of everything a renderer needs. Mutating it
// has no effect on the controller.
type Projection struct {
	Mode  view.Mode
	View  view.ID
	State State

	Patients     Snapshot[records.Patient]
	Doctors      Snapshot[records.Doctor]
	Appointments Snapshot[records.Appointment]

	PatientDraft     draft.Patient
	AppointmentDraft draft.Appointment

	// Username is the login form's current input. The password is never exposed.
	Username   string
	Notice     *Notice
	Submitting []draft.Kind
}

func (c *Controller) Projection() Projection {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := Projection{
		Mode:             view.ModeLogin,
		View:             c.router.Current(),
		State:            c.state,
		Patients:         c.patients.clone(),
		Doctors:          c.doctors.clone(),
		Appointments:     c.appointments.clone(),
		PatientDraft:     c.patientDraft.Snapshot(),
		AppointmentDraft: c.appointmentDraft.Snapshot(),
		Username:         c.gate.Buffer().Username,
	}
	if c.gate.Authenticated() {
		p.Mode = view.ModeApp
	}
	if c.notice != nil {
		n := *c.notice
		p.Notice = &n
	}
	for kind, busy := range c.submitting {
		if busy {
			p.Submitting = append(p.Submitting, kind)
		}
	}
	sort.Slice(p.Submitting, func(i, j int) bool { return p.Submitting[i] < p.Submitting[j] })
	return p
}

// PatientName resolves an appointment's patient id against the snapshot,
// falling back to the raw id.
func (p Projection) PatientName(id records.ID) string {
	for _, pt := range p.Patients.Items {
		if pt.ID == id {
			return pt.Name
		}
	}
	return id.String()
}

func (p Projection) DoctorName(id records.ID) string {
	for _, d := range p.Doctors.Items {
		if d.ID == id {
			return d.Name
		}
	}
	return id.String()
}
