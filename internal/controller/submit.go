package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/draft"
	"github.com/hackgods/hospital-records/internal/metrics"
	"github.com/hackgods/hospital-records/internal/records"
	"github.com/hackgods/hospital-records/internal/view"
)

// EditDraft sets one field of the draft for kind. Field names are those
// accepted by draft.ParsePatientField and draft.ParseAppointmentField.
func (c *Controller) EditDraft(kind draft.Kind, field, value string) error {
	switch kind {
	case draft.KindPatient:
		f, err := draft.ParsePatientField(field)
		if err != nil {
			return err
		}
		return c.EditPatient(f, value)
	case draft.KindAppointment:
		f, err := draft.ParseAppointmentField(field)
		if err != nil {
			return err
		}
		return c.EditAppointment(f, value)
	}
	return fmt.Errorf("unknown draft kind %d", kind)
}

func (c *Controller) EditPatient(f draft.PatientField, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gate.Authenticated() {
		return ErrNotAuthenticated
	}
	c.patientDraft.Set(f, value)
	return nil
}

func (c *Controller) EditAppointment(f draft.AppointmentField, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gate.Authenticated() {
		return ErrNotAuthenticated
	}
	c.appointmentDraft.Set(f, value)
	return nil
}

// SubmitDraft submits the draft for kind.
func (c *Controller) SubmitDraft(ctx context.Context, kind draft.Kind) error {
	switch kind {
	case draft.KindPatient:
		_, err := c.SubmitPatient(ctx)
		return err
	case draft.KindAppointment:
		_, err := c.SubmitAppointment(ctx)
		return err
	}
	return fmt.Errorf("unknown draft kind %d", kind)
}

// SubmitPatient validates the patient draft and creates it. On success the
// patients collection is reloaded once, the draft is reset and the view moves
// to patients. On failure the draft and view are left as they were.
func (c *Controller) SubmitPatient(ctx context.Context) (records.Patient, error) {
	var created records.Patient
	err := c.submit(ctx, draft.KindPatient, records.Patients, view.Patients,
		func() (func(context.Context) error, error) {
			payload, err := c.patientDraft.Validate()
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context) (err error) {
				created, err = c.api.CreatePatient(ctx, payload)
				return err
			}, nil
		},
		c.patientDraft.Reset)
	return created, err
}

// SubmitAppointment is SubmitPatient for the appointment draft. Patient and
// doctor ids must be present in the loaded snapshots; a snapshot that has
// never loaded does not block submission and the server decides.
func (c *Controller) SubmitAppointment(ctx context.Context) (records.Appointment, error) {
	var created records.Appointment
	err := c.submit(ctx, draft.KindAppointment, records.Appointments, view.Appointments,
		func() (func(context.Context) error, error) {
			payload, err := c.appointmentDraft.Validate(knownIn(c.patients, patientID), knownIn(c.doctors, doctorID))
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context) (err error) {
				created, err = c.api.CreateAppointment(ctx, payload)
				return err
			}, nil
		},
		c.appointmentDraft.Reset)
	return created, err
}

func patientID(p records.Patient) records.ID { return p.ID }

func doctorID(d records.Doctor) records.ID { return d.ID }

// knownIn returns a membership test over snap, or nil when snap has never
// loaded so the check is skipped.
func knownIn[T any](snap Snapshot[T], id func(T) records.ID) func(records.ID) bool {
	if snap.Status == Unloaded {
		return nil
	}
	ids := make(map[records.ID]struct{}, len(snap.Items))
	for _, item := range snap.Items {
		ids[id(item)] = struct{}{}
	}
	return func(v records.ID) bool {
		_, ok := ids[v]
		return ok
	}
}

// submit runs the shared create protocol. prepare validates the draft under
// the lock and returns the create call; onCreated runs under the lock after
// the write has succeeded and the reload has resolved.
func (c *Controller) submit(ctx context.Context, kind draft.Kind, coll records.Collection, dest view.ID,
	prepare func() (func(context.Context) error, error), onCreated func()) error {
	logger := log.With().Str("kind", kind.String()).Logger()

	c.mu.Lock()
	if !c.gate.Authenticated() {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	if c.state != Ready {
		c.mu.Unlock()
		return ErrNotReady
	}
	if c.submitting[kind] {
		c.mu.Unlock()
		metrics.RecordSubmission(kind.String(), "rejected")
		logger.Warn().Msg("submission rejected, another is in flight")
		return ErrConcurrentSubmission
	}
	create, err := prepare()
	if err != nil {
		c.setNotice(NoticeError, err.Error())
		c.mu.Unlock()
		metrics.RecordSubmission(kind.String(), "invalid")
		logger.Debug().Err(err).Msg("draft failed validation")
		return err
	}
	c.submitting[kind] = true
	gen := c.generation
	c.mu.Unlock()

	err = create(ctx)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		metrics.RecordSubmission(kind.String(), "discarded")
		logger.Info().Msg("create finished after logout, result discarded")
		return ErrSessionEnded
	}
	if err != nil {
		delete(c.submitting, kind)
		c.setNotice(NoticeError, fmt.Sprintf("Could not save %s: %v", kind, err))
		c.mu.Unlock()
		metrics.RecordSubmission(kind.String(), "failed")
		logger.Error().Err(err).Msg("create failed, draft kept")
		return err
	}
	c.markStale(coll)
	c.mu.Unlock()
	metrics.RecordSubmission(kind.String(), "created")

	// Best effort: a failed reload leaves the snapshot stale but the create stands.
	if reloadErr := c.load(ctx, gen, coll); reloadErr != nil && !errors.Is(reloadErr, ErrSessionEnded) {
		logger.Warn().Err(reloadErr).Msg("reload after create failed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return ErrSessionEnded
	}
	delete(c.submitting, kind)
	onCreated()
	if err := c.router.Navigate(dest); err != nil {
		return err
	}
	c.setNotice(NoticeInfo, fmt.Sprintf("Saved %s", kind))
	logger.Info().Msg("created")
	return nil
}

func (c *Controller) markStale(coll records.Collection) {
	switch coll {
	case records.Patients:
		c.patients.markStale()
	case records.Doctors:
		c.doctors.markStale()
	case records.Appointments:
		c.appointments.markStale()
	}
}
