// Package controller is the client's state and synchronization engine. It
// owns the session gate, the view router, the three collection snapshots and
// the two drafts, and runs the fetch/mutate/refresh protocol against the
// records API.
//
// All state is guarded by one mutex that is never held across a network
// call, so navigation and draft edits stay responsive while a list or create
// is outstanding. Every call issued on behalf of a session carries that
// session's generation; results arriving after a logout are discarded.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/draft"
	"github.com/hackgods/hospital-records/internal/records"
	"github.com/hackgods/hospital-records/internal/session"
	"github.com/hackgods/hospital-records/internal/view"
)

var (
	ErrNotAuthenticated     = errors.New("not logged in")
	ErrNotReady             = errors.New("initial load has not finished")
	ErrConcurrentSubmission = errors.New("a submission of this kind is already in flight")
	ErrSessionEnded         = errors.New("session ended before the call completed")
)

// Collections is the remote surface the controller drives.
type Collections interface {
	ListPatients(ctx context.Context) ([]records.Patient, error)
	ListDoctors(ctx context.Context) ([]records.Doctor, error)
	ListAppointments(ctx context.Context) ([]records.Appointment, error)
	CreatePatient(ctx context.Context, p records.NewPatient) (records.Patient, error)
	CreateAppointment(ctx context.Context, a records.NewAppointment) (records.Appointment, error)
}

type State int

const (
	Idle State = iota
	LoadingInitial
	Ready
)

func (s State) String() string {
	switch s {
	case LoadingInitial:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "idle"
	}
}

type Controller struct {
	mu sync.Mutex

	gate   *session.Gate
	api    Collections
	router *view.Router

	state      State
	generation uint64

	patients     Snapshot[records.Patient]
	doctors      Snapshot[records.Doctor]
	appointments Snapshot[records.Appointment]

	patientDraft     draft.Patient
	appointmentDraft draft.Appointment
	submitting       map[draft.Kind]bool

	notice *Notice
	now    func() time.Time
}

func New(gate *session.Gate, api Collections) *Controller {
	return &Controller{
		gate:       gate,
		api:        api,
		router:     view.NewRouter(),
		submitting: make(map[draft.Kind]bool),
		now:        time.Now,
	}
}

// SetUsername and SetPassword edit the login form.
func (c *Controller) SetUsername(v string) { c.gate.SetUsername(v) }

func (c *Controller) SetPassword(v string) { c.gate.SetPassword(v) }

// Login fills the credential buffer and attempts it. See AttemptLogin.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	c.SetUsername(username)
	c.SetPassword(password)
	return c.AttemptLogin(ctx)
}

// AttemptLogin evaluates the buffered credentials. On success it loads all
// three collections concurrently and returns once every load has resolved;
// individual load failures are reported on the snapshots and the notice, not
// returned. A logout before the loads join yields ErrSessionEnded.
func (c *Controller) AttemptLogin(ctx context.Context) error {
	c.mu.Lock()
	startGen := c.generation
	c.mu.Unlock()

	if err := c.gate.Attempt(ctx); err != nil {
		if errors.Is(err, session.ErrAttemptAborted) {
			return ErrSessionEnded
		}
		log.Info().Err(err).Msg("login rejected")
		c.mu.Lock()
		c.setNotice(NoticeError, loginMessage(err))
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.generation != startGen {
		// Logged out while the attempt was in flight.
		c.mu.Unlock()
		c.gate.Logout()
		return ErrSessionEnded
	}
	c.generation++
	gen := c.generation
	c.router.Reset()
	c.state = LoadingInitial
	c.notice = nil
	c.mu.Unlock()

	log.Info().Uint64("generation", gen).Msg("session started, loading collections")
	return c.loadInitial(ctx, gen)
}

func loginMessage(err error) string {
	var verr *records.ValidationError
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.As(err, &verr):
		return fmt.Sprintf("Login: %s", verr.Error())
	default:
		return fmt.Sprintf("Login failed: %v", err)
	}
}

// loadInitial returns ErrSessionEnded if the session was logged out before
// the loads joined. Load failures are not returned.
func (c *Controller) loadInitial(ctx context.Context, gen uint64) error {
	var (
		wg   sync.WaitGroup
		errs = make([]error, len(records.AllCollections))
	)
	for i, coll := range records.AllCollections {
		wg.Add(1)
		go func(i int, coll records.Collection) {
			defer wg.Done()
			errs[i] = c.load(ctx, gen, coll)
		}(i, coll)
	}
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return ErrSessionEnded
	}
	c.state = Ready
	if err := errors.Join(errs...); err != nil {
		c.setNotice(NoticeError, fmt.Sprintf("Some data could not be loaded: %v", err))
	}
	log.Debug().Uint64("generation", gen).Msg("initial load joined")
	return nil
}

// load issues one list call for coll and applies the result if the session
// that issued it is still current.
func (c *Controller) load(ctx context.Context, gen uint64, coll records.Collection) error {
	switch coll {
	case records.Patients:
		return loadInto(ctx, c, gen, coll, c.api.ListPatients, &c.patients)
	case records.Doctors:
		return loadInto(ctx, c, gen, coll, c.api.ListDoctors, &c.doctors)
	case records.Appointments:
		return loadInto(ctx, c, gen, coll, c.api.ListAppointments, &c.appointments)
	}
	return fmt.Errorf("unknown collection %q", coll)
}

func loadInto[T any](ctx context.Context, c *Controller, gen uint64, coll records.Collection,
	fetch func(context.Context) ([]T, error), snap *Snapshot[T]) error {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return ErrSessionEnded
	}
	seq := snap.begin()
	c.mu.Unlock()

	items, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		log.Debug().Str("collection", coll.String()).Msg("discarding list result from ended session")
		return ErrSessionEnded
	}
	if !snap.apply(seq, items, err, c.now()) {
		log.Debug().Str("collection", coll.String()).Uint64("seq", seq).Msg("discarding out-of-order list result")
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Str("collection", coll.String()).Msg("list failed, keeping last known data")
		return err
	}
	log.Debug().Str("collection", coll.String()).Int("count", len(items)).Msg("snapshot replaced")
	return nil
}

// Logout ends the session. Snapshots, drafts and the router are reset, and
// any call still in flight will have its result discarded.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gate.Logout()
	c.generation++
	c.state = Idle
	c.router.Reset()
	c.patients.reset()
	c.doctors.reset()
	c.appointments.reset()
	c.patientDraft.Reset()
	c.appointmentDraft.Reset()
	c.submitting = make(map[draft.Kind]bool)
	c.notice = nil
	log.Info().Uint64("generation", c.generation).Msg("session ended")
}

func (c *Controller) Navigate(v view.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gate.Authenticated() {
		return ErrNotAuthenticated
	}
	return c.router.Navigate(v)
}

// Refresh reloads one collection. Failures keep the last known data.
func (c *Controller) Refresh(ctx context.Context, coll records.Collection) error {
	c.mu.Lock()
	if !c.gate.Authenticated() {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	if c.state != Ready {
		c.mu.Unlock()
		return ErrNotReady
	}
	gen := c.generation
	c.mu.Unlock()

	err := c.load(ctx, gen, coll)
	if err != nil && !errors.Is(err, ErrSessionEnded) {
		c.mu.Lock()
		if c.generation == gen {
			c.setNotice(NoticeError, fmt.Sprintf("Could not refresh %s: %v", coll, err))
		}
		c.mu.Unlock()
	}
	return err
}
