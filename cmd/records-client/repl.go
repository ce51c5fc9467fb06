package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hackgods/hospital-records/internal/controller"
	"github.com/hackgods/hospital-records/internal/draft"
	"github.com/hackgods/hospital-records/internal/records"
	"github.com/hackgods/hospital-records/internal/view"
)

const helpText = `commands:
  login <username> <password>    log in
  user <username> / pass <pw>    fill the login form, then: attempt
  logout
  go <view>                      dashboard, add-patient, book-appointment, patients, doctors, appointments
  set <patient|appointment> <field> <value...>
  submit <patient|appointment>
  refresh <patients|doctors|appointments>
  show                           redraw the current view
  dismiss                        clear the notice
  help, quit`

var errQuit = errors.New("quit")

// repl is the terminal rendering layer. It turns each input line into one
// controller command and redraws the projection afterwards.
type repl struct {
	ctl *controller.Controller
	out io.Writer
}

func newREPL(ctl *controller.Controller, out io.Writer) *repl {
	return &repl{ctl: ctl, out: out}
}

func (r *repl) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, scanErr := scanLines(ctx, in)

	fmt.Fprintln(r.out, "hospital records. type help for commands.")
	r.render()
	for {
		r.prompt()
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			err := r.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
			}
		}
	}
}

// scanLines feeds in line by line until EOF or until ctx is done. The lines
// channel is closed in both cases; scanErr then holds the read error, if any.
func scanLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- sc.Err()
	}()
	return lines, scanErr
}

func (r *repl) prompt() {
	if r.ctl.Projection().Mode == view.ModeLogin {
		fmt.Fprint(r.out, "login> ")
		return
	}
	fmt.Fprintf(r.out, "%s> ", r.ctl.Projection().View)
}

func (r *repl) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "help", "?":
		fmt.Fprintln(r.out, helpText)
		return nil
	case "quit", "exit":
		return errQuit
	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <username> <password>")
		}
		err = r.ctl.Login(ctx, args[0], args[1])
	case "user":
		r.ctl.SetUsername(strings.Join(args, " "))
		return nil
	case "pass":
		r.ctl.SetPassword(strings.Join(args, " "))
		return nil
	case "attempt":
		err = r.ctl.AttemptLogin(ctx)
	case "logout":
		r.ctl.Logout()
	case "go":
		if len(args) != 1 {
			return errors.New("usage: go <view>")
		}
		v, perr := view.Parse(args[0])
		if perr != nil {
			return perr
		}
		err = r.ctl.Navigate(v)
	case "set":
		if len(args) < 2 {
			return errors.New("usage: set <patient|appointment> <field> <value...>")
		}
		kind, perr := draft.ParseKind(args[0])
		if perr != nil {
			return perr
		}
		err = r.ctl.EditDraft(kind, args[1], strings.Join(args[2:], " "))
	case "submit":
		if len(args) != 1 {
			return errors.New("usage: submit <patient|appointment>")
		}
		kind, perr := draft.ParseKind(args[0])
		if perr != nil {
			return perr
		}
		err = r.ctl.SubmitDraft(ctx, kind)
	case "refresh":
		if len(args) != 1 {
			return errors.New("usage: refresh <collection>")
		}
		err = r.ctl.Refresh(ctx, records.Collection(args[0]))
	case "dismiss":
		r.ctl.DismissNotice()
	case "show":
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}

	r.render()
	return err
}

func (r *repl) render() {
	p := r.ctl.Projection()
	if p.Notice != nil {
		fmt.Fprintf(r.out, "[%s] %s\n", p.Notice.Level, p.Notice.Message)
	}
	if p.Mode == view.ModeLogin {
		fmt.Fprintf(r.out, "please log in (username: %q)\n", p.Username)
		return
	}
	if len(p.Submitting) > 0 {
		fmt.Fprintf(r.out, "saving: %v\n", p.Submitting)
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch p.View {
	case view.Dashboard:
		fmt.Fprintf(tw, "patients\t%d\t%s\n", len(p.Patients.Items), p.Patients.Status)
		fmt.Fprintf(tw, "doctors\t%d\t%s\n", len(p.Doctors.Items), p.Doctors.Status)
		fmt.Fprintf(tw, "appointments\t%d\t%s\n", len(p.Appointments.Items), p.Appointments.Status)
	case view.Patients:
		header(tw, "patients", p.Patients.Status, "ID\tNAME\tAGE\tCONDITION")
		for _, pt := range p.Patients.Items {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", pt.ID, pt.Name, pt.Age, pt.Condition)
		}
	case view.Doctors:
		header(tw, "doctors", p.Doctors.Status, "ID\tNAME\tSPECIALIZATION")
		for _, d := range p.Doctors.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.Name, d.Specialization)
		}
	case view.Appointments:
		header(tw, "appointments", p.Appointments.Status, "ID\tPATIENT\tDOCTOR\tDATE")
		for _, a := range p.Appointments.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, p.PatientName(a.PatientID), p.DoctorName(a.DoctorID), a.Date)
		}
	case view.AddPatient:
		fmt.Fprintln(tw, "new patient")
		fmt.Fprintf(tw, "  name\t%s\n", p.PatientDraft.Name)
		fmt.Fprintf(tw, "  age\t%s\n", p.PatientDraft.Age)
		fmt.Fprintf(tw, "  condition\t%s\n", p.PatientDraft.Condition)
	case view.BookAppointment:
		fmt.Fprintln(tw, "new appointment")
		fmt.Fprintf(tw, "  patientId\t%s\n", p.AppointmentDraft.PatientID)
		fmt.Fprintf(tw, "  doctorId\t%s\n", p.AppointmentDraft.DoctorID)
		fmt.Fprintf(tw, "  date\t%s\n", p.AppointmentDraft.Date)
	}
}

func header(w io.Writer, title string, status controller.SnapshotStatus, columns string) {
	switch status {
	case controller.Unloaded:
		fmt.Fprintf(w, "%s: not loaded\n", title)
	case controller.Stale:
		fmt.Fprintf(w, "%s: showing last known data\n", title)
	}
	fmt.Fprintln(w, columns)
}
