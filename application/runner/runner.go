package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"form_filler/application/control"
	"form_filler/application/filler"
	"form_filler/domain/entities"
	"form_filler/domain/interfaces"
	"form_filler/infrastructure/config"

	"github.com/sirupsen/logrus"
)

const snapshotName = "debug_after_login"

// SessionFactory opens a new browser session.
type SessionFactory func() (interfaces.Session, error)

// SecretRegistry learns values that must be masked in logs.
type SecretRegistry interface {
	AddSecret(secret string)
}

// Reviewer keeps the browser open after a completed run until the operator is done.
type Reviewer interface {
	WaitForReview(ctx context.Context, message string) error
}

// ControlSurface feeds operator pause/stop input into ctrl while rows are filled.
type ControlSurface interface {
	Listen(ctx context.Context, ctrl *control.Controller)
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Data       interfaces.DataSource
	Store      interfaces.Storage
	Prompter   interfaces.Prompter
	Reviewer   Reviewer
	Controls   ControlSurface
	Secrets    SecretRegistry
	NewSession SessionFactory
	Logger     *logrus.Logger
	Out        io.Writer // dry run output
}

// Runner performs one end-to-end fill run.
type Runner struct {
	cfg     *config.Config
	deps    Deps
	control *control.Controller
	status  func(string)
	onProg  func(filler.Progress)
}

func New(cfg *config.Config, deps Deps, ctrl *control.Controller) *Runner {
	return &Runner{cfg: cfg, deps: deps, control: ctrl}
}

// OnStatus registers a callback for coarse status lines.
func (r *Runner) OnStatus(fn func(string)) { r.status = fn }

// OnProgress registers a callback for per-row progress.
func (r *Runner) OnProgress(fn func(filler.Progress)) { r.onProg = fn }

func (r *Runner) setStatus(s string) {
	if r.status != nil {
		r.status(s)
	}
}

// Run loads the data, authenticates the session and fills every row.
// The report is nil for dry runs and for failures before filling started.
func (r *Runner) Run(ctx context.Context) (*entities.Report, error) {
	log := r.deps.Logger

	r.setStatus("Loading data file...")
	log.Infof("Loading data from %s", r.cfg.File)
	ds, err := r.deps.Data.Load(r.cfg.File, r.cfg.Limit)
	if err != nil {
		log.Errorf("Error loading data file: %v", err)
		r.setStatus("Ready")
		return nil, fmt.Errorf("failed to load data file: %w", err)
	}
	r.logDataset(ds)

	if r.cfg.DryRun {
		return nil, r.printPlan(ds)
	}

	log.Infof("Starting automation for website: %s", r.cfg.URL)
	session, err := r.deps.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	report, err := r.fill(ctx, session, ds)
	if err != nil {
		r.closeSession(session, "error")
		return report, err
	}

	if report.Status == entities.RunStatusCompleted && r.cfg.Browser.KeepOpen && r.deps.Reviewer != nil {
		r.setStatus("Completed - Browser remains open")
		msg := fmt.Sprintf("Form filling completed. Successful: %d, Failed: %d. The browser remains open for you to review or submit the data. Press Enter to close it.",
			report.Succeeded, report.Failed)
		if err := r.deps.Reviewer.WaitForReview(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("Review prompt failed: %v", err)
		}
	}
	r.closeSession(session, string(report.Status))
	return report, nil
}

func (r *Runner) fill(ctx context.Context, session interfaces.Session, ds *entities.Dataset) (*entities.Report, error) {
	log := r.deps.Logger

	if err := session.Open(ctx, r.cfg.URL); err != nil {
		return nil, fmt.Errorf("browser/navigation error: %w", err)
	}

	if err := r.loginGate(ctx, session); err != nil {
		return nil, err
	}

	if err := session.Settle(ctx, r.cfg.Browser.Settle); err != nil {
		return nil, err
	}

	if r.cfg.Browser.DebugSnapshot {
		png, html, err := session.Snapshot(ctx, r.cfg.Browser.SnapshotDir, snapshotName)
		if err != nil {
			log.Warnf("Could not save debug snapshot: %v", err)
		} else {
			log.Infof("Saved screenshot to %s and HTML to %s for debugging.", png, html)
		}
	}

	frame, err := session.FormFrame(ctx, r.cfg.FrameMatch, r.cfg.Anchor)
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrFrameNotFound):
			r.setStatus("Error: Form iframe not found.")
		case errors.Is(err, entities.ErrAnchorNotVisible):
			r.setStatus("Error: Form not loaded in iframe.")
		}
		log.Errorf("Could not prepare the form: %v", err)
		return nil, err
	}

	if err := session.SaveState(); err != nil {
		log.Warnf("Could not save browser state: %v", err)
	}

	r.setStatus("Starting form filling...")
	f := filler.NewFiller(frame, r.control, log, r.fillerOptions())
	if r.onProg != nil {
		f.OnProgress(r.onProg)
	}

	if r.deps.Controls != nil {
		listenCtx, stopListening := context.WithCancel(ctx)
		listening := make(chan struct{})
		go func() {
			defer close(listening)
			r.deps.Controls.Listen(listenCtx, r.control)
		}()
		defer func() {
			stopListening()
			<-listening
		}()
	}

	report, runErr := f.Run(ctx, ds, r.cfg.URL)
	r.saveReport(report)
	if runErr != nil {
		return report, runErr
	}

	log.Infof("Form filling finished. Successful: %d, Failed: %d", report.Succeeded, report.Failed)
	if report.Status == entities.RunStatusStopped {
		r.setStatus("Stopped")
	}
	return report, nil
}

// loginGate authenticates the session according to the configured mode.
func (r *Runner) loginGate(ctx context.Context, session interfaces.Session) error {
	log := r.deps.Logger

	switch r.cfg.LoginMode() {
	case entities.LoginNone:
		log.Info("Skipping login gate")
		return nil

	case entities.LoginAuto:
		creds, err := r.credentials(ctx)
		if err == nil {
			log.Infof("Attempting automatic login as %s", creds.Username)
			err = session.AutoLogin(ctx, creds)
		}
		if err == nil {
			log.Info("Automatic login submitted")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warnf("Automatic login failed, falling back to manual login: %v", err)
	}

	log.Info("Waiting for manual login...")
	r.setStatus("Waiting for manual login...")
	if err := r.deps.Prompter.ConfirmLogin(ctx, "Please log in to the website in the browser window. Confirm here when you are logged in and ready to proceed."); err != nil {
		return fmt.Errorf("login not confirmed: %w", err)
	}
	log.Info("User confirmed login")
	return nil
}

func (r *Runner) credentials(ctx context.Context) (entities.Credentials, error) {
	creds := r.cfg.Credentials()
	if creds.Username == "" {
		return creds, errors.New("no username configured")
	}
	if creds.Password == "" {
		pw, err := r.deps.Prompter.Password(ctx, fmt.Sprintf("Password for %s:", creds.Username))
		if err != nil {
			return creds, err
		}
		creds.Password = pw
	}
	if r.deps.Secrets != nil {
		r.deps.Secrets.AddSecret(creds.Password)
	}
	return creds, nil
}

func (r *Runner) fillerOptions() filler.Options {
	opts := filler.DefaultOptions()
	opts.FieldDelay = r.cfg.FieldDelay
	opts.FormDelay = r.cfg.FormDelay
	opts.MaxRetries = r.cfg.MaxRetries
	return opts
}

func (r *Runner) logDataset(ds *entities.Dataset) {
	log := r.deps.Logger
	log.Infof("Loaded %d total entries from file", ds.Total)
	switch {
	case ds.Truncated():
		log.Infof("Processing the first %d entries as requested.", ds.Len())
	case r.cfg.Limit > 0:
		log.Infof("Requested number (%d) is >= total entries (%d). Processing all.", r.cfg.Limit, ds.Total)
	default:
		log.Info("Processing all entries.")
	}
	log.Infof("Columns being processed: %s", strings.Join(ds.Headers, ", "))
}

// printPlan writes the row -> element mapping without touching a browser.
func (r *Runner) printPlan(ds *entities.Dataset) error {
	out := r.deps.Out
	if out == nil {
		out = io.Discard
	}
	for _, row := range ds.Rows {
		if _, err := fmt.Fprintf(out, "entry %d (%s)\n", row.Number(), entities.ElementRange(row.Index)); err != nil {
			return err
		}
		for _, field := range entities.Plan(row) {
			if _, err := fmt.Fprintf(out, "  %-10s %-7s %-12s %s\n", field.Label, field.Kind, field.ElementID, field.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) saveReport(report *entities.Report) {
	if report == nil || r.deps.Store == nil {
		return
	}
	path, err := r.deps.Store.SaveReport(report)
	if err != nil {
		r.deps.Logger.Warnf("Could not save run report: %v", err)
		return
	}
	r.deps.Logger.Infof("Run report saved to %s", path)
}

func (r *Runner) closeSession(session interfaces.Session, reason string) {
	done := make(chan error, 1)
	go func() { done <- session.Close() }()
	select {
	case err := <-done:
		if err != nil {
			r.deps.Logger.Errorf("Error closing browser after %s: %v", reason, err)
		}
	case <-time.After(10 * time.Second):
		r.deps.Logger.Warnf("Timed out closing browser after %s", reason)
	}
}
