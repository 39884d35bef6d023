package filler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"form_filler/application/control"
	"form_filler/domain/entities"
	"form_filler/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options tunes pacing and retries.
type Options struct {
	FieldDelay    time.Duration // after every filled field
	FormDelay     time.Duration // between successfully filled rows
	MaxRetries    int           // attempts per row
	FieldTimeout  time.Duration // waiting for a field to be visible
	ActionTimeout time.Duration // a single fill/select/evaluate call
	RetryDelay    time.Duration // between failed attempts of a row
	FailureDelay  time.Duration // after the last failed attempt of a row
}

// DefaultOptions returns the pacing used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		FieldDelay:    500 * time.Millisecond,
		FormDelay:     2 * time.Second,
		MaxRetries:    3,
		FieldTimeout:  10 * time.Second,
		ActionTimeout: 5 * time.Second,
		RetryDelay:    500 * time.Millisecond,
		FailureDelay:  time.Second,
	}
}

// Progress is reported before and after every row.
type Progress struct {
	Entry   int
	Total   int
	Message string
}

type Filler struct {
	frame      interfaces.FormFrame
	control    *control.Controller
	logger     *logrus.Logger
	opts       Options
	onProgress func(Progress)

	// pauses between fields and attempts end only with ctx; pauses between
	// rows also end on stop
	sleep    func(ctx context.Context, d time.Duration) error
	rowSleep func(ctx context.Context, d time.Duration) error
}

// NewFiller - creates a filler writing into frame
func NewFiller(frame interfaces.FormFrame, ctrl *control.Controller, logger *logrus.Logger, opts Options) *Filler {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Filler{
		frame:    frame,
		control:  ctrl,
		logger:   logger,
		opts:     opts,
		sleep:    sleep,
		rowSleep: ctrl.Sleep,
	}
}

// OnProgress registers a callback for status updates.
func (f *Filler) OnProgress(fn func(Progress)) {
	f.onProgress = fn
}

func (f *Filler) progress(p Progress) {
	if f.onProgress != nil {
		f.onProgress(p)
	}
}

// Run - fills every row of ds, honoring pause and stop between rows
func (f *Filler) Run(ctx context.Context, ds *entities.Dataset, url string) (*entities.Report, error) {
	report := &entities.Report{
		ID:        uuid.NewString(),
		URL:       url,
		File:      ds.Path,
		Status:    entities.RunStatusRunning,
		Total:     ds.Len(),
		StartedAt: time.Now(),
	}
	total := ds.Len()

	for _, row := range ds.Rows {
		if f.control.Stopped() {
			f.logger.Info("Automation stopped by user")
			break
		}

		if err := f.control.WaitWhilePaused(ctx); err != nil {
			if errors.Is(err, entities.ErrStopped) {
				f.logger.Info("Automation stopped by user")
				break
			}
			return f.finish(report, err), err
		}

		entry := row.Number()
		f.progress(Progress{Entry: entry - 1, Total: total, Message: fmt.Sprintf("Processing entry %d of %d", entry, total)})
		f.logger.WithField("entry", entry).Infof("Processing entry %d: %v", entry, row.Fields(ds.Headers))

		outcome, err := f.fillWithRetry(ctx, row)
		report.Record(outcome)
		if err != nil {
			return f.finish(report, err), err
		}
		f.progress(Progress{Entry: entry, Total: total, Message: fmt.Sprintf("Processed entry %d of %d", entry, total)})

		if outcome.Success && entry < total {
			f.logger.Infof("Waiting %s before processing next entry", f.opts.FormDelay)
			if err := f.rowSleep(ctx, f.opts.FormDelay); err != nil && !errors.Is(err, entities.ErrStopped) {
				return f.finish(report, err), err
			}
		}
	}

	f.finish(report, nil)
	if report.Status == entities.RunStatusCompleted {
		f.logger.Info("All entries processed!")
	} else {
		f.logger.Info("Automation stopped before completion.")
	}
	return report, nil
}

// fillWithRetry attempts a row up to MaxRetries times. A non-nil error means the
// context ended and the run must abort.
func (f *Filler) fillWithRetry(ctx context.Context, row entities.Row) (entities.RowOutcome, error) {
	entry := row.Number()
	elements := entities.ElementRange(row.Index)
	outcome := entities.RowOutcome{Entry: entry, ElementRange: elements}
	log := f.logger.WithFields(logrus.Fields{"entry": entry, "element_range": elements})

	for attempt := 1; attempt <= f.opts.MaxRetries; attempt++ {
		outcome.Attempts = attempt

		err := f.FillRow(ctx, row)
		if err == nil {
			log.Infof("Successfully filled form %d (%s)", entry, elements)
			outcome.Success = true
			outcome.Error = ""
			outcome.FinishedAt = time.Now()
			return outcome, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome.Error = ctxErr.Error()
			outcome.FinishedAt = time.Now()
			return outcome, ctxErr
		}

		outcome.Error = err.Error()
		log.WithField("attempt", attempt).Warnf("Error processing entry %d (%s): %v, retry %d", entry, elements, err, attempt)

		delay := f.opts.RetryDelay
		if attempt >= f.opts.MaxRetries {
			log.Errorf("Failed to process entry %d after %d attempts", entry, attempt)
			delay = f.opts.FailureDelay
		}
		if err := f.sleep(ctx, delay); err != nil {
			outcome.FinishedAt = time.Now()
			return outcome, err
		}
	}

	outcome.FinishedAt = time.Now()
	return outcome, nil
}

// FillRow - writes the first five values of row into its form slot
func (f *Filler) FillRow(ctx context.Context, row entities.Row) error {
	for _, field := range entities.Plan(row) {
		if err := f.fillField(ctx, field); err != nil {
			return err
		}
		if err := f.sleep(ctx, f.opts.FieldDelay); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) fillField(ctx context.Context, field entities.PlannedField) error {
	desc := field.Description()
	f.logger.Debugf("Attempting to locate %s with selector: %s", desc, field.Selector)

	if err := f.frame.WaitVisible(ctx, field.Selector, f.opts.FieldTimeout); err != nil {
		if errors.Is(err, entities.ErrElementTimeout) {
			f.logger.Warnf("Timeout waiting for or interacting with %s (%s)", desc, field.Selector)
		}
		return fmt.Errorf("%s: %w", desc, err)
	}

	n, err := f.frame.Count(ctx, field.Selector)
	if err != nil {
		return fmt.Errorf("%s: %w", desc, err)
	}
	if n == 0 {
		f.logger.Warnf("Could not find element %s (%s)", desc, field.Selector)
		return fmt.Errorf("%w: %s", entities.ErrElementNotFound, field.Selector)
	}

	tag, err := f.frame.TagName(ctx, field.Selector, f.opts.ActionTimeout)
	if err != nil {
		return fmt.Errorf("%s: %w", desc, err)
	}

	if field.Kind == entities.FieldSelect && tag == "select" {
		return f.selectField(ctx, field)
	}

	if err := f.frame.Fill(ctx, field.Selector, field.Value, f.opts.ActionTimeout); err != nil {
		return fmt.Errorf("%s: %w", desc, err)
	}
	f.logger.Infof("Filled %s with value: %s", desc, field.Value)
	return nil
}

// selectField tries the option value, then the option label, then plain fill.
func (f *Filler) selectField(ctx context.Context, field entities.PlannedField) error {
	desc := field.Description()

	err := f.frame.SelectOption(ctx, field.Selector, interfaces.SelectByValue, field.Value, f.opts.ActionTimeout)
	if err == nil {
		f.logger.Infof("Selected option by value for %s: %s", desc, field.Value)
		return nil
	}
	if !errors.Is(err, entities.ErrElementTimeout) {
		return fmt.Errorf("%s: %w", desc, err)
	}

	err = f.frame.SelectOption(ctx, field.Selector, interfaces.SelectByLabel, field.Value, f.opts.ActionTimeout)
	if err == nil {
		f.logger.Infof("Selected option by label for %s: %s", desc, field.Value)
		return nil
	}
	if !errors.Is(err, entities.ErrElementTimeout) {
		f.logger.Errorf("Specific error selecting option for %s: %v", desc, err)
		return fmt.Errorf("%s: %w", desc, err)
	}

	f.logger.Warnf("Could not select option for %s by value or label. Trying to fill.", desc)
	if err := f.frame.Fill(ctx, field.Selector, field.Value, f.opts.ActionTimeout); err != nil {
		return fmt.Errorf("%s: %w", desc, err)
	}
	return nil
}

func (f *Filler) finish(report *entities.Report, err error) *entities.Report {
	report.FinishedAt = time.Now()
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		report.Status = entities.RunStatusStopped
		report.Error = err.Error()
	case err != nil:
		report.Status = entities.RunStatusFailed
		report.Error = err.Error()
	case f.control.Stopped():
		report.Status = entities.RunStatusStopped
	default:
		report.Status = entities.RunStatusCompleted
	}
	return report
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
