package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"form_filler/application/control"
	"form_filler/application/filler"
	"form_filler/domain/entities"
	"form_filler/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const controlsHelp = "Controls: [p] pause/resume, [r] resume, [s] stop, then Enter"

// TerminalInterface is the operator's side of a run: prompts before filling,
// pause/stop keys while filling and the review gate afterwards.
type TerminalInterface struct {
	driver PromptDriver
	in     io.Reader
	logger *logrus.Logger

	mu  sync.Mutex
	out io.Writer

	linesOnce sync.Once
	lines     chan string
}

func NewTerminalInterface(driver PromptDriver, in io.Reader, out io.Writer, logger *logrus.Logger) *TerminalInterface {
	return &TerminalInterface{
		driver: driver,
		in:     in,
		out:    out,
		logger: logger,
	}
}

func (t *TerminalInterface) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// readLines starts the single stdin reader. Prompts must not run after it.
func (t *TerminalInterface) readLines() <-chan string {
	t.linesOnce.Do(func() {
		t.lines = make(chan string, 16)
		go func() {
			defer close(t.lines)
			scanner := bufio.NewScanner(t.in)
			for scanner.Scan() {
				t.lines <- strings.TrimSpace(scanner.Text())
			}
		}()
	})
	return t.lines
}

// ConfirmLogin blocks until the operator says the browser session is logged in.
func (t *TerminalInterface) ConfirmLogin(ctx context.Context, message string) error {
	t.printf("\n%s\n", message)
	for {
		ok, err := t.driver.Confirm(ctx, "Logged in and ready to proceed?", true)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		t.printf("Waiting for login. Answer yes once the form page is open.\n")
	}
}

func (t *TerminalInterface) Password(ctx context.Context, message string) (string, error) {
	return t.driver.Password(ctx, message)
}

func (t *TerminalInterface) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	return t.driver.Confirm(ctx, message, def)
}

// Listen applies pause/resume/stop commands typed by the operator until ctx
// ends, the run is stopped or input is exhausted.
func (t *TerminalInterface) Listen(ctx context.Context, ctrl *control.Controller) {
	t.printf("%s\n", controlsHelp)
	lines := t.readLines()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ctrl.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			t.handle(ctrl, line)
		}
	}
}

func (t *TerminalInterface) handle(ctrl *control.Controller, line string) {
	switch strings.ToLower(line) {
	case "":
	case "p", "pause":
		if ctrl.Toggle() {
			t.logger.Info("Automation paused")
			t.printf("Paused. Press [p] to resume.\n")
		} else {
			t.logger.Info("Automation resumed")
			t.printf("Resumed.\n")
		}
	case "r", "resume":
		if ctrl.Resume() {
			t.logger.Info("Automation resumed")
			t.printf("Resumed.\n")
		} else {
			t.printf("Not paused.\n")
		}
	case "s", "stop", "q", "quit":
		t.logger.Info("Stopping automation...")
		t.printf("Stopping after the current entry...\n")
		ctrl.Stop()
	default:
		t.printf("Unknown command %q. %s\n", line, controlsHelp)
	}
}

// WaitForReview prints message and waits for Enter. Lines typed before the
// message was shown do not count.
func (t *TerminalInterface) WaitForReview(ctx context.Context, message string) error {
	lines := t.readLines()
	more := drain(lines)
	t.printf("\n%s\n", message)
	if !more {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-lines:
		return nil
	}
}

// drain discards buffered lines. It returns false once input is exhausted.
func drain(lines <-chan string) bool {
	for {
		select {
		case _, ok := <-lines:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

func (t *TerminalInterface) Status(status string) {
	t.printf("Status: %s\n", status)
}

func (t *TerminalInterface) Progress(p filler.Progress) {
	t.printf("[%d/%d] %s\n", p.Entry, p.Total, p.Message)
}

// Summary prints the outcome of a run.
func (t *TerminalInterface) Summary(report *entities.Report) {
	if report == nil {
		return
	}
	t.printf("\nRun %s: %s\n", report.ID, report.Status)
	t.printf("Processed %d of %d entries. Successful: %d, Failed: %d\n",
		report.Processed(), report.Total, report.Succeeded, report.Failed)
	for _, o := range report.Outcomes {
		if !o.Success {
			t.printf("  entry %d (%s) failed after %d attempts: %s\n", o.Entry, o.ElementRange, o.Attempts, o.Error)
		}
	}
	if report.Error != "" {
		t.printf("Error: %s\n", report.Error)
	}
}

var _ interfaces.Prompter = (*TerminalInterface)(nil)
