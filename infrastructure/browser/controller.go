package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"form_filler/domain/entities"
	"form_filler/domain/interfaces"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

const (
	navigationTimeout = 30 * time.Second
	frameTimeout      = 20 * time.Second
	anchorTimeout     = 20 * time.Second
	loginTimeout      = 10 * time.Second
)

// Options configures the browser session.
type Options struct {
	Headless  bool
	SlowMo    time.Duration
	StatePath string // storage state to restore and save; empty disables persistence
}

type session struct {
	pw          *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	page        playwright.Page
	storagePath string
	logger      *logrus.Logger
	security    interfaces.SecurityLayer
	closeOnce   sync.Once
	closeErr    error
}

// NewSession - starts playwright and opens a visible chromium page
func NewSession(opts Options, logger *logrus.Logger, security interfaces.SecurityLayer) (interfaces.Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
		Args: []string{
			"--disable-popup-blocking",
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--disable-infobars",
			"--disable-notifications",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 900,
		},
		JavaScriptEnabled: playwright.Bool(true),
	}
	if opts.StatePath != "" {
		if _, err := os.Stat(opts.StatePath); err == nil {
			contextOptions.StorageStatePath = playwright.String(opts.StatePath)
			logger.Infof("Restoring browser state from %s", opts.StatePath)
		}
	}

	context, err := browser.NewContext(contextOptions)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(navigationTimeout.Milliseconds()))

	page.OnDialog(func(dialog playwright.Dialog) {
		logger.Infof("Accepting %s dialog: %s", dialog.Type(), dialog.Message())
		dialog.Accept()
	})

	return &session{
		pw:          pw,
		browser:     browser,
		context:     context,
		page:        page,
		storagePath: opts.StatePath,
		logger:      logger,
		security:    security,
	}, nil
}

// Open - navigates to url and waits for network idle
func (s *session) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Infof("Navigating to %s", url)
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(navigationTimeout.Milliseconds())),
	})
	return wrap(err)
}

// AutoLogin - fills the first matching username and password inputs and submits
func (s *session) AutoLogin(ctx context.Context, creds entities.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.security.CheckLoginTarget(s.page.URL(), creds); err != nil {
		return err
	}

	steps := []struct {
		what string
		run  func() error
	}{
		{"username", func() error { return s.fillFirst(creds.UsernameSelector, creds.Username) }},
		{"password", func() error { return s.fillFirst(creds.PasswordSelector, creds.Password) }},
		{"submit", func() error { return s.clickFirst(creds.SubmitSelector) }},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.run(); err != nil {
			return fmt.Errorf("%w: %s: %v", entities.ErrLoginFailed, step.what, err)
		}
		s.logger.Debugf("Login step %q done", step.what)
	}

	if err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(navigationTimeout.Milliseconds())),
	}); err != nil {
		s.logger.Warnf("Page did not reach network idle after login: %v", err)
	}
	return nil
}

func (s *session) fillFirst(selector, value string) error {
	loc := s.page.Locator(selector).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(loginTimeout.Milliseconds())),
	}); err != nil {
		return wrap(err)
	}
	return wrap(loc.Fill(value))
}

func (s *session) clickFirst(selector string) error {
	loc := s.page.Locator(selector).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(loginTimeout.Milliseconds())),
	}); err != nil {
		return wrap(err)
	}
	return wrap(loc.Click())
}

// Settle - waits d for late elements to render, returning early on cancellation
func (s *session) Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	s.logger.Infof("Waiting %s for page elements to load", d)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Snapshot - saves a full-page screenshot and the page HTML into dir
func (s *session) Snapshot(ctx context.Context, dir, name string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	screenshotPath := filepath.Join(dir, name+".png")
	htmlPath := filepath.Join(dir, name+".html")

	if _, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(screenshotPath),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return "", "", wrap(err)
	}

	content, err := s.page.Content()
	if err != nil {
		return "", "", wrap(err)
	}
	if err := os.WriteFile(htmlPath, []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write html snapshot: %w", err)
	}
	return screenshotPath, htmlPath, nil
}

// FormFrame - finds the iframe whose url contains match and waits for anchor in it
func (s *session) FormFrame(ctx context.Context, match, anchor string) (interfaces.FormFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("Looking for the form iframe...")
	err := s.page.Locator(IframeSelector(match)).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(frameTimeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrFrameNotFound, err)
	}

	frame, ok := FindFrame(s.page.Frames(), match)
	if !ok {
		return nil, fmt.Errorf("%w: no frame url contains %q", entities.ErrFrameNotFound, match)
	}
	s.logger.Infof("Form iframe found (%s). Switching context.", frame.URL())

	s.logger.Infof("Checking if the initial form element (%s) is present in the iframe...", anchor)
	err = frame.Locator(anchor).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(anchorTimeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entities.ErrAnchorNotVisible, anchor, err)
	}
	s.logger.Info("Initial form element found in iframe")

	return NewFormFrame(frame), nil
}

// SaveState - saves cookies and local storage for the next run
func (s *session) SaveState() error {
	if s.context == nil || s.storagePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.storagePath), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	_, err := s.context.StorageState(s.storagePath)
	if err != nil {
		if isClosedErr(err) {
			return nil
		}
		return fmt.Errorf("failed to save browser state: %w", err)
	}
	return nil
}

// Close - saves state, then closes context, browser and the playwright driver
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close()
	})
	return s.closeErr
}

func (s *session) close() error {
	var closeErr error

	if err := s.SaveState(); err != nil {
		closeErr = err
	}

	if s.context != nil {
		if err := s.context.Close(); err != nil && !isClosedErr(err) {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to close context: %w", err))
		}
		s.context = nil
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to close browser: %w", err))
		}
		s.browser = nil
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to stop playwright: %w", err))
		}
		s.pw = nil
	}

	return closeErr
}

// IframeSelector matches iframes whose src contains match.
func IframeSelector(match string) string {
	return fmt.Sprintf(`iframe[src*="%s"]`, strings.ReplaceAll(match, `"`, `\"`))
}

// FindFrame returns the first frame whose URL contains match.
func FindFrame[F interface{ URL() string }](frames []F, match string) (F, bool) {
	for _, f := range frames {
		if strings.Contains(f.URL(), match) {
			return f, true
		}
	}
	var zero F
	return zero, false
}

func isClosedErr(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}

func joinErr(prev, next error) error {
	if prev == nil {
		return next
	}
	return fmt.Errorf("%v; %w", prev, next)
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("playwright: %w", err)
}
