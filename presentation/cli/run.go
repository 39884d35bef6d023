package cli

import (
	"time"

	"form_filler/application/control"
	"form_filler/application/runner"
	"form_filler/domain/interfaces"
	"form_filler/infrastructure/browser"
	"form_filler/infrastructure/config"
	"form_filler/infrastructure/dataset"
	"form_filler/infrastructure/logging"
	"form_filler/infrastructure/security"
	"form_filler/infrastructure/storage"
	"form_filler/presentation/terminal"

	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in through a visible browser and fill one form slot per CSV row.",
		Long: `Opens the URL in a visible Chromium window, waits for you to log in (or tries
to log in with --login auto), locates the form iframe and fills elements
element_{6n}..element_{6n+4} from row n of the CSV file.

While rows are being filled, type p and Enter to pause or resume, s and Enter to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd)
		},
	}

	f := cmd.Flags()
	f.StringP("file", "f", "", "CSV data file (no header row)")
	f.StringP("url", "u", "", "website URL to open")
	f.Int("limit", 0, "number of entries to process (0 processes all)")
	f.Duration("field-delay", 500*time.Millisecond, "delay after each filled field")
	f.Duration("form-delay", 2*time.Second, "delay between entries")
	f.Int("max-retries", 3, "attempts per entry (1-5)")
	f.String("frame-match", "emailmeform.com", "substring of the form iframe URL")
	f.String("anchor", "#element_0", "selector that must be visible inside the iframe before filling")
	f.String("login", "manual", "login gate: manual, auto or none")
	f.String("username", "", "username for --login auto (password from FORM_FILLER_PASSWORD or prompt)")
	f.String("username-selector", "", "override the username field selector for --login auto")
	f.String("password-selector", "", "override the password field selector for --login auto")
	f.String("submit-selector", "", "override the submit button selector for --login auto")
	f.Bool("allow-insecure", false, "allow --login auto to submit credentials over plain http")
	f.Duration("settle", 5*time.Second, "wait after login before looking for the form")
	f.Bool("debug-snapshot", true, "save a screenshot and HTML dump after login")
	f.String("snapshot-dir", ".", "directory for debug snapshots")
	f.String("state-file", "", "browser storage state to restore and save (default ~/.form_filler/browser_state.json)")
	f.Bool("headless", false, "run the browser without a window")
	f.Duration("slow-mo", 0, "slow down every browser operation")
	f.Bool("keep-open", true, "keep the browser open for review after a completed run")
	f.Bool("dry-run", false, "print the entry to element mapping without opening a browser")
	return cmd
}

func (a *app) run(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer := logging.New(cfg.Logger, cmd.ErrOrStderr())
	defer closer.Close()

	sec := security.NewSecurityLayer(logger, cfg.Login.AllowInsecure)
	sec.AddSecret(cfg.Login.Password)
	logging.AttachRedactor(logger, sec)

	store, err := storage.NewRunStore(cfg.ReportDir)
	if err != nil {
		return err
	}

	term := terminal.NewTerminalInterface(a.driver, a.in, cmd.OutOrStdout(), logger)

	opts := browser.Options{
		Headless:  cfg.Browser.Headless,
		SlowMo:    cfg.Browser.SlowMo,
		StatePath: cfg.Browser.StateFile,
	}
	if opts.StatePath == "" {
		opts.StatePath = storage.DefaultStatePath()
	}

	r := runner.New(cfg, runner.Deps{
		Data:     dataset.NewCSVLoader(logger),
		Store:    store,
		Prompter: term,
		Reviewer: term,
		Controls: term,
		Secrets:  sec,
		NewSession: func() (interfaces.Session, error) {
			return a.openSession(opts, logger, sec)
		},
		Logger: logger,
		Out:    cmd.OutOrStdout(),
	}, control.New())
	r.OnStatus(term.Status)
	r.OnProgress(term.Progress)

	report, err := r.Run(cmd.Context())
	term.Summary(report)
	return err
}
