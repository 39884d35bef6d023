package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"form_filler/domain/interfaces"
	"form_filler/infrastructure/browser"
	"form_filler/infrastructure/config"
	"form_filler/presentation/terminal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is overridden at build time with -ldflags "-X form_filler/presentation/cli.Version=...".
var Version = "dev"

// sessionOpener starts a browser session; replaced in tests.
type sessionOpener func(opts browser.Options, logger *logrus.Logger, security interfaces.SecurityLayer) (interfaces.Session, error)

type app struct {
	cfgFile string
	v       *viper.Viper

	in          io.Reader
	driver      terminal.PromptDriver
	openSession sessionOpener
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"file":              "file",
	"url":               "url",
	"limit":             "limit",
	"field-delay":       "field_delay",
	"form-delay":        "form_delay",
	"max-retries":       "max_retries",
	"frame-match":       "frame_match",
	"anchor":            "anchor",
	"login":             "login.mode",
	"username":          "login.username",
	"username-selector": "login.username_selector",
	"password-selector": "login.password_selector",
	"submit-selector":   "login.submit_selector",
	"allow-insecure":    "login.allow_insecure",
	"settle":            "browser.settle",
	"debug-snapshot":    "browser.debug_snapshot",
	"snapshot-dir":      "browser.snapshot_dir",
	"state-file":        "browser.state_file",
	"headless":          "browser.headless",
	"slow-mo":           "browser.slow_mo",
	"keep-open":         "browser.keep_open",
	"report-dir":        "report_dir",
	"log-file":          "log.file",
	"log-level":         "log.level",
	"dry-run":           "dry_run",
}

// NewRootCmd builds the form_filler command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{
		in:          os.Stdin,
		driver:      terminal.NewSurveyDriver(nil),
		openSession: browser.NewSession,
	})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "form_filler",
		Short:   "Fill repeating web form blocks from the rows of a CSV file.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initializeConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./form_filler.yaml)")
	rootCmd.PersistentFlags().String("report-dir", "", "directory for run reports (default ~/.form_filler)")
	rootCmd.PersistentFlags().String("log-file", "form_filler.log", "append log entries to this file; empty disables")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newReportCmd(a))
	return rootCmd
}

// initializeConfig layers defaults, config file, env and the flags of cmd.
func (a *app) initializeConfig(cmd *cobra.Command) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag --%s: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return bindErr
	}
	a.v = v
	return nil
}

// Execute runs the root command with ctx, which is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
