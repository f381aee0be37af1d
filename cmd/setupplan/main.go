// cmd/setupplan/main.go
//
// Entry point for the setupplan CLI. Every subcommand shares the project
// settings loaded in the root command's PersistentPreRunE: the config in
// .setupplan/config.yaml, the color profile and the run log.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kingrea/setupplan/internal/config"
	"github.com/kingrea/setupplan/internal/logging"
	"github.com/kingrea/setupplan/internal/tui"
)

func main() {
	if err := xmain(); err != nil {
		fmt.Fprintf(os.Stderr, "setupplan: %v\n", err)
		os.Exit(1)
	}
}

func xmain() error {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	defer a.close()
	return a.execute(os.Args[1:])
}

type globalOptions struct {
	Debug   bool
	Project string
	Color   string
}

// app carries what the subcommands share.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	opts   globalOptions
	cfg    *config.Config
	logger *logging.Logger

	// terminal reports whether out is a terminal. Tests replace it.
	terminal func() bool
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	a := &app{in: in, out: out, errOut: errOut}
	a.terminal = func() bool {
		f, ok := a.out.(*os.File)
		return ok && tui.IsTerminal(f)
	}
	return a
}

func (a *app) execute(args []string) error {
	root := newRootCommand(a)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		a.logger.Errorf("%s failed: %v", strings.Join(args, " "), err)
	}
	return err
}

func (a *app) close() {
	if err := a.logger.Close(); err != nil {
		fmt.Fprintf(a.errOut, "setupplan: close log: %v\n", err)
	}
	a.logger = nil
}

func newRootCommand(a *app) *cobra.Command {
	short := "setupplan prints the fixture setup/teardown plan of a test declaration"
	long := fmt.Sprintf(`%s

Project settings: %s/config.yaml (override the project with $%s or --project)
`, short, config.Dir, config.ProjectEnv)
	rootCmd := &cobra.Command{
		Use:           "setupplan",
		Short:         short,
		Long:          long,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)
	initRootFlags(rootCmd.PersistentFlags(), &a.opts)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd.Flags())
	}
	rootCmd.AddCommand(
		newInitCommand(a),
		newPlanCommand(a),
		newValidateCommand(a),
		newWalkthroughCommand(a),
		newRecordCommand(a),
		newVerifyCommand(a),
	)
	return rootCmd
}

func initRootFlags(flags *pflag.FlagSet, opts *globalOptions) {
	flags.BoolVar(&opts.Debug, "debug", false, "debug mode (log at debug level)")
	flags.StringVar(&opts.Project, "project", "", fmt.Sprintf("project directory holding %s/ (default $%s or the working directory)", config.Dir, config.ProjectEnv))
	flags.StringVar(&opts.Color, "color", config.ModeAuto, `when to color output ("auto"|"always"|"never")`)
}

// setup loads the project config, picks the color profile and opens the run
// log. The log is only written when the project has a settings directory or
// --debug is given.
func (a *app) setup(flags *pflag.FlagSet) error {
	projectDir, err := config.ResolveProjectDir(a.opts.Project)
	if err != nil {
		return err
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	color := cfg.ColorMode()
	if flags.Changed("color") {
		color = a.opts.Color
	}
	if err := tui.SetColorMode(color, a.terminal()); err != nil {
		return err
	}

	level := cfg.LogLevel()
	if a.opts.Debug {
		level = "debug"
	}
	if _, err := os.Stat(cfg.SettingsDir); err == nil || a.opts.Debug {
		logger, err := logging.New(cfg.LogsDir(), level)
		if err != nil {
			return err
		}
		a.logger = logger
	}
	a.logger.Debugf("project %s, color %s", projectDir, color)
	return nil
}
