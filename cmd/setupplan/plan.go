package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/setupplan/internal/config"
	"github.com/kingrea/setupplan/internal/fixture"
	"github.com/kingrea/setupplan/internal/fixture/scheduler"
)

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: fmt.Sprintf("Create %s/ with a default config in the project directory", config.Dir),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitDir(a.cfg.ProjectDir); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", a.cfg.ConfigPath())
			return err
		},
	}
}

func newPlanCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan FILE...",
		Short: "Print the setup plan of each fixture declaration (\"-\" reads YAML from stdin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			printed, failed := 0, 0
			for _, path := range args {
				var plan *scheduler.Plan
				var err error
				if path == stdinArg {
					plan, err = planReader(cmd.InOrStdin())
				} else {
					plan, err = planFile(path)
				}
				if err != nil {
					failed++
					a.logger.With(zap.String("file", path)).Errorf("plan: %v", err)
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				a.logger.With(zap.String("file", path)).Printf("planned %d items, %d events", len(plan.Items), len(plan.Events))
				if printed > 0 {
					fmt.Fprintln(out)
				}
				printed++
				if _, err := plan.WriteTo(out); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be planned", failed, len(args))
			}
			return nil
		},
	}
}

const (
	stdinArg = "-"
	// stdinName gives stdin a YAML extension and a default test path.
	stdinName = "test_stdin.yaml"
)

func planReader(r io.Reader) (*scheduler.Plan, error) {
	file, err := fixture.LoadReader(stdinName, r)
	if err != nil {
		return nil, err
	}
	return scheduler.Build(file)
}

func planFile(path string) (*scheduler.Plan, error) {
	file, err := fixture.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return scheduler.Build(file)
}
