package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/setupplan/internal/config"
	"github.com/kingrea/setupplan/internal/tui"
	"github.com/kingrea/setupplan/internal/walkthrough"
)

func newWalkthroughCommand(a *app) *cobra.Command {
	var noPager bool
	cmd := &cobra.Command{
		Use:   "walkthrough [DIR|FILE...]",
		Short: "Step through declarations, showing each diff and plan",
		Long: `Step through declarations, showing each diff and plan.

Without arguments the configured walkthrough.steps source is used, or the
built-in demo when none is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := a.loadSteps(args)
			if err != nil {
				return err
			}
			pages := walkthrough.Build(steps)
			if a.usePager(noPager) {
				err = tui.Run(pages, cmd.InOrStdin(), cmd.OutOrStdout(), tui.WithLogger(a.logger))
			} else {
				err = tui.WritePages(cmd.OutOrStdout(), pages)
			}
			if err != nil {
				return err
			}
			if failed := walkthrough.Failed(pages); failed > 0 {
				return fmt.Errorf("%d of %d steps could not be planned", failed, len(pages))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noPager, "no-pager", false, "print every step instead of opening the pager")
	return cmd
}

// loadSteps falls back to the configured step source when args is empty.
func (a *app) loadSteps(args []string) ([]walkthrough.Step, error) {
	if len(args) == 0 && a.cfg.StepSource() != "" {
		args = []string{a.cfg.StepSource()}
	}
	steps, err := walkthrough.Load(args)
	if err != nil {
		return nil, err
	}
	a.logger.Printf("loaded %d walkthrough steps", len(steps))
	return steps, nil
}

func (a *app) usePager(noPager bool) bool {
	if noPager {
		return false
	}
	switch a.cfg.PagerMode() {
	case config.ModeAlways:
		return true
	case config.ModeNever:
		return false
	}
	return a.terminal()
}
