package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/setupplan/internal/transcript"
	"github.com/kingrea/setupplan/internal/walkthrough"
)

const defaultComment = "setupplan transcript: each declaration is followed by its recorded plan."

func newRecordCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "record [DIR|FILE...] -o ARCHIVE",
		Short: "Store each step's declaration and plan in a txtar archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := a.loadSteps(args)
			if err != nil {
				return err
			}
			comment := defaultComment
			if len(args) == 0 && a.cfg.StepSource() == "" {
				comment = walkthrough.Intro()
			}
			archive, err := transcript.Record(comment, steps)
			if err != nil {
				return err
			}
			if err := transcript.WriteFile(output, archive); err != nil {
				return err
			}
			a.logger.Printf("recorded %d steps to %s", len(steps), output)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "recorded %d steps to %s\n", len(steps), output)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive to write")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newVerifyCommand(a *app) *cobra.Command {
	var update bool
	cmd := &cobra.Command{
		Use:   "verify ARCHIVE",
		Short: "Recompute the plans stored in an archive and report differences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()
			archive, err := transcript.ReadFile(path)
			if err != nil {
				return err
			}
			mismatches, err := transcript.Verify(archive)
			if err != nil {
				return err
			}
			for _, m := range mismatches {
				a.logger.Errorf("%s: recorded plan is stale", m.Name)
				fmt.Fprint(out, m.Diff)
				if !strings.HasSuffix(m.Diff, "\n") {
					fmt.Fprintln(out)
				}
			}
			if len(mismatches) == 0 {
				_, err := fmt.Fprintf(out, "OK: %s\n", path)
				return err
			}
			if !update {
				return fmt.Errorf("%s: %d recorded plans differ (rerun with --update to rewrite them)", path, len(mismatches))
			}
			fixed, err := transcript.Update(archive)
			if err != nil {
				return err
			}
			if err := transcript.WriteFile(path, fixed); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "updated %d plans in %s\n", len(mismatches), path)
			return err
		},
	}
	cmd.Flags().BoolVar(&update, "update", false, "rewrite stale plans instead of failing")
	return cmd
}
