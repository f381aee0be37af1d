package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/setupplan/internal/fixture"
	"github.com/kingrea/setupplan/internal/fixture/resolver"
	"github.com/kingrea/setupplan/internal/fixture/scheduler"
)

func newValidateCommand(a *app) *cobra.Command {
	var graph bool
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check fixture declarations without printing their plans",
		Long: `Check fixture declarations without printing their plans.

Each valid file is listed with its fixtures in setup order, dependencies
before the fixtures that request them. --graph adds one line per fixture
naming its scope and the fixtures that request it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				queue, err := validateFile(path)
				if err != nil {
					failed++
					a.logger.Errorf("validate %s: %v", path, err)
					fmt.Fprintf(out, "FAIL: %s\n%s\n", path, indent(err.Error()))
					continue
				}
				writeQueue(out, path, queue, graph)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed validation", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&graph, "graph", false, "list each fixture's scope and dependents")
	return cmd
}

// validateFile plans the file and returns its fixtures in dependency order.
func validateFile(path string) ([]*resolver.Node, error) {
	file, err := fixture.LoadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := resolver.New(file)
	if err != nil {
		return nil, err
	}
	s, err := scheduler.New(res)
	if err != nil {
		return nil, err
	}
	if _, err := s.Plan(); err != nil {
		return nil, err
	}
	return res.Queue()
}

func writeQueue(w io.Writer, path string, queue []*resolver.Node, graph bool) {
	if len(queue) == 0 {
		fmt.Fprintf(w, "OK: %s\n", path)
		return
	}
	names := make([]string, len(queue))
	for i, node := range queue {
		names[i] = node.Name
	}
	fmt.Fprintf(w, "OK: %s (fixtures: %s)\n", path, strings.Join(names, ", "))
	if !graph {
		return
	}
	for _, node := range queue {
		line := fmt.Sprintf("%s [%s]", node.Name, node.Scope())
		if len(node.Dependents) > 0 {
			line += " used by " + strings.Join(node.Dependents, ", ")
		}
		fmt.Fprintln(w, indent(line))
	}
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
