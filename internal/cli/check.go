package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/iti/dtnsim"
)

// CheckResult is the payload of the check command.
type CheckResult struct {
	Nodes        int         `json:"nodes"`
	Contacts     int         `json:"contacts"`
	Vertices     int         `json:"vertices"`
	Hotspots     []string    `json:"hotspots,omitempty"`
	Unreachable  [][2]string `json:"unreachable"`
	GraphHealthy bool        `json:"graph_healthy"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <plan>",
		Short: "Load a contact plan and report on its static structure",
		Long: `Load a contact plan, build its contact graph, and list the node pairs
that no sequence of contacts connects even when timing is ignored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, planFile string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	plan, err := dtnsim.LoadContactPlan(planFile, nil, math.Inf(1), 1000, 0)
	if err != nil {
		return fmt.Errorf("loading plan %s: %w", planFile, err)
	}
	cg := dtnsim.CreateContactGraph(plan, dtnsim.LexicalOrder)

	result := &CheckResult{
		Nodes:        len(plan.Nodes),
		Contacts:     len(plan.Contacts),
		Vertices:     cg.Len(),
		Hotspots:     plan.Hotspots,
		Unreachable:  plan.UnreachablePairs(),
		GraphHealthy: cg.CheckConsistency() == nil,
	}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "%d nodes, %d contacts, %d graph vertices\n", result.Nodes, result.Contacts, result.Vertices)
		if len(result.Hotspots) > 0 {
			fmt.Fprintf(w, "hotspots: %v\n", result.Hotspots)
		}
		if len(result.Unreachable) == 0 {
			fmt.Fprintln(w, "every node can reach every other node")
		} else {
			fmt.Fprintf(w, "%d unreachable pairs\n", len(result.Unreachable))
			for _, pair := range result.Unreachable {
				fmt.Fprintf(w, "  %s -> %s\n", pair[0], pair[1])
			}
		}
		if !result.GraphHealthy {
			fmt.Fprintln(w, "contact graph is inconsistent")
		}
	})
}
