package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/iti/dtnsim"
)

// RoutesOptions holds flags for the routes command.
type RoutesOptions struct {
	At        float64
	Datarate  float64
	Delay     float64
	NodeOrder string
}

// RoutesResult is the payload of the routes command.
type RoutesResult struct {
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	At          float64         `json:"at"`
	Routes      []*dtnsim.Route `json:"routes"`
}

// NewRoutesCommand creates the routes command.
func NewRoutesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RoutesOptions{}
	cmd := &cobra.Command{
		Use:   "routes <plan> <source> <destination>",
		Short: "List every route the contact graph offers between two nodes",
		Long: `Discover routes the way a node does when it first needs to reach a
destination: repeated earliest-arrival searches, each one suppressing the
contact that limited the route found before it.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(rootOpts, opts, args, cmd)
		},
	}
	cmd.Flags().Float64Var(&opts.At, "at", 0, "time (ms) at which the search starts")
	cmd.Flags().Float64Var(&opts.Datarate, "datarate", 1000, "datarate (bits/ms) for plans that do not give one")
	cmd.Flags().Float64Var(&opts.Delay, "delay", 0, "delay (ms) for plans that do not give one")
	cmd.Flags().StringVar(&opts.NodeOrder, "node-order", "lexical", "tie-break order over node names (lexical|reverse)")
	return cmd
}

func runRoutes(rootOpts *RootOptions, opts *RoutesOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	planFile, src, dst := args[0], args[1], args[2]

	order, err := dtnsim.NodeOrderByName(opts.NodeOrder)
	if err != nil {
		return err
	}
	plan, err := dtnsim.LoadContactPlan(planFile, nil, math.Inf(1), opts.Datarate, opts.Delay)
	if err != nil {
		return fmt.Errorf("loading plan %s: %w", planFile, err)
	}
	for _, node := range []string{src, dst} {
		if !containsNode(plan, node) {
			return fmt.Errorf("node %s is not in plan %s", node, planFile)
		}
	}

	cg := dtnsim.CreateContactGraph(plan, order)
	cache := dtnsim.CreateRouteCache(src, cg, order)
	cache.LoadAll(dst, opts.At)

	result := &RoutesResult{Source: src, Destination: dst, At: opts.At, Routes: cache.Routes(dst)}
	if result.Routes == nil {
		result.Routes = make([]*dtnsim.Route, 0)
	}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "%d routes from %s to %s at %g\n", len(result.Routes), src, dst, opts.At)
		for idx, rt := range result.Routes {
			fmt.Fprintf(w, "%3d %s\n", idx, rt.String())
		}
	})
}

func containsNode(plan *dtnsim.ContactPlan, node string) bool {
	for _, n := range plan.Nodes {
		if n == node {
			return true
		}
	}
	return false
}
