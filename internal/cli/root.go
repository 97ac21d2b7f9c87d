package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

// RootOptions carries the flags shared by run, routes and check
type RootOptions struct {
	Verbose bool
	Format  string
}

// ValidFormats lists the report encodings; text is for people, json for scripts
var ValidFormats = []string{"text", "json"}

// NewRootCommand assembles the dtnsim command tree
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dtnsim",
		Short: "Simulate packet forwarding over a scheduled contact plan",
		Long: `dtnsim replays a delay-tolerant network's contact plan in simulated time.
Nodes forward packets with Contact Graph Routing (cgr) or its
source-routed variant (scgr), booking capacity on each contact as they go.

  run     drive an experiment file and report deliveries and delays
  routes  list the routes the contact graph offers between two nodes
  check   load a plan and report on its structure`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("--format %s is not supported, use %s", opts.Format,
					strings.Join(ValidFormats, " or "))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every routing decision (debug level)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "report encoding: text or json")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRoutesCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// newLogger sends simulator logging to w; only warnings and errors unless verbose.
func newLogger(opts *RootOptions, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.WarnLevel)
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
