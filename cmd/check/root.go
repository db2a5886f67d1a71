package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/evyataryagoni/boundary-checker/internal/app"
	"github.com/evyataryagoni/boundary-checker/internal/boundary"
	"github.com/evyataryagoni/boundary-checker/internal/config"
	"github.com/evyataryagoni/boundary-checker/internal/geocoder"
	"github.com/evyataryagoni/boundary-checker/internal/logger"
	"github.com/evyataryagoni/boundary-checker/internal/models"
	"github.com/evyataryagoni/boundary-checker/internal/service"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitInside  = 0
	exitOutside = 1
	exitFailed  = 2
)

type options struct {
	asJSON       bool
	boundaryPath string
	verbose      bool
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code := exitFailed
	cmd := newRootCmd(os.Stdout, &code, func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app.App, error) {
		return app.Build(ctx, cfg, nil, log)
	})
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitFailed
	}
	return code
}

// buildFunc assembles the pipeline for one invocation
type buildFunc func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app.App, error)

func newRootCmd(out io.Writer, code *int, build buildFunc) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "check [address]",
		Short: "Check whether an address lies inside the boundary",
		Long: `
check geocodes one free-text address, with AWS Location Service when its
credentials are configured and Nominatim otherwise, and reports whether the
point falls inside the boundary polygon.

Configuration is read from the environment (or a .env file), see BOUNDARY_PATH,
AWS_* and NOMINATIM_*.

"check outline" on its own prints the boundary. An address starting with the
word outline, like "check outline rd", is still looked up.
`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkAddress(cmd, out, opts, build, strings.Join(args, " "), code)
		},
	}

	root.PersistentFlags().StringVar(&opts.boundaryPath, "boundary", "", "boundary GeoJSON file (overrides BOUNDARY_PATH)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline steps to stderr")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")

	root.AddCommand(newOutlineCmd(out, opts, build, code))
	return root
}

func newOutlineCmd(out io.Writer, opts *options, build buildFunc, code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "outline",
		Short: "Print the outer ring of every boundary part as lat,lon lines",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Extra words mean the address itself starts with "outline"
			if len(args) > 0 {
				address := cmd.Name() + " " + strings.Join(args, " ")
				return checkAddress(cmd, out, opts, build, address, code)
			}

			cfg, log, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			b, err := app.LoadBoundary(cfg.BoundaryPath, log)
			if err != nil {
				return err
			}

			printOutline(out, b)
			*code = 0
			return nil
		},
	}
}

func checkAddress(cmd *cobra.Command, out io.Writer, opts *options, build buildFunc, address string, code *int) error {
	cfg, log, err := setup(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	pipeline, err := build(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	// Each invocation is its own session
	sess := pipeline.Resolver.NewSession(cmd.Context())
	*code = runCheck(cmd.Context(), out, pipeline.Service, sess, address, opts.asJSON)
	return nil
}

func setup(opts *options, stderr io.Writer) (*config.Config, *logger.Logger, error) {
	cfg := config.Load()
	if opts.boundaryPath != "" {
		cfg.BoundaryPath = opts.boundaryPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: true, Writer: stderr})
	return cfg, log, nil
}

// runCheck performs one lookup, prints it and returns the exit code
func runCheck(ctx context.Context, out io.Writer, svc *service.LookupService, sess *geocoder.Session, address string, asJSON bool) int {
	report, err := svc.Check(ctx, sess, address)

	if asJSON {
		resp := models.CheckResponse{
			Address:  report.Resolution.Address,
			Inside:   report.Inside(),
			Status:   string(report.Resolution.Status),
			Provider: report.Resolution.Provider,
			Message:  report.Message,
			Attempts: report.Resolution.Attempts,
		}
		if report.Result != nil {
			c := report.Result.Coordinate
			resp.Coordinate = &c
		}
		var stageErr *service.StageError
		if errors.As(err, &stageErr) {
			resp.Stage = stageErr.Stage
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(resp); encErr != nil {
			return exitFailed
		}
	} else {
		fmt.Fprintln(out, report.Message)
		if err != nil {
			for _, a := range report.Resolution.Attempts {
				fmt.Fprintf(out, "  %s: %s %s\n", a.Provider, a.Outcome, a.Error)
			}
		}
	}

	switch {
	case err != nil:
		return exitFailed
	case report.Inside():
		return exitInside
	default:
		return exitOutside
	}
}

func printOutline(out io.Writer, b *boundary.Boundary) {
	for i, ring := range b.Exteriors() {
		fmt.Fprintf(out, "# part %d (%d vertices)\n", i, len(ring))
		for _, c := range ring {
			fmt.Fprintln(out, c.String())
		}
	}
}
