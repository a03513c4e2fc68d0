package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maximewewer/timedata/internal/config"
	"github.com/maximewewer/timedata/internal/timedata"
	"github.com/maximewewer/timedata/pkg/logger"
)

type replayOptions struct {
	trustLocalClock bool
	countSeed       bool
	capacity        int
	logLevel        string
}

func newReplayCmd() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay [file|-]",
		Short: "Feed recorded peer offsets through the estimator",
		Long: `Reads one "peer offset" pair per line, offset in whole seconds, and
prints the resulting estimator state as JSON. Blank lines and lines
starting with # are skipped. Reads stdin when no file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open replay file: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runReplay(in, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.trustLocalClock, "trust-local-clock", false, "Ignore peers and keep a zero offset")
	cmd.Flags().BoolVar(&opts.countSeed, "count-seed", false, "Count the initial zero seed as a sample")
	cmd.Flags().IntVar(&opts.capacity, "capacity", config.DefaultCapacity, "Sample window capacity")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	return cmd
}

func runReplay(in io.Reader, out io.Writer, opts replayOptions) error {
	if opts.capacity < 1 {
		return fmt.Errorf("capacity must be positive, got %d", opts.capacity)
	}
	if err := logger.InitLogger(logger.Config{
		Level:     opts.logLevel,
		Format:    "json",
		Output:    "stderr",
		Component: "timedata",
	}); err != nil {
		return err
	}

	trust := opts.trustLocalClock
	serviceOpts := []timedata.Option{
		timedata.WithCapacity(opts.capacity),
		timedata.WithTrustSource(timedata.TrustFunc(func() bool { return trust })),
	}
	if opts.countSeed {
		serviceOpts = append(serviceOpts, timedata.WithSeedCounted())
	}
	svc := timedata.New(serviceOpts...)

	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		peer, offset, ok, err := parseSampleLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if ok {
			svc.AddSample(peer, offset)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read samples: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(svc.Snapshot())
}

// parseSampleLine parses "peer offset". ok is false for blank and comment lines.
func parseSampleLine(line string) (peer timedata.PeerID, offset int64, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", 0, false, nil
	}

	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, false, fmt.Errorf("expected \"peer offset\", got %q", line)
	}

	offset, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid offset %q: %w", fields[1], err)
	}

	return timedata.PeerID(fields[0]), offset, true, nil
}
