// Command weatherstats aggregates a pipe-delimited balloon flight log into
// flight statistics: temperature extrema and mean in Kelvin, per-observatory
// observation counts, and total travel distance in meters.
//
// Usage:
//
//	weatherstats -input flight.log
//	weatherstats -input flight.log -fields min,mean,distance
//	weatherstats -input flight.log -metrics-addr :8080
//
// Malformed and blank lines are skipped; a log with no valid records at all
// is an error. Results print to stdout, logs to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	httpadapter "github.com/eugene-g/ambiata-weather/internal/adapter/http"
	"github.com/eugene-g/ambiata-weather/internal/config"
	"github.com/eugene-g/ambiata-weather/internal/domain"
	"github.com/eugene-g/ambiata-weather/internal/observability"
	"github.com/eugene-g/ambiata-weather/internal/pipeline"
)

const allFields = "min,max,mean,counts,distance"

func main() {
	if err := run(); err != nil {
		slog.Error("weatherstats failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	input := flag.String("input", "", "path to the observation log (required)")
	fields := flag.String("fields", allFields, "comma-separated statistics to print")
	metricsAddr := flag.String("metrics-addr", "", "optional listen address for health and metrics endpoints")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if *input == "" {
		flag.Usage()
		return errors.New("missing required flag: -input")
	}
	if _, err := os.Stat(*input); err != nil {
		return fmt.Errorf("observation log %q does not exist", *input)
	}

	p := pipeline.New(logger, metrics)

	var srv *httpadapter.Server
	if *metricsAddr != "" {
		srv = httpadapter.NewServer(*metricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	stats, err := p.RunFile(*input)
	if err != nil {
		return err
	}
	if srv != nil {
		srv.PublishStats(stats)
	}

	return printStats(os.Stdout, stats, *fields)
}

// printStats writes the selected FlightStats fields in the order given, one
// per line. Observation counts are sorted by observatory name for stable
// output. Empty tokens from stray commas are ignored.
func printStats(w io.Writer, stats *domain.FlightStats, fields string) error {
	for _, field := range strings.Split(fields, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		switch field {
		case "min":
			fmt.Fprintf(w, "min temperature: %s K\n", stats.MinTemp)
		case "max":
			fmt.Fprintf(w, "max temperature: %s K\n", stats.MaxTemp)
		case "mean":
			fmt.Fprintf(w, "mean temperature: %s K\n", stats.MeanTemp)
		case "counts":
			names := make([]string, 0, len(stats.Observations))
			for name := range stats.Observations {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "observations[%s]: %d\n", name, stats.Observations[name])
			}
		case "distance":
			fmt.Fprintf(w, "total distance: %s m\n", stats.Distance)
		default:
			return fmt.Errorf("unknown field %q (valid: %s)", field, allFields)
		}
	}
	return nil
}
