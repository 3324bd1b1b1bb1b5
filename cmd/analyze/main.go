// analyze - estimate the return of a solar installation from NASA POWER irradiance
//
// Usage:
//
//	analyze -lat 33.4484 -lon -112.0740 -size 100 -rate 0.12
//	analyze -lat 33.4484 -lon -112.0740 -size 100 -rate 0.12 -start 2023-01-01 -end 2023-12-31 -csv out.csv
//
// Financial constants and the POWER endpoint are read from the same environment variables as
// the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/solar-roi/internal/config"
	"github.com/aristath/solar-roi/internal/di"
	"github.com/aristath/solar-roi/internal/domain"
	"github.com/aristath/solar-roi/internal/modules/analysis"
	"github.com/aristath/solar-roi/pkg/logger"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

type options struct {
	lat, lon   float64
	size, rate float64
	start, end string
	csvPath    string
	upload     bool
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Float64Var(&opts.lat, "lat", 0, "latitude in decimal degrees (required)")
	fs.Float64Var(&opts.lon, "lon", 0, "longitude in decimal degrees (required)")
	fs.Float64Var(&opts.size, "size", 100, "system size in kW")
	fs.Float64Var(&opts.rate, "rate", 0.12, "electricity rate in USD/kWh")
	fs.StringVar(&opts.start, "start", "", "first day, YYYY-MM-DD (default: Jan 1 of last year)")
	fs.StringVar(&opts.end, "end", "", "last day, YYYY-MM-DD (default: Dec 31 of last year)")
	fs.StringVar(&opts.csvPath, "csv", "", "write the daily series to this CSV file")
	fs.BoolVar(&opts.upload, "upload", false, "upload the daily series CSV to EXPORT_BUCKET")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if *showVersion {
		fmt.Fprintf(stderr, "analyze %s\n", Version)
		return opts, flag.ErrHelp
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["lat"] || !set["lon"] {
		return opts, fmt.Errorf("-lat and -lon are required")
	}

	return opts, nil
}

func (o options) request() (analysis.Request, error) {
	req := analysis.Request{
		Latitude:        o.lat,
		Longitude:       o.lon,
		SystemSizeKW:    o.size,
		ElectricityRate: o.rate,
	}
	for _, d := range []struct {
		raw string
		dst **time.Time
	}{{o.start, &req.Start}, {o.end, &req.End}} {
		if d.raw == "" {
			continue
		}
		t, err := time.Parse(domain.DateLayout, d.raw)
		if err != nil {
			return req, fmt.Errorf("invalid date %q, want YYYY-MM-DD", d.raw)
		}
		*d.dst = &t
	}
	return req, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err == flag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	if opts.upload && container.Exporter == nil {
		return fmt.Errorf("-upload requires EXPORT_BUCKET to be set")
	}

	req, err := opts.request()
	if err != nil {
		return err
	}

	report, err := container.Analysis.Analyze(ctx, req)
	if err != nil {
		return explain(err)
	}

	if err := printReport(stdout, report); err != nil {
		return err
	}

	if opts.csvPath != "" {
		if err := writeCSVFile(opts.csvPath, report); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nDaily series written to %s\n", opts.csvPath)
	}

	if opts.upload {
		location, err := uploadCSV(ctx, container.Exporter, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Daily series uploaded to %s\n", location)
	}

	return nil
}

func writeCSVFile(path string, report *analysis.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.Series.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type uploader interface {
	Upload(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
}

// uploadCSV streams the daily series to the exporter. The writer goroutine always exits
// before uploadCSV returns, even when the upload gives up without draining the pipe.
func uploadCSV(ctx context.Context, up uploader, report *analysis.Report) (string, error) {
	r, w := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.CloseWithError(report.Series.WriteCSV(w))
	}()

	location, err := up.Upload(ctx, csvFileName(report), r, "text/csv")
	if err != nil {
		r.CloseWithError(err)
	} else {
		r.Close()
	}
	<-done
	return location, err
}
