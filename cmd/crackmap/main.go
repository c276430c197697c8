package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jengzang/crackmap-backend-go/internal/config"
	"github.com/jengzang/crackmap-backend-go/internal/damagemap"
	"github.com/jengzang/crackmap-backend-go/internal/database"
	"github.com/jengzang/crackmap-backend-go/internal/logger"
	"github.com/jengzang/crackmap-backend-go/internal/metadata"
	"github.com/jengzang/crackmap-backend-go/internal/metrics"
	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/pipeline"
	"github.com/jengzang/crackmap-backend-go/internal/segmentation"
	"github.com/jengzang/crackmap-backend-go/internal/service"
)

const usage = `usage: crackmap <command> [flags]

commands:
  extract   read GPS and capture time of every image in --input-dir
  detect    run crack detection over --input-dir (--shooting-distance-mm required)
  maps      render total_map.html and single_map.html into <output-dir>/maps

The HTTP API is served by the separate server binary.
`

// errAllFailed makes detect exit non-zero when no image could be processed
var errAllFailed = errors.New("every image failed")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "crackmap:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	jsonOut := fs.String("json", "", "extract: also write capture metadata to this JSON file")

	switch command {
	case "extract", "detect", "maps":
	case "-h", "--help", "help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if command == "detect" && !fs.Changed("shooting-distance-mm") && os.Getenv("SHOOTING_DISTANCE_MM") == "" {
		return errors.New("--shooting-distance-mm is required")
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(cfg.Database())
	if err != nil {
		return err
	}
	defer db.Close()

	if command == "extract" {
		return extract(ctx, cfg, service.NewBatchService(db, log), *jsonOut, out)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if command == "detect" {
		err = detect(ctx, cfg, service.NewBatchService(db, log), m, log, out)
	} else {
		err = renderMaps(ctx, cfg, service.NewMapService(db, cfg.MapOptions(), m, log), out)
	}

	// written for failed batches too
	if werr := metrics.WriteTextfile(cfg.MetricsPath(), reg); werr != nil {
		log.Warn("metrics not written", zap.String("path", cfg.MetricsPath()), zap.Error(werr))
	}
	return err
}

func extract(ctx context.Context, cfg *config.Config, batch *service.BatchService, jsonPath string, out io.Writer) error {
	if cfg.InputDir == "" {
		return errors.New("--input-dir is required")
	}
	run, _, err := batch.Extract(ctx, cfg.InputDir, jsonPath)
	if err != nil {
		return err
	}
	printSummary(out, run.ID, run.Summary)
	return nil
}

func detect(ctx context.Context, cfg *config.Config, batch *service.BatchService, m *metrics.Metrics, log *zap.Logger, out io.Writer) error {
	if cfg.InputDir == "" {
		return errors.New("--input-dir is required")
	}

	index, err := batch.MetadataIndex(ctx, cfg.MetadataJSON)
	if err != nil {
		return err
	}
	resolver := metadata.NewChain(log, index, metadata.NewExifResolver())

	seg, err := segmentation.New(cfg.Segmentation())
	if err != nil {
		return err
	}

	p, err := pipeline.New(pipeline.Options{
		ShootingDistanceMM: cfg.ShootingDistanceMM,
		Camera:             cfg.Camera(),
		Thresholds:         cfg.Thresholds(),
		Overlay:            cfg.Overlay(),
		ImageOutputDir:     cfg.ImageOutputDir(),
	}, seg, resolver, m, log)
	if err != nil {
		return err
	}

	report, err := batch.Detect(ctx, p, cfg.InputDir, cfg.ShootingDistanceMM)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "pixel to mm: %.6f\n", report.PixelToMM)
	for _, o := range report.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(out, "  %-32s %-12s %v\n", o.ImageName, o.Status, o.Err)
		}
	}
	printSummary(out, report.RunID, report.Summary)

	if report.AllFailed() {
		return errAllFailed
	}
	return nil
}

func renderMaps(ctx context.Context, cfg *config.Config, maps *service.MapService, out io.Writer) error {
	written, err := maps.WriteMaps(ctx, cfg.MapOutputDir())
	if errors.Is(err, damagemap.ErrEmptyDamageSet) {
		fmt.Fprintln(out, "no damage records, maps not generated")
		path, perr := maps.Path(ctx)
		if perr != nil {
			return perr
		}
		fmt.Fprintf(out, "capture path: %d points, %.0f m\n", len(path.Points), path.LengthMeters)
		return nil
	}
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintln(out, "wrote", p)
	}
	return nil
}

func printSummary(out io.Writer, runID string, s models.CaptureSummary) {
	fmt.Fprintf(out, "run %s\n", runID)
	fmt.Fprintf(out, "  total images:     %d\n", s.TotalImages)
	fmt.Fprintf(out, "  with GPS:         %d\n", s.WithGPS)
	fmt.Fprintf(out, "  with timestamp:   %d\n", s.WithTimestamp)
	fmt.Fprintf(out, "  with damage:      %d\n", s.WithDamage)
	if s.Failed > 0 {
		fmt.Fprintf(out, "  failed:           %d\n", s.Failed)
	}
}
