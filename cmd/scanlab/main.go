package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/scanlab/internal/config"
	"github.com/ironsheep/scanlab/internal/detector"
	"github.com/ironsheep/scanlab/internal/logging"
	"github.com/ironsheep/scanlab/internal/ocr"
	"github.com/ironsheep/scanlab/internal/profiles"
	"github.com/ironsheep/scanlab/internal/scan"
	"github.com/ironsheep/scanlab/internal/server"
	"github.com/ironsheep/scanlab/internal/web"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	mode := "serve"
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("scanlab %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return 0
		case "--help", "-h", "help":
			printHelp()
			return 0
		case "serve", "mcp":
			mode = args[0]
		default:
			fmt.Fprintf(os.Stderr, "scanlab: unknown command %q (see --help)\n", args[0])
			return 2
		}
	}

	if _, err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "scanlab: failed to load .env: %v\n", err)
		return 1
	}
	cfg := config.Load()

	log, closer, err := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		JSON:  cfg.LogJSON,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scanlab: %v\n", err)
		return 1
	}
	defer closer.Close()

	log.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
		"mode":    mode,
	}).Info("Starting scanlab")

	svc, cleanup, err := newService(cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to configure scanner")
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mode == "mcp" {
		err = server.New(svc, server.Options{
			Version:        Version,
			DefaultProfile: cfg.DefaultProfile,
		}, log).Run(ctx)
	} else {
		err = serveHTTP(ctx, cfg, svc, log)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Server error")
		return 1
	}
	return 0
}

// newService builds the profile registry, one lazily loaded detector per
// profile, and the plate reader. cleanup releases the detectors.
func newService(cfg *config.Config, log *logrus.Logger) (*scan.Service, func(), error) {
	reg := profiles.Default()
	if cfg.LabelsFile != "" {
		overrides, err := profiles.LoadOverrides(cfg.LabelsFile)
		if err != nil {
			return nil, nil, err
		}
		if err := reg.ApplyOverrides(overrides); err != nil {
			return nil, nil, err
		}
		log.WithField("file", cfg.LabelsFile).Info("Applied label overrides")
	}
	if _, ok := reg.Get(cfg.DefaultProfile); !ok {
		return nil, nil, fmt.Errorf("%w: default profile %q", scan.ErrUnknownProfile, cfg.DefaultProfile)
	}

	onnx := make([]*detector.ONNXDetector, 0, len(reg.Names()))
	detectors := make(map[string]detector.Detector)
	for _, p := range reg.All() {
		d := detector.NewONNX(detector.Config{
			ModelDir:     cfg.ModelDir,
			ModelFiles:   p.ModelFiles,
			InputSize:    p.InputSize,
			Classes:      p.Labels.ClassCount(),
			IoUThreshold: cfg.IoUThreshold,
			LibraryPath:  cfg.OnnxLibrary,
			Threads:      cfg.OnnxThreads,
		}, log.WithField("profile", p.Name))
		detectors[p.Name] = d
		onnx = append(onnx, d)
	}

	plates := ocr.NewPlateReader(ocr.PlateReaderConfig{
		Language:    cfg.OCRLanguage,
		TessdataDir: cfg.TessdataDir,
	})

	svc := scan.NewService(scan.Config{
		Profiles:  reg,
		Detectors: detectors,
		Plates:    plates,
		Log:       log,
	})

	cleanup := func() {
		for _, d := range onnx {
			d.Close()
		}
		detector.Shutdown()
	}
	return svc, cleanup, nil
}

func serveHTTP(ctx context.Context, cfg *config.Config, svc *scan.Service, log *logrus.Logger) error {
	hub := web.NewHub(log)
	go hub.Run(ctx)

	h := web.NewHandler(svc, hub, web.Options{
		MaxUploadSize:  cfg.MaxUploadSize,
		DefaultProfile: cfg.DefaultProfile,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func printHelp() {
	fmt.Println("scanlab - object detection scanner with annotated results")
	fmt.Println()
	fmt.Println("Usage: scanlab [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve            Run the HTTP upload server (default)")
	fmt.Println("  mcp              Serve MCP tools over stdin/stdout")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  SCANLAB_ADDR               HTTP listen address (default :8080)")
	fmt.Println("  SCANLAB_MAX_UPLOAD_MB      Upload size limit (default 10)")
	fmt.Println("  SCANLAB_MODEL_DIR          Directory holding .onnx models (default models)")
	fmt.Println("  SCANLAB_ONNX_LIBRARY       Path to the onnxruntime shared library")
	fmt.Println("  SCANLAB_ONNX_THREADS       Intra-op threads per model")
	fmt.Println("  SCANLAB_IOU_THRESHOLD      Box suppression overlap (default 0.7)")
	fmt.Println("  SCANLAB_LABELS_FILE        JSON file overriding profile labels")
	fmt.Println("  SCANLAB_DEFAULT_PROFILE    Profile used when none is given (default fruit)")
	fmt.Println("  SCANLAB_OCR_LANGUAGE       Tesseract language for plates (default eng)")
	fmt.Println("  SCANLAB_TESSDATA_DIR       Tesseract data directory")
	fmt.Println("  SCANLAB_LOG_LEVEL          debug, info, warn or error (default info)")
	fmt.Println("  SCANLAB_LOG_FILE           Also append logs to this file")
	fmt.Println("  SCANLAB_LOG_JSON           Log as JSON (default false)")
}
