package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vigiaops/fieldreport/internal/api"
	"github.com/vigiaops/fieldreport/internal/config"
	"github.com/vigiaops/fieldreport/internal/logging"
	"github.com/vigiaops/fieldreport/pkg/report"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "fieldreport",
	Short:   "fieldreport - service ticket report generator",
	Long:    `fieldreport renders field-service ticket snapshots into paginated PDF reports, served over HTTP or written from the command line`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fieldreport %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

var (
	generateInput  string
	generateOutput string
	generateFormat string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a report from a ticket snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	generateCmd.Flags().StringVarP(&generateInput, "input", "i", "", "ticket snapshot JSON file (required)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", ".", "output directory")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", "pdf", "output format: pdf or csv")
	generateCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newGenerator(cfg *config.Config) *report.Generator {
	branding := report.Branding{
		CompanyName: cfg.Branding.CompanyName,
		Address:     cfg.Branding.Address,
		Phone:       cfg.Branding.Phone,
		Email:       cfg.Branding.Email,
		Website:     cfg.Branding.Website,
		Logo:        cfg.LoadLogo(),
	}
	loader := report.NewHTTPPhotoLoader(
		report.WithMaxDimension(cfg.Photos.MaxDimension),
		report.WithJPEGQuality(cfg.Photos.JPEGQuality),
		report.WithPhotoLogger(logging.WithComponent("photos")),
	)
	return report.NewGenerator(branding,
		report.WithTheme(report.ThemeByName(cfg.Theme)),
		report.WithPhotoLoader(loader),
		report.WithLogger(logging.WithComponent("report")),
	)
}

func runServer() {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Format:    cfg.Log.Format,
		Level:     cfg.Log.Level,
		Component: "fieldreport",
	})

	handlers := api.NewReportHandlers(newGenerator(cfg), report.NewCSVGenerator())
	router := api.NewRouter(handlers, Version)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
		// Generation holds the connection while photos download, so the
		// write timeout stays generous.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", addr).Str("version", Version).Msg("fieldreport listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func runGenerate() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Format:    cfg.Log.Format,
		Level:     cfg.Log.Level,
		Component: "fieldreport",
	})

	data, err := os.ReadFile(generateInput)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var in report.ReportInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	format := report.Format(generateFormat)
	if format != report.FormatPDF && format != report.FormatCSV {
		return fmt.Errorf("unknown format %q", generateFormat)
	}

	var out []byte
	switch format {
	case report.FormatCSV:
		out, err = report.NewCSVGenerator().Generate(&in)
	default:
		out, err = newGenerator(cfg).Generate(context.Background(), &in)
	}
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	path := filepath.Join(generateOutput, report.Filename(in.Code, format))
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Info().Str("path", path).Int("bytes", len(out)).Msg("Report written")
	return nil
}
