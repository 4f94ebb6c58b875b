package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerconv/internal/config"
	"github.com/dvloznov/ledgerconv/internal/gcs"
	"github.com/dvloznov/ledgerconv/internal/gcsuploader"
	infraBQ "github.com/dvloznov/ledgerconv/internal/infra/bigquery"
	"github.com/dvloznov/ledgerconv/internal/ledger"
	"github.com/dvloznov/ledgerconv/internal/logger"
	"github.com/dvloznov/ledgerconv/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.Logging.Level)

	switch os.Args[1] {
	case "convert":
		runConvert(log, cfg)
	case "publish":
		runPublish(log, cfg)
	case "runs":
		runRuns(log, cfg)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Ledger Converter CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  ledgerconv <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  convert   Convert the ledgers into the dashboard data module")
	fmt.Println("  publish   Upload a generated data module to GCS")
	fmt.Println("  runs      List recent conversion runs from the audit table")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'ledgerconv <command> -h' for more information on a command.")
}

func runConvert(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	input := fs.String("input", cfg.Input.Workbook, "Workbook path or gs:// URI")
	dir := fs.String("dir", cfg.Input.Dir, "Directory searched for *.tsv/*.csv ledgers when the workbook is missing")
	output := fs.String("output", cfg.Output.Path, "Path of the generated data module")
	publish := fs.Bool("publish", false, "Upload the generated module to the configured bucket")
	fs.Parse(os.Args[2:])

	cfg.Input.Workbook = *input
	cfg.Input.Dir = *dir
	cfg.Output.Path = *output
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *publish && cfg.GCS.Bucket == "" {
		log.Fatal().Msg("Error: -publish needs LEDGERCONV_GCS_BUCKET (or gcs.bucket in the config file)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var storage gcs.StorageService
	if *publish || gcs.IsURI(*input) {
		storage = gcsuploader.NewGCSStorageService()
	}

	var recorder pipeline.RunRecorder
	if cfg.BigQuery.Enabled() {
		runRecorder, err := infraBQ.NewRunRecorder(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create conversion run recorder")
		}
		defer runRecorder.Close()
		recorder = runRecorder
	}

	opts := pipeline.OptionsFromConfig(cfg)
	if *publish {
		opts = opts.WithPublish(cfg.GCS.Bucket, cfg.GCS.Object)
	}

	res, err := pipeline.NewConverter(storage, recorder, nil).Convert(ctx, opts)
	if err != nil {
		var missing *ledger.MissingInputError
		if errors.As(err, &missing) {
			fmt.Fprintf(os.Stderr, "No %s ledger found (searched %s).\n", missing.Role, missing.Searched)
		}
		log.Fatal().Err(err).Msg("Conversion failed")
	}

	fmt.Printf("Wrote %s (%d bytes, years %s, %d warnings)\n",
		res.OutputPath, res.BytesWritten, formatYears(res.Years), len(res.Warnings))
	if res.PublishedURI != "" {
		fmt.Printf("Published to %s\n", res.PublishedURI)
	}
}

func runPublish(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	filePath := fs.String("file", cfg.Output.Path, "Path to the generated data module")
	bucketName := fs.String("bucket", cfg.GCS.Bucket, "GCS bucket name")
	objectName := fs.String("object", cfg.GCS.Object, "GCS object name (defaults to filename)")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: ledgerconv publish -file PATH -bucket NAME [-object NAME]")
	}
	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := gcsuploader.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, gcs.FormatURI(*bucketName, *objectName))
}

func runRuns(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of runs to show")
	fs.Parse(os.Args[2:])

	if !cfg.BigQuery.Enabled() {
		log.Fatal().Msg("Error: set LEDGERCONV_BIGQUERY_PROJECT and LEDGERCONV_BIGQUERY_DATASET to read the audit table")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	recorder, err := infraBQ.NewRunRecorder(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create conversion run recorder")
	}
	defer recorder.Close()

	runs, err := recorder.ListRuns(ctx, *limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list conversion runs")
		return
	}

	if len(runs) == 0 {
		fmt.Println("No conversion runs recorded.")
		return
	}
	for _, r := range runs {
		finished := "-"
		if r.FinishedTS.Valid {
			finished = r.FinishedTS.Timestamp.Format(time.RFC3339)
		}
		fmt.Printf("%s  %-8s  %s  %s  %s\n", r.RunID, r.Status, r.StartedTS.Format(time.RFC3339), finished, r.Source)
		if r.ErrorMessage != "" {
			fmt.Printf("    error: %s\n", r.ErrorMessage)
		}
		if r.OutputObject != "" {
			fmt.Printf("    object: %s\n", r.OutputObject)
		}
	}
}

func formatYears(years []int) string {
	if len(years) == 0 {
		return "none"
	}
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = fmt.Sprint(y)
	}
	return strings.Join(parts, ", ")
}
