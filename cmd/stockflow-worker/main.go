package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"stockflow/internal/amqp"
	"stockflow/internal/backend"
	"stockflow/internal/backup"
	"stockflow/internal/cli"
	"stockflow/internal/ports"
	"stockflow/internal/scheduler"
	gsheet "stockflow/internal/sheets/google"
	"stockflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("worker", os.Getenv("LOG_LEVEL"))
	logger.Info("Starting stockflow-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(ctx, backendCfg, false)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Cleanup()

	// Google Sheets mirror (optional)
	var mirror ports.SheetMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			res.Cleanup()
			os.Exit(1)
		}
		mirror = client
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}
	syncWorker := worker.NewSyncWorker(res.Store, mirror)

	if mirror != nil {
		logger.Info("Performing startup sync")
		if err := syncWorker.SyncAll(ctx); err != nil {
			logger.Error("Startup sync failed", "error", err)
		}
	}

	// Backups
	var uploader backup.Uploader
	if cfg.S3Bucket != "" {
		up, err := backup.NewS3Uploader(ctx, cfg.AWSRegion)
		if err != nil {
			logger.Warn("S3 uploads disabled", "error", err, "bucket", cfg.S3Bucket)
		} else {
			uploader = up
		}
	}
	backups := backup.NewService(res.Store, backup.Options{
		Dir:    cfg.BackupDir,
		Keep:   cfg.BackupKeep,
		Bucket: cfg.S3Bucket,
		Prefix: cfg.S3Prefix,
	}, uploader)

	sched := scheduler.New(ctx)
	if err := sched.AddJob(cfg.BackupSchedule, backups); err != nil {
		logger.Error("Failed to schedule backups", "error", err, "schedule", cfg.BackupSchedule)
		res.Cleanup()
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)

	if mirror != nil && cfg.AMQPURL != "" {
		consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on periodic sync", "error", err)
		} else {
			defer consumer.Close()
			g.Go(func() error {
				return consumer.ConsumeRecordSync(gctx, syncWorker.HandleSyncMessage)
			})
		}
	}

	if mirror != nil {
		g.Go(func() error {
			return syncWorker.RunPeriodic(gctx, cfg.SyncInterval)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		sched.Stop()
		res.Cleanup()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
