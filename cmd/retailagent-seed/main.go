package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/retailagent/retailagent/internal/config"
	"github.com/retailagent/retailagent/internal/dataset"
	"github.com/retailagent/retailagent/internal/observability"
	"github.com/retailagent/retailagent/internal/query/sqldb"
	"github.com/retailagent/retailagent/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("retailagent-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	genCfg, err := dataset.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		logger.Error("failed to load dataset config", slog.Any("error", err))
		os.Exit(1)
	}

	databaseURL := flag.String("database-url", cfg.Database.URL, "database to (re)create the retail tables in")
	seed := flag.Int64("seed", genCfg.Seed, "random seed")
	skus := flag.String("skus", "", "comma separated SKU ids, or \"all\" (default from RETAILAGENT_DATASET_SKUS)")
	parquetDir := flag.String("parquet-dir", "", "also write one parquet file per table into this directory")
	upload := flag.Bool("upload", cfg.ObjectStore.Endpoint != "", "upload parquet files to the configured object store")
	skipDB := flag.Bool("skip-db", false, "generate and export without touching the database")
	flag.Parse()

	genCfg.Seed = *seed
	if *skus != "" {
		ids, err := dataset.ParseSKUIDs(*skus)
		if err != nil {
			logger.Error("invalid -skus", slog.Any("error", err))
			os.Exit(2)
		}
		genCfg.SKUIDs = ids
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, logger, cfg, genCfg, *databaseURL, *parquetDir, *upload, *skipDB); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg config.Config, genCfg dataset.Config, databaseURL, parquetDir string, upload, skipDB bool) error {
	ds, err := dataset.Generate(genCfg)
	if err != nil {
		return err
	}
	logger.Info("dataset generated",
		slog.Int64("seed", genCfg.Seed),
		slog.Int("historical_rows", len(ds.Historical)),
		slog.Int("forecast_rows", len(ds.Forecast)),
	)

	if !skipDB {
		db, dialect, err := sqldb.Open(ctx, sqldb.DBConfig{URL: databaseURL})
		if err != nil {
			return fmt.Errorf("open database %s: %w", sqldb.Redact(databaseURL), err)
		}
		defer func() { _ = db.Close() }()

		if err := dataset.Write(ctx, db, dialect, ds); err != nil {
			return err
		}
		logger.Info("tables written", slog.String("database", sqldb.Redact(databaseURL)), slog.String("dialect", dialect.Name))
	}

	if parquetDir == "" && !upload {
		return nil
	}
	files, err := dataset.EncodeParquet(ds)
	if err != nil {
		return err
	}

	if parquetDir != "" {
		if err := writeFiles(parquetDir, files); err != nil {
			return err
		}
		logger.Info("parquet files written", slog.String("dir", parquetDir), slog.Int("files", len(files)))
	}

	if upload {
		store, err := s3.New(ctx, s3.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			return fmt.Errorf("open object store: %w", err)
		}
		runID := uuid.NewString()
		objects, err := dataset.Export(ctx, store, runID, time.Now().UTC(), files)
		if err != nil {
			return err
		}
		for _, object := range objects {
			logger.Info("parquet uploaded", slog.String("location", store.Location(object.Key)), slog.Int64("bytes", object.Size))
		}
	}
	return nil
}

func writeFiles(dir string, files map[string][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		target := filepath.Join(dir, name+".parquet")
		if err := os.WriteFile(target, files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
	}
	return nil
}
