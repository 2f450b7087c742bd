package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"binstash/internal/blobstore/local"
	"binstash/internal/config"
	"binstash/internal/db"
	"binstash/internal/domain"
	"binstash/internal/logging"
	"binstash/internal/service"
	"binstash/internal/store"
)

var cliActor = domain.Actor{ID: "cli", Name: "binstash cli"}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	blobs, err := local.New(cfg.BlobPath)
	if err != nil {
		logger.Error("failed to initialize blob store", "error", err)
		os.Exit(1)
	}

	recorder := service.NewActivityRecorder(database, logger)
	binSvc := service.NewBinService(database, blobs, recorder, logger)
	portSvc := service.NewPortService(database, blobs, recorder, logger)
	purgeSvc := service.NewPurgeService(database, binSvc, logger)

	ctx := context.Background()
	args := os.Args[2:]

	switch os.Args[1] {
	case "init-container":
		err = runInitContainer(ctx, database, args)
	case "export":
		err = runExport(ctx, portSvc, args)
	case "import":
		err = runImport(ctx, portSvc, args)
	case "sweep":
		err = runSweep(ctx, purgeSvc, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: binstash <command> [flags]

commands:
  init-container  -name <name> [-retention-days <n>]
  export          -container <id> [-out <file>]
  import          -container <id> -file <file> [-mode merge|replace]
  sweep           -container <id>`)
}

func runInitContainer(ctx context.Context, database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("init-container", flag.ExitOnError)
	name := fs.String("name", "", "container name")
	retention := fs.Int("retention-days", 30, "days trashed bins survive before purge")
	_ = fs.Parse(args)
	if *name == "" {
		return fmt.Errorf("-name is required")
	}

	c := &domain.Container{
		ID:            uuid.NewString(),
		Name:          *name,
		RetentionDays: *retention,
		CreatedAt:     time.Now().UTC(),
	}
	if err := store.NewContainerStore(database).Create(ctx, c); err != nil {
		return err
	}
	fmt.Println(c.ID)
	return nil
}

func runExport(ctx context.Context, svc *service.PortService, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	containerID := fs.String("container", "", "container id")
	out := fs.String("out", "", "output file (default stdout)")
	_ = fs.Parse(args)
	if *containerID == "" {
		return fmt.Errorf("-container is required")
	}

	snap, err := svc.Export(ctx, *containerID)
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func runImport(ctx context.Context, svc *service.PortService, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	containerID := fs.String("container", "", "container id")
	file := fs.String("file", "", "snapshot file")
	mode := fs.String("mode", "merge", "merge or replace")
	_ = fs.Parse(args)
	if *containerID == "" || *file == "" {
		return fmt.Errorf("-container and -file are required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}

	res, err := svc.Import(ctx, cliActor, *containerID, &snap, domain.ImportMode(*mode))
	if err != nil {
		return err
	}
	slog.Info("import finished",
		"bins_imported", res.BinsImported, "bins_skipped", res.BinsSkipped,
		"photos_imported", res.PhotosImported, "photos_skipped", res.PhotosSkipped)
	return nil
}

func runSweep(ctx context.Context, svc *service.PurgeService, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	containerID := fs.String("container", "", "container id")
	_ = fs.Parse(args)
	if *containerID == "" {
		return fmt.Errorf("-container is required")
	}
	svc.Sweep(ctx, *containerID)
	return nil
}
