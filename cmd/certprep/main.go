package main

import (
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/Cgdx/aws-certification-practice/internal/config"
	"github.com/Cgdx/aws-certification-practice/internal/scheduler"
	"github.com/Cgdx/aws-certification-practice/internal/storage"
	"github.com/Cgdx/aws-certification-practice/internal/sync"
	"github.com/Cgdx/aws-certification-practice/internal/web"
)

func main() {
	flags := config.Flags()
	addSource := flags.String("add-source", "", "register a question bank source (local path or git URL) and exit")
	runSync := flags.Bool("sync", false, "reconcile all question bank sources and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if *addSource != "" {
		sourceType := "local"
		if sync.IsGitPath(*addSource) {
			sourceType = "git"
		}
		id, err := db.InsertSource(*addSource, sourceType)
		if err != nil {
			log.Fatalf("Failed to add source: %v", err)
		}
		slog.Info("source added", "id", id, "type", sourceType, "path", *addSource)
		return
	}

	if *runSync {
		if err := sync.RunSync(db, cfg.ReposDir); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sched := scheduler.New(db, db, rng)
	server := web.NewServer(db, sched, cfg.DefaultUserID, cfg.SessionSize, cfg.ReposDir)

	slog.Info("listening", "addr", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, server); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
