package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"skillforge/api/internal/app"
	"skillforge/api/internal/artifacts"
	"skillforge/api/internal/authpw"
	"skillforge/api/internal/catalog"
	"skillforge/api/internal/config"
	"skillforge/api/internal/export"
	"skillforge/api/internal/ledger"
	"skillforge/api/internal/ledgerlog"
	"skillforge/api/internal/progress"
	"skillforge/api/internal/search"
	"skillforge/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	kv, err := store.NewRedisKV(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer kv.Close()

	cat := catalog.New()

	var mirrors []progress.LedgerMirror

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := ledger.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()
		pg := ledger.NewPG(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("ledger schema failed: %v", err)
		}
		mirrors = append(mirrors, pg)
		log.Printf("Mirroring certificate ledger to PostgreSQL")
	}

	var auditLog *ledgerlog.Service
	if strings.TrimSpace(cfg.LedgerRepoDir) != "" {
		if err := os.MkdirAll(cfg.LedgerRepoDir, 0o755); err != nil {
			log.Fatalf("failed to create ledger repo dir: %v", err)
		}
		auditLog = ledgerlog.New(cfg.LedgerRepoDir)
		mirrors = append(mirrors, auditLog)
		log.Printf("Mirroring certificate ledger to git repo at %s", cfg.LedgerRepoDir)
	}

	prog := progress.NewService(kv, cat, mirrors...)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searcher := search.NewService(meiliClient, search.NewLedgerScan(prog))
	prog.AddMirror(searcher)

	service := app.New(cfg, prog, cat, authpw.NewService(kv), searcher, export.NewService(cat))
	if auditLog != nil {
		service.EnableAuditLog(auditLog)
	}

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		artifactStore, err := artifacts.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("minio connection failed: %v", err)
		}
		if err := artifactStore.EnsureBucket(ctx); err != nil {
			log.Fatalf("minio bucket setup failed: %v", err)
		}
		service.EnableArtifacts(artifactStore)
		log.Printf("Storing studio artifacts in bucket %s", cfg.MinioBucket)
	}

	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("SkillForge API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
