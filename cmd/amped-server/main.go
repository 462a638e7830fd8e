// Package main implements the amped HTTP daemon: the life-impact API served
// over a SQLite-backed sample store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ampedlife/amped/pkg/mortality"
	"github.com/ampedlife/amped/pkg/server"
	"github.com/ampedlife/amped/pkg/store"
	"github.com/ampedlife/amped/pkg/target"
)

// Set via -ldflags at build time.
var Version = "dev"

var (
	port        = flag.String("port", "8080", "Port for the API server (or set PORT)")
	dbPath      = flag.String("db", "", "SQLite database path (or set AMPED_DB; default ~/.amped/amped.db)")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showVersion = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("amped-server %s\n", Version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := mortality.Validate(); err != nil {
		logger.Error("Invalid mortality tables", "error", err)
		os.Exit(1)
	}

	if *port == "8080" && os.Getenv("PORT") != "" {
		*port = os.Getenv("PORT")
	}
	if *dbPath == "" {
		*dbPath = os.Getenv("AMPED_DB")
	}
	if *dbPath == "" {
		path, err := store.DefaultPath()
		if err != nil {
			logger.Error("Failed to resolve db path", "error", err)
			os.Exit(1)
		}
		*dbPath = path
	}

	logger.Info("Server configuration",
		"port", *port,
		"db", *dbPath,
		"verbose", *verbose,
		"version", Version)

	db, err := store.Open(*dbPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	targets := target.New(db.Targets(), target.WithLogger(logger))
	api := server.New(db, targets,
		server.WithLogger(logger),
		server.WithVersion(Version),
	)

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
