// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/holoroster/pkg/roster"
	"github.com/AleutianAI/holoroster/services/ledger/handlers"
	"github.com/AleutianAI/holoroster/services/ledger/observability"
	"github.com/AleutianAI/holoroster/services/ledger/routes"
	"github.com/AleutianAI/holoroster/services/ledger/seedwatch"
	"github.com/AleutianAI/holoroster/services/ledger/storage"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	var exporter sdktrace.SpanExporter
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint != "" {
		conn, err := grpc.NewClient(otelEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, err
		}
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, err
		}
	} else {
		// No collector configured; keep spans on stdout so local runs
		// still show traces.
		var err error
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("ledger-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := exporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace exporter", "error", err)
		}
	}, nil
}

func main() {
	port := envOr("LEDGER_PORT", "12220")
	dataDir := envOr("LEDGER_DATA_DIR", "data/ledger")
	seedFile := envOr("LEDGER_SEED_FILE", "services/ledger/data/members.json")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the trace exporter: %v", err)
	}
	defer cleanup(context.Background())

	store, err := storage.Open(storage.DefaultConfig(dataDir))
	if err != nil {
		log.Fatalf("failed to open the ledger store: %v", err)
	}
	defer store.Close()

	members, err := store.Members()
	if err != nil {
		log.Fatalf("failed to load persisted members: %v", err)
	}

	ledger, err := roster.NewLedger(members,
		roster.WithPersister(store),
		roster.WithLogger(logger))
	if err != nil {
		log.Fatalf("failed to build the assignment ledger: %v", err)
	}

	if len(members) == 0 {
		seed, err := storage.LoadSeedFile(seedFile)
		if err != nil {
			slog.Warn("no usable seed file, starting with an empty roster",
				"path", seedFile, "error", err)
		} else {
			added, err := ledger.AddMembers(seed)
			if err != nil {
				log.Fatalf("failed to seed the roster: %v", err)
			}
			slog.Info("seeded the roster", "path", seedFile, "members", added)
		}
	} else {
		slog.Info("restored persisted roster", "members", len(members))
	}

	pairs, err := store.Assignments()
	if err != nil {
		log.Fatalf("failed to load persisted assignments: %v", err)
	}
	for _, p := range pairs {
		if err := ledger.RestoreAssignment(p.MasterID, p.ApprenticeID); err != nil {
			// An unresolvable pair is stale state, not a reason to
			// refuse startup.
			slog.Warn("dropping persisted assignment",
				"masterID", p.MasterID, "apprenticeID", p.ApprenticeID, "error", err)
			if err := store.DeleteAssignment(p.MasterID); err != nil {
				slog.Error("failed to delete stale assignment", "error", err)
			}
		}
	}

	metrics := observability.InitMetrics()
	metrics.RosterSize.WithLabelValues(string(roster.RoleMaster)).
		Set(float64(ledger.Size(roster.RoleMaster)))
	metrics.RosterSize.WithLabelValues(string(roster.RoleApprentice)).
		Set(float64(ledger.Size(roster.RoleApprentice)))
	metrics.AssignmentsActive.Set(float64(ledger.AssignmentCount()))

	hub := handlers.NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if watcher, err := seedwatch.NewWatcher(seedFile, ledger, hub); err != nil {
		slog.Warn("seed watcher disabled", "error", err)
	} else {
		go watcher.Start(ctx)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("ledger-service"))

	routes.SetupRoutes(router, ledger, hub)

	slog.Info("starting the ledger server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
