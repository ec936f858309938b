// Command rebrickable rebuilds a local relational snapshot of the
// Rebrickable catalog:
//
//	rebrickable [flags] <destination>
//
// The destination is a sqlite file path or a postgres DSN. Every run is a
// full rebuild: the schema is recreated and each entity is downloaded,
// normalized, and committed in dependency order.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fidoriel/rebrickable-sqlite-orm/internal/config"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/fetch"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/loader"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/metrics"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/metrics/prompush"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/storage"

	// register all backends with the storage factory.
	_ "github.com/fidoriel/rebrickable-sqlite-orm/internal/storage/all"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Default()
	cfg.ApplyEnv()

	flag.BoolVar(&cfg.Progress, "progress", cfg.Progress, "log per-batch progress lines")
	flag.IntVar(&cfg.FetchConcurrency, "fetch-concurrency", cfg.FetchConcurrency, "concurrent source downloads (>= 1)")
	flag.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "per-download timeout")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "override the download CDN root (mirrors, tests)")
	flag.StringVar(&cfg.MetricsBackend, "metrics-backend", cfg.MetricsBackend, "metrics backend (pushgateway, none)")
	flag.StringVar(&cfg.PushgatewayURL, "pushgateway-url", cfg.PushgatewayURL, "Pushgateway base URL")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <destination>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Rebuild the Rebrickable catalog at <destination>\n(sqlite file path or postgres:// DSN).\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cfg.Dest = flag.Arg(0)

	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}

	switch cfg.MetricsBackend {
	case "pushgateway":
		b, err := prompush.NewBackend("catalog_rebuild", cfg.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: init pushgateway backend: %v; metrics disabled", err)
			break
		}
		metrics.SetBackend(b)
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush: %v", err)
			}
		}()
	case "", "none":
		// metrics disabled; nop backend remains
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", cfg.MetricsBackend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Dest)
	if err != nil {
		fatalf("open destination: %v", err)
	}
	defer store.Close()

	client := fetch.NewClient(fetch.Config{Timeout: cfg.FetchTimeout})
	l := loader.New(client, loader.Options{
		BaseURL:          cfg.BaseURL,
		Progress:         cfg.Progress,
		FetchConcurrency: cfg.FetchConcurrency,
	})

	if err := l.Run(ctx, store); err != nil {
		fatalf("rebuild failed: %v", err)
	}
	log.Printf("rebuild ok dest=%s", cfg.Dest)
}

func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(1)
}
