package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/cli"
	"qrdine-order-service/internal/db"

	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, closeFn, err := openCatalog(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer closeFn()

	deps := cli.Dependencies{Catalog: provider, Version: version}
	exitCode := cli.Execute(ctx, os.Args[1:], deps, os.Stdout, os.Stderr)
	closeFn()
	os.Exit(exitCode)
}

// openCatalog uses DATABASE_URL when set and the embedded demo catalog
// otherwise.
func openCatalog(ctx context.Context) (catalog.Provider, func(), error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		pool, err := db.NewPool(ctx, url, 2)
		if err != nil {
			return nil, func() {}, err
		}
		return catalog.NewPostgresProvider(pool), pool.Close, nil
	}
	venues, err := catalog.LoadSeed()
	if err != nil {
		return nil, func() {}, err
	}
	return catalog.NewMemoryProvider(venues, 0), func() {}, nil
}
