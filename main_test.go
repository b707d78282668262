package main

import (
	"context"
	"testing"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/config"

	"go.uber.org/zap"
)

func TestNewCatalogFallsBackToSeed(t *testing.T) {
	p := newCatalog(context.Background(), zap.NewNop(), config.Config{})
	if _, ok := p.(*catalog.MemoryProvider); !ok {
		t.Fatalf("expected the seeded memory catalog, got %T", p)
	}
	venues, err := p.ListVenues(context.Background())
	if err != nil || len(venues) == 0 {
		t.Fatalf("expected seeded venues, got %d (%v)", len(venues), err)
	}
}

func TestConnectQueueDisabledWithoutURL(t *testing.T) {
	if qc := connectQueue(zap.NewNop(), config.Config{}); qc != nil {
		t.Fatalf("expected no broker client without RABBITMQ_URL")
	}
}
