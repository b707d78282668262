package handlers

import (
	"context"
	"time"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/config"
	"qrdine-order-service/internal/middleware"
	"qrdine-order-service/internal/promo"
	"qrdine-order-service/internal/session"
	"qrdine-order-service/internal/waiter"

	"go.uber.org/zap"
)

// ReceiptArchiver stores rendered receipts and returns a link to them.
type ReceiptArchiver interface {
	ArchiveReceipt(ctx context.Context, venueID, orderID string, pdf []byte) (string, error)
}

type Handler struct {
	Logger     *zap.Logger
	Config     config.Config
	Catalog    catalog.Provider
	Sessions   *session.Registry
	Accounts   *auth.AccountStore
	Waiter     *waiter.Service
	Promotions []promo.Promotion
	Receipts   ReceiptArchiver
	Latency    *middleware.LatencyTracker
	Now        func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
