package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"qrdine-order-service/internal/ordering"

	"go.uber.org/zap"
)

// KitchenStatusMessage is what kitchen displays publish when a ticket moves.
type KitchenStatusMessage struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// OrderAdvancer applies a status change to the session owning the order.
type OrderAdvancer interface {
	AdvanceOrder(ctx context.Context, orderID string, status ordering.Status) (ordering.Order, error)
}

// KitchenStatusHandler applies kitchen status messages. Malformed messages
// and domain rejections are permanent and go straight to the dead-letter
// queue.
func KitchenStatusHandler(orders OrderAdvancer, logger *zap.Logger) HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, body []byte) error {
		var msg KitchenStatusMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("%w: decode kitchen status: %v", ErrPermanent, err)
		}
		orderID := strings.TrimSpace(msg.OrderID)
		status := ordering.Status(strings.ToLower(strings.TrimSpace(msg.Status)))
		if orderID == "" || !status.Valid() {
			return fmt.Errorf("%w: invalid kitchen status message", ErrPermanent)
		}

		order, err := orders.AdvanceOrder(ctx, orderID, status)
		if err != nil {
			if code := ordering.CodeOf(err); code != "" {
				logger.Warn("kitchen status rejected",
					zap.String("orderId", orderID),
					zap.String("status", string(status)),
					zap.String("code", string(code)),
				)
				return fmt.Errorf("%w: %v", ErrPermanent, err)
			}
			return err
		}

		logger.Info("kitchen status applied", zap.String("orderId", order.ID), zap.String("status", string(order.Status)))
		return nil
	}
}
