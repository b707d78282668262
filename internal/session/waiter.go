package session

import (
	"context"
	"fmt"

	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/waiter"
)

// WaiterNotifier turns waiter events into notifications on the calling
// session.
func WaiterNotifier(r *Registry) waiter.Listener {
	return func(ctx context.Context, e waiter.Event) {
		store, err := r.Get(e.Table.SessionID)
		if err != nil {
			return
		}
		switch e.Type {
		case waiter.EventCalled:
			store.Notify(ctx, fmt.Sprintf("A waiter has been called to table %d", e.Table.TableNumber), ordering.NotificationInfo)
		case waiter.EventExpired:
			store.Notify(ctx, fmt.Sprintf("Your waiter call for table %d has timed out. Call again if you still need help.", e.Table.TableNumber), ordering.NotificationWarning)
		case waiter.EventMessage:
			store.Notify(ctx, "Your message has been sent to the staff", ordering.NotificationSuccess)
		}
	}
}
