package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"qrdine-order-service/internal/promo"
)

type promoCommand struct {
	Type string `json:"type"`
}

// PromotionsWS runs a promotion carousel per viewer. Clients may send
// {"type":"next"}, "prev", "pause" or "resume"; every change is pushed as
// promo.slide.
func (s *Server) PromotionsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	rotator := promo.NewRotator(promo.Active(s.Promotions, time.Now()), s.Config.PromoRotateInterval)
	client := &wsRealtimeClient{conn: conn}
	push := func(slide promo.Slide) {
		if err := client.writeJSON(message{Type: "promo.slide", Data: slide}); err != nil {
			cancel()
		}
	}

	push(rotator.Current())
	go rotator.Run(ctx, push)

	s.serve(ctx, client, func(data []byte) {
		var cmd promoCommand
		if json.Unmarshal(data, &cmd) != nil {
			return
		}
		switch cmd.Type {
		case "next":
			push(rotator.Next())
		case "prev":
			push(rotator.Prev())
		case "pause":
			push(rotator.Pause())
		case "resume":
			push(rotator.Resume())
		}
	})
}
