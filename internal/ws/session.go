package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/qr"
	"qrdine-order-service/internal/scan"

	"go.uber.org/zap"
)

// SessionWS streams a guest session's cart, order and notification events.
// The first message is the full session state.
func (s *Server) SessionWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	store, ok := s.sessionStore(r)
	if !ok {
		writeError(conn, "UNAUTHORIZED", "unauthorized")
		return
	}

	client := &wsRealtimeClient{conn: conn}
	unsubscribe := s.sessionHub.subscribe(store.SessionID(), client)
	defer unsubscribe()

	_ = client.writeJSON(message{Type: "session.state", Data: store.Snapshot()})
	s.serve(r.Context(), client, nil)
}

type scanCommand struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ScanWS runs one QR scan for a session. The client decodes camera frames
// and sends {"type":"frame","data":"<text>"} with empty data when a frame
// had no code, {"type":"denied"} when camera access was refused, or
// {"type":"stop"}. The first decoded code seats the session and ends the
// scan.
func (s *Server) ScanWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	store, ok := s.sessionStore(r)
	if !ok {
		writeError(conn, "UNAUTHORIZED", "unauthorized")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	src := scan.NewChanSource(8)
	scanSession, err := scan.Start(ctx, src.Opener())
	if err != nil {
		writeError(conn, "SCAN_FAILED", err.Error())
		return
	}
	defer scanSession.Stop()

	client := &wsRealtimeClient{conn: conn}
	_ = client.writeJSON(message{Type: "scan.started"})

	go func() {
		defer cancel()
		for {
			_, data, readErr := conn.ReadMessage()
			if readErr != nil {
				return
			}
			var cmd scanCommand
			if json.Unmarshal(data, &cmd) != nil {
				continue
			}
			switch cmd.Type {
			case "frame":
				src.Push(cmd.Data)
			case "denied":
				src.Fail(scan.ErrPermissionDenied)
			case "stop":
				_ = src.Close()
				return
			}
		}
	}()

	result, err := scanSession.Wait(ctx)
	if err != nil {
		s.writeScanError(client, err)
		return
	}

	res, err := s.seat(ctx, store, result.Payload)
	if err != nil {
		s.writeScanError(client, err)
		return
	}
	_ = client.writeJSON(message{Type: "scan.result", Data: map[string]any{
		"raw":          result.Raw,
		"venue":        res.Venue.Summary(time.Now()),
		"table":        res.Table,
		"tableMatched": res.TableMatched,
	}})
}

// seat resolves a payload and selects the venue and table on the store.
func (s *Server) seat(ctx context.Context, store *ordering.Store, payload qr.Payload) (scan.Resolution, error) {
	res, err := scan.Resolve(ctx, s.Catalog, payload)
	if err != nil {
		return scan.Resolution{}, err
	}
	store.SelectVenue(res.Venue)
	store.SelectTable(res.Table)
	return res, nil
}

func (s *Server) writeScanError(client *wsRealtimeClient, err error) {
	code := "SCAN_FAILED"
	text := err.Error()
	switch {
	case errors.Is(err, scan.ErrPermissionDenied):
		code = string(ordering.ErrPermissionDenied)
		text = "Camera access was denied. Allow camera access or enter the table code."
	case errors.Is(err, qr.ErrMalformedPayload):
		code = string(ordering.ErrMalformedQR)
		text = "This QR code is not a table code."
	case errors.Is(err, catalog.ErrVenueNotFound):
		code = string(ordering.ErrVenueNotFound)
	case errors.Is(err, scan.ErrNoTableAvailable):
		code = string(ordering.ErrTableNotFound)
	case errors.Is(err, scan.ErrStopped), errors.Is(err, context.Canceled):
		code = "SCAN_STOPPED"
		text = "Scan stopped"
	}
	if code == "SCAN_FAILED" {
		s.Logger.Warn("scan failed", zap.Error(err))
	}
	_ = client.writeJSON(errorMessage{Type: "scan.error", Code: code, Message: strings.TrimSpace(text)})
}
