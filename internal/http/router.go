package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"qrdine-order-service/internal/config"
	"qrdine-order-service/internal/http/handlers"
	"qrdine-order-service/internal/middleware"
	"qrdine-order-service/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(logger *zap.Logger, cfg config.Config, h *handlers.Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger, h.Latency))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Request-Id",
				"Cache-Control",
			},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/guest", h.AuthGuest)
		r.Post("/register", h.AuthRegister)
		r.Post("/login", h.AuthLogin)
		r.Post("/staff", h.AuthStaffLogin)
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Use(setResponseHeader("Cache-Control", "no-store"))
		r.Get("/scan", h.PublicScan)
		r.Get("/venues", h.PublicVenues)
		r.Get("/venues/{venueId}", h.PublicVenue)
		r.Get("/venues/{venueId}/status", h.PublicVenueStatus)
		r.Get("/venues/{venueId}/menu", h.PublicVenueMenu)
		r.Get("/venues/{venueId}/menu/{itemId}", h.PublicMenuItem)
		r.Get("/venues/{venueId}/tables", h.PublicVenueTables)
		r.Get("/promotions", h.PublicPromotions)
		r.Get("/receipts/{token}", h.PublicReceipt)
	})

	r.Route("/api/session", func(r chi.Router) {
		r.Use(middleware.SessionAuth(h.Sessions, cfg.JWTSecret))
		r.Get("/", h.SessionGet)
		r.Delete("/", h.SessionClose)
		r.Get("/menu", h.SessionMenu)
		r.Post("/scan", h.SessionScan)
		r.Put("/venue", h.SessionSelectVenue)
		r.Put("/table", h.SessionSelectTable)
		r.Put("/stall", h.SessionSelectStall)
		r.Post("/tables/{tableId}/lock", h.SessionLockTable)
		r.Delete("/tables/{tableId}/lock", h.SessionUnlockTable)
		r.Put("/dietary-filter", h.SessionSetDietaryFilter)

		r.Get("/cart", h.CartGet)
		r.Post("/cart/items", h.CartAdd)
		r.Patch("/cart/items/{itemId}", h.CartUpdate)
		r.Delete("/cart/items/{itemId}", h.CartRemove)
		r.Delete("/cart", h.CartClear)

		r.Get("/orders", h.OrdersList)
		r.Post("/orders", h.OrdersPlace)
		r.Get("/orders/current", h.OrdersCurrent)
		r.Get("/orders/{orderId}", h.OrdersGet)
		r.Put("/orders/{orderId}", h.OrdersUpdate)
		r.Get("/orders/{orderId}/wait-time", h.OrdersWaitTime)
		r.Post("/orders/{orderId}/cancel", h.OrdersCancel)
		r.Get("/orders/{orderId}/receipt", h.OrdersReceipt)
		r.Post("/orders/{orderId}/receipt/archive", h.OrdersReceiptArchive)
		r.Post("/orders/{orderId}/receipt/link", h.OrdersReceiptLink)

		r.Get("/notifications", h.NotificationsList)
		r.Post("/notifications/{notificationId}/read", h.NotificationsMarkRead)

		r.Post("/waiter", h.WaiterCall)
		r.Get("/waiter", h.WaiterGet)
		r.Delete("/waiter", h.WaiterCancel)
		r.Post("/waiter/message", h.WaiterMessage)
	})

	r.Route("/api/account", func(r chi.Router) {
		r.Use(middleware.CustomerAuth(cfg.JWTSecret))
		r.Get("/", h.AccountProfile)
		r.Put("/preferences", h.AccountUpdatePreferences)
	})

	r.Route("/api/staff", func(r chi.Router) {
		r.Use(middleware.StaffAuth(cfg.JWTSecret))
		r.Get("/venues/{venueId}/dashboard", h.StaffDashboard)
		r.Get("/orders", h.StaffOrders)
		r.Put("/orders/{orderId}/status", h.StaffUpdateOrderStatus)
		r.Get("/waiter-calls", h.StaffWaiterCalls)
		r.Delete("/waiter-calls/{sessionId}", h.StaffAnswerWaiterCall)
		r.Get("/metrics", h.StaffMetrics)
	})

	r.Route("/api/kitchen", func(r chi.Router) {
		r.Use(middleware.KitchenAuth(cfg.KitchenAPIKey))
		r.Put("/orders/{orderId}/status", h.KitchenUpdateOrderStatus)
	})

	if wsServer != nil {
		r.Get("/ws/session", wsServer.SessionWS)
		r.Get("/ws/session/scan", wsServer.ScanWS)
		r.Get("/ws/staff/venue", wsServer.StaffVenueWS)
		r.Get("/ws/public/promotions", wsServer.PromotionsWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", middleware.RequestIDFrom(r)),
			)
		})
	}
}

func setResponseHeader(name string, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(name, value)
			next.ServeHTTP(w, r)
		})
	}
}
