package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pluspoint/pluspoint/internal/auth"
	"github.com/pluspoint/pluspoint/internal/handler"
	"github.com/pluspoint/pluspoint/internal/ledger"
	"github.com/pluspoint/pluspoint/internal/middleware"
	"github.com/pluspoint/pluspoint/internal/push"
	"github.com/pluspoint/pluspoint/internal/shop"
	"github.com/pluspoint/pluspoint/internal/store"
	"github.com/pluspoint/pluspoint/internal/task"
	ws "github.com/pluspoint/pluspoint/internal/websocket"
)

// Config carries everything the server needs beyond the database handle.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	Push      push.Config
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	childH        *handler.ChildHandler
	taskH         *handler.TaskHandler
	shopH         *handler.ShopHandler
	notificationH *handler.NotificationHandler
	pushH         *handler.PushHandler
	profileStore  *store.ProfileStore
	tokenIssuer   *auth.TokenIssuer
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	profileStore := store.NewProfileStore(db)
	taskStore := store.NewTaskStore(db)
	shopStore := store.NewShopStore(db)
	purchaseStore := store.NewPurchaseStore(db)
	notificationStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)

	ledgerSvc := ledger.NewService(db, logger.With("component", "ledger"))
	taskWorkflow := task.NewWorkflow(taskStore, ledgerSvc, logger.With("component", "task"))
	shopWorkflow := shop.NewWorkflow(profileStore, shopStore, purchaseStore, ledgerSvc, logger.With("component", "shop"))

	tokenIssuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)

	// Push notifications are optional: without VAPID keys the handler is nil
	// and its routes are not registered.
	pushLogger := logger.With("component", "push")
	var pushSvc *push.Service
	var pushH *handler.PushHandler
	var notifier *push.Notifier
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		notifier = push.NewNotifier(pushSvc, pushStore, pushLogger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, pushLogger)
	}

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(profileStore, tokenIssuer, logger.With("component", "auth")),
		childH:        handler.NewChildHandler(profileStore, ledgerSvc, logger.With("component", "children")),
		taskH:         handler.NewTaskHandler(taskStore, profileStore, taskWorkflow, hub, logger.With("component", "tasks")),
		shopH:         handler.NewShopHandler(shopStore, purchaseStore, profileStore, shopWorkflow, hub, notifier, logger.With("component", "shop_handler")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notifications")),
		pushH:         pushH,
		profileStore:  profileStore,
		tokenIssuer:   tokenIssuer,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/signup", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokenIssuer, s.profileStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	parent := middleware.RequireParent

	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateMe)

	// Child accounts (parent only)
	mux.Handle("POST /api/children", parent(http.HandlerFunc(s.childH.Create)))
	mux.Handle("GET /api/children", parent(http.HandlerFunc(s.childH.List)))
	mux.HandleFunc("GET /api/children/{id}/ledger", s.childH.History)

	// Tasks
	mux.Handle("POST /api/tasks", parent(http.HandlerFunc(s.taskH.Create)))
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("POST /api/tasks/{id}/cancel", s.taskH.Cancel)
	mux.Handle("POST /api/tasks/{id}/verify", parent(http.HandlerFunc(s.taskH.Verify)))
	mux.Handle("POST /api/tasks/{id}/deny", parent(http.HandlerFunc(s.taskH.Deny)))
	mux.Handle("DELETE /api/tasks/{id}", parent(http.HandlerFunc(s.taskH.Delete)))

	// Shop
	mux.Handle("POST /api/shop/items", parent(http.HandlerFunc(s.shopH.CreateItem)))
	mux.HandleFunc("GET /api/shop/items", s.shopH.ListItems)
	mux.Handle("PUT /api/shop/items/{id}", parent(http.HandlerFunc(s.shopH.UpdateItem)))
	mux.Handle("DELETE /api/shop/items/{id}", parent(http.HandlerFunc(s.shopH.DeleteItem)))
	mux.HandleFunc("POST /api/shop/items/{id}/purchase", s.shopH.Purchase)
	mux.HandleFunc("GET /api/purchases", s.shopH.ListPurchases)
	mux.HandleFunc("POST /api/purchases/{id}/cash-in", s.shopH.CashIn)

	// Notifications (parent only)
	mux.Handle("GET /api/notifications", parent(http.HandlerFunc(s.notificationH.List)))
	mux.Handle("GET /api/notifications/unread-count", parent(http.HandlerFunc(s.notificationH.UnreadCount)))
	mux.Handle("POST /api/notifications/{id}/read", parent(http.HandlerFunc(s.notificationH.MarkRead)))

	// Push notifications (parent only)
	if s.pushH != nil {
		mux.Handle("POST /api/push/subscribe", parent(http.HandlerFunc(s.pushH.Subscribe)))
		mux.Handle("GET /api/push/subscriptions", parent(http.HandlerFunc(s.pushH.List)))
		mux.Handle("DELETE /api/push/subscriptions/{id}", parent(http.HandlerFunc(s.pushH.Unsubscribe)))
		mux.Handle("GET /api/push/vapid-key", parent(http.HandlerFunc(s.pushH.VAPIDKey)))
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
