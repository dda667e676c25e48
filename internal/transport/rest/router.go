package rest

import (
	"intervue/internal/metrics"
	"intervue/internal/service"
	"intervue/internal/transport/rest/handler"
	"intervue/internal/transport/rest/middleware"
	"intervue/internal/transport/ws"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService        *service.AuthService
	DayService         *service.DayService
	SlotService        *service.SlotService
	ReservationService *service.ReservationService
	SessionService     *service.SessionService
	EvaluationService  *service.EvaluationService
	WSHub              *ws.Hub
	Metrics            *metrics.Metrics
	Logger             *zap.Logger

	CORSAllowedOrigins string
	MaxRequestsPerMin  int
	MaxUploadBytes     int64
	TrustProxy         bool
	DevTokens          bool
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Initialize handlers
	dayHandler := handler.NewDayHandler(c.DayService, log)
	slotHandler := handler.NewSlotHandler(c.SlotService, log)
	reservationHandler := handler.NewReservationHandler(c.ReservationService, log)
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.MaxUploadBytes, log)
	evaluationHandler := handler.NewEvaluationHandler(c.EvaluationService, log)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.CORSAllowedOrigins, log)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)
	limiter := middleware.NewRateLimiter(c.MaxRequestsPerMin, c.TrustProxy, log)

	// CORS middleware (apply first)
	r.Use(middleware.CORS(c.CORSAllowedOrigins))
	r.Use(middleware.RequestLogger(log, c.Metrics))
	r.Use(limiter.Middleware)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", c.Metrics.Handler()).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket route (token in query param or header)
	v1.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	if c.DevTokens {
		authHandler := handler.NewAuthHandler(c.AuthService, log)
		v1.HandleFunc("/auth/token", authHandler.IssueToken).Methods("POST", "OPTIONS")
	}

	api := v1.NewRoute().Subrouter()
	api.Use(authMW.RequireAuth)

	// Days
	api.HandleFunc("/days", dayHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/days", dayHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/days/{dayId}", dayHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/days/{dayId}", dayHandler.Update).Methods("PUT", "OPTIONS")
	api.HandleFunc("/days/{dayId}", dayHandler.Delete).Methods("DELETE", "OPTIONS")

	// Slots
	api.HandleFunc("/days/{dayId}/slots", slotHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/days/{dayId}/slots", slotHandler.ListByDay).Methods("GET", "OPTIONS")
	api.HandleFunc("/slots/{slotId}", slotHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/slots/{slotId}", slotHandler.Update).Methods("PUT", "OPTIONS")
	api.HandleFunc("/slots/{slotId}", slotHandler.Delete).Methods("DELETE", "OPTIONS")

	// Reservations
	api.HandleFunc("/slots/{slotId}/reservations", reservationHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/reservations", reservationHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/reservations/{id}", reservationHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/reservations/{id}", reservationHandler.Delete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/reservations/{id}/accept", reservationHandler.Accept).Methods("POST", "OPTIONS")
	api.HandleFunc("/reservations/{id}/reject", reservationHandler.Reject).Methods("POST", "OPTIONS")

	// Sessions
	api.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{id}", sessionHandler.Delete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/sessions/{id}/start", sessionHandler.Start).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{id}/complete", sessionHandler.Complete).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{id}/cancel", sessionHandler.Cancel).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{id}/recording", sessionHandler.UploadRecording).Methods("POST", "OPTIONS")

	// Evaluations
	api.HandleFunc("/sessions/{id}/evaluation", evaluationHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{id}/evaluation", evaluationHandler.GetBySession).Methods("GET", "OPTIONS")
	api.HandleFunc("/evaluations/{id}", evaluationHandler.Update).Methods("PUT", "OPTIONS")

	return r
}
