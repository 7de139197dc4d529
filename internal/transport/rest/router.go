package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"

	_ "codeclive/docs"
	"codeclive/internal/ratelimit"
	"codeclive/internal/service"
	"codeclive/internal/transport/rest/handler"
	"codeclive/internal/transport/rest/middleware"
	"codeclive/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService  *service.AuthService
	RoomService  *service.RoomService
	Relay        *service.Relay
	WSHub        *ws.Hub
	Limiters     *ratelimit.ClientLimiters
	AuthRequired bool
	CORSOrigins  string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler()
	liveRoomHandler := handler.NewLiveRoomHandler(c.RoomService)
	wsHandler := ws.NewHandler(c.WSHub, c.Relay, c.AuthService, c.Limiters, c.AuthRequired)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService, c.AuthRequired)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/liverooms", wsHandler.ServeWS).Methods("GET")

	v1.HandleFunc("/swagger.json", swaggerJSON).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Authenticated routes
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/liverooms", liveRoomHandler.List).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/liverooms/mine", liveRoomHandler.Mine).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/liverooms/{roomId}", liveRoomHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/liverooms/{roomId}/roster", liveRoomHandler.Roster).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/liverooms/{roomId}/audit", liveRoomHandler.Audit).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/liverooms/{roomId}/end", liveRoomHandler.End).Methods("POST", "OPTIONS")

	return r
}

func swaggerJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		log.Error().Err(err).Str("module", "rest").Msg("swagger doc unavailable")
		http.Error(w, `{"error":"swagger doc unavailable"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
