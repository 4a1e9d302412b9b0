package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/rvvm-project/campusgate/internal/buildinfo"
	"github.com/rvvm-project/campusgate/internal/config"
	"github.com/rvvm-project/campusgate/internal/middleware"
	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/rvvm-project/campusgate/internal/notify"
	"github.com/rvvm-project/campusgate/internal/store"
	"github.com/rvvm-project/campusgate/internal/websocket"
	"github.com/rvvm-project/campusgate/internal/workflow"
)

// Every store round-trip is bounded; the upstream client sees a 500 rather
// than a hung request when the datastore stalls.
const requestTimeout = 10 * time.Second

// Router wraps the mux router with the service dependencies
type Router struct {
	*mux.Router
	cfg    *config.Config
	store  store.Store
	engine *workflow.Engine
	relay  *notify.Relay
	hub    *websocket.Hub
}

// NewRouter creates the HTTP router with all routes. hub may be nil when
// live notification push is disabled (e.g. in tests).
func NewRouter(cfg *config.Config, st store.Store, hub *websocket.Hub) *Router {
	engine := workflow.New(st)

	var pusher notify.Pusher
	if hub != nil {
		pusher = hub
	}

	r := &Router{
		Router: mux.NewRouter(),
		cfg:    cfg,
		store:  st,
		engine: engine,
		relay:  notify.NewRelay(st, engine, pusher),
		hub:    hub,
	}

	r.Use(middleware.Recover(cfg.IsProduction()))
	r.Use(mux.MiddlewareFunc(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})))

	authn := mux.MiddlewareFunc(middleware.Authenticate(cfg.JWTSecret))
	requireHost := mux.MiddlewareFunc(middleware.RequireRole(models.RoleHost, models.RoleAdmin))
	requireSecurity := mux.MiddlewareFunc(middleware.RequireRole(models.RoleSecurity, models.RoleAdmin))

	api := r.PathPrefix("/api").Subrouter()

	// Liveness probe, no auth
	api.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", r.signup).Methods("POST")
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")

	// Public visitor routes (no authentication required)
	public := api.PathPrefix("/visitors").Subrouter()
	public.HandleFunc("/register", r.registerVisitor).Methods("POST")
	public.HandleFunc("/quick-checkin", r.quickCheckIn).Methods("POST")
	public.HandleFunc("/cab-entry", r.cabEntry).Methods("POST")
	public.HandleFunc("/{visitId}/pass", r.visitorPassPNG).Methods("GET")
	public.HandleFunc("/{visitId}/pass.pdf", r.visitorPassPDF).Methods("GET")

	// Authenticated visitor routes (any role)
	visitors := api.PathPrefix("/visitors").Subrouter()
	visitors.Use(authn)
	visitors.HandleFunc("/today", r.todaysVisitors).Methods("GET")
	visitors.HandleFunc("/stats", r.dashboardStats).Methods("GET")

	// Host decisions
	hostOps := api.PathPrefix("/visitors").Subrouter()
	hostOps.Use(authn, requireHost)
	hostOps.HandleFunc("/pending-approvals", r.pendingApprovals).Methods("GET")
	hostOps.HandleFunc("/approve/{visitId}", r.approveVisitor).Methods("PUT")
	hostOps.HandleFunc("/reject/{visitId}", r.rejectVisitor).Methods("PUT")

	// Gate operations
	gateOps := api.PathPrefix("/visitors").Subrouter()
	gateOps.Use(authn, requireSecurity)
	gateOps.HandleFunc("/check-in/{visitId}", r.checkInVisitor).Methods("PUT")
	gateOps.HandleFunc("/check-out/{visitId}", r.checkOutVisitor).Methods("PUT")
	gateOps.HandleFunc("/scan", r.scanPass).Methods("POST")

	// Visitor requests raised by security, decided by hosts
	secReqs := api.PathPrefix("/requests").Subrouter()
	secReqs.Use(authn, requireSecurity)
	secReqs.HandleFunc("", r.createRequest).Methods("POST")
	secReqs.HandleFunc("", r.listRequests).Methods("GET")

	hostReqs := api.PathPrefix("/requests").Subrouter()
	hostReqs.Use(authn, requireHost)
	hostReqs.HandleFunc("/pending", r.pendingRequests).Methods("GET")
	hostReqs.HandleFunc("/approved", r.approvedRequests).Methods("GET")
	hostReqs.HandleFunc("/{requestId}/approve", r.approveRequest).Methods("PUT")
	hostReqs.HandleFunc("/{requestId}/reject", r.rejectRequest).Methods("PUT")

	// Notifications for the authenticated user
	notifs := api.PathPrefix("/notifications").Subrouter()
	notifs.Use(authn)
	notifs.HandleFunc("", r.listNotifications).Methods("GET")
	notifs.HandleFunc("/{notificationId}/read", r.markNotificationRead).Methods("PUT")

	// Live notification push
	r.HandleFunc("/ws", r.serveWS).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found")
	})

	return r
}

// healthCheck returns the liveness envelope
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Campus visitor management API is running",
		"timestamp": time.Now().Format(time.RFC3339),
		"build": map[string]string{
			"commit":    buildinfo.CommitHash,
			"buildTime": buildinfo.BuildTime,
			"startTime": buildinfo.StartTime,
		},
	})
}

// requestContext bounds a handler's store work with the request timeout.
func requestContext(req *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(req.Context(), requestTimeout)
}

// apiResponse is the envelope every JSON endpoint answers with
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondSuccess sends a success envelope
func respondSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, apiResponse{Success: true, Message: message, Data: data})
}

// respondError sends a failure envelope
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, apiResponse{Success: false, Message: message})
}

// respondOpError maps a workflow/store error onto the public taxonomy
func (r *Router) respondOpError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, workflow.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, fallback)
	case errors.Is(err, workflow.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	default:
		resp := apiResponse{Success: false, Message: fallback}
		if !r.cfg.IsProduction() {
			resp.Error = err.Error()
		}
		respondJSON(w, http.StatusInternalServerError, resp)
	}
}
