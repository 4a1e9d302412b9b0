package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rvvm-project/campusgate/internal/middleware"
	"github.com/rvvm-project/campusgate/internal/utils"
	"github.com/rvvm-project/campusgate/internal/websocket"
)

// listNotifications returns the authenticated user's notifications, newest first
func (r *Router) listNotifications(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFromContext(req.Context())

	ctx, cancel := requestContext(req)
	defer cancel()

	notifs, err := r.relay.ListForRecipient(ctx, user.ID)
	if err != nil {
		r.respondOpError(w, err, "Failed to list notifications")
		return
	}
	respondSuccess(w, http.StatusOK, "Notifications retrieved successfully", notifs)
}

// markNotificationRead flags one notification as read
func (r *Router) markNotificationRead(w http.ResponseWriter, req *http.Request) {
	notificationID := mux.Vars(req)["notificationId"]

	ctx, cancel := requestContext(req)
	defer cancel()

	if err := r.relay.MarkRead(ctx, notificationID); err != nil {
		r.respondOpError(w, err, "Notification not found")
		return
	}
	respondSuccess(w, http.StatusOK, "Notification marked as read", nil)
}

// serveWS upgrades to a websocket for live notification delivery. Browsers
// cannot set the Authorization header on websocket dials, so the token rides
// in a query parameter.
func (r *Router) serveWS(w http.ResponseWriter, req *http.Request) {
	if r.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "Live notifications are disabled")
		return
	}

	token := req.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Access token is required")
		return
	}

	claims, err := utils.ValidateToken(token, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusForbidden, "Invalid or expired token")
		return
	}

	userID, _ := claims["id"].(string)
	if userID == "" {
		respondError(w, http.StatusForbidden, "Invalid or expired token")
		return
	}

	websocket.ServeWS(r.hub, userID, w, req)
}
