package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rvvm-project/campusgate/internal/badge"
	"github.com/rvvm-project/campusgate/internal/middleware"
	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/rvvm-project/campusgate/internal/store"
)

// Overridable for tests
var timeNow = time.Now

// QuickCheckInRequest carries the phone-number shortcut payload
type QuickCheckInRequest struct {
	ContactNumber string `json:"contactNumber"`
}

// ScanRequest carries a scanned gate-pass QR payload
type ScanRequest struct {
	Payload string `json:"payload"`
}

// RejectVisitorRequest carries the host's rejection reason
type RejectVisitorRequest struct {
	Reason string `json:"reason"`
}

// registerVisitor creates a new pending visit from the self-service form
func (r *Router) registerVisitor(w http.ResponseWriter, req *http.Request) {
	var details models.Visit
	if err := json.NewDecoder(req.Body).Decode(&details); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := requestContext(req)
	defer cancel()

	visit, err := r.engine.Register(ctx, &details)
	if err != nil {
		r.respondOpError(w, err, "Failed to register visitor")
		return
	}

	r.notifyHostOfVisit(ctx, visit)

	respondSuccess(w, http.StatusCreated, "Visitor registered successfully", visit)
}

// quickCheckIn clones a returning visitor's most recent visit by phone number
func (r *Router) quickCheckIn(w http.ResponseWriter, req *http.Request) {
	var body QuickCheckInRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := requestContext(req)
	defer cancel()

	visit, err := r.engine.QuickCheckIn(ctx, body.ContactNumber)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No previous visits found. Please register as a new visitor.")
		return
	}
	if err != nil {
		r.respondOpError(w, err, "Failed to process quick check-in")
		return
	}

	r.notifyHostOfVisit(ctx, visit)

	respondSuccess(w, http.StatusCreated, "Quick check-in successful", visit)
}

// cabEntry records a cab/driver arrival at the gate
func (r *Router) cabEntry(w http.ResponseWriter, req *http.Request) {
	var details models.Visit
	if err := json.NewDecoder(req.Body).Decode(&details); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := requestContext(req)
	defer cancel()

	visit, err := r.engine.CabEntry(ctx, &details)
	if err != nil {
		r.respondOpError(w, err, "Failed to record cab entry")
		return
	}

	if host, err := r.store.GetUserByEmail(ctx, visit.WhomToMeetEmail); err == nil {
		_, _ = r.relay.Notify(ctx, &models.Notification{
			Type:    models.NotificationCabEntry,
			Title:   "Cab Entry",
			Message: fmt.Sprintf("Cab arrival for %s (%s, driver %s)", visit.Name, visit.CabProvider, visit.DriverName),
			To:      host.ID,
		})
	}

	respondSuccess(w, http.StatusCreated, "Cab entry recorded successfully", visit)
}

// todaysVisitors returns visits created today, newest first
func (r *Router) todaysVisitors(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := requestContext(req)
	defer cancel()

	visits, err := r.engine.TodaysVisits(ctx)
	if err != nil {
		r.respondOpError(w, err, "Failed to get today's visitors")
		return
	}
	respondSuccess(w, http.StatusOK, "Today's visitors retrieved successfully", visits)
}

// dashboardStats returns the dashboard counters
func (r *Router) dashboardStats(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := requestContext(req)
	defer cancel()

	stats, err := r.engine.Stats(ctx)
	if err != nil {
		r.respondOpError(w, err, "Failed to compute stats")
		return
	}
	respondSuccess(w, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}

// pendingApprovals returns visits awaiting a host decision
func (r *Router) pendingApprovals(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := requestContext(req)
	defer cancel()

	visits, err := r.engine.PendingApprovals(ctx)
	if err != nil {
		r.respondOpError(w, err, "Failed to get pending approvals")
		return
	}
	respondSuccess(w, http.StatusOK, "Pending approvals retrieved successfully", visits)
}

// approveVisitor marks a pending visit approved by the authenticated host
func (r *Router) approveVisitor(w http.ResponseWriter, req *http.Request) {
	visitID := mux.Vars(req)["visitId"]
	user := middleware.UserFromContext(req.Context())

	ctx, cancel := requestContext(req)
	defer cancel()

	visit, err := r.engine.Approve(ctx, visitID, user.Email)
	if err != nil {
		r.respondOpError(w, err, "Visitor not found")
		return
	}
	respondSuccess(w, http.StatusOK, "Visitor approved successfully", visit)
}

// rejectVisitor marks a pending visit rejected with a reason
func (r *Router) rejectVisitor(w http.ResponseWriter, req *http.Request) {
	visitID := mux.Vars(req)["visitId"]
	user := middleware.UserFromContext(req.Context())

	var body RejectVisitorRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := requestContext(req)
	defer cancel()

	visit, err := r.engine.Reject(ctx, visitID, user.Email, body.Reason)
	if err != nil {
		r.respondOpError(w, err, "Visitor not found")
		return
	}
	respondSuccess(w, http.StatusOK, "Visitor rejected", visit)
}

// checkInVisitor records the visitor passing the gate
func (r *Router) checkInVisitor(w http.ResponseWriter, req *http.Request) {
	visitID := mux.Vars(req)["visitId"]
	user := middleware.UserFromContext(req.Context())

	ctx, cancel := requestContext(req)
	defer cancel()

	visit, err := r.engine.CheckIn(ctx, visitID, user.Email)
	if err != nil {
		r.respondOpError(w, err, "Visitor not found")
		return
	}
	respondSuccess(w, http.StatusOK, "Visitor checked in", visit)
}

// checkOutVisitor records the visitor leaving
func (r *Router) checkOutVisitor(w http.ResponseWriter, req *http.Request) {
	visitID := mux.Vars(req)["visitId"]
	user := middleware.UserFromContext(req.Context())

	ctx, cancel := requestContext(req)
	defer cancel()

	visit, err := r.engine.CheckOut(ctx, visitID, user.Email)
	if err != nil {
		r.respondOpError(w, err, "Visitor not found")
		return
	}
	respondSuccess(w, http.StatusOK, "Visitor checked out", visit)
}

// scanPass resolves a scanned QR payload to a visit
func (r *Router) scanPass(w http.ResponseWriter, req *http.Request) {
	var body ScanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := requestContext(req)
	defer cancel()

	visit, err := r.engine.LookupByQRPayload(ctx, body.Payload)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Visitor not found for scanned pass")
		return
	}
	if err != nil {
		r.respondOpError(w, err, "Failed to resolve scanned pass")
		return
	}
	respondSuccess(w, http.StatusOK, "Pass resolved", visit)
}

// visitorPassPNG serves the gate-pass QR code image
func (r *Router) visitorPassPNG(w http.ResponseWriter, req *http.Request) {
	visitID := mux.Vars(req)["visitId"]

	ctx, cancel := requestContext(req)
	defer cancel()

	if _, err := r.store.GetVisit(ctx, visitID); err != nil {
		r.respondOpError(w, err, "Visitor not found")
		return
	}

	size := 256
	if s := req.URL.Query().Get("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}

	png, err := badge.QRPNG(visitID, size)
	if err != nil {
		r.respondOpError(w, err, "Failed to generate pass")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Write(png)
}

// visitorPassPDF serves the printable gate pass
func (r *Router) visitorPassPDF(w http.ResponseWriter, req *http.Request) {
	visitID := mux.Vars(req)["visitId"]

	ctx, cancel := requestContext(req)
	defer cancel()

	visit, err := r.store.GetVisit(ctx, visitID)
	if err != nil {
		r.respondOpError(w, err, "Visitor not found")
		return
	}

	pdfBytes, err := badge.PassPDF(visit)
	if err != nil {
		r.respondOpError(w, err, "Failed to generate pass")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"visitor_pass_%s.pdf\"", visitID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}

// notifyHostOfVisit alerts the named host about a fresh visit when the
// visitor asked for it and the host has an account. Best-effort; the visit
// itself is already stored.
func (r *Router) notifyHostOfVisit(ctx context.Context, visit *models.Visit) {
	if !visit.SendNotification || visit.WhomToMeetEmail == "" {
		return
	}
	host, err := r.store.GetUserByEmail(ctx, visit.WhomToMeetEmail)
	if err != nil {
		return
	}
	_, err = r.relay.Notify(ctx, &models.Notification{
		Type:    models.NotificationVisitorRequest,
		Title:   "New Visitor Request",
		Message: fmt.Sprintf("%s wants to visit you. Purpose: %s", visit.Name, visit.PurposeOfVisit),
		To:      host.ID,
	})
	if err != nil {
		return
	}
	_ = r.store.UpdateVisit(ctx, visit.ID, map[string]interface{}{
		"notification_sent":    true,
		"notification_sent_at": timeNow(),
	})
}
