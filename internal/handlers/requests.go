package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rvvm-project/campusgate/internal/middleware"
	"github.com/rvvm-project/campusgate/internal/models"
)

// RejectRequestBody carries the host's rejection reason for a visitor request
type RejectRequestBody struct {
	Reason string `json:"reason"`
}

// createRequest lets security raise a visit request on a walk-in's behalf
func (r *Router) createRequest(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFromContext(req.Context())

	var body models.VisitorRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.HostID == "" {
		respondError(w, http.StatusBadRequest, "hostId is required")
		return
	}
	body.CreatedBy = user.ID

	ctx, cancel := requestContext(req)
	defer cancel()

	created, err := r.relay.CreateVisitorRequest(ctx, &body)
	if err != nil {
		r.respondOpError(w, err, "Failed to create visitor request")
		return
	}
	respondSuccess(w, http.StatusCreated, "Visitor request created", created)
}

// listRequests returns every visitor request for the security dashboard
func (r *Router) listRequests(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := requestContext(req)
	defer cancel()

	reqs, err := r.relay.AllForSecurity(ctx)
	if err != nil {
		r.respondOpError(w, err, "Failed to list visitor requests")
		return
	}
	respondSuccess(w, http.StatusOK, "Visitor requests retrieved successfully", reqs)
}

// pendingRequests returns the authenticated host's undecided requests
func (r *Router) pendingRequests(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFromContext(req.Context())

	ctx, cancel := requestContext(req)
	defer cancel()

	reqs, err := r.relay.PendingForHost(ctx, user.ID)
	if err != nil {
		r.respondOpError(w, err, "Failed to list pending requests")
		return
	}
	respondSuccess(w, http.StatusOK, "Pending requests retrieved successfully", reqs)
}

// approvedRequests returns the authenticated host's approved requests
func (r *Router) approvedRequests(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFromContext(req.Context())

	ctx, cancel := requestContext(req)
	defer cancel()

	reqs, err := r.relay.ApprovedForHost(ctx, user.ID)
	if err != nil {
		r.respondOpError(w, err, "Failed to list approved requests")
		return
	}
	respondSuccess(w, http.StatusOK, "Approved requests retrieved successfully", reqs)
}

// approveRequest records the host's approval of a visitor request
func (r *Router) approveRequest(w http.ResponseWriter, req *http.Request) {
	requestID := mux.Vars(req)["requestId"]
	user := middleware.UserFromContext(req.Context())

	ctx, cancel := requestContext(req)
	defer cancel()

	updated, err := r.relay.ApproveRequest(ctx, requestID, user.Email)
	if err != nil {
		r.respondOpError(w, err, "Visitor request not found")
		return
	}
	respondSuccess(w, http.StatusOK, "Visitor request approved", updated)
}

// rejectRequest records the host's rejection of a visitor request
func (r *Router) rejectRequest(w http.ResponseWriter, req *http.Request) {
	requestID := mux.Vars(req)["requestId"]
	user := middleware.UserFromContext(req.Context())

	var body RejectRequestBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := requestContext(req)
	defer cancel()

	updated, err := r.relay.RejectRequest(ctx, requestID, body.Reason, user.Email)
	if err != nil {
		r.respondOpError(w, err, "Visitor request not found")
		return
	}
	respondSuccess(w, http.StatusOK, "Visitor request rejected", updated)
}
