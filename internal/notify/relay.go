// Package notify derives user-facing alerts from visit and request state
// changes. Notifications are server-owned with per-recipient read state; live
// websocket delivery is best-effort on top of that.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/rvvm-project/campusgate/internal/store"
	"github.com/rvvm-project/campusgate/internal/workflow"
	"gorm.io/datatypes"
)

// Pusher delivers a message to a connected recipient, returning false when
// the recipient is offline. The websocket hub implements this.
type Pusher interface {
	SendToUser(userID string, message interface{}) bool
}

// Relay records notifications and drives the security-initiated visitor
// request workflow.
type Relay struct {
	store  store.Store
	engine *workflow.Engine
	pusher Pusher
	now    func() time.Time
}

// NewRelay creates a relay. pusher may be nil when live delivery is disabled.
func NewRelay(s store.Store, e *workflow.Engine, p Pusher) *Relay {
	return &Relay{store: s, engine: e, pusher: p, now: time.Now}
}

// Notify appends a notification for its recipient and pushes it to them if
// they are connected. Always succeeds once the record is stored.
func (r *Relay) Notify(ctx context.Context, n *models.Notification) (string, error) {
	if n.Type == "" {
		n.Type = models.NotificationGeneral
	}
	n.Timestamp = r.now()
	n.IsRead = false
	if err := r.store.CreateNotification(ctx, n); err != nil {
		return "", err
	}
	if r.pusher != nil && n.To != "" {
		r.pusher.SendToUser(n.To, n)
	}
	return n.ID, nil
}

// MarkRead flags a notification as read.
func (r *Relay) MarkRead(ctx context.Context, notificationID string) error {
	return r.store.MarkNotificationRead(ctx, notificationID, r.now())
}

// ListForRecipient returns a user's notifications, newest first.
func (r *Relay) ListForRecipient(ctx context.Context, userID string) ([]models.Notification, error) {
	return r.store.NotificationsForRecipient(ctx, userID)
}

// CreateVisitorRequest raises a request on a walk-in visitor's behalf: it
// registers the paired pending visit, stores the request, and alerts the host.
func (r *Relay) CreateVisitorRequest(ctx context.Context, req *models.VisitorRequest) (*models.VisitorRequest, error) {
	visit, err := r.engine.Register(ctx, &models.Visit{
		Name:             req.VisitorName,
		ContactNumber:    req.VisitorPhone,
		Email:            req.VisitorEmail,
		Department:       req.Department,
		WhomToMeet:       req.HostName,
		WhomToMeetEmail:  req.HostEmail,
		PurposeOfVisit:   req.PurposeOfVisit,
		NumberOfVisitors: req.NumberOfVisitors,
		VehicleNumber:    req.VehicleNumber,
		Remarks:          req.SecurityNotes,
	})
	if err != nil {
		return nil, err
	}

	req.VisitID = visit.ID
	req.Status = models.RequestStatusPending
	req.RequestedTime = r.now()
	if err := r.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	_, err = r.Notify(ctx, &models.Notification{
		Type:    models.NotificationVisitorRequest,
		Title:   "New Visitor Request",
		Message: fmt.Sprintf("%s wants to visit you. Purpose: %s", req.VisitorName, req.PurposeOfVisit),
		From:    req.CreatedBy,
		To:      req.HostID,
		Data:    requestData(req),
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveRequest records the host's approval, approves the underlying visit,
// and alerts the security officer who raised the request.
func (r *Relay) ApproveRequest(ctx context.Context, requestID, approvedBy string) (*models.VisitorRequest, error) {
	req, err := r.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := r.engine.Approve(ctx, req.VisitID, approvedBy); err != nil {
		return nil, err
	}

	now := r.now()
	err = r.store.UpdateRequest(ctx, requestID, map[string]interface{}{
		"status":        models.RequestStatusApproved,
		"approval_time": now,
	})
	if err != nil {
		return nil, err
	}
	req.Status = models.RequestStatusApproved
	req.ApprovalTime = &now

	_, err = r.Notify(ctx, &models.Notification{
		Type:    models.NotificationVisitorApproved,
		Title:   "Visitor Request Approved",
		Message: fmt.Sprintf("%s approved %s's visit request.", req.HostName, req.VisitorName),
		From:    approvedBy,
		To:      req.CreatedBy,
		Data:    requestData(req),
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// RejectRequest records the host's rejection with a reason, rejects the
// underlying visit, and alerts the security officer.
func (r *Relay) RejectRequest(ctx context.Context, requestID, reason, rejectedBy string) (*models.VisitorRequest, error) {
	req, err := r.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := r.engine.Reject(ctx, req.VisitID, rejectedBy, reason); err != nil {
		return nil, err
	}

	err = r.store.UpdateRequest(ctx, requestID, map[string]interface{}{
		"status":           models.RequestStatusRejected,
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	req.Status = models.RequestStatusRejected
	req.RejectionReason = reason

	_, err = r.Notify(ctx, &models.Notification{
		Type:    models.NotificationVisitorRejected,
		Title:   "Visitor Request Rejected",
		Message: fmt.Sprintf("%s rejected %s's visit request. Reason: %s", req.HostName, req.VisitorName, reason),
		From:    rejectedBy,
		To:      req.CreatedBy,
		Data:    requestData(req),
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// PendingForHost returns a host's undecided requests, newest first.
func (r *Relay) PendingForHost(ctx context.Context, hostID string) ([]models.VisitorRequest, error) {
	return r.store.RequestsForHost(ctx, hostID, models.RequestStatusPending)
}

// ApprovedForHost returns a host's approved requests, newest first.
func (r *Relay) ApprovedForHost(ctx context.Context, hostID string) ([]models.VisitorRequest, error) {
	return r.store.RequestsForHost(ctx, hostID, models.RequestStatusApproved)
}

// AllForSecurity returns every request, newest first.
func (r *Relay) AllForSecurity(ctx context.Context) ([]models.VisitorRequest, error) {
	return r.store.ListRequests(ctx)
}

func requestData(req *models.VisitorRequest) datatypes.JSON {
	b, err := json.Marshal(map[string]string{
		"requestId": req.ID,
		"visitId":   req.VisitID,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
