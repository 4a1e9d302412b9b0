// Package workflow enacts the visit lifecycle: a visit is created pending,
// the named host approves or rejects it, security checks the visitor in at
// the gate and out again on exit.
//
//	pending -> approved -> checked_in -> checked_out
//	pending -> rejected
//
// Rejected and checked_out are terminal. Approval and check-in are distinct
// steps in every path, including self-service quick check-in.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/rvvm-project/campusgate/internal/store"
)

var (
	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition is returned when an operation is not valid from the
	// visit's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Engine drives every valid state transition on a Visit and rejects invalid
// ones. All persistence goes through the injected Store.
type Engine struct {
	store store.Store
	now   func() time.Time
}

// New creates a workflow engine over the given store.
func New(s store.Store) *Engine {
	return &Engine{store: s, now: time.Now}
}

// Register creates a new pending visit from self-service registration input.
// Required fields: name, contactNumber, department, whomToMeet, purposeOfVisit.
func (e *Engine) Register(ctx context.Context, details *models.Visit) (*models.Visit, error) {
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	now := e.now()
	v := *details
	v.ID = ""
	v.Status = models.VisitStatusPending
	if v.Type == "" {
		v.Type = models.VisitTypeRegistration
	}
	v.IsApproved = false
	v.ApprovedBy = ""
	v.ApprovedAt = nil
	v.RejectionReason = ""
	v.CheckedInBy = ""
	v.CheckedOutBy = ""
	v.ExitTime = nil
	v.NotificationSent = false
	v.NotificationSentAt = nil
	v.CreatedAt = now
	v.EntryTime = now

	if err := e.store.CreateVisit(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CabEntry creates a pending cab/driver visit. Same lifecycle as a
// registration, with the cab fields required in addition.
func (e *Engine) CabEntry(ctx context.Context, details *models.Visit) (*models.Visit, error) {
	if details.CabProvider == "" || details.DriverName == "" || details.DriverContact == "" {
		return nil, fmt.Errorf("%w: cabProvider, driverName and driverContact are required", ErrValidation)
	}
	details.Type = models.VisitTypeCab
	return e.Register(ctx, details)
}

// QuickCheckIn clones a returning visitor's most recent visit by phone number
// into a fresh pending visit. Returns store.ErrNotFound when the number has no
// prior visit; the caller falls back to full registration.
func (e *Engine) QuickCheckIn(ctx context.Context, contactNumber string) (*models.Visit, error) {
	contactNumber = strings.TrimSpace(contactNumber)
	if contactNumber == "" {
		return nil, fmt.Errorf("%w: contactNumber is required", ErrValidation)
	}

	last, err := e.store.LatestVisitByContact(ctx, contactNumber)
	if err != nil {
		return nil, err
	}

	now := e.now()
	v := *last
	v.ID = ""
	v.Status = models.VisitStatusPending
	v.Type = models.VisitTypeQuickCheckin
	v.IsApproved = false
	v.ApprovedBy = ""
	v.ApprovedAt = nil
	v.RejectionReason = ""
	v.CheckedInBy = ""
	v.CheckedOutBy = ""
	v.ExitTime = nil
	v.NotificationSent = false
	v.NotificationSentAt = nil
	v.CreatedAt = now
	v.EntryTime = now

	if err := e.store.CreateVisit(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Approve marks a pending visit approved by the given host identity.
// Approving an already-approved visit is a no-op; any other status is an
// invalid transition. Approval does not check the visitor in.
func (e *Engine) Approve(ctx context.Context, visitID, approver string) (*models.Visit, error) {
	v, err := e.store.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	switch v.Status {
	case models.VisitStatusApproved:
		return v, nil // idempotent
	case models.VisitStatusPending:
	default:
		if v.Status.Terminal() {
			return nil, fmt.Errorf("%w: visit is already %s", ErrInvalidTransition, v.Status)
		}
		return nil, fmt.Errorf("%w: cannot approve visit in status %q", ErrInvalidTransition, v.Status)
	}

	now := e.now()
	err = e.store.UpdateVisit(ctx, visitID, map[string]interface{}{
		"status":      models.VisitStatusApproved,
		"is_approved": true,
		"approved_by": approver,
		"approved_at": now,
	})
	if err != nil {
		return nil, err
	}

	v.Status = models.VisitStatusApproved
	v.IsApproved = true
	v.ApprovedBy = approver
	v.ApprovedAt = &now
	return v, nil
}

// Reject marks a pending visit rejected (terminal). Rejecting an
// already-rejected visit is a no-op; rejecting an approved or checked-in
// visit is an invalid transition.
func (e *Engine) Reject(ctx context.Context, visitID, approver, reason string) (*models.Visit, error) {
	v, err := e.store.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	switch v.Status {
	case models.VisitStatusRejected:
		return v, nil // idempotent
	case models.VisitStatusPending:
	default:
		if v.Status.Terminal() {
			return nil, fmt.Errorf("%w: visit is already %s", ErrInvalidTransition, v.Status)
		}
		return nil, fmt.Errorf("%w: cannot reject visit in status %q", ErrInvalidTransition, v.Status)
	}

	err = e.store.UpdateVisit(ctx, visitID, map[string]interface{}{
		"status":           models.VisitStatusRejected,
		"approved_by":      approver,
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, err
	}

	v.Status = models.VisitStatusRejected
	v.ApprovedBy = approver
	v.RejectionReason = reason
	return v, nil
}

// CheckIn records the visitor passing the gate. Valid only from approved;
// refreshes entryTime to the actual gate time.
func (e *Engine) CheckIn(ctx context.Context, visitID, securityIdentity string) (*models.Visit, error) {
	v, err := e.store.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	switch v.Status {
	case models.VisitStatusCheckedIn:
		return v, nil // idempotent
	case models.VisitStatusApproved:
	case models.VisitStatusPending:
		return nil, fmt.Errorf("%w: visit is awaiting host approval", ErrInvalidTransition)
	default:
		return nil, fmt.Errorf("%w: cannot check in visit in status %q", ErrInvalidTransition, v.Status)
	}

	now := e.now()
	err = e.store.UpdateVisit(ctx, visitID, map[string]interface{}{
		"status":        models.VisitStatusCheckedIn,
		"entry_time":    now,
		"checked_in_by": securityIdentity,
	})
	if err != nil {
		return nil, err
	}

	v.Status = models.VisitStatusCheckedIn
	v.EntryTime = now
	v.CheckedInBy = securityIdentity
	return v, nil
}

// CheckOut records the visitor leaving. Valid only from checked_in; exitTime
// is therefore always set after entryTime.
func (e *Engine) CheckOut(ctx context.Context, visitID, securityIdentity string) (*models.Visit, error) {
	v, err := e.store.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	switch v.Status {
	case models.VisitStatusCheckedOut:
		return v, nil // idempotent
	case models.VisitStatusCheckedIn:
	default:
		return nil, fmt.Errorf("%w: cannot check out visit in status %q", ErrInvalidTransition, v.Status)
	}

	now := e.now()
	err = e.store.UpdateVisit(ctx, visitID, map[string]interface{}{
		"status":         models.VisitStatusCheckedOut,
		"exit_time":      now,
		"checked_out_by": securityIdentity,
	})
	if err != nil {
		return nil, err
	}

	v.Status = models.VisitStatusCheckedOut
	v.ExitTime = &now
	v.CheckedOutBy = securityIdentity
	return v, nil
}

// qrPayload is the JSON form some gate-pass QR codes carry.
type qrPayload struct {
	ID        string `json:"id"`
	VisitorID string `json:"visitorId"`
}

// LookupByQRPayload resolves a scanned QR payload to a visit. The payload is
// either a bare visit ID or a JSON object carrying an id/visitorId field.
func (e *Engine) LookupByQRPayload(ctx context.Context, payload string) (*models.Visit, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty QR payload", ErrValidation)
	}

	id := payload
	if strings.HasPrefix(payload, "{") {
		var p qrPayload
		if err := json.Unmarshal([]byte(payload), &p); err == nil {
			switch {
			case p.ID != "":
				id = p.ID
			case p.VisitorID != "":
				id = p.VisitorID
			}
		}
	}

	return e.store.GetVisit(ctx, id)
}

// TodaysVisits returns visits created today (local time), newest first.
// The range is [startOfDay, startOfNextDay).
func (e *Engine) TodaysVisits(ctx context.Context) ([]models.Visit, error) {
	now := e.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return e.store.VisitsCreatedBetween(ctx, start, start.AddDate(0, 0, 1))
}

// PendingApprovals returns all visits awaiting a host decision, newest first.
func (e *Engine) PendingApprovals(ctx context.Context) ([]models.Visit, error) {
	return e.store.VisitsByStatus(ctx, models.VisitStatusPending)
}

// DashboardStats summarizes the visit collection for the dashboards.
type DashboardStats struct {
	TotalVisitors     int64 `json:"totalVisitors"`
	TodaysVisitors    int64 `json:"todaysVisitors"`
	PendingApprovals  int64 `json:"pendingApprovals"`
	CheckedInVisitors int64 `json:"checkedInVisitors"`
}

// Stats computes the dashboard counters.
func (e *Engine) Stats(ctx context.Context) (*DashboardStats, error) {
	total, err := e.store.CountVisits(ctx)
	if err != nil {
		return nil, err
	}
	today, err := e.TodaysVisits(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := e.store.CountVisitsByStatus(ctx, models.VisitStatusPending)
	if err != nil {
		return nil, err
	}
	checkedIn, err := e.store.CountVisitsByStatus(ctx, models.VisitStatusCheckedIn)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalVisitors:     total,
		TodaysVisitors:    int64(len(today)),
		PendingApprovals:  pending,
		CheckedInVisitors: checkedIn,
	}, nil
}

func validateDetails(v *models.Visit) error {
	var missing []string
	if strings.TrimSpace(v.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(v.ContactNumber) == "" {
		missing = append(missing, "contactNumber")
	}
	if strings.TrimSpace(v.Department) == "" {
		missing = append(missing, "department")
	}
	if strings.TrimSpace(v.WhomToMeet) == "" {
		missing = append(missing, "whomToMeet")
	}
	if strings.TrimSpace(v.PurposeOfVisit) == "" {
		missing = append(missing, "purposeOfVisit")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
