package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/rvvm-project/campusgate/internal/store"
	"github.com/rvvm-project/campusgate/internal/workflow"
)

// recordingPusher captures live deliveries so tests can assert on fan-out.
type recordingPusher struct {
	sent map[string]int
}

func (p *recordingPusher) SendToUser(userID string, _ interface{}) bool {
	if p.sent == nil {
		p.sent = make(map[string]int)
	}
	p.sent[userID]++
	return true
}

func newTestRelay() (*Relay, *store.Memory, *recordingPusher) {
	mem := store.NewMemory()
	engine := workflow.New(mem)
	pusher := &recordingPusher{}
	return NewRelay(mem, engine, pusher), mem, pusher
}

func sampleRequest() *models.VisitorRequest {
	return &models.VisitorRequest{
		VisitorName:    "Asha Rao",
		VisitorPhone:   "9876543210",
		Department:     "CSE",
		HostID:         "host-1",
		HostName:       "Prof. X",
		HostEmail:      "prof.x@rvce.edu.in",
		PurposeOfVisit: "Meeting",
		CreatedBy:      "security-1",
	}
}

func TestCreateVisitorRequest(t *testing.T) {
	relay, mem, pusher := newTestRelay()
	ctx := context.Background()

	req, err := relay.CreateVisitorRequest(ctx, sampleRequest())
	if err != nil {
		t.Fatalf("CreateVisitorRequest failed: %v", err)
	}
	if req.ID == "" || req.VisitID == "" {
		t.Fatal("Expected request and paired visit IDs assigned")
	}
	if req.Status != models.RequestStatusPending {
		t.Errorf("Expected status pending, got %q", req.Status)
	}

	// Paired visit exists and is pending
	visit, err := mem.GetVisit(ctx, req.VisitID)
	if err != nil {
		t.Fatalf("Paired visit missing: %v", err)
	}
	if visit.Status != models.VisitStatusPending || visit.Name != "Asha Rao" {
		t.Errorf("Unexpected paired visit: %+v", visit)
	}

	// The host got notified, in the store and over the wire
	notifs, _ := mem.NotificationsForRecipient(ctx, "host-1")
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification for host, got %d", len(notifs))
	}
	if notifs[0].Type != models.NotificationVisitorRequest || notifs[0].Title != "New Visitor Request" {
		t.Errorf("Unexpected notification: %+v", notifs[0])
	}
	if notifs[0].Message != "Asha Rao wants to visit you. Purpose: Meeting" {
		t.Errorf("Unexpected message %q", notifs[0].Message)
	}
	if pusher.sent["host-1"] != 1 {
		t.Errorf("Expected 1 push to host, got %d", pusher.sent["host-1"])
	}
}

func TestApproveRequest(t *testing.T) {
	relay, mem, pusher := newTestRelay()
	ctx := context.Background()

	req, _ := relay.CreateVisitorRequest(ctx, sampleRequest())

	approved, err := relay.ApproveRequest(ctx, req.ID, "prof.x@rvce.edu.in")
	if err != nil {
		t.Fatalf("ApproveRequest failed: %v", err)
	}
	if approved.Status != models.RequestStatusApproved || approved.ApprovalTime == nil {
		t.Errorf("Request not approved: %+v", approved)
	}

	// Underlying visit is approved but not yet checked in
	visit, _ := mem.GetVisit(ctx, req.VisitID)
	if visit.Status != models.VisitStatusApproved || !visit.IsApproved {
		t.Errorf("Paired visit not approved: %+v", visit)
	}

	// The security officer who raised the request is alerted
	notifs, _ := mem.NotificationsForRecipient(ctx, "security-1")
	if len(notifs) != 1 || notifs[0].Type != models.NotificationVisitorApproved {
		t.Fatalf("Expected an approval notification for security, got %+v", notifs)
	}
	if pusher.sent["security-1"] != 1 {
		t.Errorf("Expected 1 push to security, got %d", pusher.sent["security-1"])
	}

	// Gone from the host's pending queue, present in the approved one
	pending, _ := relay.PendingForHost(ctx, "host-1")
	if len(pending) != 0 {
		t.Errorf("Expected no pending requests, got %d", len(pending))
	}
	done, _ := relay.ApprovedForHost(ctx, "host-1")
	if len(done) != 1 {
		t.Errorf("Expected 1 approved request, got %d", len(done))
	}
}

func TestRejectRequest(t *testing.T) {
	relay, mem, _ := newTestRelay()
	ctx := context.Background()

	req, _ := relay.CreateVisitorRequest(ctx, sampleRequest())

	rejected, err := relay.RejectRequest(ctx, req.ID, "no appointment", "prof.x@rvce.edu.in")
	if err != nil {
		t.Fatalf("RejectRequest failed: %v", err)
	}
	if rejected.Status != models.RequestStatusRejected || rejected.RejectionReason != "no appointment" {
		t.Errorf("Request not rejected: %+v", rejected)
	}

	visit, _ := mem.GetVisit(ctx, req.VisitID)
	if visit.Status != models.VisitStatusRejected {
		t.Errorf("Paired visit not rejected: %+v", visit)
	}

	// Approving after rejection must fail on the visit state machine
	if _, err := relay.ApproveRequest(ctx, req.ID, "prof.x@rvce.edu.in"); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("Approve after reject must be an invalid transition, got %v", err)
	}
}

func TestApproveRequestUnknownID(t *testing.T) {
	relay, _, _ := newTestRelay()

	_, err := relay.ApproveRequest(context.Background(), "missing", "host@rvce.edu.in")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestNotifyAndMarkRead(t *testing.T) {
	relay, mem, _ := newTestRelay()
	ctx := context.Background()

	id, err := relay.Notify(ctx, &models.Notification{
		Title:   "Gate closed early",
		Message: "Main gate closes at 8pm today",
		To:      "host-1",
	})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	notifs, _ := mem.NotificationsForRecipient(ctx, "host-1")
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].Type != models.NotificationGeneral {
		t.Errorf("Expected default type general, got %q", notifs[0].Type)
	}
	if notifs[0].IsRead {
		t.Error("New notification must start unread")
	}

	if err := relay.MarkRead(ctx, id); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	notifs, _ = relay.ListForRecipient(ctx, "host-1")
	if !notifs[0].IsRead || notifs[0].ReadAt == nil {
		t.Errorf("Notification not marked read: %+v", notifs[0])
	}
}

func TestRelayWithoutPusher(t *testing.T) {
	mem := store.NewMemory()
	relay := NewRelay(mem, workflow.New(mem), nil)

	// Storing must still work with live delivery disabled
	if _, err := relay.CreateVisitorRequest(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("CreateVisitorRequest without pusher failed: %v", err)
	}
}
