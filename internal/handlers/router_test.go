package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rvvm-project/campusgate/internal/config"
	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/rvvm-project/campusgate/internal/store"
	"github.com/rvvm-project/campusgate/internal/utils"
)

const testSecret = "test-secret"

func newTestRouter() (*Router, *store.Memory) {
	cfg := &config.Config{
		NodeEnv:     "test",
		JWTSecret:   testSecret,
		FrontendURL: "http://localhost:3000",
		StoreDriver: config.StoreMemory,
	}
	mem := store.NewMemory()
	return NewRouter(cfg, mem, nil), mem
}

// seedUser stores a user and returns a valid access token for them.
func seedUser(t *testing.T, mem *store.Memory, email, role string) (*models.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("changeme123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	u := &models.User{
		Name:     "Test " + role,
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if err := mem.SaveUser(context.Background(), u); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	token, _, err := utils.GenerateTokens(u, testSecret)
	if err != nil {
		t.Fatalf("GenerateTokens failed: %v", err)
	}
	return u, token
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response is not the JSON envelope: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func registerPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":            "Asha Rao",
		"contactNumber":   "9876543210",
		"department":      "CSE",
		"whomToMeet":      "Prof. X",
		"whomToMeetEmail": "prof.x@rvce.edu.in",
		"purposeOfVisit":  "Meeting",
	}
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, "GET", "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if !resp.Success {
		t.Error("Expected success envelope")
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, "GET", "/api/does-not-exist", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Success || resp.Message != "Route not found" {
		t.Errorf("Unexpected envelope: %+v", resp)
	}
}

func TestSignupAndLogin(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, "POST", "/api/auth/signup", "", map[string]string{
		"name":     "Prof. X",
		"email":    "prof.x@rvce.edu.in",
		"password": "changeme123",
		"role":     "host",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Duplicate signup is refused
	rec = doJSON(t, r, "POST", "/api/auth/signup", "", map[string]string{
		"name":     "Prof. X",
		"email":    "prof.x@rvce.edu.in",
		"password": "changeme123",
		"role":     "host",
	})
	if rec.Code == http.StatusCreated {
		t.Fatal("Duplicate email must not sign up")
	}

	rec = doJSON(t, r, "POST", "/api/auth/login", "", map[string]string{
		"email":    "prof.x@rvce.edu.in",
		"password": "changeme123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %T", resp.Data)
	}
	tokens, ok := data["tokens"].(map[string]interface{})
	if !ok || tokens["accessToken"] == "" || tokens["accessToken"] == nil {
		t.Errorf("Expected access token in login response, got %v", data["tokens"])
	}
	userObj, ok := data["user"].(map[string]interface{})
	if !ok || userObj["role"] != "host" {
		t.Errorf("Expected user object with role, got %v", data["user"])
	}
	if _, leaked := userObj["password"]; leaked {
		t.Error("Password hash must not appear in the response")
	}

	// Wrong password
	rec = doJSON(t, r, "POST", "/api/auth/login", "", map[string]string{
		"email":    "prof.x@rvce.edu.in",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for bad password, got %d", rec.Code)
	}
	resp = decodeEnvelope(t, rec)
	if resp.Message != "Invalid credentials" {
		t.Errorf("Expected generic credentials message, got %q", resp.Message)
	}
}

func TestSignupRejectsUnknownRole(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, "POST", "/api/auth/signup", "", map[string]string{
		"name":     "Eve",
		"email":    "eve@rvce.edu.in",
		"password": "changeme123",
		"role":     "admin",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for self-service admin signup, got %d", rec.Code)
	}
}

func TestRegisterVisitor(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, "POST", "/api/visitors/register", "", registerPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["status"] != "pending" {
		t.Errorf("Expected pending status, got %v", data["status"])
	}
	if data["isApproved"] != false {
		t.Errorf("Expected isApproved false, got %v", data["isApproved"])
	}
	if data["id"] == "" || data["id"] == nil {
		t.Error("Expected assigned visit ID")
	}
}

func TestRegisterVisitorMissingFields(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, "POST", "/api/visitors/register", "", map[string]interface{}{
		"name": "Asha Rao",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Success {
		t.Error("Expected failure envelope")
	}
}

func TestQuickCheckInUnknownNumber(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, "POST", "/api/visitors/quick-checkin", "", map[string]string{
		"contactNumber": "0000000000",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Success {
		t.Error("Expected success:false")
	}
	if resp.Message != "No previous visits found. Please register as a new visitor." {
		t.Errorf("Unexpected message %q", resp.Message)
	}
}

func TestQuickCheckInReturningVisitor(t *testing.T) {
	r, _ := newTestRouter()

	if rec := doJSON(t, r, "POST", "/api/visitors/register", "", registerPayload()); rec.Code != http.StatusCreated {
		t.Fatalf("Seed registration failed: %d", rec.Code)
	}

	rec := doJSON(t, r, "POST", "/api/visitors/quick-checkin", "", map[string]string{
		"contactNumber": "9876543210",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["type"] != "quick_checkin" {
		t.Errorf("Expected quick_checkin type, got %v", data["type"])
	}
	if data["whomToMeet"] != "Prof. X" {
		t.Errorf("Expected cloned host, got %v", data["whomToMeet"])
	}
}

func TestCabEntry(t *testing.T) {
	r, _ := newTestRouter()

	payload := registerPayload()
	payload["cabProvider"] = "Ola"
	payload["driverName"] = "Ravi"
	payload["driverContact"] = "9000000000"

	rec := doJSON(t, r, "POST", "/api/visitors/cab-entry", "", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["type"] != "cab" {
		t.Errorf("Expected cab type, got %v", data["type"])
	}

	// Missing driver details must fail validation
	rec = doJSON(t, r, "POST", "/api/visitors/cab-entry", "", registerPayload())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without driver details, got %d", rec.Code)
	}
}

func TestPendingApprovalsRequiresAuth(t *testing.T) {
	r, mem := newTestRouter()

	// No token
	rec := doJSON(t, r, "GET", "/api/visitors/pending-approvals", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Success || resp.Message != "Access token is required" {
		t.Errorf("Unexpected envelope: %+v", resp)
	}

	// Garbage token
	rec = doJSON(t, r, "GET", "/api/visitors/pending-approvals", "not-a-token", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for invalid token, got %d", rec.Code)
	}

	// Wrong role
	_, secToken := seedUser(t, mem, "guard@rvce.edu.in", models.RoleSecurity)
	rec = doJSON(t, r, "GET", "/api/visitors/pending-approvals", secToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for security role, got %d", rec.Code)
	}
	resp = decodeEnvelope(t, rec)
	if resp.Message != "Insufficient permissions" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
}

func TestApprovalLifecycle(t *testing.T) {
	r, mem := newTestRouter()
	host, hostToken := seedUser(t, mem, "prof.x@rvce.edu.in", models.RoleHost)
	_, secToken := seedUser(t, mem, "guard@rvce.edu.in", models.RoleSecurity)

	rec := doJSON(t, r, "POST", "/api/visitors/register", "", registerPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("Registration failed: %d", rec.Code)
	}
	visitID := decodeEnvelope(t, rec).Data.(map[string]interface{})["id"].(string)

	// Host sees it pending
	rec = doJSON(t, r, "GET", "/api/visitors/pending-approvals", hostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending-approvals failed: %d", rec.Code)
	}
	pending := decodeEnvelope(t, rec).Data.([]interface{})
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending visit, got %d", len(pending))
	}

	// Security cannot check in before approval
	rec = doJSON(t, r, "PUT", "/api/visitors/check-in/"+visitID, secToken, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 before approval, got %d", rec.Code)
	}

	// Host approves
	rec = doJSON(t, r, "PUT", "/api/visitors/approve/"+visitID, hostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Approve failed: %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["status"] != "approved" || data["approvedBy"] != host.Email {
		t.Errorf("Unexpected approval result: %+v", data)
	}

	// Host cannot perform gate operations
	rec = doJSON(t, r, "PUT", "/api/visitors/check-in/"+visitID, hostToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for host at the gate, got %d", rec.Code)
	}

	// Security checks in, then out
	rec = doJSON(t, r, "PUT", "/api/visitors/check-in/"+visitID, secToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Check-in failed: %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, r, "PUT", "/api/visitors/check-out/"+visitID, secToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Check-out failed: %d: %s", rec.Code, rec.Body.String())
	}
	data = decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["status"] != "checked_out" || data["exitTime"] == nil {
		t.Errorf("Unexpected check-out result: %+v", data)
	}

	// Rejecting after approval is a conflict
	rec = doJSON(t, r, "PUT", "/api/visitors/reject/"+visitID, hostToken, map[string]string{"reason": "late"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 rejecting a decided visit, got %d", rec.Code)
	}
}

func TestApproveUnknownVisit(t *testing.T) {
	r, mem := newTestRouter()
	_, hostToken := seedUser(t, mem, "prof.x@rvce.edu.in", models.RoleHost)

	rec := doJSON(t, r, "PUT", "/api/visitors/approve/no-such-visit", hostToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestScanPass(t *testing.T) {
	r, mem := newTestRouter()
	_, secToken := seedUser(t, mem, "guard@rvce.edu.in", models.RoleSecurity)

	rec := doJSON(t, r, "POST", "/api/visitors/register", "", registerPayload())
	visitID := decodeEnvelope(t, rec).Data.(map[string]interface{})["id"].(string)

	// Bare-ID payload
	rec = doJSON(t, r, "POST", "/api/visitors/scan", secToken, map[string]string{"payload": visitID})
	if rec.Code != http.StatusOK {
		t.Fatalf("Scan failed: %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["id"] != visitID {
		t.Errorf("Scan resolved to %v", data["id"])
	}

	// JSON payload as printed on the pass
	rec = doJSON(t, r, "POST", "/api/visitors/scan", secToken, map[string]string{
		"payload": fmt.Sprintf(`{"id":%q}`, visitID),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("JSON scan failed: %d", rec.Code)
	}

	// Unknown pass
	rec = doJSON(t, r, "POST", "/api/visitors/scan", secToken, map[string]string{"payload": "bogus"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown pass, got %d", rec.Code)
	}
}

func TestVisitorPass(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, "POST", "/api/visitors/register", "", registerPayload())
	visitID := decodeEnvelope(t, rec).Data.(map[string]interface{})["id"].(string)

	rec = doJSON(t, r, "GET", "/api/visitors/"+visitID+"/pass", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Pass PNG failed: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("Expected PNG bytes")
	}

	rec = doJSON(t, r, "GET", "/api/visitors/"+visitID+"/pass.pdf", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Pass PDF failed: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected application/pdf, got %q", ct)
	}

	rec = doJSON(t, r, "GET", "/api/visitors/no-such-visit/pass", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown visit, got %d", rec.Code)
	}
}

func TestDashboardStats(t *testing.T) {
	r, mem := newTestRouter()
	_, token := seedUser(t, mem, "prof.x@rvce.edu.in", models.RoleHost)

	doJSON(t, r, "POST", "/api/visitors/register", "", registerPayload())
	doJSON(t, r, "POST", "/api/visitors/register", "", registerPayload())

	rec := doJSON(t, r, "GET", "/api/visitors/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Stats failed: %d", rec.Code)
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["totalVisitors"] != float64(2) {
		t.Errorf("Expected 2 total visitors, got %v", data["totalVisitors"])
	}
	if data["pendingApprovals"] != float64(2) {
		t.Errorf("Expected 2 pending, got %v", data["pendingApprovals"])
	}
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	r, mem := newTestRouter()
	host, hostToken := seedUser(t, mem, "prof.x@rvce.edu.in", models.RoleHost)
	_, secToken := seedUser(t, mem, "guard@rvce.edu.in", models.RoleSecurity)

	// Security raises a request for a walk-in
	rec := doJSON(t, r, "POST", "/api/requests", secToken, map[string]interface{}{
		"visitorName":    "Asha Rao",
		"visitorPhone":   "9876543210",
		"department":     "CSE",
		"hostId":         host.ID,
		"hostName":       "Prof. X",
		"hostEmail":      host.Email,
		"purposeOfVisit": "Meeting",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create request failed: %d: %s", rec.Code, rec.Body.String())
	}
	reqID := decodeEnvelope(t, rec).Data.(map[string]interface{})["id"].(string)

	// Hosts cannot raise requests
	rec = doJSON(t, r, "POST", "/api/requests", hostToken, map[string]interface{}{
		"visitorName": "X", "visitorPhone": "1", "hostId": host.ID,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for host creating request, got %d", rec.Code)
	}

	// Host sees it pending and got a notification
	rec = doJSON(t, r, "GET", "/api/requests/pending", hostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Pending requests failed: %d", rec.Code)
	}
	if pending := decodeEnvelope(t, rec).Data.([]interface{}); len(pending) != 1 {
		t.Fatalf("Expected 1 pending request, got %d", len(pending))
	}

	rec = doJSON(t, r, "GET", "/api/notifications", hostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Notifications failed: %d", rec.Code)
	}
	notifs := decodeEnvelope(t, rec).Data.([]interface{})
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	notifID := notifs[0].(map[string]interface{})["id"].(string)

	// Host approves the request
	rec = doJSON(t, r, "PUT", "/api/requests/"+reqID+"/approve", hostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Approve request failed: %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["status"] != "approved" {
		t.Errorf("Expected approved request, got %v", data["status"])
	}

	// Security sees the decided request in the full list
	rec = doJSON(t, r, "GET", "/api/requests", secToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("List requests failed: %d", rec.Code)
	}

	// Host marks their notification read
	rec = doJSON(t, r, "PUT", "/api/notifications/"+notifID+"/read", hostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Mark read failed: %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, r, "GET", "/api/notifications", hostToken, nil)
	notifs = decodeEnvelope(t, rec).Data.([]interface{})
	if notifs[0].(map[string]interface{})["isRead"] != true {
		t.Error("Notification not marked read")
	}
}
