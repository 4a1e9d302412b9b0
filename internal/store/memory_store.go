package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rvvm-project/campusgate/internal/models"
)

// Memory is an in-process Store used when no PostgreSQL is configured and in
// tests. Each instance is seeded per process/test; there is no ambient global
// state.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	emails   map[string]string // email -> user ID
	visits   map[string]*models.Visit
	requests map[string]*models.VisitorRequest
	notifs   map[string]*models.Notification
}

// NewMemory initializes an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*models.User),
		emails:   make(map[string]string),
		visits:   make(map[string]*models.Visit),
		requests: make(map[string]*models.VisitorRequest),
		notifs:   make(map[string]*models.Notification),
	}
}

func (m *Memory) SaveUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	m.emails[u.Email] = u.ID
	return nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateVisit(_ context.Context, v *models.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	v.UpdatedAt = v.CreatedAt
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *Memory) GetVisit(_ context.Context, id string) (*models.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *Memory) UpdateVisit(_ context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return ErrNotFound
	}
	applyVisitFields(v, fields)
	v.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) LatestVisitByContact(_ context.Context, contactNumber string) (*models.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.Visit
	for _, v := range m.visits {
		if v.ContactNumber != contactNumber {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *Memory) VisitsCreatedBetween(_ context.Context, from, to time.Time) ([]models.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.Visit
	for _, v := range m.visits {
		if !v.CreatedAt.Before(from) && v.CreatedAt.Before(to) {
			res = append(res, *v)
		}
	}
	sortVisitsDesc(res)
	return res, nil
}

func (m *Memory) VisitsByStatus(_ context.Context, status models.VisitStatus) ([]models.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.Visit
	for _, v := range m.visits {
		if v.Status == status {
			res = append(res, *v)
		}
	}
	sortVisitsDesc(res)
	return res, nil
}

func (m *Memory) CountVisits(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.visits)), nil
}

func (m *Memory) CountVisitsByStatus(_ context.Context, status models.VisitStatus) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, v := range m.visits {
		if v.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CreateRequest(_ context.Context, r *models.VisitorRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*models.VisitorRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) UpdateRequest(_ context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	applyRequestFields(r, fields)
	r.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) RequestsForHost(_ context.Context, hostID string, status models.RequestStatus) ([]models.VisitorRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.VisitorRequest
	for _, r := range m.requests {
		if r.HostID == hostID && r.Status == status {
			res = append(res, *r)
		}
	}
	sortRequestsDesc(res)
	return res, nil
}

func (m *Memory) ListRequests(_ context.Context) ([]models.VisitorRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]models.VisitorRequest, 0, len(m.requests))
	for _, r := range m.requests {
		res = append(res, *r)
	}
	sortRequestsDesc(res)
	return res, nil
}

func (m *Memory) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	cp := *n
	m.notifs[n.ID] = &cp
	return nil
}

func (m *Memory) NotificationsForRecipient(_ context.Context, userID string) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.Notification
	for _, n := range m.notifs {
		if n.To == userID {
			res = append(res, *n)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Timestamp.After(res[j].Timestamp) })
	return res, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifs[id]
	if !ok {
		return ErrNotFound
	}
	n.IsRead = true
	n.ReadAt = &at
	return nil
}

func sortVisitsDesc(visits []models.Visit) {
	sort.Slice(visits, func(i, j int) bool { return visits[i].CreatedAt.After(visits[j].CreatedAt) })
}

func sortRequestsDesc(reqs []models.VisitorRequest) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].RequestedTime.After(reqs[j].RequestedTime) })
}

// applyVisitFields mirrors the partial column updates the gorm implementation
// performs. Keys are the snake_case column names.
func applyVisitFields(v *models.Visit, fields map[string]interface{}) {
	for k, val := range fields {
		switch k {
		case "status":
			if s, ok := val.(models.VisitStatus); ok {
				v.Status = s
			}
		case "is_approved":
			if b, ok := val.(bool); ok {
				v.IsApproved = b
			}
		case "approved_by":
			if s, ok := val.(string); ok {
				v.ApprovedBy = s
			}
		case "approved_at":
			if t, ok := val.(time.Time); ok {
				v.ApprovedAt = &t
			}
		case "rejection_reason":
			if s, ok := val.(string); ok {
				v.RejectionReason = s
			}
		case "checked_in_by":
			if s, ok := val.(string); ok {
				v.CheckedInBy = s
			}
		case "checked_out_by":
			if s, ok := val.(string); ok {
				v.CheckedOutBy = s
			}
		case "entry_time":
			if t, ok := val.(time.Time); ok {
				v.EntryTime = t
			}
		case "exit_time":
			if t, ok := val.(time.Time); ok {
				v.ExitTime = &t
			}
		case "notification_sent":
			if b, ok := val.(bool); ok {
				v.NotificationSent = b
			}
		case "notification_sent_at":
			if t, ok := val.(time.Time); ok {
				v.NotificationSentAt = &t
			}
		}
	}
}

func applyRequestFields(r *models.VisitorRequest, fields map[string]interface{}) {
	for k, val := range fields {
		switch k {
		case "status":
			if s, ok := val.(models.RequestStatus); ok {
				r.Status = s
			}
		case "approval_time":
			if t, ok := val.(time.Time); ok {
				r.ApprovalTime = &t
			}
		case "rejection_reason":
			if s, ok := val.(string); ok {
				r.RejectionReason = s
			}
		}
	}
}
