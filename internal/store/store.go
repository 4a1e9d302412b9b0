package store

import (
	"context"
	"errors"
	"time"

	"github.com/rvvm-project/campusgate/internal/models"
)

var (
	// ErrNotFound is returned when the targeted document does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrUnavailable is returned when the datastore is unreachable or the
	// operation timed out.
	ErrUnavailable = errors.New("store: datastore unavailable")
)

// Store defines persistence operations for users, visits, visitor requests
// and notifications. Every write targets exactly one record; there is no
// multi-record transaction discipline, and concurrent writers resolve by
// last-write-wins. Implementations assign a fresh UUID when a record is
// created with an empty ID.
type Store interface {
	// users
	SaveUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// visits
	CreateVisit(ctx context.Context, v *models.Visit) error
	GetVisit(ctx context.Context, id string) (*models.Visit, error)
	UpdateVisit(ctx context.Context, id string, fields map[string]interface{}) error
	LatestVisitByContact(ctx context.Context, contactNumber string) (*models.Visit, error)
	VisitsCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Visit, error)
	VisitsByStatus(ctx context.Context, status models.VisitStatus) ([]models.Visit, error)
	CountVisits(ctx context.Context) (int64, error)
	CountVisitsByStatus(ctx context.Context, status models.VisitStatus) (int64, error)

	// visitor requests
	CreateRequest(ctx context.Context, r *models.VisitorRequest) error
	GetRequest(ctx context.Context, id string) (*models.VisitorRequest, error)
	UpdateRequest(ctx context.Context, id string, fields map[string]interface{}) error
	RequestsForHost(ctx context.Context, hostID string, status models.RequestStatus) ([]models.VisitorRequest, error)
	ListRequests(ctx context.Context) ([]models.VisitorRequest, error)

	// notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	NotificationsForRecipient(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
}
