package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rvvm-project/campusgate/internal/database"
	"github.com/rvvm-project/campusgate/internal/models"
	"gorm.io/gorm"
)

// Gorm is the PostgreSQL-backed Store implementation.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps a database connection as a Store.
func NewGorm(db *database.DB) *Gorm {
	return &Gorm{db: db.DB}
}

// wrap translates GORM errors into the store taxonomy.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (g *Gorm) SaveUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return wrap(g.db.WithContext(ctx).Save(u).Error)
}

func (g *Gorm) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := g.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

func (g *Gorm) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

func (g *Gorm) CreateVisit(ctx context.Context, v *models.Visit) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return wrap(g.db.WithContext(ctx).Create(v).Error)
}

func (g *Gorm) GetVisit(ctx context.Context, id string) (*models.Visit, error) {
	var v models.Visit
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, wrap(err)
	}
	return &v, nil
}

func (g *Gorm) UpdateVisit(ctx context.Context, id string, fields map[string]interface{}) error {
	res := g.db.WithContext(ctx).Model(&models.Visit{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) LatestVisitByContact(ctx context.Context, contactNumber string) (*models.Visit, error) {
	var v models.Visit
	err := g.db.WithContext(ctx).
		Where("contact_number = ?", contactNumber).
		Order("created_at DESC").
		Limit(1).
		First(&v).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &v, nil
}

func (g *Gorm) VisitsCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Visit, error) {
	var visits []models.Visit
	err := g.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at DESC").
		Find(&visits).Error
	if err != nil {
		return nil, wrap(err)
	}
	return visits, nil
}

func (g *Gorm) VisitsByStatus(ctx context.Context, status models.VisitStatus) ([]models.Visit, error) {
	var visits []models.Visit
	err := g.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&visits).Error
	if err != nil {
		return nil, wrap(err)
	}
	return visits, nil
}

func (g *Gorm) CountVisits(ctx context.Context) (int64, error) {
	var n int64
	if err := g.db.WithContext(ctx).Model(&models.Visit{}).Count(&n).Error; err != nil {
		return 0, wrap(err)
	}
	return n, nil
}

func (g *Gorm) CountVisitsByStatus(ctx context.Context, status models.VisitStatus) (int64, error) {
	var n int64
	err := g.db.WithContext(ctx).Model(&models.Visit{}).Where("status = ?", status).Count(&n).Error
	if err != nil {
		return 0, wrap(err)
	}
	return n, nil
}

func (g *Gorm) CreateRequest(ctx context.Context, r *models.VisitorRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return wrap(g.db.WithContext(ctx).Create(r).Error)
}

func (g *Gorm) GetRequest(ctx context.Context, id string) (*models.VisitorRequest, error) {
	var r models.VisitorRequest
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, wrap(err)
	}
	return &r, nil
}

func (g *Gorm) UpdateRequest(ctx context.Context, id string, fields map[string]interface{}) error {
	res := g.db.WithContext(ctx).Model(&models.VisitorRequest{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) RequestsForHost(ctx context.Context, hostID string, status models.RequestStatus) ([]models.VisitorRequest, error) {
	var reqs []models.VisitorRequest
	err := g.db.WithContext(ctx).
		Where("host_id = ? AND status = ?", hostID, status).
		Order("requested_time DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, wrap(err)
	}
	return reqs, nil
}

func (g *Gorm) ListRequests(ctx context.Context) ([]models.VisitorRequest, error) {
	var reqs []models.VisitorRequest
	err := g.db.WithContext(ctx).Order("requested_time DESC").Find(&reqs).Error
	if err != nil {
		return nil, wrap(err)
	}
	return reqs, nil
}

func (g *Gorm) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return wrap(g.db.WithContext(ctx).Create(n).Error)
}

func (g *Gorm) NotificationsForRecipient(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifs []models.Notification
	err := g.db.WithContext(ctx).
		Where(`"to" = ?`, userID).
		Order("timestamp DESC").
		Find(&notifs).Error
	if err != nil {
		return nil, wrap(err)
	}
	return notifs, nil
}

func (g *Gorm) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	res := g.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
