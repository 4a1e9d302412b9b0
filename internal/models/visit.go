package models

import (
	"time"
)

// VisitStatus defines the lifecycle state of a visit
type VisitStatus string

const (
	VisitStatusPending    VisitStatus = "pending"     // Awaiting host decision
	VisitStatusApproved   VisitStatus = "approved"    // Host approved, not yet at the gate
	VisitStatusRejected   VisitStatus = "rejected"    // Host rejected (terminal)
	VisitStatusCheckedIn  VisitStatus = "checked_in"  // On campus
	VisitStatusCheckedOut VisitStatus = "checked_out" // Left campus (terminal)
)

// VisitType defines how the visit was initiated
type VisitType string

const (
	VisitTypeRegistration VisitType = "registration"  // Full self-service form
	VisitTypeQuickCheckin VisitType = "quick_checkin" // Phone-number re-registration
	VisitTypeCab          VisitType = "cab"           // Cab/driver gate entry
)

// Visit is the central record of one person entering (or attempting to enter)
// the campus, tracked from registration through exit. Visits are never deleted;
// the collection is the audit trail.
//
// Field names are part of the persisted schema and the HTTP contract; clients
// depend on the camelCase JSON names below.
type Visit struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name             string    `gorm:"not null" json:"name"`
	ContactNumber    string    `gorm:"not null;index" json:"contactNumber"`
	Email            string    `json:"email,omitempty"`
	Department       string    `gorm:"not null" json:"department"`
	WhomToMeet       string    `gorm:"not null" json:"whomToMeet"`
	WhomToMeetEmail  string    `gorm:"index" json:"whomToMeetEmail"`
	PurposeOfVisit   string    `gorm:"not null" json:"purposeOfVisit"`
	NumberOfVisitors int       `json:"numberOfVisitors,omitempty"`
	VehicleNumber    string    `json:"vehicleNumber,omitempty"`
	DocumentType     string    `json:"documentType,omitempty"`
	Address          string    `json:"address,omitempty"`
	Remarks          string    `json:"remarks,omitempty"`
	PhotoURL         string    `json:"photoUrl,omitempty"`
	DocumentURL      string    `json:"documentUrl,omitempty"`

	// Cab specific fields
	CabProvider   string `json:"cabProvider,omitempty"`
	DriverName    string `json:"driverName,omitempty"`
	DriverContact string `json:"driverContact,omitempty"`

	Status VisitStatus `gorm:"not null;index;default:'pending'" json:"status"`
	Type   VisitType   `gorm:"not null;default:'registration'" json:"type"`

	IsApproved      bool       `gorm:"default:false" json:"isApproved"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CheckedInBy     string     `json:"checkedInBy,omitempty"`
	CheckedOutBy    string     `json:"checkedOutBy,omitempty"`

	EntryTime time.Time  `gorm:"not null" json:"entryTime"`
	ExitTime  *time.Time `json:"exitTime,omitempty"`

	SendNotification   bool       `json:"sendNotification,omitempty"`
	NotificationSent   bool       `gorm:"default:false" json:"notificationSent"`
	NotificationSentAt *time.Time `json:"notificationSentAt,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Visit model
func (Visit) TableName() string {
	return "visits"
}

// Terminal reports whether no further transition is allowed from s.
func (s VisitStatus) Terminal() bool {
	return s == VisitStatusRejected || s == VisitStatusCheckedOut
}
