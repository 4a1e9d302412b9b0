package models

import (
	"time"
)

// RequestStatus defines the host-decision state of a visitor request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// VisitorRequest is the security-initiated view of a Visit: when a walk-in
// visitor has no prior registration, security raises a request on their behalf
// and the named host decides it. Each request is paired 1:1 with a Visit.
type VisitorRequest struct {
	ID               string `gorm:"primaryKey;type:uuid" json:"id"`
	VisitID          string `gorm:"index;not null" json:"visitId"`
	VisitorName      string `gorm:"not null" json:"visitorName"`
	VisitorPhone     string `gorm:"not null" json:"visitorPhone"`
	VisitorEmail     string `json:"visitorEmail,omitempty"`
	Department       string `json:"department"`
	HostID           string `gorm:"index;not null" json:"hostId"`
	HostName         string `json:"hostName"`
	HostEmail        string `json:"hostEmail"`
	PurposeOfVisit   string `json:"purposeOfVisit"`
	NumberOfVisitors int    `json:"numberOfVisitors,omitempty"`
	VehicleNumber    string `json:"vehicleNumber,omitempty"`

	Status          RequestStatus `gorm:"not null;index;default:'pending'" json:"status"`
	RequestedTime   time.Time     `gorm:"not null" json:"requestedTime"`
	ApprovalTime    *time.Time    `json:"approvalTime,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`

	// Security officer who created the request
	CreatedBy     string `json:"createdBy"`
	SecurityNotes string `json:"securityNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for VisitorRequest model
func (VisitorRequest) TableName() string {
	return "visitor_requests"
}
