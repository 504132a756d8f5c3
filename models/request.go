// models/request.go
package models

import "time"

const RequestTable = "lsb_requests"
const RequestItemTable = "lsb_request_items"

// Status is the lifecycle state of a Request. The set is closed.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusReserved  Status = "reserved"
	StatusReturned  Status = "returned"
	StatusCancelled Status = "cancelled"
)

var Statuses = []Status{StatusDraft, StatusPending, StatusReserved, StatusReturned, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusReserved, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool { return s == StatusReturned || s == StatusCancelled }

func (s Status) String() string { return string(s) }

// Request is the aggregate root of the lifecycle. A draft request is the user's cart.
type Request struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Reference string `gorm:"size:26;uniqueIndex;not null" json:"reference"`
	UserID    uint   `gorm:"index;not null" json:"userId"`
	User      *User  `json:"user,omitempty"`
	Status    Status `gorm:"size:20;not null;default:'draft';index" json:"status"`

	RequestedAt *time.Time `gorm:"index" json:"requestedAt,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ReturnedAt  *time.Time `json:"returnedAt,omitempty"`

	Items []RequestItem `json:"items"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RequestItem is one material line of a Request.
type RequestItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RequestID     uint      `gorm:"index;not null" json:"requestId"`
	Request       *Request  `json:"-"`
	MaterialID    uint      `gorm:"index;not null" json:"materialId"`
	Material      *Material `json:"material,omitempty"`
	Quantity      int       `gorm:"not null;check:quantity >= 1" json:"quantity"`
	RequestedDays int       `gorm:"not null;default:1" json:"requestedDays"`

	DueDate    *time.Time `gorm:"index" json:"dueDate,omitempty"`
	ReservedAt *time.Time `json:"reservedAt,omitempty"`
	Returned   bool       `gorm:"not null;default:false" json:"returned"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Request) TableName() string     { return RequestTable }
func (RequestItem) TableName() string { return RequestItemTable }

// ItemFor returns the line for materialID, or nil.
func (r *Request) ItemFor(materialID uint) *RequestItem {
	for i := range r.Items {
		if r.Items[i].MaterialID == materialID {
			return &r.Items[i]
		}
	}
	return nil
}

func (r *Request) IsEmpty() bool { return len(r.Items) == 0 }
