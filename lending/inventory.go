package lending

import (
	"time"

	"material_lending/models"
)

// countsAsBorrowed: the parent request is committed (pending or reserved) and the
// line has not been handed back. Drafts and cancelled/returned requests never count.
func countsAsBorrowed(it models.RequestItem, status models.Status) bool {
	if it.Returned {
		return false
	}
	return status == models.StatusPending || status == models.StatusReserved
}

// BorrowedQuantity sums the active lines of m. Each line must carry its Request.
func BorrowedQuantity(m *models.Material) int {
	n := 0
	for _, it := range m.RequestItems {
		if it.Request == nil {
			continue
		}
		if countsAsBorrowed(it, it.Request.Status) {
			n += it.Quantity
		}
	}
	return n
}

func AvailableQuantity(m *models.Material) int {
	return m.Quantity - BorrowedQuantity(m)
}

func IsAvailable(m *models.Material) bool {
	return AvailableQuantity(m) > 0
}

// CartHeadroom is how many more units of m the owner of cart may still add.
func CartHeadroom(m *models.Material, cart *models.Request) int {
	n := AvailableQuantity(m)
	if cart != nil {
		if it := cart.ItemFor(m.ID); it != nil {
			n -= it.Quantity
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// IsBorrowed reports whether the line is out of the draft and not returned.
// Accounting uses the stricter pending/reserved rule in BorrowedQuantity.
func IsBorrowed(it *models.RequestItem, status models.Status) bool {
	return !it.Returned && status != models.StatusDraft
}

func IsOverdue(it *models.RequestItem, now time.Time) bool {
	if it.Returned || it.DueDate == nil {
		return false
	}
	return now.After(*it.DueDate)
}

// MaterialView is a Material with its derived quantities resolved.
type MaterialView struct {
	models.Material
	BorrowedQuantity  int  `json:"borrowedQuantity"`
	AvailableQuantity int  `json:"availableQuantity"`
	IsAvailable       bool `json:"isAvailable"`
	CartHeadroom      int  `json:"cartHeadroom"`
}

func NewMaterialView(m *models.Material, cart *models.Request) MaterialView {
	borrowed := BorrowedQuantity(m)
	return MaterialView{
		Material:          *m,
		BorrowedQuantity:  borrowed,
		AvailableQuantity: m.Quantity - borrowed,
		IsAvailable:       m.Quantity-borrowed > 0,
		CartHeadroom:      CartHeadroom(m, cart),
	}
}
