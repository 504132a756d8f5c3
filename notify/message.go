// Package notify delivers order-placed notifications for professors.
package notify

import (
	"time"

	"material_lending/lending"
)

// Message is the wire form of lending.OrderPlaced shared by every notifier.
type Message struct {
	Event       string     `json:"event"`
	RequestID   uint       `json:"requestId"`
	Reference   string     `json:"reference"`
	Student     string     `json:"student"`
	Email       string     `json:"email"`
	RequestedAt *time.Time `json:"requestedAt,omitempty"`
	Items       []Line     `json:"items"`
	Recipients  []string   `json:"recipients"`
}

type Line struct {
	Material string     `json:"material"`
	Category string     `json:"category"`
	Quantity int        `json:"quantity"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

const EventOrderPlaced = "order_placed"

func NewMessage(n lending.OrderPlaced) Message {
	r := n.Request
	msg := Message{
		Event:       EventOrderPlaced,
		RequestID:   r.ID,
		Reference:   r.Reference,
		RequestedAt: r.RequestedAt,
		Recipients:  n.Recipients,
		Items:       make([]Line, 0, len(r.Items)),
	}
	if r.User != nil {
		msg.Student, msg.Email = r.User.Name, r.User.Email
	}
	for _, it := range r.Items {
		l := Line{Quantity: it.Quantity, DueDate: it.DueDate}
		if it.Material != nil {
			l.Material = it.Material.Name
			if it.Material.Category != nil {
				l.Category = it.Material.Category.Name
			}
		}
		msg.Items = append(msg.Items, l)
	}
	return msg
}

// TotalQuantity sums the quantities of all lines.
func (m Message) TotalQuantity() int {
	n := 0
	for _, l := range m.Items {
		n += l.Quantity
	}
	return n
}
