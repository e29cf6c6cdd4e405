package models

import "time"

// FirstChestNumber is assigned to the first registered participant.
const FirstChestNumber int64 = 1000

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
)

// Payment represents a provider payment whose signature has been checked
type Payment struct {
	OrderID   string    `db:"order_id" bson:"orderId" json:"orderId"`
	PaymentID string    `db:"payment_id" bson:"paymentId" json:"paymentId"`
	Status    string    `db:"status" bson:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
}

// IsVerified reports whether the payment may back a registration
func (p *Payment) IsVerified() bool {
	return p != nil && p.Status == PaymentStatusSuccess
}

// Participant represents a registered runner
type Participant struct {
	Name        string    `db:"name" bson:"name" json:"name"`
	Email       string    `db:"email" bson:"email" json:"email"`
	Phone       string    `db:"phone" bson:"phone" json:"phone"`
	Age         string    `db:"age" bson:"age" json:"age"`
	Gender      string    `db:"gender" bson:"gender" json:"gender"`
	Category    string    `db:"category" bson:"category" json:"category"`
	PaymentID   string    `db:"payment_id" bson:"paymentId" json:"paymentId"`
	ChestNumber int64     `db:"chest_number" bson:"chestNumber" json:"chestNumber"`
	CreatedAt   time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
}

// CheckoutOrder is an order created with the payment provider for the widget
type CheckoutOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}
