package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Learner struct {
	ID           string    `gorm:"primaryKey;size:36;not null" json:"id"`
	FirstName    string    `gorm:"size:64;not null" json:"firstName"`
	LastName     string    `gorm:"size:64;not null" json:"lastName"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:72;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Administrator lives in its own table so its ids never collide with learner ids.
type Administrator struct {
	ID           string    `gorm:"primaryKey;size:36;not null" json:"id"`
	FirstName    string    `gorm:"size:64;not null" json:"firstName"`
	LastName     string    `gorm:"size:64;not null" json:"lastName"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:72;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Image struct {
	PublicID string `gorm:"size:128" json:"public_id"`
	URL      string `gorm:"size:512" json:"url"`
}

type Course struct {
	ID          string          `gorm:"primaryKey;size:36;not null" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"` // major units, e.g. 50.00
	Image       Image           `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	CreatorID   string          `gorm:"size:36;index;not null" json:"creatorId"` // FK -> administrators.id
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Purchase is the entitlement row. At most one per (learner, course).
type Purchase struct {
	ID        uint      `gorm:"primaryKey" json:"-"` // insertion order
	LearnerID string    `gorm:"size:36;not null;uniqueIndex:idx_purchase_learner_course,priority:1" json:"userId"`
	CourseID  string    `gorm:"size:36;not null;uniqueIndex:idx_purchase_learner_course,priority:2;index" json:"courseId"`
	PaymentID string    `gorm:"size:128;not null;uniqueIndex:idx_purchase_payment" json:"paymentId"` // one entitlement per payment
	Amount    int64     `gorm:"not null" json:"amount"`    // minor units
	Currency  string    `gorm:"size:8;not null" json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}
