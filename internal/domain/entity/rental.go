package entity

import "time"

// Rental is a listing owned by exactly one member.
type Rental struct {
	ID        string    `json:"id" firestore:"id" gorm:"primaryKey;type:varchar(36)"`
	MemberID  string    `json:"member_id" firestore:"memberId" gorm:"type:varchar(36);not null;index"`
	Title     string    `json:"title" firestore:"title" gorm:"size:255;not null"`
	Content   string    `json:"content" firestore:"content" gorm:"type:text"`
	Category  string    `json:"category" firestore:"category" gorm:"size:64;index"`
	RentalFee int64     `json:"rental_fee" firestore:"rentalFee"`
	Deposit   int64     `json:"deposit" firestore:"deposit"`
	Latitude  float64   `json:"latitude" firestore:"latitude"`
	Longitude float64   `json:"longitude" firestore:"longitude"`
	District  string    `json:"district" firestore:"district" gorm:"size:128"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (r *Rental) IsOwnedBy(memberID string) bool {
	return r.MemberID == memberID
}
