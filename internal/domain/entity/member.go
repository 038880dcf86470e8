package entity

import "time"

type Member struct {
	ID           string    `json:"id" firestore:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string    `json:"email" firestore:"email" gorm:"uniqueIndex;size:255;not null"`
	Nickname     string    `json:"nickname" firestore:"nickname" gorm:"uniqueIndex;size:64;not null"`
	ProfileURL   string    `json:"profile_url" firestore:"profileUrl" gorm:"size:512"`
	PasswordHash string    `json:"-" firestore:"passwordHash" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" firestore:"updatedAt"`
}
