package entities

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's single rating of a book.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_reviews_user_book;not null" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_reviews_user_book;index;not null" json:"book_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book      *Book     `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}
