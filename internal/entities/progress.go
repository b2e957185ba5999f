package entities

import "time"

type ListeningStatus string

const (
	StatusSaved            ListeningStatus = "saved"
	StatusCurrentlyReading ListeningStatus = "currently_reading"
	StatusFinished         ListeningStatus = "finished"
)

// UserBook is a user's listening state for one book.
// There is at most one row per (user, book) pair.
type UserBook struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"uniqueIndex:idx_user_books_user_book;not null" json:"user_id"`
	BookID           uint            `gorm:"uniqueIndex:idx_user_books_user_book;index;not null" json:"book_id"`
	Status           ListeningStatus `gorm:"index;size:50;not null;default:'saved'" json:"status"`
	Position         float64         `gorm:"not null;default:0" json:"position"`
	CurrentChapterID *uint           `json:"current_chapter_id,omitempty"`
	User             *User           `gorm:"foreignKey:UserID" json:"-"`
	Book             *Book           `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (UserBook) TableName() string {
	return "user_books"
}
