package entities

import (
	"time"
)

type Book struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"index;size:150;not null" json:"title"`
	Author      string     `gorm:"index;size:150" json:"author,omitempty"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	CoverURL    string     `gorm:"size:250" json:"cover_url,omitempty"`
	Chapters    []Chapter  `gorm:"foreignKey:BookID" json:"chapters,omitempty"`
	Categories  []Category `gorm:"many2many:book_categories;" json:"categories,omitempty"`
	Tags        []Tag      `gorm:"many2many:book_tags;" json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Chapter belongs to exactly one book and is destroyed with it.
// Position is optional; unnumbered chapters sort before numbered ones.
type Chapter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"index;not null" json:"book_id"`
	Title     string    `gorm:"size:150;not null" json:"title"`
	Position  *int      `gorm:"index" json:"position,omitempty"`
	AudioURL  string    `gorm:"size:250;not null" json:"audio_url"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Books     []Book    `gorm:"many2many:book_categories;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Books     []Book    `gorm:"many2many:book_tags;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

func (Chapter) TableName() string {
	return "chapters"
}

func (Category) TableName() string {
	return "categories"
}

func (Tag) TableName() string {
	return "tags"
}

// Join table names for the many-to-many associations.
const (
	BookCategoriesTable = "book_categories"
	BookTagsTable       = "book_tags"
)
