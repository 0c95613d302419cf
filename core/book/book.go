package book

import (
	"time"

	"github.com/irsalhamdi/lexvault/core/catalog"
)

type Book struct {
	ID          string    `json:"id" db:"book_id"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	ISBN        string    `json:"isbn" db:"isbn"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	CoverURL    string    `json:"coverUrl" db:"cover_url"`
	ContentURL  string    `json:"-" db:"content_url"`
	Price       int       `json:"price" db:"price"`
	IsPremium   bool      `json:"isPremium" db:"is_premium"`
	IsPublished bool      `json:"-" db:"is_published"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

func (b Book) Item() catalog.Item {
	return catalog.Item{
		ID:          b.ID,
		Kind:        catalog.KindBook,
		Title:       b.Title,
		Price:       b.Price,
		IsPremium:   b.IsPremium,
		IsPublished: b.IsPublished,
	}
}

type Content struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ContentURL string `json:"contentUrl"`
}

type Filter struct {
	Category  string `query:"category"`
	Search    string `query:"search" validate:"max=200"`
	IsPremium *bool  `query:"isPremium"`
	catalog.Paging
}
