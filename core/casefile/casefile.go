package casefile

import (
	"time"

	"github.com/irsalhamdi/lexvault/core/catalog"
)

type CaseFile struct {
	ID          string    `json:"id" db:"case_file_id"`
	Title       string    `json:"title" db:"title"`
	CaseNumber  string    `json:"caseNumber" db:"case_number"`
	Court       string    `json:"court" db:"court"`
	Year        int       `json:"year" db:"year"`
	Category    string    `json:"category" db:"category"`
	Summary     string    `json:"summary" db:"summary"`
	DocumentURL string    `json:"-" db:"document_url"`
	Price       int       `json:"price" db:"price"`
	IsPremium   bool      `json:"isPremium" db:"is_premium"`
	IsPublished bool      `json:"-" db:"is_published"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

func (c CaseFile) Item() catalog.Item {
	return catalog.Item{
		ID:          c.ID,
		Kind:        catalog.KindCaseFile,
		Title:       c.Title,
		Price:       c.Price,
		IsPremium:   c.IsPremium,
		IsPublished: c.IsPublished,
	}
}

// Content is what the protected reader receives once access is granted.
type Content struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DocumentURL string `json:"documentUrl"`
}

type Filter struct {
	Category  string `query:"category"`
	Court     string `query:"court"`
	Year      int    `query:"year" validate:"omitempty,gte=1800,lte=2200"`
	Search    string `query:"search" validate:"max=200"`
	IsPremium *bool  `query:"isPremium"`
	catalog.Paging
}
