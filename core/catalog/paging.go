package catalog

import (
	"net/http"
	"strings"

	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/validate"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
)

type Paging struct {
	Page  int `query:"page" validate:"gte=1"`
	Limit int `query:"limit" validate:"gte=1,lte=100"`
}

func (p Paging) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePaging reads page and limit, defaulting the ones the client left out.
func ParsePaging(r *http.Request) (Paging, error) {
	var p Paging
	var err error

	if p.Page, err = web.QueryInt(r, "page", DefaultPage); err != nil {
		return Paging{}, err
	}
	if p.Limit, err = web.QueryInt(r, "limit", DefaultLimit); err != nil {
		return Paging{}, err
	}

	if err := validate.Check(p); err != nil {
		return Paging{}, err
	}
	return p, nil
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(p Paging, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains turns free text into an ILIKE pattern matching it anywhere.
func Contains(search string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(search)) + "%"
}
