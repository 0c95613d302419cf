// Package catalog holds what the case-file and book catalogs share: the item
// kinds, the read-only view other packages consume and the paging contract of
// the list endpoints.
package catalog

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindBook     Kind = "book"
	KindCaseFile Kind = "case_file"
)

var ErrNotFound = errors.New("catalog item not found")

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBook, KindCaseFile:
		return k, nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// Path is the URL segment the kind's endpoints are mounted under.
func (k Kind) Path() string {
	switch k {
	case KindBook:
		return "books"
	case KindCaseFile:
		return "case-files"
	}
	return string(k)
}

// Item is the subset of a catalog row the cart and entitlement logic consume.
type Item struct {
	ID          string
	Kind        Kind
	Title       string
	Price       int
	IsPremium   bool
	IsPublished bool
}

// PurchaseURL is where a user without an entitlement is sent to buy the item.
func (it Item) PurchaseURL() string {
	return "/" + it.Kind.Path() + "/" + it.ID + "/purchase"
}
