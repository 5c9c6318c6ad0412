package model

import "github.com/shopspring/decimal"

// Product is a row of `productos` joined with its category name.  JSON
// names follow the public product contract.
type Product struct {
	ID          int64           `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	SKU         string          `json:"sku"`
	Stock       int             `json:"stock"`
}

// NewProduct is the input for product creation.  CompanyID always comes
// from the caller's token.
type NewProduct struct {
	Name        string
	Description string
	SKU         string
	Stock       int
	CategoryID  int64
	Price       decimal.Decimal
	CompanyID   int64
}

// ProductPatch is a partial update; nil fields keep their stored value.
type ProductPatch struct {
	Name        *string
	Description *string
	SKU         *string
	Stock       *int
	CategoryID  *int64
	Price       *decimal.Decimal
}

// ProductQuery drives listing and search.
type ProductQuery struct {
	Limit  int
	Page   int
	Filter string
	Search string
}

// Offset of the first row for the requested page.
func (q ProductQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return q.Limit * (q.Page - 1)
}

// ProductPage is one page of products plus the total matching count.
type ProductPage struct {
	Total    int64     `json:"total"`
	Products []Product `json:"products"`
}
