package model

import "time"

// Company mirrors a row of the `empresas` table.
type Company struct {
	ID        int64     `json:"companyId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatorID int64     `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCompany is the input for company creation.
type NewCompany struct {
	Name  string
	Email string
	Phone string
}

// CompanyPatch is a partial update; nil fields keep their stored value.
type CompanyPatch struct {
	Name  *string
	Email *string
	Phone *string
}
