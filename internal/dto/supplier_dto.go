package dto

type SupplierContactRequest struct {
	Name  string  `json:"name" validate:"required"`
	Role  *string `json:"role"`
	Phone *string `json:"phone"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type CreateSupplierRequest struct {
	Name         string                   `json:"name" validate:"required,min=2,max=120"`
	TaxID        *string                  `json:"tax_id"`
	Phone        *string                  `json:"phone"`
	Email        *string                  `json:"email" validate:"omitempty,email"`
	Address      *string                  `json:"address"`
	PaymentTerms string                   `json:"payment_terms" validate:"omitempty,oneof=cash net_15 net_30"`
	Contacts     []SupplierContactRequest `json:"contacts" validate:"dive"`
}

type SupplierContactResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Role  *string `json:"role,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

type SupplierResponse struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	TaxID        *string                   `json:"tax_id,omitempty"`
	Phone        *string                   `json:"phone,omitempty"`
	Email        *string                   `json:"email,omitempty"`
	Address      *string                   `json:"address,omitempty"`
	PaymentTerms string                    `json:"payment_terms"`
	Active       bool                      `json:"active"`
	Contacts     []SupplierContactResponse `json:"contacts,omitempty"`
}
