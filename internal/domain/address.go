package domain

import (
	"fmt"
	"strings"

	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

// Address is a delivery address. Street, neighborhood, city and state come
// from the postal lookup; number and complement are typed by the customer.
type Address struct {
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
}

// Validate reports the missing required fields, if any.
func (a Address) Validate() error {
	return validator.Validate(a)
}

// Compose renders the address as the single line the order service stores:
// "{street}, {number} - {complement}, {neighborhood}, {city} - {state}".
func (a Address) Compose() string {
	return fmt.Sprintf("%s, %s - %s, %s, %s - %s",
		a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State)
}

// ResolvedAddress is what a postal lookup returns.
type ResolvedAddress struct {
	Street       string
	Neighborhood string
	City         string
	State        string
}

// AddressForm is the checkout form: the last successfully resolved postal
// code plus the customer-typed fields.
type AddressForm struct {
	PostalCode string
	Address    Address
	Resolved   bool
}

// Apply copies the looked-up fields into the form.
func (f *AddressForm) Apply(postalCode string, r ResolvedAddress) {
	f.PostalCode = postalCode
	f.Address.Street = r.Street
	f.Address.Neighborhood = r.Neighborhood
	f.Address.City = r.City
	f.Address.State = r.State
	f.Resolved = true
}

// IsPostalCode reports whether s is exactly eight ASCII digits.
func IsPostalCode(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CleanPostalCode strips the usual "01001-000" punctuation so typed input
// can be checked with IsPostalCode.
func CleanPostalCode(s string) string {
	if cleaned := validator.NormalizePostalCode(s); cleaned != "" {
		return cleaned
	}
	return strings.TrimSpace(s)
}
