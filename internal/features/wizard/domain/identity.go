package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ShippingProfile is where the order is delivered. All fields are required
// before submission.
type ShippingProfile struct {
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	Department string `json:"department" validate:"required"`
	City       string `json:"city" validate:"required"`
}

// Empty reports whether no shipping field was filled in yet.
func (p ShippingProfile) Empty() bool {
	return p.Phone == "" && p.Address == "" && p.Department == "" && p.City == ""
}

// Validate checks that every field is present.
func (p ShippingProfile) Validate() error {
	return validationError(validate.Struct(p))
}

// WithDepartment changes the department. A different department clears the
// city, which belongs to the previous department.
func (p ShippingProfile) WithDepartment(dep string) ShippingProfile {
	if dep != p.Department {
		p.City = ""
	}
	p.Department = dep
	return p
}

// Identity is the signed-in customer as known to the bakery backend.
type Identity struct {
	ID        string          `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Role      string          `json:"role,omitempty"`
	Shipping  ShippingProfile `json:"shipping"`
}

// RegisterProfile is the sign-up form.
type RegisterProfile struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Phone           string `json:"phone" validate:"required"`
	Address         string `json:"address" validate:"required"`
	Department      string `json:"department" validate:"required"`
	City            string `json:"city" validate:"required"`
}

// Validate checks the sign-up form.
func (p RegisterProfile) Validate() error {
	return validationError(validate.Struct(p))
}

// SplitName splits the full name into first name and the remaining last name.
// The backend requires a non-empty last name, so a single word yields " ".
func (p RegisterProfile) SplitName() (first, last string) {
	parts := strings.Fields(p.Name)
	if len(parts) == 0 {
		return "", " "
	}
	first = parts[0]
	last = strings.Join(parts[1:], " ")
	if last == "" {
		last = " "
	}
	return first, last
}

// Shipping returns the shipping part of the sign-up form.
func (p RegisterProfile) Shipping() ShippingProfile {
	return ShippingProfile{Phone: p.Phone, Address: p.Address, Department: p.Department, City: p.City}
}

// Credentials are returned by the auth gate after a successful sign-in or sign-up.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
}
