package session

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region used to parse national-format phone
// numbers during registration.
var DefaultPhoneRegion = "IN"

// RegisterInput is the sign-up payload. Phone, locality, location and
// coordinates are optional; everything travels to the backend as session
// metadata so the resolver's fallback path can use it before the profile row
// exists.
type RegisterInput struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     Role   `form:"role" json:"role"`

	Phone     string  `form:"phone" json:"phone"`
	Locality  string  `form:"locality" json:"locality"`
	Location  string  `form:"location" json:"location"`
	Latitude  float64 `form:"latitude" json:"latitude"`
	Longitude float64 `form:"longitude" json:"longitude"`

	// PhoneRegion overrides DefaultPhoneRegion for parsing.
	PhoneRegion string `form:"-" json:"-"`
}

// Validate runs validation rules over the payload.
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required,
			validation.Length(1, 120),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 128),
		),
		validation.Field(
			&r.Role,
			validation.Required,
			validation.By(checkRole),
		),
		validation.Field(
			&r.Phone,
			validation.By(r.checkPhone),
		),
	)
}

func checkRole(value any) error {
	role, _ := value.(string)
	if !IsValidRole(role) {
		return goerrors.New("unknown role", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"role": role})
	}
	return nil
}

func (r RegisterInput) checkPhone(value any) error {
	phone, _ := value.(string)
	if phone == "" {
		return nil
	}
	if _, err := r.normalizedPhone(); err != nil {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"phone": phone})
	}
	return nil
}

// normalizedPhone parses the phone against the configured region and returns
// it in E.164 form.
func (r RegisterInput) normalizedPhone() (string, error) {
	if r.Phone == "" {
		return "", nil
	}

	region := r.PhoneRegion
	if region == "" {
		region = DefaultPhoneRegion
	}

	num, err := phonenumbers.Parse(r.Phone, region)
	if err != nil {
		return "", err
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// metadata builds the session metadata attached at sign-up. Only populated
// optional fields are included.
func (r RegisterInput) metadata() map[string]any {
	md := map[string]any{
		"name": r.Name,
		"role": r.Role,
	}

	if phone, err := r.normalizedPhone(); err == nil && phone != "" {
		md["phone"] = phone
	}

	if r.Locality != "" {
		md["locality"] = r.Locality
	}

	if r.Location != "" {
		md["location"] = r.Location
	}

	if r.Latitude != 0 || r.Longitude != 0 {
		md["latitude"] = r.Latitude
		md["longitude"] = r.Longitude
	}

	return md
}
