package session

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleMember is a regular account
	RoleMember UserRole = "member"
	// RoleAdmin is an administrative account
	RoleAdmin UserRole = "admin"
)

// User is the backend-held profile record for an authenticated subject. The
// identifier is backend-assigned; the record is replaced wholesale on
// login/registration and cleared (never deleted remotely) on logout.
type User struct {
	ID           string `json:"id,omitempty"`
	Email        string `json:"email,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	FullName     string `json:"fullName,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	Phone        string `json:"phoneNumber,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Location     string `json:"location,omitempty"`
	Portfolio    string `json:"portfolio,omitempty"`
	IsAdmin      bool   `json:"isAdmin,omitempty"`
}

// Role maps the admin flag onto the role vocabulary
func (u *User) Role() UserRole {
	if u != nil && u.IsAdmin {
		return RoleAdmin
	}
	return RoleMember
}

// DisplayName returns the best available human readable name
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}

	if u.FullName != "" {
		return u.FullName
	}

	if u.FirstName != "" || u.LastName != "" {
		name := u.FirstName
		if u.LastName != "" {
			if name != "" {
				name += " "
			}
			name += u.LastName
		}
		return name
	}

	return u.Email
}

// DefaultPhoneRegion is the region payload validation parses phone numbers
// against when the number carries no country prefix. Override at startup for
// deployments outside the US.
var DefaultPhoneRegion = "US"

// Credentials is the login payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&c.Password,
			validation.Required,
		),
	)
}

// RegisterPayload is the signup payload. Its explicit name and role fields
// take precedence over anything later returned by the backend when the
// identity record is synthesized.
type RegisterPayload struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	IsAdmin     bool   `json:"isAdmin"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.PhoneNumber, validation.By(ValidatePhoneNumber(DefaultPhoneRegion))),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
	)
}

// Hints synthesizes the identity fields the backend does not yet know about
// a freshly registered subject.
func (r RegisterPayload) Hints() *User {
	return &User{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		FullName:  joinName(r.FirstName, r.LastName),
		Email:     r.Email,
		Phone:     r.PhoneNumber,
		IsAdmin:   r.IsAdmin,
	}
}

// ChangePasswordPayload carries an authenticated password change
type ChangePasswordPayload struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Validate will run validation rules
func (p ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.OldPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.Length(10, 100)),
	)
}

// PasswordResetConfirm finalizes a password reset with the emailed token
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Validate will run validation rules
func (p PasswordResetConfirm) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.Length(10, 100)),
	)
}

// Result is the outcome shape fallible session operations surface to
// collaborators. Operations never leak errors past their own boundary.
type Result struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func successResult() Result {
	return Result{Success: true}
}

func failureResult(err error, fallback string) Result {
	return Result{Success: false, ErrorMessage: errorMessage(err, fallback)}
}

// ValidatePhoneNumber builds a rule that parses the value as a phone number
// for the given default region. Empty values pass, pair with Required when
// the field is mandatory.
func ValidatePhoneNumber(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		parsed, err := phonenumbers.Parse(s, region)
		if err != nil {
			return fmt.Errorf("must be a valid phone number")
		}

		if !phonenumbers.IsValidNumber(parsed) {
			return fmt.Errorf("must be a valid phone number")
		}

		return nil
	}
}

func joinName(first, last string) string {
	if first == "" {
		return last
	}
	if last == "" {
		return first
	}
	return first + " " + last
}
