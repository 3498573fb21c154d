package validation

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	personName         = regexp.MustCompile(`^[\p{L}][\p{L} '\-]*$`)
	classificationName = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// MinYear is the oldest model year accepted for inventory.
const MinYear = 1900

func field(r *http.Request, name string) string { return strings.TrimSpace(r.PostFormValue(name)) }

func parseID(s string) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// RegisterInput is the registration form. Every field is required.
type RegisterInput struct {
	FirstName string // account_firstname
	LastName  string // account_lastname
	Email     string // account_email
	Password  string // account_password
}

func RegisterFromRequest(r *http.Request) RegisterInput {
	return RegisterInput{
		FirstName: field(r, "account_firstname"),
		LastName:  field(r, "account_lastname"),
		Email:     strings.ToLower(field(r, "account_email")),
		Password:  r.PostFormValue("account_password"),
	}
}

func (in RegisterInput) Validate() Errors {
	var v Errors
	validateNames(in.FirstName, in.LastName, &v)
	if Required("account_email", in.Email, "email_required", &v) {
		Email("account_email", in.Email, "email_invalid", &v)
	}
	if Required("account_password", in.Password, "password_required", &v) {
		checkPassword(in.Password, &v)
	}
	return v
}

func checkPassword(pw string, v *Errors) {
	if Password("account_password", pw, "password_rules", v) {
		MaxBytes("account_password", pw, MaxPasswordBytes, "password_too_long", v)
	}
}

func validateNames(first, last string, v *Errors) {
	if Required("account_firstname", first, "first_name_required", v) {
		Matches("account_firstname", first, personName, "name_invalid", v)
	}
	if Required("account_lastname", last, "last_name_required", v) {
		if MinLength("account_lastname", last, 2, "last_name_short", v) {
			Matches("account_lastname", last, personName, "name_invalid", v)
		}
	}
}

// LoginInput is the login form. Both fields are required.
type LoginInput struct {
	Email    string // account_email
	Password string // account_password
}

func LoginFromRequest(r *http.Request) LoginInput {
	return LoginInput{
		Email:    strings.ToLower(field(r, "account_email")),
		Password: r.PostFormValue("account_password"),
	}
}

func (in LoginInput) Validate() Errors {
	var v Errors
	if Required("account_email", in.Email, "email_required", &v) {
		Email("account_email", in.Email, "email_invalid", &v)
	}
	Required("account_password", in.Password, "password_required", &v)
	return v
}

// AccountUpdateInput changes identity fields; all are required.
type AccountUpdateInput struct {
	ID        uint   // account_id
	FirstName string // account_firstname
	LastName  string // account_lastname
	Email     string // account_email
}

func AccountUpdateFromRequest(r *http.Request) AccountUpdateInput {
	return AccountUpdateInput{
		ID:        parseID(r.PostFormValue("account_id")),
		FirstName: field(r, "account_firstname"),
		LastName:  field(r, "account_lastname"),
		Email:     strings.ToLower(field(r, "account_email")),
	}
}

func (in AccountUpdateInput) Validate() Errors {
	var v Errors
	if in.ID == 0 {
		v.Add("account_id", "account_id_invalid")
	}
	validateNames(in.FirstName, in.LastName, &v)
	if Required("account_email", in.Email, "email_required", &v) {
		Email("account_email", in.Email, "email_invalid", &v)
	}
	return v
}

// PasswordChangeInput carries the new password. An empty password is a
// no-op for the caller, not a validation error.
type PasswordChangeInput struct {
	ID       uint   // account_id
	Password string // account_password, optional
}

func PasswordChangeFromRequest(r *http.Request) PasswordChangeInput {
	return PasswordChangeInput{
		ID:       parseID(r.PostFormValue("account_id")),
		Password: r.PostFormValue("account_password"),
	}
}

func (in PasswordChangeInput) Blank() bool { return in.Password == "" }

func (in PasswordChangeInput) Validate() Errors {
	var v Errors
	if in.ID == 0 {
		v.Add("account_id", "account_id_invalid")
	}
	if !in.Blank() {
		checkPassword(in.Password, &v)
	}
	return v
}

// ClassificationInput is the add-classification form.
type ClassificationInput struct {
	Name string // classification_name, required
}

func ClassificationFromRequest(r *http.Request) ClassificationInput {
	return ClassificationInput{Name: field(r, "classification_name")}
}

func (in ClassificationInput) Validate() Errors {
	var v Errors
	Matches("classification_name", in.Name, classificationName, "classification_name_invalid", &v)
	return v
}

// InventoryInput holds raw form values so a failed submission can be shown
// again as typed. Image and Thumbnail are optional; the rest are required.
type InventoryInput struct {
	ID               string // inv_id, update only
	ClassificationID string // classification_id
	Make             string // inv_make
	Model            string // inv_model
	Year             string // inv_year
	Description      string // inv_description
	Image            string // inv_image, optional
	Thumbnail        string // inv_thumbnail, optional
	Price            string // inv_price
	Miles            string // inv_miles
	Color            string // inv_color
}

// Vehicle is the typed result of a valid InventoryInput.
type Vehicle struct {
	ID               uint
	ClassificationID uint
	Make             string
	Model            string
	Year             int
	Description      string
	Image            string
	Thumbnail        string
	Price            float64
	Miles            int
	Color            string
}

func InventoryFromRequest(r *http.Request) InventoryInput {
	return InventoryInput{
		ID:               field(r, "inv_id"),
		ClassificationID: field(r, "classification_id"),
		Make:             field(r, "inv_make"),
		Model:            field(r, "inv_model"),
		Year:             field(r, "inv_year"),
		Description:      field(r, "inv_description"),
		Image:            field(r, "inv_image"),
		Thumbnail:        field(r, "inv_thumbnail"),
		Price:            field(r, "inv_price"),
		Miles:            field(r, "inv_miles"),
		Color:            field(r, "inv_color"),
	}
}

// ClassificationExists reports whether a classification id is known.
type ClassificationExists func(id uint) bool

// Validate checks the form against the model-year window ending next year
// relative to now. exists may be nil to skip the reference check.
func (in InventoryInput) Validate(now time.Time, exists ClassificationExists) (Vehicle, Errors) {
	var v Errors
	out := Vehicle{
		ID:          parseID(in.ID),
		Make:        in.Make,
		Model:       in.Model,
		Description: in.Description,
		Image:       in.Image,
		Thumbnail:   in.Thumbnail,
		Color:       in.Color,
	}
	if Required("classification_id", in.ClassificationID, "classification_required", &v) {
		if id, ok := Integer("classification_id", in.ClassificationID, "classification_invalid", &v); ok {
			if id <= 0 || (exists != nil && !exists(uint(id))) {
				v.Add("classification_id", "classification_unknown")
			} else {
				out.ClassificationID = uint(id)
			}
		}
	}
	if Required("inv_make", in.Make, "inv_make_required", &v) {
		MinLength("inv_make", in.Make, 2, "inv_make_short", &v)
	}
	Required("inv_model", in.Model, "inv_model_required", &v)
	if Required("inv_year", in.Year, "inv_year_required", &v) {
		out.Year, _ = IntRange("inv_year", in.Year, MinYear, now.Year()+1, "inv_year_invalid", &v)
	}
	Required("inv_description", in.Description, "inv_description_required", &v)
	if Required("inv_price", in.Price, "inv_price_required", &v) {
		out.Price, _ = FloatMin("inv_price", in.Price, 0, "inv_price_invalid", &v)
	}
	if Required("inv_miles", in.Miles, "inv_miles_required", &v) {
		if n, ok := Integer("inv_miles", in.Miles, "inv_miles_invalid", &v); ok {
			if n < 0 {
				v.Add("inv_miles", "inv_miles_invalid")
			} else {
				out.Miles = n
			}
		}
	}
	Required("inv_color", in.Color, "inv_color_required", &v)
	return out, v
}
