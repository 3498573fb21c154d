package validation

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestErrorsKeepOrder(t *testing.T) {
	var v Errors
	Required("a", "", "a_required", &v)
	Required("b", " ", "b_required", &v)
	Required("c", "ok", "c_required", &v)
	want := []string{"a_required", "b_required"}
	if !reflect.DeepEqual(v.Messages(), want) {
		t.Fatalf("expected %v, got %v", want, v.Messages())
	}
	if !v.Has("a") || v.Has("c") || v.For("b") != "b_required" {
		t.Fatalf("unexpected lookups on %v", v)
	}
}

func TestClassificationName(t *testing.T) {
	cases := map[string]bool{
		"SUV":     true,
		"Sedan2":  true,
		"SUV 2":   false,
		"Trucks!": false,
		"":        false,
	}
	for name, ok := range cases {
		errs := ClassificationInput{Name: name}.Validate()
		if errs.Empty() != ok {
			t.Errorf("%q: valid=%v, want %v (%v)", name, errs.Empty(), ok, errs)
		}
		if !ok && errs.For("classification_name") != "classification_name_invalid" {
			t.Errorf("%q: unexpected message %q", name, errs.For("classification_name"))
		}
	}
}

func TestPasswordComplexity(t *testing.T) {
	cases := map[string]bool{
		"Secret#123": true,
		"secret#123": false,
		"Secret123":  false,
		"Secret#abc": false,
		"S#1a":       false,
	}
	for pw, ok := range cases {
		var v Errors
		if got := Password("account_password", pw, "password_rules", &v); got != ok {
			t.Errorf("%q: got %v, want %v", pw, got, ok)
		}
	}
}

func TestPasswordByteLimit(t *testing.T) {
	atLimit := "Secret#1" + strings.Repeat("a", MaxPasswordBytes-8)
	over := atLimit + "a"

	reg := RegisterInput{FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com", Password: atLimit}
	if errs := reg.Validate(); !errs.Empty() {
		t.Fatalf("72 bytes should pass, got %v", errs)
	}
	reg.Password = over
	if got := reg.Validate().For("account_password"); got != "password_too_long" {
		t.Fatalf("expected password_too_long, got %q", got)
	}
	if got := (PasswordChangeInput{ID: 1, Password: over}).Validate().For("account_password"); got != "password_too_long" {
		t.Fatalf("expected password_too_long on change, got %q", got)
	}
}

func TestRegisterInputValidate(t *testing.T) {
	in := RegisterInput{FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com", Password: "Secret#123"}
	if errs := in.Validate(); !errs.Empty() {
		t.Fatalf("expected valid input, got %v", errs)
	}
	bad := RegisterInput{FirstName: "", LastName: "L0pez", Email: "not-an-email", Password: "weak"}
	errs := bad.Validate()
	want := []string{"first_name_required", "name_invalid", "email_invalid", "password_rules"}
	if !reflect.DeepEqual(errs.Messages(), want) {
		t.Fatalf("expected %v, got %v", want, errs.Messages())
	}
}

func TestPasswordChangeBlankIsNotAnError(t *testing.T) {
	in := PasswordChangeInput{ID: 1}
	if !in.Blank() || !in.Validate().Empty() {
		t.Fatalf("blank password should be a no-op without errors")
	}
	if (PasswordChangeInput{ID: 1, Password: "short"}).Validate().Empty() {
		t.Fatalf("expected complexity error")
	}
}

func validInventory() InventoryInput {
	return InventoryInput{
		ClassificationID: "2",
		Make:             "Jeep",
		Model:            "Wrangler",
		Year:             "2024",
		Description:      "Trail rated.",
		Price:            "28045.50",
		Miles:            "41205",
		Color:            "Yellow",
	}
}

func TestInventoryInputValidate(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	exists := func(id uint) bool { return id == 2 }

	v, errs := validInventory().Validate(now, exists)
	if !errs.Empty() {
		t.Fatalf("expected valid inventory, got %v", errs)
	}
	if v.ClassificationID != 2 || v.Year != 2024 || v.Price != 28045.50 || v.Miles != 41205 {
		t.Fatalf("unexpected parsed values: %+v", v)
	}
	if v.Image != "" || v.Thumbnail != "" {
		t.Fatalf("optional images should stay empty: %+v", v)
	}
}

func TestInventoryInputRules(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	exists := func(id uint) bool { return id == 2 }

	cases := []struct {
		name  string
		edit  func(*InventoryInput)
		field string
		msg   string
	}{
		{"short make", func(in *InventoryInput) { in.Make = "J" }, "inv_make", "inv_make_short"},
		{"year too old", func(in *InventoryInput) { in.Year = "1899" }, "inv_year", "inv_year_invalid"},
		{"year next year ok", func(in *InventoryInput) { in.Year = "2027" }, "", ""},
		{"year too new", func(in *InventoryInput) { in.Year = "2028" }, "inv_year", "inv_year_invalid"},
		{"negative price", func(in *InventoryInput) { in.Price = "-1" }, "inv_price", "inv_price_invalid"},
		{"zero price ok", func(in *InventoryInput) { in.Price = "0" }, "", ""},
		{"negative miles", func(in *InventoryInput) { in.Miles = "-5" }, "inv_miles", "inv_miles_invalid"},
		{"missing color", func(in *InventoryInput) { in.Color = "" }, "inv_color", "inv_color_required"},
		{"non numeric classification", func(in *InventoryInput) { in.ClassificationID = "suv" }, "classification_id", "classification_invalid"},
		{"unknown classification", func(in *InventoryInput) { in.ClassificationID = "9" }, "classification_id", "classification_unknown"},
		{"missing classification", func(in *InventoryInput) { in.ClassificationID = "" }, "classification_id", "classification_required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInventory()
			tc.edit(&in)
			_, errs := in.Validate(now, exists)
			if tc.field == "" {
				if !errs.Empty() {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			if got := errs.For(tc.field); got != tc.msg {
				t.Fatalf("expected %s=%s, got %q (%v)", tc.field, tc.msg, got, errs)
			}
		})
	}
}
