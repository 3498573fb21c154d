package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/internal/models"
)

// Development credentials created by Seed.
const (
	SeedAdminEmail       = "manager@cse.motors"
	SeedEmployeeEmail    = "happy@cse.motors"
	SeedStaffPassword    = "I@mAnAdm!n1"
	seedEmployeePassword = "I@mAnEmpl0yee"
)

var seedClassifications = []string{"Custom", "Sedan", "Sport", "SUV", "Truck"}

var seedVehicles = []struct {
	class string
	inv   models.Inventory
}{
	{"Custom", models.Inventory{Make: "DMC", Model: "Delorean", Year: 1981, Price: 65000, Miles: 58000, Color: "Silver",
		Description: "So fast it's almost like traveling in time.",
		Image:       "/images/vehicles/delorean.jpg", Thumbnail: "/images/vehicles/delorean-tn.jpg"}},
	{"Sport", models.Inventory{Make: "Chevy", Model: "Camaro", Year: 2018, Price: 25000, Miles: 101222, Color: "Silver",
		Description: "If you want to look cool this is the car you need!"}},
	{"SUV", models.Inventory{Make: "Jeep", Model: "Wrangler", Year: 2019, Price: 28045, Miles: 41205, Color: "Yellow",
		Description: "The Jeep Wrangler is small and compact with enough power to get you where you want to go."}},
	{"Truck", models.Inventory{Make: "Ford", Model: "F-150", Year: 2020, Price: 43000, Miles: 12500, Color: "Blue",
		Description: "A workhorse pickup with room for the whole crew."}},
	{"Sedan", models.Inventory{Make: "Honda", Model: "Civic", Year: 2021, Price: 22500.5, Miles: 18750, Color: "White",
		Description: "Reliable, efficient and comfortable for the daily commute."}},
}

// Seed inserts reference classifications, sample vehicles and the staff
// accounts. Existing rows are left untouched, so it is safe to run twice.
func Seed(db *gorm.DB) error {
	ids := make(map[string]uint, len(seedClassifications))
	for _, name := range seedClassifications {
		c := models.Classification{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("seed classification %s: %w", name, err)
		}
		ids[name] = c.ID
	}
	for _, v := range seedVehicles {
		inv := v.inv
		inv.ClassificationID = ids[v.class]
		var existing models.Inventory
		err := db.Where("make = ? AND model = ?", inv.Make, inv.Model).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&inv).Error; err != nil {
				return fmt.Errorf("seed vehicle %s: %w", inv.Name(), err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("seed vehicle %s: %w", inv.Name(), err)
		}
	}
	staff := []struct {
		acc      models.Account
		password string
	}{
		{models.Account{FirstName: "Manager", LastName: "User", Email: SeedAdminEmail, Type: models.AccountAdmin}, SeedStaffPassword},
		{models.Account{FirstName: "Happy", LastName: "Employee", Email: SeedEmployeeEmail, Type: models.AccountEmployee}, seedEmployeePassword},
	}
	for _, s := range staff {
		var existing models.Account
		err := db.Where("email = ?", s.acc.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed account %s: %w", s.acc.Email, err)
		}
		digest, err := auth.HashPassword(s.password)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		acc := s.acc
		acc.Password = digest
		if err := db.Create(&acc).Error; err != nil {
			return fmt.Errorf("seed account %s: %w", acc.Email, err)
		}
	}
	return nil
}
