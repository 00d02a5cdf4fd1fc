package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/logging"
)

//go:embed seed.yaml
var defaultData []byte

type namedItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type locationItem struct {
	Name      string   `yaml:"name"`
	City      string   `yaml:"city"`
	State     string   `yaml:"state"`
	Country   string   `yaml:"country"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
}

// Data is the reference data a fresh install starts with.
type Data struct {
	Categories    []namedItem    `yaml:"categories"`
	PropertyTypes []namedItem    `yaml:"property_types"`
	Amenities     []namedItem    `yaml:"amenities"`
	Locations     []locationItem `yaml:"locations"`
}

// Result counts rows inserted per table. Existing rows are left alone.
type Result struct {
	Categories    int
	PropertyTypes int
	Amenities     int
	Locations     int
}

// Parse decodes a seed document; nil or empty input selects the built-in set.
func Parse(raw []byte) (*Data, error) {
	if len(raw) == 0 {
		raw = defaultData
	}
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &d, nil
}

// Run inserts missing reference rows in one transaction. Safe to repeat.
func Run(db *gorm.DB, data *Data) (*Result, error) {
	logger := logging.NewLogger("seed")
	res := &Result{}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, c := range data.Categories {
			row := model.Category{Name: c.Name, Description: c.Description}
			r := tx.Where(model.Category{Name: c.Name}).FirstOrCreate(&row)
			if r.Error != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, r.Error)
			}
			res.Categories += int(r.RowsAffected)
		}

		for _, p := range data.PropertyTypes {
			row := model.PropertyType{Name: p.Name, Description: p.Description}
			r := tx.Where(model.PropertyType{Name: p.Name}).FirstOrCreate(&row)
			if r.Error != nil {
				return fmt.Errorf("seed property type %s: %w", p.Name, r.Error)
			}
			res.PropertyTypes += int(r.RowsAffected)
		}

		for _, a := range data.Amenities {
			row := model.Amenity{Name: a.Name, Description: a.Description}
			r := tx.Where(model.Amenity{Name: a.Name}).FirstOrCreate(&row)
			if r.Error != nil {
				return fmt.Errorf("seed amenity %s: %w", a.Name, r.Error)
			}
			res.Amenities += int(r.RowsAffected)
		}

		for _, l := range data.Locations {
			row := model.Location{
				Name:      l.Name,
				City:      l.City,
				State:     l.State,
				Country:   l.Country,
				Latitude:  l.Latitude,
				Longitude: l.Longitude,
			}
			r := tx.Where(model.Location{Name: l.Name, City: l.City, State: l.State}).FirstOrCreate(&row)
			if r.Error != nil {
				return fmt.Errorf("seed location %s: %w", l.Name, r.Error)
			}
			res.Locations += int(r.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("categories", res.Categories).
		Int("property_types", res.PropertyTypes).
		Int("amenities", res.Amenities).
		Int("locations", res.Locations).
		Msg("reference data seeded")
	return res, nil
}
