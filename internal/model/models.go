package model

// All returns every persisted model in dependency order for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&LoginHistory{},
		&Agent{},
		&Rating{},
		&Category{},
		&Location{},
		&Amenity{},
		&PropertyType{},
		&Listing{},
		&ListingImage{},
		&Inquiry{},
	}
}
