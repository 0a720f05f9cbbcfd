package repository

import "github.com/carcraze/marketplace-api/internal/model"

// lineDetailJoins attaches the listing and its seller to a line table aliased l.
// Order lines outlive both, so the joins are outer.
const lineDetailJoins = `LEFT JOIN cars c ON c.id = l.car_id LEFT JOIN users u ON u.id = l.owner_id`

const lineDetailColumns = `c.id IS NOT NULL, COALESCE(c.brand, ''), COALESCE(c.model, ''), COALESCE(c.year, 0),
	COALESCE(c.listing_type, ''), COALESCE(c.status, ''), COALESCE(c.images, '{}'),
	u.id IS NOT NULL, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), COALESCE(u.email, ''),
	COALESCE(u.phone, '')`

type lineDetail struct {
	hasCar   bool
	car      model.CarSummary
	hasOwner bool
	owner    model.Contact
}

func (d *lineDetail) dest() []any {
	return []any{
		&d.hasCar, &d.car.Brand, &d.car.Model, &d.car.Year, &d.car.ListingType, &d.car.Status, &d.car.Images,
		&d.hasOwner, &d.owner.FirstName, &d.owner.LastName, &d.owner.Email, &d.owner.Phone,
	}
}

func (d *lineDetail) summary() (*model.CarSummary, *model.Contact) {
	var car *model.CarSummary
	var owner *model.Contact
	if d.hasCar {
		c := d.car
		car = &c
	}
	if d.hasOwner {
		o := d.owner
		owner = &o
	}
	return car, owner
}
