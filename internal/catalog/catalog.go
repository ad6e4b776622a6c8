// Package catalog loads the read-only reference data the order form is
// populated from: clients, statuses, performers, the service price list,
// and the per-client vehicle list.
package catalog

import (
	"github.com/shopspring/decimal"
)

// Option is a generic catalog entry backing a select control.
type Option struct {
	ID    int
	Label string
}

// Vehicle is one of a client's cars.
type Vehicle struct {
	ID          int
	DisplayName string
}

// Service is a purchasable service with its suggested price.
type Service struct {
	ID        int
	Name      string
	BasePrice decimal.Decimal
}

// FormData bundles the four reference lists the order form needs.
// A list a fetch failed for is simply empty; the form stays usable with
// whatever did load.
type FormData struct {
	Clients    []Option
	Statuses   []Option
	Performers []Option
	Services   []Service
}

// DefaultStatusID returns the id of the first status, the form's initial
// selection, or 0 when no statuses loaded.
func (f FormData) DefaultStatusID() int {
	if len(f.Statuses) == 0 {
		return 0
	}
	return f.Statuses[0].ID
}

// FindService looks a service up by id. The second return is false when the
// id is not in the catalog.
func (f FormData) FindService(id int) (Service, bool) {
	for _, s := range f.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}
