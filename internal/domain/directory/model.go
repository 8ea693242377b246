package directory

import (
	"time"

	"github.com/google/uuid"
)

// Pharmacy is one row of the local pharmacy directory. Coordinates are
// optional; rows without stored coordinates fall back to resolving their zip
// code at lookup time.
type Pharmacy struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone,omitempty"`
	ZipCode   string    `json:"zip_code"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NearbyPharmacy is a directory row annotated with its distance from the
// searching user.
type NearbyPharmacy struct {
	Pharmacy
	DistanceMiles float64 `json:"distance_miles"`
}
