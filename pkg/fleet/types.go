// Package fleet provides read access to the fleet domain entities: companies,
// trucks and drivers. Reads are company-scoped for everyone except super
// admins, who see the whole fleet.
package fleet

import "time"

// Company is a tenant in the system
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Truck statuses
const (
	TruckStatusActive      = "active"
	TruckStatusInactive    = "inactive"
	TruckStatusMaintenance = "maintenance"
)

// Truck is a vehicle belonging to a company
type Truck struct {
	ID          int64      `json:"id"`
	CompanyID   int64      `json:"companyId"`
	Name        string     `json:"name"`
	NumberPlate string     `json:"numberPlate"`
	Make        string     `json:"make,omitempty"`
	Model       string     `json:"model,omitempty"`
	Year        int        `json:"year,omitempty"`
	Status      string     `json:"status"`
	Route       string     `json:"route,omitempty"`
	CargoType   string     `json:"cargoType,omitempty"`
	LastUpdate  *time.Time `json:"lastUpdate,omitempty"`
}

// Driver is a person operating trucks for a company
type Driver struct {
	ID            int64  `json:"id"`
	CompanyID     int64  `json:"companyId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	LicenseNumber string `json:"licenseNumber"`
	Phone         string `json:"phone,omitempty"`
	Status        string `json:"status"`
	TruckID       *int64 `json:"truckId,omitempty"`
}
