package fleet

import (
	"context"
	"database/sql"
	"fmt"
)

// Store is the read surface of the fleet domain. A nil companyID means
// unrestricted access and is reserved for super admins.
type Store interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	ListTrucks(ctx context.Context, companyID *int64) ([]Truck, error)
	ListDrivers(ctx context.Context, companyID *int64) ([]Driver, error)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListCompanies returns all companies
func (s *PostgresStore) ListCompanies(ctx context.Context) ([]Company, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM companies
		ORDER BY name ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListTrucks returns trucks, optionally restricted to one company
func (s *PostgresStore) ListTrucks(ctx context.Context, companyID *int64) ([]Truck, error) {
	query := `
		SELECT id, company_id, name, number_plate, make, model, year, status,
		       route, cargo_type, last_update
		FROM trucks
	`
	args := []interface{}{}
	if companyID != nil {
		query += ` WHERE company_id = $1`
		args = append(args, *companyID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trucks: %w", err)
	}
	defer rows.Close()

	var out []Truck
	for rows.Next() {
		var (
			t          Truck
			truckMake  sql.NullString
			truckModel sql.NullString
			year       sql.NullInt64
			route      sql.NullString
			cargoType  sql.NullString
			lastUpdate sql.NullTime
		)
		if err := rows.Scan(
			&t.ID, &t.CompanyID, &t.Name, &t.NumberPlate, &truckMake, &truckModel,
			&year, &t.Status, &route, &cargoType, &lastUpdate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan truck: %w", err)
		}
		t.Make = truckMake.String
		t.Model = truckModel.String
		t.Year = int(year.Int64)
		t.Route = route.String
		t.CargoType = cargoType.String
		if lastUpdate.Valid {
			ts := lastUpdate.Time
			t.LastUpdate = &ts
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListDrivers returns drivers, optionally restricted to one company
func (s *PostgresStore) ListDrivers(ctx context.Context, companyID *int64) ([]Driver, error) {
	query := `
		SELECT id, company_id, first_name, last_name, license_number, phone,
		       status, truck_id
		FROM drivers
	`
	args := []interface{}{}
	if companyID != nil {
		query += ` WHERE company_id = $1`
		args = append(args, *companyID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		var (
			d       Driver
			phone   sql.NullString
			truckID sql.NullInt64
		)
		if err := rows.Scan(
			&d.ID, &d.CompanyID, &d.FirstName, &d.LastName, &d.LicenseNumber,
			&phone, &d.Status, &truckID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		d.Phone = phone.String
		if truckID.Valid {
			id := truckID.Int64
			d.TruckID = &id
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
