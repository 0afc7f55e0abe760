// Package settings stores per-company platform settings as typed key/value
// rows, grouped by category on read. Reads go through a small expiring LRU
// so hot companies do not hit the database on every request.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Setting value types
const (
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeNumber  = "number"
	TypeJSON    = "json"
	TypeArray   = "array"
)

// Setting is one stored key/value row
type Setting struct {
	CompanyID int64  `json:"companyId"`
	Category  string `json:"category"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// Grouped is the read shape: category -> key -> decoded value
type Grouped map[string]map[string]interface{}

// Store persists settings rows
type Store interface {
	ListByCompany(ctx context.Context, companyID int64) ([]Setting, error)
	Upsert(ctx context.Context, s Setting) error
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListByCompany returns all settings rows for a company
func (s *PostgresStore) ListByCompany(ctx context.Context, companyID int64) ([]Setting, error) {
	query := `
		SELECT company_id, category, setting_key, setting_value, setting_type
		FROM platform_settings
		WHERE company_id = $1
		ORDER BY category ASC, setting_key ASC
	`
	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var setting Setting
		if err := rows.Scan(&setting.CompanyID, &setting.Category, &setting.Key,
			&setting.Value, &setting.Type); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out = append(out, setting)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces a setting row
func (s *PostgresStore) Upsert(ctx context.Context, setting Setting) error {
	query := `
		INSERT INTO platform_settings (company_id, category, setting_key, setting_value, setting_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, category, setting_key)
		DO UPDATE SET setting_value = EXCLUDED.setting_value, setting_type = EXCLUDED.setting_type
	`
	_, err := s.db.ExecContext(ctx, query,
		setting.CompanyID, setting.Category, setting.Key, setting.Value, setting.Type)
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

// Service layers a read cache over the store. Writes invalidate the
// company's cached snapshot.
type Service struct {
	store Store
	cache *expirable.LRU[int64, Grouped]
}

// NewService creates a settings service with the given cache TTL
func NewService(store Store, cacheTTL time.Duration) *Service {
	return &Service{
		store: store,
		cache: expirable.NewLRU[int64, Grouped](128, nil, cacheTTL),
	}
}

// Get returns the company's settings grouped by category, decoding each
// value according to its declared type
func (s *Service) Get(ctx context.Context, companyID int64) (Grouped, error) {
	if cached, ok := s.cache.Get(companyID); ok {
		return cached, nil
	}

	rows, err := s.store.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	grouped := make(Grouped)
	for _, row := range rows {
		if grouped[row.Category] == nil {
			grouped[row.Category] = make(map[string]interface{})
		}
		grouped[row.Category][row.Key] = decodeValue(row)
	}

	s.cache.Add(companyID, grouped)
	return grouped, nil
}

// Set upserts a setting and drops the company's cached snapshot
func (s *Service) Set(ctx context.Context, setting Setting) error {
	if err := s.store.Upsert(ctx, setting); err != nil {
		return err
	}
	s.cache.Remove(setting.CompanyID)
	return nil
}

// decodeValue converts the stored string according to the declared type.
// Undecodable values fall back to the raw string rather than failing the
// whole read.
func decodeValue(s Setting) interface{} {
	switch s.Type {
	case TypeBoolean:
		return s.Value == "true"
	case TypeNumber:
		if n, err := strconv.ParseFloat(s.Value, 64); err == nil {
			return n
		}
		return s.Value
	case TypeJSON, TypeArray:
		var decoded interface{}
		if err := json.Unmarshal([]byte(s.Value), &decoded); err == nil {
			return decoded
		}
		return s.Value
	default:
		return s.Value
	}
}
