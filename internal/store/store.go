package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/roomivo/pkg/rental"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("already exists")
)

// PropertyListOpts controls property listing.
type PropertyListOpts struct {
	LandlordID string
	Location   string
	MinPrice   float64
	MaxPrice   float64
	Limit      int
	Offset     int
}

// ApplicantListOpts controls applicant listing.
type ApplicantListOpts struct {
	LandlordID string
	Status     rental.Status
	Unalerted  bool
	Limit      int
}

// ApplicantRow is an application joined with the tenant and property fields
// the landlord view and the risk scorer need.
type ApplicantRow struct {
	rental.Application
	FirstName    string  `db:"first_name"`
	LastName     string  `db:"last_name"`
	Profession   string  `db:"profession"`
	Income       float64 `db:"income"`
	PropertyName string  `db:"property_name"`
	Rent         float64 `db:"rent"`
	LandlordID   string  `db:"landlord_id"`
}

// Store is the persistence interface.
type Store interface {
	UpsertProperty(ctx context.Context, p *rental.Property) error
	UpsertProperties(ctx context.Context, ps []rental.Property) error
	GetProperty(ctx context.Context, id string) (*rental.Property, error)
	ListProperties(ctx context.Context, opts PropertyListOpts) ([]rental.Property, error)
	CountProperties(ctx context.Context, opts PropertyListOpts) (int, error)
	DeleteProperty(ctx context.Context, id string) error
	SetRentalType(ctx context.Context, id string, rt rental.RentalType) error

	UpsertProfile(ctx context.Context, p *rental.TenantProfile) error
	GetProfile(ctx context.Context, id string) (*rental.TenantProfile, error)

	CreateApplication(ctx context.Context, a *rental.Application) error
	GetApplication(ctx context.Context, id string) (*rental.Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, from, to rental.Status, at time.Time) error
	ListApplicants(ctx context.Context, opts ApplicantListOpts) ([]ApplicantRow, error)
	MarkAlerted(ctx context.Context, applicationID string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProperty(ctx context.Context, p *rental.Property) error {
	amenitiesJSON, _ := json.Marshal(nonNil(p.Amenities))
	imagesJSON, _ := json.Marshal(nonNil(p.Images))
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Currency == "" {
		p.Currency = "€"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (id, landlord_id, name, price, currency, rooms, location, description, amenities, images, rental_type, source, external_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			currency = excluded.currency,
			rooms = excluded.rooms,
			location = excluded.location,
			description = excluded.description,
			amenities = excluded.amenities,
			images = excluded.images,
			rental_type = excluded.rental_type
	`, p.ID, p.LandlordID, p.Name, p.Price, p.Currency, p.Rooms, p.Location,
		p.Description, string(amenitiesJSON), string(imagesJSON), p.RentalType,
		p.Source, p.ExternalID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert property %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertProperties(ctx context.Context, ps []rental.Property) error {
	for i := range ps {
		if err := s.UpsertProperty(ctx, &ps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetProperty(ctx context.Context, id string) (*rental.Property, error) {
	var p rental.Property
	err := s.db.GetContext(ctx, &p, "SELECT * FROM properties WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get property %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get property %s: %w", id, err)
	}
	decodeProperty(&p)
	return &p, nil
}

func propertyWhere(opts PropertyListOpts) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if opts.LandlordID != "" {
		where += " AND landlord_id = ?"
		args = append(args, opts.LandlordID)
	}
	if strings.TrimSpace(opts.Location) != "" {
		where += " AND LOWER(location) LIKE '%' || LOWER(?) || '%'"
		args = append(args, strings.TrimSpace(opts.Location))
	}
	if opts.MinPrice > 0 {
		where += " AND price >= ?"
		args = append(args, opts.MinPrice)
	}
	if opts.MaxPrice > 0 {
		where += " AND price <= ?"
		args = append(args, opts.MaxPrice)
	}
	return where, args
}

func (s *SQLiteStore) ListProperties(ctx context.Context, opts PropertyListOpts) ([]rental.Property, error) {
	where, args := propertyWhere(opts)
	query := "SELECT * FROM properties" + where + " ORDER BY created_at DESC, id"

	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(opts.Offset, 0))

	var props []rental.Property
	if err := s.db.SelectContext(ctx, &props, query, args...); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	for i := range props {
		decodeProperty(&props[i])
	}
	return props, nil
}

func (s *SQLiteStore) CountProperties(ctx context.Context, opts PropertyListOpts) (int, error) {
	where, args := propertyWhere(opts)
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM properties"+where, args...); err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) DeleteProperty(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete property %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete property %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) SetRentalType(ctx context.Context, id string, rt rental.RentalType) error {
	_, err := s.db.ExecContext(ctx, "UPDATE properties SET rental_type = ? WHERE id = ?", rt, id)
	if err != nil {
		return fmt.Errorf("set rental type %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *rental.TenantProfile) error {
	if p.Role == "" {
		p.Role = rental.RoleTenant
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO profiles (id, role, first_name, last_name, email, income, budget_min, budget_max, preferred_location, age, bio, profession)
		VALUES (:id, :role, :first_name, :last_name, :email, :income, :budget_min, :budget_max, :preferred_location, :age, :bio, :profession)
		ON CONFLICT(id) DO UPDATE SET
			role = excluded.role,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			income = excluded.income,
			budget_min = excluded.budget_min,
			budget_max = excluded.budget_max,
			preferred_location = excluded.preferred_location,
			age = excluded.age,
			bio = excluded.bio,
			profession = excluded.profession
	`, p)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*rental.TenantProfile, error) {
	var p rental.TenantProfile
	err := s.db.GetContext(ctx, &p, "SELECT * FROM profiles WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return &p, nil
}

func (s *SQLiteStore) CreateApplication(ctx context.Context, a *rental.Application) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	if a.Status == "" {
		a.Status = rental.StatusPending
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO applications (id, property_id, tenant_id, status, message, alerted, created_at, updated_at)
		VALUES (:id, :property_id, :tenant_id, :status, :message, :alerted, :created_at, :updated_at)
	`, a)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("create application %s: %w", a.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create application %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (*rental.Application, error) {
	var a rental.Application
	err := s.db.GetContext(ctx, &a, "SELECT * FROM applications WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return &a, nil
}

// UpdateApplicationStatus moves an application from one status to another.
// The write only lands while the row still holds from; a concurrent change
// yields rental.ErrInvalidTransition.
func (s *SQLiteStore) UpdateApplicationStatus(ctx context.Context, id string, from, to rental.Status, at time.Time) error {
	if !rental.CanTransition(from, to) {
		return fmt.Errorf("update application %s: %w: %s -> %s", id, rental.ErrInvalidTransition, from, to)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE applications SET status = ?, updated_at = ? WHERE id = ? AND status = ?", to, at, id, from)
	if err != nil {
		return fmt.Errorf("update application %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	cur, err := s.GetApplication(ctx, id)
	if err != nil {
		return fmt.Errorf("update application %s: %w", id, err)
	}
	return fmt.Errorf("update application %s: %w: status is %s", id, rental.ErrInvalidTransition, cur.Status)
}

func (s *SQLiteStore) ListApplicants(ctx context.Context, opts ApplicantListOpts) ([]ApplicantRow, error) {
	query := `
		SELECT a.*,
			t.first_name, t.last_name, t.profession, t.income,
			p.name AS property_name, p.price AS rent, p.landlord_id
		FROM applications a
		JOIN profiles t ON t.id = a.tenant_id
		JOIN properties p ON p.id = a.property_id
		WHERE 1=1`
	var args []any

	if opts.LandlordID != "" {
		query += " AND p.landlord_id = ?"
		args = append(args, opts.LandlordID)
	}
	if opts.Status != "" {
		query += " AND a.status = ?"
		args = append(args, opts.Status)
	}
	if opts.Unalerted {
		query += " AND a.alerted = 0"
	}

	query += " ORDER BY a.created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var rows []ApplicantRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return rows, nil
}

func (s *SQLiteStore) MarkAlerted(ctx context.Context, applicationID string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE applications SET alerted = 1 WHERE id = ?", applicationID)
	if err != nil {
		return fmt.Errorf("mark alerted %s: %w", applicationID, err)
	}
	return nil
}

func decodeProperty(p *rental.Property) {
	json.Unmarshal([]byte(p.AmenitiesJSON), &p.Amenities)
	json.Unmarshal([]byte(p.ImagesJSON), &p.Images)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
