/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (RuleSetStore, PlanStore,
  CustomerStore, BatchWriter) using SQLite. Rule sets and plans are stored
  as whole JSON documents, one row per document, mirroring the document
  store the engine is written against.

INTERFACES IMPLEMENTED:
  plan.RuleSetStore:  planTaskRules/{packageKey} documents
  plan.PlanStore:     plans/{customerId} documents
  plan.CustomerStore: customers/{customerId} documents (read side)
  plan.BatchWriter:   atomic multi-plan commits

KEY TABLES:
  rule_sets: One row per package key; sections and rules as JSON columns
  plans:     One row per customer; sections as a single JSON column, so a
             plan rewrite is one mutation regardless of task count
  customers: Selection inputs (type, package, active flag, join date)

BATCH COMMITS:
  CommitPlans writes every staged plan in one SQL transaction: either the
  whole chunk lands or none of it. Chunking to the ceiling happens above
  this layer in plan.ChunkedWriter.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The engine itself performs no
  optimistic-concurrency check: last writer wins on plan documents.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/plans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - plan/store.go: Interface definitions
  - plan/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/craftdesk/plan-engine/plan"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time check that Store implements the combined store.
var _ plan.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Rule sets: one document per package key
	CREATE TABLE IF NOT EXISTS rule_sets (
		package_key TEXT PRIMARY KEY,
		sections_json TEXT NOT NULL,
		tasks_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		updated_by TEXT NOT NULL
	);

	-- Plans: one document per customer, sections as a single JSON field
	CREATE TABLE IF NOT EXISTS plans (
		customer_id TEXT PRIMARY KEY,
		sections_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Customers: read-only selection inputs, owned by customer management
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		customer_type TEXT NOT NULL,
		package_type TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		date_joined TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_customers_selection
		ON customers(customer_type, package_type, is_active);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RULE SET STORE (plan.RuleSetStore interface)
// =============================================================================

func (s *Store) GetRuleSet(ctx context.Context, pkg plan.PackageKey) (*plan.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT sections_json, tasks_json, updated_at, updated_by FROM rule_sets WHERE package_key = ?",
		string(pkg),
	)

	var sectionsJSON, tasksJSON, updatedAt, updatedBy string
	if err := row.Scan(&sectionsJSON, &tasksJSON, &updatedAt, &updatedBy); err != nil {
		if err == sql.ErrNoRows {
			return nil, plan.ErrRuleSetNotFound
		}
		return nil, fmt.Errorf("failed to load rule set %s: %w", pkg, err)
	}

	var rs plan.RuleSet
	if err := json.Unmarshal([]byte(sectionsJSON), &rs.Sections); err != nil {
		return nil, fmt.Errorf("corrupt sections for %s: %w", pkg, err)
	}
	if err := json.Unmarshal([]byte(tasksJSON), &rs.Tasks); err != nil {
		return nil, fmt.Errorf("corrupt rules for %s: %w", pkg, err)
	}
	rs.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	rs.UpdatedBy = updatedBy
	return &rs, nil
}

func (s *Store) PutRuleSet(ctx context.Context, pkg plan.PackageKey, rs plan.RuleSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sectionsJSON, err := json.Marshal(rs.Sections)
	if err != nil {
		return fmt.Errorf("failed to encode sections: %w", err)
	}
	tasksJSON, err := json.Marshal(rs.Tasks)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	query := `
		INSERT INTO rule_sets (package_key, sections_json, tasks_json, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(package_key) DO UPDATE SET
			sections_json = excluded.sections_json,
			tasks_json = excluded.tasks_json,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by
	`
	_, err = s.db.ExecContext(ctx, query,
		string(pkg),
		string(sectionsJSON),
		string(tasksJSON),
		rs.UpdatedAt.UTC().Format(time.RFC3339),
		rs.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save rule set %s: %w", pkg, err)
	}
	return nil
}

// =============================================================================
// PLAN STORE (plan.PlanStore interface)
// =============================================================================

func (s *Store) GetPlan(ctx context.Context, id plan.CustomerID) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT sections_json, updated_at FROM plans WHERE customer_id = ?",
		string(id),
	)

	var sectionsJSON, updatedAt string
	if err := row.Scan(&sectionsJSON, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, plan.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to load plan %s: %w", id, err)
	}

	var p plan.Plan
	if err := json.Unmarshal([]byte(sectionsJSON), &p.Sections); err != nil {
		return nil, fmt.Errorf("corrupt plan %s: %w", id, err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (s *Store) PutPlan(ctx context.Context, id plan.CustomerID, p plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.putPlanTx(ctx, s.db, id, p)
}

func (s *Store) putPlanTx(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, id plan.CustomerID, p plan.Plan) error {
	sectionsJSON, err := json.Marshal(p.Sections)
	if err != nil {
		return fmt.Errorf("failed to encode plan sections: %w", err)
	}

	query := `
		INSERT INTO plans (customer_id, sections_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			sections_json = excluded.sections_json,
			updated_at = excluded.updated_at
	`
	_, err = db.ExecContext(ctx, query,
		string(id),
		string(sectionsJSON),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan %s: %w", id, err)
	}
	return nil
}

// =============================================================================
// CUSTOMER STORE (plan.CustomerStore interface)
// =============================================================================

func (s *Store) GetCustomer(ctx context.Context, id plan.CustomerID) (*plan.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, customer_type, package_type, is_active, date_joined FROM customers WHERE id = ?",
		string(id),
	)

	c, err := scanCustomer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, plan.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to load customer %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context, f plan.CustomerFilter) ([]plan.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, email, customer_type, package_type, is_active, date_joined FROM customers WHERE 1=1"
	var args []any
	if f.Type != "" {
		query += " AND customer_type = ?"
		args = append(args, string(f.Type))
	}
	if f.PackageType != "" {
		query += " AND package_type = ?"
		args = append(args, string(f.PackageType))
	}
	if f.ActiveOnly {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []plan.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// SaveCustomer upserts a customer record. The engine never calls this in
// production paths; it exists for seeding and tests. Customer documents
// are owned by customer management.
func (s *Store) SaveCustomer(ctx context.Context, c plan.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO customers (id, email, customer_type, package_type, is_active, date_joined, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			customer_type = excluded.customer_type,
			package_type = excluded.package_type,
			is_active = excluded.is_active,
			date_joined = excluded.date_joined
	`
	_, err := s.db.ExecContext(ctx, query,
		string(c.ID),
		c.Email,
		string(c.Type),
		string(c.PackageType),
		c.IsActive,
		nullableTime(c.DateJoined),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*plan.Customer, error) {
	var c plan.Customer
	var id, email, ctype, pkg string
	var joined sql.NullString
	if err := row.Scan(&id, &email, &ctype, &pkg, &c.IsActive, &joined); err != nil {
		return nil, err
	}
	c.ID = plan.CustomerID(id)
	c.Email = email
	c.Type = plan.CustomerType(ctype)
	c.PackageType = plan.PackageKey(pkg)
	if joined.Valid && joined.String != "" {
		t, err := time.Parse(time.RFC3339, joined.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt date_joined for %s: %w", id, err)
		}
		c.DateJoined = &t
	}
	return &c, nil
}

// =============================================================================
// BATCH WRITER (plan.BatchWriter interface)
// =============================================================================

// CommitPlans writes every staged plan mutation in one SQL transaction.
// Either the whole chunk lands or none of it.
func (s *Store) CommitPlans(ctx context.Context, muts []plan.PlanMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer sqlTx.Rollback()

	for _, mut := range muts {
		if err := s.putPlanTx(ctx, sqlTx, mut.CustomerID, mut.Plan); err != nil {
			return err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
