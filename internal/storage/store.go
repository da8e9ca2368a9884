package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cardvault/internal/model"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so a
// store can run standalone or inside a caller's transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Spec binds a table descriptor to one entity type: Values extracts the
// entity-specific column values (everything after id and clientId, in
// declaration order) and Scan reads a full row back.
type Spec[T model.Record] struct {
	Table
	Values func(T) []any
	Scan   func(Scanner) (T, error)
}

// Store is the tenant-scoped CRUD engine for one entity type. Every query
// carries a clientId predicate; cross-tenant isolation rests entirely on
// that predicate.
type Store[T model.Record] struct {
	spec Spec[T]
	db   Querier
}

func NewStore[T model.Record](db Querier, spec Spec[T]) *Store[T] {
	return &Store[T]{spec: spec, db: db}
}

// Spec exposes the descriptor, mainly for provisioning and tests.
func (s *Store[T]) Spec() Table { return s.spec.Table }

// on returns a copy of the store bound to q, typically a transaction.
func (s *Store[T]) on(q Querier) *Store[T] {
	c := *s
	c.db = q
	return &c
}

func (s *Store[T]) selectList() string {
	return strings.Join(s.spec.columnNames(), ", ")
}

// rowValues assembles the full column-value list for e with clientID
// stamped into the clientId slot, caller input notwithstanding.
func (s *Store[T]) rowValues(clientID string, e T) []any {
	return append([]any{e.RecordID(), clientID}, s.spec.Values(e)...)
}

// GetAll returns every row owned by the tenant.
func (s *Store[T]) GetAll(clientID string) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE clientId = ?", s.selectList(), s.spec.Name)
	return s.queryMany(query, clientID)
}

// GetAllBy returns the tenant's rows whose column equals value. The column
// must be part of the descriptor.
func (s *Store[T]) GetAllBy(clientID, column, value string) ([]T, error) {
	if !s.spec.hasColumn(column) {
		return nil, validationErr(s.spec.Name, "unknown filter column %q", column)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND clientId = ?", s.selectList(), s.spec.Name, column)
	return s.queryMany(query, value, clientID)
}

// Get returns the first tenant row whose column equals value. The second
// result reports whether such a row exists; absence is not an error here,
// callers decide whether it is one.
func (s *Store[T]) Get(clientID, column, value string) (T, bool, error) {
	var zero T
	if !s.spec.hasColumn(column) {
		return zero, false, validationErr(s.spec.Name, "unknown filter column %q", column)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND clientId = ?", s.selectList(), s.spec.Name, column)
	e, err := s.spec.Scan(s.db.QueryRow(query, value, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, storageErr(s.spec.Name, "select", err)
	}
	return e, true, nil
}

// GetByID returns the tenant's row with the given id.
func (s *Store[T]) GetByID(clientID, id string) (T, bool, error) {
	return s.Get(clientID, "id", id)
}

// Has reports whether the tenant owns a row with the given id.
func (s *Store[T]) Has(clientID, id string) (bool, error) {
	_, ok, err := s.GetByID(clientID, id)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// GetSize counts the tenant's rows.
func (s *Store[T]) GetSize(clientID string) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE clientId = ?", s.spec.Name)
	if err := s.db.QueryRow(query, clientID).Scan(&count); err != nil {
		return 0, storageErr(s.spec.Name, "count", err)
	}
	return count, nil
}

// Add validates e, stamps the tenant onto it and inserts it. The quota
// check and the insert are a single guarded statement, so two concurrent
// adds cannot jointly exceed the quota.
func (s *Store[T]) Add(clientID string, e T) error {
	e.SetClientID(clientID)
	vals := s.rowValues(clientID, e)
	if err := s.spec.validate(vals); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s WHERE (SELECT COUNT(*) FROM %s WHERE clientId = ?) < ?",
		s.spec.Name, s.selectList(), placeholders, s.spec.Name,
	)
	res, err := s.db.Exec(query, append(vals, clientID, s.spec.Quota)...)
	if err != nil {
		return storageErr(s.spec.Name, "insert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(s.spec.Name, "insert", err)
	}
	if n == 0 {
		return quotaErr(s.spec.Name, s.spec.Quota)
	}
	return nil
}

// AddAll inserts the records in order inside one transaction; the first
// failure aborts and rolls the whole batch back. When the store is already
// bound to a transaction the records join it instead.
func (s *Store[T]) AddAll(clientID string, entities []T) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return s.addAll(clientID, entities)
	}
	tx, err := db.Begin()
	if err != nil {
		return storageErr(s.spec.Name, "begin", err)
	}
	if err := s.on(tx).addAll(clientID, entities); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr(s.spec.Name, "commit", err)
	}
	return nil
}

func (s *Store[T]) addAll(clientID string, entities []T) error {
	for _, e := range entities {
		if err := s.Add(clientID, e); err != nil {
			return err
		}
	}
	return nil
}

// Update validates e and replaces all non-key columns of the row matched by
// (clientId, id). The id and clientId columns are immutable.
func (s *Store[T]) Update(clientID string, e T) error {
	vals := s.rowValues(clientID, e)
	if err := s.spec.validate(vals); err != nil {
		return err
	}

	extras := s.spec.Columns[2:]
	assigns := make([]string, len(extras))
	for i, c := range extras {
		assigns[i] = c.Name + " = ?"
	}
	args := append(vals[2:], clientID, e.RecordID())
	query := fmt.Sprintf("UPDATE %s SET %s WHERE clientId = ? AND id = ?", s.spec.Name, strings.Join(assigns, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return storageErr(s.spec.Name, "update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFoundErr(s.spec.Name, "no row with id %s", e.RecordID())
	}
	return nil
}

// Delete removes the tenant's row with the given id; dependents go with it
// via the cascade foreign keys. Deleting an absent id yields a not-found
// error, never a storage fault.
func (s *Store[T]) Delete(clientID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE clientId = ? AND id = ?", s.spec.Name)
	res, err := s.db.Exec(query, clientID, id)
	if err != nil {
		return storageErr(s.spec.Name, "delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFoundErr(s.spec.Name, "no row with id %s", id)
	}
	return nil
}

// Create mints a fresh id for e and delegates to Add. The stamped record is
// returned so callers see the generated identity.
func (s *Store[T]) Create(clientID string, e T) (T, error) {
	e.SetRecordID(NewID())
	if err := s.Add(clientID, e); err != nil {
		var zero T
		return zero, err
	}
	return e, nil
}

func (s *Store[T]) queryMany(query string, args ...any) ([]T, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr(s.spec.Name, "select", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		e, err := s.spec.Scan(rows)
		if err != nil {
			return nil, storageErr(s.spec.Name, "scan", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(s.spec.Name, "select", err)
	}
	return out, nil
}
