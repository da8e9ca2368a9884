package storage

import (
	"database/sql"
	"fmt"

	"cardvault/internal/model"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection, enables cascade foreign keys and
// provisions every entity table derived from its descriptor.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers and keeps an in-memory database on
	// the connection that created it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Referenced tables are created before their referents.
	for _, t := range Tables() {
		if _, err := db.Exec(t.CreateSQL()); err != nil {
			return nil, fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Begin starts a transaction for multi-table write pipelines.
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// DeleteClientData wipes every table for one tenant in a single
// transaction, children before parents.
func (db *DB) DeleteClientData(clientID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin wipe for client %s: %w", clientID, err)
	}
	tables := Tables()
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE clientId = ?", tables[i].Name), clientID); err != nil {
			tx.Rollback()
			return storageErr(tables[i].Name, "wipe", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wipe for client %s: %w", clientID, err)
	}
	return nil
}

// Stores bundles the typed entity stores over one shared connection. The
// hierarchy resolver and the shared-item engine receive these handles
// explicitly instead of reaching into package state.
type Stores struct {
	db *DB

	Directories      *Store[*model.Directory]
	Decks            *Store[*model.Deck]
	CardTypes        *Store[*model.CardType]
	Fields           *Store[*model.Field]
	CardTypeVariants *Store[*model.CardTypeVariant]
	Cards            *Store[*model.Card]
	FieldContents    *Store[*model.FieldContent]
	SharedItems      *Store[*model.SharedItem]
}

// NewStores builds the full store set over db.
func NewStores(db *DB) *Stores {
	return &Stores{
		db:               db,
		Directories:      NewStore(db.conn, DirectorySpec()),
		Decks:            NewStore(db.conn, DeckSpec()),
		CardTypes:        NewStore(db.conn, CardTypeSpec()),
		Fields:           NewStore(db.conn, FieldSpec()),
		CardTypeVariants: NewStore(db.conn, CardTypeVariantSpec()),
		Cards:            NewStore(db.conn, CardSpec()),
		FieldContents:    NewStore(db.conn, FieldContentSpec()),
		SharedItems:      NewStore(db.conn, SharedItemSpec()),
	}
}

// InTx runs fn against a store set bound to a single transaction and
// commits it, or rolls back when fn fails.
func (s *Stores) InTx(fn func(*Stores) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(s.on(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// on rebinds every store to q, typically a shared transaction.
func (s *Stores) on(q Querier) *Stores {
	return &Stores{
		db:               s.db,
		Directories:      s.Directories.on(q),
		Decks:            s.Decks.on(q),
		CardTypes:        s.CardTypes.on(q),
		Fields:           s.Fields.on(q),
		CardTypeVariants: s.CardTypeVariants.on(q),
		Cards:            s.Cards.on(q),
		FieldContents:    s.FieldContents.on(q),
		SharedItems:      s.SharedItems.on(q),
	}
}
