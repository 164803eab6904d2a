package freshkeep

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Store persists unit reference data and inventory ledgers in SQLite. It
// implements UnitLookup.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open store: init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS units (
			id TEXT PRIMARY KEY,
			abbreviation TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			factor REAL NOT NULL,
			family TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS inventories (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT NOT NULL,
			inventory_id TEXT NOT NULL REFERENCES inventories(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			unit_id TEXT NOT NULL REFERENCES units(id),
			PRIMARY KEY (inventory_id, id)
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			inventory_id TEXT NOT NULL REFERENCES inventories(id),
			type INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS transaction_items (
			transaction_id TEXT NOT NULL REFERENCES transactions(id),
			line INTEGER NOT NULL,
			item_id TEXT NOT NULL,
			quantity REAL NOT NULL,
			unit_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			balance INTEGER NOT NULL,
			PRIMARY KEY (transaction_id, line)
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

// ---------------------------------------------------------------------------
// Units
// ---------------------------------------------------------------------------

func (s *Store) SaveUnit(ctx context.Context, u Unit) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO units (id, abbreviation, name, factor, family) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Abbreviation, u.Name, u.Factor, string(u.Family))
	if isConstraint(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateUnit, u.Abbreviation)
	}
	return err
}

// SeedUnits inserts the units that are not stored yet and reports how many
// were added.
func (s *Store) SeedUnits(ctx context.Context, units ...Unit) (int, error) {
	added := 0
	for _, u := range units {
		if err := u.Validate(); err != nil {
			return added, err
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO units (id, abbreviation, name, factor, family) VALUES (?, ?, ?, ?, ?)`,
			u.ID, u.Abbreviation, u.Name, u.Factor, string(u.Family))
		if err != nil {
			return added, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}

// Unit reads a unit as stored; corrupt rows are returned unvalidated so the
// conversion layer can report them.
func (s *Store) Unit(ctx context.Context, id string) (Unit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, abbreviation, name, factor, family FROM units WHERE id = ?`, id)
	u, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Unit{}, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	return u, err
}

func (s *Store) UnitByAbbreviation(ctx context.Context, abbr string) (Unit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, abbreviation, name, factor, family FROM units
		WHERE abbreviation = ? OR abbreviation = ? COLLATE NOCASE
		ORDER BY abbreviation = ? DESC LIMIT 1`, abbr, abbr, abbr)
	u, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Unit{}, fmt.Errorf("%w: %q", ErrUnitNotFound, abbr)
	}
	return u, err
}

func (s *Store) ListUnits(ctx context.Context) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, abbreviation, name, factor, family FROM units`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var units []Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortUnits(units)
	return units, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUnit(row scanner) (Unit, error) {
	var u Unit
	var family string
	if err := row.Scan(&u.ID, &u.Abbreviation, &u.Name, &u.Factor, &family); err != nil {
		return Unit{}, err
	}
	u.Family = Family(family)
	return u, nil
}

// ---------------------------------------------------------------------------
// Ledger
// ---------------------------------------------------------------------------

func (s *Store) SaveInventory(ctx context.Context, inv *Inventory) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inventories (id, parent_id, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET parent_id = excluded.parent_id, name = excluded.name`,
		inv.ID, inv.ParentID, inv.Name)
	return err
}

// InventoryInfo is a stored storage area row.
type InventoryInfo struct {
	ID       string
	ParentID string
	Name     string
}

// CheckParent reports whether id may be nested under parentID given the
// stored areas: the parent must exist and must not sit below id.
func CheckParent(areas []InventoryInfo, id, parentID string) error {
	if parentID == "" {
		return nil
	}
	parents := make(map[string]string, len(areas))
	for _, a := range areas {
		parents[a.ID] = a.ParentID
	}
	if _, ok := parents[parentID]; !ok {
		return fmt.Errorf("%w: parent %q", ErrUnknownArea, parentID)
	}
	seen := make(map[string]bool)
	for cur := parentID; cur != ""; cur = parents[cur] {
		if cur == id || seen[cur] {
			return fmt.Errorf("%w: %s under %s", ErrAreaCycle, id, parentID)
		}
		seen[cur] = true
	}
	return nil
}

func (s *Store) Inventories(ctx context.Context) ([]InventoryInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, parent_id, name FROM inventories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InventoryInfo
	for rows.Next() {
		var info InventoryInfo
		if err := rows.Scan(&info.ID, &info.ParentID, &info.Name); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *Store) SaveItem(ctx context.Context, inventoryID string, item Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, inventory_id, name, description, unit_id) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(inventory_id, id) DO UPDATE SET
			name = excluded.name, description = excluded.description, unit_id = excluded.unit_id`,
		item.ID, inventoryID, item.Name, item.Description, item.UnitID)
	return err
}

func (s *Store) Items(ctx context.Context, inventoryID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, unit_id FROM items WHERE inventory_id = ? ORDER BY name`, inventoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.UnitID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SaveTransactions upserts txs and replaces their lines in one database
// transaction.
func (s *Store) SaveTransactions(ctx context.Context, txs ...Transaction) (err error) {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = dbtx.Rollback()
		}
	}()
	for _, tx := range txs {
		if _, err = dbtx.ExecContext(ctx,
			`INSERT INTO transactions (id, inventory_id, type, timestamp, note) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET type = excluded.type, timestamp = excluded.timestamp, note = excluded.note`,
			tx.ID, tx.InventoryID, tx.Type, tx.Timestamp.UTC().Format(time.RFC3339Nano), tx.Note); err != nil {
			return fmt.Errorf("persist transaction %s: %w", tx.ID, err)
		}
		if _, err = dbtx.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = ?`, tx.ID); err != nil {
			return err
		}
		for i, item := range tx.Items {
			if _, err = dbtx.ExecContext(ctx,
				`INSERT INTO transaction_items (transaction_id, line, item_id, quantity, unit_id, amount, balance)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				tx.ID, i, item.ItemID, item.Quantity, item.UnitID, item.Amount, item.Balance); err != nil {
				return fmt.Errorf("persist transaction %s line %d: %w", tx.ID, i, err)
			}
		}
	}
	return dbtx.Commit()
}

// Transactions returns the ledger of inventoryID in insertion order.
func (s *Store) Transactions(ctx context.Context, inventoryID string) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, timestamp, note FROM transactions WHERE inventory_id = ? ORDER BY rowid`, inventoryID)
	if err != nil {
		return nil, err
	}
	var txs []Transaction
	index := make(map[string]int)
	for rows.Next() {
		var tx Transaction
		var ts string
		if err := rows.Scan(&tx.ID, &tx.Type, &ts, &tx.Note); err != nil {
			rows.Close()
			return nil, err
		}
		if tx.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("transaction %s: bad timestamp %q: %w", tx.ID, ts, err)
		}
		tx.InventoryID = inventoryID
		index[tx.ID] = len(txs)
		txs = append(txs, tx)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := s.db.QueryContext(ctx,
		`SELECT transaction_id, item_id, quantity, unit_id, amount, balance FROM transaction_items
		WHERE transaction_id IN (SELECT id FROM transactions WHERE inventory_id = ?)
		ORDER BY transaction_id, line`, inventoryID)
	if err != nil {
		return nil, err
	}
	defer lines.Close()
	for lines.Next() {
		var txID string
		var item TransactionItem
		if err := lines.Scan(&txID, &item.ItemID, &item.Quantity, &item.UnitID, &item.Amount, &item.Balance); err != nil {
			return nil, err
		}
		if i, ok := index[txID]; ok {
			txs[i].Items = append(txs[i].Items, item)
		}
	}
	return txs, lines.Err()
}
