package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/alsace-van/catalog-import/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS catalog_entries (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  brand TEXT,
  supplier TEXT,
  purchasePrice REAL,
  sellPriceIncTax REAL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_catalog_entries_name ON catalog_entries(name);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS imports (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  emailId INTEGER,
  source TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(emailId) REFERENCES emails(id)
);

CREATE TABLE IF NOT EXISTS import_rows (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  importId INTEGER NOT NULL,
  rowIndex INTEGER NOT NULL,
  source TEXT NOT NULL,
  reference TEXT,
  name TEXT,
  description TEXT,
  brand TEXT,
  supplier TEXT,
  purchasePrice REAL,
  sellPriceIncTax REAL,
  weightKg REAL,
  dimensionsText TEXT,
  matchedEntryId TEXT,
  isUpdate INTEGER NOT NULL DEFAULT 0,
  oldPurchasePrice REAL,
  oldSellPrice REAL,
  priceChanged INTEGER NOT NULL DEFAULT 0,
  selected INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(importId) REFERENCES imports(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertCatalogEntries(entries []internal.CatalogEntry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO catalog_entries (id, name, brand, supplier, purchasePrice, sellPriceIncTax, lastSeenAt)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  brand=excluded.brand,
  supplier=excluded.supplier,
  purchasePrice=excluded.purchasePrice,
  sellPriceIncTax=excluded.sellPriceIncTax,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.ID.String(), e.Name, nullString(e.Brand), nullString(e.Supplier), e.PurchasePrice, e.SellPriceIncTax); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCatalogEntries() ([]internal.CatalogEntry, error) {
	rows, err := d.conn.Query(`
SELECT id, name, brand, supplier, purchasePrice, sellPriceIncTax
FROM catalog_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogEntry
	for rows.Next() {
		var e internal.CatalogEntry
		var id string
		var brand, supplier sql.NullString
		if err := rows.Scan(&id, &e.Name, &brand, &supplier, &e.PurchasePrice, &e.SellPriceIncTax); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		e.ID = parsed
		e.Brand = brand.String
		e.Supplier = supplier.String
		out = append(out, e)
	}

	return out, rows.Err()
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		var row internal.EmailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

// ClearEmailImports removes any previous import of the email so
// reprocessing starts clean.
func (d *DB) ClearEmailImports(emailID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM import_rows WHERE importId IN (SELECT id FROM imports WHERE emailId = ?)`, emailID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM imports WHERE emailId = ?`, emailID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) InsertImport(traceID string, emailID *int, source string, counts map[string]int) (int64, error) {
	countsJSON, _ := json.Marshal(counts)
	result, err := d.conn.Exec(`
INSERT INTO imports (traceId, emailId, source, countsJson) VALUES (?, ?, ?, ?)
`, traceID, emailID, source, string(countsJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) InsertImportRows(importID int64, rows []internal.ImportRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO import_rows (
  importId, rowIndex, source, reference, name, description, brand, supplier,
  purchasePrice, sellPriceIncTax, weightKg, dimensionsText,
  matchedEntryId, isUpdate, oldPurchasePrice, oldSellPrice, priceChanged, selected
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(
			importID, r.RowIndex, r.Source, r.Reference, r.Name, r.Description, r.Brand, r.Supplier,
			r.PurchasePrice, r.SellPriceIncTax, r.WeightKg, r.DimensionsText,
			r.MatchedEntryID, boolInt(r.IsUpdate), r.OldPurchasePrice, r.OldSellPrice, boolInt(r.PriceChanged), boolInt(r.Selected),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetImportRows(importID int64) ([]internal.ImportRow, error) {
	return d.queryImportRows(`
SELECT rowIndex, source, reference, name, description, brand, supplier,
       purchasePrice, sellPriceIncTax, weightKg, dimensionsText,
       matchedEntryId, isUpdate, oldPurchasePrice, oldSellPrice, priceChanged, selected
FROM import_rows WHERE importId = ?
ORDER BY isUpdate DESC, rowIndex ASC
`, importID)
}

// GetImportRowsByEmail returns the rows of the email's most recent
// import.
func (d *DB) GetImportRowsByEmail(emailID int) ([]internal.ImportRow, error) {
	var importID int64
	err := d.conn.QueryRow(`SELECT id FROM imports WHERE emailId = ? ORDER BY id DESC LIMIT 1`, emailID).Scan(&importID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.GetImportRows(importID)
}

func (d *DB) queryImportRows(query string, args ...any) ([]internal.ImportRow, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ImportRow
	for rows.Next() {
		var r internal.ImportRow
		var isUpdate, priceChanged, selected int
		if err := rows.Scan(
			&r.RowIndex, &r.Source, &r.Reference, &r.Name, &r.Description, &r.Brand, &r.Supplier,
			&r.PurchasePrice, &r.SellPriceIncTax, &r.WeightKg, &r.DimensionsText,
			&r.MatchedEntryID, &isUpdate, &r.OldPurchasePrice, &r.OldSellPrice, &priceChanged, &selected,
		); err != nil {
			return nil, err
		}
		r.IsUpdate = isUpdate != 0
		r.PriceChanged = priceChanged != 0
		r.Selected = selected != 0
		out = append(out, r)
	}

	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
