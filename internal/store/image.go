package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/module"
)

// SaveModule replaces the stored image with mod's types and attributes.
// Reference modules are not stored.
func (s *Store) SaveModule(ctx context.Context, mod *module.Module) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range []string{
		"DELETE FROM types",
		"DELETE FROM attributes",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear image: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO module_info (key, value) VALUES ('name', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, mod.Name); err != nil {
		return fmt.Errorf("write module name: %w", err)
	}

	for i, t := range mod.Types() {
		rec, err := ir.RecordOf(t)
		if err != nil {
			return fmt.Errorf("record %s: %w", t.FullName(), err)
		}
		fp, err := ir.TypeFingerprint(t)
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", t.FullName(), err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", t.FullName(), err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO types (seq, full_name, fingerprint, record)
			VALUES (?, ?, ?, ?)
		`, i, t.FullName(), fp, string(data)); err != nil {
			return fmt.Errorf("insert type %s: %w", t.FullName(), err)
		}
	}

	for i, a := range mod.Attributes() {
		rec, err := ir.AttributeRecordOf(a)
		if err != nil {
			return err
		}
		fp, err := ir.AttributeFingerprint(a)
		if err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal attribute %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attributes (seq, attr_type, fingerprint, record)
			VALUES (?, ?, ?, ?)
		`, i, a.AttributeType().FullName, fp, string(data)); err != nil {
			return fmt.Errorf("insert attribute %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadModule rebuilds the stored image as a module named name that
// resolves against refs. An empty store yields an empty module.
func (s *Store) LoadModule(ctx context.Context, name string, refs ...*module.Module) (*module.Module, error) {
	mod := module.New(name, refs...)

	rows, err := s.db.QueryContext(ctx, "SELECT full_name, record FROM types ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fullName, data string
		if err := rows.Scan(&fullName, &data); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		var rec ir.TypeRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", fullName, err)
		}
		t, err := rec.Build()
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", fullName, err)
		}
		if err := mod.AddType(t); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate types: %w", err)
	}

	attrs, err := s.db.QueryContext(ctx, "SELECT seq, record FROM attributes ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer attrs.Close()

	for attrs.Next() {
		var seq int
		var data string
		if err := attrs.Scan(&seq, &data); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		var rec ir.AttributeRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal attribute %d: %w", seq, err)
		}
		a, err := rec.Build()
		if err != nil {
			return nil, err
		}
		mod.AddAttribute(a)
	}
	if err := attrs.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}

	return mod, nil
}

// ModuleName returns the name the image was last saved under.
func (s *Store) ModuleName(ctx context.Context) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM module_info WHERE key = 'name'").Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query module name: %w", err)
	}
	return name, true, nil
}

// TypeFingerprints returns the stored fingerprint of every top-level type
// keyed by full name.
func (s *Store) TypeFingerprints(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT full_name, fingerprint FROM types")
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, fp string
		if err := rows.Scan(&name, &fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		out[name] = fp
	}
	return out, rows.Err()
}
