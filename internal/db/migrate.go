package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

type migration struct {
	name string
	sql  string
}

// RunMigrations applies pending schema migrations in name order. Applied
// names are recorded in schema_migrations, so reruns only execute what is
// new. When dir is set and exists, its *.sql files take precedence over the
// embedded set.
func RunMigrations(db *sql.DB, dir string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("init schema_migrations: %w", err)
	}
	migs, err := loadMigrations(dir)
	if err != nil {
		return err
	}
	for _, m := range migs {
		if strings.TrimSpace(m.sql) == "" {
			continue
		}
		var seen int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, m.name).Scan(&seen); err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if seen > 0 {
			continue
		}
		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (name) VALUES (?)`, m.name); err != nil {
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
	}
	return nil
}

func loadMigrations(dir string) ([]migration, error) {
	var fsys fs.FS = embeddedMigrations
	root := "migrations"
	if dir != "" {
		if _, err := os.Stat(dir); err == nil {
			fsys = os.DirFS(dir)
			root = "."
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read migrations dir: %w", err)
		}
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	out := make([]migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, migration{name: e.Name(), sql: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}
