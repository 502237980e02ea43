package packages

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	_ "modernc.org/sqlite"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS packages (
	name       TEXT NOT NULL,
	version    TEXT NOT NULL,
	path       TEXT NOT NULL,
	size       INTEGER NOT NULL,
	fetched_at TIMESTAMP NOT NULL,
	PRIMARY KEY (name, version)
);`

// Entry is one cached package.
type Entry struct {
	Name      string
	Version   string
	Path      string
	Size      int64
	FetchedAt time.Time
}

// Cache is the local package store: downloaded package files under a cache
// directory, indexed by a sqlite database.
type Cache struct {
	db  *sql.DB
	dir string
}

// OpenCache opens (creating if needed) the cache rooted at dir.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating cache dir %s", dir)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, errors.Wrap(err, "opening cache index")
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing cache index")
	}
	return &Cache{db: db, dir: dir}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Dir returns the cache's root directory.
func (c *Cache) Dir() string {
	return c.dir
}

// PackagePath is where a given package version's file lives in the cache.
func (c *Cache) PackagePath(name, version string) string {
	return filepath.Join(c.dir, name+"-"+version+".el")
}

// Put stores a downloaded package file and indexes it. Re-putting the same
// name and version replaces the previous entry.
func (c *Cache) Put(name, version string, data []byte) (*Entry, error) {
	path := c.PackagePath(name, version)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, errors.Wrapf(err, "storing package %s@%s", name, version)
	}
	entry := &Entry{
		Name:      name,
		Version:   version,
		Path:      path,
		Size:      int64(len(data)),
		FetchedAt: time.Now().UTC(),
	}
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO packages (name, version, path, size, fetched_at) VALUES (?, ?, ?, ?, ?)`,
		entry.Name, entry.Version, entry.Path, entry.Size, entry.FetchedAt,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "indexing package %s@%s", name, version)
	}
	return entry, nil
}

// Get looks a package version up in the index. The second result reports
// whether it was found.
func (c *Cache) Get(name, version string) (*Entry, bool, error) {
	var e Entry
	err := c.db.QueryRow(
		`SELECT name, version, path, size, fetched_at FROM packages WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&e.Name, &e.Version, &e.Path, &e.Size, &e.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "looking up %s@%s", name, version)
	}
	return &e, true, nil
}

// List returns all cached packages sorted by name, then version.
func (c *Cache) List() ([]Entry, error) {
	rows, err := c.db.Query(`SELECT name, version, path, size, fetched_at FROM packages`)
	if err != nil {
		return nil, errors.Wrap(err, "listing cache")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Version, &e.Path, &e.Size, &e.FetchedAt); err != nil {
			return nil, errors.Wrap(err, "scanning cache row")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "listing cache")
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}
			return 1
		}
		if a.Version < b.Version {
			return -1
		}
		if a.Version > b.Version {
			return 1
		}
		return 0
	})
	return entries, nil
}

// Clear removes every cached package file and empties the index.
func (c *Cache) Clear() error {
	entries, err := c.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", e.Path)
		}
	}
	_, err = c.db.Exec(`DELETE FROM packages`)
	return errors.Wrap(err, "clearing cache index")
}
