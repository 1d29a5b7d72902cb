// Package migrations registers the embedded custody schema with a
// persistence client for each supported dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"

	custody "github.com/goliatone/go-custody"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	defaultSourceLabel = "go-custody"
	migrationsPath     = "data/sql/migrations"
)

type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithValidationTargets limits registration to the listed dialects.
func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		if next := normalizeDialects(targets); len(next) > 0 {
			r.ValidationTargets = next
		}
	}
}

// WithSource replaces the embedded tree, e.g. to layer host migrations.
func WithSource(root fs.FS) Option {
	return func(r *Registration) {
		if root == nil {
			return
		}
		filesystems, err := Filesystems(root)
		if err != nil {
			return
		}
		r.Filesystems = filesystems
	}
}

// Filesystems resolves the postgres root and sqlite subtree of root, or of
// the embedded custody tree when root is omitted.
func Filesystems(sources ...fs.FS) ([]FilesystemSpec, error) {
	root := custody.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}

	base, basePath, err := migrationsRoot(root)
	if err != nil {
		return nil, err
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
	}

	filesystems := []FilesystemSpec{
		{Dialect: DialectPostgres, Path: basePath, FS: base},
		{Dialect: DialectSQLite, Path: pathJoin(basePath, "sqlite"), FS: sqliteFS},
	}
	for _, entry := range filesystems {
		if _, err := UpMigrations(entry.FS); err != nil {
			return nil, fmt.Errorf("migrations: %s filesystem %q: %w", entry.Dialect, entry.Path, err)
		}
	}
	return filesystems, nil
}

// UpMigrations lists the *.up.sql files of fsys in apply order.
func UpMigrations(fsys fs.FS) ([]string, error) {
	matches, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no *.up.sql files")
	}
	sort.Strings(matches)
	return matches, nil
}

func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       defaultSourceLabel,
		ValidationTargets: []string{DialectPostgres, DialectSQLite},
	}
	filesystems, err := Filesystems()
	if err != nil {
		return reg, err
	}
	reg.Filesystems = filesystems

	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}

	switch {
	case registerFn == nil:
		return reg, fmt.Errorf("migrations: register function is required")
	case len(reg.ValidationTargets) == 0:
		return reg, fmt.Errorf("migrations: validation targets are required")
	case len(reg.Filesystems) == 0:
		return reg, fmt.Errorf("migrations: filesystems are required")
	}

	for _, entry := range reg.Filesystems {
		if !slices.Contains(reg.ValidationTargets, entry.Dialect) {
			continue
		}
		if err := registerFn(ctx, entry.Dialect, reg.SourceLabel, entry.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", entry.Dialect, entry.Path, err)
		}
	}
	return reg, nil
}

func migrationsRoot(root fs.FS) (fs.FS, string, error) {
	if _, err := fs.Stat(root, migrationsPath); err == nil {
		sub, subErr := fs.Sub(root, migrationsPath)
		if subErr != nil {
			return nil, "", fmt.Errorf("migrations: open %s: %w", migrationsPath, subErr)
		}
		return sub, migrationsPath, nil
	}
	if matches, _ := fs.Glob(root, "*.sql"); len(matches) > 0 {
		return root, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: %s not found", migrationsPath)
}

func normalizeDialects(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed == "" || slices.Contains(out, trimmed) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func pathJoin(base string, suffix string) string {
	if base == "." {
		return suffix
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(suffix, "/")
}
