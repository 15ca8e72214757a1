package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

type PostgresLibraryRepo struct {
	db *sql.DB
}

func NewLibraryRepo(db *sql.DB) *PostgresLibraryRepo {
	return &PostgresLibraryRepo{db: db}
}

func (r *PostgresLibraryRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS library_items (
			id VARCHAR(255) PRIMARY KEY,
			path TEXT NOT NULL,
			title TEXT NOT NULL,
			kind VARCHAR(50),
			duration BIGINT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

func (r *PostgresLibraryRepo) Save(ctx context.Context, item *domain.LibraryItem) error {
	query := `
		INSERT INTO library_items (id, path, title, kind, duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			path = EXCLUDED.path,
			title = EXCLUDED.title,
			kind = EXCLUDED.kind,
			duration = EXCLUDED.duration;
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Path,
		item.Title,
		string(item.Kind),
		int64(item.Duration),
		item.CreatedAt,
	)
	return err
}

func (r *PostgresLibraryRepo) GetByID(ctx context.Context, id string) (*domain.LibraryItem, error) {
	query := `
		SELECT id, path, title, kind, duration, created_at
		FROM library_items
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PostgresLibraryRepo) ListByKind(ctx context.Context, kinds ...domain.ItemKind) ([]domain.LibraryItem, error) {
	query := `
		SELECT id, path, title, kind, duration, created_at
		FROM library_items
		WHERE kind = ANY($1)
		ORDER BY title ASC
	`
	kindStrs := make([]string, len(kinds))
	for i, k := range kinds {
		kindStrs[i] = string(k)
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(kindStrs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.LibraryItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanItem(scan func(dest ...any) error) (*domain.LibraryItem, error) {
	var item domain.LibraryItem
	var kindStr string
	var durationInt int64

	err := scan(
		&item.ID,
		&item.Path,
		&item.Title,
		&kindStr,
		&durationInt,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Kind = domain.ItemKind(kindStr)
	item.Duration = time.Duration(durationInt)
	return &item, nil
}
