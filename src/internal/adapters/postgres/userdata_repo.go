package postgres

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

// PostgresUserDataRepo stores the catalog's native per-user reading
// progress, the table a library UI reads to render resume positions.
type PostgresUserDataRepo struct {
	db *sql.DB
}

func NewUserDataRepo(db *sql.DB) *PostgresUserDataRepo {
	return &PostgresUserDataRepo{db: db}
}

func (r *PostgresUserDataRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS user_item_data (
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			position BIGINT DEFAULT 0,
			played BOOLEAN DEFAULT FALSE,
			last_played_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (user_id, item_id)
		);
	`)
	return err
}

func (r *PostgresUserDataRepo) Get(ctx context.Context, userID, itemID string) (*domain.UserItemData, error) {
	query := `
		SELECT user_id, item_id, position, played, last_played_at
		FROM user_item_data
		WHERE user_id = $1 AND item_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, userID, itemID)

	var data domain.UserItemData
	var positionInt int64
	err := row.Scan(&data.UserID, &data.ItemID, &positionInt, &data.Played, &data.LastPlayedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data.Position = time.Duration(positionInt)
	return &data, nil
}

func (r *PostgresUserDataRepo) Save(ctx context.Context, data *domain.UserItemData, reason string) error {
	query := `
		INSERT INTO user_item_data (user_id, item_id, position, played, last_played_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			position = EXCLUDED.position,
			played = EXCLUDED.played,
			last_played_at = EXCLUDED.last_played_at;
	`
	_, err := r.db.ExecContext(ctx, query,
		data.UserID, data.ItemID, int64(data.Position), data.Played, data.LastPlayedAt)
	if err == nil {
		log.Printf("Saved user data for item %s (reason: %s)", data.ItemID, reason)
	}
	return err
}
