package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore хранит коллекции в таблице collection_records.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore создает новый экземпляр PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type collectionRecord struct {
	Key  string `db:"record_key"`
	Data []byte `db:"data"`
}

// LoadCollection возвращает все записи коллекции.
func (s *PostgresStore) LoadCollection(ctx context.Context, name string) (map[string]json.RawMessage, error) {
	var rows []collectionRecord
	err := s.db.SelectContext(ctx, &rows, `
        SELECT record_key, data
        FROM collection_records
        WHERE collection = $1
    `, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %s: %w", name, err)
	}

	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Key] = json.RawMessage(row.Data)
	}
	return out, nil
}

// SaveCollection заменяет содержимое коллекции одной транзакцией.
func (s *PostgresStore) SaveCollection(ctx context.Context, name string, records map[string]json.RawMessage) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	keys := make([]string, 0, len(records))
	for key, data := range records {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO collection_records (collection, record_key, data, updated_at)
            VALUES ($1, $2, $3, NOW())
            ON CONFLICT (collection, record_key) DO UPDATE
            SET data = EXCLUDED.data,
                updated_at = EXCLUDED.updated_at
        `, name, key, []byte(data))
		if err != nil {
			return fmt.Errorf("failed to upsert %s/%s: %w", name, key, err)
		}
		keys = append(keys, key)
	}

	_, err = tx.ExecContext(ctx, `
        DELETE FROM collection_records
        WHERE collection = $1 AND NOT (record_key = ANY($2))
    `, name, pq.Array(keys))
	if err != nil {
		return fmt.Errorf("failed to prune %s: %w", name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
