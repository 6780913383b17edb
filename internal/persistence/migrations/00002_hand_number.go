package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up00002, Down00002)
}

// Up00002 adds the numeric hand number used for newest-first ordering and
// backfills it from the textual hand ID. Non-numeric IDs stay at 0.
func Up00002(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `ALTER TABLE hands ADD COLUMN hand_no INTEGER NOT NULL DEFAULT 0`); err != nil {
		return fmt.Errorf("add hand_no column: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE INDEX idx_hands_hand_no ON hands(hand_no DESC, hand_uid)`); err != nil {
		return fmt.Errorf("create hand_no index: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT hand_uid, hand_id FROM hands`)
	if err != nil {
		return fmt.Errorf("select hand ids: %w", err)
	}
	numbers := make(map[string]int64)
	for rows.Next() {
		var uid, id string
		if err := rows.Scan(&uid, &id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan hand id: %w", err)
		}
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			numbers[uid] = n
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for uid, n := range numbers {
		if _, err := tx.ExecContext(ctx, `UPDATE hands SET hand_no = ? WHERE hand_uid = ?`, n, uid); err != nil {
			return fmt.Errorf("backfill hand_no for %s: %w", uid, err)
		}
	}
	return nil
}

func Down00002(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_hands_hand_no`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `ALTER TABLE hands DROP COLUMN hand_no`)
	return err
}
