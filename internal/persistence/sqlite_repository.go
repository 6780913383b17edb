package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL with synchronous=NORMAL keeps commits cheap during bulk imports.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) UpsertHands(ctx context.Context, hands []PersistedHand) (UpsertResult, error) {
	var res UpsertResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = upsertHandsTx(ctx, tx, hands)
		return err
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

func upsertHandsTx(ctx context.Context, tx *sql.Tx, hands []PersistedHand) (UpsertResult, error) {
	res := UpsertResult{}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	for _, ph := range hands {
		if ph.Hand == nil {
			res.Skipped++
			continue
		}
		h := ph.Hand
		uid := ResolveHandUID(ph)

		exists, err := rowExists(ctx, tx, `SELECT 1 FROM hands WHERE hand_uid = ? LIMIT 1`, uid)
		if err != nil {
			return UpsertResult{}, err
		}

		s := Summarize(uid, h)
		if _, err := tx.ExecContext(ctx, `INSERT INTO hands(
			hand_uid, hand_id, hand_no, table_name, small_blind, big_blind, button_seat,
			num_players, total_pot, hero, hero_cards, hero_position, hero_net, hero_won,
			board, raw_text, updated_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hand_uid) DO UPDATE SET
			hand_id=excluded.hand_id,
			hand_no=excluded.hand_no,
			table_name=excluded.table_name,
			small_blind=excluded.small_blind,
			big_blind=excluded.big_blind,
			button_seat=excluded.button_seat,
			num_players=excluded.num_players,
			total_pot=excluded.total_pot,
			hero=excluded.hero,
			hero_cards=excluded.hero_cards,
			hero_position=excluded.hero_position,
			hero_net=excluded.hero_net,
			hero_won=excluded.hero_won,
			board=excluded.board,
			raw_text=excluded.raw_text,
			updated_at=excluded.updated_at`,
			uid,
			h.ID,
			handNumber(h.ID),
			h.Table,
			h.SmallBlind,
			h.BigBlind,
			h.ButtonSeat,
			s.NumPlayers,
			s.TotalPot,
			s.Hero,
			s.HeroCards,
			s.HeroPosition,
			s.HeroNet,
			boolToInt(s.HeroWon),
			s.Board,
			h.Raw,
			now,
		); err != nil {
			return UpsertResult{}, fmt.Errorf("upsert hand %s: %w", uid, err)
		}

		if err := clearHandChildrenTx(ctx, tx, uid); err != nil {
			return UpsertResult{}, err
		}
		if err := insertHandChildrenTx(ctx, tx, uid, h); err != nil {
			return UpsertResult{}, err
		}

		if ph.Source.SourcePath != "" {
			if _, err := tx.ExecContext(ctx, `INSERT INTO hand_occurrences(
				hand_uid, source_path, start_byte, end_byte, updated_at
			) VALUES(?, ?, ?, ?, ?)
			ON CONFLICT(source_path, start_byte, end_byte) DO UPDATE SET
				hand_uid=excluded.hand_uid,
				updated_at=excluded.updated_at`,
				uid,
				ph.Source.SourcePath,
				ph.Source.StartByte,
				ph.Source.EndByte,
				now,
			); err != nil {
				return UpsertResult{}, fmt.Errorf("record occurrence of %s: %w", uid, err)
			}
		}

		if exists {
			res.Updated++
		} else {
			res.Inserted++
		}
	}
	return res, nil
}

func insertHandChildrenTx(ctx context.Context, tx *sql.Tx, uid string, h *parser.Hand) error {
	playerStmt, err := tx.PrepareContext(ctx, `INSERT INTO hand_players(
		hand_uid, name, seat, stack, position, is_hero, cards, invested
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()

	for _, p := range h.SortedPlayers() {
		if _, err := playerStmt.ExecContext(ctx,
			uid,
			p.Name,
			p.Seat,
			p.Stack,
			int(p.Position),
			boolToInt(p.Hero),
			strings.Join(p.Cards, " "),
			h.Invested[p.Name],
		); err != nil {
			return fmt.Errorf("insert player %s of %s: %w", p.Name, uid, err)
		}
	}

	payoutStmt, err := tx.PrepareContext(ctx, `INSERT INTO hand_payouts(
		hand_uid, player, amount, net
	) VALUES(?, ?, ?, ?)
	ON CONFLICT(hand_uid, player) DO UPDATE SET
		amount=excluded.amount,
		net=excluded.net`)
	if err != nil {
		return err
	}
	defer payoutStmt.Close()

	for _, w := range h.Winners {
		if _, err := payoutStmt.ExecContext(ctx, uid, w.Player, w.Amount, w.Net); err != nil {
			return fmt.Errorf("insert payout %s of %s: %w", w.Player, uid, err)
		}
	}
	return nil
}

func clearHandChildrenTx(ctx context.Context, tx *sql.Tx, uid string) error {
	for _, q := range []string{
		`DELETE FROM hand_players WHERE hand_uid = ?`,
		`DELETE FROM hand_payouts WHERE hand_uid = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, uid); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) ListHands(ctx context.Context, f HandFilter) ([]*parser.Hand, error) {
	where, args := buildHandsFilterWhere(f)
	q := `SELECT hand_uid, raw_text FROM hands` + where + ` ORDER BY hand_no DESC, hand_uid ASC` + limitClause(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list hands: %w", err)
	}
	defer rows.Close()

	var out []*parser.Hand
	for rows.Next() {
		var uid, raw string
		if err := rows.Scan(&uid, &raw); err != nil {
			return nil, err
		}
		if h := parser.ParseBlock(raw); h != nil {
			out = append(out, h)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*parser.Hand{}
	}
	return out, nil
}

func (r *SQLiteRepository) CountHands(ctx context.Context, f HandFilter) (int, error) {
	where, args := buildHandsFilterWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hands`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count hands: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListHandSummaries(ctx context.Context, f HandFilter) ([]HandSummary, int, error) {
	total, err := r.CountHands(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	where, args := buildHandsFilterWhere(f)
	q := `SELECT hand_uid, hand_id, table_name, num_players, small_blind, big_blind, total_pot,
		hero, hero_cards, hero_position, hero_net, hero_won, board
		FROM hands` + where + ` ORDER BY hand_no DESC, hand_uid ASC` + limitClause(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list hand summaries: %w", err)
	}
	defer rows.Close()

	out := make([]HandSummary, 0)
	for rows.Next() {
		var s HandSummary
		var heroWon int
		if err := rows.Scan(
			&s.HandUID,
			&s.HandID,
			&s.Table,
			&s.NumPlayers,
			&s.SmallBlind,
			&s.BigBlind,
			&s.TotalPot,
			&s.Hero,
			&s.HeroCards,
			&s.HeroPosition,
			&s.HeroNet,
			&heroWon,
			&s.Board,
		); err != nil {
			return nil, 0, err
		}
		s.HeroWon = heroWon == 1
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *SQLiteRepository) GetHandByUID(ctx context.Context, uid string) (*parser.Hand, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT raw_text FROM hands WHERE hand_uid = ?`, uid).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hand %s: %w", uid, err)
	}
	return parser.ParseBlock(raw), nil
}

func (r *SQLiteRepository) GetCursor(ctx context.Context, sourcePath string) (*ImportCursor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT source_path, next_byte_offset, file_size, mod_time,
		last_hand_uid, is_fully_imported, updated_at
		FROM import_cursors WHERE source_path = ?`, sourcePath)
	var c ImportCursor
	var modTime, updatedAt string
	var isFullyImported int
	if err := row.Scan(
		&c.SourcePath,
		&c.NextByteOffset,
		&c.FileSize,
		&modTime,
		&c.LastHandUID,
		&isFullyImported,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.IsFullyImported = isFullyImported == 1
	if t, err := time.Parse(time.RFC3339Nano, modTime); err == nil {
		c.ModTime = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		c.UpdatedAt = t
	}
	return &c, nil
}

func (r *SQLiteRepository) SaveCursor(ctx context.Context, c ImportCursor) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return saveCursorTx(ctx, tx, c)
	})
}

func (r *SQLiteRepository) SaveImportBatch(ctx context.Context, hands []PersistedHand, c ImportCursor) (UpsertResult, error) {
	var res UpsertResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = upsertHandsTx(ctx, tx, hands)
		if err != nil {
			return err
		}
		return saveCursorTx(ctx, tx, c)
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

func saveCursorTx(ctx context.Context, tx *sql.Tx, c ImportCursor) error {
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO import_cursors(
		source_path, next_byte_offset, file_size, mod_time, last_hand_uid, is_fully_imported, updated_at
	) VALUES(?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(source_path) DO UPDATE SET
		next_byte_offset=excluded.next_byte_offset,
		file_size=excluded.file_size,
		mod_time=excluded.mod_time,
		last_hand_uid=excluded.last_hand_uid,
		is_fully_imported=excluded.is_fully_imported,
		updated_at=excluded.updated_at`,
		c.SourcePath,
		c.NextByteOffset,
		c.FileSize,
		c.ModTime.UTC().Format(time.RFC3339Nano),
		c.LastHandUID,
		boolToInt(c.IsFullyImported),
		updatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("save cursor %s: %w", c.SourcePath, err)
	}
	return nil
}

func (r *SQLiteRepository) RecordImportRun(ctx context.Context, run ImportRun) error {
	var finished any
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO import_runs(
		run_id, source_path, started_at, finished_at, inserted, updated, skipped, error
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		finished_at=excluded.finished_at,
		inserted=excluded.inserted,
		updated=excluded.updated,
		skipped=excluded.skipped,
		error=excluded.error`,
		run.ID,
		run.SourcePath,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		finished,
		run.Result.Inserted,
		run.Result.Updated,
		run.Result.Skipped,
		run.Err,
	)
	if err != nil {
		return fmt.Errorf("record import run %s: %w", run.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	q := `SELECT run_id, source_path, started_at, finished_at, inserted, updated, skipped, error
		FROM import_runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var out []ImportRun
	for rows.Next() {
		var run ImportRun
		var started string
		var finished sql.NullString
		if err := rows.Scan(
			&run.ID,
			&run.SourcePath,
			&started,
			&finished,
			&run.Result.Inserted,
			&run.Result.Updated,
			&run.Result.Skipped,
			&run.Err,
		); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			run.StartedAt = t
		}
		if finished.Valid {
			if t, err := time.Parse(time.RFC3339Nano, finished.String); err == nil {
				run.FinishedAt = t
			}
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func rowExists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func buildHandsFilterWhere(f HandFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Player != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM hand_players hp WHERE hp.hand_uid = hands.hand_uid AND hp.name = ?)`)
		args = append(args, f.Player)
	}
	if f.Table != "" {
		conds = append(conds, `table_name = ?`)
		args = append(args, f.Table)
	}
	if f.HeroOnly {
		conds = append(conds, `hero <> ''`)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func limitClause(f HandFilter) string {
	offset := max(f.Offset, 0)
	switch {
	case f.Limit > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, offset)
	case offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	}
	return ""
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
