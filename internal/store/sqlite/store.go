// Package sqlite provides a SQLite-backed player store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xtding233/progression-core/internal/catalog"
	"github.com/xtding233/progression-core/internal/ledger"
	"github.com/xtding233/progression-core/internal/store"
	"github.com/xtding233/progression-core/internal/store/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists profiles across normalized tables. One connection is kept
// open; every Load and Save runs in a single transaction on it.
type Store struct {
	sqlDB    *sql.DB
	defaults store.Defaults
	now      func() time.Time
}

var _ store.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string, defaults store.Defaults) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if defaults == nil {
		return nil, fmt.Errorf("default profile factory is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, defaults: defaults, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Load(ctx context.Context, playerID string) (ledger.Profile, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Profile{}, err
	}
	if err := store.CheckID(playerID); err != nil {
		return ledger.Profile{}, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Profile{}, fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := loadProfile(ctx, tx, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		p = s.defaults()
		p.Normalize()
		if err := writeProfile(ctx, tx, playerID, p, s.now()); err != nil {
			return ledger.Profile{}, err
		}
		if err := tx.Commit(); err != nil {
			return ledger.Profile{}, fmt.Errorf("commit new player: %w", err)
		}
		p.EnergyLastUpdate = fromMillis(toMillis(p.EnergyLastUpdate))
		return p, nil
	}
	if err != nil {
		return ledger.Profile{}, err
	}
	if err := tx.Commit(); err != nil {
		return ledger.Profile{}, fmt.Errorf("commit load: %w", err)
	}
	return p, nil
}

func (s *Store) Save(ctx context.Context, playerID string, p ledger.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.CheckID(playerID); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := writeProfile(ctx, tx, playerID, p, s.now()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func loadProfile(ctx context.Context, tx *sql.Tx, playerID string) (ledger.Profile, error) {
	var (
		p          ledger.Profile
		lastUpdate int64
		guaranteed int
	)
	err := tx.QueryRowContext(ctx,
		`SELECT currency, energy, energy_last_update, attack, hp, crit_rate, crit_dmg,
		        pity_4star, pity_5star, is_guaranteed
		 FROM players WHERE player_id = ?`, playerID,
	).Scan(
		&p.Currency, &p.Energy, &lastUpdate,
		&p.Stats.Attack, &p.Stats.HP, &p.Stats.CritRate, &p.Stats.CritDmg,
		&p.Pity4, &p.Pity5, &guaranteed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Profile{}, err
	}
	if err != nil {
		return ledger.Profile{}, fmt.Errorf("load player %s: %w", playerID, err)
	}
	p.EnergyLastUpdate = fromMillis(lastUpdate)
	p.Guaranteed = guaranteed != 0
	p.Normalize()

	if err := loadCharacters(ctx, tx, playerID, &p); err != nil {
		return ledger.Profile{}, err
	}
	if err := loadArtifacts(ctx, tx, playerID, &p); err != nil {
		return ledger.Profile{}, err
	}
	if err := loadEquipped(ctx, tx, playerID, &p); err != nil {
		return ledger.Profile{}, err
	}
	if err := loadDungeons(ctx, tx, playerID, &p); err != nil {
		return ledger.Profile{}, err
	}
	return p, nil
}

func loadCharacters(ctx context.Context, tx *sql.Tx, playerID string, p *ledger.Profile) error {
	rows, err := tx.QueryContext(ctx, `SELECT name, copies FROM player_characters WHERE player_id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("load characters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var copies int
		if err := rows.Scan(&name, &copies); err != nil {
			return fmt.Errorf("scan character: %w", err)
		}
		p.Characters[name] = copies
	}
	return rows.Err()
}

func loadArtifacts(ctx context.Context, tx *sql.Tx, playerID string, p *ledger.Profile) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT set_id, slot, main_stat, sub_stat_1, sub_stat_2, level
		 FROM player_artifacts WHERE player_id = ? ORDER BY ordinal`, playerID)
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a ledger.ArtifactInstance
		var slot string
		if err := rows.Scan(&a.Set, &slot, &a.MainStat, &a.SubStats[0], &a.SubStats[1], &a.Level); err != nil {
			return fmt.Errorf("scan artifact: %w", err)
		}
		a.Slot = catalog.Slot(slot)
		p.Artifacts = append(p.Artifacts, a)
	}
	return rows.Err()
}

func loadEquipped(ctx context.Context, tx *sql.Tx, playerID string, p *ledger.Profile) error {
	rows, err := tx.QueryContext(ctx, `SELECT slot, artifact_ordinal FROM player_equipped WHERE player_id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("load equipped: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var slot string
		var ref int
		if err := rows.Scan(&slot, &ref); err != nil {
			return fmt.Errorf("scan equipped: %w", err)
		}
		p.Equipped[catalog.Slot(slot)] = ledger.ArtifactRef(ref)
	}
	return rows.Err()
}

func loadDungeons(ctx context.Context, tx *sql.Tx, playerID string, p *ledger.Profile) error {
	rows, err := tx.QueryContext(ctx, `SELECT set_id, level FROM player_dungeons WHERE player_id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("load dungeons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var set string
		var level int
		if err := rows.Scan(&set, &level); err != nil {
			return fmt.Errorf("scan dungeon: %w", err)
		}
		p.DungeonProgress[set] = level
	}
	return rows.Err()
}

// writeProfile upserts the player row and replaces every child row.
func writeProfile(ctx context.Context, tx *sql.Tx, playerID string, p ledger.Profile, now time.Time) error {
	guaranteed := 0
	if p.Guaranteed {
		guaranteed = 1
	}
	stamp := toMillis(now)
	// updated_at only moves when a player column changes, so saving a loaded
	// profile unchanged leaves the row as it was.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO players (
		   player_id, currency, energy, energy_last_update,
		   attack, hp, crit_rate, crit_dmg,
		   pity_4star, pity_5star, is_guaranteed,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET
		   currency = excluded.currency,
		   energy = excluded.energy,
		   energy_last_update = excluded.energy_last_update,
		   attack = excluded.attack,
		   hp = excluded.hp,
		   crit_rate = excluded.crit_rate,
		   crit_dmg = excluded.crit_dmg,
		   pity_4star = excluded.pity_4star,
		   pity_5star = excluded.pity_5star,
		   is_guaranteed = excluded.is_guaranteed,
		   updated_at = excluded.updated_at
		 WHERE currency IS NOT excluded.currency
		    OR energy IS NOT excluded.energy
		    OR energy_last_update IS NOT excluded.energy_last_update
		    OR attack IS NOT excluded.attack
		    OR hp IS NOT excluded.hp
		    OR crit_rate IS NOT excluded.crit_rate
		    OR crit_dmg IS NOT excluded.crit_dmg
		    OR pity_4star IS NOT excluded.pity_4star
		    OR pity_5star IS NOT excluded.pity_5star
		    OR is_guaranteed IS NOT excluded.is_guaranteed`,
		playerID, p.Currency, p.Energy, toMillis(p.EnergyLastUpdate),
		p.Stats.Attack, p.Stats.HP, p.Stats.CritRate, p.Stats.CritDmg,
		p.Pity4, p.Pity5, guaranteed,
		stamp, stamp,
	); err != nil {
		return fmt.Errorf("save player %s: %w", playerID, err)
	}

	for _, table := range []string{"player_characters", "player_artifacts", "player_equipped", "player_dungeons"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE player_id = ?`, playerID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for name, copies := range p.Characters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_characters (player_id, name, copies) VALUES (?, ?, ?)`,
			playerID, name, copies,
		); err != nil {
			return fmt.Errorf("save character %s: %w", name, err)
		}
	}
	for i, a := range p.Artifacts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_artifacts (player_id, ordinal, set_id, slot, main_stat, sub_stat_1, sub_stat_2, level)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			playerID, i, a.Set, string(a.Slot), a.MainStat, a.SubStats[0], a.SubStats[1], a.Level,
		); err != nil {
			return fmt.Errorf("save artifact %d: %w", i, err)
		}
	}
	for slot, ref := range p.Equipped {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_equipped (player_id, slot, artifact_ordinal) VALUES (?, ?, ?)`,
			playerID, string(slot), int(ref),
		); err != nil {
			return fmt.Errorf("save equipped %s: %w", slot, err)
		}
	}
	for set, level := range p.DungeonProgress {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_dungeons (player_id, set_id, level) VALUES (?, ?, ?)`,
			playerID, set, level,
		); err != nil {
			return fmt.Errorf("save dungeon %s: %w", set, err)
		}
	}
	return nil
}
