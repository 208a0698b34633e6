/*
Package sqlite provides a SQLite-backed implementation of the tabular.Service
contract.

PURPOSE:
  Implements the read path the hedge engine depends on (column introspection,
  filtered/ordered/limited selects) plus the write helpers used only by
  scenario seeding and tests. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  The full set of logical tables consumed by one hedge-inception evaluation:
  entity/position masters, stage-1A configuration, allocation/hedge/CAR data,
  threshold and monitoring tables, currency configuration and rates, and the
  stage-2 booking tables. See tableDDL for the canonical list.

QUERY TRANSLATION:
  tabular.Query values are translated to parameterized SELECTs. Identifiers
  (table and column names) are validated against a strict pattern before being
  spliced into SQL; all values travel as placeholders. Caller input such as
  currency codes therefore never reaches the SQL text.

INTROSPECTION:
  Columns() uses PRAGMA table_info, so columns are discoverable even on empty
  tables. The schema-drift adapter caches these results per process.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/hedge.db", log)
  if err != nil {
      log.Fatal().Err(err).Msg("open store")
  }
  defer store.Close()

SEE ALSO:
  - tabular/types.go: Service contract
  - tabular/store/memory.go: in-memory implementation for unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/hawk/hedge-engine/tabular"
)

// Store implements tabular.Service using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	log zerolog.Logger
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, log: log}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// SCHEMA
// =============================================================================

// tableDDL holds the canonical schema for every logical table the engine
// queries. Column sets follow the upstream reference schema; environments are
// known to drift from it, which is exactly what the adapter layer absorbs.
var tableDDL = map[string]string{
	"entity_master": `(
		entity_id TEXT, entity_name TEXT, entity_type TEXT,
		currency_code TEXT, car_exemption_flag TEXT,
		parent_child_nav_link INTEGER, created_at TEXT)`,
	"position_nav_master": `(
		entity_id TEXT, nav_type TEXT, currency_code TEXT,
		current_position REAL, computed_total_nav REAL, optimal_car_amount REAL,
		buffer_percentage REAL, buffer_amount REAL, manual_overlay REAL,
		allocation_status TEXT, created_at TEXT)`,
	"buffer_configuration": `(
		entity_id TEXT, currency_code TEXT, buffer_percentage REAL,
		active_flag TEXT, created_at TEXT)`,
	"waterfall_logic_configuration": `(
		waterfall_type TEXT, priority_level INTEGER, allocation_rule TEXT,
		active_flag TEXT, created_date TEXT)`,
	"overlay_configuration": `(
		currency_code TEXT, overlay_type TEXT, active_flag TEXT, created_at TEXT)`,
	"hedging_framework": `(
		entity_id TEXT, currency_code TEXT, framework_type TEXT,
		car_exemption_flag TEXT, car_exemption_override TEXT,
		active_flag TEXT, created_at TEXT)`,
	"system_configuration": `(
		config_key TEXT, config_value TEXT, active_flag TEXT)`,
	"allocation_engine": `(
		entity_id TEXT, currency_code TEXT,
		hedge_amount_allocation REAL, available_amount_for_hedging REAL,
		hedged_position REAL, car_amount_distribution REAL,
		manual_overlay_amount REAL, buffer_amount REAL,
		waterfall_priority INTEGER, allocation_sequence INTEGER,
		allocation_status TEXT, created_date TEXT)`,
	"hedge_instructions": `(
		instruction_id TEXT, exposure_currency TEXT, instruction_type TEXT,
		hedge_method TEXT, hedge_amount REAL, created_date TEXT)`,
	"hedge_business_events": `(
		event_id TEXT, entity_id TEXT, nav_type TEXT,
		notional_amount REAL, event_status TEXT, created_date TEXT)`,
	"car_master": `(
		entity_id TEXT, currency_code TEXT, car_amount REAL, reporting_date TEXT)`,
	"threshold_configuration": `(
		threshold_type TEXT, warning_level REAL, active_flag TEXT)`,
	"usd_pb_deposit": `(
		account_id TEXT, total_usd_deposits REAL, as_of_date TEXT)`,
	"risk_monitoring": `(
		currency_code TEXT, risk_level TEXT, monitoring_status TEXT, created_at TEXT)`,
	"currency_configuration": `(
		currency_code TEXT, currency_type TEXT, proxy_currency TEXT, active_flag TEXT)`,
	"currency_rates": `(
		currency_pair TEXT, rate REAL, effective_date TEXT)`,
	"proxy_configuration": `(
		currency_code TEXT, proxy_currency TEXT, active_flag TEXT)`,
	"instruction_event_config": `(
		instruction_event TEXT, nav_type TEXT, currency_type TEXT,
		booking_model TEXT, active_flag TEXT)`,
	"murex_book_config": `(
		book_code TEXT, portfolio TEXT, active_flag TEXT)`,
	"hedge_instruments": `(
		currency_code TEXT, instrument_type TEXT, active_flag TEXT)`,
	"hedge_effectiveness": `(
		currency_code TEXT, effectiveness_ratio REAL, effectiveness_date TEXT)`,
}

func (s *Store) migrate() error {
	for table, ddl := range tableDDL {
		if _, err := s.db.Exec("CREATE TABLE IF NOT EXISTS " + table + " " + ddl); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_entity_master_currency ON entity_master(currency_code)",
		"CREATE INDEX IF NOT EXISTS idx_position_nav_currency ON position_nav_master(currency_code)",
		"CREATE INDEX IF NOT EXISTS idx_allocation_engine_currency ON allocation_engine(currency_code)",
		"CREATE INDEX IF NOT EXISTS idx_allocation_engine_entity ON allocation_engine(entity_id)",
		"CREATE INDEX IF NOT EXISTS idx_hedge_events_entity ON hedge_business_events(entity_id)",
		"CREATE INDEX IF NOT EXISTS idx_car_master_entity ON car_master(entity_id)",
		"CREATE INDEX IF NOT EXISTS idx_currency_rates_pair ON currency_rates(currency_pair)",
	}
	for _, idx := range indexes {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Tables returns the known logical table names, sorted.
func Tables() []string {
	names := make([]string, 0, len(tableDDL))
	for name := range tableDDL {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// TABULAR SERVICE
// =============================================================================

// Columns returns the column names of a table via PRAGMA table_info.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			dfltValue  sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dfltValue, &primaryKey); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}
	return names, nil
}

// Execute translates a tabular.Query to a parameterized SELECT and runs it.
func (s *Store) Execute(ctx context.Context, q tabular.Query) (tabular.Result, error) {
	query, args, err := buildSelect(q)
	if err != nil {
		return tabular.Result{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return tabular.Result{}, fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return tabular.Result{}, err
	}

	var data []tabular.Row
	for rows.Next() {
		values := make([]any, len(columns))
		scans := make([]any, len(columns))
		for i := range values {
			scans[i] = &values[i]
		}
		if err := rows.Scan(scans...); err != nil {
			return tabular.Result{}, fmt.Errorf("scan %s: %w", q.Table, err)
		}
		row := make(tabular.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return tabular.Result{}, err
	}
	return tabular.Result{Data: data}, nil
}

func buildSelect(q tabular.Query) (string, []any, error) {
	if !identPattern.MatchString(q.Table) {
		return "", nil, fmt.Errorf("invalid table name %q", q.Table)
	}

	var (
		sb    strings.Builder
		args  []any
		where []string
	)
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(q.Table)

	for _, c := range q.Conds {
		if !identPattern.MatchString(c.Column) {
			return "", nil, fmt.Errorf("invalid column name %q", c.Column)
		}
		switch c.Op {
		case tabular.OpEq:
			where = append(where, c.Column+" = ?")
			args = append(args, c.Value)
		case tabular.OpIn:
			if len(c.Values) == 0 {
				// IN () matches nothing; express that directly.
				where = append(where, "1 = 0")
				continue
			}
			placeholders := strings.Repeat("?, ", len(c.Values))
			where = append(where, c.Column+" IN ("+placeholders[:len(placeholders)-2]+")")
			args = append(args, c.Values...)
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
	}

	if len(q.AnyOf) > 0 {
		alts := make([]string, 0, len(q.AnyOf))
		for _, d := range q.AnyOf {
			if !identPattern.MatchString(d.Column) {
				return "", nil, fmt.Errorf("invalid column name %q", d.Column)
			}
			alts = append(alts, d.Column+" = ?")
			args = append(args, d.Value)
		}
		where = append(where, "("+strings.Join(alts, " OR ")+")")
	}

	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	if len(q.OrderBy) > 0 {
		terms := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			if !identPattern.MatchString(o.Column) {
				return "", nil, fmt.Errorf("invalid column name %q", o.Column)
			}
			dir := " ASC"
			if o.Desc {
				dir = " DESC"
			}
			terms = append(terms, o.Column+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}

	if q.LimitN > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.LimitN))
	}
	return sb.String(), args, nil
}

// =============================================================================
// SEEDING (scenarios and tests only - the engine itself never writes)
// =============================================================================

// Insert adds one row to a table.
func (s *Store) Insert(ctx context.Context, table string, row tabular.Row) error {
	if !identPattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	columns := make([]string, 0, len(row))
	for col := range row {
		if !identPattern.MatchString(col) {
			return fmt.Errorf("invalid column name %q", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	args := make([]any, len(columns))
	for i, col := range columns {
		args[i] = row[col]
	}
	placeholders := strings.Repeat("?, ", len(columns))

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO "+table+" ("+strings.Join(columns, ", ")+") VALUES ("+placeholders[:len(placeholders)-2]+")",
		args...)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// InsertBatch adds multiple rows to a table.
func (s *Store) InsertBatch(ctx context.Context, table string, rows []tabular.Row) error {
	for _, row := range rows {
		if err := s.Insert(ctx, table, row); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears every logical table. Used by scenario loading.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for table := range tableDDL {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	s.log.Debug().Msg("all tables cleared")
	return nil
}
