package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"fpstab/internal/result"
)

var (
	// ErrDuplicate is returned by Insert when cmdin already has a row. The
	// existing row is left untouched.
	ErrDuplicate = errors.New("result already cached")
	// ErrResultNotFound is returned by AddDebugInfo when cmdin has no row.
	ErrResultNotFound = errors.New("no cached result for input")
	// ErrUnknownMetric is returned by Insert for NaN metrics, which SQLite
	// would store as NULL.
	ErrUnknownMetric = errors.New("error metric is NaN")
)

// ResultRow is one StabilizerResults record
type ResultRow struct {
	ID     int64
	CmdIn  string
	CmdOut string
	ErrIn  float64
	ErrOut float64
}

// Result converts the row to a canonical-text StabilizerResult.
func (r ResultRow) Result() result.StabilizerResult[string] {
	return result.StabilizerResult[string]{CmdIn: r.CmdIn, CmdOut: r.CmdOut, ErrIn: r.ErrIn, ErrOut: r.ErrOut}
}

// DebugRow is one DbgInfo record
type DebugRow struct {
	ID       int64
	ResultID int64
	Info     result.DbgInfo
}

// ListedResult is a result row with the number of call sites referencing it
type ListedResult struct {
	ResultRow
	DebugCount int
}

// Stats summarizes the cache contents
type Stats struct {
	Results      int `json:"results" yaml:"results"`
	DebugRecords int `json:"debugRecords" yaml:"debugRecords"`
	Improved     int `json:"improved" yaml:"improved"`
	Regressed    int `json:"regressed" yaml:"regressed"`
}

// ResultRepository provides operations on StabilizerResults and DbgInfo
type ResultRepository struct {
	db *DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Get retrieves the row for cmdin. Returns nil, nil when there is none.
func (r *ResultRepository) Get(ctx context.Context, cmdin string) (*ResultRow, error) {
	var row ResultRow
	err := r.db.conn.QueryRowContext(ctx, `
		SELECT id, cmdin, cmdout, errin, errout
		FROM StabilizerResults
		WHERE cmdin = ?
	`, cmdin).Scan(&row.ID, &row.CmdIn, &row.CmdOut, &row.ErrIn, &row.ErrOut)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return &row, nil
}

// Insert adds a result row and returns its id. A second insert for the same
// cmdin returns ErrDuplicate and keeps the first row.
func (r *ResultRepository) Insert(ctx context.Context, res result.StabilizerResult[string]) (int64, error) {
	if math.IsNaN(res.ErrIn) || math.IsNaN(res.ErrOut) {
		return 0, ErrUnknownMetric
	}

	out, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO StabilizerResults (cmdin, cmdout, errin, errout)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cmdin) DO NOTHING
	`, res.CmdIn, res.CmdOut, res.ErrIn, res.ErrOut)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}

	n, err := out.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}
	if n == 0 {
		return 0, ErrDuplicate
	}

	return out.LastInsertId()
}

// AddDebugInfo appends a DbgInfo row referencing the result for cmdin.
func (r *ResultRepository) AddDebugInfo(ctx context.Context, cmdin string, dbg result.DbgInfo) error {
	out, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO DbgInfo (resid, dbgComments, modName, functionName, functionType)
		SELECT id, ?, ?, ?, ? FROM StabilizerResults WHERE cmdin = ?
	`, dbg.Comments, dbg.ModuleName, dbg.FunctionName, dbg.FunctionType, cmdin)
	if err != nil {
		return fmt.Errorf("failed to add debug info: %w", err)
	}

	n, err := out.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to add debug info: %w", err)
	}
	if n == 0 {
		return ErrResultNotFound
	}
	return nil
}

// DebugInfo lists the DbgInfo rows of one result in insertion order
func (r *ResultRepository) DebugInfo(ctx context.Context, resultID int64) ([]DebugRow, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, resid, dbgComments, modName, functionName, functionType
		FROM DbgInfo
		WHERE resid = ?
		ORDER BY id
	`, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to query debug info: %w", err)
	}
	defer rows.Close()

	var out []DebugRow
	for rows.Next() {
		var d DebugRow
		var comments, module, function, typ sql.NullString
		if err := rows.Scan(&d.ID, &d.ResultID, &comments, &module, &function, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan debug info: %w", err)
		}
		d.Info = result.DbgInfo{
			Comments:     comments.String,
			ModuleName:   module.String,
			FunctionName: function.String,
			FunctionType: typ.String,
		}
		out = append(out, d)
	}

	return out, rows.Err()
}

// List returns results ordered by how many call sites reference them, most
// referenced first. limit <= 0 returns every row.
func (r *ResultRepository) List(ctx context.Context, limit int) ([]ListedResult, error) {
	query := `
		SELECT r.id, r.cmdin, r.cmdout, r.errin, r.errout, COUNT(d.id) AS refs
		FROM StabilizerResults r
		LEFT JOIN DbgInfo d ON d.resid = r.id
		GROUP BY r.id
		ORDER BY refs DESC, r.id ASC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var out []ListedResult
	for rows.Next() {
		var l ListedResult
		if err := rows.Scan(&l.ID, &l.CmdIn, &l.CmdOut, &l.ErrIn, &l.ErrOut, &l.DebugCount); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, l)
	}

	return out, rows.Err()
}

// Stats counts rows in both tables
func (r *ResultRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM StabilizerResults),
			(SELECT COUNT(*) FROM DbgInfo),
			(SELECT COUNT(*) FROM StabilizerResults WHERE errout < errin),
			(SELECT COUNT(*) FROM StabilizerResults WHERE errout > errin)
	`).Scan(&s.Results, &s.DebugRecords, &s.Improved, &s.Regressed)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return s, nil
}
