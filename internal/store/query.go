package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/franz/musicdb/internal/util"
)

// TimeLayout is the text form of timestamps stored and returned by the store
const TimeLayout = "2006-01-02 15:04:05"

// ResultSet is a fully materialized query result. Every cell is text; NULL
// becomes the empty string.
type ResultSet struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// emptyResult is the value returned alongside every query failure
func emptyResult() *ResultSet {
	return &ResultSet{index: map[string]int{}}
}

// Len returns the number of rows
func (r *ResultSet) Len() int {
	return len(r.Rows)
}

// Empty reports whether the query returned no rows
func (r *ResultSet) Empty() bool {
	return len(r.Rows) == 0
}

// Column returns the position of a named column, or -1
func (r *ResultSet) Column(name string) int {
	if i, ok := r.index[name]; ok {
		return i
	}
	return -1
}

// Value returns the cell at row for the named column. Unknown columns and
// out-of-range rows yield "".
func (r *ResultSet) Value(row int, column string) string {
	i := r.Column(column)
	if i < 0 || row < 0 || row >= len(r.Rows) {
		return ""
	}
	return r.Rows[row][i]
}

// Int returns the cell as an integer, or 0 when it does not parse
func (r *ResultSet) Int(row int, column string) int64 {
	n, _ := strconv.ParseInt(r.Value(row, column), 10, 64)
	return n
}

// Query runs a read statement and returns all rows as text. On failure the
// statement is logged and an empty, non-nil ResultSet is returned with the
// error.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(ctx); err != nil {
		return emptyResult(), err
	}
	return s.query(ctx, query, args...)
}

// Exec runs a write or DDL statement. Inside a transaction it joins the
// transaction; otherwise it is committed on its own.
func (s *Store) Exec(ctx context.Context, stmt string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	_, err := s.exec(ctx, stmt, args...)
	return err
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	rows, err := s.target().QueryContext(ctx, query, args...)
	if err != nil {
		util.ErrorLog("MusicDatabase: Exception executing: %s\n%v", query, err)
		return emptyResult(), fmt.Errorf("%w: %w", util.ErrQuery, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return emptyResult(), fmt.Errorf("%w: %w", util.ErrQuery, err)
	}

	rs := &ResultSet{
		Columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		if _, dup := rs.index[name]; !dup {
			rs.index[name] = i
		}
	}

	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			util.ErrorLog("MusicDatabase: Exception reading row: %s\n%v", query, err)
			return emptyResult(), fmt.Errorf("%w: %w", util.ErrQuery, err)
		}
		row := make([]string, len(columns))
		for i, v := range raw {
			row[i] = textValue(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		util.ErrorLog("MusicDatabase: Exception executing: %s\n%v", query, err)
		return emptyResult(), fmt.Errorf("%w: %w", util.ErrQuery, err)
	}
	return rs, nil
}

func (s *Store) exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := s.target().ExecContext(ctx, stmt, args...)
	if err != nil {
		util.ErrorLog("MusicDatabase: Exception executing: %s\n%v", stmt, err)
		return 0, fmt.Errorf("%w: %w", util.ErrWrite, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	if s.tx != nil {
		s.txChanges += n
	}
	return n, nil
}

func (s *Store) lastInsertID(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := s.target().ExecContext(ctx, stmt, args...)
	if err != nil {
		util.ErrorLog("MusicDatabase: Exception executing: %s\n%v", stmt, err)
		return 0, fmt.Errorf("%w: %w", util.ErrWrite, err)
	}
	if s.tx != nil {
		if n, err := res.RowsAffected(); err == nil {
			s.txChanges += n
		}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", util.ErrWrite, err)
	}
	return id, nil
}

// textValue renders a driver value the way the result set exposes it
func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format(TimeLayout)
	default:
		return fmt.Sprint(x)
	}
}
