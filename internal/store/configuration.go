package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/franz/musicdb/internal/util"
)

// ConfigValue reads a Configuration parameter. ok is false when the
// parameter is not stored.
func (s *Store) ConfigValue(ctx context.Context, parameter string) (value string, ok bool, err error) {
	err = s.locked(ctx, func() error {
		rs, err := s.query(ctx, "SELECT Value FROM Configuration WHERE Parameter = ?", parameter)
		if err != nil {
			return err
		}
		if !rs.Empty() {
			value, ok = rs.Value(0, "Value"), true
		}
		return nil
	})
	return value, ok, err
}

// SetConfigValue stores a Configuration parameter, replacing any earlier value
func (s *Store) SetConfigValue(ctx context.Context, parameter, value string) error {
	return s.locked(ctx, func() error {
		_, err := s.exec(ctx, `INSERT INTO Configuration (Parameter, Value) VALUES (?, ?)
ON CONFLICT(Parameter) DO UPDATE SET Value = excluded.Value`, parameter, value)
		return err
	})
}

// StoredVersion returns the schema version recorded in the database
func (s *Store) StoredVersion(ctx context.Context) (int, error) {
	value, ok, err := s.ConfigValue(ctx, versionParameter)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: no schema version", util.ErrCorrupt)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: schema version %q is not a number", util.ErrCorrupt, value)
	}
	return v, nil
}
