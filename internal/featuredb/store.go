// Package featuredb persists descriptor matrices in SQLite.
//
// A run row records where a matrix came from and how it was computed; each
// point's descriptor is stored as a little-endian float64 blob.
package featuredb

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/pointfeature/internal/feature"
	"github.com/banshee-data/pointfeature/internal/search"
	"github.com/banshee-data/pointfeature/internal/timeutil"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("feature run not found")

// Variant names the descriptor kind of a run.
const (
	VariantFPFH  = "fpfh"
	VariantCFPFH = "cfpfh"
)

// Run describes one stored descriptor matrix.
type Run struct {
	ID         string
	Source     string
	Variant    string
	Dimension  int
	PointCount int
	Param      search.Param
	// Labels optionally names each point, e.g. MOL2 atom labels.
	Labels    []string
	CreatedAt time.Time
}

// Store wraps the descriptor database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. A nil clock uses the wall clock.
func Open(path string, clock timeutil.Clock) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps
	// in-memory databases alive across calls.
	db.SetMaxOpenConns(1)

	if clock == nil {
		clock = timeutil.RealClock{}
	}
	s := &Store{db: db, clock: clock}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertRun stores f under run and returns the run ID. An empty run.ID is
// replaced with a new UUID; Dimension, PointCount and CreatedAt are taken
// from f and the store's clock.
func (s *Store) InsertRun(run Run, f *feature.Feature) (string, error) {
	if f == nil {
		return "", errors.New("nil feature")
	}
	if len(run.Labels) != 0 && len(run.Labels) != f.Num() {
		return "", fmt.Errorf("label count %d does not match point count %d", len(run.Labels), f.Num())
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Variant == "" {
		run.Variant = variantFor(f.Dimension())
	}
	params, err := json.Marshal(run.Param)
	if err != nil {
		return "", fmt.Errorf("failed to encode search params: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO feature_runs (run_id, source, variant, dimension, point_count, params_json, created_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Variant, f.Dimension(), f.Num(), string(params), s.clock.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO feature_descriptors (run_id, point_index, descriptor_blob, label) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare descriptor insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < f.Num(); i++ {
		label := ""
		if len(run.Labels) != 0 {
			label = run.Labels[i]
		}
		if _, err := stmt.Exec(run.ID, i, encodeDescriptor(f.Column(i)), label); err != nil {
			return "", fmt.Errorf("failed to insert descriptor %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

func variantFor(dim int) string {
	if dim == feature.ColorDim {
		return VariantCFPFH
	}
	return VariantFPFH
}

// GetRun returns the run metadata for id without its descriptors or labels.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT run_id, source, variant, dimension, point_count, params_json, created_unix_nanos
		FROM feature_runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// LoadFeature returns the run metadata, including labels, and its
// descriptor matrix.
func (s *Store) LoadFeature(id string) (*Run, *feature.Feature, error) {
	run, err := s.GetRun(id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(`SELECT point_index, descriptor_blob, label FROM feature_descriptors
		WHERE run_id = ? ORDER BY point_index`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query descriptors: %w", err)
	}
	defer rows.Close()

	f := feature.NewFeature(run.Dimension, run.PointCount)
	labels := make([]string, run.PointCount)
	hasLabels := false
	seen := 0
	for rows.Next() {
		var idx int
		var blob []byte
		var label string
		if err := rows.Scan(&idx, &blob, &label); err != nil {
			return nil, nil, err
		}
		if idx < 0 || idx >= run.PointCount {
			return nil, nil, fmt.Errorf("descriptor index %d out of range for run %s", idx, id)
		}
		col, err := decodeDescriptor(blob, run.Dimension)
		if err != nil {
			return nil, nil, fmt.Errorf("descriptor %d: %w", idx, err)
		}
		f.Data.SetCol(idx, col)
		labels[idx] = label
		hasLabels = hasLabels || label != ""
		seen++
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if seen != run.PointCount {
		return nil, nil, fmt.Errorf("run %s has %d of %d descriptors", id, seen, run.PointCount)
	}
	if hasLabels {
		run.Labels = labels
	}
	return run, f, nil
}

// ListRuns returns every run, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id, source, variant, dimension, point_count, params_json, created_unix_nanos
		FROM feature_runs ORDER BY created_unix_nanos DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its descriptors.
func (s *Store) DeleteRun(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM feature_descriptors WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete descriptors: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM feature_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var params string
	var created int64
	if err := row.Scan(&run.ID, &run.Source, &run.Variant, &run.Dimension, &run.PointCount, &params, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &run.Param); err != nil {
		return nil, fmt.Errorf("run %s: failed to decode search params: %w", run.ID, err)
	}
	run.CreatedAt = time.Unix(0, created).UTC()
	return &run, nil
}

func encodeDescriptor(col []float64) []byte {
	buf := make([]byte, 8*len(col))
	for i, v := range col {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeDescriptor(blob []byte, dim int) ([]float64, error) {
	if len(blob) != 8*dim {
		return nil, fmt.Errorf("blob is %d bytes, want %d", len(blob), 8*dim)
	}
	col := make([]float64, dim)
	for i := range col {
		col[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return col, nil
}
