package artifact

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/opsmaestro/maestro/internal/intent"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id          TEXT PRIMARY KEY,
	intent      TEXT NOT NULL,
	params_json TEXT NOT NULL,
	os_target   TEXT NOT NULL,
	source      TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	path        TEXT NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_artifacts_intent ON artifacts(intent);
`

// metaPrefix marks the machine-readable header comment written at the top
// of every saved playbook, so the index can be rebuilt from the files alone.
const metaPrefix = "# maestro: "

// Store keeps generated playbooks on disk and an index of their metadata in
// SQLite. The index is written when a playbook is saved and read back as a
// snapshot per session; matching never re-reads it mid-computation.
type Store struct {
	dir string
	db  *sql.DB
}

// NewStore opens (or creates) the playbook directory and its index database.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "artifacts.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact index: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate artifact index: %w", err)
	}

	return &Store{dir: dir, db: db}, nil
}

// Close closes the index database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the playbook directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes a generated playbook to the store and indexes it. The file
// gets a metadata header comment followed by the playbook content, named
// <intent>_<os>_<timestamp>.yml like every other playbook in the directory.
func (s *Store) Save(content string, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.OSTarget == "" {
		rec.OSTarget = intent.OSUnspecified
	}
	if rec.Params == nil {
		rec.Params = map[string]string{}
	}

	filename := fmt.Sprintf("%s_%s_%s.yml", rec.Intent, rec.OSTarget, rec.CreatedAt.Format("20060102_150405"))
	rec.Path = filepath.Join(s.dir, filename)

	header, err := metadataHeader(rec)
	if err != nil {
		return Record{}, err
	}

	if err := os.WriteFile(rec.Path, []byte(header+content), 0o644); err != nil {
		return Record{}, fmt.Errorf("failed to write playbook: %w", err)
	}

	if err := s.index(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) index(rec Record) error {
	paramsJSON, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO artifacts (id, intent, params_json, os_target, source, created_at, path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			intent = excluded.intent,
			params_json = excluded.params_json,
			os_target = excluded.os_target,
			source = excluded.source,
			created_at = excluded.created_at`,
		rec.ID, rec.Intent, string(paramsJSON), string(rec.OSTarget), rec.Source,
		rec.CreatedAt.Format(time.RFC3339Nano), rec.Path,
	)
	if err != nil {
		return fmt.Errorf("failed to index playbook: %w", err)
	}
	return nil
}

// List returns every indexed record, newest first. Callers treat the result
// as a read-only snapshot.
func (s *Store) List() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, intent, params_json, os_target, source, created_at, path
		 FROM artifacts ORDER BY created_at DESC, path ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var paramsJSON, osTarget, createdStr string
		if err := rows.Scan(&rec.ID, &rec.Intent, &paramsJSON, &osTarget, &rec.Source, &createdStr, &rec.Path); err != nil {
			return nil, fmt.Errorf("failed to scan artifact row: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &rec.Params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params for %s: %w", rec.Path, err)
		}
		rec.OSTarget = intent.OSTarget(osTarget)
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for %s: %w", rec.Path, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ReadContent returns the playbook body for a record, without the metadata
// header line.
func (s *Store) ReadContent(rec Record) (string, error) {
	data, err := os.ReadFile(rec.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read playbook %s: %w", rec.Path, err)
	}
	content := string(data)
	if strings.HasPrefix(content, metaPrefix) {
		if i := strings.IndexByte(content, '\n'); i >= 0 {
			content = content[i+1:]
		}
	}
	return content, nil
}

// Rebuild drops the index and re-populates it from the metadata headers of
// the YAML files in the playbook directory. Files without a header are
// skipped; they were not written by this store.
func (s *Store) Rebuild() (int, error) {
	if _, err := s.db.Exec(`DELETE FROM artifacts`); err != nil {
		return 0, fmt.Errorf("failed to reset artifact index: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	indexed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml")) {
			continue
		}
		path := filepath.Join(s.dir, name)
		rec, ok, err := readMetadata(path)
		if err != nil {
			return indexed, err
		}
		if !ok {
			continue
		}
		rec.Path = path
		if err := s.index(rec); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}

func metadataHeader(rec Record) (string, error) {
	meta, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return metaPrefix + string(meta) + "\n", nil
}

func readMetadata(path string) (Record, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	line := string(data)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if !strings.HasPrefix(line, metaPrefix) {
		return Record{}, false, nil
	}

	var rec Record
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, metaPrefix)), &rec); err != nil {
		return Record{}, false, fmt.Errorf("failed to parse metadata in %s: %w", path, err)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	return rec, true, nil
}
