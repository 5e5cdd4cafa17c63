// Package catalog keeps a SQLite index of saved containers and the fork
// lineage between them.
//
// The catalog stores metadata only. Container payloads live on disk in
// their own files; losing the catalog loses the family tree, not the
// recordings.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
)

// ContainerRecord is the catalog entry for one saved container file.
type ContainerRecord struct {
	ID              string
	Path            string
	Seed            uint64
	FrameCount      uint64
	EventCount      uint64
	CheckpointCount uint64
	// CreatedAt is the container's own creation stamp.
	CreatedAt time.Time
	// SavedAt is when the catalog learned about the file.
	SavedAt time.Time
}

// ForkRecord is one lineage link: a new timeline branched off a container.
type ForkRecord struct {
	ID          string
	ContainerID string
	// ParentForkID is empty for first-generation forks.
	ParentForkID string
	// OriginID is the first-generation ancestor; derived on insert.
	OriginID string
	Frame    uint64
	Seed     uint64
	// Tier names how the branch-point state was reconstructed.
	Tier string
	// Depth is 0 for first-generation forks; derived on insert.
	Depth     int
	CreatedAt time.Time
}

// Store is a SQLite-backed catalog.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (and if needed creates) the catalog database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("catalog path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutContainer upserts a container record.
func (s *Store) PutContainer(ctx context.Context, rec ContainerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("container id is required")
	}
	if strings.TrimSpace(rec.Path) == "" {
		return fmt.Errorf("container path is required")
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO containers (id, path, seed, frame_count, event_count, checkpoint_count, created_at, saved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    path = excluded.path,
    seed = excluded.seed,
    frame_count = excluded.frame_count,
    event_count = excluded.event_count,
    checkpoint_count = excluded.checkpoint_count,
    created_at = excluded.created_at,
    saved_at = excluded.saved_at`,
		rec.ID, rec.Path, int64(rec.Seed), int64(rec.FrameCount), int64(rec.EventCount),
		int64(rec.CheckpointCount), toMillis(rec.CreatedAt), toMillis(rec.SavedAt),
	)
	if err != nil {
		return fmt.Errorf("put container: %w", err)
	}
	return nil
}

// GetContainer fetches one container record by id.
func (s *Store) GetContainer(ctx context.Context, containerID string) (ContainerRecord, error) {
	if err := ctx.Err(); err != nil {
		return ContainerRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, path, seed, frame_count, event_count, checkpoint_count, created_at, saved_at
FROM containers WHERE id = ?`, containerID)
	rec, err := scanContainer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ContainerRecord{}, apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("container %q not found", containerID),
			map[string]string{"container_id": containerID})
	}
	if err != nil {
		return ContainerRecord{}, fmt.Errorf("get container: %w", err)
	}
	return rec, nil
}

// ListContainers returns all container records, most recently saved first.
func (s *Store) ListContainers(ctx context.Context) ([]ContainerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, path, seed, frame_count, event_count, checkpoint_count, created_at, saved_at
FROM containers ORDER BY saved_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	defer rows.Close()

	var out []ContainerRecord
	for rows.Next() {
		rec, err := scanContainer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PutFork inserts a fork record, deriving its origin and depth from the
// parent link. A fork with no parent is its own origin at depth zero.
func (s *Store) PutFork(ctx context.Context, rec ForkRecord) (ForkRecord, error) {
	if err := ctx.Err(); err != nil {
		return ForkRecord{}, err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return ForkRecord{}, fmt.Errorf("fork id is required")
	}
	if strings.TrimSpace(rec.ContainerID) == "" {
		return ForkRecord{}, fmt.Errorf("container id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if rec.ParentForkID == "" {
		rec.OriginID = rec.ID
		rec.Depth = 0
	} else {
		parent, err := s.GetFork(ctx, rec.ParentForkID)
		if err != nil {
			return ForkRecord{}, fmt.Errorf("resolve parent fork: %w", err)
		}
		rec.OriginID = parent.OriginID
		rec.Depth = parent.Depth + 1
	}

	var parent any
	if rec.ParentForkID != "" {
		parent = rec.ParentForkID
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO forks (id, container_id, parent_fork_id, origin_id, frame, seed, tier, depth, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ContainerID, parent, rec.OriginID, int64(rec.Frame),
		int64(rec.Seed), rec.Tier, rec.Depth, toMillis(rec.CreatedAt),
	)
	if err != nil {
		return ForkRecord{}, fmt.Errorf("put fork: %w", err)
	}
	return rec, nil
}

// GetFork fetches one fork record by id.
func (s *Store) GetFork(ctx context.Context, forkID string) (ForkRecord, error) {
	if err := ctx.Err(); err != nil {
		return ForkRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, container_id, parent_fork_id, origin_id, frame, seed, tier, depth, created_at
FROM forks WHERE id = ?`, forkID)
	rec, err := scanFork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ForkRecord{}, apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("fork %q not found", forkID),
			map[string]string{"fork_id": forkID})
	}
	if err != nil {
		return ForkRecord{}, fmt.Errorf("get fork: %w", err)
	}
	return rec, nil
}

// ListForks returns the forks branched off one container, oldest first.
func (s *Store) ListForks(ctx context.Context, containerID string) ([]ForkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, container_id, parent_fork_id, origin_id, frame, seed, tier, depth, created_at
FROM forks WHERE container_id = ? ORDER BY created_at, id`, containerID)
	if err != nil {
		return nil, fmt.Errorf("list forks: %w", err)
	}
	defer rows.Close()

	var out []ForkRecord
	for rows.Next() {
		rec, err := scanFork(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fork: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Lineage walks the parent chain from a fork back to its origin. The
// result starts at the requested fork and ends at the first-generation
// ancestor.
func (s *Store) Lineage(ctx context.Context, forkID string) ([]ForkRecord, error) {
	var chain []ForkRecord
	current := forkID
	for current != "" {
		rec, err := s.GetFork(ctx, current)
		if err != nil {
			return nil, err
		}
		chain = append(chain, rec)
		current = rec.ParentForkID
	}
	return chain, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContainer(row scanner) (ContainerRecord, error) {
	var rec ContainerRecord
	var seed, frames, events, checkpoints, createdAt, savedAt int64
	if err := row.Scan(&rec.ID, &rec.Path, &seed, &frames, &events, &checkpoints, &createdAt, &savedAt); err != nil {
		return ContainerRecord{}, err
	}
	rec.Seed = uint64(seed)
	rec.FrameCount = uint64(frames)
	rec.EventCount = uint64(events)
	rec.CheckpointCount = uint64(checkpoints)
	rec.CreatedAt = fromMillis(createdAt)
	rec.SavedAt = fromMillis(savedAt)
	return rec, nil
}

func scanFork(row scanner) (ForkRecord, error) {
	var rec ForkRecord
	var parent sql.NullString
	var frame, seed, createdAt int64
	if err := row.Scan(&rec.ID, &rec.ContainerID, &parent, &rec.OriginID, &frame, &seed, &rec.Tier, &rec.Depth, &createdAt); err != nil {
		return ForkRecord{}, err
	}
	rec.ParentForkID = parent.String
	rec.Frame = uint64(frame)
	rec.Seed = uint64(seed)
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
