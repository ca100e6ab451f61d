package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskboard/domain"
)

// PostgresSchema creates the tasks table. It is idempotent.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	title       text NOT NULL CHECK (btrim(title) <> ''),
	description text,
	status      text NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in-progress', 'done')),
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now(),
	CHECK (updated_at >= created_at)
);
CREATE INDEX IF NOT EXISTS tasks_created_at_idx ON tasks (created_at DESC, id DESC);
`

const taskColumns = "id, title, description, status, created_at, updated_at"

// PostgresStore persists tasks in a Postgres table. Identifiers and
// timestamps are generated by the database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at url.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	row := s.pool.QueryRow(ctx,
		"INSERT INTO tasks (title, description, status) VALUES ($1, $2, $3) RETURNING "+taskColumns,
		nt.Title, nt.Description, string(nt.Status))
	t, err := scanTask(row)
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) SelectAll(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStore) UpdatePartial(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	key, ok := pgUUID(id)
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	query, args := buildUpdate(key, p)
	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) (domain.Task, error) {
	key, ok := pgUUID(id)
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	t, err := scanTask(s.pool.QueryRow(ctx, "DELETE FROM tasks WHERE id = $1 RETURNING "+taskColumns, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("delete task: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// buildUpdate renders a single-statement partial update. updated_at always
// moves forward, even when two updates land in the same microsecond.
func buildUpdate(id pgtype.UUID, p domain.TaskPatch) (string, []any) {
	args := []any{id}
	sets := []string{"updated_at = GREATEST(now(), updated_at + interval '1 microsecond')"}
	if p.Title != nil {
		args = append(args, *p.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if p.Description.Set {
		if p.Description.Null {
			sets = append(sets, "description = NULL")
		} else {
			args = append(args, p.Description.Value)
			sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
		}
	}
	if p.Status != nil {
		args = append(args, string(*p.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = $1 RETURNING " + taskColumns
	return query, args
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		t      domain.Task
		id     pgtype.UUID
		status string
	)
	if err := row.Scan(&id, &t.Title, &t.Description, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Task{}, err
	}
	t.ID = uuid.UUID(id.Bytes).String()
	t.Status = domain.Status(status)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func pgUUID(id string) (pgtype.UUID, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, false
	}
	return pgtype.UUID{Bytes: u, Valid: true}, true
}
