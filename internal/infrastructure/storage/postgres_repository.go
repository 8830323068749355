package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists projects, publications, logs, and link rules.
type PostgresRepository struct {
	db *sql.DB
}

var (
	_ ports.PublicationRepository = (*PostgresRepository)(nil)
	_ ports.LinkRuleRepository    = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Project loads one project with its module and autopilot settings.
func (r *PostgresRepository) Project(ctx context.Context, id string) (domain.Project, error) {
	query, args, err := psql.
		Select("id", "name", "kind", "enabled", "modules", "autopilot", "created_at", "updated_at").
		From("projects").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Project{}, fmt.Errorf("build project query: %w", err)
	}

	return scanProject(r.db.QueryRowContext(ctx, query, args...))
}

// EnabledProjects lists projects the tick may act on.
func (r *PostgresRepository) EnabledProjects(ctx context.Context) ([]domain.Project, error) {
	query, args, err := psql.
		Select("id", "name", "kind", "enabled", "modules", "autopilot", "created_at", "updated_at").
		From("projects").
		Where(sq.Eq{"enabled": true}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build projects query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return projects, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var (
		project   domain.Project
		modules   []byte
		autopilot []byte
	)
	if err := row.Scan(&project.ID, &project.Name, &project.Kind, &project.Enabled,
		&modules, &autopilot, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return domain.Project{}, fmt.Errorf("scan project: %w", err)
	}
	if len(modules) > 0 {
		if err := json.Unmarshal(modules, &project.Modules); err != nil {
			return domain.Project{}, fmt.Errorf("decode project modules: %w", err)
		}
	}
	if len(autopilot) > 0 {
		if err := json.Unmarshal(autopilot, &project.Autopilot); err != nil {
			return domain.Project{}, fmt.Errorf("decode project autopilot: %w", err)
		}
	}
	return project, nil
}

// Create inserts a new publication in its initial state.
func (r *PostgresRepository) Create(ctx context.Context, pub *domain.Publication) error {
	if pub.Status == "" {
		pub.Status = domain.StatusIdle
	}

	query, args, err := psql.
		Insert("publications").
		Columns("id", "project_id", "parent_id", "title", "content_type", "permalink",
			"source_url", "source_guid", "dedup_key", "published_at", "status").
		Values(pub.ID, pub.ProjectID, nullable(pub.ParentID), pub.Title, pub.ContentType, pub.Permalink,
			pub.Source.URL, pub.Source.GUID, pub.Source.DedupKey, pub.PublishedAt, pub.Status).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert publication: %w", err)
	}
	return nil
}

const publicationColumns = "id, project_id, COALESCE(parent_id, ''), title, content_type, permalink, " +
	"source_url, source_guid, dedup_key, published_at, status, created_at, updated_at"

// Get loads one publication without its logs.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Publication, error) {
	query, args, err := psql.
		Select(publicationColumns).
		From("publications").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}
	return scanPublication(r.db.QueryRowContext(ctx, query, args...))
}

// Parent resolves a publication's parent or nil when it has none.
func (r *PostgresRepository) Parent(ctx context.Context, pub *domain.Publication) (*domain.Publication, error) {
	if pub.ParentID == "" {
		return nil, nil
	}
	return r.Get(ctx, pub.ParentID)
}

// ListDue returns idle publications whose publish time has arrived.
func (r *PostgresRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.Publication, error) {
	query, args, err := psql.
		Select(publicationColumns).
		From("publications").
		Where(sq.Eq{"status": domain.StatusIdle}).
		Where(sq.LtOrEq{"published_at": now}).
		OrderBy("published_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build due query: %w", err)
	}
	return r.queryPublications(ctx, query, args...)
}

// ClaimPending performs the idle->pending transition; only one caller wins.
func (r *PostgresRepository) ClaimPending(ctx context.Context, id string) (bool, error) {
	query, args, err := psql.
		Update("publications").
		Set("status", domain.StatusPending).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": domain.StatusIdle}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build claim query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("claim pending: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetStatus writes a terminal or recovered status.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status domain.Status) error {
	query, args, err := psql.
		Update("publications").
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// ClearLogs wipes the publication's log before a fresh run.
func (r *PostgresRepository) ClearLogs(ctx context.Context, id string) error {
	query, args, err := psql.Delete("publication_logs").Where(sq.Eq{"publication_id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build clear query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear logs: %w", err)
	}
	return nil
}

// AppendLog persists one log entry.
func (r *PostgresRepository) AppendLog(ctx context.Context, id string, entry domain.LogEntry) error {
	extra, err := json.Marshal(entry.Extra)
	if err != nil {
		return fmt.Errorf("encode log extra: %w", err)
	}

	query, args, err := psql.
		Insert("publication_logs").
		Columns("publication_id", "kind", "message", "extra", "at").
		Values(id, entry.Kind, entry.Message, extra, entry.At).
		ToSql()
	if err != nil {
		return fmt.Errorf("build log insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// LastLog returns the most recent entry or a zero entry when none exist.
func (r *PostgresRepository) LastLog(ctx context.Context, id string) (domain.LogEntry, error) {
	query, args, err := psql.
		Select("kind", "message", "extra", "at").
		From("publication_logs").
		Where(sq.Eq{"publication_id": id}).
		OrderBy("at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("build last-log query: %w", err)
	}

	var (
		entry domain.LogEntry
		extra []byte
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&entry.Kind, &entry.Message, &extra, &entry.At)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LogEntry{}, nil
	}
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("query last log: %w", err)
	}
	if len(extra) > 0 {
		_ = json.Unmarshal(extra, &entry.Extra)
	}
	return entry, nil
}

// CountQueuedToday counts publications scheduled on the current calendar day.
func (r *PostgresRepository) CountQueuedToday(ctx context.Context, projectID string, now time.Time) (int, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query, args, err := psql.
		Select("COUNT(*)").
		From("publications").
		Where(sq.Eq{"project_id": projectID}).
		Where(sq.GtOrEq{"published_at": dayStart}).
		Where(sq.Lt{"published_at": dayEnd}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count queued: %w", err)
	}
	return count, nil
}

// ExistsByDedupKey reports whether a feed item was already enqueued.
func (r *PostgresRepository) ExistsByDedupKey(ctx context.Context, projectID, key string) (bool, error) {
	query, args, err := psql.
		Select("1").
		From("publications").
		Where(sq.Eq{"project_id": projectID, "dedup_key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// ListStuckPending finds pending publications whose run outlived its budget.
func (r *PostgresRepository) ListStuckPending(ctx context.Context, olderThan time.Time) ([]*domain.Publication, error) {
	query, args, err := psql.
		Select(publicationColumns).
		From("publications").
		Where(sq.Eq{"status": domain.StatusPending}).
		Where(sq.Lt{"updated_at": olderThan}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stuck query: %w", err)
	}
	return r.queryPublications(ctx, query, args...)
}

func (r *PostgresRepository) ListRecentPublished(ctx context.Context, projectID string, limit int) ([]*domain.Publication, error) {
	if limit <= 0 {
		return nil, nil
	}
	query, args, err := psql.
		Select(publicationColumns).
		From("publications").
		Where(sq.Eq{"project_id": projectID, "status": domain.StatusSuccess}).
		OrderBy("updated_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}
	return r.queryPublications(ctx, query, args...)
}

// ListRules loads every link rule for a rewrite pass.
func (r *PostgresRepository) ListRules(ctx context.Context) ([]domain.LinkRule, error) {
	query, args, err := psql.
		Select("id", "keywords", "target", "content_types", "new_tab", "follow", "obfuscate", "max_insertions").
		From("link_rules").
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rules query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.LinkRule
	for rows.Next() {
		var rule domain.LinkRule
		if err := rows.Scan(&rule.ID, pq.Array(&rule.Keywords), &rule.Target,
			pq.Array(&rule.ContentTypes), &rule.NewTab, &rule.Follow, &rule.Obfuscate,
			&rule.MaxInsertions); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return rules, nil
}

func (r *PostgresRepository) queryPublications(ctx context.Context, query string, args ...any) ([]*domain.Publication, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}
	defer rows.Close()

	var pubs []*domain.Publication
	for rows.Next() {
		pub, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return pubs, nil
}

func scanPublication(row rowScanner) (*domain.Publication, error) {
	var pub domain.Publication
	if err := row.Scan(&pub.ID, &pub.ProjectID, &pub.ParentID, &pub.Title, &pub.ContentType,
		&pub.Permalink, &pub.Source.URL, &pub.Source.GUID, &pub.Source.DedupKey,
		&pub.PublishedAt, &pub.Status, &pub.CreatedAt, &pub.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan publication: %w", err)
	}
	return &pub, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
