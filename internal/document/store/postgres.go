package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"deskvault/internal/document/models"
	"deskvault/internal/document/store/migrations"
	"deskvault/pkg/sentinel"
)

// PostgresStore persists documents in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed document store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to Postgres and runs pending migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, err)
	}
	return nil
}

const documentColumns = `id, title, content, owner_id, folder_id, is_deleted, deleted_at,
	is_pinned, in_privacy_space, sync_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (title, content, owner_id, folder_id, is_pinned, in_privacy_space, sync_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		doc.Title, doc.Content, doc.OwnerID, doc.FolderID, doc.IsPinned,
		doc.InPrivacySpace, doc.SyncID, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateBatch(ctx context.Context, docs []*models.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	now := time.Now().UTC()
	for _, doc := range docs {
		createdAt := doc.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO documents (title, content, owner_id, folder_id, is_pinned, in_privacy_space, sync_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (sync_id) WHERE sync_id IS NOT NULL DO NOTHING`,
			doc.Title, doc.Content, doc.OwnerID, doc.FolderID, doc.IsPinned,
			doc.InPrivacySpace, doc.SyncID, createdAt, now,
		)
		if err != nil {
			return 0, fmt.Errorf("batch insert: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("batch insert: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return inserted, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %d", sentinel.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID int64, filter models.ListFilter) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE owner_id = $1`
	switch filter {
	case models.FilterRecycleBin:
		query += ` AND is_deleted = TRUE`
	case models.FilterPrivacy:
		query += ` AND is_deleted = FALSE AND in_privacy_space = TRUE`
	default:
		query += ` AND is_deleted = FALSE AND in_privacy_space = FALSE`
	}
	query += ` ORDER BY is_pinned DESC, updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) Update(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET title = $2, content = $3, folder_id = $4, is_pinned = $5, updated_at = $6
		WHERE id = $1`,
		doc.ID, doc.Title, doc.Content, doc.FolderID, doc.IsPinned, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireAffected(res, doc.ID)
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET is_deleted = TRUE, deleted_at = $2 WHERE id = $1`,
		id, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}
	return requireAffected(res, id)
}

func (s *PostgresStore) Restore(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET is_deleted = FALSE, deleted_at = NULL WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("restore document: %w", err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %d", sentinel.ErrNotFound, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*models.Document, error) {
	var doc models.Document
	var folderID sql.NullInt64
	var deletedAt sql.NullTime
	var syncID sql.NullString

	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Content, &doc.OwnerID, &folderID,
		&doc.IsDeleted, &deletedAt, &doc.IsPinned, &doc.InPrivacySpace,
		&syncID, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if folderID.Valid {
		doc.FolderID = &folderID.Int64
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		doc.DeletedAt = &t
	}
	if syncID.Valid {
		s := syncID.String
		doc.SyncID = &s
	}
	return &doc, nil
}
