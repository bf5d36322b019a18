package db

import (
	"context"
	"fmt"

	"github.com/dickeyy/github-review-export/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Store mirrors the exported record sets into Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Msg("connected to Postgres")

	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pull_requests (
			pr_id BIGINT PRIMARY KEY,
			base_branch TEXT NOT NULL,
			created_at TEXT NOT NULL,
			is_draft BOOLEAN NOT NULL,
			merged_at TEXT,
			pr_state TEXT NOT NULL,
			created_by TEXT NOT NULL,
			assigned_reviewers TEXT[] NOT NULL
		);
		CREATE TABLE IF NOT EXISTS reviews (
			rw_id BIGINT PRIMARY KEY,
			pr_id BIGINT NOT NULL REFERENCES pull_requests (pr_id),
			rw_user TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			rw_state TEXT NOT NULL,
			rw_body TEXT
		);
		CREATE TABLE IF NOT EXISTS comments (
			cm_id BIGINT PRIMARY KEY,
			rw_id BIGINT NOT NULL REFERENCES reviews (rw_id),
			cm_body TEXT NOT NULL,
			cm_creation_time TEXT NOT NULL,
			cm_user TEXT NOT NULL
		);
	`)
	return err
}

const (
	upsertPullRequest = `
		INSERT INTO pull_requests (pr_id, base_branch, created_at, is_draft, merged_at, pr_state, created_by, assigned_reviewers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (pr_id)
		DO UPDATE SET
			base_branch = EXCLUDED.base_branch,
			created_at = EXCLUDED.created_at,
			is_draft = EXCLUDED.is_draft,
			merged_at = EXCLUDED.merged_at,
			pr_state = EXCLUDED.pr_state,
			created_by = EXCLUDED.created_by,
			assigned_reviewers = EXCLUDED.assigned_reviewers;`

	upsertReview = `
		INSERT INTO reviews (rw_id, pr_id, rw_user, submitted_at, rw_state, rw_body)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (rw_id)
		DO UPDATE SET
			pr_id = EXCLUDED.pr_id,
			rw_user = EXCLUDED.rw_user,
			submitted_at = EXCLUDED.submitted_at,
			rw_state = EXCLUDED.rw_state,
			rw_body = EXCLUDED.rw_body;`

	upsertComment = `
		INSERT INTO comments (cm_id, rw_id, cm_body, cm_creation_time, cm_user)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cm_id)
		DO UPDATE SET
			rw_id = EXCLUDED.rw_id,
			cm_body = EXCLUDED.cm_body,
			cm_creation_time = EXCLUDED.cm_creation_time,
			cm_user = EXCLUDED.cm_user;`
)

// Save upserts all three record sets in one transaction. Parents are written
// before children so the foreign keys hold.
func (s *Store) Save(ctx context.Context, prs []types.PullRequestRecord, reviews []types.ReviewRecord, comments []types.CommentRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, pr := range prs {
		batch.Queue(upsertPullRequest, pr.ID, pr.BaseBranch, pr.CreatedAt, pr.IsDraft, pr.MergedAt, pr.State, pr.CreatedBy, pr.AssignedReviewers)
	}
	for _, rw := range reviews {
		batch.Queue(upsertReview, rw.ID, rw.PullRequestID, rw.User, rw.SubmittedAt, rw.State, rw.Body)
	}
	for _, cm := range comments {
		batch.Queue(upsertComment, cm.ID, cm.ReviewID, cm.Body, cm.CreatedAt, cm.User)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert row %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().
		Int("pull_requests", len(prs)).
		Int("reviews", len(reviews)).
		Int("comments", len(comments)).
		Msg("upserted records into Postgres")
	return nil
}

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
