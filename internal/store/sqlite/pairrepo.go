package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/resolverank/resolverank/internal/miner"
)

// PairRepo persists contributor-issue pairs, the denormalized dataset rows.
type PairRepo struct {
	db *DB
}

// NewPairRepo creates a new PairRepo backed by the given DB.
func NewPairRepo(db *DB) *PairRepo {
	return &PairRepo{db: db}
}

const pairColumns = `repo_name, contributor_id, issue_id, issue_title, issue_body,
	issue_comments, issue_state, issue_created_at, issue_closed_at, opened_by,
	issue_labels, linked_pr_count, modified_source_files, commit_messages`

// Upsert inserts rows, replacing existing pairs for the same
// repo/contributor/issue so re-mining a repository refreshes its data.
func (r *PairRepo) Upsert(ctx context.Context, rows []miner.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO pairs (` + pairColumns + `, mined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repo_name, contributor_id, issue_id) DO UPDATE SET
			issue_title = excluded.issue_title,
			issue_body = excluded.issue_body,
			issue_comments = excluded.issue_comments,
			issue_state = excluded.issue_state,
			issue_created_at = excluded.issue_created_at,
			issue_closed_at = excluded.issue_closed_at,
			opened_by = excluded.opened_by,
			issue_labels = excluded.issue_labels,
			linked_pr_count = excluded.linked_pr_count,
			modified_source_files = excluded.modified_source_files,
			commit_messages = excluded.commit_messages,
			mined_at = excluded.mined_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	minedAt := time.Now().UTC().Format(time.RFC3339)
	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.RepoName, row.ContributorID, row.IssueID, row.IssueTitle, row.IssueBody,
			row.IssueComments, row.IssueState, row.IssueCreatedAt, row.IssueClosedAt, row.OpenedBy,
			row.IssueLabels, row.LinkedPRCount, row.ModifiedSourceFiles, row.CommitMessages,
			minedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert pair %s/%s#%d: %w", row.RepoName, row.ContributorID, row.IssueID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	return nil
}

// ListAll returns every pair, ordered by repo then issue then contributor.
func (r *PairRepo) ListAll(ctx context.Context) ([]miner.Row, error) {
	query := `SELECT ` + pairColumns + ` FROM pairs
		ORDER BY repo_name, issue_id, contributor_id`

	return r.queryRows(ctx, query)
}

// ListByContributor returns a contributor's pairs, ordered by repo then issue.
func (r *PairRepo) ListByContributor(ctx context.Context, contributorID string) ([]miner.Row, error) {
	query := `SELECT ` + pairColumns + ` FROM pairs
		WHERE contributor_id = ?
		ORDER BY repo_name, issue_id`

	return r.queryRows(ctx, query, contributorID)
}

// Contributors returns distinct contributor IDs, excluding the unknown
// placeholder, ordered alphabetically.
func (r *PairRepo) Contributors(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT contributor_id FROM pairs
		WHERE contributor_id != ?
		ORDER BY contributor_id`

	rows, err := r.db.Reader.QueryContext(ctx, query, miner.UnknownContributor)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	defer rows.Close()

	var contributors []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contributor: %w", err)
		}
		contributors = append(contributors, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributors: %w", err)
	}

	return contributors, nil
}

// Count returns the total number of pairs.
func (r *PairRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM pairs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pairs: %w", err)
	}
	return count, nil
}

// DeleteByRepo removes all pairs mined from one repository.
func (r *PairRepo) DeleteByRepo(ctx context.Context, repoName string) error {
	_, err := r.db.Writer.ExecContext(ctx, `DELETE FROM pairs WHERE repo_name = ?`, repoName)
	if err != nil {
		return fmt.Errorf("delete pairs for %s: %w", repoName, err)
	}
	return nil
}

func (r *PairRepo) queryRows(ctx context.Context, query string, args ...any) ([]miner.Row, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	var out []miner.Row
	for rows.Next() {
		var row miner.Row
		err := rows.Scan(
			&row.RepoName, &row.ContributorID, &row.IssueID, &row.IssueTitle, &row.IssueBody,
			&row.IssueComments, &row.IssueState, &row.IssueCreatedAt, &row.IssueClosedAt, &row.OpenedBy,
			&row.IssueLabels, &row.LinkedPRCount, &row.ModifiedSourceFiles, &row.CommitMessages,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}

	return out, nil
}
