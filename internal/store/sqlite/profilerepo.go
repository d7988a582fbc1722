package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Profile kinds.
const (
	ProfileKindContributor = "contributor"
	ProfileKindIssue       = "issue"
)

// Skill sources.
const (
	SkillSourceLLM      = "llm"
	SkillSourceFallback = "fallback"
)

// Profile is a stored skill profile: a contributor's demonstrated skills or
// an issue's required skills. Key is the contributor login or "repo#number".
type Profile struct {
	ID            int64
	Kind          string
	Key           string
	Skills        []string
	Source        string
	Repos         []string
	ResolvedCount int
	Content       string
	UpdatedAt     time.Time
}

// ProfileRepo persists skill profiles.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new ProfileRepo backed by the given DB.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Upsert inserts a profile, overwriting any existing profile of the same
// kind and key.
func (r *ProfileRepo) Upsert(ctx context.Context, p *Profile) error {
	const query = `INSERT INTO profiles (kind, key, skills, source, repos, resolved_count, content, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, key) DO UPDATE SET
			skills = excluded.skills,
			source = excluded.source,
			repos = excluded.repos,
			resolved_count = excluded.resolved_count,
			content = excluded.content,
			updated_at = excluded.updated_at`

	skills, err := json.Marshal(sliceOrEmpty(p.Skills))
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	repos, err := json.Marshal(sliceOrEmpty(p.Repos))
	if err != nil {
		return fmt.Errorf("marshal repos: %w", err)
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		p.Kind, p.Key, string(skills), p.Source, string(repos), p.ResolvedCount,
		p.Content, updatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s/%s: %w", p.Kind, p.Key, err)
	}

	return nil
}

// Get retrieves a profile by kind and key. Returns nil, nil if absent.
func (r *ProfileRepo) Get(ctx context.Context, kind, key string) (*Profile, error) {
	const query = `SELECT id, kind, key, skills, source, repos, resolved_count, content, updated_at
		FROM profiles WHERE kind = ? AND key = ?`

	p, err := scanProfile(r.db.Reader.QueryRowContext(ctx, query, kind, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s/%s: %w", kind, key, err)
	}

	return p, nil
}

// ListByKind returns all profiles of one kind, ordered by key.
func (r *ProfileRepo) ListByKind(ctx context.Context, kind string) ([]Profile, error) {
	const query = `SELECT id, kind, key, skills, source, repos, resolved_count, content, updated_at
		FROM profiles WHERE kind = ? ORDER BY key`

	rows, err := r.db.Reader.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s profiles: %w", kind, err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*Profile, error) {
	var p Profile
	var skills, repos, updatedAt string

	err := s.Scan(&p.ID, &p.Kind, &p.Key, &skills, &p.Source, &repos, &p.ResolvedCount, &p.Content, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	if err := json.Unmarshal([]byte(repos), &p.Repos); err != nil {
		return nil, fmt.Errorf("parse repos: %w", err)
	}

	p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &p, nil
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
