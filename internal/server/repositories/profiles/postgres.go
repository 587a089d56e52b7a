package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/webstarter/authkit/internal/common"
	"github.com/webstarter/authkit/internal/dbx"
	"github.com/webstarter/authkit/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT user_id, bio, location, website_url, github_username,
	                 twitter_username, linkedin_username, preferences,
	                 created_at, updated_at
	          FROM user_profiles WHERE user_id = $1`

	p := &models.Profile{}
	var bio, location, website, github, twitter, linkedin sql.NullString
	var prefs []byte
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &bio, &location, &website, &github, &twitter, &linkedin,
		&prefs, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.Bio = bio.String
	p.Location = location.String
	p.WebsiteURL = website.String
	p.GithubUsername = github.String
	p.TwitterUsername = twitter.String
	p.LinkedinUsername = linkedin.String
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
			return nil, fmt.Errorf("decoding preferences: %w", err)
		}
	}
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return nil, fmt.Errorf("encoding preferences: %w", err)
	}

	query := `INSERT INTO user_profiles
	              (user_id, bio, location, website_url, github_username,
	               twitter_username, linkedin_username, preferences)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (user_id) DO UPDATE SET
	              bio = excluded.bio,
	              location = excluded.location,
	              website_url = excluded.website_url,
	              github_username = excluded.github_username,
	              twitter_username = excluded.twitter_username,
	              linkedin_username = excluded.linkedin_username,
	              preferences = excluded.preferences,
	              updated_at = now()
	          RETURNING created_at, updated_at`

	out := *p
	err = r.db.QueryRowContext(ctx, query,
		p.UserID, p.Bio, p.Location, p.WebsiteURL, p.GithubUsername,
		p.TwitterUsername, p.LinkedinUsername, prefs).
		Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
