package repository

import (
	"context"
	"fmt"

	"github.com/iconforge/iconforge/internal/model"
)

// CreateIcon inserts a new icon row. Icons are immutable after insert;
// there is no corresponding update or delete.
func (r *Repository) CreateIcon(ctx context.Context, icon *model.Icon) error {
	query := `
		INSERT INTO icons (id, prompt, url, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		icon.ID,
		icon.Prompt,
		icon.URL,
		icon.OwnerID,
		icon.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create icon: %w", err)
	}

	return nil
}

// ListIconsByOwner retrieves all icons owned by a user, newest first.
func (r *Repository) ListIconsByOwner(ctx context.Context, ownerID string) ([]*model.Icon, error) {
	query := `
		SELECT id, prompt, url, owner_id, created_at
		FROM icons
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list icons by owner: %w", err)
	}
	defer rows.Close()

	var icons []*model.Icon
	for rows.Next() {
		var icon model.Icon
		if err := rows.Scan(
			&icon.ID,
			&icon.Prompt,
			&icon.URL,
			&icon.OwnerID,
			&icon.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan icon: %w", err)
		}
		icons = append(icons, &icon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating icons: %w", err)
	}

	return icons, nil
}

// CountIcons returns the total number of icon rows.
func (r *Repository) CountIcons(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM icons`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count icons: %w", err)
	}
	return count, nil
}

// ListIconsPage returns up to limit icons starting at offset, ordered by
// descending creation time. Combined with a random offset from the caller
// this gives the community feed its sampled-but-stable ordering.
func (r *Repository) ListIconsPage(ctx context.Context, offset int64, limit int) ([]*model.Icon, error) {
	query := `
		SELECT id, prompt, url, owner_id, created_at
		FROM icons
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list icons page: %w", err)
	}
	defer rows.Close()

	var icons []*model.Icon
	for rows.Next() {
		var icon model.Icon
		if err := rows.Scan(
			&icon.ID,
			&icon.Prompt,
			&icon.URL,
			&icon.OwnerID,
			&icon.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan icon: %w", err)
		}
		icons = append(icons, &icon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating icons: %w", err)
	}

	return icons, nil
}

// CountIconsByOwner returns the number of icons a user owns.
func (r *Repository) CountIconsByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM icons WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count icons by owner: %w", err)
	}
	return count, nil
}
