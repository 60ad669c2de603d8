// Package repository declares the storage contracts the service layer depends on.
package repository

import (
	"context"

	"github.com/sakif/what-to-watch/internal/model"
)

// OpinionRepository is the data-access layer for opinions.
//
// Implementations must order rows by a stable key for GetAtOffset, so that
// offsets in [0, Count) always address every stored opinion exactly once.
type OpinionRepository interface {
	Count(ctx context.Context) (int, error)
	// Create fills in opinion.ID and opinion.Timestamp. A duplicate text
	// returns an error matching apperror.ErrConflict.
	Create(ctx context.Context, opinion *model.Opinion) error
	// GetByID returns apperror.ErrNotFound when no opinion has the id.
	GetByID(ctx context.Context, id int64) (*model.Opinion, error)
	// GetByText returns (nil, nil) when no opinion has the text.
	GetByText(ctx context.Context, text string) (*model.Opinion, error)
	// GetAtOffset returns apperror.ErrNotFound for offsets outside [0, Count).
	GetAtOffset(ctx context.Context, offset int) (*model.Opinion, error)
}
