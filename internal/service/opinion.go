// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, renders pages
//	Service (Business layer) → enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// OpinionService takes a repository.OpinionRepository (interface), not a
// *sqlite.DB, so tests run it against an in-memory fake.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/sakif/what-to-watch/internal/apperror"
	"github.com/sakif/what-to-watch/internal/model"
	"github.com/sakif/what-to-watch/internal/repository"
)

// EmptyMessage is the NotFound message when there is nothing to pick from.
const EmptyMessage = "В базе данных мнений о фильмах нет."

// ErrEmpty is returned by Random when no opinion is stored.
// It matches apperror.ErrNotFound.
var ErrEmpty = &apperror.AppError{Err: apperror.ErrNotFound, Message: EmptyMessage}

// OpinionService handles business logic for opinions.
type OpinionService struct {
	repo   repository.OpinionRepository
	logger *slog.Logger
	// intn returns a uniform int in [0, n). Swapped out in tests.
	intn func(n int) int
}

// NewOpinionService creates a new OpinionService.
func NewOpinionService(repo repository.OpinionRepository, logger *slog.Logger) *OpinionService {
	return &OpinionService{
		repo:   repo,
		logger: logger,
		intn:   rand.IntN,
	}
}

// Random returns a uniformly random stored opinion.
//
// RANDOM PICK:
// Each call draws an independent offset in [0, count) and fetches the row at
// that position. Offsets are positions, not ids, so gaps in the id sequence
// never bias the pick. An empty store yields ErrEmpty; a row that vanishes
// between count and fetch yields a plain apperror.ErrNotFound.
func (s *OpinionService) Random(ctx context.Context) (*model.Opinion, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting opinions: %w", err)
	}
	if n == 0 {
		return nil, ErrEmpty
	}

	offset := s.intn(n)
	opinion, err := s.repo.GetAtOffset(ctx, offset)
	if err != nil {
		return nil, fmt.Errorf("picking opinion at offset %d of %d: %w", offset, n, err)
	}
	return opinion, nil
}

// GetByID retrieves an opinion by its ID.
// Returns apperror.ErrNotFound if the opinion doesn't exist.
func (s *OpinionService) GetByID(ctx context.Context, id int64) (*model.Opinion, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a validated draft.
//
// DUPLICATES:
// The text is checked up front so the common case never hits the UNIQUE
// index. Two identical submissions racing past the check still collide at
// insert time; the repository reports that as apperror.ErrConflict too, so
// callers see one duplicate error either way.
func (s *OpinionService) Create(ctx context.Context, draft model.OpinionDraft) (*model.Opinion, error) {
	draft = normalize(draft)
	if err := checkDraft(draft); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByText(ctx, draft.Text)
	if err != nil {
		return nil, fmt.Errorf("checking for duplicate opinion: %w", err)
	}
	if existing != nil {
		s.logger.Info("duplicate opinion rejected", slog.Int64("existing_id", existing.ID))
		return nil, apperror.Conflict("opinion", "text")
	}

	opinion := draft.Opinion()
	if err := s.repo.Create(ctx, opinion); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Warn("duplicate opinion inserted concurrently",
				slog.String("title", draft.Title),
			)
			return nil, err
		}
		s.logger.Error("failed to create opinion",
			slog.String("title", draft.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating opinion: %w", err)
	}

	s.logger.Info("opinion created",
		slog.Int64("id", opinion.ID),
		slog.String("title", opinion.Title),
	)
	return opinion, nil
}

// normalize trims every field and puts title and text in NFC, so the
// unique text index sees one form of each visually identical string.
func normalize(d model.OpinionDraft) model.OpinionDraft {
	return model.OpinionDraft{
		Title:   norm.NFC.String(strings.TrimSpace(d.Title)),
		Text:    norm.NFC.String(strings.TrimSpace(d.Text)),
		Source:  strings.TrimSpace(d.Source),
		AddedBy: strings.TrimSpace(d.AddedBy),
	}
}

func checkDraft(d model.OpinionDraft) error {
	switch {
	case d.Title == "":
		return apperror.ValidationFailed("title", "opinion title is required")
	case d.Text == "":
		return apperror.ValidationFailed("text", "opinion text is required")
	case utf8.RuneCountInString(d.Title) > model.MaxTitleLength:
		return apperror.ValidationFailed("title",
			fmt.Sprintf("opinion title exceeds %d characters", model.MaxTitleLength))
	case utf8.RuneCountInString(d.Source) > model.MaxSourceLength:
		return apperror.ValidationFailed("source",
			fmt.Sprintf("opinion source exceeds %d characters", model.MaxSourceLength))
	case utf8.RuneCountInString(d.AddedBy) > model.MaxAddedByLength:
		return apperror.ValidationFailed("added_by",
			fmt.Sprintf("opinion author exceeds %d characters", model.MaxAddedByLength))
	}
	return nil
}
