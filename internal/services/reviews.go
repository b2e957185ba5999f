package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/database/books"
	"github.com/mrlokans/audioshelf/internal/database/reviews"
	"github.com/mrlokans/audioshelf/internal/domainerr"
	"github.com/mrlokans/audioshelf/internal/entities"
	"github.com/mrlokans/audioshelf/internal/validation"
)

type reviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewLedger records one rating per user and book. Reviews cannot be edited.
type ReviewLedger struct {
	db        *gorm.DB
	validator *validation.Validator
	audit     AuditRecorder
}

func NewReviewLedger(db *gorm.DB, v *validation.Validator, auditor AuditRecorder) *ReviewLedger {
	return &ReviewLedger{db: db, validator: v, audit: auditorOrNoop(auditor)}
}

// AddReview stores the user's review of a book. A second review of the same
// book fails with Conflict and leaves the first one unchanged.
func (l *ReviewLedger) AddReview(ctx context.Context, actor Actor, bookID uint, rating int, comment string) (*entities.Review, error) {
	if err := actor.requireUser(); err != nil {
		return nil, err
	}
	if rating < entities.MinRating || rating > entities.MaxRating {
		return nil, domainerr.InvalidInputWithDetails("validation failed", map[string]string{
			"rating": fmt.Sprintf("must be between %d and %d", entities.MinRating, entities.MaxRating),
		})
	}
	in := reviewInput{Rating: rating, Comment: strings.TrimSpace(comment)}
	if err := l.validator.Validate(in); err != nil {
		return nil, err
	}

	review := &entities.Review{
		UserID:  actor.UserID,
		BookID:  bookID,
		Rating:  in.Rating,
		Comment: in.Comment,
	}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := books.NewRepository(tx).BookExists(bookID)
		if err != nil {
			return storeError(err, "book %d", bookID)
		}
		if !exists {
			return domainerr.NotFoundf("book %d not found", bookID)
		}

		repo := reviews.NewRepository(tx)
		reviewed, err := repo.Exists(actor.UserID, bookID)
		if err != nil {
			return storeError(err, "reviews")
		}
		if reviewed {
			return domainerr.Conflictf("you already reviewed book %d", bookID)
		}
		return storeError(repo.Create(review), "review of book %d", bookID)
	})
	if err != nil {
		return nil, err
	}

	l.audit.LogReview(ctx, actor.UserID, bookID, review.Rating)
	return review, nil
}

// ListReviews returns a book's reviews, newest first.
func (l *ReviewLedger) ListReviews(ctx context.Context, bookID uint) ([]entities.Review, error) {
	db := l.db.WithContext(ctx)
	exists, err := books.NewRepository(db).BookExists(bookID)
	if err != nil {
		return nil, storeError(err, "book %d", bookID)
	}
	if !exists {
		return nil, domainerr.NotFoundf("book %d not found", bookID)
	}
	list, err := reviews.NewRepository(db).ListForBook(bookID)
	if err != nil {
		return nil, storeError(err, "reviews of book %d", bookID)
	}
	return list, nil
}

// RatingSummary returns the number of reviews and the average rating.
func (l *ReviewLedger) RatingSummary(ctx context.Context, bookID uint) (reviews.Summary, error) {
	summary, err := reviews.NewRepository(l.db.WithContext(ctx)).SummaryForBook(bookID)
	if err != nil {
		return reviews.Summary{}, storeError(err, "reviews of book %d", bookID)
	}
	return summary, nil
}
