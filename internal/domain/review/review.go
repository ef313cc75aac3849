package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/google/uuid"
)

// ReviewsKey is the log stream holding every review.
const ReviewsKey = "ecommerceReviews"

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Review is one rating and comment left by a user. Reviews are never edited
// or removed, and a user may review the same product more than once.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

func (r Review) Validate() error {
	if r.ID == "" || r.ProductID == "" || r.UserID == "" {
		return errors.New("review is missing id, productId or userId")
	}
	return nil
}

// ValidRating reports whether rating is in the accepted 1..5 range.
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// Summary holds aggregate review statistics for a product.
type Summary struct {
	AverageRating float64 `json:"averageRating"`
	TotalCount    int     `json:"totalCount"`
}

type Service struct {
	log kv.Log
}

func NewService(l kv.Log) *Service {
	return &Service{log: l}
}

// AddReview appends a review with a fresh id and the current time.
func (s *Service) AddReview(ctx context.Context, productID, userID string, rating int, comment string) (*Review, error) {
	r := Review{
		ID:        "REVIEW-" + uuid.New().String(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		Timestamp: time.Now().UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	if err := s.log.Append(ctx, ReviewsKey, data); err != nil {
		return nil, fmt.Errorf("append review: %w", err)
	}
	return &r, nil
}

// All returns every review, newest first.
func (s *Service) All(ctx context.Context) ([]Review, error) {
	return s.filter(ctx, func(Review) bool { return true })
}

func (s *Service) ByProduct(ctx context.Context, productID string) ([]Review, error) {
	return s.filter(ctx, func(r Review) bool { return r.ProductID == productID })
}

func (s *Service) ByUser(ctx context.Context, userID string) ([]Review, error) {
	return s.filter(ctx, func(r Review) bool { return r.UserID == userID })
}

// Summary averages the ratings in the product's reviews.
func (s *Service) Summary(ctx context.Context, productID string) (Summary, error) {
	reviews, err := s.ByProduct(ctx, productID)
	if err != nil {
		return Summary{}, err
	}
	if len(reviews) == 0 {
		return Summary{}, nil
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return Summary{
		AverageRating: float64(sum) / float64(len(reviews)),
		TotalCount:    len(reviews),
	}, nil
}

func (s *Service) filter(ctx context.Context, keep func(Review) bool) ([]Review, error) {
	entries, err := s.log.Range(ctx, ReviewsKey)
	if err != nil {
		return nil, fmt.Errorf("read reviews: %w", err)
	}
	all := kv.DecodeEntries[Review](ReviewsKey, entries)

	out := make([]Review, 0, len(all))
	for _, r := range all {
		if keep(r) {
			out = append(out, r)
		}
	}
	// Stable keeps append order among equal timestamps, reversed below.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
