package services

import (
	"context"

	"github.com/shopspring/decimal"

	"alquitones/internal/domain"
	"alquitones/internal/repos"
)

type RatingSummary struct {
	InstrumentID int             `json:"instrumentId"`
	Count        int             `json:"count"`
	Average      decimal.Decimal `json:"average"`
	Ratings      []domain.Rating `json:"ratings"`
}

type RatingService struct {
	Ratings *repos.RatingRepo
}

func NewRatingService(r *repos.RatingRepo) *RatingService { return &RatingService{Ratings: r} }

func (s *RatingService) Submit(ctx context.Context, userID, instrumentID, score int, comment string) (domain.Rating, error) {
	return s.Ratings.Upsert(ctx, domain.Rating{
		InstrumentID: instrumentID,
		UserID:       userID,
		Score:        score,
		Comment:      comment,
	})
}

// ByInstrument returns the ratings with their average rounded to one decimal.
func (s *RatingService) ByInstrument(instrumentID int) RatingSummary {
	list := s.Ratings.ListByInstrument(instrumentID)
	sum := 0
	for _, r := range list {
		sum += r.Score
	}
	avg := decimal.Zero
	if len(list) > 0 {
		avg = decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(list)))).Round(1)
	}
	return RatingSummary{InstrumentID: instrumentID, Count: len(list), Average: avg, Ratings: list}
}
