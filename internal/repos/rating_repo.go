package repos

import (
	"context"
	"strings"

	"alquitones/internal/domain"
)

type RatingRepo struct{ st *Store }

func NewRatingRepo(st *Store) *RatingRepo { return &RatingRepo{st: st} }

func (r *RatingRepo) ListByInstrument(productID int) []domain.Rating {
	out := []domain.Rating{}
	r.st.read(func(s *Snapshot) {
		for _, x := range s.Ratings {
			if x.InstrumentID == productID {
				out = append(out, x)
			}
		}
	})
	return out
}

// Upsert stores one rating per user and instrument; a second submission
// replaces score and comment but keeps the original id.
func (r *RatingRepo) Upsert(ctx context.Context, in domain.Rating) (domain.Rating, error) {
	if in.Score < 1 || in.Score > 5 {
		return domain.Rating{}, domain.Invalid("score must be between 1 and 5")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if len([]rune(in.Comment)) > 500 {
		return domain.Rating{}, domain.Invalid("comment is limited to 500 characters")
	}
	err := r.st.write(ctx, "rating.upsert", func(s *Snapshot) error {
		if s.userIndex(in.UserID) < 0 {
			return domain.NotFound("user", in.UserID)
		}
		if s.productIndex(in.InstrumentID) < 0 {
			return domain.NotFound("instrument", in.InstrumentID)
		}
		in.CreatedAt = r.st.Now()
		for i, x := range s.Ratings {
			if x.UserID == in.UserID && x.InstrumentID == in.InstrumentID {
				in.ID = x.ID
				s.Ratings[i] = in
				return nil
			}
		}
		s.Seq.Rating++
		in.ID = s.Seq.Rating
		s.Ratings = append(s.Ratings, in)
		return nil
	})
	if err != nil {
		return domain.Rating{}, err
	}
	return in, nil
}
