package repos

import (
	"context"

	"alquitones/internal/domain"
)

type FavoriteRepo struct{ st *Store }

func NewFavoriteRepo(st *Store) *FavoriteRepo { return &FavoriteRepo{st: st} }

// Add is idempotent.
func (r *FavoriteRepo) Add(ctx context.Context, userID, productID int) error {
	err := r.st.write(ctx, "favorite.add", func(s *Snapshot) error {
		if s.userIndex(userID) < 0 {
			return domain.NotFound("user", userID)
		}
		if s.productIndex(productID) < 0 {
			return domain.NotFound("instrument", productID)
		}
		for _, f := range s.Favorites {
			if f.UserID == userID && f.InstrumentID == productID {
				return errNoChange
			}
		}
		s.Favorites = append(s.Favorites, domain.Favorite{UserID: userID, InstrumentID: productID, CreatedAt: r.st.Now()})
		return nil
	})
	if err == errNoChange {
		return nil
	}
	return err
}

func (r *FavoriteRepo) Remove(ctx context.Context, userID, productID int) (bool, error) {
	err := r.st.write(ctx, "favorite.remove", func(s *Snapshot) error {
		before := len(s.Favorites)
		s.Favorites = filter(s.Favorites, func(f domain.Favorite) bool {
			return f.UserID != userID || f.InstrumentID != productID
		})
		if len(s.Favorites) == before {
			return errNoChange
		}
		return nil
	})
	if err == errNoChange {
		return false, nil
	}
	return err == nil, err
}

// List returns the user's favorite instruments, skipping any that no longer exist.
func (r *FavoriteRepo) List(userID int) []domain.Product {
	out := []domain.Product{}
	r.st.read(func(s *Snapshot) {
		for _, f := range s.Favorites {
			if f.UserID != userID {
				continue
			}
			if i := s.productIndex(f.InstrumentID); i >= 0 {
				out = append(out, s.Products[i].Clone())
			}
		}
	})
	return out
}
