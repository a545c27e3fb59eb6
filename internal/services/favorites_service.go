package services

import (
	"context"

	"alquitones/internal/domain"
	"alquitones/internal/repos"
)

type FavoritesService struct {
	Repo *repos.FavoriteRepo
}

func NewFavoritesService(r *repos.FavoriteRepo) *FavoritesService { return &FavoritesService{Repo: r} }

func (s *FavoritesService) Save(ctx context.Context, userID, productID int) error {
	return s.Repo.Add(ctx, userID, productID)
}

func (s *FavoritesService) Unsave(ctx context.Context, userID, productID int) error {
	_, err := s.Repo.Remove(ctx, userID, productID)
	return err
}

func (s *FavoritesService) List(userID int) []domain.Product { return s.Repo.List(userID) }
