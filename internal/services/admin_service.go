package services

import (
	"context"

	"alquitones/internal/domain"
	"alquitones/internal/repos"
)

type Stats struct {
	Instruments        int                          `json:"instruments"`
	Categories         int                          `json:"categories"`
	Users              int                          `json:"users"`
	ActiveUsers        int                          `json:"activeUsers"`
	ActiveReservations int                          `json:"activeReservations"`
	ByStatus           map[domain.ProductStatus]int `json:"byStatus"`
	ByCategory         map[int]int                  `json:"byCategory"`
}

// AdminService backs the back-office user screens and dashboard.
type AdminService struct {
	Users   *repos.UserRepo
	Catalog *CatalogService
	Res     *repos.ReservationRepo
}

func NewAdminService(users *repos.UserRepo, catalog *CatalogService, res *repos.ReservationRepo) *AdminService {
	return &AdminService{Users: users, Catalog: catalog, Res: res}
}

func (s *AdminService) ListUsers() []domain.User {
	users := s.Users.List()
	for i := range users {
		users[i] = users[i].Public()
	}
	return users
}

func (s *AdminService) GetUser(id int) (domain.User, error) {
	u, err := s.Users.ByID(id)
	return u.Public(), err
}

func (s *AdminService) CreateUser(ctx context.Context, in domain.UserInput) (domain.User, error) {
	u, err := s.Users.Create(ctx, in)
	return u.Public(), err
}

func (s *AdminService) UpdateUser(ctx context.Context, id int, p domain.UserPatch) (domain.User, error) {
	u, err := s.Users.Update(ctx, id, p)
	return u.Public(), err
}

func (s *AdminService) DeleteUser(ctx context.Context, id int) error {
	_, err := s.Users.DeleteUserCascade(ctx, id)
	return err
}

func (s *AdminService) Stats() Stats {
	st := Stats{ByStatus: map[domain.ProductStatus]int{}, ByCategory: s.Catalog.CountByCategory()}
	prods := s.Catalog.Prods.List()
	st.Instruments = len(prods)
	for _, p := range prods {
		st.ByStatus[p.Status]++
	}
	st.Categories = len(s.Catalog.ListCategories())
	for _, u := range s.Users.List() {
		st.Users++
		if u.IsActive {
			st.ActiveUsers++
		}
	}
	for _, r := range s.Res.List() {
		if r.Status == domain.ReservationActive {
			st.ActiveReservations++
		}
	}
	return st
}
