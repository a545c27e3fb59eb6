package services

import (
	"context"
	"fmt"

	"alquitones/internal/domain"
	"alquitones/internal/repos"
)

type ReservationService struct {
	Reservations *repos.ReservationRepo
	Today        func() domain.Date
}

func NewReservationService(res *repos.ReservationRepo, today func() domain.Date) *ReservationService {
	return &ReservationService{Reservations: res, Today: today}
}

// Create books req for userID. The availability check and the insert share
// one store write.
func (s *ReservationService) Create(ctx context.Context, userID int, req AvailabilityRequest) (domain.Reservation, AvailabilityResult, error) {
	var result AvailabilityResult
	draft := domain.Reservation{
		InstrumentID: req.InstrumentID,
		UserID:       userID,
		StartDate:    req.Start,
		EndDate:      req.End,
		Quantity:     req.Quantity,
	}
	created, err := s.Reservations.Create(ctx, draft, func(inv repos.Inventory, r *domain.Reservation) error {
		result = Evaluate(inv, req, s.Today())
		recordCheck(result)
		if !result.Valid {
			if !result.FailedDay.IsZero() {
				return fmt.Errorf("%w: %s on %s", domain.ErrUnavailable, result.Reason, result.FailedDay)
			}
			return fmt.Errorf("%w: %s", domain.ErrUnavailable, result.Reason)
		}
		r.StartDate, r.EndDate = result.Start, result.End
		r.TotalDays = result.TotalDays
		r.TotalPrice = result.TotalPrice
		return nil
	})
	return created, result, err
}

// Cancel lets the owner or an admin cancel an active reservation.
func (s *ReservationService) Cancel(ctx context.Context, id int, actor domain.User) (domain.Reservation, error) {
	return s.Reservations.Transition(ctx, id, func(r *domain.Reservation) error {
		if r.UserID != actor.ID && !actor.IsAdmin() {
			return domain.ErrForbidden
		}
		if r.Status != domain.ReservationActive {
			return domain.Invalid("reservation %d is %s", r.ID, r.Status)
		}
		r.Status = domain.ReservationCancelled
		return nil
	})
}

// EndExpired closes active reservations whose last day has passed.
func (s *ReservationService) EndExpired(ctx context.Context) (int, error) {
	return s.Reservations.EndBefore(ctx, s.Today())
}

func (s *ReservationService) Get(id int) (domain.Reservation, error) { return s.Reservations.Get(id) }

func (s *ReservationService) ListAll() []domain.Reservation { return s.Reservations.List() }

func (s *ReservationService) ListByUser(userID int) []domain.Reservation {
	return s.Reservations.ListByUser(userID)
}

func (s *ReservationService) ListByInstrument(id int) []domain.Reservation {
	return s.Reservations.ListByInstrument(id)
}
