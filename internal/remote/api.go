// Package remote talks to the hosted marketplace API and falls back to the
// local store when it cannot be reached.
package remote

import (
	"context"

	"alquitones/internal/domain"
	"alquitones/internal/services"
)

// API is the set of marketplace calls the app consumes. Client serves them
// over HTTP; Local serves them from the in-process store with the same shapes.
type API interface {
	Instruments(ctx context.Context) ([]domain.Product, error)
	Instrument(ctx context.Context, id int) (domain.Product, error)
	CreateReservation(ctx context.Context, user domain.User, req services.AvailabilityRequest) (Booking, error)
	CancelReservation(ctx context.Context, user domain.User, id int) (domain.Reservation, error)
	Reservations(ctx context.Context) ([]domain.Reservation, error)
	Users(ctx context.Context) ([]domain.User, error)
	Ratings(ctx context.Context, instrumentID int) (services.RatingSummary, error)
	SubmitRating(ctx context.Context, user domain.User, instrumentID, score int, comment string) (domain.Rating, error)
	Availability(ctx context.Context, instrumentID int, start, end domain.Date) ([]services.DayAvailability, error)
}

// Booking is a created reservation with the evaluation that admitted it. A
// rejected booking still carries the evaluation alongside the error.
type Booking struct {
	Reservation  domain.Reservation          `json:"reservation"`
	Availability services.AvailabilityResult `json:"availability"`
}

// Local answers API calls from the store services.
type Local struct {
	Catalog *services.CatalogService
	Avail   *services.AvailabilityService
	Res     *services.ReservationService
	Rates   *services.RatingService
	Admin   *services.AdminService
}

var _ API = (*Local)(nil)

func (l *Local) Instruments(context.Context) ([]domain.Product, error) {
	return l.Catalog.Search(""), nil
}

func (l *Local) Instrument(_ context.Context, id int) (domain.Product, error) {
	return l.Catalog.GetProduct(id)
}

func (l *Local) CreateReservation(ctx context.Context, user domain.User, req services.AvailabilityRequest) (Booking, error) {
	r, result, err := l.Res.Create(ctx, user.ID, req)
	return Booking{Reservation: r, Availability: result}, err
}

func (l *Local) CancelReservation(ctx context.Context, user domain.User, id int) (domain.Reservation, error) {
	return l.Res.Cancel(ctx, id, user)
}

func (l *Local) Reservations(context.Context) ([]domain.Reservation, error) {
	return l.Res.ListAll(), nil
}

func (l *Local) Users(context.Context) ([]domain.User, error) {
	return l.Admin.ListUsers(), nil
}

func (l *Local) Ratings(_ context.Context, instrumentID int) (services.RatingSummary, error) {
	if _, err := l.Catalog.GetProduct(instrumentID); err != nil {
		return services.RatingSummary{}, err
	}
	return l.Rates.ByInstrument(instrumentID), nil
}

func (l *Local) SubmitRating(ctx context.Context, user domain.User, instrumentID, score int, comment string) (domain.Rating, error) {
	return l.Rates.Submit(ctx, user.ID, instrumentID, score, comment)
}

func (l *Local) Availability(_ context.Context, instrumentID int, start, end domain.Date) ([]services.DayAvailability, error) {
	return l.Avail.DailyAvailability(instrumentID, start, end)
}
