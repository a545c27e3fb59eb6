package remote

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"alquitones/internal/domain"
	applog "alquitones/internal/log"
	"alquitones/internal/metrics"
	"alquitones/internal/services"
)

// Fallback sends every call to Primary and repeats it against Local when the
// remote is unavailable. Writes are repeated only when the remote was never
// reached, since a timeout or 5xx may hide an applied change. Domain errors
// from Primary are returned as is.
type Fallback struct {
	Primary API
	Local   API
	log     zerolog.Logger
}

var _ API = (*Fallback)(nil)

// NewFallback returns local alone when primary is nil.
func NewFallback(primary, local API) API {
	if primary == nil {
		return local
	}
	return &Fallback{Primary: primary, Local: local, log: applog.Component("remote")}
}

func call[T any](f *Fallback, op string, remote, local func() (T, error)) (T, error) {
	return callOn(f, op, ErrRemoteUnavailable, remote, local)
}

func write[T any](f *Fallback, op string, remote, local func() (T, error)) (T, error) {
	return callOn(f, op, ErrRemoteUnreachable, remote, local)
}

func callOn[T any](f *Fallback, op string, on error, remote, local func() (T, error)) (T, error) {
	v, err := remote()
	if err == nil {
		metrics.RemoteCalls.WithLabelValues(op, "remote").Inc()
		return v, nil
	}
	if !errors.Is(err, on) {
		if errors.Is(err, ErrRemoteUnavailable) {
			f.log.Warn().Err(err).Str("op", op).Msg("remote.write.unconfirmed")
		}
		metrics.RemoteCalls.WithLabelValues(op, "remote").Inc()
		return v, err
	}
	f.log.Warn().Err(err).Str("op", op).Msg("remote.fallback")
	metrics.RemoteCalls.WithLabelValues(op, "local").Inc()
	return local()
}

func (f *Fallback) Instruments(ctx context.Context) ([]domain.Product, error) {
	return call(f, "instruments",
		func() ([]domain.Product, error) { return f.Primary.Instruments(ctx) },
		func() ([]domain.Product, error) { return f.Local.Instruments(ctx) })
}

func (f *Fallback) Instrument(ctx context.Context, id int) (domain.Product, error) {
	return call(f, "instrument",
		func() (domain.Product, error) { return f.Primary.Instrument(ctx, id) },
		func() (domain.Product, error) { return f.Local.Instrument(ctx, id) })
}

func (f *Fallback) CreateReservation(ctx context.Context, user domain.User, req services.AvailabilityRequest) (Booking, error) {
	return write(f, "create_reservation",
		func() (Booking, error) { return f.Primary.CreateReservation(ctx, user, req) },
		func() (Booking, error) { return f.Local.CreateReservation(ctx, user, req) })
}

func (f *Fallback) CancelReservation(ctx context.Context, user domain.User, id int) (domain.Reservation, error) {
	return write(f, "cancel_reservation",
		func() (domain.Reservation, error) { return f.Primary.CancelReservation(ctx, user, id) },
		func() (domain.Reservation, error) { return f.Local.CancelReservation(ctx, user, id) })
}

func (f *Fallback) Reservations(ctx context.Context) ([]domain.Reservation, error) {
	return call(f, "reservations",
		func() ([]domain.Reservation, error) { return f.Primary.Reservations(ctx) },
		func() ([]domain.Reservation, error) { return f.Local.Reservations(ctx) })
}

func (f *Fallback) Users(ctx context.Context) ([]domain.User, error) {
	return call(f, "users",
		func() ([]domain.User, error) { return f.Primary.Users(ctx) },
		func() ([]domain.User, error) { return f.Local.Users(ctx) })
}

func (f *Fallback) Ratings(ctx context.Context, instrumentID int) (services.RatingSummary, error) {
	return call(f, "ratings",
		func() (services.RatingSummary, error) { return f.Primary.Ratings(ctx, instrumentID) },
		func() (services.RatingSummary, error) { return f.Local.Ratings(ctx, instrumentID) })
}

func (f *Fallback) SubmitRating(ctx context.Context, user domain.User, instrumentID, score int, comment string) (domain.Rating, error) {
	return write(f, "submit_rating",
		func() (domain.Rating, error) { return f.Primary.SubmitRating(ctx, user, instrumentID, score, comment) },
		func() (domain.Rating, error) { return f.Local.SubmitRating(ctx, user, instrumentID, score, comment) })
}

func (f *Fallback) Availability(ctx context.Context, instrumentID int, start, end domain.Date) ([]services.DayAvailability, error) {
	return call(f, "availability",
		func() ([]services.DayAvailability, error) { return f.Primary.Availability(ctx, instrumentID, start, end) },
		func() ([]services.DayAvailability, error) { return f.Local.Availability(ctx, instrumentID, start, end) })
}
