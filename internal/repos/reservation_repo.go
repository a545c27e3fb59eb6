package repos

import (
	"context"
	"errors"

	"alquitones/internal/domain"
)

type ReservationRepo struct{ st *Store }

func NewReservationRepo(st *Store) *ReservationRepo { return &ReservationRepo{st: st} }

func (r *ReservationRepo) List() []domain.Reservation {
	return r.where(func(domain.Reservation) bool { return true })
}

func (r *ReservationRepo) ListByUser(userID int) []domain.Reservation {
	return r.where(func(x domain.Reservation) bool { return x.UserID == userID })
}

func (r *ReservationRepo) ListByInstrument(productID int) []domain.Reservation {
	return r.where(func(x domain.Reservation) bool { return x.InstrumentID == productID })
}

func (r *ReservationRepo) where(keep func(domain.Reservation) bool) []domain.Reservation {
	out := []domain.Reservation{}
	r.st.read(func(s *Snapshot) {
		for _, x := range s.Reservations {
			if keep(x) {
				out = append(out, x)
			}
		}
	})
	return out
}

func (r *ReservationRepo) Get(id int) (domain.Reservation, error) {
	var (
		res domain.Reservation
		ok  bool
	)
	r.st.read(func(s *Snapshot) {
		if i := s.reservationIndex(id); i >= 0 {
			res, ok = s.Reservations[i], true
		}
	})
	if !ok {
		return domain.Reservation{}, domain.NotFound("reservation", id)
	}
	return res, nil
}

// Create runs check against the instrument's current inventory and inserts res
// in the same write, so no other booking can slip in between.
// check may fill derived fields (days, price) on res.
func (r *ReservationRepo) Create(ctx context.Context, res domain.Reservation, check func(inv Inventory, res *domain.Reservation) error) (domain.Reservation, error) {
	err := r.st.write(ctx, "reservation.create", func(s *Snapshot) error {
		ui := s.userIndex(res.UserID)
		if ui < 0 {
			return domain.NotFound("user", res.UserID)
		}
		if !s.Users[ui].IsActive {
			return domain.ErrAccountDisabled
		}
		inv, err := s.inventory(res.InstrumentID)
		if err != nil {
			return err
		}
		if err := check(inv, &res); err != nil {
			return err
		}
		s.Seq.Reservation++
		res.ID = s.Seq.Reservation
		res.Status = domain.ReservationActive
		res.CreatedAt = r.st.Now()
		s.Reservations = append(s.Reservations, res)
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

// Transition applies fn to the stored reservation and persists the result.
func (r *ReservationRepo) Transition(ctx context.Context, id int, fn func(*domain.Reservation) error) (domain.Reservation, error) {
	var out domain.Reservation
	err := r.st.write(ctx, "reservation.update", func(s *Snapshot) error {
		i := s.reservationIndex(id)
		if i < 0 {
			return domain.NotFound("reservation", id)
		}
		res := s.Reservations[i]
		if err := fn(&res); err != nil {
			return err
		}
		res.ID = id
		s.Reservations[i] = res
		out = res
		return nil
	})
	return out, err
}

// EndBefore marks active reservations whose last day is before day as ended.
func (r *ReservationRepo) EndBefore(ctx context.Context, day domain.Date) (int, error) {
	n := 0
	err := r.st.write(ctx, "reservation.end_expired", func(s *Snapshot) error {
		for i := range s.Reservations {
			if s.Reservations[i].Status == domain.ReservationActive && s.Reservations[i].EndDate.Before(day) {
				s.Reservations[i].Status = domain.ReservationEnded
				n++
			}
		}
		if n == 0 {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Snapshot) reservationIndex(id int) int {
	for i := range s.Reservations {
		if s.Reservations[i].ID == id {
			return i
		}
	}
	return -1
}
