package repos

import "alquitones/internal/domain"

// Inventory is an instrument and its active reservations read from one snapshot.
type Inventory struct {
	Product domain.Product
	Active  []domain.Reservation
}

// ReservedOn sums the quantity of active reservations covering day.
func (inv Inventory) ReservedOn(day domain.Date) int {
	n := 0
	for _, r := range inv.Active {
		if r.Covers(day) {
			n += r.Quantity
		}
	}
	return n
}

func (inv Inventory) AvailableOn(day domain.Date) int {
	return inv.Product.Stock - inv.ReservedOn(day)
}

type InventoryRepo struct{ st *Store }

func NewInventoryRepo(st *Store) *InventoryRepo { return &InventoryRepo{st: st} }

func (r *InventoryRepo) Load(productID int) (Inventory, error) {
	var (
		inv Inventory
		err error
	)
	r.st.read(func(s *Snapshot) { inv, err = s.inventory(productID) })
	return inv, err
}

func (s *Snapshot) inventory(productID int) (Inventory, error) {
	i := s.productIndex(productID)
	if i < 0 {
		return Inventory{}, domain.NotFound("instrument", productID)
	}
	inv := Inventory{Product: s.Products[i].Clone()}
	for _, r := range s.Reservations {
		if r.InstrumentID == productID && r.Status == domain.ReservationActive {
			inv.Active = append(inv.Active, r)
		}
	}
	return inv, nil
}
