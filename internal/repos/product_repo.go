package repos

import (
	"context"
	"strings"

	"alquitones/internal/domain"
	"alquitones/internal/validate"
)

type ProductRepo struct{ st *Store }

func NewProductRepo(st *Store) *ProductRepo { return &ProductRepo{st: st} }

func (r *ProductRepo) List() []domain.Product {
	var out []domain.Product
	r.st.read(func(s *Snapshot) {
		out = make([]domain.Product, len(s.Products))
		for i, p := range s.Products {
			out[i] = p.Clone()
		}
	})
	return out
}

func (r *ProductRepo) Get(id int) (domain.Product, error) {
	var (
		p  domain.Product
		ok bool
	)
	r.st.read(func(s *Snapshot) {
		if i := s.productIndex(id); i >= 0 {
			p, ok = s.Products[i].Clone(), true
		}
	})
	if !ok {
		return domain.Product{}, domain.NotFound("instrument", id)
	}
	return p, nil
}

func (r *ProductRepo) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	p := domain.Product{
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		CategoryID:     in.CategoryID,
		PricePerDay:    in.PricePerDay,
		Stock:          in.Stock,
		Status:         in.Status,
		Images:         trimAll(in.Images),
		Specifications: append([]domain.SpecValue{}, in.Specifications...),
	}
	if p.Stock == 0 {
		p.Stock = 1
	}
	if p.Status == "" {
		p.Status = domain.StatusAvailable
	}
	if err := firstErr(checkProductName(p), checkPrice(p), checkStock(p), checkStatus(p), checkImages(p.Images)); err != nil {
		return domain.Product{}, err
	}
	p.MainImage = p.Images[0]

	err := r.st.write(ctx, "product.create", func(s *Snapshot) error {
		if err := firstErr(s.checkCategoryRef(p.CategoryID), s.checkSpecRefs(p.Specifications)); err != nil {
			return err
		}
		s.Seq.Product++
		p.ID = s.Seq.Product
		p.CreatedAt = r.st.Now()
		s.Products = append(s.Products, p.Clone())
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Update merges the non-nil fields of patch and re-checks only what changed.
func (r *ProductRepo) Update(ctx context.Context, id int, patch domain.ProductPatch) (domain.Product, error) {
	var out domain.Product
	err := r.st.write(ctx, "product.update", func(s *Snapshot) error {
		i := s.productIndex(id)
		if i < 0 {
			return domain.NotFound("instrument", id)
		}
		p := s.Products[i].Clone()
		var errs []error
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
			errs = append(errs, checkProductName(p))
		}
		if patch.Description != nil {
			p.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.CategoryID != nil {
			p.CategoryID = *patch.CategoryID
			errs = append(errs, s.checkCategoryRef(p.CategoryID))
		}
		if patch.PricePerDay != nil {
			p.PricePerDay = *patch.PricePerDay
			errs = append(errs, checkPrice(p))
		}
		if patch.Stock != nil {
			p.Stock = *patch.Stock
			errs = append(errs, checkStock(p))
		}
		if patch.Status != nil {
			p.Status = *patch.Status
			errs = append(errs, checkStatus(p))
		}
		if patch.Images != nil {
			p.Images = trimAll(*patch.Images)
			if err := checkImages(p.Images); err != nil {
				errs = append(errs, err)
			} else {
				p.MainImage = p.Images[0]
			}
		}
		if patch.Specifications != nil {
			p.Specifications = append([]domain.SpecValue{}, (*patch.Specifications)...)
			errs = append(errs, s.checkSpecRefs(p.Specifications))
		}
		if err := firstErr(errs...); err != nil {
			return err
		}
		s.Products[i] = p
		out = p.Clone()
		return nil
	})
	return out, err
}

// Delete also drops the instrument's favorites and ratings. Instruments with
// active reservations cannot be deleted.
func (r *ProductRepo) Delete(ctx context.Context, id int) (bool, error) {
	err := r.st.write(ctx, "product.delete", func(s *Snapshot) error {
		return s.removeProduct(id)
	})
	return err == nil, err
}

func (s *Snapshot) productIndex(id int) int {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) removeProduct(id int) error {
	i := s.productIndex(id)
	if i < 0 {
		return domain.NotFound("instrument", id)
	}
	for _, res := range s.Reservations {
		if res.InstrumentID == id && res.Status == domain.ReservationActive {
			return domain.Invalid("instrument %d has active reservations", id)
		}
	}
	s.Products = append(s.Products[:i], s.Products[i+1:]...)
	s.Favorites = filter(s.Favorites, func(f domain.Favorite) bool { return f.InstrumentID != id })
	s.Ratings = filter(s.Ratings, func(r domain.Rating) bool { return r.InstrumentID != id })
	return nil
}

func (s *Snapshot) checkCategoryRef(id int) error {
	if s.categoryIndex(id) < 0 {
		return domain.Invalid("category %d does not exist", id)
	}
	return nil
}

func (s *Snapshot) checkSpecRefs(specs []domain.SpecValue) error {
	seen := map[int]bool{}
	for _, sv := range specs {
		if s.specificationIndex(sv.SpecificationID) < 0 {
			return domain.Invalid("specification %d does not exist", sv.SpecificationID)
		}
		if seen[sv.SpecificationID] {
			return domain.Invalid("specification %d listed twice", sv.SpecificationID)
		}
		seen[sv.SpecificationID] = true
	}
	return nil
}

func checkProductName(p domain.Product) error {
	if _, ok := validate.Name(p.Name); !ok {
		return domain.Invalid("instrument name must be 1-%d characters", validate.MaxNameLen)
	}
	return nil
}

func checkPrice(p domain.Product) error {
	if p.PricePerDay.IsNegative() {
		return domain.Invalid("price per day must be >= 0")
	}
	return nil
}

func checkStock(p domain.Product) error {
	if p.Stock < 1 {
		return domain.Invalid("stock must be at least 1")
	}
	return nil
}

func checkStatus(p domain.Product) error {
	if !p.Status.Valid() {
		return domain.Invalid("unknown status %q", p.Status)
	}
	return nil
}

func checkImages(images []string) error {
	if len(images) < domain.MinImages || len(images) > domain.MaxImages {
		return domain.Invalid("an instrument needs between %d and %d images, got %d", domain.MinImages, domain.MaxImages, len(images))
	}
	for i, img := range images {
		if img == "" {
			return domain.Invalid("image %d is empty", i+1)
		}
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
