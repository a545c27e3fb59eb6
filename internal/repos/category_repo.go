package repos

import (
	"context"
	"strings"

	"alquitones/internal/domain"
	"alquitones/internal/validate"
)

type CategoryRepo struct{ st *Store }

func NewCategoryRepo(st *Store) *CategoryRepo { return &CategoryRepo{st: st} }

func (r *CategoryRepo) List() []domain.Category {
	var out []domain.Category
	r.st.read(func(s *Snapshot) { out = append([]domain.Category{}, s.Categories...) })
	return out
}

func (r *CategoryRepo) Get(id int) (domain.Category, error) {
	var (
		c  domain.Category
		ok bool
	)
	r.st.read(func(s *Snapshot) {
		if i := s.categoryIndex(id); i >= 0 {
			c, ok = s.Categories[i], true
		}
	})
	if !ok {
		return domain.Category{}, domain.NotFound("category", id)
	}
	return c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	c := domain.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Icon:        in.Icon,
	}
	if err := checkCategory(c); err != nil {
		return domain.Category{}, err
	}
	err := r.st.write(ctx, "category.create", func(s *Snapshot) error {
		if s.categoryNameTaken(c.Name, 0) {
			return domain.Conflict("category %q", c.Name)
		}
		s.Seq.Category++
		c.ID = s.Seq.Category
		s.Categories = append(s.Categories, c)
		return nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (r *CategoryRepo) Update(ctx context.Context, id int, p domain.CategoryPatch) (domain.Category, error) {
	var out domain.Category
	err := r.st.write(ctx, "category.update", func(s *Snapshot) error {
		i := s.categoryIndex(id)
		if i < 0 {
			return domain.NotFound("category", id)
		}
		c := s.Categories[i]
		if p.Name != nil {
			c.Name = strings.TrimSpace(*p.Name)
			if !strings.EqualFold(c.Name, s.Categories[i].Name) && s.categoryNameTaken(c.Name, id) {
				return domain.Conflict("category %q", c.Name)
			}
		}
		if p.Description != nil {
			c.Description = strings.TrimSpace(*p.Description)
		}
		if p.Icon != nil {
			c.Icon = *p.Icon
		}
		if err := checkCategory(c); err != nil {
			return err
		}
		s.Categories[i] = c
		out = c
		return nil
	})
	return out, err
}

// Delete refuses while products still reference the category.
func (r *CategoryRepo) Delete(ctx context.Context, id int) (bool, error) {
	err := r.st.write(ctx, "category.delete", func(s *Snapshot) error {
		i := s.categoryIndex(id)
		if i < 0 {
			return domain.NotFound("category", id)
		}
		if n := s.countProductsIn(id); n > 0 {
			return domain.Invalid("category %d still has %d instruments", id, n)
		}
		s.Categories = append(s.Categories[:i], s.Categories[i+1:]...)
		return nil
	})
	return err == nil, err
}

// DeleteCascade removes the category together with its instruments in one write.
// It fails without changes if any of those instruments has active reservations.
func (r *CategoryRepo) DeleteCascade(ctx context.Context, id int) (int, error) {
	removed := 0
	err := r.st.write(ctx, "category.delete_cascade", func(s *Snapshot) error {
		i := s.categoryIndex(id)
		if i < 0 {
			return domain.NotFound("category", id)
		}
		var ids []int
		for _, p := range s.Products {
			if p.CategoryID == id {
				ids = append(ids, p.ID)
			}
		}
		for _, pid := range ids {
			if err := s.removeProduct(pid); err != nil {
				return err
			}
		}
		s.Categories = append(s.Categories[:i], s.Categories[i+1:]...)
		removed = len(ids)
		return nil
	})
	return removed, err
}

func checkCategory(c domain.Category) error {
	if _, ok := validate.Name(c.Name); !ok {
		return domain.Invalid("category name must be 1-%d characters", validate.MaxNameLen)
	}
	if !c.Icon.Valid() {
		return domain.Invalid("category icon must be a symbolic token or a remote uri")
	}
	return nil
}

func (s *Snapshot) categoryIndex(id int) int {
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) categoryNameTaken(name string, exceptID int) bool {
	for _, c := range s.Categories {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (s *Snapshot) countProductsIn(categoryID int) int {
	n := 0
	for _, p := range s.Products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n
}
