package repos

import (
	"context"
	"strings"

	"alquitones/internal/domain"
	"alquitones/internal/validate"
)

type SpecificationRepo struct{ st *Store }

func NewSpecificationRepo(st *Store) *SpecificationRepo { return &SpecificationRepo{st: st} }

func (r *SpecificationRepo) List() []domain.Specification {
	var out []domain.Specification
	r.st.read(func(s *Snapshot) { out = append([]domain.Specification{}, s.Specifications...) })
	return out
}

func (r *SpecificationRepo) Get(id int) (domain.Specification, error) {
	var (
		sp domain.Specification
		ok bool
	)
	r.st.read(func(s *Snapshot) {
		if i := s.specificationIndex(id); i >= 0 {
			sp, ok = s.Specifications[i], true
		}
	})
	if !ok {
		return domain.Specification{}, domain.NotFound("specification", id)
	}
	return sp, nil
}

func (r *SpecificationRepo) Create(ctx context.Context, in domain.SpecificationInput) (domain.Specification, error) {
	sp := domain.Specification{
		Label:       strings.TrimSpace(in.Label),
		Description: strings.TrimSpace(in.Description),
		Icon:        in.Icon,
	}
	if err := checkSpecification(sp); err != nil {
		return domain.Specification{}, err
	}
	err := r.st.write(ctx, "specification.create", func(s *Snapshot) error {
		for _, x := range s.Specifications {
			if strings.EqualFold(x.Label, sp.Label) {
				return domain.Conflict("specification %q", sp.Label)
			}
		}
		s.Seq.Specification++
		sp.ID = s.Seq.Specification
		s.Specifications = append(s.Specifications, sp)
		return nil
	})
	if err != nil {
		return domain.Specification{}, err
	}
	return sp, nil
}

func (r *SpecificationRepo) Update(ctx context.Context, id int, p domain.SpecificationPatch) (domain.Specification, error) {
	var out domain.Specification
	err := r.st.write(ctx, "specification.update", func(s *Snapshot) error {
		i := s.specificationIndex(id)
		if i < 0 {
			return domain.NotFound("specification", id)
		}
		sp := s.Specifications[i]
		if p.Label != nil {
			sp.Label = strings.TrimSpace(*p.Label)
			for _, x := range s.Specifications {
				if x.ID != id && strings.EqualFold(x.Label, sp.Label) {
					return domain.Conflict("specification %q", sp.Label)
				}
			}
		}
		if p.Description != nil {
			sp.Description = strings.TrimSpace(*p.Description)
		}
		if p.Icon != nil {
			sp.Icon = *p.Icon
		}
		if err := checkSpecification(sp); err != nil {
			return err
		}
		s.Specifications[i] = sp
		out = sp
		return nil
	})
	return out, err
}

// Delete refuses while any instrument lists a value for the specification.
func (r *SpecificationRepo) Delete(ctx context.Context, id int) (bool, error) {
	err := r.st.write(ctx, "specification.delete", func(s *Snapshot) error {
		i := s.specificationIndex(id)
		if i < 0 {
			return domain.NotFound("specification", id)
		}
		for _, p := range s.Products {
			for _, sv := range p.Specifications {
				if sv.SpecificationID == id {
					return domain.Invalid("specification %d is used by instrument %d", id, p.ID)
				}
			}
		}
		s.Specifications = append(s.Specifications[:i], s.Specifications[i+1:]...)
		return nil
	})
	return err == nil, err
}

func checkSpecification(sp domain.Specification) error {
	if _, ok := validate.Name(sp.Label); !ok {
		return domain.Invalid("specification label must be 1-%d characters", validate.MaxNameLen)
	}
	if !sp.Icon.Valid() {
		return domain.Invalid("specification icon must be a symbolic token or a remote uri")
	}
	return nil
}

func (s *Snapshot) specificationIndex(id int) int {
	for i := range s.Specifications {
		if s.Specifications[i].ID == id {
			return i
		}
	}
	return -1
}
