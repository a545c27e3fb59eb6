package services

import (
	"context"
	"strings"

	"alquitones/internal/domain"
	"alquitones/internal/repos"
)

const DefaultPageSize = 12

// Page is one slice of a list. An empty list has TotalPages 0 and CurrentPage 1.
type Page[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// Paginate slices items for a 1-indexed page, clamping page into range
// instead of rejecting it. pageSize <= 0 falls back to DefaultPageSize.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	page = max(1, min(page, totalPages))

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	return Page[T]{
		Items:       append([]T{}, items[start:end]...),
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1 && totalPages > 0,
	}
}

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
	Specs *repos.SpecificationRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, specs *repos.SpecificationRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Specs: specs}
}

func (s *CatalogService) ListCategories() []domain.Category { return s.Cats.List() }

func (s *CatalogService) ListSpecifications() []domain.Specification { return s.Specs.List() }

func (s *CatalogService) GetProduct(id int) (domain.Product, error) { return s.Prods.Get(id) }

func (s *CatalogService) GetCategory(id int) (domain.Category, error) { return s.Cats.Get(id) }

// Search matches term case-insensitively against name or description.
// A blank term returns every instrument.
func (s *CatalogService) Search(term string) []domain.Product {
	return searchIn(s.Prods.List(), term)
}

func (s *CatalogService) FilterByCategory(categoryID int) []domain.Product {
	return filterByCategory(s.Prods.List(), categoryID)
}

func (s *CatalogService) CountByCategory() map[int]int {
	counts := make(map[int]int)
	for _, c := range s.Cats.List() {
		counts[c.ID] = 0
	}
	for _, p := range s.Prods.List() {
		counts[p.CategoryID]++
	}
	return counts
}

// Browse combines search, an optional category filter (0 = all) and pagination.
func (s *CatalogService) Browse(term string, categoryID, page, pageSize int) Page[domain.Product] {
	return BrowseItems(s.Prods.List(), term, categoryID, page, pageSize)
}

// BrowseItems is Browse over an already fetched instrument list.
func BrowseItems(items []domain.Product, term string, categoryID, page, pageSize int) Page[domain.Product] {
	items = searchIn(items, term)
	if categoryID > 0 {
		items = filterByCategory(items, categoryID)
	}
	return Paginate(items, page, pageSize)
}

func searchIn(items []domain.Product, term string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := []domain.Product{}
	for _, p := range items {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}

func filterByCategory(items []domain.Product, categoryID int) []domain.Product {
	out := []domain.Product{}
	for _, p := range items {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out
}

// ---------- admin ----------

func (s *CatalogService) CreateCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	return s.Cats.Create(ctx, in)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int, p domain.CategoryPatch) (domain.Category, error) {
	return s.Cats.Update(ctx, id, p)
}

// DeleteCategory rejects categories that still hold instruments unless cascade
// is set, in which case the instruments go first in the same write.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int, cascade bool) (int, error) {
	if cascade {
		return s.Cats.DeleteCascade(ctx, id)
	}
	_, err := s.Cats.Delete(ctx, id)
	return 0, err
}

func (s *CatalogService) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	return s.Prods.Create(ctx, in)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int, p domain.ProductPatch) (domain.Product, error) {
	return s.Prods.Update(ctx, id, p)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int) error {
	_, err := s.Prods.Delete(ctx, id)
	return err
}

func (s *CatalogService) CreateSpecification(ctx context.Context, in domain.SpecificationInput) (domain.Specification, error) {
	return s.Specs.Create(ctx, in)
}

func (s *CatalogService) UpdateSpecification(ctx context.Context, id int, p domain.SpecificationPatch) (domain.Specification, error) {
	return s.Specs.Update(ctx, id, p)
}

func (s *CatalogService) DeleteSpecification(ctx context.Context, id int) error {
	_, err := s.Specs.Delete(ctx, id)
	return err
}
