package catalog

import (
	"context"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// StaticService is an in-memory Service used when no backend URL is configured and in tests.
// It mirrors the backend rules: category names are unique and deleting a category deletes its
// products.
type StaticService struct {
	mu            sync.Mutex
	categories    []Category
	products      []Product
	nextCategory  int64
	nextProduct   int64
	authenticated bool
}

// NewStaticService constructs a StaticService seeded with the given data. Nil slices start empty.
func NewStaticService(categories []Category, products []Product) *StaticService {
	s := &StaticService{
		categories:    append([]Category(nil), categories...),
		products:      append([]Product(nil), products...),
		authenticated: true,
	}
	for _, c := range s.categories {
		s.nextCategory = max(s.nextCategory, c.ID)
	}
	for _, p := range s.products {
		s.nextProduct = max(s.nextProduct, p.ID)
	}
	return s
}

// NewDemoService returns a StaticService with a small demo catalog.
func NewDemoService() *StaticService {
	return NewStaticService(
		[]Category{
			{ID: 1, Name: "Электроника"},
			{ID: 2, Name: "Книги"},
			{ID: 3, Name: "Одежда"},
		},
		[]Product{
			{ID: 1, Name: "Наушники", Price: decimal.RequireFromString("2990"), CategoryID: 1},
			{ID: 2, Name: "Смартфон", Price: decimal.RequireFromString("24990.5"), CategoryID: 1},
			{ID: 3, Name: "Роман", Price: decimal.RequireFromString("590"), CategoryID: 2},
			{ID: 4, Name: "Футболка", Price: decimal.RequireFromString("1200"), CategoryID: 3},
		},
	)
}

// SetAuthenticated toggles the result of CheckSession.
func (s *StaticService) SetAuthenticated(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = ok
}

// CheckSession reports ErrUnauthenticated when the service was switched to unauthenticated.
func (s *StaticService) CheckSession(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return &APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	}
	return nil
}

// ListCategories returns a copy of the categories ordered by id.
func (s *StaticService) ListCategories(ctx context.Context, creds Credentials) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Category{}, s.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListProducts returns a copy of the products ordered by id.
func (s *StaticService) ListProducts(ctx context.Context, creds Credentials) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Product{}, s.products...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveCategory creates or renames a category.
func (s *StaticService) SaveCategory(ctx context.Context, creds Credentials, in CategoryInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return &APIError{Status: http.StatusBadRequest, Message: "Название категории обязательно"}
	}
	for _, c := range s.categories {
		if c.ID != in.ID && strings.EqualFold(c.Name, name) {
			return &APIError{Status: http.StatusBadRequest, Message: "Категория с таким названием уже существует"}
		}
	}
	if in.IsNew() {
		s.nextCategory++
		s.categories = append(s.categories, Category{ID: s.nextCategory, Name: name})
		return nil
	}
	for i := range s.categories {
		if s.categories[i].ID == in.ID {
			s.categories[i].Name = name
			return nil
		}
	}
	return &APIError{Status: http.StatusNotFound}
}

// DeleteCategory removes a category together with its products.
func (s *StaticService) DeleteCategory(ctx context.Context, creds Credentials, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &APIError{Status: http.StatusNotFound}
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	kept := s.products[:0]
	for _, p := range s.products {
		if p.CategoryID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	return nil
}

// SaveProduct creates or updates a product. Uploaded images are stored inline as data URLs.
func (s *StaticService) SaveProduct(ctx context.Context, creds Credentials, in ProductInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasCategory(in.CategoryID) {
		return &APIError{Status: http.StatusBadRequest, Message: "Категория не найдена"}
	}
	if !in.Price.IsPositive() {
		return &APIError{Status: http.StatusBadRequest, Message: "Некорректная цена"}
	}
	product := Product{
		ID:         in.ID,
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price,
		CategoryID: in.CategoryID,
	}
	if in.Image != nil && len(in.Image.Data) > 0 {
		product.Image = "data:" + in.Image.ContentType + ";base64," + base64.StdEncoding.EncodeToString(in.Image.Data)
	}
	if in.IsNew() {
		s.nextProduct++
		product.ID = s.nextProduct
		s.products = append(s.products, product)
		return nil
	}
	for i := range s.products {
		if s.products[i].ID == in.ID {
			if product.Image == "" {
				product.Image = s.products[i].Image
			}
			s.products[i] = product
			return nil
		}
	}
	return &APIError{Status: http.StatusNotFound}
}

// DeleteProduct removes a product.
func (s *StaticService) DeleteProduct(ctx context.Context, creds Credentials, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return &APIError{Status: http.StatusNotFound}
}

// Logout expires the backend session cookie name used by the reference backend.
func (s *StaticService) Logout(ctx context.Context, creds Credentials) ([]*http.Cookie, error) {
	return []*http.Cookie{{Name: "session", Value: "", Path: "/", MaxAge: -1}}, nil
}

func (s *StaticService) hasCategory(id int64) bool {
	for _, c := range s.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
