package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finitefield.org/shopfront/internal/observability"
)

// Snapshot holds both collections fetched for one request. A failed collection keeps its error
// and is left empty; the other one is still usable.
type Snapshot struct {
	Categories    []Category
	Products      []Product
	CategoriesErr error
	ProductsErr   error
}

// Loader fetches catalog collections and logs failures. It keeps the last category list it
// loaded successfully so product-only reloads can still label products with category names.
type Loader struct {
	service Service

	mu    sync.RWMutex
	known []Category
}

// NewLoader constructs a Loader over service.
func NewLoader(service Service) *Loader {
	return &Loader{service: service}
}

// Load fetches categories and products concurrently. The two loads are independent: a failure
// of one never cancels the other.
func (l *Loader) Load(ctx context.Context, creds Credentials) Snapshot {
	var snap Snapshot
	var g errgroup.Group
	g.Go(func() error {
		snap.Categories, snap.CategoriesErr = l.Categories(ctx, creds)
		return nil
	})
	g.Go(func() error {
		snap.Products, snap.ProductsErr = l.Products(ctx, creds)
		return nil
	})
	_ = g.Wait()
	return snap
}

// Categories fetches the category list.
func (l *Loader) Categories(ctx context.Context, creds Credentials) ([]Category, error) {
	if l == nil || l.service == nil {
		return []Category{}, ErrNotConfigured
	}
	categories, err := l.service.ListCategories(ctx, creds)
	if err != nil {
		observability.FromContext(ctx).Warn("load categories failed", zap.Error(err))
		return []Category{}, err
	}
	l.remember(categories)
	return categories, nil
}

// ProductsOnly reloads products and labels them with the categories remembered from the last
// category load. Categories are fetched only when none were loaded yet.
func (l *Loader) ProductsOnly(ctx context.Context, creds Credentials) Snapshot {
	var snap Snapshot
	snap.Products, snap.ProductsErr = l.Products(ctx, creds)
	if known, ok := l.Known(); ok {
		snap.Categories = known
		return snap
	}
	snap.Categories, snap.CategoriesErr = l.Categories(ctx, creds)
	return snap
}

// Known returns a copy of the last successfully loaded category list.
func (l *Loader) Known() ([]Category, bool) {
	if l == nil {
		return nil, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.known == nil {
		return nil, false
	}
	return append([]Category{}, l.known...), true
}

func (l *Loader) remember(categories []Category) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.known = append([]Category{}, categories...)
}

// Products fetches the product list.
func (l *Loader) Products(ctx context.Context, creds Credentials) ([]Product, error) {
	if l == nil || l.service == nil {
		return []Product{}, ErrNotConfigured
	}
	products, err := l.service.ListProducts(ctx, creds)
	if err != nil {
		observability.FromContext(ctx).Warn("load products failed", zap.Error(err))
		return []Product{}, err
	}
	return products, nil
}
