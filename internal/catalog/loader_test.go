package catalog_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/shopfront/internal/catalog"
)

type failingProducts struct {
	*catalog.StaticService
}

func (failingProducts) ListProducts(context.Context, catalog.Credentials) ([]catalog.Product, error) {
	return nil, errors.New("boom")
}

func TestLoaderLoadsCollectionsIndependently(t *testing.T) {
	t.Parallel()

	loader := catalog.NewLoader(failingProducts{catalog.NewDemoService()})
	snap := loader.Load(context.Background(), catalog.Credentials{})

	require.NoError(t, snap.CategoriesErr)
	require.Len(t, snap.Categories, 3)
	require.Error(t, snap.ProductsErr)
	require.NotNil(t, snap.Products)
	require.Empty(t, snap.Products)
}

func TestLoaderWithoutService(t *testing.T) {
	t.Parallel()

	snap := catalog.NewLoader(nil).Load(context.Background(), catalog.Credentials{})
	require.ErrorIs(t, snap.CategoriesErr, catalog.ErrNotConfigured)
	require.ErrorIs(t, snap.ProductsErr, catalog.ErrNotConfigured)
}

type countingLists struct {
	*catalog.StaticService
	categories atomic.Int32
	products   atomic.Int32
}

func (c *countingLists) ListCategories(ctx context.Context, creds catalog.Credentials) ([]catalog.Category, error) {
	c.categories.Add(1)
	return c.StaticService.ListCategories(ctx, creds)
}

func (c *countingLists) ListProducts(ctx context.Context, creds catalog.Credentials) ([]catalog.Product, error) {
	c.products.Add(1)
	return c.StaticService.ListProducts(ctx, creds)
}

func TestLoaderProductsOnlyReusesKnownCategories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service := &countingLists{StaticService: catalog.NewDemoService()}
	loader := catalog.NewLoader(service)

	_, ok := loader.Known()
	require.False(t, ok)

	// Nothing remembered yet: categories are fetched once.
	snap := loader.ProductsOnly(ctx, catalog.Credentials{})
	require.NoError(t, snap.ProductsErr)
	require.Len(t, snap.Categories, 3)
	require.EqualValues(t, 1, service.categories.Load())
	require.EqualValues(t, 1, service.products.Load())

	require.NoError(t, service.SaveCategory(ctx, catalog.Credentials{}, catalog.CategoryInput{Name: "Игрушки"}))
	snap = loader.ProductsOnly(ctx, catalog.Credentials{})
	require.Len(t, snap.Categories, 3)
	require.EqualValues(t, 1, service.categories.Load())
	require.EqualValues(t, 2, service.products.Load())

	loader.Load(ctx, catalog.Credentials{})
	known, ok := loader.Known()
	require.True(t, ok)
	require.Len(t, known, 4)
}

func TestLoaderProductsOnlyFailureKeepsCategories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	loader := catalog.NewLoader(failingProducts{catalog.NewDemoService()})
	loader.Load(ctx, catalog.Credentials{})

	snap := loader.ProductsOnly(ctx, catalog.Credentials{})
	require.Error(t, snap.ProductsErr)
	require.Empty(t, snap.Products)
	require.NoError(t, snap.CategoriesErr)
	require.Len(t, snap.Categories, 3)
}
