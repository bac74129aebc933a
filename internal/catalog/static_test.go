package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finitefield.org/shopfront/internal/catalog"
)

func TestStaticServiceCategoryLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := catalog.NewStaticService(nil, nil)
	creds := catalog.Credentials{}

	require.NoError(t, svc.SaveCategory(ctx, creds, catalog.CategoryInput{Name: "Книги"}))
	require.NoError(t, svc.SaveCategory(ctx, creds, catalog.CategoryInput{Name: "Игры"}))

	err := svc.SaveCategory(ctx, creds, catalog.CategoryInput{Name: "книги"})
	msg, ok := catalog.UserMessage(err)
	require.True(t, ok)
	require.Contains(t, msg, "уже существует")

	require.NoError(t, svc.SaveCategory(ctx, creds, catalog.CategoryInput{ID: 2, Name: "Настольные игры"}))
	categories, err := svc.ListCategories(ctx, creds)
	require.NoError(t, err)
	require.Equal(t, []catalog.Category{{ID: 1, Name: "Книги"}, {ID: 2, Name: "Настольные игры"}}, categories)

	err = svc.SaveCategory(ctx, creds, catalog.CategoryInput{ID: 42, Name: "Нет"})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestStaticServiceDeleteCategoryCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := catalog.NewDemoService()
	creds := catalog.Credentials{}

	require.NoError(t, svc.DeleteCategory(ctx, creds, 1))

	products, err := svc.ListProducts(ctx, creds)
	require.NoError(t, err)
	for _, p := range products {
		require.NotEqual(t, int64(1), p.CategoryID)
	}
	require.Len(t, products, 2)
	require.ErrorIs(t, svc.DeleteCategory(ctx, creds, 1), catalog.ErrNotFound)
}

func TestStaticServiceSaveProductKeepsImage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := catalog.NewStaticService([]catalog.Category{{ID: 1, Name: "Свет"}}, nil)
	creds := catalog.Credentials{}

	err := svc.SaveProduct(ctx, creds, catalog.ProductInput{
		Name:       "Лампа",
		Price:      decimal.RequireFromString("10"),
		CategoryID: 1,
		Image:      &catalog.ImageUpload{ContentType: "image/png", Data: pngHeader},
	})
	require.NoError(t, err)

	err = svc.SaveProduct(ctx, creds, catalog.ProductInput{
		ID:         1,
		Name:       "Лампа 2",
		Price:      decimal.RequireFromString("12.5"),
		CategoryID: 1,
	})
	require.NoError(t, err)

	products, err := svc.ListProducts(ctx, creds)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Лампа 2", products[0].Name)
	require.True(t, strings.HasPrefix(products[0].Image, "data:image/png;base64,"))

	err = svc.SaveProduct(ctx, creds, catalog.ProductInput{Name: "X", Price: decimal.NewFromInt(1), CategoryID: 9})
	require.Error(t, err)
}

func TestStaticServiceCheckSession(t *testing.T) {
	t.Parallel()

	svc := catalog.NewDemoService()
	require.NoError(t, svc.CheckSession(context.Background(), catalog.Credentials{}))
	svc.SetAuthenticated(false)
	require.ErrorIs(t, svc.CheckSession(context.Background(), catalog.Credentials{}), catalog.ErrUnauthenticated)
}
