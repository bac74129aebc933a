package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/shopfront/internal/catalog"
)

func TestCategoryFormValidate(t *testing.T) {
	t.Parallel()

	in, err := catalog.CategoryForm{Name: "  Книги "}.Validate()
	require.NoError(t, err)
	require.True(t, in.IsNew())
	require.Equal(t, "Книги", in.Name)

	in, err = catalog.CategoryForm{ID: "3", Name: "Игры"}.Validate()
	require.NoError(t, err)
	require.Equal(t, int64(3), in.ID)

	_, err = catalog.CategoryForm{Name: "   "}.Validate()
	requireValidationKey(t, err, catalog.KeyCategoryNameRequired)

	_, err = catalog.CategoryForm{ID: "x", Name: "A"}.Validate()
	requireValidationKey(t, err, catalog.KeyIDInvalid)
}

func TestProductFormValidate(t *testing.T) {
	t.Parallel()

	valid := catalog.ProductForm{Name: "Лампа", Price: "10,50", CategoryID: "2"}

	t.Run("valid", func(t *testing.T) {
		in, err := valid.Validate(0)
		require.NoError(t, err)
		require.Equal(t, "10.5", in.Price.String())
		require.Equal(t, int64(2), in.CategoryID)
		require.Nil(t, in.Image)
	})

	cases := map[string]struct {
		mutate func(f *catalog.ProductForm)
		key    string
	}{
		"missing name":     {func(f *catalog.ProductForm) { f.Name = " " }, catalog.KeyProductNameRequired},
		"empty price":      {func(f *catalog.ProductForm) { f.Price = "" }, catalog.KeyPriceInvalid},
		"negative price":   {func(f *catalog.ProductForm) { f.Price = "-1" }, catalog.KeyPriceInvalid},
		"zero price":       {func(f *catalog.ProductForm) { f.Price = "0" }, catalog.KeyPriceInvalid},
		"text price":       {func(f *catalog.ProductForm) { f.Price = "дорого" }, catalog.KeyPriceInvalid},
		"missing category": {func(f *catalog.ProductForm) { f.CategoryID = "" }, catalog.KeyCategoryRequired},
		"not an image": {func(f *catalog.ProductForm) {
			f.Image = &catalog.ImageUpload{Filename: "a.txt", Data: []byte("hello world")}
		}, catalog.KeyImageType},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			form := valid
			tc.mutate(&form)
			_, err := form.Validate(0)
			requireValidationKey(t, err, tc.key)
		})
	}

	t.Run("first failing field wins", func(t *testing.T) {
		_, err := catalog.ProductForm{}.Validate(0)
		requireValidationKey(t, err, catalog.KeyProductNameRequired)
	})
}

func TestCheckImage(t *testing.T) {
	t.Parallel()

	img, err := catalog.CheckImage(catalog.ImageUpload{Filename: "x.bin", ContentType: "application/octet-stream", Data: pngHeader}, 0)
	require.NoError(t, err)
	require.Equal(t, "image/png", img.ContentType)
	require.Equal(t, "x.bin", img.Filename)

	_, err = catalog.CheckImage(catalog.ImageUpload{Data: pngHeader}, 4)
	requireValidationKey(t, err, catalog.KeyImageTooLarge)

	_, err = catalog.CheckImage(catalog.ImageUpload{Data: []byte("%PDF-1.4")}, 0)
	requireValidationKey(t, err, catalog.KeyImageType)
}

func requireValidationKey(t *testing.T, err error, key string) {
	t.Helper()
	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, key, verr.Key)
}
