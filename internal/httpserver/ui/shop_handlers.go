package ui

import (
	"context"
	"net/http"

	"finitefield.org/shopfront/internal/catalog"
	custommw "finitefield.org/shopfront/internal/httpserver/middleware"
	"finitefield.org/shopfront/internal/i18n"
	shoptpl "finitefield.org/shopfront/internal/templates/shop"
)

func (h *Handlers) shopOptions(ctx context.Context) shoptpl.Options {
	return shoptpl.Options{
		Lang:          i18n.LanguageFromContext(ctx),
		Currency:      h.currency,
		FallbackImage: h.fallbackImage,
	}
}

// ShopPage renders the storefront with both collections loaded in parallel.
func (h *Handlers) ShopPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := h.loader.Load(ctx, custommw.CredentialsFromContext(ctx))
	state := shoptpl.State{
		Categories:    snap.Categories,
		Products:      snap.Products,
		CategoriesErr: snap.CategoriesErr,
		ProductsErr:   snap.ProductsErr,
		Filter:        catalog.ParseFilter(r.URL.Query().Get("category")),
	}
	page := shoptpl.BuildPageData(h.shopOptions(ctx), h.layout(r, "app.title_shop"), state)
	render(w, r, http.StatusOK, shoptpl.Index(page))
}

// ShopProducts re-renders the product grid for the clicked category. Only products are
// fetched; the title comes from the button label.
func (h *Handlers) ShopProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	filter := catalog.ParseFilter(query.Get("category"))
	products, err := h.loader.Products(ctx, custommw.CredentialsFromContext(ctx))
	state := shoptpl.State{
		Products:    products,
		ProductsErr: err,
		Filter:      filter,
		Label:       query.Get("label"),
	}

	trigger(w, r, map[string]any{"category-selected": map[string]any{"category": filter.String()}})
	render(w, r, http.StatusOK, shoptpl.Products(shoptpl.ProductsPayload(h.shopOptions(ctx), state)))
}
