package ui

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/shopfront/internal/catalog"
	custommw "finitefield.org/shopfront/internal/httpserver/middleware"
	"finitefield.org/shopfront/internal/i18n"
	"finitefield.org/shopfront/internal/observability"
	"finitefield.org/shopfront/internal/session"
	admintpl "finitefield.org/shopfront/internal/templates/admin"
	"finitefield.org/shopfront/internal/templates/helpers"
)

// Modal kinds accepted by the ?modal= fallback of the admin page.
const (
	modalCategory        = "category"
	modalProduct         = "product"
	modalConfirmCategory = "confirm-category"
	modalConfirmProduct  = "confirm-product"
)

func (h *Handlers) adminOptions(ctx context.Context) admintpl.Options {
	return admintpl.Options{
		BasePath:      custommw.BasePathFromContext(ctx),
		Lang:          i18n.LanguageFromContext(ctx),
		Currency:      h.currency,
		FallbackImage: h.fallbackImage,
		CSRFToken:     custommw.CSRFTokenFromContext(ctx),
		MaxUpload:     h.maxUpload,
	}
}

// adminFilter resolves the products filter from ?category=, remembering it in the session, or
// falls back to the last remembered one.
func adminFilter(r *http.Request) catalog.Filter {
	sess := sessionFrom(r.Context())
	if raw, ok := r.URL.Query()["category"]; ok {
		filter := catalog.ParseFilter(strings.Join(raw, ""))
		if sess != nil {
			sess.SetAdminFilter(filter.String())
		}
		return filter
	}
	if sess != nil {
		return catalog.ParseFilter(sess.AdminFilter())
	}
	return catalog.AllCategories()
}

// AdminPage renders the admin page. ?modal=&id= opens a modal for clients without htmx.
func (h *Handlers) AdminPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := adminFilter(r)
	snap := h.loader.Load(ctx, custommw.CredentialsFromContext(ctx))

	var modal admintpl.ModalData
	if kind := r.URL.Query().Get("modal"); kind != "" {
		var alertKey string
		modal, alertKey = h.buildModal(ctx, kind, r.URL.Query().Get("id"), snap)
		if alertKey != "" {
			flashRedirect(w, r, session.ToneError, h.t(ctx, alertKey), custommw.BasePathFromContext(ctx))
			return
		}
	}
	h.renderAdminPage(w, r, http.StatusOK, admintpl.NewState(snap, filter), modal)
}

func (h *Handlers) renderAdminPage(w http.ResponseWriter, r *http.Request, status int, state admintpl.State, modal admintpl.ModalData) {
	page := admintpl.BuildPageData(h.adminOptions(r.Context()), h.layout(r, "app.title_admin"), state, modal)
	render(w, r, status, admintpl.Index(page))
}

// ProductsFragment renders the filtered products table and pushes the filter into the URL.
func (h *Handlers) ProductsFragment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := adminFilter(r)
	snap := h.loader.Load(ctx, custommw.CredentialsFromContext(ctx))
	state := admintpl.NewState(snap, filter)

	base := custommw.BasePathFromContext(ctx)
	w.Header().Set("HX-Push-Url", helpers.WithQuery(base, "category", filter.String()))
	render(w, r, http.StatusOK, admintpl.ProductsTable(admintpl.ProductsTablePayload(h.adminOptions(ctx), state)))
}

// NewCategory opens the empty category modal.
func (h *Handlers) NewCategory(w http.ResponseWriter, r *http.Request) {
	h.openModal(w, r, modalCategory, "")
}

// EditCategory opens the category modal for an existing category.
func (h *Handlers) EditCategory(w http.ResponseWriter, r *http.Request) {
	h.openModal(w, r, modalCategory, chi.URLParam(r, "id"))
}

// ConfirmDeleteCategory opens the delete confirmation for a category.
func (h *Handlers) ConfirmDeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.openModal(w, r, modalConfirmCategory, chi.URLParam(r, "id"))
}

// NewProduct opens the empty product modal. Without categories nothing opens and the user is
// told to add one first.
func (h *Handlers) NewProduct(w http.ResponseWriter, r *http.Request) {
	h.openModal(w, r, modalProduct, "")
}

// EditProduct opens the product modal for an existing product.
func (h *Handlers) EditProduct(w http.ResponseWriter, r *http.Request) {
	h.openModal(w, r, modalProduct, chi.URLParam(r, "id"))
}

// ConfirmDeleteProduct opens the delete confirmation for a product.
func (h *Handlers) ConfirmDeleteProduct(w http.ResponseWriter, r *http.Request) {
	h.openModal(w, r, modalConfirmProduct, chi.URLParam(r, "id"))
}

// openModal renders the modal fragment for htmx or the full page with the modal open.
func (h *Handlers) openModal(w http.ResponseWriter, r *http.Request, kind, id string) {
	ctx := r.Context()
	snap := h.loader.Load(ctx, custommw.CredentialsFromContext(ctx))
	modal, alertKey := h.buildModal(ctx, kind, id, snap)

	if custommw.IsHTMXRequest(ctx) {
		if alertKey != "" {
			h.alert(w, r, http.StatusOK, h.t(ctx, alertKey), nil)
			return
		}
		render(w, r, http.StatusOK, admintpl.Modal(modal))
		return
	}
	if alertKey != "" {
		flashRedirect(w, r, session.ToneError, h.t(ctx, alertKey), custommw.BasePathFromContext(ctx))
		return
	}
	h.renderAdminPage(w, r, http.StatusOK, admintpl.NewState(snap, adminFilter(r)), modal)
}

// buildModal resolves the modal of kind for id from the loaded snapshot. A non-empty alert key
// means the modal cannot open.
func (h *Handlers) buildModal(ctx context.Context, kind, rawID string, snap catalog.Snapshot) (admintpl.ModalData, string) {
	opts := h.adminOptions(ctx)
	var id int64
	if rawID != "" || strings.HasPrefix(kind, "confirm-") {
		parsed, ok := parseID(rawID)
		if !ok {
			return admintpl.ModalData{}, catalog.KeyIDInvalid
		}
		id = parsed
	}

	switch kind {
	case modalCategory:
		if id == 0 {
			return admintpl.ModalData{Category: admintpl.CategoryFormPayload(opts, catalog.CategoryForm{}, "")}, ""
		}
		c, ok := catalog.FindCategory(snap.Categories, id)
		if !ok {
			return admintpl.ModalData{}, "error.not_found"
		}
		return admintpl.ModalData{Category: admintpl.CategoryFormPayload(opts, admintpl.CategoryFormFrom(c), "")}, ""
	case modalProduct:
		if id == 0 {
			if len(snap.Categories) == 0 {
				return admintpl.ModalData{}, "admin.need_category_first"
			}
			return admintpl.ModalData{Product: admintpl.ProductFormPayload(opts, snap.Categories, catalog.ProductForm{}, "", "")}, ""
		}
		p, ok := catalog.FindProduct(snap.Products, id)
		if !ok {
			return admintpl.ModalData{}, "error.not_found"
		}
		return admintpl.ModalData{Product: admintpl.ProductFormPayload(opts, snap.Categories, admintpl.ProductFormFrom(p), p.Image, "")}, ""
	case modalConfirmCategory:
		c, ok := catalog.FindCategory(snap.Categories, id)
		if !ok {
			return admintpl.ModalData{}, "error.not_found"
		}
		return admintpl.ModalData{Confirm: admintpl.ConfirmPayload(opts, admintpl.ConfirmCategory, c.ID, c.Name, "")}, ""
	case modalConfirmProduct:
		p, ok := catalog.FindProduct(snap.Products, id)
		if !ok {
			return admintpl.ModalData{}, "error.not_found"
		}
		return admintpl.ModalData{Confirm: admintpl.ConfirmPayload(opts, admintpl.ConfirmProduct, p.ID, p.Name, "")}, ""
	default:
		return admintpl.ModalData{}, ""
	}
}

// SubmitCategory creates (no id) or updates a category.
func (h *Handlers) SubmitCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.alert(w, r, http.StatusBadRequest, h.t(ctx, "error.form_invalid"), nil)
		return
	}
	form := catalog.CategoryForm{ID: firstNonEmpty(chi.URLParam(r, "id"), r.PostFormValue("id")), Name: r.PostFormValue("name")}

	input, err := form.Validate()
	if err == nil {
		err = h.catalog.SaveCategory(ctx, custommw.CredentialsFromContext(ctx), input)
	}
	if err != nil {
		status, msg := h.describeError(ctx, err)
		modal := admintpl.ModalData{Category: admintpl.CategoryFormPayload(h.adminOptions(ctx), form, msg)}
		h.respondModalError(w, r, status, modal)
		return
	}

	toast := "toast.category_updated"
	if input.IsNew() {
		toast = "toast.category_created"
	}
	observability.FromContext(ctx).Info("category saved", zap.Int64("category_id", input.ID), zap.Bool("created", input.IsNew()))
	h.afterCategoryMutation(w, r, h.t(ctx, toast))
}

// DeleteCategory deletes a category. The backend removes its products too, so both tables are
// reloaded.
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		h.alert(w, r, http.StatusBadRequest, h.t(ctx, catalog.KeyIDInvalid), nil)
		return
	}
	if err := h.catalog.DeleteCategory(ctx, custommw.CredentialsFromContext(ctx), id); err != nil {
		status, msg := h.describeError(ctx, err)
		name := ""
		if categories, lerr := h.loader.Categories(ctx, custommw.CredentialsFromContext(ctx)); lerr == nil {
			if c, found := catalog.FindCategory(categories, id); found {
				name = c.Name
			}
		}
		modal := admintpl.ModalData{Confirm: admintpl.ConfirmPayload(h.adminOptions(ctx), admintpl.ConfirmCategory, id, name, msg)}
		h.respondModalError(w, r, status, modal)
		return
	}
	observability.FromContext(ctx).Info("category deleted", zap.Int64("category_id", id))
	h.afterCategoryMutation(w, r, h.t(ctx, "toast.category_deleted"))
}

// SubmitProduct creates (no id) or updates a product from a multipart form.
func (h *Handlers) SubmitProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := catalog.ProductForm{ID: chi.URLParam(r, "id")}

	image, err := h.parseProductRequest(r)
	if err == nil {
		form.ID = firstNonEmpty(form.ID, r.FormValue("id"))
		form.Name = r.FormValue("name")
		form.Price = r.FormValue("price")
		form.CategoryID = r.FormValue("category_id")
		form.Image = image
	}

	var input catalog.ProductInput
	if err == nil {
		input, err = form.Validate(h.maxUpload)
	}
	if err == nil {
		err = h.catalog.SaveProduct(ctx, custommw.CredentialsFromContext(ctx), input)
	}
	if err != nil {
		status, msg := h.describeError(ctx, err)
		snap := h.loader.Load(ctx, custommw.CredentialsFromContext(ctx))
		current := ""
		if id, ok := parseID(form.ID); ok {
			if p, found := catalog.FindProduct(snap.Products, id); found {
				current = p.Image
			}
		}
		modal := admintpl.ModalData{Product: admintpl.ProductFormPayload(h.adminOptions(ctx), snap.Categories, form, current, msg)}
		h.respondModalError(w, r, status, modal)
		return
	}

	toast := "toast.product_updated"
	if input.IsNew() {
		toast = "toast.product_created"
	}
	observability.FromContext(ctx).Info("product saved", zap.Int64("product_id", input.ID), zap.Bool("created", input.IsNew()))
	h.afterProductMutation(w, r, h.t(ctx, toast))
}

// DeleteProduct deletes a product and reloads the products table.
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		h.alert(w, r, http.StatusBadRequest, h.t(ctx, catalog.KeyIDInvalid), nil)
		return
	}
	if err := h.catalog.DeleteProduct(ctx, custommw.CredentialsFromContext(ctx), id); err != nil {
		status, msg := h.describeError(ctx, err)
		name := ""
		if products, lerr := h.loader.Products(ctx, custommw.CredentialsFromContext(ctx)); lerr == nil {
			if p, found := catalog.FindProduct(products, id); found {
				name = p.Name
			}
		}
		modal := admintpl.ModalData{Confirm: admintpl.ConfirmPayload(h.adminOptions(ctx), admintpl.ConfirmProduct, id, name, msg)}
		h.respondModalError(w, r, status, modal)
		return
	}
	observability.FromContext(ctx).Info("product deleted", zap.Int64("product_id", id))
	h.afterProductMutation(w, r, h.t(ctx, "toast.product_deleted"))
}

// respondModalError keeps the modal open with the error message: the modal fragment for htmx,
// the full page otherwise.
func (h *Handlers) respondModalError(w http.ResponseWriter, r *http.Request, status int, modal admintpl.ModalData) {
	ctx := r.Context()
	if custommw.IsHTMXRequest(ctx) {
		render(w, r, status, admintpl.Modal(modal))
		return
	}
	snap := h.loader.Load(ctx, custommw.CredentialsFromContext(ctx))
	h.renderAdminPage(w, r, status, admintpl.NewState(snap, adminFilter(r)), modal)
}

// afterCategoryMutation closes the modal and swaps in fresh categories, filter and products.
func (h *Handlers) afterCategoryMutation(w http.ResponseWriter, r *http.Request, message string) {
	ctx := r.Context()
	if !custommw.IsHTMXRequest(ctx) {
		flashRedirect(w, r, session.ToneSuccess, message, custommw.BasePathFromContext(ctx))
		return
	}
	opts := h.adminOptions(ctx)
	state := admintpl.NewState(h.loader.Load(ctx, custommw.CredentialsFromContext(ctx)), adminFilter(r))

	categories := admintpl.CategoriesTablePayload(opts, state)
	categories.OOB = true
	filter := admintpl.FilterPayload(opts, state)
	filter.OOB = true
	products := admintpl.ProductsTablePayload(opts, state)
	products.OOB = true

	trigger(w, r, map[string]any{"toast": toastEvent(message, session.ToneSuccess)})
	render(w, r, http.StatusOK,
		admintpl.Modal(admintpl.ModalData{}),
		admintpl.CategoriesTable(categories),
		admintpl.CategoryFilter(filter),
		admintpl.ProductsTable(products),
	)
}

// afterProductMutation closes the modal and swaps in a fresh products table. Only products are
// reloaded; category names come from the last category load.
func (h *Handlers) afterProductMutation(w http.ResponseWriter, r *http.Request, message string) {
	ctx := r.Context()
	if !custommw.IsHTMXRequest(ctx) {
		flashRedirect(w, r, session.ToneSuccess, message, custommw.BasePathFromContext(ctx))
		return
	}
	state := admintpl.NewState(h.loader.ProductsOnly(ctx, custommw.CredentialsFromContext(ctx)), adminFilter(r))
	products := admintpl.ProductsTablePayload(h.adminOptions(ctx), state)
	products.OOB = true

	trigger(w, r, map[string]any{"toast": toastEvent(message, session.ToneSuccess)})
	render(w, r, http.StatusOK,
		admintpl.Modal(admintpl.ModalData{}),
		admintpl.ProductsTable(products),
	)
}

// Logout ends the backend admin session, relays its cookies and returns to the shop.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cookies, err := h.catalog.Logout(ctx, custommw.CredentialsFromContext(ctx))
	if err != nil {
		observability.FromContext(ctx).Warn("backend logout failed", zap.Error(err))
	}
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
	if sess := sessionFrom(ctx); sess != nil {
		sess.SetAdminFilter("")
		sess.AddFlash(session.ToneInfo, h.t(ctx, "toast.logged_out"))
	}
	if custommw.IsHTMXRequest(ctx) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var errUploadTooLarge = &catalog.ValidationError{Field: "image", Key: catalog.KeyImageTooLarge}

// isTooLarge reports whether err came from the request body limit.
func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
