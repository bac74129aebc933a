package admin

import (
	"html/template"
	"strconv"

	"github.com/a-h/templ"

	"finitefield.org/shopfront/internal/catalog"
	"finitefield.org/shopfront/internal/templates/helpers"
	"finitefield.org/shopfront/internal/templates/view"
)

// Options carries the request-independent rendering settings.
type Options struct {
	BasePath      string
	Lang          string
	Currency      string
	FallbackImage string
	CSRFToken     string
	MaxUpload     int64
}

// State is the admin application state for one request.
type State struct {
	Categories    []catalog.Category
	Products      []catalog.Product
	CategoriesErr error
	ProductsErr   error
	Filter        catalog.Filter
}

// NewState builds the state from a loaded snapshot.
func NewState(snap catalog.Snapshot, filter catalog.Filter) State {
	return State{
		Categories:    snap.Categories,
		Products:      snap.Products,
		CategoriesErr: snap.CategoriesErr,
		ProductsErr:   snap.ProductsErr,
		Filter:        filter,
	}
}

// PageData is the payload of the admin page.
type PageData struct {
	Layout         view.Layout
	ShopURL        string
	LogoutURL      string
	ExportURL      string
	NewCategoryURL string
	NewProductURL  string
	Categories     CategoriesTableData
	Products       ProductsTableData
	Filter         FilterData
	Modal          ModalData
}

// CategoriesTableData is the categories table fragment.
type CategoriesTableData struct {
	Rows   []CategoryRow
	Failed bool
	OOB    bool
}

// CategoryRow is one categories table row.
type CategoryRow struct {
	ID        int64
	Name      string
	EditURL   string
	DeleteURL string
}

// ProductsTableData is the products table fragment.
type ProductsTableData struct {
	Rows     []ProductRow
	Failed   bool
	Fallback string
	OOB      bool
}

// ProductRow is one products table row.
type ProductRow struct {
	ID            int64
	Name          string
	Price         string
	ImageSrc      template.URL
	CategoryName  string
	CategoryKnown bool
	EditURL       string
	DeleteURL     string
}

// FilterData is the category filter control above the products table.
type FilterData struct {
	PageURL     string
	FragmentURL string
	Options     []SelectOption
	OOB         bool
}

// SelectOption is a select menu option. All marks the implicit "all categories" entry.
type SelectOption struct {
	Value    string
	Label    string
	Selected bool
	All      bool
}

// ModalData describes the single modal container. At most one field is set.
type ModalData struct {
	Category *CategoryFormData
	Product  *ProductFormData
	Confirm  *ConfirmData
}

// Open reports whether a modal is shown.
func (m ModalData) Open() bool {
	return m.Category != nil || m.Product != nil || m.Confirm != nil
}

// CategoryFormData is the add/edit category modal.
type CategoryFormData struct {
	Edit      bool
	ID        string
	Name      string
	Action    string
	CloseURL  string
	CSRFToken string
	Error     string
}

// ProductFormData is the add/edit product modal.
type ProductFormData struct {
	Edit         bool
	ID           string
	Name         string
	Price        string
	CategoryID   string
	Options      []SelectOption
	CurrentImage template.URL
	HasImage     bool
	Action       string
	PreviewURL   string
	CloseURL     string
	CSRFToken    string
	MaxUpload    int64
	Error        string
}

// ConfirmData is the delete confirmation modal.
type ConfirmData struct {
	Kind       string
	Name       string
	DeleteURL  string
	FormAction string
	CloseURL   string
	CSRFToken  string
	Error      string
}

// Confirm kinds.
const (
	ConfirmCategory = "category"
	ConfirmProduct  = "product"
)

// PreviewData is the image preview fragment.
type PreviewData struct {
	Src      template.URL
	Filename string
}

// BuildPageData assembles the full admin page.
func BuildPageData(opts Options, layout view.Layout, state State, modal ModalData) PageData {
	return PageData{
		Layout:         layout,
		ShopURL:        "/",
		LogoutURL:      helpers.Join(opts.BasePath, "logout"),
		ExportURL:      helpers.Join(opts.BasePath, "export.xlsx"),
		NewCategoryURL: helpers.Join(opts.BasePath, "categories", "new"),
		NewProductURL:  helpers.Join(opts.BasePath, "products", "new"),
		Categories:     CategoriesTablePayload(opts, state),
		Products:       ProductsTablePayload(opts, state),
		Filter:         FilterPayload(opts, state),
		Modal:          modal,
	}
}

// CategoriesTablePayload builds the categories table rows.
func CategoriesTablePayload(opts Options, state State) CategoriesTableData {
	data := CategoriesTableData{Failed: state.CategoriesErr != nil}
	for _, c := range state.Categories {
		id := strconv.FormatInt(c.ID, 10)
		data.Rows = append(data.Rows, CategoryRow{
			ID:        c.ID,
			Name:      c.Name,
			EditURL:   helpers.Join(opts.BasePath, "categories", id, "edit"),
			DeleteURL: helpers.Join(opts.BasePath, "categories", id, "delete"),
		})
	}
	return data
}

// ProductsTablePayload builds the products table rows for the current filter. Products whose
// category is not loaded are flagged so the template renders the unknown-category label.
func ProductsTablePayload(opts Options, state State) ProductsTableData {
	data := ProductsTableData{Failed: state.ProductsErr != nil, Fallback: opts.FallbackImage}
	names := catalog.CategoryNames(state.Categories)
	for _, p := range catalog.FilterProducts(state.Products, state.Filter) {
		id := strconv.FormatInt(p.ID, 10)
		name, known := names[p.CategoryID]
		data.Rows = append(data.Rows, ProductRow{
			ID:            p.ID,
			Name:          p.Name,
			Price:         helpers.Price(opts.Lang, p.Price, opts.Currency),
			ImageSrc:      helpers.ImageSrc(p.Image, opts.FallbackImage),
			CategoryName:  name,
			CategoryKnown: known,
			EditURL:       helpers.Join(opts.BasePath, "products", id, "edit"),
			DeleteURL:     helpers.Join(opts.BasePath, "products", id, "delete"),
		})
	}
	return data
}

// FilterPayload rebuilds the filter options from the loaded categories.
func FilterPayload(opts Options, state State) FilterData {
	selected := state.Filter.String()
	options := []SelectOption{{Value: catalog.FilterAll, All: true, Selected: state.Filter.IsAll()}}
	for _, c := range state.Categories {
		value := strconv.FormatInt(c.ID, 10)
		options = append(options, SelectOption{Value: value, Label: c.Name, Selected: value == selected})
	}
	return FilterData{
		PageURL:     helpers.Join(opts.BasePath),
		FragmentURL: helpers.Join(opts.BasePath, "fragments", "products"),
		Options:     options,
	}
}

// CategoryFormPayload builds the category modal from raw form values.
func CategoryFormPayload(opts Options, form catalog.CategoryForm, errMsg string) *CategoryFormData {
	data := &CategoryFormData{
		Edit:      form.ID != "",
		ID:        form.ID,
		Name:      form.Name,
		Action:    helpers.Join(opts.BasePath, "categories"),
		CloseURL:  helpers.Join(opts.BasePath),
		CSRFToken: opts.CSRFToken,
		Error:     errMsg,
	}
	if data.Edit {
		data.Action = helpers.Join(opts.BasePath, "categories", form.ID)
	}
	return data
}

// CategoryFormFrom converts a stored category into form values.
func CategoryFormFrom(c catalog.Category) catalog.CategoryForm {
	return catalog.CategoryForm{ID: strconv.FormatInt(c.ID, 10), Name: c.Name}
}

// ProductFormPayload builds the product modal from raw form values. The category select is
// rebuilt from categories; currentImage is the stored image of an edited product.
func ProductFormPayload(opts Options, categories []catalog.Category, form catalog.ProductForm, currentImage, errMsg string) *ProductFormData {
	data := &ProductFormData{
		Edit:       form.ID != "",
		ID:         form.ID,
		Name:       form.Name,
		Price:      form.Price,
		CategoryID: form.CategoryID,
		Action:     helpers.Join(opts.BasePath, "products"),
		PreviewURL: helpers.Join(opts.BasePath, "products", "preview"),
		CloseURL:   helpers.Join(opts.BasePath),
		CSRFToken:  opts.CSRFToken,
		MaxUpload:  opts.MaxUpload,
		Error:      errMsg,
	}
	if data.Edit {
		data.Action = helpers.Join(opts.BasePath, "products", form.ID)
	}
	for _, c := range categories {
		value := strconv.FormatInt(c.ID, 10)
		data.Options = append(data.Options, SelectOption{Value: value, Label: c.Name, Selected: value == form.CategoryID})
	}
	if currentImage != "" {
		data.HasImage = true
		data.CurrentImage = helpers.ImageSrc(currentImage, opts.FallbackImage)
	}
	return data
}

// ProductFormFrom converts a stored product into form values.
func ProductFormFrom(p catalog.Product) catalog.ProductForm {
	return catalog.ProductForm{
		ID:         strconv.FormatInt(p.ID, 10),
		Name:       p.Name,
		Price:      p.Price.StringFixed(2),
		CategoryID: strconv.FormatInt(p.CategoryID, 10),
	}
}

// ConfirmPayload builds the delete confirmation modal for kind and id.
func ConfirmPayload(opts Options, kind string, id int64, name, errMsg string) *ConfirmData {
	resource := "categories"
	if kind == ConfirmProduct {
		resource = "products"
	}
	idStr := strconv.FormatInt(id, 10)
	return &ConfirmData{
		Kind:       kind,
		Name:       name,
		DeleteURL:  helpers.Join(opts.BasePath, resource, idStr),
		FormAction: helpers.Join(opts.BasePath, resource, idStr, "delete"),
		CloseURL:   helpers.Join(opts.BasePath),
		CSRFToken:  opts.CSRFToken,
		Error:      errMsg,
	}
}

// Index renders the full admin page.
func Index(page PageData) templ.Component {
	return view.Component("admin/index", page)
}

// CategoriesTable renders the categories table fragment.
func CategoriesTable(data CategoriesTableData) templ.Component {
	return view.Component("admin/categories-table", data)
}

// ProductsTable renders the products table fragment.
func ProductsTable(data ProductsTableData) templ.Component {
	return view.Component("admin/products-table", data)
}

// CategoryFilter renders the products filter control.
func CategoryFilter(data FilterData) templ.Component {
	return view.Component("admin/category-filter", data)
}

// Modal renders the modal container, empty when closed.
func Modal(data ModalData) templ.Component {
	return view.Component("admin/modal", data)
}

// ImagePreview renders the preview of a newly selected image.
func ImagePreview(data PreviewData) templ.Component {
	return view.Component("admin/image-preview", data)
}
