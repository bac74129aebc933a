package shop

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"finitefield.org/shopfront/internal/catalog"
	"finitefield.org/shopfront/internal/templates/helpers"
	"finitefield.org/shopfront/internal/templates/view"
)

// Options carries the request-independent rendering settings.
type Options struct {
	Lang          string
	Currency      string
	FallbackImage string
}

// State is the shop application state for one request.
type State struct {
	Categories    []catalog.Category
	Products      []catalog.Product
	CategoriesErr error
	ProductsErr   error
	Filter        catalog.Filter
	// Label is the title sent by the clicked category button. It spares the products fragment a
	// category lookup.
	Label string
}

// PageData is the payload of the shop page.
type PageData struct {
	Layout     view.Layout
	Categories CategoryStrip
	Products   ProductsData
}

// CategoryStrip is the row of category buttons.
type CategoryStrip struct {
	Buttons []CategoryButton
	Failed  bool
}

// CategoryButton selects one category. All marks the implicit first button.
type CategoryButton struct {
	Value       string
	Label       string
	All         bool
	Active      bool
	PageURL     string
	FragmentURL string
}

// ProductsData is the product grid fragment with its title and count.
type ProductsData struct {
	Title    string
	TitleKey string
	Count    int
	Cards    []ProductCard
	Failed   bool
	Fallback string
}

// ProductCard is one product in the grid.
type ProductCard struct {
	ID       int64
	Name     string
	Price    string
	ImageSrc template.URL
}

const fragmentPath = "/catalog/products"

// BuildPageData assembles the full shop page.
func BuildPageData(opts Options, layout view.Layout, state State) PageData {
	return PageData{
		Layout:     layout,
		Categories: CategoryStripPayload(state),
		Products:   ProductsPayload(opts, state),
	}
}

// CategoryStripPayload builds the category buttons with the implicit "all" button first.
func CategoryStripPayload(state State) CategoryStrip {
	strip := CategoryStrip{Failed: state.CategoriesErr != nil}
	strip.Buttons = append(strip.Buttons, CategoryButton{
		Value:       catalog.FilterAll,
		All:         true,
		Active:      state.Filter.IsAll(),
		PageURL:     "/",
		FragmentURL: helpers.WithQuery(fragmentPath, "category", catalog.FilterAll),
	})
	selected := state.Filter.String()
	for _, c := range state.Categories {
		value := strconv.FormatInt(c.ID, 10)
		strip.Buttons = append(strip.Buttons, CategoryButton{
			Value:       value,
			Label:       c.Name,
			Active:      value == selected,
			PageURL:     helpers.WithQuery("/", "category", value),
			FragmentURL: helpers.WithQuery(fragmentPath, "category", value, "label", c.Name),
		})
	}
	return strip
}

// ProductsPayload builds the grid for the current filter. The title is the button label when one
// was sent, the category name when it is loaded, the "all products" label for the all filter and
// the generic products label otherwise.
func ProductsPayload(opts Options, state State) ProductsData {
	data := ProductsData{Failed: state.ProductsErr != nil, Fallback: opts.FallbackImage}
	switch {
	case state.Filter.IsAll():
		data.TitleKey = "shop.all_products"
	case strings.TrimSpace(state.Label) != "":
		data.Title = strings.TrimSpace(state.Label)
	default:
		id, _ := state.Filter.CategoryID()
		if c, ok := catalog.FindCategory(state.Categories, id); ok {
			data.Title = c.Name
		} else {
			data.TitleKey = "shop.products_fallback"
		}
	}
	for _, p := range catalog.FilterProducts(state.Products, state.Filter) {
		data.Cards = append(data.Cards, ProductCard{
			ID:       p.ID,
			Name:     p.Name,
			Price:    helpers.Price(opts.Lang, p.Price, opts.Currency),
			ImageSrc: helpers.ImageSrc(p.Image, opts.FallbackImage),
		})
	}
	data.Count = len(data.Cards)
	return data
}

// Index renders the full shop page.
func Index(page PageData) templ.Component {
	return view.Component("shop/index", page)
}

// Products renders the product grid fragment.
func Products(data ProductsData) templ.Component {
	return view.Component("shop/products", data)
}
