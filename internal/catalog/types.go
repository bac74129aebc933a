package catalog

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// Category is a named grouping for products. The backend owns it; the shopfront only holds
// the copy fetched for the current request.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a sellable catalog item.
type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID int64           `json:"category_id"`
	// Image is the public URL of the product image, empty when none was uploaded.
	Image string `json:"image"`
}

// CategoryInput is a validated category payload. A zero ID creates a new category.
type CategoryInput struct {
	ID   int64
	Name string
}

// IsNew reports whether the input creates a category rather than updating one.
func (in CategoryInput) IsNew() bool { return in.ID == 0 }

// ProductInput is a validated product payload. A zero ID creates a new product.
type ProductInput struct {
	ID         int64
	Name       string
	Price      decimal.Decimal
	CategoryID int64
	Image      *ImageUpload
}

// IsNew reports whether the input creates a product rather than updating one.
func (in ProductInput) IsNew() bool { return in.ID == 0 }

// ImageUpload is an image file selected in the product form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Credentials carries the caller's backend session material. The shopfront never inspects it;
// it is replayed on every backend call made on the caller's behalf.
type Credentials struct {
	Cookies       []*http.Cookie
	Authorization string
}

// Empty reports whether no credentials are present.
func (c Credentials) Empty() bool {
	return len(c.Cookies) == 0 && strings.TrimSpace(c.Authorization) == ""
}

func (c Credentials) apply(req *http.Request) {
	for _, cookie := range c.Cookies {
		if cookie == nil || cookie.Name == "" {
			continue
		}
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	if auth := strings.TrimSpace(c.Authorization); auth != "" {
		req.Header.Set("Authorization", auth)
	}
}

// CredentialsFromRequest extracts the cookies and Authorization header of r, skipping cookies
// whose names are listed in exclude (the shopfront's own cookies).
func CredentialsFromRequest(r *http.Request, exclude ...string) Credentials {
	if r == nil {
		return Credentials{}
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		if name = strings.TrimSpace(name); name != "" {
			skip[name] = struct{}{}
		}
	}
	var cookies []*http.Cookie
	for _, c := range r.Cookies() {
		if _, ok := skip[c.Name]; ok {
			continue
		}
		cookies = append(cookies, c)
	}
	return Credentials{
		Cookies:       cookies,
		Authorization: r.Header.Get("Authorization"),
	}
}
