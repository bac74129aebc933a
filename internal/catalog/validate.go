package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
)

// Message keys reported by ValidationError. They resolve through the i18n catalogs.
const (
	KeyCategoryNameRequired = "validation.category_name_required"
	KeyProductNameRequired  = "validation.product_name_required"
	KeyPriceInvalid         = "validation.price_invalid"
	KeyCategoryRequired     = "validation.category_required"
	KeyImageType            = "validation.image_type"
	KeyImageTooLarge        = "validation.image_too_large"
	KeyIDInvalid            = "validation.id_invalid"
)

// ValidationError describes the first invalid field of a submitted form.
type ValidationError struct {
	Field string
	Key   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: invalid %s (%s)", e.Field, e.Key)
}

// CategoryForm is the raw category form submission.
type CategoryForm struct {
	ID   string
	Name string
}

// Validate checks the form and converts it into a CategoryInput.
func (f CategoryForm) Validate() (CategoryInput, error) {
	id, err := parseOptionalID(f.ID)
	if err != nil {
		return CategoryInput{}, err
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return CategoryInput{}, &ValidationError{Field: "name", Key: KeyCategoryNameRequired}
	}
	return CategoryInput{ID: id, Name: name}, nil
}

// ProductForm is the raw product form submission.
type ProductForm struct {
	ID         string
	Name       string
	Price      string
	CategoryID string
	Image      *ImageUpload
}

// Validate checks the form in field order and converts it into a ProductInput. Image checks
// use maxImageBytes when it is positive.
func (f ProductForm) Validate(maxImageBytes int64) (ProductInput, error) {
	id, err := parseOptionalID(f.ID)
	if err != nil {
		return ProductInput{}, err
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return ProductInput{}, &ValidationError{Field: "name", Key: KeyProductNameRequired}
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(f.Price), ",", "."))
	if err != nil || !price.IsPositive() {
		return ProductInput{}, &ValidationError{Field: "price", Key: KeyPriceInvalid}
	}
	categoryID, err := strconv.ParseInt(strings.TrimSpace(f.CategoryID), 10, 64)
	if err != nil || categoryID <= 0 {
		return ProductInput{}, &ValidationError{Field: "category_id", Key: KeyCategoryRequired}
	}
	in := ProductInput{ID: id, Name: name, Price: price, CategoryID: categoryID}
	if f.Image != nil && len(f.Image.Data) > 0 {
		img, err := CheckImage(*f.Image, maxImageBytes)
		if err != nil {
			return ProductInput{}, err
		}
		in.Image = &img
	}
	return in, nil
}

// AllowedImageTypes lists the image formats the backend stores.
var AllowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// CheckImage sniffs the upload content and rejects anything that is not one of
// AllowedImageTypes. The returned upload carries the detected content type.
func CheckImage(upload ImageUpload, maxBytes int64) (ImageUpload, error) {
	if maxBytes > 0 && int64(len(upload.Data)) > maxBytes {
		return ImageUpload{}, &ValidationError{Field: "image", Key: KeyImageTooLarge}
	}
	detected := mimetype.Detect(upload.Data)
	if !mimetype.EqualsAny(detected.String(), AllowedImageTypes...) {
		return ImageUpload{}, &ValidationError{Field: "image", Key: KeyImageType}
	}
	upload.ContentType = detected.String()
	if upload.Filename == "" {
		upload.Filename = "image" + detected.Extension()
	}
	return upload, nil
}

func parseOptionalID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Field: "id", Key: KeyIDInvalid}
	}
	return id, nil
}
