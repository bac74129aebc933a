package ui

import (
	"encoding/base64"
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/shopfront/internal/catalog"
	"finitefield.org/shopfront/internal/observability"
	admintpl "finitefield.org/shopfront/internal/templates/admin"
)

const multipartMemory = 8 << 20

// parseProductRequest parses the product form and returns the selected image, nil when no file
// was chosen.
func (h *Handlers) parseProductRequest(r *http.Request) (*catalog.ImageUpload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return nil, formError(err)
		}
		return nil, nil
	}
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, formError(err)
		}
	}
	return h.readImage(r, "image")
}

func (h *Handlers) readImage(r *http.Request, field string) (*catalog.ImageUpload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, formError(err)
	}
	defer file.Close()

	reader := io.Reader(file)
	if h.maxUpload > 0 {
		reader = io.LimitReader(file, h.maxUpload+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, formError(err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &catalog.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func formError(err error) error {
	if isTooLarge(err) {
		return errUploadTooLarge
	}
	return &catalog.ValidationError{Field: "form", Key: "error.form_invalid"}
}

// PreviewImage renders a preview of the selected file. Non-images are rejected without touching
// the current preview, and the browser is asked to alert and clear the file input. An empty
// selection (cancelled file dialog) changes nothing.
func (h *Handlers) PreviewImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	upload, err := h.parseProductRequest(r)
	if err == nil && upload == nil {
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var checked catalog.ImageUpload
	if err == nil {
		checked, err = catalog.CheckImage(*upload, h.maxUpload)
	}
	if err != nil {
		_, msg := h.describeError(ctx, err)
		observability.FromContext(ctx).Info("image preview rejected", zap.Error(err))
		h.alert(w, r, http.StatusUnprocessableEntity, msg, map[string]any{
			"clear-file": map[string]any{"target": "#product-image"},
		})
		return
	}

	src := "data:" + checked.ContentType + ";base64," + base64.StdEncoding.EncodeToString(checked.Data)
	render(w, r, http.StatusOK, admintpl.ImagePreview(admintpl.PreviewData{
		Src:      template.URL(src),
		Filename: checked.Filename,
	}))
}
