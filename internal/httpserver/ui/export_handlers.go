package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"finitefield.org/shopfront/internal/catalog"
	custommw "finitefield.org/shopfront/internal/httpserver/middleware"
	"finitefield.org/shopfront/internal/observability"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export downloads the catalog as an XLSX workbook with one sheet per collection.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := h.loader.Load(ctx, custommw.CredentialsFromContext(ctx))
	if snap.CategoriesErr != nil || snap.ProductsErr != nil {
		http.Error(w, h.t(ctx, "error.backend_unavailable"), http.StatusBadGateway)
		return
	}

	labels := catalog.ExportLabels{
		CategoriesSheet: h.t(ctx, "export.categories_sheet"),
		ProductsSheet:   h.t(ctx, "export.products_sheet"),
		ID:              h.t(ctx, "admin.col_id"),
		Name:            h.t(ctx, "admin.col_name"),
		Price:           h.t(ctx, "admin.col_price"),
		Category:        h.t(ctx, "admin.col_category"),
		Image:           h.t(ctx, "admin.col_image"),
		UnknownCategory: h.t(ctx, "admin.unknown_category"),
	}

	var buf bytes.Buffer
	if err := catalog.ExportXLSX(&buf, labels, snap.Categories, snap.Products); err != nil {
		observability.FromContext(ctx).Error("catalog export failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("catalog-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
