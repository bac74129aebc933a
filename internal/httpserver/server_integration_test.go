package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finitefield.org/shopfront/internal/catalog"
	"finitefield.org/shopfront/internal/testutil"
)

type adminClient struct {
	t      *testing.T
	base   string
	client *http.Client
	token  string
}

func newAdminClient(t *testing.T, ts *httptest.Server) *adminClient {
	t.Helper()

	c := &adminClient{t: t, base: ts.URL, client: testutil.NewClient(t)}
	resp := c.do(http.MethodGet, "/admin", nil, "", false)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.token = testutil.CSRFToken(t, testutil.ParseHTML(t, body))
	return c
}

func (c *adminClient) do(method, path string, body io.Reader, contentType string, htmx bool) *http.Response {
	c.t.Helper()

	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if c.token != "" {
		req.Header.Set("X-CSRF-Token", c.token)
	}
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (c *adminClient) form(method, path string, values url.Values, htmx bool) *http.Response {
	c.t.Helper()
	return c.do(method, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", htmx)
}

func (c *adminClient) multipart(path string, fields map[string]string, filename string, data []byte) *http.Response {
	c.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(c.t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(c.t, err)
		_, err = part.Write(data)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())
	return c.do(http.MethodPost, path, &buf, mw.FormDataContentType(), true)
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func triggerEvents(t *testing.T, resp *http.Response) map[string]map[string]any {
	t.Helper()
	raw := resp.Header.Get("HX-Trigger")
	require.NotEmpty(t, raw)
	var events map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &events))
	return events
}

func TestAdminPageRendersCatalog(t *testing.T) {
	t.Parallel()

	service := catalog.NewStaticService(
		[]catalog.Category{{ID: 1, Name: "Чай"}},
		[]catalog.Product{
			{ID: 1, Name: "Улун", Price: decimal.RequireFromString("1234.5"), CategoryID: 1},
			{ID: 2, Name: "Сирота", Price: decimal.RequireFromString("10"), CategoryID: 99},
		},
	)
	ts := testutil.NewServer(t, testutil.WithCatalog(service))
	client := testutil.NewClient(t)

	resp, err := client.Get(ts.URL + "/admin")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	doc := testutil.ParseHTML(t, readBody(t, resp))
	require.Equal(t, 1, doc.Find("#categories-table tr[data-category-id]").Length())
	require.Equal(t, 2, doc.Find("#products-table tr[data-product-id]").Length())

	orphan := doc.Find(`#products-table tr[data-product-id="2"] td.cell-category`)
	require.Equal(t, "Неизвестно", strings.TrimSpace(orphan.Text()))
	price := doc.Find(`#products-table tr[data-product-id="1"] td.cell-price`)
	require.Equal(t, "1 234,50 ₽", testutil.NormalizeSpace(price.Text()))
	require.NotEmpty(t, testutil.CSRFToken(t, doc))
}

func TestAdminPageUnknownCategoryInEnglish(t *testing.T) {
	t.Parallel()

	service := catalog.NewStaticService(nil, []catalog.Product{
		{ID: 7, Name: "Widget", Price: decimal.RequireFromString("5"), CategoryID: 3},
	})
	ts := testutil.NewServer(t, testutil.WithCatalog(service))

	resp, err := testutil.NewClient(t).Get(ts.URL + "/admin?lang=en")
	require.NoError(t, err)
	defer resp.Body.Close()

	doc := testutil.ParseHTML(t, readBody(t, resp))
	require.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, "Unknown", strings.TrimSpace(doc.Find("td.cell-category").Text()))
}

func TestAdminRequiresBackendSession(t *testing.T) {
	t.Parallel()

	service := catalog.NewDemoService()
	service.SetAuthenticated(false)
	ts := testutil.NewServer(t, testutil.WithCatalog(service))
	client := testutil.NewClient(t)

	resp, err := client.Get(ts.URL + "/admin")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/admin/fragments/products", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("HX-Redirect"))
}

func TestAdminMutationsRequireCSRFToken(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)
	c.token = ""

	resp := c.form(http.MethodPost, "/admin/categories", url.Values{"name": {"Новая"}}, true)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get("HX-Refresh"))
}

type backendCall struct {
	Method string
	Path   string
	Body   string
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []backendCall
}

func (b *fakeBackend) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, backendCall{Method: r.Method, Path: r.URL.Path, Body: string(body)})
}

func (b *fakeBackend) writes() []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []backendCall
	for _, c := range b.calls {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		switch {
		case r.URL.Path == "/api/admin/check-auth":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/api/categories":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"id":2,"name":"Чай"}]`)
		case r.URL.Path == "/api/products":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"id":5,"name":"Улун","price":300,"category_id":2,"image":null}]`)
		case r.URL.Path == "/api/admin/categories/3":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Категория с таким названием уже существует"}`)
		case r.URL.Path == "/admin/logout":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
			http.Redirect(w, r, "/", http.StatusFound)
		case strings.HasPrefix(r.URL.Path, "/api/admin/"):
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, `{}`)
		default:
			t.Errorf("unexpected backend call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newBackendServer(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	backend := &fakeBackend{}
	api := httptest.NewServer(backend.handler(t))
	t.Cleanup(api.Close)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	service, err := catalog.NewHTTPService(api.URL, client)
	require.NoError(t, err)
	return backend, testutil.NewServer(t, testutil.WithCatalog(service))
}

func TestCategorySubmitChoosesMethodByID(t *testing.T) {
	t.Parallel()

	backend, ts := newBackendServer(t)
	c := newAdminClient(t, ts)

	resp := c.form(http.MethodPost, "/admin/categories", url.Values{"name": {"  Кофе "}}, true)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Категория добавлена", triggerEvents(t, resp)["toast"]["message"])

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "outerHTML", doc.Find("#categories-table").AttrOr("hx-swap-oob", ""))
	require.Equal(t, "outerHTML", doc.Find("#category-filter").AttrOr("hx-swap-oob", ""))
	require.Equal(t, "outerHTML", doc.Find("#products-table").AttrOr("hx-swap-oob", ""))
	require.Equal(t, 0, doc.Find("#modal.is-open").Length())

	resp = c.form(http.MethodPut, "/admin/categories/2", url.Values{"name": {"Зелёный чай"}}, true)
	readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Категория изменена", triggerEvents(t, resp)["toast"]["message"])

	writes := backend.writes()
	require.Len(t, writes, 2)
	require.Equal(t, http.MethodPost, writes[0].Method)
	require.Equal(t, "/api/admin/categories", writes[0].Path)
	require.JSONEq(t, `{"name":"Кофе"}`, writes[0].Body)
	require.Equal(t, http.MethodPut, writes[1].Method)
	require.Equal(t, "/api/admin/categories/2", writes[1].Path)
	require.JSONEq(t, `{"name":"Зелёный чай"}`, writes[1].Body)
}

func TestCategorySubmitShowsBackendError(t *testing.T) {
	t.Parallel()

	_, ts := newBackendServer(t)
	c := newAdminClient(t, ts)

	resp := c.form(http.MethodPut, "/admin/categories/3", url.Values{"name": {"Чай"}}, true)
	body := readBody(t, resp)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find("#modal.is-open").Length())
	require.Equal(t, "Ошибка: Категория с таким названием уже существует", strings.TrimSpace(doc.Find(".form-error").Text()))
	require.Equal(t, "Чай", doc.Find(`input[name="name"]`).AttrOr("value", ""))
}

func TestCategorySubmitValidation(t *testing.T) {
	t.Parallel()

	backend, ts := newBackendServer(t)
	c := newAdminClient(t, ts)

	resp := c.form(http.MethodPost, "/admin/categories", url.Values{"name": {"   "}}, true)
	body := readBody(t, resp)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotEmpty(t, strings.TrimSpace(testutil.ParseHTML(t, body).Find(".form-error").Text()))
	require.Empty(t, backend.writes())
}

func TestLogoutRelaysBackendCookies(t *testing.T) {
	t.Parallel()

	_, ts := newBackendServer(t)
	c := newAdminClient(t, ts)

	resp := c.do(http.MethodGet, "/admin/logout", nil, "", false)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	var relayed bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session" {
			relayed = true
			require.True(t, cookie.MaxAge < 0)
		}
	}
	require.True(t, relayed)

	resp = c.do(http.MethodGet, "/", nil, "", false)
	doc := testutil.ParseHTML(t, readBody(t, resp))
	require.Equal(t, "Вы вышли из админ-панели", strings.TrimSpace(doc.Find("#toasts .toast-info").Text()))
}

// countingCatalog counts collection reads so tests can tell which collections a request reloaded.
type countingCatalog struct {
	*catalog.StaticService
	categories atomic.Int32
	products   atomic.Int32
}

func (c *countingCatalog) ListCategories(ctx context.Context, creds catalog.Credentials) ([]catalog.Category, error) {
	c.categories.Add(1)
	return c.StaticService.ListCategories(ctx, creds)
}

func (c *countingCatalog) ListProducts(ctx context.Context, creds catalog.Credentials) ([]catalog.Product, error) {
	c.products.Add(1)
	return c.StaticService.ListProducts(ctx, creds)
}

func (c *countingCatalog) reset() {
	c.categories.Store(0)
	c.products.Store(0)
}

func newCountingServer(t *testing.T) (*countingCatalog, *adminClient) {
	t.Helper()

	service := &countingCatalog{StaticService: catalog.NewDemoService()}
	c := newAdminClient(t, testutil.NewServer(t, testutil.WithCatalog(service)))
	service.reset()
	return service, c
}

func TestCategoryDeleteReloadsBothCollections(t *testing.T) {
	t.Parallel()

	service, c := newCountingServer(t)

	resp := c.do(http.MethodDelete, "/admin/categories/1", nil, "", true)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Категория удалена", triggerEvents(t, resp)["toast"]["message"])
	require.EqualValues(t, 1, service.categories.Load())
	require.EqualValues(t, 1, service.products.Load())

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find("#categories-table[hx-swap-oob]").Length())
	require.Equal(t, 1, doc.Find("#products-table[hx-swap-oob]").Length())
	require.Equal(t, 0, doc.Find(`tr[data-category-id="1"]`).Length())
	// The demo catalog cascades, so the two electronics products go too.
	require.Equal(t, 2, doc.Find("#products-table tr[data-product-id]").Length())
	require.Equal(t, 0, doc.Find(`#category-filter option[value="1"]`).Length())
}

func TestProductDeleteReloadsProductsOnly(t *testing.T) {
	t.Parallel()

	service, c := newCountingServer(t)

	resp := c.do(http.MethodDelete, "/admin/products/1", nil, "", true)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Товар удален", triggerEvents(t, resp)["toast"]["message"])
	require.EqualValues(t, 0, service.categories.Load())
	require.EqualValues(t, 1, service.products.Load())

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 0, doc.Find("#categories-table").Length())
	require.Equal(t, 0, doc.Find("#category-filter").Length())
	require.Equal(t, 1, doc.Find("#products-table[hx-swap-oob]").Length())
	require.Equal(t, 0, doc.Find(`tr[data-product-id="1"]`).Length())
	require.Equal(t, "Электроника", strings.TrimSpace(doc.Find(`tr[data-product-id="2"] td.cell-category`).Text()))
	require.Equal(t, "modal", doc.Find("#modal").AttrOr("class", ""))
}

func TestProductUpdateReloadsProductsOnly(t *testing.T) {
	t.Parallel()

	service, c := newCountingServer(t)

	resp := c.multipart("/admin/products/3", map[string]string{
		"name":        "Повесть",
		"price":       "450",
		"category_id": "2",
	}, "", nil)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Товар изменен", triggerEvents(t, resp)["toast"]["message"])
	require.EqualValues(t, 0, service.categories.Load())
	require.EqualValues(t, 1, service.products.Load())

	row := testutil.ParseHTML(t, body).Find(`tr[data-product-id="3"]`)
	require.Equal(t, "Повесть", strings.TrimSpace(row.Find("td.cell-name").Text()))
	require.Equal(t, "Книги", strings.TrimSpace(row.Find("td.cell-category").Text()))
}

func TestDeleteWithoutHTMXRedirectsWithFlash(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)

	resp := c.form(http.MethodPost, "/admin/products/2/delete", url.Values{"csrf_token": {c.token}}, false)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get("Location"))

	resp = c.do(http.MethodGet, "/admin", nil, "", false)
	doc := testutil.ParseHTML(t, readBody(t, resp))
	require.Equal(t, "Товар удален", strings.TrimSpace(doc.Find("#toasts .toast-success").Text()))
	require.Equal(t, 0, doc.Find(`tr[data-product-id="2"]`).Length())
}

func TestProductCreateWithImage(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
	resp := c.multipart("/admin/products", map[string]string{
		"name":        "Планшет",
		"price":       "15000,5",
		"category_id": "1",
	}, "tablet.png", png)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Товар добавлен", triggerEvents(t, resp)["toast"]["message"])

	doc := testutil.ParseHTML(t, body)
	var row *goquery.Selection
	doc.Find("#products-table tr[data-product-id]").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Find("td.cell-name").Text()) == "Планшет" {
			row = s
		}
	})
	require.NotNil(t, row)
	require.Equal(t, "15 000,50 ₽", testutil.NormalizeSpace(row.Find("td.cell-price").Text()))
	require.True(t, strings.HasPrefix(row.Find("img.thumb").AttrOr("src", ""), "data:image/png;base64,"))
}

func TestProductSubmitRejectsBadPrice(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)

	resp := c.multipart("/admin/products", map[string]string{
		"name":        "Планшет",
		"price":       "дорого",
		"category_id": "1",
	}, "", nil)
	body := readBody(t, resp)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	doc := testutil.ParseHTML(t, body)
	require.NotEmpty(t, strings.TrimSpace(doc.Find(".form-error").Text()))
	require.Equal(t, "дорого", doc.Find(`input[name="price"]`).AttrOr("value", ""))
}

func TestImagePreviewRejectsNonImage(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)

	resp := c.multipart("/admin/products/preview", nil, "notes.txt", []byte("just some text"))
	readBody(t, resp)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "none", resp.Header.Get("HX-Reswap"))

	events := triggerEvents(t, resp)
	require.Equal(t, "Выберите файл изображения", events["alert"]["message"])
	require.Equal(t, "#product-image", events["clear-file"]["target"])
}

func TestImagePreviewIgnoresEmptySelection(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)

	for name, file := range map[string]string{"no file part": "", "empty file": "empty.png"} {
		resp := c.multipart("/admin/products/preview", nil, file, nil)
		body := readBody(t, resp)
		require.Equal(t, http.StatusNoContent, resp.StatusCode, name)
		require.Equal(t, "none", resp.Header.Get("HX-Reswap"), name)
		require.Empty(t, resp.Header.Get("HX-Trigger"), name)
		require.Empty(t, body, name)
	}
}

func TestImagePreviewRendersDataURL(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
	resp := c.multipart("/admin/products/preview", nil, "dot.png", png)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := testutil.ParseHTML(t, body)
	require.True(t, strings.HasPrefix(doc.Find("img").AttrOr("src", ""), "data:image/png;base64,"))
}

func TestNewProductNeedsCategory(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithCatalog(catalog.NewStaticService(nil, nil)))
	c := newAdminClient(t, ts)

	resp := c.do(http.MethodGet, "/admin/products/new", nil, "", true)
	readBody(t, resp)
	require.Equal(t, "none", resp.Header.Get("HX-Reswap"))
	require.Equal(t, "Сначала добавьте хотя бы одну категорию", triggerEvents(t, resp)["alert"]["message"])
}

func TestModalFallbackWithoutHTMX(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)

	resp := c.do(http.MethodGet, "/admin/categories/2/edit", nil, "", false)
	doc := testutil.ParseHTML(t, readBody(t, resp))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, doc.Find("#categories-table").Length())
	require.Equal(t, "Книги", doc.Find(`#modal.is-open input[name="name"]`).AttrOr("value", ""))

	resp = c.do(http.MethodGet, "/admin?modal=confirm-product&id=3", nil, "", false)
	doc = testutil.ParseHTML(t, readBody(t, resp))
	require.Contains(t, doc.Find("#modal .confirm-message").Text(), "Роман")
}

func TestProductsFragmentRemembersFilter(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)

	resp := c.do(http.MethodGet, "/admin/fragments/products?category=2", nil, "", true)
	doc := testutil.ParseHTML(t, readBody(t, resp))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/admin?category=2", resp.Header.Get("HX-Push-Url"))
	require.Equal(t, 1, doc.Find("tr[data-product-id]").Length())

	resp = c.do(http.MethodGet, "/admin", nil, "", false)
	doc = testutil.ParseHTML(t, readBody(t, resp))
	require.Equal(t, 1, doc.Find("#products-table tr[data-product-id]").Length())
	require.Equal(t, "2", doc.Find("#category-filter option[selected]").AttrOr("value", ""))

	resp = c.do(http.MethodGet, "/admin/fragments/products", nil, "", false)
	readBody(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportDownloadsWorkbook(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	c := newAdminClient(t, ts)

	resp := c.do(http.MethodGet, "/admin/export.xlsx", nil, "", false)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), "catalog-")

	book, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })
	require.Len(t, book.GetSheetList(), 2)
}

func TestShopPageAndFragment(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	client := testutil.NewClient(t)

	resp, err := client.Get(ts.URL + "/?category=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := testutil.ParseHTML(t, readBody(t, resp))
	require.Equal(t, 4, doc.Find(".category-strip a.category-btn").Length())
	require.Equal(t, "2", doc.Find("a.category-btn.is-active").AttrOr("data-category", ""))
	require.Equal(t, "Книги", strings.TrimSpace(doc.Find("#products-title").Text()))
	require.Equal(t, 1, doc.Find("article.product-card").Length())

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/catalog/products?category=all", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "all", triggerEvents(t, resp)["category-selected"]["category"])

	doc = testutil.ParseHTML(t, readBody(t, resp))
	require.Equal(t, "Все товары", strings.TrimSpace(doc.Find("#products-title").Text()))
	require.Equal(t, 4, doc.Find("article.product-card").Length())
	require.Equal(t, 0, doc.Find(".category-strip").Length())
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStaticAssetsServed(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	for _, path := range []string{"/public/static/css/app.css", "/public/static/js/app.js", "/public/static/images/default-product.svg"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
