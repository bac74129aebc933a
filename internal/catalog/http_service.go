package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "finitefield.org/shopfront/internal/catalog"

// HTTPClient matches the subset of http.Client used by HTTPService.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPService implements Service against the catalog REST backend.
type HTTPService struct {
	base   *url.URL
	assets *url.URL
	client HTTPClient
	tracer trace.Tracer
}

// HTTPOption customises an HTTPService.
type HTTPOption func(*httpOptions)

type httpOptions struct {
	assetBase string
}

// WithAssetBase sets the URL that relative product image paths are resolved against. It
// defaults to the backend URL; "/" keeps them on the shopfront's own origin (reverse proxy).
func WithAssetBase(raw string) HTTPOption {
	return func(o *httpOptions) {
		o.assetBase = strings.TrimSpace(raw)
	}
}

// NewHTTPService constructs a Service that talks to the catalog backend at baseURL. The client
// should not follow redirects so that Logout can relay the backend's Set-Cookie headers.
func NewHTTPService(baseURL string, client HTTPClient, opts ...HTTPOption) (*HTTPService, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("catalog: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("catalog: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog: base URL %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}

	var options httpOptions
	for _, opt := range opts {
		opt(&options)
	}
	assets := parsed
	if options.assetBase != "" {
		assets, err = url.Parse(options.assetBase)
		if err != nil {
			return nil, fmt.Errorf("catalog: parse asset base URL: %w", err)
		}
	}
	return &HTTPService{
		base:   parsed,
		assets: assets,
		client: client,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// CheckSession calls the backend session check endpoint. Any non-2xx answer means the session is not valid.
func (s *HTTPService) CheckSession(ctx context.Context, creds Credentials) (err error) {
	ctx, span := s.startSpan(ctx, "catalog.CheckSession")
	defer func() { endSpan(span, err) }()

	req, err := s.newRequest(ctx, http.MethodGet, "/api/admin/check-auth", nil, creds)
	if err != nil {
		return err
	}
	resp, err := s.do(req, span)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<12))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w (status %d)", ErrUnauthenticated, resp.StatusCode)
	}
	return nil
}

// ListCategories retrieves every category.
func (s *HTTPService) ListCategories(ctx context.Context, creds Credentials) (_ []Category, err error) {
	ctx, span := s.startSpan(ctx, "catalog.ListCategories")
	defer func() { endSpan(span, err) }()

	req, err := s.newRequest(ctx, http.MethodGet, "/api/categories", nil, creds)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req, span)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.errorFromResponse(resp)
	}

	var payload []Category
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("catalog: decode categories: %w", err)
	}
	if payload == nil {
		payload = []Category{}
	}
	span.SetAttributes(attribute.Int("catalog.result_count", len(payload)))
	return payload, nil
}

// ListProducts retrieves every product.
func (s *HTTPService) ListProducts(ctx context.Context, creds Credentials) (_ []Product, err error) {
	ctx, span := s.startSpan(ctx, "catalog.ListProducts")
	defer func() { endSpan(span, err) }()

	req, err := s.newRequest(ctx, http.MethodGet, "/api/products", nil, creds)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req, span)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.errorFromResponse(resp)
	}

	var payload []Product
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}
	if payload == nil {
		payload = []Product{}
	}
	for i := range payload {
		payload[i].Image = s.resolveImage(payload[i].Image)
	}
	span.SetAttributes(attribute.Int("catalog.result_count", len(payload)))
	return payload, nil
}

// SaveCategory POSTs a new category or PUTs an existing one.
func (s *HTTPService) SaveCategory(ctx context.Context, creds Credentials, in CategoryInput) (err error) {
	ctx, span := s.startSpan(ctx, "catalog.SaveCategory")
	defer func() { endSpan(span, err) }()

	method, endpoint := http.MethodPost, "/api/admin/categories"
	if !in.IsNew() {
		method, endpoint = http.MethodPut, "/api/admin/categories/"+strconv.FormatInt(in.ID, 10)
	}
	body := map[string]string{"name": strings.TrimSpace(in.Name)}
	req, err := s.newJSONRequest(ctx, method, endpoint, body, creds)
	if err != nil {
		return err
	}
	resp, err := s.do(req, span)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return s.errorFromResponse(resp)
	}
	return nil
}

// DeleteCategory deletes a category. The backend removes its products too.
func (s *HTTPService) DeleteCategory(ctx context.Context, creds Credentials, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "catalog.DeleteCategory")
	defer func() { endSpan(span, err) }()

	return s.deleteResource(ctx, span, "/api/admin/categories/"+strconv.FormatInt(id, 10), creds)
}

// SaveProduct sends the product as multipart form data so that an image can accompany it.
func (s *HTTPService) SaveProduct(ctx context.Context, creds Credentials, in ProductInput) (err error) {
	ctx, span := s.startSpan(ctx, "catalog.SaveProduct")
	defer func() { endSpan(span, err) }()

	method, endpoint := http.MethodPost, "/api/admin/products"
	if !in.IsNew() {
		method, endpoint = http.MethodPut, "/api/admin/products/"+strconv.FormatInt(in.ID, 10)
	}
	body, contentType, err := encodeProductForm(in)
	if err != nil {
		return err
	}
	req, err := s.newRequest(ctx, method, endpoint, body, creds)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := s.do(req, span)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return s.errorFromResponse(resp)
	}
	return nil
}

// DeleteProduct deletes a product.
func (s *HTTPService) DeleteProduct(ctx context.Context, creds Credentials, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "catalog.DeleteProduct")
	defer func() { endSpan(span, err) }()

	return s.deleteResource(ctx, span, "/api/admin/products/"+strconv.FormatInt(id, 10), creds)
}

// Logout ends the backend admin session. The backend answers with a redirect; both 2xx and 3xx
// count as success.
func (s *HTTPService) Logout(ctx context.Context, creds Credentials) (_ []*http.Cookie, err error) {
	ctx, span := s.startSpan(ctx, "catalog.Logout")
	defer func() { endSpan(span, err) }()

	req, err := s.newRequest(ctx, http.MethodGet, "/admin/logout", nil, creds)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req, span)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 399 {
		return nil, s.errorFromResponse(resp)
	}
	return resp.Cookies(), nil
}

func (s *HTTPService) deleteResource(ctx context.Context, span trace.Span, endpoint string, creds Credentials) error {
	req, err := s.newRequest(ctx, http.MethodDelete, endpoint, nil, creds)
	if err != nil {
		return err
	}
	resp, err := s.do(req, span)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return s.errorFromResponse(resp)
	}
	return nil
}

func (s *HTTPService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *HTTPService) do(req *http.Request, span trace.Span) (*http.Response, error) {
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.URL.Path),
	)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: request failed: %w", err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}

func (s *HTTPService) newRequest(ctx context.Context, method, endpoint string, body io.Reader, creds Credentials) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	creds.apply(req)
	return req, nil
}

func (s *HTTPService) newJSONRequest(ctx context.Context, method, endpoint string, payload any, creds Credentials) (*http.Request, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("catalog: encode payload: %w", err)
	}
	req, err := s.newRequest(ctx, method, endpoint, &buf, creds)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (s *HTTPService) resolve(endpoint string) string {
	trimmed := strings.TrimPrefix(endpoint, "/")
	return s.base.ResolveReference(&url.URL{Path: trimmed}).String()
}

// resolveImage turns backend-relative image paths into URLs the browser can load.
func (s *HTTPService) resolveImage(image string) string {
	image = strings.TrimSpace(image)
	if image == "" || strings.HasPrefix(image, "//") {
		return image
	}
	ref, err := url.Parse(image)
	if err != nil || ref.IsAbs() {
		return image
	}
	return s.assets.ResolveReference(ref).String()
}

func (s *HTTPService) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var payload struct {
		Error string `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		apiErr.Message = strings.TrimSpace(payload.Error)
	}
	return apiErr
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeProductForm(in ProductInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"name", strings.TrimSpace(in.Name)},
		{"price", in.Price.String()},
		{"category_id", strconv.FormatInt(in.CategoryID, 10)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("catalog: encode %s: %w", f[0], err)
		}
	}
	if in.Image != nil && len(in.Image.Data) > 0 {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(in.Image.Filename)))
		contentType := in.Image.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("catalog: encode image: %w", err)
		}
		if _, err := part.Write(in.Image.Data); err != nil {
			return nil, "", fmt.Errorf("catalog: encode image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("catalog: encode product form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
