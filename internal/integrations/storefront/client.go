package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"photogo/internal/domain"
)

var tracer = otel.Tracer("photogo/storefront")

// Observer receives one sample per upstream call.
type Observer interface {
	ObserveUpstream(operation, outcome string, seconds float64)
}

type tokenKey struct{}

// WithAccessToken makes the caller's bearer token travel with ctx to the storefront.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func accessToken(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey{}).(string)
	return s
}

// Client talks to the storefront REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
	observer   Observer
}

type Option func(*Client)

func WithAPIKey(key string) Option { return func(c *Client) { c.apiKey = key } }

func WithLogger(log *zap.Logger) Option { return func(c *Client) { c.log = log } }

func WithObserver(o Observer) Option { return func(c *Client) { c.observer = o } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetServicePackage loads a package together with its concepts.
func (c *Client) GetServicePackage(ctx context.Context, packageID string) (*domain.ServicePackage, error) {
	var raw ServicePackage
	path := "/service-packages/" + url.PathEscape(packageID)
	if err := c.do(ctx, "get_service_package", http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}

	pkg := &domain.ServicePackage{
		ID:         raw.ID.String(),
		Name:       raw.Name,
		Price:      raw.Price.Round(0).IntPart(),
		Images:     raw.Images,
		LocationID: raw.LocationID.String(),
		Concepts:   make([]domain.ServiceConcept, 0, len(raw.ServiceConcepts)),
	}
	for _, sc := range raw.ServiceConcepts {
		rt := domain.RangeType(sc.RangeType)
		if rt != domain.RangeMultiDay {
			rt = domain.RangeSingleDay
		}
		pkg.Concepts = append(pkg.Concepts, domain.ServiceConcept{
			ID:              sc.ID.String(),
			Name:            sc.Name,
			Price:           sc.Price.Round(0).IntPart(),
			DurationMinutes: sc.Duration,
			RangeType:       rt,
			NumberOfDays:    sc.NumberOfDays,
		})
	}
	return pkg, nil
}

// ValidateConcept asks the storefront whether a concept can be booked at a location.
// Any 2xx answer means yes.
func (c *Client) ValidateConcept(ctx context.Context, conceptID, locationID string) error {
	path := "/service-concepts/" + url.PathEscape(conceptID) + "/validate"
	q := url.Values{}
	q.Set("locationId", locationID)
	return c.do(ctx, "validate_concept", http.MethodGet, path, q, nil, nil)
}

func (c *Client) GetAvailability(ctx context.Context, locationID string) (*Availability, error) {
	var out Availability
	path := "/locations/" + url.PathEscape(locationID) + "/availability"
	if err := c.do(ctx, "get_availability", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSlots loads the slots of one day. externalDate is DD/MM/YYYY and goes
// into the path as DD-MM-YYYY.
func (c *Client) GetSlots(ctx context.Context, locationID, externalDate string) (*DaySlots, error) {
	var out DaySlots
	segment := strings.ReplaceAll(externalDate, "/", "-")
	path := "/locations/" + url.PathEscape(locationID) + "/availability/" + url.PathEscape(segment)
	if err := c.do(ctx, "get_slots", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUserVouchers(ctx context.Context, userID int64, page, limit int) (*VoucherPage, error) {
	var out VoucherPage
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	path := "/vouchers/user/" + strconv.FormatInt(userID, 10)
	if err := c.do(ctx, "list_user_vouchers", http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBooking submits a booking and returns the payment link. A 2xx answer
// without a link is reported as ErrInvalidResponse.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResponse, error) {
	var out CreateBookingResponse
	if err := c.do(ctx, "create_booking", http.MethodPost, "/booking/create", nil, req, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.PaymentLink) == "" {
		return nil, fmt.Errorf("%w: missing paymentLink", ErrInvalidResponse)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	ctx, span := tracer.Start(ctx, "storefront."+op)
	start := time.Now()
	defer func() {
		outcome := outcomeOf(err)
		if c.observer != nil {
			c.observer.ObserveUpstream(op, outcome, time.Since(start).Seconds())
		}
		span.SetAttributes(attribute.String("storefront.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("storefront.path", path),
	)

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrTransport, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if tok := accessToken(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if ik, ok := body.(CreateBookingRequest); ok && ik.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", ik.IdempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("storefront request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readMessage(resp.Body)
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		case resp.StatusCode == http.StatusConflict:
			return fmt.Errorf("%w: %s", ErrConflict, msg)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, msg)
		default:
			c.log.Warn("storefront returned unexpected status",
				zap.String("op", op), zap.Int("status", resp.StatusCode), zap.String("message", msg))
			return fmt.Errorf("%w: status %d: %s", ErrUnexpectedStatus, resp.StatusCode, msg)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

func readMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
		return eb.Message
	}
	return strings.TrimSpace(string(raw))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	default:
		return "error"
	}
}
