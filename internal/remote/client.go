package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"alquitones/internal/domain"
	"alquitones/internal/services"
)

// ErrRemoteUnavailable covers transport failures, 5xx answers and bodies
// that do not decode. Fallback switches to the local store on it for reads.
var ErrRemoteUnavailable = errors.New("remote api unavailable")

// ErrRemoteUnreachable is the ErrRemoteUnavailable case where the connection
// was never made, so the remote cannot have applied the request.
var ErrRemoteUnreachable = fmt.Errorf("%w: not reached", ErrRemoteUnavailable)

// RejectedError is a 4xx answer that came with an availability evaluation.
type RejectedError struct {
	Err          error
	Availability services.AvailabilityResult
}

func (e *RejectedError) Error() string { return e.Err.Error() }
func (e *RejectedError) Unwrap() error { return e.Err }

const instrumentsPageSize = 100

// NewHTTPClient returns a client with explicit dial and handshake limits;
// http.DefaultClient never times out.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}

// Client calls the marketplace JSON API. The remote identifies the caller by
// the sid cookie, so the user arguments of API are not sent.
type Client struct {
	baseURL string
	http    *http.Client
	sid     string
}

var _ API = (*Client)(nil)

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = NewHTTPClient(5 * time.Second)
	}
	return &Client{baseURL: baseURL, http: hc}
}

// WithSession returns a copy sending sid as the session cookie.
func (c *Client) WithSession(sid string) *Client {
	cp := *c
	cp.sid = sid
	return &cp
}

type errorBody struct {
	Error        string                       `json:"error"`
	Kind         string                       `json:"kind"`
	Availability *services.AvailabilityResult `json:"availability"`
}

type ratingBody struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (c *Client) Instruments(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("pageSize", strconv.Itoa(instrumentsPageSize))
		var p services.Page[domain.Product]
		if err := c.do(ctx, http.MethodGet, "/api/v1/instruments?"+q.Encode(), nil, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Items...)
		if !p.HasNext {
			return out, nil
		}
	}
}

func (c *Client) Instrument(ctx context.Context, id int) (domain.Product, error) {
	var p domain.Product
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/instruments/%d", id), nil, &p)
	return p, err
}

func (c *Client) CreateReservation(ctx context.Context, _ domain.User, req services.AvailabilityRequest) (Booking, error) {
	var b Booking
	err := c.do(ctx, http.MethodPost, "/api/v1/reservations", req, &b)
	var rej *RejectedError
	if errors.As(err, &rej) {
		b.Availability = rej.Availability
	}
	return b, err
}

func (c *Client) CancelReservation(ctx context.Context, _ domain.User, id int) (domain.Reservation, error) {
	var r domain.Reservation
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%d/cancel", id), nil, &r)
	return r, err
}

func (c *Client) Reservations(ctx context.Context) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := c.do(ctx, http.MethodGet, "/api/v1/admin/reservations", nil, &out)
	return out, err
}

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := c.do(ctx, http.MethodGet, "/api/v1/admin/users", nil, &out)
	return out, err
}

func (c *Client) Ratings(ctx context.Context, instrumentID int) (services.RatingSummary, error) {
	var s services.RatingSummary
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/instruments/%d/ratings", instrumentID), nil, &s)
	return s, err
}

func (c *Client) SubmitRating(ctx context.Context, _ domain.User, instrumentID, score int, comment string) (domain.Rating, error) {
	var r domain.Rating
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/instruments/%d/ratings", instrumentID),
		ratingBody{Score: score, Comment: comment}, &r)
	return r, err
}

func (c *Client) Availability(ctx context.Context, instrumentID int, start, end domain.Date) ([]services.DayAvailability, error) {
	q := url.Values{}
	q.Set("start", start.String())
	q.Set("end", end.String())
	var out []services.DayAvailability
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/instruments/%d/availability?%s", instrumentID, q.Encode()), nil, &out)
	return out, err
}

// do sends one request and decodes a 2xx body into out. 4xx answers come
// back as the domain error the server reported.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		blob, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(blob)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "alquitones-client")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: c.sid})
	}

	res, err := c.http.Do(req)
	if err != nil {
		var op *net.OpError
		if errors.As(err, &op) && op.Op == "dial" {
			return fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= 500 {
		return fmt.Errorf("%w: http %d", ErrRemoteUnavailable, res.StatusCode)
	}
	if res.StatusCode >= 400 {
		var eb errorBody
		_ = json.NewDecoder(res.Body).Decode(&eb)
		if err := domain.FromKind(eb.Kind, eb.Error); err != nil {
			if eb.Availability != nil {
				return &RejectedError{Err: err, Availability: *eb.Availability}
			}
			return err
		}
		return fmt.Errorf("remote http %d: %s", res.StatusCode, eb.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrRemoteUnavailable, path, err)
	}
	return nil
}
