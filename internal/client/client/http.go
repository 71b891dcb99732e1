package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRetries     = 3
	defaultRetryBase   = 200 * time.Millisecond
	maxErrorBodyLength = 512
)

// HTTPGateway talks to the remote store over HTTP.
type HTTPGateway struct {
	endpointURL string
	http        *http.Client
	retries     uint64
	retryBase   time.Duration
}

type Option func(*HTTPGateway)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *HTTPGateway) { g.http = c }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *HTTPGateway) {
		if d > 0 {
			g.http.Timeout = d
		}
	}
}

// WithRetry configures backoff for read-only actions. max=0 disables retries.
func WithRetry(max uint64, base time.Duration) Option {
	return func(g *HTTPGateway) {
		g.retries = max
		if base > 0 {
			g.retryBase = base
		}
	}
}

func NewHTTPGateway(endpointURL string, opts ...Option) *HTTPGateway {
	g := &HTTPGateway{
		endpointURL: endpointURL,
		http:        &http.Client{Timeout: defaultTimeout},
		retries:     defaultRetries,
		retryBase:   defaultRetryBase,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *HTTPGateway) Close() error {
	g.http.CloseIdleConnections()
	return nil
}

// Ping reports whether the endpoint answers at all. Any status below 500
// means reachable.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpointURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (g *HTTPGateway) Authenticate(ctx context.Context, username, password string) error {
	var resp envelope
	return g.call(ctx, actionAuthenticate, map[string]any{
		"username": username,
		"password": password,
	}, &resp)
}

func (g *HTTPGateway) FetchProducts(ctx context.Context) ([]models.Product, error) {
	var resp productsResponse
	if err := g.callRetry(ctx, actionProducts, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		out = append(out, models.Product{Barcode: p.Barcode, Name: p.Product, Stock: p.CurrentStock, Value: p.Value})
	}
	return out, nil
}

func (g *HTTPGateway) FetchLocations(ctx context.Context) ([]string, error) {
	var resp locationsResponse
	if err := g.callRetry(ctx, actionLocations, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Locations == nil {
		return []string{}, nil
	}
	return resp.Locations, nil
}

func (g *HTTPGateway) CreateSession(ctx context.Context, name, user string) (*models.Stocktake, error) {
	var resp createResponse
	err := g.call(ctx, actionCreate, map[string]any{"name": name, "user": user}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.StocktakeID == "" {
		return nil, fmt.Errorf("%w: empty stocktake id", ErrRejected)
	}
	if resp.Name == "" {
		resp.Name = name
	}
	return &models.Stocktake{ID: resp.StocktakeID, Name: resp.Name, Handle: resp.URL}, nil
}

func (g *HTTPGateway) ListSessions(ctx context.Context) ([]models.StocktakeInfo, error) {
	var resp listResponse
	if err := g.callRetry(ctx, actionList, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.StocktakeInfo, 0, len(resp.Stocktakes))
	for _, s := range resp.Stocktakes {
		out = append(out, models.StocktakeInfo{
			ID:           s.ID,
			Name:         s.Name,
			CreatedBy:    s.CreatedBy,
			CreatedDate:  s.CreatedDate,
			LastModified: s.LastModified,
		})
	}
	return out, nil
}

func (g *HTTPGateway) FetchUserRecords(ctx context.Context, stocktakeID, username string) ([]models.ScanRecord, error) {
	var resp scansResponse
	err := g.callRetry(ctx, actionLoadUserScans, map[string]any{
		"stocktakeId": stocktakeID,
		"username":    username,
	}, &resp)
	if err != nil {
		return nil, err
	}
	out := make([]models.ScanRecord, 0, len(resp.Scans))
	for _, s := range resp.Scans {
		if s.SyncID == "" {
			continue
		}
		out = append(out, fromWireScan(s, stocktakeID))
	}
	return out, nil
}

func (g *HTTPGateway) UpsertBatch(ctx context.Context, stocktakeID string, recs []models.ScanRecord) ([]string, error) {
	scans := make([]wireScan, 0, len(recs))
	for _, r := range recs {
		scans = append(scans, toWireScan(r))
	}
	var resp syncResponse
	err := g.call(ctx, actionSyncScans, map[string]any{
		"stocktakeId": stocktakeID,
		"scans":       scans,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return confirmedIDs(actionSyncScans, resp.SyncedIDs, resp.SyncedCount, recordIDs(recs))
}

func (g *HTTPGateway) DeleteBatch(ctx context.Context, stocktakeID string, syncIDs []string) ([]string, error) {
	var resp deleteResponse
	err := g.call(ctx, actionDeleteScans, map[string]any{
		"stocktakeId": stocktakeID,
		"syncIds":     syncIDs,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return confirmedIDs(actionDeleteScans, resp.DeletedIDs, resp.DeletedCount, syncIDs)
}

// confirmedIDs resolves a batch acknowledgement. Explicit ids win; a bare
// count covering the whole batch confirms every submitted id. A smaller
// non-zero count cannot be attributed and yields ErrUnconfirmed.
func confirmedIDs(action string, ids []string, count int, sent []string) ([]string, error) {
	switch {
	case len(ids) > 0:
		return ids, nil
	case count == 0:
		return nil, nil
	case count >= len(sent):
		return sent, nil
	default:
		return nil, fmt.Errorf("%s: %w: %d of %d", action, ErrUnconfirmed, count, len(sent))
	}
}

func recordIDs(recs []models.ScanRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.SyncID)
	}
	return out
}

// result is implemented by every response type through the embedded envelope.
type result interface {
	outcome() envelope
}

func (e envelope) outcome() envelope { return e }

// callRetry is call with exponential backoff on ErrUnavailable.
func (g *HTTPGateway) callRetry(ctx context.Context, action string, params map[string]any, out result) error {
	if g.retries == 0 {
		return g.call(ctx, action, params, out)
	}
	b := retry.WithMaxRetries(g.retries, retry.NewExponential(g.retryBase))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := g.call(ctx, action, params, out)
		if errors.Is(err, ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// call posts {"action": action, ...params} and decodes the response into out.
func (g *HTTPGateway) call(ctx context.Context, action string, params map[string]any, out result) error {
	body := map[string]any{"action": action}
	for k, v := range params {
		body[k] = v
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpointURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return g.mapError(action, err)
	}
	defer resp.Body.Close()

	if err := statusError(action, resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", action, err)
	}

	if env := out.outcome(); !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "no message"
		}
		return fmt.Errorf("%s: %w: %s", action, ErrRejected, msg)
	}
	return nil
}

func statusError(action string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", action, ErrUnauthorized)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w: status %d", action, ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return fmt.Errorf("%s: %w: status %d: %s", action, ErrRejected, resp.StatusCode, string(b))
	}
	return nil
}

// mapError turns transport failures into ErrUnavailable while keeping
// context cancellation visible to the caller.
func (g *HTTPGateway) mapError(action string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", action, err)
	}
	return fmt.Errorf("%s: %w: %w", action, ErrUnavailable, err)
}
