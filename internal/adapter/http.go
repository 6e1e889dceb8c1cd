package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/enotebook/eln-sync/internal/config"
	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/models"
)

type httpServerAdapter struct {
	client        *resty.Client
	healthTimeout time.Duration

	userID   string
	deviceID string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// serverCfg.URL and configures the underlying resty client with the resolved
// base URL and push/pull request timeout. The shorter health-probe timeout is
// applied per request in [httpServerAdapter.Health].
//
// Returns an error if serverCfg.URL is empty or cannot be parsed as a valid
// URL. A deliberately unconfigured server (offline mode) must be handled by
// the caller before constructing an adapter.
func NewHTTPServerAdapter(serverCfg config.ServerConfig, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(serverCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(serverCfg.RequestTimeout)

	return &httpServerAdapter{
		client:        client,
		healthTimeout: serverCfg.HealthTimeout,
		logger:        logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetIdentity implements [ServerAdapter]. It stores the identifiers
// (whitespace-trimmed) attached as x-user-id and x-device-id headers to all
// subsequent requests.
func (h *httpServerAdapter) SetIdentity(userID, deviceID string) {
	h.userID = strings.TrimSpace(userID)
	h.deviceID = strings.TrimSpace(deviceID)
}

// Push implements [ServerAdapter]. It POSTs the per-type batches to
// POST /sync/push and decodes the server verdict. A non-2xx response maps to
// a sentinel error and means the entire batch was rejected.
func (h *httpServerAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	resp, err := h.identifiedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/sync/push")
	if err != nil {
		return models.PushResponse{}, fmt.Errorf("push request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PushResponse{}, err
	}

	var pr models.PushResponse
	if err = json.Unmarshal(resp.Body(), &pr); err != nil {
		return models.PushResponse{}, fmt.Errorf("decode push response: %w", err)
	}

	return pr, nil
}

// Pull implements [ServerAdapter]. It GETs /sync/pull with the since cursor
// and the selective-sync constraints encoded as query parameters, and decodes
// the per-type collections from the response body.
func (h *httpServerAdapter) Pull(ctx context.Context, q models.PullQuery) (models.PullResponse, error) {
	req := h.identifiedRequest(ctx)

	if q.Since != nil {
		req.SetQueryParam("since", q.Since.UTC().Format(time.RFC3339))
	}
	if len(q.Projects) > 0 {
		req.SetQueryParam("projects", strings.Join(q.Projects, ","))
	}
	if len(q.Modalities) > 0 {
		req.SetQueryParam("modalities", strings.Join(q.Modalities, ","))
	}
	if q.DateStart != nil {
		req.SetQueryParam("dateStart", q.DateStart.UTC().Format(time.RFC3339))
	}
	if q.DateEnd != nil {
		req.SetQueryParam("dateEnd", q.DateEnd.UTC().Format(time.RFC3339))
	}

	resp, err := req.Get("/sync/pull")
	if err != nil {
		return models.PullResponse{}, fmt.Errorf("pull request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PullResponse{}, err
	}

	var pr models.PullResponse
	if err = json.Unmarshal(resp.Body(), &pr); err != nil {
		return models.PullResponse{}, fmt.Errorf("decode pull response: %w", err)
	}

	return pr, nil
}

// Health implements [ServerAdapter]. It GETs /health under the short probe
// timeout. Any 2xx status reports healthy; everything else, including
// timeouts and connection errors, reports an error.
func (h *httpServerAdapter) Health(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, h.healthTimeout)
	defer cancel()

	resp, err := h.identifiedRequest(probeCtx).Get("/health")
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}

	return mapHTTPError(resp)
}

func (h *httpServerAdapter) identifiedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if h.userID != "" {
		req.SetHeader("x-user-id", h.userID)
	}
	if h.deviceID != "" {
		req.SetHeader("x-device-id", h.deviceID)
	}
	return req
}
