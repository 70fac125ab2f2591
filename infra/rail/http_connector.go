package rail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
)

// HTTPConnector talks to a settlement rail over a plain JSON API. It is
// one pluggable implementation of ports.RailConnector; the orchestration
// logic never depends on it directly.
type HTTPConnector struct {
	baseURL string
	client  *http.Client
}

func NewHTTPConnector(baseURL string, timeout time.Duration) *HTTPConnector {
	return &HTTPConnector{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	PayerID        string `json:"payer_id"`
	PayeeID        string `json:"payee_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type submitResponse struct {
	Accepted      bool   `json:"accepted"`
	ExternalRef   string `json:"external_ref"`
	DeclineReason string `json:"decline_reason"`
}

func (c *HTTPConnector) Submit(ctx context.Context, tx *entity.Transaction) (*ports.SubmitResult, error) {
	body, err := json.Marshal(submitRequest{
		IdempotencyKey: tx.IdempotencyKey,
		PayerID:        tx.PayerID,
		PayeeID:        tx.PayeeID,
		Amount:         tx.Amount,
		Currency:       tx.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	// 5xx from the rail is indistinguishable from a lost response: the
	// payment may or may not have been accepted.
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: rail returned %d", ports.ErrRailUnreachable, resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode submit response: %v", ports.ErrRailUnreachable, err)
	}

	return &ports.SubmitResult{
		Accepted:      out.Accepted,
		ExternalRef:   out.ExternalRef,
		DeclineReason: out.DeclineReason,
	}, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

func (c *HTTPConnector) QueryStatus(ctx context.Context, externalRef, idempotencyKey string) (ports.RailStatus, error) {
	query := url.Values{}
	if externalRef != "" {
		query.Set("external_ref", externalRef)
	} else {
		query.Set("idempotency_key", idempotencyKey)
	}
	endpoint := c.baseURL + "/v1/payments/status?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.RailStatusUnknown, fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ports.RailStatusUnknown, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.RailStatusUnknown, nil
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ports.RailStatusUnknown, nil
	}

	switch out.Status {
	case "settled":
		return ports.RailStatusSettled, nil
	case "failed":
		return ports.RailStatusFailed, nil
	default:
		return ports.RailStatusUnknown, nil
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %v", ports.ErrRailTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ports.ErrRailTimeout, err)
	}
	return fmt.Errorf("%w: %v", ports.ErrRailUnreachable, err)
}
