package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/betselot/gojo-bookings/internal"
)

// InitiateRequest is the payload for starting a checkout with the gateway.
type InitiateRequest struct {
	Amount      int64
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	TxRef       string
	CallbackURL string
	ReturnURL   string
	Description string
}

// InitiateResponse carries the redirect target the payer must be sent to.
type InitiateResponse struct {
	CheckoutURL string
	TxRef       string
}

// VerifyResult is the gateway's view of a transaction, as returned by the
// verification endpoint. RawStatus is the gateway's own vocabulary and is
// normalized by the reconciliation engine, not here.
type VerifyResult struct {
	RawStatus     string
	TransactionID string
	PaymentMethod string
}

// Client talks to the Chapa HTTP API. It is a thin transport: retry and
// backoff policy belong to the caller.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg internal.ChapaConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type initiatePayload struct {
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	Email       string            `json:"email"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	TxRef       string            `json:"tx_ref"`
	CallbackURL string            `json:"callback_url,omitempty"`
	ReturnURL   string            `json:"return_url,omitempty"`
	Description string            `json:"description,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}

type chapaEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initiateData struct {
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
}

type verifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Method    string `json:"method"`
}

// FormatAmount renders minor units as the decimal string the gateway expects.
func FormatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// Initiate starts a hosted checkout for the given reference and returns the
// redirect target. Transport and non-2xx responses surface as external errors.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	payload := initiatePayload{
		Amount:      FormatAmount(req.Amount),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       req.TxRef,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
		Description: req.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, internal.NewInternalError("failed to marshal initiate payload", err)
	}

	url := c.baseURL + "/transaction/initialize"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, internal.NewInternalError("failed to build initiate request", err)
	}
	c.setHeaders(httpReq)

	c.logger.Info("initiating gateway checkout",
		"tx_ref", req.TxRef,
		"amount", payload.Amount,
		"currency", req.Currency)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("gateway initiate request failed", "tx_ref", req.TxRef, "error", err)
		return nil, internal.NewExternalError("payment gateway unreachable", internal.ErrCodeGatewayFailed, err)
	}
	defer resp.Body.Close()

	envelope, err := c.readEnvelope(resp)
	if err != nil {
		c.logger.Error("gateway initiate returned error",
			"tx_ref", req.TxRef,
			"status_code", resp.StatusCode,
			"error", err)
		return nil, err
	}

	var data initiateData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, internal.NewExternalError("malformed gateway initiate response", internal.ErrCodeGatewayFailed, err)
	}

	return &InitiateResponse{
		CheckoutURL: data.CheckoutURL,
		TxRef:       data.TxRef,
	}, nil
}

// Verify fetches the gateway's current view of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, reference)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, internal.NewInternalError("failed to build verify request", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("gateway verify request failed", "tx_ref", reference, "error", err)
		return nil, internal.NewExternalError("payment gateway unreachable", internal.ErrCodeGatewayFailed, err)
	}
	defer resp.Body.Close()

	envelope, err := c.readEnvelope(resp)
	if err != nil {
		c.logger.Error("gateway verify returned error",
			"tx_ref", reference,
			"status_code", resp.StatusCode,
			"error", err)
		return nil, err
	}

	var data verifyData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, internal.NewExternalError("malformed gateway verify response", internal.ErrCodeGatewayFailed, err)
	}

	return &VerifyResult{
		RawStatus:     data.Status,
		TransactionID: data.Reference,
		PaymentMethod: data.Method,
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) readEnvelope(resp *http.Response) (*chapaEnvelope, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internal.NewExternalError("failed to read gateway response", internal.ErrCodeGatewayFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, internal.NewExternalError(
			fmt.Sprintf("gateway returned status %d", resp.StatusCode),
			internal.ErrCodeGatewayFailed,
			fmt.Errorf("response: %s", string(body)),
		)
	}

	var envelope chapaEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, internal.NewExternalError("malformed gateway response", internal.ErrCodeGatewayFailed, err)
	}
	return &envelope, nil
}
