package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minshop/qrp/internal/config"
	dompayment "github.com/minshop/qrp/internal/domain/payment"
	"github.com/minshop/qrp/internal/infrastructure/observability"
	"github.com/minshop/qrp/internal/pkg/logging"
	"go.uber.org/zap"
)

const (
	readyPath   = "/v1/payment/ready"
	approvePath = "/v1/payment/approve"
)

// Client talks to the external two-phase payment provider. Requests are
// form-encoded, responses are JSON with unknown fields ignored. The client
// holds no state between calls.
type Client struct {
	httpClient *http.Client
	cfg        config.Gateway
	metrics    *observability.Metrics
}

func NewClient(cfg config.Gateway, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		metrics:    metrics,
	}
}

func (c *Client) Ready(ctx context.Context, req dompayment.ReadyRequest) (*dompayment.ReadyResponse, error) {
	form := url.Values{}
	form.Set("cid", c.cfg.MerchantCode)
	form.Set("partner_order_id", req.OrderID)
	form.Set("partner_user_id", req.UserID)
	form.Set("item_name", req.ItemName)
	form.Set("quantity", strconv.Itoa(req.Quantity))
	form.Set("total_amount", strconv.Itoa(req.TotalAmount))
	form.Set("tax_free_amount", strconv.Itoa(req.TaxFreeAmount))
	form.Set("approval_url", c.cfg.PaymentHost+c.cfg.SuccessPath)
	form.Set("cancel_url", c.cfg.PaymentHost+c.cfg.CancelPath)
	form.Set("fail_url", c.cfg.PaymentHost+c.cfg.FailPath)

	var resp dompayment.ReadyResponse
	if err := c.post(ctx, "ready", readyPath, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Approve(ctx context.Context, req dompayment.ApproveRequest) (*dompayment.ApproveResponse, error) {
	form := url.Values{}
	form.Set("cid", c.cfg.MerchantCode)
	form.Set("tid", req.TransactionID)
	form.Set("partner_order_id", req.OrderID)
	form.Set("partner_user_id", req.UserID)
	form.Set("pg_token", req.Token)

	var resp dompayment.ApproveResponse
	if err := c.post(ctx, "approve", approvePath, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, endpoint, path string, form url.Values, dst any) (err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "payment_gateway"),
		zap.String("endpoint", endpoint),
	)

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.ObserveGateway(endpoint, outcome, time.Since(start).Seconds())
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", dompayment.ErrGateway, err)
	}
	httpReq.Header.Set("Authorization", c.cfg.AdminKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Warn("gateway_request_failed", zap.Error(err))
		return fmt.Errorf("%w: %w", dompayment.ErrGateway, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", dompayment.ErrGateway, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		logger.Warn("gateway_request_rejected",
			zap.Int("status", httpResp.StatusCode),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("%w: status %d", dompayment.ErrGateway, httpResp.StatusCode)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: decode response: %w", dompayment.ErrGateway, err)
	}
	return nil
}
