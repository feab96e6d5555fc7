package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/pkg/errors"
)

const cjProvider = "cjdropshipping"

// CJDropshippingAdapter integrates an API-driven supplier with the full
// capability set: submit, status and cancel.
type CJDropshippingAdapter struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
	logger      *zap.Logger
}

// NewCJDropshippingAdapter creates a CJ Dropshipping adapter. baseURL
// may be empty to use the production endpoint.
func NewCJDropshippingAdapter(baseURL string, timeout time.Duration, credentials CredentialSource, logger *zap.Logger) *CJDropshippingAdapter {
	if baseURL == "" {
		baseURL = "https://developers.cjdropshipping.com/api2.0/v1"
	}
	return &CJDropshippingAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		credentials: credentials,
		logger:      logger,
	}
}

func (a *CJDropshippingAdapter) Provider() string {
	return cjProvider
}

type cjCreateOrderRequest struct {
	OrderNumber  string        `json:"orderNumber"`
	Consignee    string        `json:"consignee"`
	Phone        string        `json:"phone,omitempty"`
	Address      string        `json:"address"`
	City         string        `json:"city"`
	Zip          string        `json:"zip"`
	CountryCode  string        `json:"countryCode"`
	Products     []cjLineInput `json:"products"`
}

type cjLineInput struct {
	VID      string `json:"vid"`
	Quantity int    `json:"quantity"`
}

type cjEnvelope struct {
	Result  bool            `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *CJDropshippingAdapter) Submit(ctx context.Context, payload OrderPayload, idempotencyToken string) (SubmitResult, error) {
	products := make([]cjLineInput, 0, len(payload.Items))
	for _, item := range payload.Items {
		products = append(products, cjLineInput{
			VID:      item.ExternalID,
			Quantity: item.Quantity,
		})
	}

	req := cjCreateOrderRequest{
		OrderNumber: payload.CustomerOrderID,
		Consignee:   payload.Shipping.Name,
		Address:     payload.Shipping.Street,
		City:        payload.Shipping.City,
		Zip:         payload.Shipping.PostalCode,
		CountryCode: payload.Shipping.Country,
		Products:    products,
	}
	if payload.Shipping.Phone != nil {
		req.Phone = *payload.Shipping.Phone
	}

	var data struct {
		OrderID string `json:"orderId"`
	}
	if err := a.do(ctx, payload.SupplierID, http.MethodPost, "/shopping/order/createOrder", idempotencyToken, req, &data); err != nil {
		return SubmitResult{}, err
	}
	if data.OrderID == "" {
		return SubmitResult{}, &errors.ErrExternalProvider{Provider: cjProvider, Message: "order not accepted"}
	}

	return SubmitResult{ExternalRef: data.OrderID}, nil
}

func (a *CJDropshippingAdapter) Status(ctx context.Context, supplierID uuid.UUID, externalRef string) (domain.RemoteStatus, error) {
	var data struct {
		OrderStatus string `json:"orderStatus"`
	}
	path := fmt.Sprintf("/shopping/order/getOrderDetail?orderId=%s", externalRef)
	if err := a.do(ctx, supplierID, http.MethodGet, path, "", nil, &data); err != nil {
		return domain.RemoteStatusUnknown, err
	}
	return mapCJStatus(data.OrderStatus), nil
}

func (a *CJDropshippingAdapter) Cancel(ctx context.Context, supplierID uuid.UUID, externalRef string) (bool, error) {
	body := map[string]string{"orderId": externalRef}
	var data struct {
		Deleted bool `json:"deleted"`
	}
	if err := a.do(ctx, supplierID, http.MethodPost, "/shopping/order/deleteOrder", "", body, &data); err != nil {
		return false, err
	}
	return data.Deleted, nil
}

func mapCJStatus(status string) domain.RemoteStatus {
	switch strings.ToUpper(status) {
	case "CREATED", "UNPAID":
		return domain.RemoteStatusReceived
	case "PAID", "IN_PROCESSING":
		return domain.RemoteStatusConfirmed
	case "DISPATCHED", "IN_TRANSIT":
		return domain.RemoteStatusShipped
	case "DELIVERED":
		return domain.RemoteStatusDelivered
	case "CANCELLED", "DELETED":
		return domain.RemoteStatusCancelled
	default:
		return domain.RemoteStatusUnknown
	}
}

func (a *CJDropshippingAdapter) do(ctx context.Context, supplierID uuid.UUID, method, path, idempotencyToken string, body, out interface{}) error {
	token, err := a.credentials.Credentials(ctx, supplierID)
	if err != nil {
		a.logger.Error("Failed to resolve supplier credentials",
			zap.String("provider", cjProvider),
			zap.String("supplier_id", supplierID.String()),
		)
		return &errors.ErrExternalProvider{Provider: cjProvider, Message: "credential resolution failed"}
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("CJ-Access-Token", token)
	if idempotencyToken != "" {
		req.Header.Set("Idempotency-Key", idempotencyToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &errors.ErrExternalProvider{Provider: cjProvider, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.ErrExternalProvider{Provider: cjProvider, Message: "failed to read response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errors.ErrExternalProvider{
			Provider: cjProvider,
			Message:  fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var envelope cjEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return &errors.ErrExternalProvider{Provider: cjProvider, Message: "malformed response"}
	}
	if !envelope.Result {
		return &errors.ErrExternalProvider{Provider: cjProvider, Message: envelope.Message}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &errors.ErrExternalProvider{Provider: cjProvider, Message: "malformed response data"}
		}
	}

	return nil
}
