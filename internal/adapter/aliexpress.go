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

const aliExpressProvider = "aliexpress"

// AliExpressAdapter integrates a marketplace-style supplier. The
// marketplace exposes order placement and status lookup but no cancel
// endpoint, so Cancel reports Unsupported.
type AliExpressAdapter struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
	logger      *zap.Logger
}

// NewAliExpressAdapter creates an AliExpress adapter. baseURL may be
// empty to use the production endpoint.
func NewAliExpressAdapter(baseURL string, timeout time.Duration, credentials CredentialSource, logger *zap.Logger) *AliExpressAdapter {
	if baseURL == "" {
		baseURL = "https://api.aliexpress.com/ds"
	}
	return &AliExpressAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		credentials: credentials,
		logger:      logger,
	}
}

func (a *AliExpressAdapter) Provider() string {
	return aliExpressProvider
}

type aliExpressOrderRequest struct {
	ClientToken string                   `json:"client_token"`
	Items       []aliExpressOrderItem    `json:"items"`
	Logistics   aliExpressLogisticsInput `json:"logistics"`
}

type aliExpressOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type aliExpressLogisticsInput struct {
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	Country     string `json:"country"`
}

type aliExpressOrderResponse struct {
	OrderID string `json:"order_id"`
	Message string `json:"error_message,omitempty"`
}

func (a *AliExpressAdapter) Submit(ctx context.Context, payload OrderPayload, idempotencyToken string) (SubmitResult, error) {
	items := make([]aliExpressOrderItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, aliExpressOrderItem{
			ProductID: item.ExternalID,
			Quantity:  item.Quantity,
		})
	}

	req := aliExpressOrderRequest{
		// The marketplace deduplicates on client_token, so a retried
		// submit can never create a second remote order.
		ClientToken: idempotencyToken,
		Items:       items,
		Logistics: aliExpressLogisticsInput{
			ContactName: payload.Shipping.Name,
			Address:     payload.Shipping.Street,
			City:        payload.Shipping.City,
			Zip:         payload.Shipping.PostalCode,
			Country:     payload.Shipping.Country,
		},
	}
	if payload.Shipping.Phone != nil {
		req.Logistics.Phone = *payload.Shipping.Phone
	}

	var resp aliExpressOrderResponse
	if err := a.do(ctx, payload.SupplierID, http.MethodPost, "/order/place", req, &resp); err != nil {
		return SubmitResult{}, err
	}
	if resp.OrderID == "" {
		return SubmitResult{}, &errors.ErrExternalProvider{
			Provider: aliExpressProvider,
			Message:  fmt.Sprintf("order not accepted: %s", resp.Message),
		}
	}

	return SubmitResult{ExternalRef: resp.OrderID}, nil
}

type aliExpressStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"order_status"`
}

func (a *AliExpressAdapter) Status(ctx context.Context, supplierID uuid.UUID, externalRef string) (domain.RemoteStatus, error) {
	var resp aliExpressStatusResponse
	path := fmt.Sprintf("/order/status?order_id=%s", externalRef)
	if err := a.do(ctx, supplierID, http.MethodGet, path, nil, &resp); err != nil {
		return domain.RemoteStatusUnknown, err
	}
	return mapAliExpressStatus(resp.Status), nil
}

// Cancel is not offered by the marketplace API
func (a *AliExpressAdapter) Cancel(ctx context.Context, supplierID uuid.UUID, externalRef string) (bool, error) {
	return false, &errors.ErrExternalProvider{
		Provider:    aliExpressProvider,
		Message:     "cancel not available",
		Unsupported: true,
	}
}

func mapAliExpressStatus(status string) domain.RemoteStatus {
	switch strings.ToUpper(status) {
	case "PLACE_ORDER_SUCCESS", "IN_CANCEL":
		return domain.RemoteStatusReceived
	case "WAIT_SELLER_SEND_GOODS", "SELLER_PART_SEND_GOODS":
		return domain.RemoteStatusConfirmed
	case "WAIT_BUYER_ACCEPT_GOODS":
		return domain.RemoteStatusShipped
	case "FINISH":
		return domain.RemoteStatusDelivered
	case "ORDER_CLOSED":
		return domain.RemoteStatusCancelled
	default:
		return domain.RemoteStatusUnknown
	}
}

func (a *AliExpressAdapter) do(ctx context.Context, supplierID uuid.UUID, method, path string, body, out interface{}) error {
	apiKey, err := a.credentials.Credentials(ctx, supplierID)
	if err != nil {
		// Credential failures are reported generically so the secret
		// path never shows up in error payloads.
		a.logger.Error("Failed to resolve supplier credentials",
			zap.String("provider", aliExpressProvider),
			zap.String("supplier_id", supplierID.String()),
		)
		return &errors.ErrExternalProvider{Provider: aliExpressProvider, Message: "credential resolution failed"}
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
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &errors.ErrExternalProvider{Provider: aliExpressProvider, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.ErrExternalProvider{Provider: aliExpressProvider, Message: "failed to read response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errors.ErrExternalProvider{
			Provider: aliExpressProvider,
			Message:  fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &errors.ErrExternalProvider{Provider: aliExpressProvider, Message: "malformed response"}
	}

	return nil
}
