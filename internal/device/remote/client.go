// Package remote is the device's HTTP client for the cloud gateway. It talks
// the same DTOs the server binds and folds the sync endpoint's structured 409
// payloads back into the typed errors the sync engine branches on.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
)

const defaultTimeout = 30 * time.Second

// Client calls the cloud gateway on behalf of one signed-in device.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a gateway client. baseURL is the server root, without the
// /api/v1 prefix. token is the device's bearer token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// decodeError maps gateway failures to the same error types the service
// layer produces, so device code handles local and remote failures uniformly.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusConflict {
		var head struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &head) == nil {
			switch head.Error {
			case "NAME_COLLISION":
				var body dto.NameCollisionResponse
				if json.Unmarshal(raw, &body) == nil {
					return &apperrors.NameCollisionError{Conflicts: body.Conflicts}
				}
			case "PLAN_LIMIT_EXCEEDED":
				var body dto.PlanLimitResponse
				if json.Unmarshal(raw, &body) == nil {
					return &apperrors.PlanLimitError{
						Limit:              body.Limit,
						CurrentCount:       body.CurrentCount,
						NewCount:           body.NewCount,
						ExistingBusinesses: businessesFromResponses(body.ExistingBusinesses),
					}
				}
			}
		}
	}

	var body struct {
		Error string `json:"error"`
	}
	message := http.StatusText(resp.StatusCode)
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		message = body.Error
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(message)
	case http.StatusForbidden:
		return apperrors.NewForbiddenError(message)
	case http.StatusBadRequest:
		return apperrors.NewValidationFailedError(message)
	default:
		return apperrors.NewAppError(resp.StatusCode, message, nil)
	}
}

func businessFromResponse(r dto.BusinessResponse) domain.Business {
	collabs := make([]domain.Collaborator, len(r.Collaborators))
	for i, c := range r.Collaborators {
		collabs[i] = domain.Collaborator{
			UserID:      c.UserID,
			Role:        c.Role,
			Status:      c.Status,
			Permissions: c.Permissions,
			JoinedAt:    c.JoinedAt,
		}
	}
	return domain.Business{
		BusinessID:      r.BusinessID,
		Name:            r.Name,
		CurrencyCode:    r.CurrencyCode,
		Plan:            r.Plan,
		OwnerID:         r.OwnerID,
		Collaborators:   collabs,
		InviteCode:      r.InviteCode,
		InviteExpiresAt: r.InviteExpiresAt,
		TaxSettings:     r.TaxSettings.ToDomainTaxSettings(),
		AuditFields: domain.AuditFields{
			CreatedAt:     r.CreatedAt,
			LastUpdatedAt: r.LastUpdatedAt,
		},
	}
}

func businessesFromResponses(rs []dto.BusinessResponse) []domain.Business {
	out := make([]domain.Business, len(rs))
	for i, r := range rs {
		out[i] = businessFromResponse(r)
	}
	return out
}

// Sync submits the device's full local dataset for reconciliation.
// Unresolved collisions come back as *apperrors.NameCollisionError and limit
// breaches as *apperrors.PlanLimitError.
func (c *Client) Sync(ctx context.Context, req dto.SyncRequest) (*domain.SyncResult, error) {
	var resp dto.SyncResponse
	if err := c.do(ctx, http.MethodPost, "/sync", req, &resp); err != nil {
		return nil, err
	}
	return &domain.SyncResult{
		Businesses: businessesFromResponses(resp.Businesses),
		Counts:     resp.Counts,
	}, nil
}

// ListBusinesses returns every business the signed-in user owns or
// collaborates on.
func (c *Client) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	var resp dto.ListBusinessesResponse
	if err := c.do(ctx, http.MethodGet, "/businesses", nil, &resp); err != nil {
		return nil, err
	}
	return businessesFromResponses(resp.Businesses), nil
}

// CreateBusiness creates a cloud business, preserving the device-assigned id
// carried in the request.
func (c *Client) CreateBusiness(ctx context.Context, req dto.CreateBusinessRequest) (*domain.Business, error) {
	var resp dto.BusinessResponse
	if err := c.do(ctx, http.MethodPost, "/businesses", req, &resp); err != nil {
		return nil, err
	}
	b := businessFromResponse(resp)
	return &b, nil
}

// ClearBusinessRecords wipes every record under the business while keeping
// the business itself.
func (c *Client) ClearBusinessRecords(ctx context.Context, businessID string) error {
	return c.do(ctx, http.MethodPost, "/businesses/"+businessID+"/records/clear", nil, nil)
}

// ListProducts returns the cloud copy of a business's products.
func (c *Client) ListProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/businesses/"+businessID+"/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListSales returns the cloud copy of a business's sales, following
// continuation tokens until exhausted.
func (c *Client) ListSales(ctx context.Context, businessID string) ([]domain.Sale, error) {
	var all []domain.Sale
	token := ""
	for {
		path := "/businesses/" + businessID + "/sales"
		if token != "" {
			path += "?nextToken=" + url.QueryEscape(token)
		}
		var page dto.ListSalesResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Sales...)
		if page.NextToken == "" {
			return all, nil
		}
		token = page.NextToken
	}
}

// ListExpenses returns the cloud copy of a business's expenses.
func (c *Client) ListExpenses(ctx context.Context, businessID string) ([]domain.Expense, error) {
	var expenses []domain.Expense
	if err := c.do(ctx, http.MethodGet, "/businesses/"+businessID+"/expenses", nil, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteProduct removes a product from the cloud copy of the business.
func (c *Client) DeleteProduct(ctx context.Context, businessID, productID string) error {
	return c.do(ctx, http.MethodDelete, "/businesses/"+businessID+"/products/"+productID, nil, nil)
}

// UpsertProducts mirrors a batch of local products to the cloud by id.
func (c *Client) UpsertProducts(ctx context.Context, businessID string, products []domain.Product) (int, error) {
	var resp dto.BulkUpsertResponse
	err := c.do(ctx, http.MethodPost, "/businesses/"+businessID+"/products/bulk",
		dto.BulkProductsRequest{Products: products}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Applied, nil
}

// UpsertSales mirrors a batch of local sales to the cloud by id.
func (c *Client) UpsertSales(ctx context.Context, businessID string, sales []domain.Sale) (int, error) {
	var resp dto.BulkUpsertResponse
	err := c.do(ctx, http.MethodPost, "/businesses/"+businessID+"/sales/bulk",
		dto.BulkSalesRequest{Sales: sales}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Applied, nil
}

// UpsertExpenses mirrors a batch of local expenses to the cloud by id.
func (c *Client) UpsertExpenses(ctx context.Context, businessID string, expenses []domain.Expense) (int, error) {
	var resp dto.BulkUpsertResponse
	err := c.do(ctx, http.MethodPost, "/businesses/"+businessID+"/expenses/bulk",
		dto.BulkExpensesRequest{Expenses: expenses}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Applied, nil
}
