package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/constants"
)

// StatusClient reads a transaction's status from a running server on
// behalf of one user.
type StatusClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewStatusClient(baseURL, token string, timeout time.Duration) *StatusClient {
	return &StatusClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

type statusEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Status string `json:"status"`
	} `json:"data"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchStatus implements statuspoller.Fetcher.
func (c *StatusClient) FetchStatus(ctx context.Context, transactionID string) (vo.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/transactions/"+transactionID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(constants.HeaderAuthorization, "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch transaction: %w", err)
	}
	defer resp.Body.Close()

	var body statusEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response (HTTP %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !body.Success {
		if body.Error != nil {
			return "", fmt.Errorf("server returned %d %s: %s", resp.StatusCode, body.Error.Type, body.Error.Message)
		}
		return "", fmt.Errorf("server returned %d", resp.StatusCode)
	}

	status := vo.Status(body.Data.Status)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown transaction status %q", body.Data.Status)
	}
	return status, nil
}
