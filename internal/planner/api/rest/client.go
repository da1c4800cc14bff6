// Package rest reads the cluster status from the coordinator's REST API.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	coordinator "github.com/Rincaro/cascading.utils/internal/coordinator/api/rest"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
)

const defaultTimeout = 10 * time.Second

type StatusClient struct {
	statusURL  string
	httpClient *http.Client
}

var _ cluster.StatusProvider = (*StatusClient)(nil)

// NewStatusClient targets baseURL, e.g. "http://coordinator:8080". A nil
// httpClient gets a client with a ten second timeout.
func NewStatusClient(baseURL string, httpClient *http.Client) (*StatusClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid coordinator URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid coordinator URL %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &StatusClient{
		statusURL:  u.JoinPath(coordinator.StatusPath).String(),
		httpClient: httpClient,
	}, nil
}

func (c *StatusClient) Status(ctx context.Context) (cluster.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL, nil)
	if err != nil {
		return cluster.Status{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return cluster.Status{}, fmt.Errorf("failed to get cluster status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp coordinator.ErrorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return cluster.Status{}, fmt.Errorf("coordinator returned %d: %s: %s", resp.StatusCode, errResp.Error, errResp.Message)
		}
		return cluster.Status{}, fmt.Errorf("coordinator returned %d", resp.StatusCode)
	}

	var body coordinator.ClusterStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return cluster.Status{}, fmt.Errorf("%w: %w", cluster.ErrInvalidStatus, err)
	}
	return body.Status()
}
