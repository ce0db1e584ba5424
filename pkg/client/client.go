package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/semclone/pypistats-tracker/internal/domain"
)

// Client is the API client for pypistats-tracker
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetSnapshot retrieves the full stats snapshot
func (c *Client) GetSnapshot() (*domain.Snapshot, error) {
	var response struct {
		Data *domain.Snapshot `json:"data"`
	}
	if err := c.get("/api/v1/snapshot", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListPackages retrieves the tracked package names
func (c *Client) ListPackages() ([]string, error) {
	var response struct {
		Data struct {
			LastUpdated string   `json:"last_updated"`
			Packages    []string `json:"packages"`
		} `json:"data"`
	}
	if err := c.get("/api/v1/packages", nil, &response); err != nil {
		return nil, err
	}
	return response.Data.Packages, nil
}

// GetPackage retrieves the full stats bundle for one package
func (c *Client) GetPackage(name string) (*domain.PackageStats, error) {
	var response struct {
		Data *domain.PackageStats `json:"data"`
	}
	if err := c.get("/api/v1/packages/"+url.PathEscape(name), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetPackageMetrics retrieves the reconciled metrics for one package
func (c *Client) GetPackageMetrics(name string) (*domain.RecentMetrics, error) {
	var response struct {
		Data *domain.RecentMetrics `json:"data"`
	}
	if err := c.get("/api/v1/packages/"+url.PathEscape(name)+"/metrics", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListRuns retrieves recent fetch runs
func (c *Client) ListRuns(limit int) ([]*domain.FetchRun, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var response struct {
		Data []*domain.FetchRun `json:"data"`
	}
	if err := c.get("/api/v1/runs", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
