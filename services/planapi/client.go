package planapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"carelink/models"
)

// Client is the REST implementation of PlanAPI and MedicationAPI.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// TokenSource supplies the bearer token for authenticated calls.
	// Session exchange itself lives outside this package.
	TokenSource func() string
}

func NewClient(baseURL string, timeout time.Duration, tokenSource func() string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTP:        &http.Client{Timeout: timeout},
		TokenSource: tokenSource,
	}
}

var _ PlanAPI = (*Client)(nil)
var _ MedicationAPI = (*Client)(nil)

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("planapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.TokenSource != nil {
		if token := c.TokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("planapi: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("planapi: GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("planapi: decode %s: %w", path, err)
	}
	return nil
}

// FetchPlan retrieves the full plan aggregate. Missing collections are
// normalized to empty slices here, in one boundary step, so nothing
// downstream ever sees a nil list.
func (c *Client) FetchPlan(ctx context.Context) (*models.Plan, error) {
	var plan models.Plan
	if err := c.get(ctx, "/api/care-plan", &plan); err != nil {
		return nil, err
	}
	plan.Normalize()
	return &plan, nil
}

// FetchPlanVersion probes the server's current plan version. A payload
// whose planVersion is absent or non-numeric resolves to 0 rather than an
// error: the probe gates a full fetch and must stay cheap and forgiving.
func (c *Client) FetchPlanVersion(ctx context.Context) (int64, error) {
	var payload struct {
		PlanVersion json.RawMessage `json:"planVersion"`
	}
	if err := c.get(ctx, "/api/care-plan/version", &payload); err != nil {
		return 0, err
	}
	if len(payload.PlanVersion) == 0 {
		return 0, nil
	}
	var version int64
	if err := json.Unmarshal(payload.PlanVersion, &version); err != nil {
		return 0, nil
	}
	return version, nil
}

func (c *Client) FetchMedications(ctx context.Context) ([]models.Medication, error) {
	var payload struct {
		Medications []models.Medication `json:"medications"`
	}
	if err := c.get(ctx, "/api/medications", &payload); err != nil {
		return nil, err
	}
	if payload.Medications == nil {
		payload.Medications = []models.Medication{}
	}
	return payload.Medications, nil
}
