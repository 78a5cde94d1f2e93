package planapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, func() string { return "test-token" })
}

func TestFetchPlan_NormalizesMissingCollections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/care-plan", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"planVersion": 12, "collaborators": null}`))
	})

	plan, err := client.FetchPlan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), plan.Version)
	assert.NotNil(t, plan.Collaborators)
	assert.NotNil(t, plan.Appointments)
	assert.NotNil(t, plan.Bills)
}

func TestFetchPlan_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchPlan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchPlanVersion(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{"numeric", `{"planVersion": 42}`, 42},
		{"absent", `{}`, 0},
		{"null", `{"planVersion": null}`, 0},
		{"non-numeric", `{"planVersion": "not-a-number"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/care-plan/version", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			version, err := client.FetchPlanVersion(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, version)
		})
	}
}

func TestFetchMedications(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/medications", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"medications": [{"id": "m1", "name": "Lisinopril", "doses": []}]}`))
	})

	meds, err := client.FetchMedications(context.Background())
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Lisinopril", meds[0].Name)
}

func TestFetchMedications_EmptyBodyYieldsEmptySlice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	meds, err := client.FetchMedications(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, meds)
	assert.Empty(t, meds)
}
