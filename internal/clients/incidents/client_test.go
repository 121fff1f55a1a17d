package incidents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supmap/navigation/internal/lib/incident"
)

const bareArray = `[
	{"id": 1, "type": "accident", "latitude": 48.85, "longitude": 2.35, "status": "pending", "user_id": 9, "createdAt": "2025-03-12T08:15:00Z"},
	{"id": 2, "type": "traffic", "latitude": 48.86, "longitude": 2.36, "status": "pending", "user_id": 3, "createdAt": "2025-03-12T08:20:00Z"}
]`

func TestListPending_BareArray(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Write([]byte(bareArray))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	incidents, err := client.ListPending(context.Background(), "tok123")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "/incidents/pending", gotPath)
	require.Len(t, incidents, 2)
	assert.Equal(t, int64(1), incidents[0].ID)
	assert.Equal(t, incident.TypeAccident, incidents[0].Type)
	assert.Equal(t, incident.StatusPending, incidents[0].Status)
}

func TestListActive_Envelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/incidents/active", r.URL.Path)
		w.Write([]byte(`{"incidents": ` + bareArray + `}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	incidents, err := client.ListActive(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Len(t, incidents, 2)
}

func TestList_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListPending(context.Background(), "tok123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestList_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"not an incident list"`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListActive(context.Background(), "tok123")
	assert.Error(t, err)
}
