package ipfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AddFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/add" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"Name":"a.png","Hash":"bafytest"}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: server.URL})
	cid, err := client.AddFile(context.Background(), "a.png", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "bafytest", cid)
}

func TestClient_AddFile_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pin quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: server.URL})
	_, err := client.AddFile(context.Background(), "a.png", []byte("payload"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pin quota exceeded")
}

func TestClient_AddJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Hash":"bafyjson"}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: server.URL})
	cid, err := client.AddJSON(context.Background(), "profile.json", map[string]string{"name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "bafyjson", cid)
}

func TestClient_CatJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ipfs/bafyabc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"name":"Alice"}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: "http://unused", Gateway: server.URL})

	var out struct {
		Name string `json:"name"`
	}
	err := client.CatJSON(context.Background(), "bafyabc", &out)
	require.NoError(t, err)
	assert.Equal(t, "Alice", out.Name)
}

func TestClient_CatJSON_RetriesOnce(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
			return
		}
		w.Write([]byte(`{"name":"Alice"}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: "http://unused", Gateway: server.URL})

	var out struct {
		Name string `json:"name"`
	}
	err := client.CatJSON(context.Background(), "bafyabc", &out)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
