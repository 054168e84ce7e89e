package adminapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/go-shop-session/adminapi"
	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/stretchr/testify/require"
)

func TestClient_Query(t *testing.T) {
	var gotToken, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotPath = r.URL.Path

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["query"] != "{ shop { name } }" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if gotToken != "good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errors":"[API] Invalid API key or access token"}`)
			return
		}
		fmt.Fprint(w, `{"data":{"shop":{"name":"My Shop"}}}`)
	}))
	defer srv.Close()

	client := adminapi.NewClient(
		adminapi.WithAPIVersion("2024-07"),
		adminapi.WithBaseURL(func(string) string { return srv.URL }),
	)
	session := &sessions.Session{ID: "offline_my-shop", Shop: "my-shop.myshopify.com", AccessToken: "stale-token"}
	ctx := context.Background()

	t.Run("non-2xx becomes HTTPResponseError", func(t *testing.T) {
		_, err := client.Query(ctx, session, "{ shop { name } }", nil)
		require.Error(t, err)
		require.True(t, adminapi.IsUnauthorized(err))

		code, ok := adminapi.StatusCode(err)
		require.True(t, ok)
		require.Equal(t, http.StatusUnauthorized, code)
		require.Contains(t, err.Error(), "Invalid API key")
		require.Equal(t, "/admin/api/2024-07/graphql.json", gotPath)
	})

	t.Run("token is read from the session on each call", func(t *testing.T) {
		session.AccessToken = "good-token"
		data, err := client.Query(ctx, session, "{ shop { name } }", nil)
		require.NoError(t, err)
		require.JSONEq(t, `{"data":{"shop":{"name":"My Shop"}}}`, string(data))
		require.Equal(t, "good-token", gotToken)
	})
}

func TestStatusCode_NotAnHTTPError(t *testing.T) {
	_, ok := adminapi.StatusCode(fmt.Errorf("dial tcp: timeout"))
	require.False(t, ok)
	require.False(t, adminapi.IsUnauthorized(nil))
}

func queryPaddedResponse(t *testing.T, size int) (json.RawMessage, error) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		padding := size - len(`{"data":""}`)
		fmt.Fprint(w, `{"data":"`+strings.Repeat("a", padding)+`"}`)
	}))
	defer srv.Close()

	client := adminapi.NewClient(adminapi.WithBaseURL(func(string) string { return srv.URL }))
	session := &sessions.Session{ID: "offline_my-shop", Shop: "my-shop.myshopify.com", AccessToken: "token"}
	return client.Query(context.Background(), session, "{ shop { name } }", nil)
}

func TestClient_QueryResponseSizeLimit(t *testing.T) {
	const limit = 4 << 20

	t.Run("body at the limit is returned whole", func(t *testing.T) {
		data, err := queryPaddedResponse(t, limit)
		require.NoError(t, err)
		require.Len(t, data, limit)
		require.True(t, json.Valid(data))
	})

	t.Run("body over the limit is an error", func(t *testing.T) {
		data, err := queryPaddedResponse(t, limit+1)
		require.Error(t, err)
		require.Contains(t, err.Error(), "exceeds")
		require.Nil(t, data)
	})
}
