package mapapps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/httpclient"
)

func TestAppURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://maps.example.net/mapapps/resources/apps/water",
		AppURL("https://maps.example.net/mapapps", "water"))
	assert.Equal(t, "https://maps.example.net/mapapps/resources/apps/water",
		AppURL("https://maps.example.net/mapapps/", "water"))
}

func TestDefaultClient_FetchAppConfig(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/resources/apps/{id}/app.json", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "reporter" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch chi.URLParam(r, "id") {
		case "water":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"properties":{"id":"water"},"bundles":{}}`))
		case "login":
			_, _ = w.Write([]byte(`<html><form>login</form></html>`))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewTLSServer(r)
	defer srv.Close()

	transport := httpclient.NewDefaultClient(httpclient.WithInsecureSkipVerify(true))
	client := NewClient(transport, config.Credentials{Username: "reporter", Password: "secret"})
	ctx := context.Background()

	body, err := client.FetchAppConfig(ctx, "water", AppURL(srv.URL, "water"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"properties":{"id":"water"},"bundles":{}}`, string(body))

	tests := []struct {
		name   string
		appID  string
		client *DefaultClient
		check  func(t *testing.T, err error)
	}{
		{
			name:   "html instead of json",
			appID:  "login",
			client: client,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotJSON)
			},
		},
		{
			name:   "missing app",
			appID:  "gone",
			client: client,
			check: func(t *testing.T, err error) {
				var httpErr *httpclient.HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
			},
		},
		{
			name:   "wrong credentials",
			appID:  "water",
			client: NewClient(transport, config.Credentials{Username: "reporter", Password: "nope"}),
			check: func(t *testing.T, err error) {
				assert.True(t, httpclient.IsUnauthorized(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.FetchAppConfig(ctx, tt.appID, AppURL(srv.URL, tt.appID))
			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.appID, fetchErr.AppID)
			tt.check(t, err)
		})
	}
}
