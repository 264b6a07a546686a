package arcgis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/httpclient"
)

const testToken = "tok-123"

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type service map[string]string

// newAdminServer fakes the portal token endpoint and the admin services tree
func newAdminServer(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Post("/portal/sharing/rest/generateToken", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("password") != "secret" {
			writeJSON(w, map[string]any{"error": map[string]any{
				"code": 400, "message": "Unable to generate token.", "details": []string{"Invalid username or password."},
			}})
			return
		}
		assert.Equal(t, "siteadmin", r.PostForm.Get("username"))
		assert.Equal(t, "referer", r.PostForm.Get("client"))
		assert.Equal(t, "https://"+r.Host+"/server/admin", r.PostForm.Get("referer"))
		assert.Equal(t, "60", r.PostForm.Get("expiration"))
		assert.Equal(t, "json", r.PostForm.Get("f"))
		writeJSON(w, map[string]any{"token": testToken, "expires": 1718000000000})
	})

	checkToken := func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Query().Get("token") != testToken {
			writeJSON(w, map[string]any{"status": "error", "messages": []string{"Invalid token."}, "code": 498})
			return false
		}
		return true
	}

	r.Get("/server/admin/services", func(w http.ResponseWriter, r *http.Request) {
		if !checkToken(w, r) {
			return
		}
		writeJSON(w, map[string]any{
			"folderName": "/",
			"folders":    []string{"Water", "Base"},
			"services": []service{
				{"folderName": "/", "serviceName": "Zeta", "type": "MapServer"},
				{"folderName": "/", "serviceName": "Geometry", "type": "GeometryServer"},
				{"folderName": "/", "serviceName": "SampleWorldCities", "type": "MapServer"},
			},
		})
	})
	r.Get("/server/admin/services/{folder}", func(w http.ResponseWriter, r *http.Request) {
		if !checkToken(w, r) {
			return
		}
		folder := chi.URLParam(r, "folder")
		services := map[string][]service{
			"Water": {
				{"folderName": "Water", "serviceName": "Pipes", "type": "MapServer"},
				{"folderName": "Water", "serviceName": "Alpha", "type": "MapServer"},
			},
			"Base": {
				{"folderName": "Base", "serviceName": "Pipes", "type": "MapServer"},
				{"folderName": "Base", "serviceName": "Ortho", "type": "ImageServer"},
			},
		}
		writeJSON(w, map[string]any{"folderName": folder, "folders": []string{}, "services": services[folder]})
	})
	r.Get("/server/admin/services/{folder}/{service}/iteminfo/manifest/manifest.xml", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "service") != "Pipes.MapServer" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, testToken, r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(`<SVCManifest/>`))
	})

	srv := httptest.NewTLSServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, password string) *DefaultClient {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewClient(
		httpclient.NewDefaultClient(httpclient.WithInsecureSkipVerify(true)),
		config.EnvironmentConfig{AGSHost: u.Hostname(), AGSPort: port},
		config.Credentials{Username: "siteadmin", Password: password},
	)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	srv := newAdminServer(t)
	token, err := newTestClient(t, srv, "secret").GenerateToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testToken, token)
}

func TestGenerateToken_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantAuth bool
	}{
		{
			name: "error payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, map[string]any{"error": map[string]any{"code": 400, "message": "Unable to generate token."}})
			},
			wantAuth: true,
		},
		{
			name: "missing token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, map[string]any{"expires": 1})
			},
			wantAuth: true,
		},
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantAuth: true,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>maintenance</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := chi.NewRouter()
			r.Post("/portal/sharing/rest/generateToken", tt.handler)
			srv := httptest.NewTLSServer(r)
			defer srv.Close()

			_, err := newTestClient(t, srv, "secret").GenerateToken(context.Background())
			require.Error(t, err)

			var authErr *AuthenticationError
			assert.Equal(t, tt.wantAuth, errors.As(err, &authErr), err.Error())
		})
	}
}

func TestGenerateToken_RejectedCredentials(t *testing.T) {
	t.Parallel()

	srv := newAdminServer(t)
	_, err := newTestClient(t, srv, "wrong").GenerateToken(context.Background())

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "Invalid username or password.")
}

func TestListServices(t *testing.T) {
	t.Parallel()

	srv := newAdminServer(t)
	client := newTestClient(t, srv, "secret")

	services, err := client.ListServices(context.Background(), testToken, Filter{
		Type: MapServerType,
		Skip: []string{"SampleWorldCities"},
	})
	require.NoError(t, err)

	admin := client.AdminURL()
	assert.Equal(t, []Service{
		{Name: "Alpha", Folder: "Water", Type: MapServerType, URL: admin + "/services/Water/Alpha.MapServer"},
		{Name: "Pipes", Folder: "Base", Type: MapServerType, URL: admin + "/services/Base/Pipes.MapServer"},
		{Name: "Pipes", Folder: "Water", Type: MapServerType, URL: admin + "/services/Water/Pipes.MapServer"},
		{Name: "Zeta", Folder: RootFolder, Type: MapServerType, URL: admin + "/services/Zeta.MapServer"},
	}, services)
}

func TestListServices_InvalidToken(t *testing.T) {
	t.Parallel()

	srv := newAdminServer(t)
	_, err := newTestClient(t, srv, "secret").ListServices(context.Background(), "expired", Filter{})

	var authErr *AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestFetchManifest(t *testing.T) {
	t.Parallel()

	srv := newAdminServer(t)
	client := newTestClient(t, srv, "secret")
	admin := client.AdminURL()

	body, err := client.FetchManifest(context.Background(), testToken,
		Service{Name: "Pipes", Folder: "Water", URL: admin + "/services/Water/Pipes.MapServer"})
	require.NoError(t, err)
	assert.Equal(t, "<SVCManifest/>", string(body))

	_, err = client.FetchManifest(context.Background(), testToken,
		Service{Name: "Gone", Folder: "Water", URL: admin + "/services/Water/Gone.MapServer"})
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "Gone", fetchErr.Service)
	assert.NotContains(t, err.Error(), testToken)

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}
