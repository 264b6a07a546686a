package mapapps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/httpclient"
)

const (
	appPathTemplate = "resources/apps/%s"
	appConfigFile   = "app.json"
)

// ErrNotJSON is wrapped by FetchError when app.json is not valid JSON,
// typically a login page served instead of the configuration.
var ErrNotJSON = errors.New("response is not valid JSON")

// FetchError reports an application configuration that could not be retrieved.
type FetchError struct {
	AppID string
	URL   string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch configuration of app %s from %s: %v", e.AppID, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AppURL returns {baseURL}/resources/apps/{appID}
func AppURL(baseURL, appID string) string {
	return strings.TrimRight(baseURL, "/") + "/" + fmt.Sprintf(appPathTemplate, appID)
}

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client fetches app.json documents.
type Client interface {
	FetchAppConfig(ctx context.Context, appID, appURL string) ([]byte, error)
}

// DefaultClient implements Client with basic authentication
type DefaultClient struct {
	http        httpclient.Client
	credentials config.Credentials
}

var _ Client = (*DefaultClient)(nil)

// NewClient creates a map.apps client
func NewClient(http httpclient.Client, creds config.Credentials) *DefaultClient {
	return &DefaultClient{http: http, credentials: creds}
}

// FetchAppConfig GETs {appURL}/app.json. The body is returned only when it is valid JSON.
func (c *DefaultClient) FetchAppConfig(ctx context.Context, appID, appURL string) ([]byte, error) {
	url := appURL + "/" + appConfigFile
	body, err := c.http.Get(ctx, url, httpclient.WithBasicAuth(c.credentials.Username, c.credentials.Password))
	if err != nil {
		return nil, &FetchError{AppID: appID, URL: url, Err: err}
	}
	if !gjson.ValidBytes(body) {
		return nil, &FetchError{AppID: appID, URL: url, Err: ErrNotJSON}
	}
	return body, nil
}
