package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/httpclient"
)

const (
	// MapServerType is the admin API type of map services
	MapServerType = "MapServer"

	// RootFolder is the folderName the admin API reports for the root folder
	RootFolder = "/"

	// TokenExpiration is the requested token lifetime in minutes
	TokenExpiration = "60"

	manifestPath = "iteminfo/manifest/manifest.xml"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client talks to the admin API of one ArcGIS Server.
type Client interface {
	// GenerateToken exchanges the configured credentials for a token
	GenerateToken(ctx context.Context) (string, error)

	// ListServices returns the services matching filter, sorted by name then folder
	ListServices(ctx context.Context, token string, filter Filter) ([]Service, error)

	// FetchManifest returns the raw manifest.xml of a service
	FetchManifest(ctx context.Context, token string, svc Service) ([]byte, error)
}

// Service describes one published service.
type Service struct {
	Name   string
	Folder string
	Type   string

	// URL is the admin URL of the service, {admin}/services[/{folder}]/{name}.{type}
	URL string
}

// Filter selects services by type and drops skipped names.
type Filter struct {
	Type string
	Skip []string
}

func (f Filter) matches(svc Service) bool {
	if f.Type != "" && svc.Type != f.Type {
		return false
	}
	return !slices.Contains(f.Skip, svc.Name)
}

// DefaultClient implements Client over httpclient.Client
type DefaultClient struct {
	http        httpclient.Client
	host        string
	authority   string
	credentials config.Credentials
}

var _ Client = (*DefaultClient)(nil)

// NewClient creates a client for the ArcGIS server of env
func NewClient(http httpclient.Client, env config.EnvironmentConfig, creds config.Credentials) *DefaultClient {
	return &DefaultClient{
		http:        http,
		host:        env.AGSHost,
		authority:   env.AGSAuthority(),
		credentials: creds,
	}
}

// AdminURL returns https://{authority}/server/admin
func (c *DefaultClient) AdminURL() string {
	return fmt.Sprintf("https://%s/server/admin", c.authority)
}

func (c *DefaultClient) tokenURL() string {
	return fmt.Sprintf("https://%s/portal/sharing/rest/generateToken", c.authority)
}

// apiError is the error envelope of both the portal and the admin API
type apiError struct {
	Error *struct {
		Code    int      `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error,omitempty"`
	Status   string   `json:"status,omitempty"`
	Messages []string `json:"messages,omitempty"`
	Code     int      `json:"code,omitempty"`
}

// message returns the error text, or "" when the payload is not an error
func (e apiError) message() string {
	if e.Error != nil {
		return strings.TrimSpace(e.Error.Message + " " + strings.Join(e.Error.Details, " "))
	}
	if e.Status == "error" {
		return strings.Join(e.Messages, " ")
	}
	return ""
}

// invalidToken reports the admin API codes for missing or expired tokens
func (e apiError) invalidToken() bool {
	code := e.Code
	if e.Error != nil {
		code = e.Error.Code
	}
	return code == 498 || code == 499
}

type tokenResponse struct {
	apiError
	Token   string `json:"token"`
	Expires int64  `json:"expires"`
}

// GenerateToken implements Client.GenerateToken
func (c *DefaultClient) GenerateToken(ctx context.Context) (string, error) {
	body, err := c.http.PostForm(ctx, c.tokenURL(), map[string]string{
		"username":   c.credentials.Username,
		"password":   c.credentials.Password,
		"client":     "referer",
		"referer":    c.AdminURL(),
		"expiration": TokenExpiration,
		"f":          "json",
	})
	if err != nil {
		if httpclient.IsUnauthorized(err) {
			return "", &AuthenticationError{Host: c.host, Reason: "credentials rejected", Err: err}
		}
		return "", fmt.Errorf("failed to request token from %s: %w", c.host, err)
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode token response from %s: %w", c.host, err)
	}
	if msg := resp.message(); msg != "" {
		return "", &AuthenticationError{Host: c.host, Reason: msg}
	}
	if resp.Token == "" {
		return "", &AuthenticationError{Host: c.host, Reason: "token response without token"}
	}

	slog.Debug("Token generated", "host", c.host, "expires", resp.Expires)
	return resp.Token, nil
}

type folderListing struct {
	apiError
	Folders  []string `json:"folders"`
	Services []struct {
		FolderName  string `json:"folderName"`
		ServiceName string `json:"serviceName"`
		Type        string `json:"type"`
	} `json:"services"`
}

func (c *DefaultClient) listFolder(ctx context.Context, token, folder string) (*folderListing, error) {
	url := c.AdminURL() + "/services"
	if folder != "" && folder != RootFolder {
		url += "/" + folder
	}

	body, err := c.http.Get(ctx, url,
		httpclient.WithQuery("f", "json"),
		httpclient.WithQuery("token", token),
	)
	if err != nil {
		if httpclient.IsUnauthorized(err) {
			return nil, &AuthenticationError{Host: c.host, Reason: "token rejected", Err: err}
		}
		return nil, fmt.Errorf("failed to list folder %q: %w", folder, err)
	}

	var listing folderListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode listing of folder %q: %w", folder, err)
	}
	if msg := listing.message(); msg != "" {
		if listing.invalidToken() {
			return nil, &AuthenticationError{Host: c.host, Reason: msg}
		}
		return nil, fmt.Errorf("failed to list folder %q: %s", folder, msg)
	}
	return &listing, nil
}

// ListServices implements Client.ListServices
func (c *DefaultClient) ListServices(ctx context.Context, token string, filter Filter) ([]Service, error) {
	root, err := c.listFolder(ctx, token, RootFolder)
	if err != nil {
		return nil, err
	}

	listings := []*folderListing{root}
	for _, folder := range root.Folders {
		listing, err := c.listFolder(ctx, token, folder)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	var services []Service
	for _, listing := range listings {
		for _, s := range listing.Services {
			svc := Service{
				Name:   s.ServiceName,
				Folder: s.FolderName,
				Type:   s.Type,
			}
			if svc.Folder == "" {
				svc.Folder = RootFolder
			}
			svc.URL = c.serviceURL(svc)
			if filter.matches(svc) {
				services = append(services, svc)
			}
		}
	}

	slices.SortStableFunc(services, func(a, b Service) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.Folder, b.Folder)
	})

	slog.Debug("Services listed", "host", c.host, "folders", len(root.Folders), "services", len(services))
	return services, nil
}

func (c *DefaultClient) serviceURL(svc Service) string {
	if svc.Folder == RootFolder {
		return fmt.Sprintf("%s/services/%s.%s", c.AdminURL(), svc.Name, svc.Type)
	}
	return fmt.Sprintf("%s/services/%s/%s.%s", c.AdminURL(), svc.Folder, svc.Name, svc.Type)
}

// FetchManifest implements Client.FetchManifest
func (c *DefaultClient) FetchManifest(ctx context.Context, token string, svc Service) ([]byte, error) {
	url := svc.URL + "/" + manifestPath
	body, err := c.http.Get(ctx, url, httpclient.WithQuery("token", token))
	if err != nil {
		return nil, &FetchError{Service: svc.Name, URL: url, Err: err}
	}
	return body, nil
}
