// Package confluence publishes report pages through the Confluence REST API.
package confluence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/httpclient"
)

// ErrUnparseableContent is returned when Confluence rejects a page body with HTTP 400
var ErrUnparseableContent = errors.New("content is not parseable by Confluence")

// APIError is any other non-2xx answer
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("confluence %s: HTTP %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("confluence %s: HTTP %d: %s", e.Path, e.StatusCode, e.Message)
}

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Publisher

// Publisher creates or updates wiki pages
type Publisher interface {
	// CreateOrUpdatePage publishes body as the page called title below parentID,
	// in the space of the parent page.
	CreateOrUpdatePage(ctx context.Context, parentID, title, body string) (*Outcome, error)
}

// Outcome describes a published page
type Outcome struct {
	Page    Page
	Created bool

	// URL is the browser link of the page, when Confluence reports one
	URL string
}

// Page is the subset of the content resource used here
type Page struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Status  string  `json:"status"`
	Title   string  `json:"title"`
	Space   *Space  `json:"space,omitempty"`
	Version Version `json:"version"`
	Links   Links   `json:"_links"`
}

// Space identifies a Confluence space
type Space struct {
	Key string `json:"key"`
}

// Version is the page version
type Version struct {
	Number    int  `json:"number"`
	MinorEdit bool `json:"minorEdit,omitempty"`
}

// Links holds the relative and base links of a resource
type Links struct {
	Base  string `json:"base,omitempty"`
	WebUI string `json:"webui,omitempty"`
}

type searchResult struct {
	Results []Page `json:"results"`
}

type ancestor struct {
	ID string `json:"id"`
}

type storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type pageBody struct {
	Storage storage `json:"storage"`
}

type pageRequest struct {
	ID        string     `json:"id,omitempty"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Space     *Space     `json:"space,omitempty"`
	Ancestors []ancestor `json:"ancestors"`
	Body      pageBody   `json:"body"`
	Version   *Version   `json:"version,omitempty"`
}

// Client implements Publisher against the Confluence Server/Data Center REST API
type Client struct {
	rest    *resty.Client
	baseURL string
}

var _ Publisher = (*Client)(nil)

// NewClient creates a client for baseURL authenticating with username and token.
// Transport options are those of httpclient.
func NewClient(baseURL, username, token string, opts ...httpclient.Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	rest := httpclient.NewResty(opts...).
		SetBaseURL(baseURL+"/rest/api").
		SetBasicAuth(username, token).
		SetHeader("Content-Type", "application/json")
	return &Client{rest: rest, baseURL: baseURL}
}

// GetPage returns the page with id, including its space
func (c *Client) GetPage(ctx context.Context, id string) (*Page, error) {
	var page Page
	path := "/content/" + id
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("expand", "space,version").
		SetResult(&page).
		Get(path)
	if err := check(resp, err, path); err != nil {
		return nil, err
	}
	return &page, nil
}

// FindPage looks title up in space. It returns nil when no page matches.
func (c *Client) FindPage(ctx context.Context, spaceKey, title string) (*Page, error) {
	var result searchResult
	path := "/content"
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"spaceKey": spaceKey,
			"title":    title,
			"type":     "page",
			"expand":   "version",
		}).
		SetResult(&result).
		Get(path)
	if err := check(resp, err, path); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

// CreateOrUpdatePage implements Publisher. An existing page is updated as a
// minor edit with the next version number, otherwise the page is created
// below the parent.
func (c *Client) CreateOrUpdatePage(ctx context.Context, parentID, title, body string) (*Outcome, error) {
	parent, err := c.GetPage(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read parent page %s: %w", parentID, err)
	}
	if parent.Space == nil || parent.Space.Key == "" {
		return nil, fmt.Errorf("parent page %s has no space", parentID)
	}

	existing, err := c.FindPage(ctx, parent.Space.Key, title)
	if err != nil {
		return nil, fmt.Errorf("failed to search page %q: %w", title, err)
	}

	req := pageRequest{
		Type:      "page",
		Title:     title,
		Ancestors: []ancestor{{ID: parentID}},
		Body:      pageBody{Storage: storage{Value: body, Representation: "storage"}},
	}

	var (
		page Page
		resp *resty.Response
		path string
	)
	if existing != nil {
		req.ID = existing.ID
		req.Version = &Version{Number: existing.Version.Number + 1, MinorEdit: true}
		path = "/content/" + existing.ID
		resp, err = c.rest.R().SetContext(ctx).SetBody(req).SetResult(&page).Put(path)
	} else {
		req.Space = &Space{Key: parent.Space.Key}
		path = "/content"
		resp, err = c.rest.R().SetContext(ctx).SetBody(req).SetResult(&page).Post(path)
	}
	if err := check(resp, err, path); err != nil {
		return nil, err
	}

	return &Outcome{Page: page, Created: existing == nil, URL: c.webURL(page)}, nil
}

func (c *Client) webURL(page Page) string {
	if page.Links.WebUI == "" {
		return ""
	}
	base := page.Links.Base
	if base == "" {
		base = c.baseURL
	}
	return base + page.Links.WebUI
}

func check(resp *resty.Response, err error, path string) error {
	if err != nil {
		return fmt.Errorf("confluence %s: %w", path, err)
	}
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == http.StatusBadRequest {
		return fmt.Errorf("confluence %s: %w", path, ErrUnparseableContent)
	}

	return &APIError{
		StatusCode: resp.StatusCode(),
		Path:       path,
		Message:    gjson.GetBytes(resp.Body(), "message").String(),
	}
}
