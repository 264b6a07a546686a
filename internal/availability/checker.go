// Package availability classifies service URLs referenced by map.apps
// applications: which environment hosts them, whether they are routed through
// the security relay and whether the service answers without an error.
package availability

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/httpclient"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
)

// RelayMarker marks URLs proxied through the security gateway
const RelayMarker = "ags-relay"

// HostResolver attributes a URL to the environment whose ArcGIS host it contains
type HostResolver interface {
	EnvironmentForURL(url string) string
}

// Result is the classification of one URL. Valid and Secured are nil when unknown.
type Result struct {
	Valid       *bool
	Secured     *bool
	Environment string

	// Probed is set when a live request was attempted
	Probed bool
}

// Unknown reports whether a probe was attempted but gave no answer
func (r Result) Unknown() bool {
	return r.Probed && r.Valid == nil
}

// Apply writes the valid, secured and svc_env columns into rec
func (r Result) Apply(rec records.Record) {
	rec["valid"] = boolValue(r.Valid)
	rec["secured"] = boolValue(r.Secured)
	rec["svc_env"] = nil
	if r.Environment != "" {
		rec["svc_env"] = r.Environment
	}
}

func boolValue(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

//go:generate mockgen -destination=mocks/mock_checker.go -package=mocks -source=checker.go Checker

// Checker classifies service URLs. It never fails: problems yield unknown values.
type Checker interface {
	Check(ctx context.Context, url string) Result
}

// HTTPChecker probes services with GET <url>?f=pjson
type HTTPChecker struct {
	http        httpclient.Client
	hosts       HostResolver
	credentials config.Credentials
}

var _ Checker = (*HTTPChecker)(nil)

// NewChecker creates an HTTPChecker
func NewChecker(http httpclient.Client, hosts HostResolver, creds config.Credentials) *HTTPChecker {
	return &HTTPChecker{http: http, hosts: hosts, credentials: creds}
}

// Check implements Checker. Only URLs on a known ArcGIS host are probed.
func (c *HTTPChecker) Check(ctx context.Context, url string) Result {
	if url == "" {
		return Result{}
	}

	env := c.hosts.EnvironmentForURL(url)
	if env == "" {
		return Result{}
	}

	secured := strings.Contains(url, RelayMarker)
	return Result{
		Valid:       c.classify(ctx, url),
		Secured:     &secured,
		Environment: env,
		Probed:      true,
	}
}

func (c *HTTPChecker) classify(ctx context.Context, url string) *bool {
	target := serviceURL(url)
	body, err := c.http.Get(ctx, target,
		httpclient.WithQuery("f", "pjson"),
		httpclient.WithBasicAuth(c.credentials.Username, c.credentials.Password),
	)
	if err != nil {
		// error statuses still carry a classifiable payload
		var httpErr *httpclient.HTTPError
		if !errors.As(err, &httpErr) || len(httpErr.Body) == 0 {
			slog.Warn("Unable to check availability", "url", target, "error", err)
			return nil
		}
		body = httpErr.Body
	}

	payload := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !payload.IsObject() {
		slog.Warn("Unable to check availability, response is not a JSON object", "url", target)
		return nil
	}

	valid := !payload.Get("error").Exists()
	return &valid
}

// serviceURL drops a "label: " prefix some app configurations put before the URL
func serviceURL(url string) string {
	if i := strings.LastIndex(url, ": "); i >= 0 {
		return url[i+2:]
	}
	return url
}
