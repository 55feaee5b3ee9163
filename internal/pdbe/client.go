// Package pdbe talks to the PDBe graph API compound summary endpoint and
// turns its payload into domain.CompoundSummary values.
//
// The package is split in three parts:
//   - Client performs a single GET per compound and returns the raw body.
//   - Paced wraps any Fetcher with a fixed pre-request delay.
//   - Extract projects the raw body onto the summary model.
//
// Nothing here retries: a failed request surfaces immediately as *FetchError.
package pdbe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/compound-data-tool/internal/observability"
)

// DefaultBaseURL is the public PDBe graph API root.
const DefaultBaseURL = "https://www.ebi.ac.uk/pdbe/graph-api"

// summaryPath is appended to the base URL, followed by the compound code.
const summaryPath = "/compound/summary/"

// Fetcher retrieves the raw compound summary payload for a compound code.
type Fetcher interface {
	Fetch(ctx context.Context, code string) ([]byte, error)
}

// Client is the HTTP Fetcher for the compound summary endpoint.
type Client struct {
	// BaseURL is the graph API root, without trailing slash.
	BaseURL string
	// HTTP is the underlying client; its Timeout is the only deadline applied.
	HTTP *http.Client
	// Log receives request level diagnostics.
	Log zerolog.Logger
}

// NewClient builds a Client. A zero timeout keeps the transport defaults.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

// SummaryURL returns the endpoint URL for an upper-cased compound code.
func (c *Client) SummaryURL(code string) string {
	return c.BaseURL + summaryPath + url.PathEscape(strings.ToUpper(code))
}

// Fetch issues one GET for code. Any status other than 200 and any
// transport failure is returned as *FetchError.
func (c *Client) Fetch(ctx context.Context, code string) ([]byte, error) {
	target := c.SummaryURL(code)
	ctx, span := otel.Tracer("cdt/pdbe").Start(ctx, "pdbe.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("compound", code), attribute.String("url", target))

	log := c.Log.With().Str("compound", code).Str("url", target).Logger()
	log.Debug().Msg("requesting compound summary")

	start := time.Now()
	body, err := c.do(ctx, target)
	observability.ObserveFetch(fetchOutcome(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Msg("compound summary request failed")
		return nil, err
	}
	log.Debug().Int("bytes", len(body)).Msg("compound summary received")
	return body, nil
}

// fetchOutcome maps a Fetch result to the cdt_fetch_total outcome label.
func fetchOutcome(err error) string {
	var fe *FetchError
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.As(err, &fe) && fe.StatusCode != 0 && fe.Err == nil:
		return "status"
	default:
		return "transport"
	}
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}
