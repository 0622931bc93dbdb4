// Package toggl is a minimal client for the parts of the Toggl track and
// reports APIs the sync reads: account timezone, workspaces, and the
// detailed report of timed entries.
package toggl

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// defaultBaseURL is a var so tests can point package-level constructors at a
// local server.
var defaultBaseURL = "https://api.track.toggl.com"

const (
	meURL         = "/api/v9/me"
	workspacesURL = "/api/v9/workspaces"
	reportURL     = "/reports/api/v2/details"

	// Reports API terms of service require an identifying user agent.
	userAgent = "github.com/a3ng7n/timesheet-sync"
)

// Client is a Toggl API client authenticated with a personal API token.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewClient creates a Toggl client. Token auth uses the api token as the
// basic-auth username with the literal password "api_token".
func NewClient(apiToken string, log zerolog.Logger) *Client {
	c := resty.New().
		SetBaseURL(defaultBaseURL).
		SetBasicAuth(apiToken, "api_token").
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{http: c, log: log.With().Str("client", "toggl").Logger()}
}

// APIToken authenticates with email/password and returns the account's
// personal API token, used by the interactive login flow.
func APIToken(ctx context.Context, email, password string) (string, error) {
	c := resty.New().
		SetBaseURL(defaultBaseURL).
		SetBasicAuth(email, password).
		SetTimeout(30 * time.Second)

	var me Me
	resp, err := c.R().SetContext(ctx).SetResult(&me).Get(meURL)
	if err != nil {
		return "", fmt.Errorf("toggl login request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("toggl login failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	if me.APIToken == "" {
		return "", fmt.Errorf("toggl login succeeded but no api token returned")
	}
	return me.APIToken, nil
}

// Me fetches the authenticated account's profile.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.get(ctx, meURL, nil, &me); err != nil {
		return nil, fmt.Errorf("toggl me: %w", err)
	}
	return &me, nil
}

// Workspaces lists the account's workspaces.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var ws []Workspace
	if err := c.get(ctx, workspacesURL, nil, &ws); err != nil {
		return nil, fmt.Errorf("toggl workspaces: %w", err)
	}
	return ws, nil
}

// FetchEntries retrieves all detailed-report entries for one workspace over
// one localized date span. Pagination is strictly sequential: each page is
// requested only after the previous page's total-count arithmetic, and the
// loop ends when the remaining count reaches zero. Newer pages are prepended
// so the final slice matches the report's own reverse-chronological order.
func (c *Client) FetchEntries(ctx context.Context, workspaceID int64, since, until time.Time) ([]ReportEntry, error) {
	var all []ReportEntry

	left := 1
	page := 1
	for left > 0 {
		rp, err := c.reportPage(ctx, workspaceID, since, until, page)
		if err != nil {
			return nil, err
		}

		all = append(rp.Data, all...)
		if page == 1 {
			left = rp.TotalCount - rp.PerPage
		} else {
			left -= rp.PerPage
		}
		page++
	}

	c.log.Debug().
		Int64("workspace", workspaceID).
		Time("since", since).
		Time("until", until).
		Int("entries", len(all)).
		Msg("fetched report entries")
	return all, nil
}

func (c *Client) reportPage(ctx context.Context, workspaceID int64, since, until time.Time, page int) (*ReportPage, error) {
	var rp ReportPage
	params := map[string]string{
		"workspace_id": strconv.FormatInt(workspaceID, 10),
		"user_agent":   userAgent,
		"since":        since.Format(time.RFC3339),
		"until":        until.Format(time.RFC3339),
		"page":         strconv.Itoa(page),
	}
	if err := c.get(ctx, reportURL, params, &rp); err != nil {
		return nil, fmt.Errorf("toggl report page %d: %w", page, err)
	}
	return &rp, nil
}

// get performs a GET with bounded exponential-backoff retries. Only server
// errors are retried; anything else is permanent.
func (c *Client) get(ctx context.Context, url string, params map[string]string, out any) error {
	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(out).
			Get(url)
		if err != nil {
			return err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
		}
		if resp.StatusCode() != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(op, bo)
}
