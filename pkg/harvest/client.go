// Package harvest is a client for the Harvest v2 API surface the sync
// touches: users, existing time entries, the project/task taxonomy, and
// time-entry creation.
package harvest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.harvestapp.com/v2"

// Client is a Harvest v2 API client authenticated with a personal access
// token and account id.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewClient creates a Harvest client. The bearer transport comes from a
// static oauth2 token source; Harvest additionally requires the account id
// on every request.
func NewClient(ctx context.Context, accountID, token string, log zerolog.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})

	c := resty.NewWithClient(oauth2.NewClient(ctx, src)).
		SetBaseURL(defaultBaseURL).
		SetHeader("Harvest-Account-Id", accountID).
		SetHeader("User-Agent", "timesheet-sync (github.com/a3ng7n/timesheet-sync)").
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{http: c, log: log.With().Str("client", "harvest").Logger()}
}

// Verify checks the credentials by fetching the authenticated user.
func (c *Client) Verify(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/users/me")
	if err != nil {
		return fmt.Errorf("harvest auth check: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("harvest auth check failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

type usersPage struct {
	TotalPages int    `json:"total_pages"`
	Users      []User `json:"users"`
}

// Users lists every user in the account.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var all []User
	err := c.eachPage(ctx, "/users", func(page int) (int, error) {
		var p usersPage
		if err := c.getPage(ctx, "/users", page, &p); err != nil {
			return 0, err
		}
		all = append(all, p.Users...)
		return p.TotalPages, nil
	})
	return all, err
}

type timeEntriesPage struct {
	TotalPages  int         `json:"total_pages"`
	TimeEntries []TimeEntry `json:"time_entries"`
}

// TimeEntries lists every recorded timesheet entry.
func (c *Client) TimeEntries(ctx context.Context) ([]TimeEntry, error) {
	var all []TimeEntry
	err := c.eachPage(ctx, "/time_entries", func(page int) (int, error) {
		var p timeEntriesPage
		if err := c.getPage(ctx, "/time_entries", page, &p); err != nil {
			return 0, err
		}
		all = append(all, p.TimeEntries...)
		return p.TotalPages, nil
	})
	return all, err
}

type projectsPage struct {
	TotalPages int       `json:"total_pages"`
	Projects   []Project `json:"projects"`
}

// Projects lists every project with its owning client.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var all []Project
	err := c.eachPage(ctx, "/projects", func(page int) (int, error) {
		var p projectsPage
		if err := c.getPage(ctx, "/projects", page, &p); err != nil {
			return 0, err
		}
		all = append(all, p.Projects...)
		return p.TotalPages, nil
	})
	return all, err
}

type taskAssignmentsPage struct {
	TotalPages      int              `json:"total_pages"`
	TaskAssignments []TaskAssignment `json:"task_assignments"`
}

// TaskAssignments lists every project/task assignment.
func (c *Client) TaskAssignments(ctx context.Context) ([]TaskAssignment, error) {
	var all []TaskAssignment
	err := c.eachPage(ctx, "/task_assignments", func(page int) (int, error) {
		var p taskAssignmentsPage
		if err := c.getPage(ctx, "/task_assignments", page, &p); err != nil {
			return 0, err
		}
		all = append(all, p.TaskAssignments...)
		return p.TotalPages, nil
	})
	return all, err
}

// CreateTimeEntry submits one new timesheet entry. A rejected entry is not
// an error at this level: the caller reports the raw response and moves on
// to the remaining items.
func (c *Client) CreateTimeEntry(ctx context.Context, entry NewTimeEntry) (*SubmitResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&entry).
		Post("/time_entries")
	if err != nil {
		return nil, fmt.Errorf("harvest create time entry: %w", err)
	}

	return &SubmitResult{
		Accepted:   resp.StatusCode() == http.StatusCreated || resp.StatusCode() == http.StatusOK,
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
	}, nil
}

// eachPage walks a paged collection sequentially. The total page count comes
// from the first page and is trusted for the rest of the walk.
func (c *Client) eachPage(ctx context.Context, path string, fetch func(page int) (int, error)) error {
	page := 1
	total := 1
	for page <= total {
		t, err := fetch(page)
		if err != nil {
			return fmt.Errorf("harvest %s page %d: %w", path, page, err)
		}
		total = t
		page++
	}
	return nil
}

// getPage performs one paged GET with bounded retries on server errors.
func (c *Client) getPage(ctx context.Context, path string, page int, out any) error {
	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("page", strconv.Itoa(page)).
			SetResult(out).
			Get(path)
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
