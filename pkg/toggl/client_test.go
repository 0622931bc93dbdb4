package toggl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// defaultTestBaseURL swaps the package default base URL and returns the
// previous value.
func defaultTestBaseURL(u string) string {
	old := defaultBaseURL
	defaultBaseURL = u
	return old
}

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("secret-token", zerolog.Nop())
	c.http.SetBaseURL(srv.URL)
	return c
}

func TestMe(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, meURL, r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "secret-token", user)
		assert.Equal(t, "api_token", pass)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Me{ID: 1, Email: "me@example.com", Timezone: "America/New_York"})
	}))

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", me.Timezone)
}

func TestFetchEntriesPaginatesSequentially(t *testing.T) {
	pages := map[string]ReportPage{
		"1": {TotalCount: 5, PerPage: 2, Data: []ReportEntry{{ID: 5}, {ID: 4}}},
		"2": {TotalCount: 5, PerPage: 2, Data: []ReportEntry{{ID: 3}, {ID: 2}}},
		"3": {TotalCount: 5, PerPage: 2, Data: []ReportEntry{{ID: 1}}},
	}

	var requested []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, reportURL, r.URL.Path)
		assert.Equal(t, "77", r.URL.Query().Get("workspace_id"))
		assert.Equal(t, userAgent, r.URL.Query().Get("user_agent"))

		page := r.URL.Query().Get("page")
		requested = append(requested, page)
		rp, ok := pages[page]
		require.True(t, ok, "unexpected page %s", page)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rp)
	}))

	since := time.Date(2023, 6, 13, 0, 0, 0, 0, time.UTC)
	until := time.Date(2023, 7, 8, 0, 0, 0, 0, time.UTC)
	entries, err := c.FetchEntries(context.Background(), 77, since, until)
	require.NoError(t, err)

	// Each page was requested exactly once, in order, and later pages were
	// prepended ahead of earlier ones.
	assert.Equal(t, []string{"1", "2", "3"}, requested)
	var ids []int64
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{1, 3, 2, 5, 4}, ids)
}

func TestFetchEntriesSinglePage(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ReportPage{
			TotalCount: 2,
			PerPage:    50,
			Data:       []ReportEntry{{ID: 2}, {ID: 1}},
		})
	}))

	entries, err := c.FetchEntries(context.Background(), 77, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGetRetriesServerErrors(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Me{ID: 1})
	}))

	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestGetClientErrorIsPermanent(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "forbidden", http.StatusForbidden)
	}))

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestAPIToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		if user != "me@example.com" || pass != "hunter2" {
			http.Error(w, "bad credentials", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Me{ID: 1, APIToken: "tok-123"})
	}))
	defer srv.Close()

	// APIToken builds its own client, so the base URL is swapped through the
	// package default for the duration of the test.
	old := defaultTestBaseURL(srv.URL)
	defer defaultTestBaseURL(old)

	tok, err := APIToken(context.Background(), "me@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)

	_, err = APIToken(context.Background(), "me@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorContains(t, err, "toggl login failed")
}

func TestTimestampRoundTrip(t *testing.T) {
	var e ReportEntry
	raw := fmt.Sprintf(`{"id":1,"pid":7,"description":"x","start":%q,"dur":5400000}`, "2023-06-20T09:00:00+02:00")
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, 2023, e.Start.Year())
	assert.InDelta(t, 1.5, e.Hours(), 1e-9)
	require.NotNil(t, e.PID)
	assert.Equal(t, int64(7), *e.PID)
}

func TestTimestampEmpty(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	assert.True(t, ts.IsZero())
}
