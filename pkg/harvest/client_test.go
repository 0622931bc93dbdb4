package harvest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(context.Background(), "12345", "pat-token", zerolog.Nop())
	c.http.SetBaseURL(srv.URL)
	return c
}

func TestRequestHeaders(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12345", r.Header.Get("Harvest-Account-Id"))
		assert.Equal(t, "Bearer pat-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(usersPage{TotalPages: 1})
	}))

	_, err := c.Users(context.Background())
	require.NoError(t, err)
}

func TestUsersWalksAllPages(t *testing.T) {
	pages := map[string]usersPage{
		"1": {TotalPages: 3, Users: []User{{ID: 1, Email: "a@example.com"}}},
		"2": {TotalPages: 3, Users: []User{{ID: 2, Email: "b@example.com"}}},
		"3": {TotalPages: 3, Users: []User{{ID: 3, Email: "c@example.com"}}},
	}

	var requested []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		page := r.URL.Query().Get("page")
		requested = append(requested, page)
		p, ok := pages[page]
		require.True(t, ok, "unexpected page %s", page)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}))

	users, err := c.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, requested)
	require.Len(t, users, 3)
	assert.Equal(t, int64(3), users[2].ID)
}

func TestTimeEntriesSinglePage(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(timeEntriesPage{
			TotalPages: 1,
			TimeEntries: []TimeEntry{
				{ID: 1, SpentDate: "2023-06-20", Hours: 1.5, Notes: "standup"},
			},
		})
	}))

	entries, err := c.TimeEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2023-06-20", entries[0].SpentDate)
}

func TestPageErrorAbortsWalk(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "not allowed", http.StatusForbidden)
	}))

	_, err := c.Projects(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "harvest /projects page 1")
	assert.Equal(t, 1, attempts)
}

func TestCreateTimeEntry(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/time_entries", r.URL.Path)

		var entry NewTimeEntry
		require.NoError(t, json.NewDecoder(r.Body).Decode(&entry))
		assert.Equal(t, "2023-06-20", entry.SpentDate)
		assert.Equal(t, 1.5, entry.Hours)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":99}`))
	}))

	res, err := c.CreateTimeEntry(context.Background(), NewTimeEntry{
		UserID:    42,
		ProjectID: 100,
		TaskID:    200,
		SpentDate: "2023-06-20",
		Hours:     1.5,
		Notes:     "Design review",
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, `{"id":99}`, res.Body)
}

func TestCreateTimeEntryRejectionIsNotAnError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Task doesn't exist"}`))
	}))

	res, err := c.CreateTimeEntry(context.Background(), NewTimeEntry{})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
}

func TestVerify(t *testing.T) {
	status := http.StatusOK
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		w.WriteHeader(status)
	}))

	require.NoError(t, c.Verify(context.Background()))

	status = http.StatusUnauthorized
	err := c.Verify(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "harvest auth check failed")
}

func TestLookupUserID(t *testing.T) {
	users := []User{
		{ID: 1, Email: "a@example.com"},
		{ID: 2, Email: "b@example.com"},
	}

	id, err := LookupUserID(users, "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	_, err = LookupUserID(users, "missing@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveClients(t *testing.T) {
	projects := []Project{
		{ID: 100, Name: "Internal", Client: ClientRef{ID: 9, Name: "Acme"}},
	}
	assignments := []TaskAssignment{
		{ID: 1, Project: ProjectRef{ID: 100, Name: "Internal"}, Task: TaskRef{ID: 200, Name: "Development"}},
	}

	tasks, err := ResolveClients(assignments, projects)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Acme", tasks[0].Client.Name)
	assert.Equal(t, int64(200), tasks[0].Task.ID)
}

func TestResolveClientsDanglingProject(t *testing.T) {
	assignments := []TaskAssignment{
		{ID: 1, Project: ProjectRef{ID: 999}, Task: TaskRef{ID: 200}},
	}

	_, err := ResolveClients(assignments, nil)
	require.ErrorIs(t, err, ErrProjectNotFound)
}
