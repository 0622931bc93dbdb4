package harvest

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound means the configured email matched no Harvest user.
	ErrUserNotFound = errors.New("harvest user not found")
	// ErrProjectNotFound means a task assignment referenced a project id
	// absent from the fetched project list.
	ErrProjectNotFound = errors.New("harvest project not found")
)

// User is one Harvest account user.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TimeEntry is one approved timesheet entry already present in Harvest.
type TimeEntry struct {
	ID        int64   `json:"id"`
	SpentDate string  `json:"spent_date"` // ISO calendar date, no time-of-day
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
}

// ClientRef is the client level of the Harvest taxonomy.
type ClientRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProjectRef is the project level as embedded in other records.
type ProjectRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TaskRef is the task level as embedded in other records.
type TaskRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Project is a full project record, carrying its owning client.
type Project struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Client ClientRef `json:"client"`
}

// TaskAssignment links a task to a project it may be billed against.
type TaskAssignment struct {
	ID      int64      `json:"id"`
	Project ProjectRef `json:"project"`
	Task    TaskRef    `json:"task"`
}

// AssignedTask is a task assignment joined with its client, the full
// (client, project, task) triple the association step works over.
type AssignedTask struct {
	Client  ClientRef
	Project ProjectRef
	Task    TaskRef
}

// NewTimeEntry is the payload submitted to create a timesheet entry. The
// field names are a wire contract with Harvest.
type NewTimeEntry struct {
	UserID    int64   `json:"user_id"`
	ProjectID int64   `json:"project_id"`
	TaskID    int64   `json:"task_id"`
	SpentDate string  `json:"spent_date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
}

// SubmitResult reports one submission attempt: whether Harvest accepted the
// entry, and the raw response for the operator to inspect on failure.
type SubmitResult struct {
	Accepted   bool
	StatusCode int
	Body       string
}

// LookupUserID finds the user with the given email address.
func LookupUserID(users []User, email string) (int64, error) {
	for _, u := range users {
		if u.Email == email {
			return u.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUserNotFound, email)
}

// ResolveClients joins each task assignment with the client owning its
// project. A dangling project reference is fatal: guessing here could bill
// the wrong client.
func ResolveClients(assignments []TaskAssignment, projects []Project) ([]AssignedTask, error) {
	byID := make(map[int64]Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	tasks := make([]AssignedTask, 0, len(assignments))
	for _, ta := range assignments {
		p, ok := byID[ta.Project.ID]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrProjectNotFound, ta.Project.ID)
		}
		tasks = append(tasks, AssignedTask{
			Client:  p.Client,
			Project: ta.Project,
			Task:    ta.Task,
		})
	}
	return tasks, nil
}
