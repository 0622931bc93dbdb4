// Package auth acquires and verifies credentials for the two services,
// interactively when the cache has nothing usable.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/a3ng7n/timesheet-sync/pkg/config"
	"github.com/a3ng7n/timesheet-sync/pkg/harvest"
	"github.com/a3ng7n/timesheet-sync/pkg/prompt"
	"github.com/a3ng7n/timesheet-sync/pkg/toggl"
)

// ErrTooManyAttempts is returned after repeated failed logins.
var ErrTooManyAttempts = errors.New("too many failed login attempts")

const maxAttempts = 4

// TogglLogin prompts for email/password and exchanges them for the
// account's API token.
func TogglLogin(ctx context.Context, p prompt.Prompter) (string, error) {
	email, err := p.Line("Toggl email: ")
	if err != nil {
		return "", err
	}
	password, err := p.Line("Toggl password: ")
	if err != nil {
		return "", err
	}

	token, err := toggl.APIToken(ctx, email, password)
	if err != nil {
		return "", err
	}
	fmt.Println("toggl auth success")
	return token, nil
}

// HarvestLogin prompts for an account id and personal access token and
// verifies them against the API.
func HarvestLogin(ctx context.Context, p prompt.Prompter, log zerolog.Logger) (accountID, key string, err error) {
	accountID, err = p.Line("Harvest account id: ")
	if err != nil {
		return "", "", err
	}
	key, err = p.Line("Harvest key: ")
	if err != nil {
		return "", "", err
	}

	if err := harvest.NewClient(ctx, accountID, key, log).Verify(ctx); err != nil {
		return "", "", err
	}
	fmt.Println("harvest auth success")
	return accountID, key, nil
}

// EnsureCredentials fills any missing credentials, prompting with a bounded
// number of attempts per service. Obtained credentials are merged into the
// cache but not saved here; the caller decides whether to persist.
func EnsureCredentials(ctx context.Context, cache *config.CredCache, p prompt.Prompter, log zerolog.Logger) (config.Credentials, error) {
	creds := cache.Creds

	attempt := 0
	for creds.TogglKey == "" {
		if attempt >= maxAttempts {
			return creds, fmt.Errorf("%w: toggl", ErrTooManyAttempts)
		}
		fmt.Println("Please enter toggl login credentials...")
		token, err := TogglLogin(ctx, p)
		if err != nil {
			log.Warn().Err(err).Msg("toggl login failed")
			attempt++
			continue
		}
		creds.TogglKey = token
	}
	fmt.Println("toggl login complete")

	attempt = 0
	for creds.HarvestAccountID == "" || creds.HarvestKey == "" {
		if attempt >= maxAttempts {
			return creds, fmt.Errorf("%w: harvest", ErrTooManyAttempts)
		}
		fmt.Println("Please enter harvest login credentials...")
		accountID, key, err := HarvestLogin(ctx, p, log)
		if err != nil {
			log.Warn().Err(err).Msg("harvest login failed")
			attempt++
			continue
		}
		creds.HarvestAccountID = accountID
		creds.HarvestKey = key
	}
	fmt.Println("harvest login complete")

	cache.Merge(creds)
	return creds, nil
}
