package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/a3ng7n/timesheet-sync/pkg/auth"
	"github.com/a3ng7n/timesheet-sync/pkg/config"
	"github.com/a3ng7n/timesheet-sync/pkg/harvest"
	"github.com/a3ng7n/timesheet-sync/pkg/prompt"
	"github.com/a3ng7n/timesheet-sync/pkg/sync"
	"github.com/a3ng7n/timesheet-sync/pkg/toggl"
)

var (
	days         int
	dateRange    []string
	cacheFile    string
	noCache      bool
	noStore      bool
	harvestEmail string
	timezone     string
)

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func main() {
	log := newLogger()

	rootCmd := &cobra.Command{
		Use:   "timesheet-sync",
		Short: "Convert Toggl time entries into Harvest timesheet entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), log)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache-file", "", "Location to look for toggl and harvest credentials")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not load credentials from file")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "Do not store credentials in file")

	rootCmd.Flags().IntVarP(&days, "days", "d", 0, "integer # of days in the past, from today, to sync for")
	rootCmd.Flags().StringSliceVarP(&dateRange, "daterange", "r", nil,
		"Two dates bounding inclusively the dates to sync for. No required order. "+
			"If only one date is given, assumes bounds are from that date to today.")
	rootCmd.MarkFlagsMutuallyExclusive("days", "daterange")
	rootCmd.Flags().StringVar(&harvestEmail, "harvest-email", "",
		"the email address associated with your harvest user to create new time entries under")
	rootCmd.Flags().StringVar(&timezone, "timezone", "", "override the timezone reported by the Toggl account")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Verify and cache service credentials",
	}
	loginCmd.AddCommand(&cobra.Command{
		Use:   "toggl",
		Short: "Log in to Toggl and cache the API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), log, func(ctx context.Context, cache *config.CredCache, p prompt.Prompter) error {
				token, err := auth.TogglLogin(ctx, p)
				if err != nil {
					return err
				}
				cache.Merge(config.Credentials{TogglKey: token})
				return nil
			})
		},
	})
	loginCmd.AddCommand(&cobra.Command{
		Use:   "harvest",
		Short: "Log in to Harvest and cache the account id and key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), log, func(ctx context.Context, cache *config.CredCache, p prompt.Prompter) error {
				accountID, key, err := auth.HarvestLogin(ctx, p, log)
				if err != nil {
					return err
				}
				cache.Merge(config.Credentials{HarvestAccountID: accountID, HarvestKey: key})
				return nil
			})
		},
	})
	rootCmd.AddCommand(loginCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// openCache applies the flag/env/default precedence for the cache location.
func openCache(cfg *config.Config) (*config.CredCache, error) {
	path := cfg.CacheFile
	if cacheFile != "" {
		path = cacheFile
	}
	return config.OpenCredCache(path, !noCache)
}

func runLogin(ctx context.Context, log zerolog.Logger, flow func(context.Context, *config.CredCache, prompt.Prompter) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}

	p := prompt.NewTerminal(os.Stdin, os.Stdout)
	if err := flow(ctx, cache, p); err != nil {
		return err
	}
	if noStore {
		return nil
	}
	return cache.Save()
}

func runSync(ctx context.Context, log zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}

	p := prompt.NewTerminal(os.Stdin, os.Stdout)
	creds, err := auth.EnsureCredentials(ctx, cache, p, log)
	if err != nil {
		return err
	}
	if !noStore {
		if err := cache.Save(); err != nil {
			log.Warn().Err(err).Msg("could not store credentials")
		}
	}

	email := harvestEmail
	if email == "" {
		email = cfg.HarvestEmail
	}
	if email == "" {
		return fmt.Errorf("a harvest email is required (--harvest-email or TIMESHEET_SYNC_HARVEST_EMAIL)")
	}

	tz := timezone
	if tz == "" {
		tz = cfg.Timezone
	}

	src := toggl.NewClient(creds.TogglKey, log)
	dst := harvest.NewClient(ctx, creds.HarvestAccountID, creds.HarvestKey, log)

	s := sync.New(src, dst, p, os.Stdout, log)
	return s.Run(ctx, sync.Options{
		Days:         days,
		DateRange:    dateRange,
		HarvestEmail: email,
		Timezone:     tz,
	})
}
