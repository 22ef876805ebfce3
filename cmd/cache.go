package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the filtered attendee cache",
}

var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Fetch attendees and rebuild the filtered cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		raws, err := env.Backend.ListRecords(ctx, "attendees")
		if err != nil {
			return eris.Wrap(err, "fetch attendees")
		}

		cached := make([]map[string]any, 0, len(raws))
		skipped := 0
		for _, raw := range raws {
			rec, err := env.Transformers.Attendees.ToCache(raw)
			if err != nil {
				zap.L().Warn("skipping attendee record", zap.Error(err))
				skipped++
				continue
			}
			cached = append(cached, rec)
		}

		if err := env.Store.SetCachedAttendees(ctx, cached, env.AttendeeTTL); err != nil {
			return err
		}

		zap.L().Info("attendee cache warmed",
			zap.Int("cached", len(cached)),
			zap.Int("skipped", skipped),
		)
		return nil
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report attendee cache state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		cached, err := env.Store.GetCachedAttendees(ctx)
		if err != nil {
			return err
		}
		if cached == nil {
			cmd.Println("attendee cache: empty")
			return nil
		}

		filtered := true
		for _, rec := range cached {
			if !env.Transformers.Attendees.IsFilteredRecord(rec) {
				filtered = false
				break
			}
		}

		cmd.Printf("attendee cache: %d records, filtered=%v\n", len(cached), filtered)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop the attendee cache and expired snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.PurgeAttendeeCache(ctx); err != nil {
			return err
		}
		n, err := env.Store.DeleteExpired(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("cache purged", zap.Int("expired_rows_deleted", n))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheWarmCmd, cacheStatusCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
