package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chenders/deadonfilm-sub012/internal/model"
	"github.com/chenders/deadonfilm-sub012/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Query-cache maintenance",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		stats, err := e.Cache.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Entries:    %d\n", stats.Entries)
		fmt.Printf("Bytes:      %d\n", stats.TotalBytes)
		fmt.Printf("Compressed: %d\n", stats.Compressed)
		fmt.Printf("Errors:     %d\n", stats.Errors)
		fmt.Printf("Cost:       $%.4f\n", stats.TotalCost)
		for _, t := range model.AllSourceTypes() {
			s, ok := stats.BySource[t]
			if !ok {
				continue
			}
			fmt.Printf("  %-12s %d entries, %d errors, $%.4f\n", string(t)+":", s.Entries, s.Errors, s.Cost)
		}
		return nil
	},
}

var pruneOlderThan time.Duration

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete entries older than a cutoff",
	Long:  "Deletes cache entries, including remembered failures, created before now minus --older-than. This is the supported way to let a source retry queries that previously found nothing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneOlderThan <= 0 {
			return eris.New("--older-than must be positive")
		}
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.Cache.PruneOlderThan(cmd.Context(), time.Now().UTC().Add(-pruneOlderThan))
		if err != nil {
			return err
		}
		zap.L().Info("cache pruned", zap.Int64("deleted", n))
		fmt.Printf("deleted %d entries\n", n)
		return nil
	},
}

var (
	clearSource   string
	clearSubjects []string
	clearAll      bool
)

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cache entries by source, subject, or entirely",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		var n int64
		switch {
		case clearAll:
			n, err = e.Cache.Clear(ctx)
		case clearSource != "":
			t := model.SourceType(clearSource)
			if !t.Valid() {
				return eris.Errorf("unknown source type %q", clearSource)
			}
			n, err = e.Cache.DeleteSource(ctx, t)
		case len(clearSubjects) > 0:
			n, err = e.Cache.DeleteSubjects(ctx, clearSubjects)
		default:
			return eris.New("one of --all, --source, or --subject is required")
		}
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d entries\n", n)
		return nil
	},
}

var (
	resetAll      bool
	resetSubjects []string
	resetSources  []string
)

var cacheResetCmd = &cobra.Command{
	Use:   "reset-status",
	Short: "Clear subjects' last-checked markers so batch selection revisits them",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		filter := store.ResetFilter{
			All:        resetAll,
			SubjectIDs: resetSubjects,
		}
		for _, s := range resetSources {
			t := model.SourceType(s)
			if !t.Valid() {
				return eris.Errorf("unknown source type %q", s)
			}
			filter.SourceTypes = append(filter.SourceTypes, t)
		}
		if !filter.All && len(filter.SubjectIDs) == 0 && len(filter.SourceTypes) == 0 {
			return eris.New("one of --all, --subject, or --source is required")
		}

		n, err := e.Cache.ResetSubjectStatus(cmd.Context(), filter)
		if err != nil {
			return err
		}
		fmt.Printf("reset %d subjects\n", n)
		return nil
	},
}

func init() {
	cachePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "delete entries older than this (e.g. 720h)")

	cacheClearCmd.Flags().BoolVar(&clearAll, "all", false, "delete every entry")
	cacheClearCmd.Flags().StringVar(&clearSource, "source", "", "delete entries for one source type")
	cacheClearCmd.Flags().StringSliceVar(&clearSubjects, "subject", nil, "delete entries for subject id(s)")

	cacheResetCmd.Flags().BoolVar(&resetAll, "all", false, "reset every subject")
	cacheResetCmd.Flags().StringSliceVar(&resetSubjects, "subject", nil, "subject id(s) to reset")
	cacheResetCmd.Flags().StringSliceVar(&resetSources, "source", nil, "forget these source types' answers and reset affected subjects")

	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd, cacheClearCmd, cacheResetCmd)
	rootCmd.AddCommand(cacheCmd)
}
