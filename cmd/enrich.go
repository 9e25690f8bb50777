package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chenders/deadonfilm-sub012/internal/cost"
	"github.com/chenders/deadonfilm-sub012/internal/enrich"
	"github.com/chenders/deadonfilm-sub012/internal/model"
)

var (
	enrichInput  string
	enrichOutput string
	enrichLimit  int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a batch of subjects from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		subjects, err := loadSubjects(enrichInput)
		if err != nil {
			return err
		}
		if enrichLimit > 0 && len(subjects) > enrichLimit {
			subjects = subjects[:enrichLimit]
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		orch := e.buildOrchestrator(enrich.LogReporter{})

		results, stats, runErr := orch.EnrichBatch(ctx, subjects)

		fmt.Println(enrich.FormatSummary(stats))

		if enrichOutput != "" {
			if err := writeResults(enrichOutput, results); err != nil {
				return err
			}
			zap.L().Info("results written",
				zap.String("path", enrichOutput),
				zap.Int("subjects", len(results)),
			)
		}

		if cost.IsBudgetExceeded(runErr) {
			zap.L().Warn("batch ended early: total budget spent")
		}
		return runErr
	},
}

func loadSubjects(path string) ([]model.Subject, error) {
	if path == "" {
		return nil, eris.New("--input is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read subjects file")
	}
	var subjects []model.Subject
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &subjects)
	default:
		err = json.Unmarshal(data, &subjects)
	}
	if err != nil {
		return nil, eris.Wrap(err, "parse subjects file")
	}
	return subjects, nil
}

func writeResults(path string, results map[string]*model.EnrichmentResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal results")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "write results file")
	}
	return nil
}

func init() {
	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "path to subjects JSON file")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "", "path to write per-subject results JSON")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "max subjects to process (0 = all)")
	rootCmd.AddCommand(enrichCmd)
}
