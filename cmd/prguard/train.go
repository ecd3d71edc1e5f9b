package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/procurewatch/prguard/internal/config"
	"github.com/procurewatch/prguard/pkg/io/csv"
	"github.com/procurewatch/prguard/pkg/model"
)

func newTrainCmd(defaults config.TrainConfig) *cobra.Command {
	var (
		inputPath     string
		modelPath     string
		metaPath      string
		contamination float64
		trees         int
		seed          int64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the anomaly model from a historical PR export",
		RunE: func(_ *cobra.Command, _ []string) error {
			slog.Info("loading training data", "path", inputPath)
			reader, err := csv.NewReader(inputPath)
			if err != nil {
				return fmt.Errorf("open training data: %w", err)
			}
			defer reader.Close()

			records, err := reader.Read()
			if err != nil {
				return fmt.Errorf("read training data: %w", err)
			}
			slog.Info("training data loaded", "rows", len(records))

			cfg := model.DefaultConfig()
			cfg.Contamination = contamination
			cfg.NEstimators = trees
			cfg.Seed = seed

			slog.Info("fitting isolation forest",
				"contamination", cfg.Contamination,
				"n_estimators", cfg.NEstimators,
				"seed", cfg.Seed,
			)
			artifact, err := model.Train(records, cfg)
			if err != nil {
				return fmt.Errorf("train: %w", err)
			}
			slog.Info("model trained",
				"samples", artifact.Stats.NSamples,
				"features", artifact.Stats.NFeatures,
				"threshold", artifact.Threshold,
				"score_mean", artifact.Stats.ScoreMean,
				"score_std", artifact.Stats.ScoreStd,
			)

			if err := artifact.Save(modelPath); err != nil {
				return fmt.Errorf("save model: %w", err)
			}
			slog.Info("model artifact saved", "path", modelPath)

			if err := artifact.WriteMetadata(metaPath); err != nil {
				return fmt.Errorf("write metadata: %w", err)
			}
			slog.Info("metadata saved", "path", metaPath)

			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", defaults.InputPath, "input CSV path")
	cmd.Flags().StringVar(&modelPath, "model", defaults.ModelPath, "output model artifact path")
	cmd.Flags().StringVar(&metaPath, "meta", defaults.MetaPath, "output metadata JSON path")
	cmd.Flags().Float64Var(&contamination, "contamination", defaults.Contamination, "expected anomaly fraction")
	cmd.Flags().IntVar(&trees, "trees", defaults.NEstimators, "number of isolation trees")
	cmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "random seed")

	return cmd
}
