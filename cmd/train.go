package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/chart"
	"github.com/sells-group/batchsight/internal/dataset"
	"github.com/sells-group/batchsight/internal/risk"
	"github.com/sells-group/batchsight/internal/store"
	"github.com/sells-group/batchsight/internal/table"
)

var (
	trainBatchCSV string
	trainQCCSV    string
	trainCOACSV   string
	trainQCJoin   string
	trainModelDir string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train batch risk models from historical data",
	Long: `Merges the historical batch log with QC results and COA data, then
fits both risk models against the configured quality target:

  - a 2-cluster Gaussian mixture whose per-cluster failure probability
    is estimated from training outcomes and saved as a cluster map
  - a logistic regression classifier reporting AUC and accuracy

Writes the model blobs, a metadata sidecar, the cluster map and a
model comparison chart to the model directory.

Examples:
  batchsight train --batch batch_log.csv --qc qc_data.csv --coa coa.csv
  batchsight train --batch batch_log.csv --qc qc_data.csv --coa coa.csv --qc-join left`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		batchPath := firstOf(trainBatchCSV, cfg.Data.BatchCSV)
		qcPath := firstOf(trainQCCSV, cfg.Data.QCCSV)
		coaPath := firstOf(trainCOACSV, cfg.Data.COACSV)
		if batchPath == "" || qcPath == "" || coaPath == "" {
			return eris.New("train: batch, qc and coa inputs are all required (flags or config)")
		}
		modelDir := firstOf(trainModelDir, cfg.Data.ModelDir)
		if err := ensureDir(modelDir); err != nil {
			return err
		}

		features := cfg.Risk.Features
		targetCol := cfg.Risk.TargetCol

		batch, err := loadInput(batchPath, append([]string{dataset.KeyBatchID, dataset.KeySupplierLot}, features...)...)
		if err != nil {
			return eris.Wrap(err, "train: load batch log")
		}
		qc, err := loadInput(qcPath, dataset.KeyBatchID, targetCol)
		if err != nil {
			return eris.Wrap(err, "train: load qc results")
		}
		coa, err := loadInput(coaPath, dataset.KeySupplierLot)
		if err != nil {
			return eris.Wrap(err, "train: load coa data")
		}

		qcJoin := dataset.JoinType(firstOf(trainQCJoin, cfg.Merge.QCJoin))
		merged, err := dataset.Merge(batch, qc, coa, dataset.MergeOptions{QCJoin: qcJoin})
		if err != nil {
			return err
		}
		if merged.Len() == 0 {
			return eris.New("train: merged dataset is empty, nothing to train on")
		}

		rec := startRun(ctx, "train", map[string]any{
			"features":       features,
			"target_col":     targetCol,
			"fail_threshold": cfg.Risk.FailThreshold,
			"qc_join":        string(qcJoin),
			"rows":           merged.Len(),
		}, merged.Len())

		opts := risk.TrainOptions{
			Features:      features,
			TargetCol:     targetCol,
			FailThreshold: cfg.Risk.FailThreshold,
			Clusters:      cfg.Risk.Clusters,
			Seed:          cfg.Risk.Seed,
		}

		mixture, err := risk.TrainMixture(merged, opts)
		if err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}
		classifier, err := risk.TrainClassifier(merged, opts)
		if err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}

		artifacts, err := saveTrainingOutput(merged, mixture, classifier, opts, modelDir)
		if err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}
		rec.finish(store.RunStatusComplete, merged.Len(), artifacts)

		fmt.Printf("Trained on %d merged batches.\n", merged.Len())
		fmt.Printf("Cluster failure probabilities: %s\n", mixture.ClusterMap)
		fmt.Printf("Logistic model - AUC: %.3f, Accuracy: %.3f\n", classifier.AUC, classifier.Accuracy)
		return nil
	},
}

// saveTrainingOutput persists both artifacts, the sidecars, and the
// model comparison chart. Returns the written file paths.
func saveTrainingOutput(merged *table.Table, mixture *risk.MixtureResult, classifier *risk.ClassifierResult, opts risk.TrainOptions, modelDir string) ([]string, error) {
	gmmPath := risk.ArtifactPath(modelDir, risk.GMMArtifactFile)
	logregPath := risk.ArtifactPath(modelDir, risk.LogRegArtifactFile)
	metaPath := risk.ArtifactPath(modelDir, risk.MetadataFile)
	mapPath := risk.ArtifactPath(modelDir, risk.ClusterMapFile)
	comparePath := filepath.Join(modelDir, "model_comparison.png")

	if err := risk.SaveArtifact(&risk.Artifact{
		Method:   risk.MethodGMM,
		Features: opts.Features,
		Scaler:   mixture.Scaler,
		GMM:      mixture.Model,
	}, gmmPath); err != nil {
		return nil, err
	}
	if err := risk.SaveArtifact(&risk.Artifact{
		Method:   risk.MethodLogReg,
		Features: opts.Features,
		Scaler:   classifier.Scaler,
		LogReg:   classifier.Model,
	}, logregPath); err != nil {
		return nil, err
	}
	if err := risk.SaveMetadata(risk.Metadata{
		FeaturesUsed:   opts.Features,
		LogregAUC:      classifier.AUC,
		LogregAccuracy: classifier.Accuracy,
	}, metaPath); err != nil {
		return nil, err
	}
	if err := risk.SaveClusterMap(mixture.ClusterMap, mapPath); err != nil {
		return nil, err
	}

	if err := writeComparisonChart(merged, mixture, classifier, opts, comparePath); err != nil {
		// The chart is diagnostic output; a render failure should not
		// discard the models that were just saved.
		zap.L().Warn("train: comparison chart failed", zap.Error(err))
		return []string{gmmPath, logregPath, metaPath, mapPath}, nil
	}
	return []string{gmmPath, logregPath, metaPath, mapPath, comparePath}, nil
}

func writeComparisonChart(merged *table.Table, mixture *risk.MixtureResult, classifier *risk.ClassifierResult, opts risk.TrainOptions, path string) error {
	if len(opts.Features) < 2 {
		return eris.New("comparison chart needs two feature columns")
	}
	x, err := merged.FloatColumn(opts.Features[0])
	if err != nil {
		return err
	}
	y, err := merged.FloatColumn(opts.Features[1])
	if err != nil {
		return err
	}
	target, err := merged.FloatColumn(opts.TargetCol)
	if err != nil {
		return err
	}

	gmmProbs := make([]float64, len(mixture.Assignment))
	for i, c := range mixture.Assignment {
		gmmProbs[i] = mixture.ClusterMap[c]
	}

	return chart.ModelComparison(x, y, opts.Features[0], opts.Features[1], []chart.ComparePanel{
		{Title: opts.TargetCol, Values: target},
		{Title: "GMM Risk (Unsupervised)", Values: gmmProbs, Min: 0, Max: 1},
		{Title: "Logistic Risk (Supervised)", Values: classifier.PFailure, Min: 0, Max: 1},
	}, path)
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainBatchCSV, "batch", "", "historical batch log CSV (overrides config)")
	f.StringVar(&trainQCCSV, "qc", "", "QC results CSV (overrides config)")
	f.StringVar(&trainCOACSV, "coa", "", "COA data CSV (overrides config)")
	f.StringVar(&trainQCJoin, "qc-join", "", "batch-to-QC join type: inner or left (overrides config)")
	f.StringVar(&trainModelDir, "model-dir", "", "directory for model artifacts (overrides config)")

	rootCmd.AddCommand(trainCmd)
}
