package anonymization

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/fairml/internal/observability/metrics"
	"github.com/inferloop/fairml/internal/partition"
	"github.com/inferloop/fairml/internal/preprocessing"
	"github.com/inferloop/fairml/pkg/errors"
	"github.com/inferloop/fairml/pkg/interfaces"
	"github.com/inferloop/fairml/pkg/models"
)

// Config holds the parameters of a model-guided anonymization.
type Config struct {
	// K is the privacy parameter: every released record is
	// indistinguishable from at least K-1 others on the quasi-identifiers.
	// Must be at least 2.
	K int `json:"k"`

	// QuasiIdentifiers names the feature columns to be minimized.
	QuasiIdentifiers []string `json:"quasi_identifiers"`

	// QuasiIdentifierGroups lists sets of quasi-identifier columns that
	// jointly encode one logical attribute (one-hot encodings) and must be
	// rewritten atomically.
	QuasiIdentifierGroups [][]string `json:"quasi_identifier_groups,omitempty"`

	// CategoricalFeatures names the discrete feature columns. Required
	// whenever the dataset contains non-numeric columns.
	CategoricalFeatures []string `json:"categorical_features,omitempty"`

	// IsRegression selects regression-mode partitioning; the default is
	// classification.
	IsRegression bool `json:"is_regression"`

	// TrainOnlyQI restricts partition-model training to the
	// quasi-identifier columns.
	TrainOnlyQI bool `json:"train_only_qi"`
}

func getDefaultConfig() *Config {
	return &Config{K: 2}
}

// Anonymizer performs tailored, model-guided k-anonymization of training
// datasets: a decision-tree partitioner trained against the original
// model's predictions defines equivalence classes of at least K rows, and
// every row's quasi-identifier values are replaced by its class
// representatives.
//
// Anonymizer is stateless across calls except for configuration: each
// Anonymize invocation fits a fresh partition model and discards it.
type Anonymizer struct {
	config   *Config
	logger   *logrus.Logger
	newModel interfaces.PartitionModelFactory
	metrics  *metrics.PrometheusMetrics
}

// NewAnonymizer creates an Anonymizer backed by the built-in deterministic
// tree partitioner.
func NewAnonymizer(config *Config, logger *logrus.Logger) *Anonymizer {
	if config == nil {
		config = getDefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Anonymizer{
		config: config,
		logger: logger,
		newModel: func(isRegression bool) interfaces.PartitionModel {
			if isRegression {
				return partition.NewTree(partition.ModeRegression)
			}
			return partition.NewTree(partition.ModeClassification)
		},
	}
}

// SetModelFactory replaces the partition-model capability. Any tree learner
// satisfying interfaces.PartitionModel can back the anonymization.
func (a *Anonymizer) SetModelFactory(factory interfaces.PartitionModelFactory) {
	if factory != nil {
		a.newModel = factory
	}
}

// SetMetrics attaches run instrumentation.
func (a *Anonymizer) SetMetrics(pm *metrics.PrometheusMetrics) {
	a.metrics = pm
}

// Anonymize runs the full pipeline: validate, train the partition model,
// build equivalence classes, select representatives, and rewrite rows.
// target holds one value per dataset row, typically the original model's
// prediction. The call either returns a fully anonymized dataset or fails
// with no partial output.
func (a *Anonymizer) Anonymize(ctx context.Context, ds *models.Dataset, target []models.Value) (*models.Dataset, error) {
	runID := uuid.NewString()
	start := time.Now()
	mode := "classification"
	if a.config.IsRegression {
		mode = "regression"
	}

	log := a.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"k":      a.config.K,
		"mode":   mode,
	})

	a.metrics.RunStarted()
	out, numCells, err := a.run(ctx, ds, target, log)
	if err != nil {
		a.metrics.RunFailed(mode, errorType(err), time.Since(start))
		log.WithError(err).Error("Anonymization failed")
		return nil, err
	}

	a.metrics.RunCompleted(mode, ds.NumRows(), numCells, time.Since(start))
	log.WithFields(logrus.Fields{
		"rows":     ds.NumRows(),
		"cells":    numCells,
		"duration": time.Since(start),
	}).Info("Anonymization complete")
	return out, nil
}

func (a *Anonymizer) run(ctx context.Context, ds *models.Dataset, target []models.Value, log *logrus.Entry) (*models.Dataset, int, error) {
	if err := a.validate(ds, target); err != nil {
		return nil, 0, err
	}

	qi, groups, categorical := a.resolveIndexes(ds)
	catSet := make(map[int]bool, len(categorical))
	for _, c := range categorical {
		catSet[c] = true
	}

	used := qi
	if !a.config.TrainOnlyQI {
		used = make([]int, ds.NumFeatures())
		for i := range used {
			used[i] = i
		}
	}

	encoder := preprocessing.NewEncoder(used, categorical)
	matrix, err := encoder.FitTransform(ds)
	if err != nil {
		return nil, 0, errors.WrapError(err, errors.ErrorTypeInternal, errors.CodeInternalError,
			"failed to encode training matrix")
	}

	y, err := a.encodeTarget(target)
	if err != nil {
		return nil, 0, err
	}

	log.WithFields(logrus.Fields{
		"rows":          ds.NumRows(),
		"matrix_width":  encoder.Width(),
		"train_only_qi": a.config.TrainOnlyQI,
	}).Info("Training partition model")

	model := a.newModel(a.config.IsRegression)
	if err := model.Fit(ctx, matrix, y, a.config.K); err != nil {
		// partition-model failures propagate unmodified
		return nil, 0, err
	}

	cells, err := buildCells(model)
	if err != nil {
		return nil, 0, err
	}
	assignments, err := assignCells(model, matrix, cells)
	if err != nil {
		return nil, 0, err
	}
	log.WithField("cells", len(cells)).Debug("Equivalence classes built")

	selectRepresentatives(ds, assignments, cells, qi, groups, catSet)

	kinds := ds.ColumnKinds()
	out := rewriteRows(ds, assignments, cells, kinds)
	return out, len(cells), nil
}

// validate enforces every configuration and shape constraint before any
// model training happens. All failures are fatal and non-retryable.
func (a *Anonymizer) validate(ds *models.Dataset, target []models.Value) error {
	if ds == nil || ds.NumFeatures() == 0 || ds.NumRows() == 0 {
		return errors.NewConfigurationError(errors.CodeNoData, errors.ErrNoData.Error())
	}
	if err := ds.Validate(); err != nil {
		return errors.NewShapeMismatchError(errors.ErrRaggedRow.Error()).WithDetails(err.Error())
	}
	if a.config.K < 2 {
		return errors.NewConfigurationError(errors.CodeInvalidK, errors.ErrInvalidK.Error()).
			WithContext("k", a.config.K)
	}
	if len(a.config.QuasiIdentifiers) == 0 {
		return errors.NewConfigurationError(errors.CodeNoQuasiIdentifiers, errors.ErrNoQuasiIdentifiers.Error())
	}
	for _, qi := range a.config.QuasiIdentifiers {
		if ds.FeatureIndex(qi) < 0 {
			return errors.NewConfigurationError(errors.CodeUnknownFeature, errors.ErrUnknownQuasiIdentifier.Error()).
				WithContext("feature", qi)
		}
	}
	for _, cat := range a.config.CategoricalFeatures {
		if ds.FeatureIndex(cat) < 0 {
			return errors.NewConfigurationError(errors.CodeUnknownFeature, errors.ErrUnknownCategorical.Error()).
				WithContext("feature", cat)
		}
	}
	qiSet := make(map[string]bool, len(a.config.QuasiIdentifiers))
	for _, qi := range a.config.QuasiIdentifiers {
		qiSet[qi] = true
	}
	for _, group := range a.config.QuasiIdentifierGroups {
		for _, member := range group {
			if !qiSet[member] {
				return errors.NewConfigurationError(errors.CodeUnknownFeature, errors.ErrUnknownGroupMember.Error()).
					WithContext("feature", member)
			}
		}
	}
	if len(target) != ds.NumRows() {
		return errors.NewShapeMismatchError(errors.ErrRowCountMismatch.Error()).
			WithDetails(fmt.Sprintf("features has %d rows, target has %d", ds.NumRows(), len(target)))
	}
	if ds.HasCategoricalColumns() && len(a.config.CategoricalFeatures) == 0 {
		return errors.NewConfigurationError(errors.CodeMissingCategorical, errors.ErrMissingCategorical.Error())
	}
	return nil
}

// resolveIndexes maps the configured feature names to dataset column
// indexes, in dataset column order.
func (a *Anonymizer) resolveIndexes(ds *models.Dataset) (qi []int, groups [][]int, categorical []int) {
	qiSet := make(map[string]bool, len(a.config.QuasiIdentifiers))
	for _, name := range a.config.QuasiIdentifiers {
		qiSet[name] = true
	}
	catSet := make(map[string]bool, len(a.config.CategoricalFeatures))
	for _, name := range a.config.CategoricalFeatures {
		catSet[name] = true
	}
	for i, f := range ds.Features {
		if qiSet[f] {
			qi = append(qi, i)
		}
		if catSet[f] {
			categorical = append(categorical, i)
		}
	}
	for _, group := range a.config.QuasiIdentifierGroups {
		memberSet := make(map[string]bool, len(group))
		for _, name := range group {
			memberSet[name] = true
		}
		var resolved []int
		for i, f := range ds.Features {
			if memberSet[f] {
				resolved = append(resolved, i)
			}
		}
		groups = append(groups, resolved)
	}
	return qi, groups, categorical
}

// encodeTarget maps the target vector to float64 values: numeric targets
// pass through, categorical labels are coded in first occurrence order.
// Regression mode requires a numeric target.
func (a *Anonymizer) encodeTarget(target []models.Value) ([]float64, error) {
	y := make([]float64, len(target))
	codes := make(map[string]float64)
	for i, v := range target {
		if v.IsNumeric() {
			y[i] = v.Float
			continue
		}
		if a.config.IsRegression {
			return nil, errors.NewConfigurationError(errors.CodeInvalidTarget,
				errors.ErrNonNumericTarget.Error()).WithContext("row", i)
		}
		code, ok := codes[v.Label]
		if !ok {
			code = float64(len(codes))
			codes[v.Label] = code
		}
		y[i] = code
	}
	return y, nil
}

func errorType(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return string(appErr.Type)
	}
	return "unknown"
}
