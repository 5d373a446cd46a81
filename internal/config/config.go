// Package config loads batchsight configuration from file, environment
// and defaults, and owns global logger initialization.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration. Every path the old
// scripts hardcoded lives here instead.
type Config struct {
	Data  DataConfig  `yaml:"data" mapstructure:"data"`
	Merge MergeConfig `yaml:"merge" mapstructure:"merge"`
	Risk  RiskConfig  `yaml:"risk" mapstructure:"risk"`
	SPC   SPCConfig   `yaml:"spc" mapstructure:"spc"`
	Store StoreConfig `yaml:"store" mapstructure:"store"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// DataConfig holds input and output file locations.
type DataConfig struct {
	BatchCSV   string `yaml:"batch_csv" mapstructure:"batch_csv"`
	QCCSV      string `yaml:"qc_csv" mapstructure:"qc_csv"`
	COACSV     string `yaml:"coa_csv" mapstructure:"coa_csv"`
	DefectsCSV string `yaml:"defects_csv" mapstructure:"defects_csv"`
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`
	ModelDir   string `yaml:"model_dir" mapstructure:"model_dir"`
	HistoryLog string `yaml:"history_log" mapstructure:"history_log"`
}

// MergeConfig configures the batch/QC/COA merge.
type MergeConfig struct {
	// QCJoin is the join type for batch against QC: inner or left.
	// Training flows default to inner, summary flows to left.
	QCJoin string `yaml:"qc_join" mapstructure:"qc_join"`
}

// RiskConfig configures risk scoring and model training.
type RiskConfig struct {
	Strategy      string   `yaml:"strategy" mapstructure:"strategy"` // rule, gmm or logreg
	Features      []string `yaml:"features" mapstructure:"features"`
	TargetCol     string   `yaml:"target_col" mapstructure:"target_col"`
	FailThreshold float64  `yaml:"fail_threshold" mapstructure:"fail_threshold"`
	FlagThreshold float64  `yaml:"flag_threshold" mapstructure:"flag_threshold"`
	Clusters      int      `yaml:"clusters" mapstructure:"clusters"`
	Seed          int64    `yaml:"seed" mapstructure:"seed"`
}

// SPCConfig configures the SPC summary flow.
type SPCConfig struct {
	ValueColumn      string  `yaml:"value_column" mapstructure:"value_column"`
	OutlierMethod    string  `yaml:"outlier_method" mapstructure:"outlier_method"` // zscore or iqr
	OutlierThreshold float64 `yaml:"outlier_threshold" mapstructure:"outlier_threshold"`
}

// StoreConfig configures the run registry backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BATCHSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.output_dir", "output")
	v.SetDefault("data.model_dir", "output")
	v.SetDefault("data.history_log", "output/batch_history_log.csv")
	v.SetDefault("merge.qc_join", "inner")
	v.SetDefault("risk.strategy", "logreg")
	v.SetDefault("risk.features", []string{"component_A", "avg_pH"})
	v.SetDefault("risk.target_col", "viability_pct")
	v.SetDefault("risk.fail_threshold", 70.0)
	v.SetDefault("risk.flag_threshold", 0.5)
	v.SetDefault("risk.clusters", 2)
	v.SetDefault("risk.seed", 1)
	v.SetDefault("spc.outlier_method", "zscore")
	v.SetDefault("spc.outlier_threshold", 3.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "output/batchsight.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// WriteDefault writes a starter config file holding the default
// settings. Fails if the file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return eris.Wrap(err, "config: build defaults")
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "config: write %s", path)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
