package reconcile

// Config is the reconcile section of the application configuration.
// Every value can be overridden per run.
type Config struct {
	// BatchSize is the number of records per ledger lookup.
	BatchSize int `mapstructure:"batch_size" default:"1000"`
	// Workers is the worker pool size.
	Workers int `mapstructure:"workers" default:"4"`
	// TimeToleranceMinutes is the fuzzy matching time window.
	TimeToleranceMinutes float64 `mapstructure:"time_tolerance_minutes" default:"15"`
	// AmountTolerancePercent is the fuzzy matching amount window.
	AmountTolerancePercent float64 `mapstructure:"amount_tolerance_percent" default:"1.0"`
	// MatchThreshold is the minimum fuzzy score.
	MatchThreshold float64 `mapstructure:"match_threshold" default:"0.8"`
	// FilePath is the default feed location (local path or s3://bucket/key).
	FilePath string `mapstructure:"file_path" default:""`
	// ReportPath is the default report location; the extension picks the format.
	ReportPath string `mapstructure:"report_path" default:"reports/reconciliation.xlsx"`
	// MinFields is the minimum number of positional fields per line.
	MinFields int `mapstructure:"min_fields" default:"42"`
	// Delimiter separates the fields of a line.
	Delimiter string `mapstructure:"delimiter" default:","`
}

// Options converts the configuration into run options.
func (c Config) Options() Options {
	return Options{
		BatchSize:              c.BatchSize,
		Workers:                c.Workers,
		TimeToleranceMinutes:   c.TimeToleranceMinutes,
		AmountTolerancePercent: c.AmountTolerancePercent,
		MatchThreshold:         c.MatchThreshold,
	}
}

// Format returns the feed format described by the configuration.
func (c Config) Format() *DelimitedFormat {
	return NewDelimitedFormat(c.Delimiter, c.MinFields)
}
