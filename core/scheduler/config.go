package scheduler

// Config is the schedule section of the application configuration.
type Config struct {
	// Enabled turns the recurring reconciliation on.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Cron is a six-field expression, seconds first.
	Cron string `mapstructure:"cron" default:"0 0 1 * * *"`
}
