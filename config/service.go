package config

// Service configures cmd/backoffd.
type Service struct {
	Addr     string `mapstructure:"addr"`
	LogLevel string `mapstructure:"log_level"`

	// MaxPreviewAttempts bounds the number of decisions a schedule preview may simulate.
	MaxPreviewAttempts int `mapstructure:"max_preview_attempts"`

	// Backoff is the schedule served when a preview request sets no parameters.
	Backoff Backoff `mapstructure:"backoff"`
}

// Defaults fills unset fields.
func (s *Service) Defaults() {
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.MaxPreviewAttempts <= 0 {
		s.MaxPreviewAttempts = 100
	}
}
