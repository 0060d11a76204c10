package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Runtime flags, set from the command line rather than the config file.
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

// SchedulerConfig carries the memory-model and queue defaults. Weights are
// not configured here: the global defaults are a versioned constant and
// per-learner weights come from the optimizer.
type SchedulerConfig struct {
	DesiredRetention       float64 `mapstructure:"desired_retention"`
	LearningStepsMinutes   []int   `mapstructure:"learning_steps_minutes"`
	RelearningStepsMinutes []int   `mapstructure:"relearning_steps_minutes"`
	MinIntervalDays        int     `mapstructure:"min_interval_days"`
	MaxIntervalDays        int     `mapstructure:"max_interval_days"`
	EnableFuzz             bool    `mapstructure:"enable_fuzz"`
	NewCardsPerSession     int     `mapstructure:"new_cards_per_session"`
	MaxReviewsPerSession   int     `mapstructure:"max_reviews_per_session"`
	SessionTTLMinutes      int     `mapstructure:"session_ttl_minutes"`
	ReviewRetryAttempts    int     `mapstructure:"review_retry_attempts"`
}

type OptimizerConfig struct {
	Epochs        int     `mapstructure:"epochs"`
	MiniBatchSize int     `mapstructure:"mini_batch_size"`
	LearningRate  float64 `mapstructure:"learning_rate"`
	MaxSeqLen     int     `mapstructure:"max_seq_len"`
	MinSamples    int     `mapstructure:"min_samples"`
	Workers       int     `mapstructure:"workers"`
	PollSeconds   int     `mapstructure:"poll_seconds"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("SRS")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	applySchedulerDefaults(&cfg.Scheduler)
	applyOptimizerDefaults(&cfg.Optimizer)

	return &cfg, nil
}

func applySchedulerDefaults(s *SchedulerConfig) {
	if s.DesiredRetention == 0 {
		s.DesiredRetention = 0.9
	}
	if s.LearningStepsMinutes == nil {
		s.LearningStepsMinutes = []int{1, 10}
	}
	if s.RelearningStepsMinutes == nil {
		s.RelearningStepsMinutes = []int{10}
	}
	if s.MinIntervalDays == 0 {
		s.MinIntervalDays = 1
	}
	if s.MaxIntervalDays == 0 {
		s.MaxIntervalDays = 36500
	}
	if s.NewCardsPerSession == 0 {
		s.NewCardsPerSession = 20
	}
	if s.MaxReviewsPerSession == 0 {
		s.MaxReviewsPerSession = 200
	}
	if s.SessionTTLMinutes == 0 {
		s.SessionTTLMinutes = 12 * 60
	}
	if s.ReviewRetryAttempts == 0 {
		s.ReviewRetryAttempts = 3
	}
}

func applyOptimizerDefaults(o *OptimizerConfig) {
	if o.Epochs == 0 {
		o.Epochs = 5
	}
	if o.MiniBatchSize == 0 {
		o.MiniBatchSize = 512
	}
	if o.LearningRate == 0 {
		o.LearningRate = 0.04
	}
	if o.MaxSeqLen == 0 {
		o.MaxSeqLen = 64
	}
	if o.MinSamples == 0 {
		o.MinSamples = 512
	}
	if o.Workers == 0 {
		o.Workers = 2
	}
	if o.PollSeconds == 0 {
		o.PollSeconds = 30
	}
}

// LearningSteps converts the configured minutes into durations.
func (s *SchedulerConfig) LearningSteps() []time.Duration {
	return minutesToDurations(s.LearningStepsMinutes)
}

// RelearningSteps converts the configured minutes into durations.
func (s *SchedulerConfig) RelearningSteps() []time.Duration {
	return minutesToDurations(s.RelearningStepsMinutes)
}

func minutesToDurations(minutes []int) []time.Duration {
	out := make([]time.Duration, len(minutes))
	for i, m := range minutes {
		out[i] = time.Duration(m) * time.Minute
	}
	return out
}
