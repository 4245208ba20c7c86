package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		EventsTable      string        `yaml:"events_table"`
		CalendarTable    string        `yaml:"calendar_table"`
	} `yaml:"clickhouse"`
	RateFeed struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Series         []string      `yaml:"series"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"ratefeed"`
	Calendar struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"calendar"`
	Model struct {
		ArtifactDir    string `yaml:"artifact_dir"`
		ShockSeries    string `yaml:"shock_series"`
		ResponseSeries string `yaml:"response_series"`
		LookbackYears  int    `yaml:"lookback_years"`
		Prior          struct {
			Lambda1        float64 `yaml:"lambda1"`
			Lambda2        float64 `yaml:"lambda2"`
			Lambda3        float64 `yaml:"lambda3"`
			Lambda4        float64 `yaml:"lambda4"`
			InterceptMean  float64 `yaml:"intercept_mean"`
			InterceptSigma float64 `yaml:"intercept_sigma"`
			Lags           int     `yaml:"lags"`
		} `yaml:"prior"`
		MonteCarlo struct {
			Draws        int    `yaml:"draws"`
			ExtendPolicy string `yaml:"extend_policy"`
		} `yaml:"monte_carlo"`
		LP struct {
			MaxHorizon int     `yaml:"max_horizon"`
			MaxLags    int     `yaml:"max_lags"`
			Alpha      float64 `yaml:"alpha"`
			Method     string  `yaml:"method"`
			L1Ratio    float64 `yaml:"l1_ratio"`
		} `yaml:"lp"`
		Bootstrap struct {
			Replications int   `yaml:"replications"`
			Seed         int64 `yaml:"seed"`
		} `yaml:"bootstrap"`
		Distribution struct {
			BinWidthBps    float64 `yaml:"bin_width_bps"`
			MinProbability float64 `yaml:"min_probability"`
			StdOverridePct float64 `yaml:"std_override_pct"`
		} `yaml:"distribution"`
		CalendarMap struct {
			DecayFast   float64 `yaml:"decay_fast"`
			DecayMid    float64 `yaml:"decay_mid"`
			DecaySlow   float64 `yaml:"decay_slow"`
			FastHorizon int     `yaml:"fast_horizon"`
			MidHorizon  int     `yaml:"mid_horizon"`
			MaxMeetings int     `yaml:"max_meetings"`
		} `yaml:"calendar_map"`
	} `yaml:"model"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	RefitQueue struct {
		Enabled    bool          `yaml:"enabled"`
		Name       string        `yaml:"name"`
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		Interval   time.Duration `yaml:"interval"`
	} `yaml:"refit_queue"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("RATEFEED_API_KEY"); v != "" {
		c.RateFeed.APIKey = v
	}
	if v := os.Getenv("RATE_SERIES"); v != "" {
		c.RateFeed.Series = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CALENDAR_SERVICE_URL"); v != "" {
		c.Calendar.ServiceURL = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.RateFeed.Series) == 0 {
		return fmt.Errorf("ratefeed.series cannot be empty")
	}
	if c.RateFeed.APIKey == "" {
		return fmt.Errorf("ratefeed.api_key is required")
	}
	if c.Model.ShockSeries == "" || c.Model.ResponseSeries == "" {
		return fmt.Errorf("model.shock_series and model.response_series are required")
	}
	return nil
}
