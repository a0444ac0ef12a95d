package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures the full configuration surface for the application.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Scylla    ScyllaConfig    `mapstructure:"scylla"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Telephony TelephonyConfig `mapstructure:"telephony"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Campaign  CampaignConfig  `mapstructure:"campaign"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Outcomes  OutcomesConfig  `mapstructure:"outcomes"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

type ScyllaConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Hosts             []string      `mapstructure:"hosts"`
	Port              int           `mapstructure:"port"`
	Keyspace          string        `mapstructure:"keyspace"`
	Consistency       string        `mapstructure:"consistency"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
	DisableInitSchema bool          `mapstructure:"disable_init_schema"`
}

type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	ClientID        string        `mapstructure:"client_id"`
	OutcomeTopic    string        `mapstructure:"outcome_topic"`
	ConsumerGroupID string        `mapstructure:"consumer_group_id"`
	CommitInterval  time.Duration `mapstructure:"commit_interval"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialSlotTTL  time.Duration `mapstructure:"dial_slot_ttl"`
}

type TelemetryConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	ServiceName     string        `mapstructure:"service_name"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	TracingEnabled  bool          `mapstructure:"tracing_enabled"`
	Insecure        bool          `mapstructure:"insecure"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TelephonyConfig selects and configures the call-placement provider.
type TelephonyConfig struct {
	Provider        string        `mapstructure:"provider"`
	AccountSID      string        `mapstructure:"account_sid"`
	AuthToken       string        `mapstructure:"auth_token"`
	CallerID        string        `mapstructure:"caller_id"`
	WebhookBaseURL  string        `mapstructure:"webhook_base_url"`
	SpeechTimeout   string        `mapstructure:"speech_timeout"`
	MockConnectRate float64       `mapstructure:"mock_connect_rate"`
	MockAnswerDelay time.Duration `mapstructure:"mock_answer_delay"`
}

// LLMConfig configures the language-model backed conversation engine.
type LLMConfig struct {
	Provider         string        `mapstructure:"provider"`
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	Model            string        `mapstructure:"model"`
	Temperature      float64       `mapstructure:"temperature"`
	MaxTokens        int64         `mapstructure:"max_tokens"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// Enabled reports whether an LLM backend is configured.
func (c LLMConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != "none" && c.APIKey != ""
}

type AgentConfig struct {
	Name       string `mapstructure:"name"`
	Voice      string `mapstructure:"voice"`
	PitchStyle string `mapstructure:"pitch_style"`
}

// CampaignConfig holds scheduler pacing and the defaults applied to new campaigns.
type CampaignConfig struct {
	MaxCallsPerDay  int           `mapstructure:"max_calls_per_day"`
	CallHoursStart  string        `mapstructure:"call_hours_start"`
	CallHoursEnd    string        `mapstructure:"call_hours_end"`
	Timezone        string        `mapstructure:"timezone"`
	InterCallDelay  time.Duration `mapstructure:"inter_call_delay"`
	MaxCallDuration time.Duration `mapstructure:"max_call_duration"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	MaxTurns        int           `mapstructure:"max_turns"`
}

type DiscoveryConfig struct {
	DefaultRadius int `mapstructure:"default_radius"`
	DefaultLimit  int `mapstructure:"default_limit"`
}

// OutcomesConfig chooses how call outcomes reach lead storage: "direct" or "kafka".
type OutcomesConfig struct {
	Mode string `mapstructure:"mode"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("COLDCALL")
	v.SetEnvKeyReplacer(NewEnvReplacer())
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file: %w", err)
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints viper cannot express.
func (c *Config) Validate() error {
	switch c.Telephony.Provider {
	case "mock":
	case "twilio":
		if c.Telephony.AccountSID == "" || c.Telephony.AuthToken == "" {
			return fmt.Errorf("config: telephony.account_sid and telephony.auth_token are required for twilio")
		}
		if c.Telephony.WebhookBaseURL == "" {
			return fmt.Errorf("config: telephony.webhook_base_url is required for twilio")
		}
	default:
		return fmt.Errorf("config: unknown telephony.provider %q", c.Telephony.Provider)
	}
	switch c.Outcomes.Mode {
	case "direct":
	case "kafka":
		if !c.Kafka.Enabled {
			return fmt.Errorf("config: outcomes.mode kafka requires kafka.enabled")
		}
	default:
		return fmt.Errorf("config: unknown outcomes.mode %q", c.Outcomes.Mode)
	}
	if c.Campaign.MaxAttempts <= 0 {
		return fmt.Errorf("config: campaign.max_attempts must be positive")
	}
	return nil
}

// NewEnvReplacer standardizes environment variable names.
func NewEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "coldcall-agent")
	v.SetDefault("app.env", "development")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.body_limit", 8<<20)

	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)

	v.SetDefault("scylla.port", 9042)
	v.SetDefault("scylla.keyspace", "coldcall")
	v.SetDefault("scylla.consistency", "quorum")
	v.SetDefault("scylla.timeout", 5*time.Second)
	v.SetDefault("scylla.replication_factor", 1)

	v.SetDefault("kafka.client_id", "coldcall-agent")
	v.SetDefault("kafka.outcome_topic", "call-outcomes")
	v.SetDefault("kafka.consumer_group_id", "coldcall-leadworker")
	v.SetDefault("kafka.commit_interval", time.Second)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.dial_slot_ttl", 15*time.Minute)

	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.shutdown_timeout", 5*time.Second)

	v.SetDefault("telephony.provider", "mock")
	v.SetDefault("telephony.speech_timeout", "auto")
	v.SetDefault("telephony.mock_connect_rate", 0.8)
	v.SetDefault("telephony.mock_answer_delay", 500*time.Millisecond)

	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 150)
	v.SetDefault("llm.timeout", 8*time.Second)
	v.SetDefault("llm.failure_threshold", 3)
	v.SetDefault("llm.cooldown", 30*time.Second)

	v.SetDefault("agent.name", "Sarah")
	v.SetDefault("agent.voice", "professional-female")
	v.SetDefault("agent.pitch_style", "conversational")

	v.SetDefault("campaign.max_calls_per_day", 50)
	v.SetDefault("campaign.call_hours_start", "09:00")
	v.SetDefault("campaign.call_hours_end", "17:00")
	v.SetDefault("campaign.timezone", "America/New_York")
	v.SetDefault("campaign.inter_call_delay", 5*time.Second)
	v.SetDefault("campaign.max_call_duration", 10*time.Minute)
	v.SetDefault("campaign.max_attempts", 3)
	v.SetDefault("campaign.max_turns", 20)

	v.SetDefault("discovery.default_radius", 10)
	v.SetDefault("discovery.default_limit", 20)

	v.SetDefault("outcomes.mode", "direct")
}
