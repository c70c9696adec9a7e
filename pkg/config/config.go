package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/logger"
	"MacroPull/pkg/util"
)

// Source names understood by the adapter registry.
const (
	SourceYahoo            = "yahoo"
	SourceFRED             = "fred"
	SourceStatFeed         = "statfeed"
	SourceTradingEconomics = "tradingeconomics"
	SourceManual           = "manual"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Logging     logger.Config `yaml:"logging"`

	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Markets     []Market          `yaml:"markets" validate:"required,min=1,dive"`
	FX          FXConfig          `yaml:"fx"`
	Commodities CommoditiesConfig `yaml:"commodities"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`

	Server     ServerConfig     `yaml:"server"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Redis      RedisConfig      `yaml:"redis"`
}

type PipelineConfig struct {
	Workers        int           `yaml:"workers" default:"4" validate:"min=1,max=64"`
	LookbackMonths int           `yaml:"lookback_months" default:"24" validate:"min=1,max=600"`
	HistoryMonths  int           `yaml:"history_months" default:"12" validate:"min=1,max=600"`
	CallTimeout    time.Duration `yaml:"call_timeout" default:"45s"`
	// Markets restricts the run to these codes; empty means all.
	Markets []string `yaml:"selected_markets"`
}

// SourceRef names one candidate: adapter, identifier and value scale.
type SourceRef struct {
	Source string  `yaml:"source" validate:"required,oneof=yahoo fred statfeed tradingeconomics manual"`
	ID     string  `yaml:"id" validate:"required"`
	Scale  float64 `yaml:"scale" default:"1"`
}

type Market struct {
	Code string `yaml:"code" validate:"required"`
	Name string `yaml:"name" validate:"required"`

	TenYearTicker   string     `yaml:"ten_year_ticker" validate:"required"`
	TenYearScale    float64    `yaml:"ten_year_scale" default:"1"`
	TenYearFallback *SourceRef `yaml:"ten_year_fallback"`

	EquityTicker   string     `yaml:"equity_ticker" validate:"required"`
	EquityName     string     `yaml:"equity_name"`
	EquityFallback *SourceRef `yaml:"equity_fallback"`

	CPI          []SourceRef `yaml:"cpi" validate:"dive"`
	CPIFrequency string      `yaml:"cpi_frequency" default:"monthly" validate:"oneof=monthly quarterly"`
	PolicyRate   []SourceRef `yaml:"policy_rate" validate:"dive"`
	PolicyName   string      `yaml:"policy_name"`
}

type FXConfig struct {
	AUDUSD   string `yaml:"audusd" default:"AUDUSD=X"`
	DXYProxy string `yaml:"dxy_proxy" default:"UUP"`
}

type CommoditiesConfig struct {
	Gold  string `yaml:"gold" default:"GC=F"`
	WTI   string `yaml:"wti" default:"CL=F"`
	Brent string `yaml:"brent" default:"BZ=F"`

	IronOreCandidates      []string `yaml:"iron_ore_candidates"`
	IronOreTradingEconomic string   `yaml:"iron_ore_tradingeconomics_series"`
}

type ProvidersConfig struct {
	Yahoo            YahooConfig            `yaml:"yahoo"`
	FRED             FREDConfig             `yaml:"fred"`
	TradingEconomics TradingEconomicsConfig `yaml:"tradingeconomics"`
	Manual           ManualConfig           `yaml:"manual"`
	Feeds            map[string]FeedConfig  `yaml:"feeds" validate:"dive"`
	Breaker          BreakerConfig          `yaml:"breaker"`
}

type YahooConfig struct {
	BaseURL   string        `yaml:"base_url" default:"https://query1.finance.yahoo.com/v8/finance/chart"`
	Timeout   time.Duration `yaml:"timeout" default:"30s"`
	RateLimit float64       `yaml:"rate_limit" default:"2"`
	UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; macropull/1.0)"`
}

type FREDConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred/series/observations"`
	GraphURL   string        `yaml:"graph_url" default:"https://fred.stlouisfed.org/graph/fredgraph.csv"`
	Timeout    time.Duration `yaml:"timeout" default:"30s"`
	RateLimit  float64       `yaml:"rate_limit" default:"2"`
	StartFloor string        `yaml:"start_floor" default:"2000-01-01"`
}

type TradingEconomicsConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url" default:"https://api.tradingeconomics.com"`
	Timeout   time.Duration `yaml:"timeout" default:"45s"`
	RateLimit float64       `yaml:"rate_limit" default:"1"`
}

type ManualConfig struct {
	Dir string `yaml:"dir" default:"data/manual"`
}

// FeedConfig maps one government CSV table to dates and columns.
type FeedConfig struct {
	URL        string        `yaml:"url" validate:"required,url"`
	HeaderRow  string        `yaml:"header_row"`
	IDRow      string        `yaml:"id_row"`
	DateColumn int           `yaml:"date_column" validate:"min=0"`
	Keywords   []string      `yaml:"keywords"`
	Timeout    time.Duration `yaml:"timeout" default:"45s"`
	RateLimit  float64       `yaml:"rate_limit" default:"1"`
}

type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures" default:"5"`
	OpenTimeout time.Duration `yaml:"open_timeout" default:"60s"`
}

type DiagnosticsConfig struct {
	// Sinks lists enabled writers in fan-out order.
	Sinks    []string      `yaml:"sinks" validate:"dive,oneof=file redis clickhouse sqlite"`
	Dir      string        `yaml:"dir" default:"data/cache"`
	SQLite   string        `yaml:"sqlite_path" default:"data/diagnostics.db"`
	RedisTTL time.Duration `yaml:"redis_ttl" default:"168h"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	DatasetTTL      time.Duration `yaml:"dataset_ttl" default:"1h"`
	OutDir          string        `yaml:"out_dir" default:"reports"`
	// CORSOrigins allows browser clients on these origins to read datasets.
	CORSOrigins []string `yaml:"cors_origins"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"macro.dataset"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type ClickHouseConfig struct {
	Host         string        `yaml:"host" default:"localhost"`
	Port         int           `yaml:"port" default:"9000"`
	Database     string        `yaml:"database" default:"macro"`
	User         string        `yaml:"user" default:"default"`
	Password     string        `yaml:"password"`
	UseHTTP      bool          `yaml:"use_http"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
	MaxExecution time.Duration `yaml:"max_execution_time" default:"60s"`
	AsyncInsert  bool          `yaml:"async_insert"`
}

type RedisConfig struct {
	// Enabled backs the dataset cache with Redis and allows the redis sink.
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"macropull"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w: %w", models.ErrInvalidConfiguration, err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w: %w", models.ErrInvalidConfiguration, err)
	}
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.Providers.FRED.APIKey = v
	}
	if v := os.Getenv("TE_API_KEY"); v != "" {
		c.Providers.TradingEconomics.APIKey = v
	}
	if v := os.Getenv("MARKETS"); v != "" {
		c.Pipeline.Markets = util.SplitList(v)
	}
	if v := os.Getenv("DIAGNOSTICS_DIR"); v != "" {
		c.Diagnostics.Dir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w: %w", models.ErrInvalidConfiguration, err)
	}
	// defaults leaves nil pointers and explicit zeros alone.
	for i := range c.Markets {
		m := &c.Markets[i]
		fixScale(m.TenYearFallback)
		fixScale(m.EquityFallback)
		for j := range m.CPI {
			fixScale(&m.CPI[j])
		}
		for j := range m.PolicyRate {
			fixScale(&m.PolicyRate[j])
		}
		if m.TenYearScale == 0 {
			m.TenYearScale = 1
		}
		if m.CPIFrequency == "" {
			m.CPIFrequency = string(models.FrequencyMonthly)
		}
	}
	if len(c.Diagnostics.Sinks) == 0 {
		c.Diagnostics.Sinks = []string{"file"}
	}
	return nil
}

func fixScale(ref *SourceRef) {
	if ref != nil && ref.Scale == 0 {
		ref.Scale = 1
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", models.ErrInvalidConfiguration, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", models.ErrInvalidConfiguration, err)
	}

	seen := make(map[string]struct{}, len(c.Markets))
	for _, m := range c.Markets {
		code := strings.ToLower(m.Code)
		if _, dup := seen[code]; dup {
			return fmt.Errorf("%w: duplicate market code %q", models.ErrInvalidConfiguration, m.Code)
		}
		seen[code] = struct{}{}

		for _, ref := range m.refs() {
			if ref.Source == SourceStatFeed {
				if _, ok := c.Providers.Feeds[feedName(ref.ID)]; !ok {
					return fmt.Errorf("%w: market %s references unknown feed %q", models.ErrInvalidConfiguration, m.Code, ref.ID)
				}
			}
		}
	}
	if c.Pipeline.HistoryMonths > c.Pipeline.LookbackMonths {
		return fmt.Errorf("%w: pipeline.history_months (%d) exceeds lookback_months (%d)",
			models.ErrInvalidConfiguration, c.Pipeline.HistoryMonths, c.Pipeline.LookbackMonths)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers cannot be empty when kafka is enabled", models.ErrInvalidConfiguration)
	}
	if c.HasSink("redis") && !c.Redis.Enabled {
		return fmt.Errorf("%w: diagnostics sink redis requires redis.enabled", models.ErrInvalidConfiguration)
	}
	return nil
}

// HasSink reports whether the diagnostics sink name is enabled.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Diagnostics.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// SelectMarkets filters markets by code. An empty selection means all; a
// selection that matches nothing is ErrNoMarketsSelected.
func (c *Config) SelectMarkets(codes []string) ([]Market, error) {
	if len(codes) == 0 {
		return c.Markets, nil
	}
	want := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		want[strings.ToLower(strings.TrimSpace(code))] = struct{}{}
	}
	var out []Market
	for _, m := range c.Markets {
		if _, ok := want[strings.ToLower(m.Code)]; ok {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrNoMarketsSelected, strings.Join(codes, ","))
	}
	return out, nil
}

func (m Market) refs() []SourceRef {
	var refs []SourceRef
	if m.TenYearFallback != nil {
		refs = append(refs, *m.TenYearFallback)
	}
	if m.EquityFallback != nil {
		refs = append(refs, *m.EquityFallback)
	}
	refs = append(refs, m.CPI...)
	return append(refs, m.PolicyRate...)
}

// feedName extracts the feed key from a statfeed identifier "<feed>:<series id>".
func feedName(id string) string {
	name, _, _ := strings.Cut(id, ":")
	return name
}
