package config

import (
	"context"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type contextKey string

func (c contextKey) String() string {
	return "lingo/config/" + string(c)
}

const (
	ctxKeyConfiguration = contextKey("configurationKey")

	defaultWorkerPoolExpiry  = time.Second
	defaultTranslationsCache = 10 * time.Minute
)

// ToContext adds service configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts service configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

type ConfigurationDefault struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogFormat     string `envDefault:"info"                      env:"LOG_FORMAT"      yaml:"log_format"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	LogShowStackTrace bool `envDefault:"false" env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	OpenTelemetryDisable    bool    `envDefault:"false" env:"OPENTELEMETRY_DISABLE"        yaml:"opentelemetry_disable"`
	OpenTelemetryTraceRatio float64 `envDefault:"0.1"   env:"OPENTELEMETRY_TRACE_ID_RATIO" yaml:"opentelemetry_trace_id_ratio"`

	ServiceName        string `envDefault:"" env:"SERVICE_NAME"        yaml:"service_name"`
	ServiceEnvironment string `envDefault:"" env:"SERVICE_ENVIRONMENT" yaml:"service_environment"`
	ServiceVersion     string `envDefault:"" env:"SERVICE_VERSION"     yaml:"service_version"`

	// Worker pool settings
	WorkerPoolCPUFactorForWorkerCount int    `envDefault:"10"  env:"WORKER_POOL_CPU_FACTOR_FOR_WORKER_COUNT" yaml:"worker_pool_cpu_factor_for_worker_count"`
	WorkerPoolCapacity                int    `envDefault:"100" env:"WORKER_POOL_CAPACITY"                    yaml:"worker_pool_capacity"`
	WorkerPoolCount                   int    `envDefault:"1"   env:"WORKER_POOL_COUNT"                       yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration          string `envDefault:"1s"  env:"WORKER_POOL_EXPIRY_DURATION"             yaml:"worker_pool_expiry_duration"`

	// Localization settings
	DefaultLanguage         string   `envDefault:"en"    env:"DEFAULT_LANGUAGE"          yaml:"default_language"`
	SupportedLanguages      []string `                   env:"SUPPORTED_LANGUAGES"       yaml:"supported_languages"`
	FallbackLanguages       []string `envDefault:"en"    env:"FALLBACK_LANGUAGES"        yaml:"fallback_languages"`
	FallbackLanguageMap     string   `                   env:"FALLBACK_LANGUAGE_MAP"     yaml:"fallback_language_map"`
	FallbackDecomposeRegion bool     `envDefault:"false" env:"FALLBACK_DECOMPOSE_REGION" yaml:"fallback_decompose_region"`

	TranslationsFolder     string `envDefault:"localization" env:"TRANSLATIONS_FOLDER"      yaml:"translations_folder"`
	TranslationsBackendURI string `                          env:"TRANSLATIONS_BACKEND_URI" yaml:"translations_backend_uri"`
	TranslationsCacheURI   string `                          env:"TRANSLATIONS_CACHE_URI"   yaml:"translations_cache_uri"`
	TranslationsCacheTTL   string `envDefault:"10m"          env:"TRANSLATIONS_CACHE_TTL"   yaml:"translations_cache_ttl"`
	TranslationsEventsURL  string `                          env:"TRANSLATIONS_EVENTS_URL"  yaml:"translations_events_url"`
}

type ConfigurationService interface {
	Name() string
	Environment() string
	Version() string
}

var _ ConfigurationService = new(ConfigurationDefault)

func (c *ConfigurationDefault) Name() string {
	return c.ServiceName
}
func (c *ConfigurationDefault) Environment() string {
	return c.ServiceEnvironment
}
func (c *ConfigurationDefault) Version() string {
	return c.ServiceVersion
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingFormat() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return strings.ToLower(c.LogLevel)
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingFormat() string {
	return strings.ToLower(c.LogFormat)
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationTelemetry interface {
	DisableOpenTelemetry() bool
	SamplingRatio() float64
}

var _ ConfigurationTelemetry = new(ConfigurationDefault)

func (c *ConfigurationDefault) DisableOpenTelemetry() bool {
	return c.OpenTelemetryDisable
}

func (c *ConfigurationDefault) SamplingRatio() float64 {
	return c.OpenTelemetryTraceRatio
}

type ConfigurationWorkerPool interface {
	GetCPUFactor() int
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCPUFactor() int {
	return c.WorkerPoolCPUFactorForWorkerCount
}

func (c *ConfigurationDefault) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *ConfigurationDefault) GetCount() int {
	return c.WorkerPoolCount
}

func (c *ConfigurationDefault) GetExpiryDuration() time.Duration {
	return parseDuration(c.WorkerPoolExpiryDuration, defaultWorkerPoolExpiry)
}

// ConfigurationLocalization describes the language and fallback settings of the runtime.
type ConfigurationLocalization interface {
	GetDefaultLanguage() string
	GetSupportedLanguages() []string
	GetFallbackLanguages() []string
	GetFallbackLanguageMap() string
	DecomposeRegion() bool
	GetTranslationsFolder() string
	GetTranslationsBackendURI() string
}

var _ ConfigurationLocalization = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetDefaultLanguage() string {
	return strings.TrimSpace(c.DefaultLanguage)
}

func (c *ConfigurationDefault) GetSupportedLanguages() []string {
	return trimAll(c.SupportedLanguages)
}

func (c *ConfigurationDefault) GetFallbackLanguages() []string {
	return trimAll(c.FallbackLanguages)
}

func (c *ConfigurationDefault) GetFallbackLanguageMap() string {
	return c.FallbackLanguageMap
}

func (c *ConfigurationDefault) DecomposeRegion() bool {
	return c.FallbackDecomposeRegion
}

func (c *ConfigurationDefault) GetTranslationsFolder() string {
	return c.TranslationsFolder
}

func (c *ConfigurationDefault) GetTranslationsBackendURI() string {
	return strings.TrimSpace(c.TranslationsBackendURI)
}

// ConfigurationCache describes where fetched bundles are cached.
type ConfigurationCache interface {
	GetTranslationsCacheURI() string
	GetTranslationsCacheTTL() time.Duration
}

var _ ConfigurationCache = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetTranslationsCacheURI() string {
	return strings.TrimSpace(c.TranslationsCacheURI)
}

func (c *ConfigurationDefault) GetTranslationsCacheTTL() time.Duration {
	return parseDuration(c.TranslationsCacheTTL, defaultTranslationsCache)
}

type ConfigurationEvents interface {
	GetTranslationsEventsURL() string
}

var _ ConfigurationEvents = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetTranslationsEventsURL() string {
	return strings.TrimSpace(c.TranslationsEventsURL)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
