package magnet

import (
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joeshaw/envdecode"
)

// Timeouts used by NewDefaultConfig.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second
)

// Config of a Client. Unexported fields are set by options.
type Config struct {
	BaseURL        string        `validate:"required,url" env:"MAGNET_BASE_URL"`
	ConnectTimeout time.Duration `validate:"gte=0" env:"MAGNET_CONNECT_TIMEOUT,default=5s"`
	ReadTimeout    time.Duration `validate:"gte=0" env:"MAGNET_READ_TIMEOUT,default=5s"`
	MaxBody        int64         `validate:"gt=0" env:"MAGNET_MAX_BODY,default=9223372036854775807"`

	errorf          func(format string, args ...interface{})
	client          HttpClient
	codec           Codec
	debug           io.Writer
	requestIDHeader string
}

var validate = validator.New()

func NewDefaultConfig() *Config {
	return &Config{
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		MaxBody:        math.MaxInt64,
		errorf:         log.Printf,
		codec:          DefaultCodec,
	}
}

// ConfigFromEnv returns the default config with BaseURL, timeouts and body
// limit overridden by MAGNET_* environment variables.
func ConfigFromEnv() (*Config, error) {
	config := NewDefaultConfig()
	if err := envdecode.StrictDecode(config); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	return config, nil
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

type Option func(*Config)

// ErrorLogger sets the sink for failed calls and cleanup errors.
func ErrorLogger(logger func(format string, args ...interface{})) Option {
	return func(config *Config) {
		config.errorf = logger
	}
}

// CustomHttpClient replaces the HTTP client built from the timeouts.
// Connect and header timeouts are then the responsibility of the custom
// client; the response body is still bounded by ReadTimeout.
func CustomHttpClient(client HttpClient) Option {
	return func(config *Config) {
		config.client = client
	}
}

func ConnectTimeout(timeout time.Duration) Option {
	return func(config *Config) {
		config.ConnectTimeout = timeout
	}
}

// ReadTimeout bounds the wait for response headers once the request is sent
// and then the wait for each read of the response body.
// A timeout is reported as offline.
func ReadTimeout(timeout time.Duration) Option {
	return func(config *Config) {
		config.ReadTimeout = timeout
	}
}

// MaxBody limits the size of response bodies.
func MaxBody(maxBody int64) Option {
	return func(config *Config) {
		config.MaxBody = maxBody
	}
}

func WithCodec(codec Codec) Option {
	return func(config *Config) {
		config.codec = codec
	}
}

// Debug dumps every request as a curl command and every response to w.
func Debug(w io.Writer) Option {
	return func(config *Config) {
		config.debug = w
	}
}

// RequestID sets the header to a random UUID on every request, unless the
// call sets it explicitly through a HeaderMap argument.
func RequestID(header string) Option {
	return func(config *Config) {
		config.requestIDHeader = header
	}
}
