package app

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"

    "github.com/hyperifyio/goactions/internal/client"
    "github.com/hyperifyio/goactions/internal/server"
)

// Output formats of the popup CLI.
const (
    FormatHTML = "html"
    FormatText = "text"
    FormatJSON = "json"
    FormatPDF  = "pdf"
)

// Config holds runtime configuration for the popup client.
type Config struct {
    // Endpoint is the extraction service URL.
    Endpoint string `validate:"required,http_url"`
    // Timeout bounds one extraction request; zero leaves it to the transport.
    Timeout time.Duration `validate:"gte=0"`

    // Notes, when NotesSet, is used verbatim; otherwise InputPath is read
    // ("-" means stdin).
    Notes     string
    NotesSet  bool
    InputPath string

    Format     string `validate:"oneof=html text json pdf"`
    OutputPath string `validate:"required_if=Format pdf"`

    // ServeAddr, when set, serves the popup page instead of a one-shot run.
    ServeAddr string `validate:"omitempty,hostname_port"`

    Verbose bool
}

// ServerConfig holds runtime configuration for the extraction service.
type ServerConfig struct {
    Addr        string `validate:"required,hostname_port"`
    Engine      string `validate:"oneof=rules llm"`
    CORSOrigins []string

    LLMBaseURL  string `validate:"omitempty,http_url"`
    LLMModel    string `validate:"required_if=Engine llm"`
    LLMAPIKey   string
    LLMFallback bool

    CacheDir         string
    CacheMaxAge      time.Duration `validate:"gte=0"`
    CacheClear       bool
    CacheStrictPerms bool

    Verbose bool
}

// DefaultConfig returns the popup defaults.
func DefaultConfig() Config {
    return Config{
        Endpoint:  client.DefaultEndpoint,
        InputPath: "-",
        Format:    FormatHTML,
    }
}

// DefaultServerConfig returns the service defaults.
func DefaultServerConfig() ServerConfig {
    return ServerConfig{
        Addr:        server.DefaultAddr,
        Engine:      "rules",
        CORSOrigins: []string{"*"},
        LLMFallback: true,
    }
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfig checks the popup configuration.
func ValidateConfig(cfg Config) error {
    return describe(validate.Struct(cfg))
}

// ValidateServerConfig checks the service configuration.
func ValidateServerConfig(cfg ServerConfig) error {
    return describe(validate.Struct(cfg))
}

// describe flattens validator errors into one readable config error.
func describe(err error) error {
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return fmt.Errorf("config: %w", err)
    }
    msgs := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        switch fe.Tag() {
        case "required", "required_if":
            msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
        case "oneof":
            msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
        default:
            msgs = append(msgs, fmt.Sprintf("%s is invalid (%s): %v", fe.Field(), fe.Tag(), fe.Value()))
        }
    }
    return errors.New("config: " + strings.Join(msgs, "; "))
}

// SplitList parses a comma-separated list, dropping blanks.
func SplitList(s string) []string {
    parts := strings.Split(s, ",")
    list := make([]string, 0, len(parts))
    for _, p := range parts {
        if v := strings.TrimSpace(p); v != "" {
            list = append(list, v)
        }
    }
    return list
}
