package app

import (
    "os"
    "strings"
    "time"
)

// ApplyEnvOverrides overrides popup fields with environment variables that
// are set. Flags are applied afterwards and stay highest precedence.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("GOACTIONS_ENDPOINT"); v != "" { cfg.Endpoint = v }
    if v := os.Getenv("GOACTIONS_FORMAT"); v != "" { cfg.Format = strings.ToLower(v) }
    if v := os.Getenv("GOACTIONS_OUTPUT"); v != "" { cfg.OutputPath = v }
    if v := os.Getenv("GOACTIONS_SERVE"); v != "" { cfg.ServeAddr = v }
    setDuration(&cfg.Timeout, "GOACTIONS_TIMEOUT")
    setBool(&cfg.Verbose, "VERBOSE")
}

// ApplyServerEnvOverrides is ApplyEnvOverrides for the extraction service.
func ApplyServerEnvOverrides(cfg *ServerConfig) {
    if cfg == nil { return }

    if v := os.Getenv("EXTRACTD_ADDR"); v != "" { cfg.Addr = v }
    if v := os.Getenv("EXTRACTD_ENGINE"); v != "" { cfg.Engine = strings.ToLower(v) }
    if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" { cfg.CORSOrigins = SplitList(v) }

    if v := os.Getenv("LLM_BASE_URL"); v != "" { cfg.LLMBaseURL = v }
    if v := os.Getenv("LLM_MODEL"); v != "" { cfg.LLMModel = v }
    if v := os.Getenv("LLM_API_KEY"); v != "" { cfg.LLMAPIKey = v }
    setBool(&cfg.LLMFallback, "LLM_FALLBACK")

    if v := os.Getenv("CACHE_DIR"); v != "" { cfg.CacheDir = v }
    setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
    setBool(&cfg.Verbose, "VERBOSE")
}

// setBool overrides dst when the variable holds a recognizable truthy or
// falsey value.
func setBool(dst *bool, key string) {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
    case "1", "true", "yes", "on":
        *dst = true
    case "0", "false", "no", "off":
        *dst = false
    }
}

func setDuration(dst *time.Duration, key string) {
    if s := strings.TrimSpace(os.Getenv(key)); s != "" {
        if d, err := time.ParseDuration(s); err == nil {
            *dst = d
        }
    }
}
