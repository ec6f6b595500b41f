package app

import (
    "fmt"
    "os"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema shared by both
// commands. JSON files are accepted too since JSON is valid YAML.
type FileConfig struct {
    Verbose bool `yaml:"verbose"`

    Popup struct {
        Endpoint string        `yaml:"endpoint"`
        Timeout  time.Duration `yaml:"timeout"`
        Format   string        `yaml:"format"`
        Output   string        `yaml:"output"`
        Serve    string        `yaml:"serve"`
    } `yaml:"popup"`

    Server struct {
        Addr        string   `yaml:"addr"`
        Engine      string   `yaml:"engine"`
        CORSOrigins []string `yaml:"corsOrigins"`

        LLM struct {
            BaseURL  string `yaml:"base"`
            Model    string `yaml:"model"`
            APIKey   string `yaml:"key"`
            Fallback *bool  `yaml:"fallback"`
        } `yaml:"llm"`

        Cache struct {
            Dir         string        `yaml:"dir"`
            MaxAge      time.Duration `yaml:"maxAge"`
            Clear       bool          `yaml:"clear"`
            StrictPerms bool          `yaml:"strictPerms"`
        } `yaml:"cache"`
    } `yaml:"server"`
}

// LoadConfigFile reads a YAML or JSON config file.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    if err := yaml.Unmarshal(b, &fc); err != nil {
        return fc, fmt.Errorf("parse config %s: %w", path, err)
    }
    return fc, nil
}

// ApplyFileConfig overlays the popup section onto cfg. Call it on defaults,
// before env and flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }
    p := fc.Popup
    if strings.TrimSpace(p.Endpoint) != "" { cfg.Endpoint = p.Endpoint }
    if p.Timeout > 0 { cfg.Timeout = p.Timeout }
    if p.Format != "" { cfg.Format = strings.ToLower(p.Format) }
    if p.Output != "" { cfg.OutputPath = p.Output }
    if p.Serve != "" { cfg.ServeAddr = p.Serve }
    if fc.Verbose { cfg.Verbose = true }
}

// ApplyServerFileConfig overlays the server section onto cfg.
func ApplyServerFileConfig(cfg *ServerConfig, fc FileConfig) {
    if cfg == nil { return }
    s := fc.Server
    if s.Addr != "" { cfg.Addr = s.Addr }
    if s.Engine != "" { cfg.Engine = strings.ToLower(s.Engine) }
    if len(s.CORSOrigins) > 0 { cfg.CORSOrigins = append([]string{}, s.CORSOrigins...) }
    if s.LLM.BaseURL != "" { cfg.LLMBaseURL = s.LLM.BaseURL }
    if s.LLM.Model != "" { cfg.LLMModel = s.LLM.Model }
    if s.LLM.APIKey != "" { cfg.LLMAPIKey = s.LLM.APIKey }
    if s.LLM.Fallback != nil { cfg.LLMFallback = *s.LLM.Fallback }
    if s.Cache.Dir != "" { cfg.CacheDir = s.Cache.Dir }
    if s.Cache.MaxAge > 0 { cfg.CacheMaxAge = s.Cache.MaxAge }
    if s.Cache.Clear { cfg.CacheClear = true }
    if s.Cache.StrictPerms { cfg.CacheStrictPerms = true }
    if fc.Verbose { cfg.Verbose = true }
}
