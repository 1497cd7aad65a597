package observability

import (
	"strings"

	"github.com/smallbiznis/autocharge/internal/config"
)

// Config is the telemetry view of the app config shared by logger,
// tracing and metrics.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "autocharge"
	}
	ratio := cfg.Telemetry.SamplingRatio
	if ratio < 0 || ratio > 1 {
		ratio = 0.1
	}
	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             cfg.Telemetry.LogLevel,
		LogFormat:            cfg.Telemetry.LogFormat,
		OtelEnabled:          cfg.Telemetry.OTLPEnabled,
		OtelExporterEndpoint: cfg.Telemetry.OTLPEndpoint,
		OtelExporterProtocol: cfg.Telemetry.OTLPProtocol,
		OtelSamplingRatio:    ratio,
	}
}

// Debug is on for debug logging and for any non-production environment
// such as dev, local or test.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
