package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileName is the name of the JSON config file looked up in the config directory.
const ConfigFileName = "spatializer.cfg.json"

// PanelConfig holds the fixed geometry of the spatializer panel.
type PanelConfig struct {
	Objects         int           `json:"objects" mapstructure:"objects"`
	Radius          float64       `json:"radius" mapstructure:"radius"`
	Labels          int           `json:"labels" mapstructure:"labels"`
	SettleDelay     time.Duration `json:"settleDelay" mapstructure:"settleDelay"`
	InitialBearings []float64     `json:"initialBearings" mapstructure:"initialBearings"`
}

// SnapConfig holds the allowed snap bearings. An explicit zone list wins
// over Count and Offset.
type SnapConfig struct {
	Zones  []float64 `json:"zones" mapstructure:"zones"`
	Count  int       `json:"count" mapstructure:"count"`
	Offset float64   `json:"offset" mapstructure:"offset"`
}

// OSCConfig holds the outbound and inbound OSC endpoints.
type OSCConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Host    string `json:"host" mapstructure:"host"`
	Port    int    `json:"port" mapstructure:"port"`
	Listen  string `json:"listen" mapstructure:"listen"`
}

// MixerConfig holds the channel strip settings.
type MixerConfig struct {
	Channels int     `json:"channels" mapstructure:"channels"`
	Master   float64 `json:"master" mapstructure:"master"`
	Reverb   float64 `json:"reverb" mapstructure:"reverb"`
}

// MemoryConfig holds JSON file layout storage settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite layout storage settings
type SQLiteConfig struct {
	Path       string `json:"path" mapstructure:"path"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// StorageConfig selects and configures the layout storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds the Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN returns the Postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// InfluxConfig holds the telemetry mirror settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL returns the server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// OTelConfig holds OpenTelemetry metric settings
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	ExportInterval time.Duration `json:"exportInterval" mapstructure:"exportInterval"`
}

// GraylogConfig holds the GELF log shipping settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// MonitorConfig holds the status file settings. An empty StatusFile
// disables the monitor.
type MonitorConfig struct {
	StatusFile string        `json:"statusFile" mapstructure:"statusFile"`
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers every default value. Load calls it; it is exported
// so callers can run on defaults when the file is missing.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("panel.objects", 8)
	viper.SetDefault("panel.radius", 3.0)
	viper.SetDefault("panel.labels", 8)
	viper.SetDefault("panel.settleDelay", "500ms")
	viper.SetDefault("panel.initialBearings", []float64{})

	viper.SetDefault("snap.zones", []float64{})
	viper.SetDefault("snap.count", 8)
	viper.SetDefault("snap.offset", 0.0)

	viper.SetDefault("osc.enabled", true)
	viper.SetDefault("osc.host", "127.0.0.1")
	viper.SetDefault("osc.port", 9000)
	viper.SetDefault("osc.listen", "0.0.0.0:9001")

	viper.SetDefault("mixer.channels", 8)
	viper.SetDefault("mixer.master", 0.75)
	viper.SetDefault("mixer.reverb", 0.0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./layouts")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "./layouts.db")
	viper.SetDefault("storage.sqlite.backupPath", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "spatializer")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "spatializer")
	viper.SetDefault("influx.bucket", "panel_telemetry")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "spatializer")
	viper.SetDefault("otel.exportInterval", "10s")

	viper.SetDefault("monitor.statusFile", "")
	viper.SetDefault("monitor.interval", "1s")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetPanelConfig returns the panel settings.
func GetPanelConfig() PanelConfig {
	return PanelConfig{
		Objects:         viper.GetInt("panel.objects"),
		Radius:          viper.GetFloat64("panel.radius"),
		Labels:          viper.GetInt("panel.labels"),
		SettleDelay:     viper.GetDuration("panel.settleDelay"),
		InitialBearings: getFloats("panel.initialBearings"),
	}
}

// GetSnapConfig returns the snap zone settings.
func GetSnapConfig() SnapConfig {
	return SnapConfig{
		Zones:  getFloats("snap.zones"),
		Count:  viper.GetInt("snap.count"),
		Offset: viper.GetFloat64("snap.offset"),
	}
}

// GetOSCConfig returns the OSC endpoints.
func GetOSCConfig() OSCConfig {
	return OSCConfig{
		Enabled: viper.GetBool("osc.enabled"),
		Host:    viper.GetString("osc.host"),
		Port:    viper.GetInt("osc.port"),
		Listen:  viper.GetString("osc.listen"),
	}
}

// GetMixerConfig returns the channel strip settings.
func GetMixerConfig() MixerConfig {
	return MixerConfig{
		Channels: viper.GetInt("mixer.channels"),
		Master:   viper.GetFloat64("mixer.master"),
		Reverb:   viper.GetFloat64("mixer.reverb"),
	}
}

// GetStorageConfig returns the layout storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:       viper.GetString("storage.sqlite.path"),
			BackupPath: viper.GetString("storage.sqlite.backupPath"),
		},
	}
}

// GetDBConfig returns the Postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the telemetry mirror settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		ExportInterval: viper.GetDuration("otel.exportInterval"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetMonitorConfig returns the status file settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		StatusFile: viper.GetString("monitor.statusFile"),
		Interval:   viper.GetDuration("monitor.interval"),
	}
}

// getFloats reads a list of numbers. JSON decodes numbers as float64, so
// viper's string-slice helpers do not apply.
func getFloats(key string) []float64 {
	var out []float64
	switch v := viper.Get(key).(type) {
	case []float64:
		out = append(out, v...)
	case []any:
		for _, e := range v {
			switch n := e.(type) {
			case float64:
				out = append(out, n)
			case int:
				out = append(out, float64(n))
			}
		}
	}
	return out
}
