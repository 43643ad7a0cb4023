package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Thresholds holds the engineering limits the evaluator checks readings
// against. Values are resolved once per snapshot; the evaluator never reads
// viper directly, so a reload cannot race an evaluation in flight.
type Thresholds struct {
	GaugeToleranceM    float64 // meters of allowed gauge deviation
	VibrationThreshold float64 // g, acceleration channel
	SpeedThresholdKmh  float64 // above this, gauge tolerance is relaxed
	AlignmentLimitMM   float64
	VerticalLimitMM    float64
	TwistLimitMM       float64
	CantLimitMM        float64
}

// Simulator controls the synthetic sensor feed.
type Simulator struct {
	Enabled bool
	Tick    time.Duration
}

// Config is the full application configuration snapshot.
type Config struct {
	Port     string
	LogLevel string

	DBPath string

	RedisAddr     string // empty disables the latest-reading cache
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	TrackLengthM      float64 // valid chainage range is [0, TrackLengthM]
	HeartbeatInterval time.Duration
	HealthWindow      time.Duration
	StatusInterval    time.Duration

	Thresholds Thresholds
	Simulator  Simulator
}

func setDefaults() {
	viper.SetDefault("port", "8080")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("db.path", "trackmonitor.db")

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl_seconds", 3600)

	viper.SetDefault("track.length_m", 100000.0)
	viper.SetDefault("realtime.heartbeat_seconds", 30)
	viper.SetDefault("realtime.status_seconds", 10)
	viper.SetDefault("health.window_hours", 24)

	viper.SetDefault("thresholds.gauge_tolerance", 0.02)
	viper.SetDefault("thresholds.vibration", 2.0)
	viper.SetDefault("thresholds.speed", 200.0)
	viper.SetDefault("thresholds.alignment_mm", 10.0)
	viper.SetDefault("thresholds.vertical_mm", 10.0)
	viper.SetDefault("thresholds.twist_mm", 5.0)
	viper.SetDefault("thresholds.cant_mm", 20.0)

	viper.SetDefault("simulator.enabled", false)
	viper.SetDefault("simulator.tick_ms", 1000)
}

// Load reads configs/config.yml and returns a typed snapshot. A missing file
// is not an error: defaults apply and environment lookups still work.
func Load() (Config, error) {
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	return Config{
		Port:     viper.GetString("port"),
		LogLevel: viper.GetString("log_level"),
		DBPath:   viper.GetString("db.path"),

		RedisAddr:     viper.GetString("redis.addr"),
		RedisPassword: viper.GetString("redis.password"),
		RedisDB:       viper.GetInt("redis.db"),
		RedisTTL:      time.Duration(viper.GetInt("redis.ttl_seconds")) * time.Second,

		TrackLengthM:      viper.GetFloat64("track.length_m"),
		HeartbeatInterval: time.Duration(viper.GetInt("realtime.heartbeat_seconds")) * time.Second,
		StatusInterval:    time.Duration(viper.GetInt("realtime.status_seconds")) * time.Second,
		HealthWindow:      time.Duration(viper.GetInt("health.window_hours")) * time.Hour,

		Thresholds: Thresholds{
			GaugeToleranceM:    viper.GetFloat64("thresholds.gauge_tolerance"),
			VibrationThreshold: viper.GetFloat64("thresholds.vibration"),
			SpeedThresholdKmh:  viper.GetFloat64("thresholds.speed"),
			AlignmentLimitMM:   viper.GetFloat64("thresholds.alignment_mm"),
			VerticalLimitMM:    viper.GetFloat64("thresholds.vertical_mm"),
			TwistLimitMM:       viper.GetFloat64("thresholds.twist_mm"),
			CantLimitMM:        viper.GetFloat64("thresholds.cant_mm"),
		},
		Simulator: Simulator{
			Enabled: viper.GetBool("simulator.enabled"),
			Tick:    time.Duration(viper.GetInt("simulator.tick_ms")) * time.Millisecond,
		},
	}, nil
}
