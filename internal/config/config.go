package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Parser  ParserConfig  `yaml:"parser"`
	Input   InputConfig   `yaml:"input"`
	RawLog  RawLogConfig  `yaml:"rawlog"`
	Forward ForwardConfig `yaml:"forward"`
	Web     WebConfig     `yaml:"web"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	PPS     PPSConfig     `yaml:"pps"`
}

type ParserConfig struct {
	// UTCOffsetHours shifts parsed timestamps; fractional offsets
	// (e.g. 5.5) are valid.
	UTCOffsetHours float64 `yaml:"utc_offset_hours"`
	// CoordFormat is ddm, dd, or dms.
	CoordFormat string `yaml:"coord_format"`
	// Century for two-digit RMC years until a ZDA sentence overrides it.
	Century int `yaml:"century"`
}

type InputConfig struct {
	// Source selects how NMEA characters are ingested: "serial", "file",
	// or "stdin". When empty, defaults to "serial".
	Source string `yaml:"source"`

	// Device is the serial device path for source=="serial"; empty means
	// auto-detect.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// Path is the capture file for source=="file".
	Path string `yaml:"path"`
}

type RawLogConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
	// Mode is "append" (default) or "new" (truncate).
	Mode string `yaml:"mode"`
}

type ForwardConfig struct {
	Enable bool `yaml:"enable"`
	// Dest is the UDP host:port validated sentences are re-emitted to.
	// NMEA-over-UDP consumers conventionally listen on port 10110.
	Dest string `yaml:"dest"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

type MQTTConfig struct {
	Enable   bool          `yaml:"enable"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	Interval time.Duration `yaml:"interval"`
}

type PPSConfig struct {
	Enable  bool `yaml:"enable"`
	GPIOPin int  `yaml:"gpio_pin"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	switch cfg.Parser.CoordFormat {
	case "", "ddm", "dd", "dms":
	default:
		return Config{}, fmt.Errorf("parser.coord_format must be ddm, dd, or dms")
	}
	if cfg.Parser.Century < 0 {
		return Config{}, fmt.Errorf("parser.century must be >= 0")
	}

	switch cfg.Input.Source {
	case "":
		cfg.Input.Source = "serial"
	case "serial", "stdin":
	case "file":
		if cfg.Input.Path == "" {
			return Config{}, fmt.Errorf("input.path is required when input.source is file")
		}
	default:
		return Config{}, fmt.Errorf("input.source must be serial, file, or stdin")
	}
	if cfg.Input.Baud == 0 {
		cfg.Input.Baud = 9600
	}

	if cfg.RawLog.Enable {
		if cfg.RawLog.Path == "" {
			return Config{}, fmt.Errorf("rawlog.path is required when rawlog.enable is true")
		}
		switch cfg.RawLog.Mode {
		case "":
			cfg.RawLog.Mode = "append"
		case "append", "new":
		default:
			return Config{}, fmt.Errorf("rawlog.mode must be append or new")
		}
	}

	if cfg.Forward.Enable && cfg.Forward.Dest == "" {
		return Config{}, fmt.Errorf("forward.dest is required when forward.enable is true")
	}

	if cfg.Web.Enable && cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	if cfg.MQTT.Enable {
		if cfg.MQTT.Broker == "" {
			return Config{}, fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
		}
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = "gnssfeed"
		}
		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = "gnssfeed/fix"
		}
		if cfg.MQTT.Interval <= 0 {
			cfg.MQTT.Interval = 1 * time.Second
		}
	}

	if cfg.PPS.Enable && cfg.PPS.GPIOPin <= 0 {
		return Config{}, fmt.Errorf("pps.gpio_pin is required when pps.enable is true")
	}

	return cfg, nil
}
