package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Tasks []Task `toml:"tasks"`
}

// Task describes one batch transcoding job: where the source scalar
// streams live, which files feed the job, and the file-meta specs the
// values are read from and fanned out to.
type Task struct {
	Name string `toml:"name"`
	Cron string `toml:"cron"` // empty means one-shot only

	// Value selects the scalar kind of the stream: "double" or "uint8".
	Value string `toml:"value"`

	// DefaultProtocol is applied to any spec that names no protocol.
	// Defaults to "ascii".
	DefaultProtocol string `toml:"default_protocol"`

	SourceType  string `toml:"source_type"` // local, sftp, ftp
	SourceRoot  string `toml:"source_root"`
	SourceRegex string `toml:"source_regex"` // filters candidate files
	SourceSpec  string `toml:"source_spec"`  // e.g. "ascii:%.txt"
	SourceAuth  *Auth  `toml:"source_auth,omitempty"`

	TargetType  string   `toml:"target_type"` // local, sftp, ftp
	TargetRoot  string   `toml:"target_root"`
	OutputSpecs []string `toml:"output_specs"` // e.g. ["binary:out/%.dat"]
	TargetAuth  *Auth    `toml:"target_auth,omitempty"`

	// RetentionDays > 0 deletes outputs transcoded more than that many
	// days ago and forgets their history entries.
	RetentionDays int `toml:"retention_days"`
}

type Auth struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	for i := range c.Tasks {
		t := &c.Tasks[i]
		if t.Name == "" {
			return fmt.Errorf("task %d: name is required", i)
		}
		switch t.Value {
		case "", "double", "uint8":
		default:
			return fmt.Errorf("task %s: unknown value kind %q", t.Name, t.Value)
		}
		if len(t.OutputSpecs) == 0 {
			return fmt.Errorf("task %s: at least one output spec is required", t.Name)
		}
	}
	return nil
}
