// Package config loads the docket HCL configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/procuraduria/docket/pkg/authz"
	"github.com/procuraduria/docket/pkg/database"
	"github.com/procuraduria/docket/pkg/lifecycle"
	"github.com/procuraduria/docket/pkg/notifications"
	"github.com/procuraduria/docket/pkg/notifications/backends"
)

// Presenter modes.
const (
	PresenterLog     = "log"
	PresenterDiscord = "discord"
	PresenterQueue   = "queue"
)

// Config is the docket configuration.
type Config struct {
	// Presenter selects how chat effects are delivered: log, discord or
	// queue.
	Presenter string `hcl:"presenter,optional"`

	Database      *Database        `hcl:"database,block"`
	Discord       *Discord         `hcl:"discord,block"`
	Notifications *Notifications   `hcl:"notifications,block"`
	Backends      *backends.Config `hcl:"backends,block"`
}

// Database configures the store.
type Database struct {
	Driver   string `hcl:"driver,optional"`
	Path     string `hcl:"path,optional"`
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`

	MaxOpenConns int `hcl:"max_open_conns,optional"`
	MaxIdleConns int `hcl:"max_idle_conns,optional"`
}

// Discord configures the chat surface.
type Discord struct {
	Token              string `hcl:"token,optional"`
	RecordsChannelID   string `hcl:"records_channel_id,optional"`
	PetitionsChannelID string `hcl:"petitions_channel_id,optional"`
	StaffRoleID        string `hcl:"staff_role_id,optional"`
	ResponderRoleID    string `hcl:"responder_role_id,optional"`
}

// Notifications configures the notification topic.
type Notifications struct {
	Brokers       []string `hcl:"brokers,optional"`
	Topic         string   `hcl:"topic,optional"`
	DLQTopic      string   `hcl:"dlq_topic,optional"`
	ConsumerGroup string   `hcl:"consumer_group,optional"`
}

// NewConfig parses the HCL file at path and applies environment overrides.
// An empty path yields the defaults.
func NewConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Database == nil {
		c.Database = &Database{}
	}
	if c.Discord == nil {
		c.Discord = &Discord{}
	}

	if v := os.Getenv("DOCKET_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("DOCKET_DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	} else if v := os.Getenv("DISCORD_TOKEN"); v != "" && c.Discord.Token == "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("RESPONDER_ROLE_ID"); v != "" {
		c.Discord.ResponderRoleID = v
	}
	if v := os.Getenv("DOCKET_BROKERS"); v != "" {
		if c.Notifications == nil {
			c.Notifications = &Notifications{}
		}
		c.Notifications.Brokers = strings.Split(v, ",")
	}
}

func (c *Config) setDefaults() {
	if c.Presenter == "" {
		c.Presenter = PresenterLog
	}
	if c.Notifications == nil {
		c.Notifications = &Notifications{}
	}
	if len(c.Notifications.Brokers) == 0 {
		c.Notifications.Brokers = []string{"localhost:9092"}
	}
	if c.Notifications.Topic == "" {
		c.Notifications.Topic = "docket.notifications"
	}
	if c.Notifications.DLQTopic == "" {
		c.Notifications.DLQTopic = notifications.DefaultDLQTopic
	}
	if c.Notifications.ConsumerGroup == "" {
		c.Notifications.ConsumerGroup = "docket-notifiers"
	}

	// The discord backend shares the bot token unless it sets its own.
	if c.Backends != nil && c.Backends.Discord != nil && c.Backends.Discord.Token == "" {
		c.Backends.Discord.Token = c.Discord.Token
	}
}

func (c *Config) validate() error {
	switch c.Presenter {
	case PresenterLog, PresenterQueue:
	case PresenterDiscord:
		if strings.TrimSpace(c.Discord.Token) == "" {
			return fmt.Errorf("presenter %q requires a discord token", c.Presenter)
		}
	default:
		return fmt.Errorf("unknown presenter %q, use log, discord or queue", c.Presenter)
	}
	return nil
}

// DatabaseConfig converts the database block for database.Connect.
func (c *Config) DatabaseConfig() database.Config {
	d := c.Database
	return database.Config{
		Driver:       d.Driver,
		Path:         d.Path,
		Host:         d.Host,
		Port:         d.Port,
		User:         d.User,
		Password:     d.Password,
		DBName:       d.DBName,
		SSLMode:      d.SSLMode,
		MaxOpenConns: d.MaxOpenConns,
		MaxIdleConns: d.MaxIdleConns,
	}
}

// LifecycleConfig converts the discord block for lifecycle.NewManager.
func (c *Config) LifecycleConfig() lifecycle.Config {
	return lifecycle.Config{
		RecordsChannelID:   c.Discord.RecordsChannelID,
		PetitionsChannelID: c.Discord.PetitionsChannelID,
		Policy: authz.Policy{
			StaffRoleID:     c.Discord.StaffRoleID,
			ResponderRoleID: c.Discord.ResponderRoleID,
		},
	}
}
