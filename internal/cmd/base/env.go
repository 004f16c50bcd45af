package base

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/internal/config"
	"github.com/procuraduria/docket/pkg/database"
	"github.com/procuraduria/docket/pkg/lifecycle"
	"github.com/procuraduria/docket/pkg/notifications"
	"github.com/procuraduria/docket/pkg/presenter"
	"github.com/procuraduria/docket/pkg/presenter/discord"
)

// Env is the runtime a subcommand works against.
type Env struct {
	Config  *config.Config
	DB      *gorm.DB
	Manager *lifecycle.Manager

	closers []func()
}

// Close releases the presenter and the database.
func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// NewEnv loads the configuration at path, connects to the database and builds
// the lifecycle manager with the configured presenter.
func (c *Command) NewEnv(path string) (*Env, error) {
	cfg, err := config.NewConfig(path)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	db, err := database.Connect(cfg.DatabaseConfig(), c.Log)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	env := &Env{Config: cfg, DB: db}
	env.closers = append(env.closers, func() { _ = database.Close(db) })

	p, closePresenter, err := NewPresenter(cfg, c.Log)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.closers = append(env.closers, closePresenter)

	env.Manager = lifecycle.NewManager(db, p, cfg.LifecycleConfig(), c.Log.Named("lifecycle"))
	return env, nil
}

// NewPresenter builds the presenter selected by cfg. The returned func
// releases it.
func NewPresenter(cfg *config.Config, logger hclog.Logger) (presenter.Presenter, func(), error) {
	switch cfg.Presenter {
	case config.PresenterDiscord:
		client, err := discord.New(discord.Config{Token: cfg.Discord.Token}, logger.Named("discord"))
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing discord client: %w", err)
		}
		return client, func() {}, nil

	case config.PresenterQueue:
		publisher, err := notifications.NewPublisher(notifications.PublisherConfig{
			Brokers: cfg.Notifications.Brokers,
			Topic:   cfg.Notifications.Topic,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing notification publisher: %w", err)
		}
		return presenter.NewQueue(publisher), publisher.Close, nil

	default:
		return presenter.NewLog(logger.Named("presenter")), func() {}, nil
	}
}
