package migrate

import (
	"flag"
	"fmt"

	"github.com/procuraduria/docket/internal/cmd/base"
	"github.com/procuraduria/docket/internal/config"
	dbmigrate "github.com/procuraduria/docket/internal/migrate"
	"github.com/procuraduria/docket/pkg/database"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Apply database migrations"
}

func (c *Command) Help() string {
	return `Usage: docket migrate [options]

  Applies pending schema migrations to the configured database. Existing
  sqlite databases created by the bot are upgraded in place first.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("migrate", flag.ContinueOnError))
	f.StringVar(&c.flagConfig, "config", "",
		"Path to the docket config file. Defaults and environment overrides apply when unset.")
	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}
	dbCfg := cfg.DatabaseConfig()

	db, err := database.Connect(dbCfg, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}
	defer database.Close(db)

	sqlDB, err := db.DB()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}

	driver := dbCfg.DriverName()
	if driver == database.DriverSQLite {
		added, err := dbmigrate.UpgradeLegacySchema(sqlDB)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error upgrading legacy schema: %v", err))
			return 1
		}
		for _, col := range added {
			c.UI.Info(fmt.Sprintf("Added legacy column %s", col))
		}
	}

	if err := dbmigrate.RunMigrations(sqlDB, driver); err != nil {
		c.UI.Error(fmt.Sprintf("error running migrations: %v", err))
		return 1
	}

	version, dirty, err := dbmigrate.GetMigrationVersion(sqlDB, driver)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading migration version: %v", err))
		return 1
	}
	c.UI.Info(fmt.Sprintf("Database migrated to version %d (dirty: %t)", version, dirty))
	return 0
}
