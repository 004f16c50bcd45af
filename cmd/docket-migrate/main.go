package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/procuraduria/docket/internal/migrate"
)

func main() {
	driver := flag.String("driver", "sqlite", "Database driver (postgres|sqlite)")
	dsn := flag.String("dsn", "", "Database connection string")
	help := flag.Bool("help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Docket Database Migration Tool\n\n")
		fmt.Fprintf(os.Stderr, "Applies the docket schema to PostgreSQL or SQLite databases. Existing\n")
		fmt.Fprintf(os.Stderr, "SQLite databases created by the bot are upgraded in place.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n\n")
		fmt.Fprintf(os.Stderr, "  PostgreSQL:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=postgres -dsn=\"host=localhost user=postgres password=postgres dbname=docket port=5432 sslmode=disable\"\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  SQLite:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=sqlite -dsn=\"procuraduria.db\"\n\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	if *dsn == "" {
		log.Fatal("Error: -dsn flag is required\n\nRun with -help for usage information.")
	}

	log.Printf("Connecting to %s database...\n", *driver)
	sqlDB, err := migrate.Open(*driver, *dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v\n", err)
	}
	defer sqlDB.Close()

	if *driver == migrate.DriverSQLite {
		added, err := migrate.UpgradeLegacySchema(sqlDB)
		if err != nil {
			log.Fatalf("Legacy upgrade failed: %v\n", err)
		}
		for _, col := range added {
			log.Printf("Added legacy column %s\n", col)
		}
	}

	log.Printf("Running migrations...\n")
	if err := migrate.RunMigrations(sqlDB, *driver); err != nil {
		log.Fatalf("Migration failed: %v\n", err)
	}

	version, dirty, err := migrate.GetMigrationVersion(sqlDB, *driver)
	if err != nil {
		log.Fatalf("Failed to read migration version: %v\n", err)
	}
	log.Printf("All migrations completed (version=%d dirty=%t)\n", version, dirty)
}
