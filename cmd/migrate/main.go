package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	dir := flag.String("dir", "migrations", "Directory containing .sql migration files")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		logger.Fatalw("Failed to list migration files", "error", err)
	}
	sort.Strings(files)

	if len(files) == 0 {
		logger.Fatalw("No migration files found", "dir", *dir)
	}

	if *dryRun {
		for _, file := range files {
			sql, err := os.ReadFile(file)
			if err != nil {
				logger.Fatalw("Failed to read migration", "file", file, "error", err)
			}
			fmt.Printf("-- %s\n%s\n", file, sql)
		}
		return
	}

	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	for _, file := range files {
		sql, err := os.ReadFile(file)
		if err != nil {
			logger.Fatalw("Failed to read migration", "file", file, "error", err)
		}
		logger.Infow("Applying migration", "file", file)
		if _, err := db.Exec(string(sql)); err != nil {
			logger.Fatalw("Migration failed", "file", file, "error", err)
		}
	}

	logger.Info("Migrations completed successfully")
}
