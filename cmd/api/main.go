package main

import (
	"log"

	"taxsim/adapters/excel"
	"taxsim/adapters/postgres"
	"taxsim/internal/api"
	"taxsim/internal/config"
	"taxsim/internal/tbi"
	"taxsim/internal/testkit"
	"taxsim/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] no .env file found, using environment as-is")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] config error: %v", err)
	}

	var repo ports.PopulationRepository
	if dsn := cfg.Database.DSN(); dsn != "" {
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			log.Fatalf("[Main] database connection failed: %v", err)
		}
		defer db.Close()
		repo = postgres.NewPopulationRepository(db)
		log.Printf("[Main] using postgres population store")
	} else {
		genCfg := testkit.DefaultPopulationConfig()
		genCfg.UnitCount = cfg.Model.SyntheticUnits
		repo = testkit.NewSyntheticRepository(genCfg)
		log.Printf("[Main] no database configured, using synthetic population")
	}

	server := api.NewServer(tbi.NewModel(repo), excel.NewResultWriter(), cfg)
	if err := server.Run(); err != nil {
		log.Fatalf("[Main] server failed: %v", err)
	}
}
