package main

import (
	"errors"
	"flag"
	"log"

	"braintrain/backend/internal/config"
	"braintrain/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Print("migrations: no change")
			return
		}
		log.Fatal(err)
	}
	log.Printf("migrations: %s complete", *direction)
}
