package main

import (
	"flag"
	"log"

	"PokeShop/internal/config"
	"PokeShop/internal/db"
)

func main() {
	flag.Usage = func() {
		log.Printf("usage: migrate [up|down|version]")
	}
	flag.Parse()
	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	mg, err := db.NewMigrator(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("migrator init failed: %v", err)
	}
	defer mg.Close()

	switch cmd {
	case "up":
		err = mg.Up()
	case "down":
		err = mg.Down()
	case "version":
	default:
		flag.Usage()
		return
	}
	if err != nil {
		log.Fatalf("migrate %s failed: %v", cmd, err)
	}

	version, dirty, err := mg.Version()
	if err != nil {
		log.Fatalf("read version failed: %v", err)
	}
	log.Printf("schema version=%d dirty=%t", version, dirty)
}
