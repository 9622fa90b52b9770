package main

import (
	"flag"
	"log"
	"pkgdb/pkgdb/database"
)

func main() {
	driver := flag.String("driver", database.PostgresDriver, "Database driver, sqlite or postgres")
	dbUri := flag.String("db_uri", "", "Database URI")
	rollback := flag.Bool("rollback", false, "Roll back the most recent migration instead of migrating")
	flag.Parse()

	if *dbUri == "" {
		log.Fatalf("Missing --db_uri arg")
	}

	db, err := database.Open(*driver, *dbUri, database.Options{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}
	defer db.Close()

	if *rollback {
		if err := database.RollbackLast(db.DB); err != nil {
			log.Fatalf("rollback failed: %v", err)
		}
		log.Println("rollback completed successfully")
		return
	}

	if err := db.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("migration completed successfully")
}
