// Command grantsweep deletes expired grants from the database. Run it from
// cron or a scheduled job; rotation already refuses expired grants, so the
// sweep is purely hygiene for rows nobody will ever touch again.
//
// Configuration comes from the environment (a .env file is honored when
// present): DATABASE_URL holds the postgres DSN.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rster2002/ledgauth/grant"
)

func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "abort the sweep after this long")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment as-is")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	swept, err := grant.NewStore(db).DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}
	log.Printf("swept %d expired grants", swept)
}
