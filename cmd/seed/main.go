// Package main seeds the genre database with a taxonomy.
//
// Without --file it loads the built-in music taxonomy. Genres whose name
// already exists are skipped, so the tool can be re-run safely.
//
// Usage:
//
//	DATA_PATH=~/GenreWiki/data go run ./cmd/seed
//	go run ./cmd/seed --file taxonomy.yaml --account acct-admin
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/samber/do/v2"

	"github.com/genrewiki/genrewiki-server/internal/config"
	"github.com/genrewiki/genrewiki-server/internal/di"
	"github.com/genrewiki/genrewiki-server/internal/genre"
	"github.com/genrewiki/genrewiki-server/internal/service"
)

var (
	seedFile  = flag.String("file", "", "YAML taxonomy to load instead of the built-in one")
	accountID = flag.String("account", "system", "Account id recorded in the history of seeded genres")
	dataPath  = flag.String("data-path", "", "Directory holding the database and search index")
	envFile   = flag.String("env-file", ".env", "Path to .env file")
)

func main() {
	flag.Parse()

	injector := di.NewContainer(config.Overrides{DataPath: *dataPath, EnvFile: *envFile})
	defer injector.Shutdown() //nolint:errcheck // best effort on exit

	svc, err := do.Invoke[*service.GenreService](injector)
	if err != nil {
		log.Fatalf("Failed to open genre store: %v", err)
	}

	seeds, err := loadSeeds(*seedFile)
	if err != nil {
		log.Fatalf("Failed to load seeds: %v", err)
	}

	result, err := svc.SeedGenres(context.Background(), *accountID, seeds)
	if err != nil {
		log.Fatalf("Seeding stopped: %v", err)
	}

	fmt.Printf("Created %d genres, skipped %d existing\n", result.Created, result.Skipped)
}

func loadSeeds(path string) ([]genre.Seed, error) {
	if path == "" {
		return genre.DefaultSeeds()
	}
	f, err := os.Open(path) //#nosec G304 -- operator supplied seed file
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return genre.LoadSeeds(f)
}
