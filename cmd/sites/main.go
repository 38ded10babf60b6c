// Command sites manages the radar site table stored in the catalog.
//
// Usage:
//
//	go run ./cmd/sites -catalog data/catalog.db import data/sites.csv
//	go run ./cmd/sites -catalog data/catalog.db lookup Z9250
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/radar-basedata-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	catalogPath := flag.String("catalog", config.EnvOrDefault("CATALOG_PATH", "data/catalog.db"), "catalog database")
	flag.Parse()

	if flag.NArg() != 2 {
		return errors.New("usage: sites [-catalog PATH] import FILE.csv | lookup STATION")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	catalog, err := sqlite.Open(ctx, *catalogPath, logger)
	if err != nil {
		return err
	}
	defer catalog.Close()

	switch cmd, arg := flag.Arg(0), flag.Arg(1); cmd {
	case "import":
		f, err := os.Open(arg)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := catalog.ImportSites(ctx, f)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d sites into %s\n", n, *catalogPath)
		return nil
	case "lookup":
		s, err := catalog.Lookup(ctx, arg)
		if errors.Is(err, site.ErrNotFound) {
			return fmt.Errorf("station %s is not in %s", arg, *catalogPath)
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
