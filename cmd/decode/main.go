// Command decode decodes one CINRAD base data file and prints its volume
// summary as JSON. It can optionally render a sweep to PNG.
//
// Usage:
//
//	go run ./cmd/decode -sites data/sites.csv -png out.png -sweep 0 -field dBZ FILE
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/radar-basedata-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
	"github.com/couchcryptid/radar-basedata-etl/internal/domain"
	"github.com/couchcryptid/radar-basedata-etl/internal/render"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
	"github.com/couchcryptid/radar-basedata-etl/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	variantName := flag.String("variant", "", "force a variant (SAB, CB, SC, SC2) instead of detecting it")
	sitesCSV := flag.String("sites", "", "site table CSV for SA/SB/CB/SC files")
	catalogPath := flag.String("catalog", "", "catalog database to resolve sites from")
	pngPath := flag.String("png", "", "render a PPI image to this path")
	sweep := flag.Int("sweep", 0, "sweep to render")
	field := flag.String("field", basedata.MomentReflectivity, "field to render")
	verbose := flag.Bool("v", false, "log decoder warnings")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: decode [flags] FILE")
	}
	path := flag.Arg(0)
	ctx := context.Background()

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sites, closeSites, err := openSites(ctx, *sitesCSV, *catalogPath, logger)
	if err != nil {
		return err
	}
	defer closeSites()

	dec := basedata.NewDecoder(sites, logger)
	vol, err := decode(ctx, dec, *variantName, path)
	if err != nil {
		return fmt.Errorf("%s: %s error: %w", filepath.Base(path), basedata.ErrorKind(err), err)
	}

	if *pngPath != "" {
		if err := render.SavePPI(vol, render.Options{Sweep: *sweep, Field: *field}, *pngPath); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(domain.Summarize(path, vol))
}

func decode(ctx context.Context, dec *basedata.Decoder, variantName, path string) (*basedata.Volume, error) {
	if variantName == "" {
		return dec.DecodeFile(ctx, path)
	}
	v, ok := basedata.ParseVariant(variantName)
	if !ok {
		return nil, fmt.Errorf("unknown variant %q", variantName)
	}
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	return dec.DecodeAs(ctx, v, path, src.Bytes())
}

// openSites returns the site table selected by the flags, or nil when neither
// is set.
func openSites(ctx context.Context, csvPath, catalogPath string, logger *slog.Logger) (site.Table, func(), error) {
	noop := func() {}
	switch {
	case csvPath != "" && catalogPath != "":
		return nil, noop, fmt.Errorf("-sites and -catalog are mutually exclusive")
	case csvPath != "":
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, noop, err
		}
		defer f.Close()
		list, err := site.ParseCSV(f)
		if err != nil {
			return nil, noop, err
		}
		return site.NewStaticTable(list), noop, nil
	case catalogPath != "":
		catalog, err := sqlite.Open(ctx, catalogPath, logger)
		if err != nil {
			return nil, noop, err
		}
		return catalog, func() { catalog.Close() }, nil
	default:
		return nil, noop, nil
	}
}
