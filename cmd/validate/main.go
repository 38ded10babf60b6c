// Command validate performs integrity checks over a directory of CINRAD base
// data files: every file must decode, every volume must satisfy the
// structural guarantees of the decoder, and, when a catalog is given, the
// summaries stored by the ETL service must match a fresh decode.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dir data/incoming \
//	  -sites data/sites.csv \
//	  -catalog data/catalog.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/couchcryptid/radar-basedata-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
	"github.com/couchcryptid/radar-basedata-etl/internal/domain"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

// Values outside these bounds mean a codec was applied to the wrong bytes.
var physicalBounds = map[string][2]float64{
	basedata.MomentReflectivity:      {-35, 100},
	basedata.MomentTotalReflectivity: {-35, 100},
	basedata.MomentVelocity:          {-130, 130},
	basedata.MomentWidth:             {0, 70},
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// decoded is one successfully decoded file.
type decoded struct {
	path string
	vol  *basedata.Volume
}

func main() {
	dir := flag.String("dir", "", "directory of base data files")
	pattern := flag.String("pattern", "*", "glob selecting files in -dir")
	sitesCSV := flag.String("sites", "", "site table CSV for SA/SB/CB/SC files")
	catalogPath := flag.String("catalog", "", "catalog database to cross-check (optional)")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, *pattern, *sitesCSV, *catalogPath); code != 0 {
		os.Exit(code)
	}
}

func run(dir, pattern, sitesCSV, catalogPath string) int {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	fmt.Println("=== Radar Base Data Integrity Validation ===")
	fmt.Println()

	paths, err := listFiles(dir, pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list %s: %v\n", dir, err)
		return 1
	}
	sites, err := loadSites(sitesCSV)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load sites: %v\n", err)
		return 1
	}

	dec := basedata.NewDecoder(sites, logger)
	decodePhase, volumes := validateDecode(ctx, dec, paths)
	phases := []*phase{
		decodePhase,
		validateStructure(volumes),
		validateValues(volumes),
	}

	if catalogPath != "" {
		catalog, err := sqlite.Open(ctx, catalogPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: open catalog: %v\n", err)
			return 1
		}
		defer catalog.Close()
		phases = append(phases, validateCatalog(ctx, catalog, volumes))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Files: %d found, %d decoded\n", len(paths), len(volumes))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Loading ──

func listFiles(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ok, err := filepath.Match(pattern, e.Name()); err != nil {
			return nil, err
		} else if ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

func loadSites(path string) (site.Table, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	list, err := site.ParseCSV(f)
	if err != nil {
		return nil, err
	}
	return site.NewStaticTable(list), nil
}

// ── Phase 1: Decode ──

func validateDecode(ctx context.Context, dec *basedata.Decoder, paths []string) (*phase, []decoded) {
	p := &phase{name: "Phase 1: Decode"}
	var out []decoded
	for _, path := range paths {
		vol, err := dec.DecodeFile(ctx, path)
		if err != nil {
			p.errorf("%s: %s error: %v", filepath.Base(path), basedata.ErrorKind(err), err)
			continue
		}
		out = append(out, decoded{path: path, vol: vol})
	}
	return p, out
}

// ── Phase 2: Volume Structure ──
// Sweeps must tile the rays and every array must agree on its dimensions.

func validateStructure(volumes []decoded) *phase {
	p := &phase{name: "Phase 2: Volume Structure"}
	for _, d := range volumes {
		checkSweeps(p, filepath.Base(d.path), d.vol)
		checkArrays(p, filepath.Base(d.path), d.vol)
	}
	return p
}

func checkSweeps(p *phase, name string, v *basedata.Volume) {
	if v.NSweeps() == 0 {
		p.errorf("%s: no sweeps", name)
		return
	}
	next := 0
	for i := range v.NSweeps() {
		if v.SweepStart[i] != next {
			p.errorf("%s: sweep %d starts at ray %d, want %d", name, i, v.SweepStart[i], next)
		}
		if v.SweepEnd[i] < v.SweepStart[i] {
			p.errorf("%s: sweep %d ends before it starts", name, i)
		}
		next = v.SweepEnd[i] + 1
	}
	if next != v.NRays() {
		p.errorf("%s: sweeps cover %d rays, volume has %d", name, next, v.NRays())
	}
}

func checkArrays(p *phase, name string, v *basedata.Volume) {
	nrays, nsweeps := v.NRays(), v.NSweeps()
	perRay := map[string]int{
		"elevation":             len(v.Elevation),
		"time":                  len(v.Time),
		"ray nyquist":           len(v.RayNyquist),
		"ray unambiguous range": len(v.RayUnambiguousRange),
	}
	for k, n := range perRay {
		if n != nrays {
			p.errorf("%s: %s has %d entries, want %d", name, k, n, nrays)
		}
	}
	perSweep := map[string]int{
		"sweep end":         len(v.SweepEnd),
		"fixed angle":       len(v.FixedAngle),
		"nyquist velocity":  len(v.NyquistVelocity),
		"unambiguous range": len(v.UnambiguousRange),
		"bins per sweep":    len(v.BinsPerSweep),
	}
	for k, n := range perSweep {
		if n != nsweeps {
			p.errorf("%s: %s has %d entries, want %d", name, k, n, nsweeps)
		}
	}
	if len(v.Range) == 0 {
		p.errorf("%s: empty range grid", name)
	}
	if !slices.IsSorted(v.Range) {
		p.errorf("%s: range grid is not ascending", name)
	}
	for _, fname := range v.FieldNames() {
		f := v.Fields[fname]
		if f.NRays != nrays || f.NBins != len(v.Range) || len(f.Data) != f.NRays*f.NBins {
			p.errorf("%s: field %s is %dx%d with %d values, want %dx%d",
				name, fname, f.NRays, f.NBins, len(f.Data), nrays, len(v.Range))
		}
	}
}

// ── Phase 3: Values ──
// Angles and gate values must lie within physically meaningful intervals.

func validateValues(volumes []decoded) *phase {
	p := &phase{name: "Phase 3: Angles and Gate Values"}
	for _, d := range volumes {
		name := filepath.Base(d.path)
		for i, az := range d.vol.Azimuth {
			if az < 0 || az >= 360 {
				p.errorf("%s: ray %d azimuth %.2f outside [0, 360)", name, i, az)
				break
			}
		}
		for i, el := range d.vol.Elevation {
			if el < -2 || el > 90 {
				p.errorf("%s: ray %d elevation %.2f outside [-2, 90]", name, i, el)
				break
			}
		}
		for _, fname := range d.vol.FieldNames() {
			checkField(p, name, fname, d.vol.Fields[fname])
		}
	}
	return p
}

func checkField(p *phase, name, fname string, f *basedata.Field) {
	bounds, known := physicalBounds[fname]
	for i, v := range f.Data {
		if basedata.IsMissing(v) {
			continue
		}
		x := float64(v)
		if math.IsInf(x, 0) {
			p.errorf("%s: field %s gate %d is infinite", name, fname, i)
			return
		}
		if known && (x < bounds[0] || x > bounds[1]) {
			p.errorf("%s: field %s gate %d value %.2f outside [%g, %g]", name, fname, i, x, bounds[0], bounds[1])
			return
		}
	}
}

// ── Phase 4: Catalog Parity ──
// Stored summaries must equal a fresh summary of the same file.

func validateCatalog(ctx context.Context, catalog *sqlite.Catalog, volumes []decoded) *phase {
	p := &phase{name: "Phase 4: Catalog Parity"}
	stored := make(map[string]domain.VolumeRecord)
	records, err := catalog.ListVolumes(ctx, domain.VolumeFilter{Limit: math.MaxInt32})
	if err != nil {
		p.errorf("list volumes: %v", err)
		return p
	}
	for _, r := range records {
		stored[r.ID] = r
	}

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.VolumeRecord{}, "ProcessedAt"),
		cmpopts.EquateEmpty(),
		cmpopts.EquateApprox(0, 1e-9),
	}
	for _, d := range volumes {
		want := domain.Summarize(d.path, d.vol)
		got, ok := stored[want.ID]
		if !ok {
			p.errorf("%s: no catalog record for volume %s", want.File, want.ID)
			continue
		}
		if diff := cmp.Diff(want, got, opts); diff != "" {
			p.errorf("%s: catalog record differs (-decoded +catalog):\n%s", want.File, diff)
		}
	}
	return p
}
