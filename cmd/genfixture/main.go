// Command genfixture writes synthetic CINRAD base data files for local runs
// of the ETL service and the decode CLI. It uses the same builders as the
// decoder tests, so the files exercise every supported variant: SA/SB, CB and
// legacy SC volumes with split cuts, and an SC/CD 2.0 volume with a file
// header.
//
// Usage:
//
//	go run ./cmd/genfixture -out data/incoming -rays 360 -compress zstd
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata/fixture"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/incoming", "output directory")
	station := flag.String("station", "Z9250", "station id embedded in SA/CB/SC file names")
	rays := flag.Int("rays", 360, "rays per sweep of the SAB family volumes")
	compress := flag.String("compress", "none", "compression: none, gzip or zstd")
	flag.Parse()

	if *rays < 1 {
		return fmt.Errorf("-rays must be positive")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	stamp := time.Date(2016, time.June, 30, 0, 0, 0, 0, time.UTC).Format("20060102150405")
	sabName := func(kind string) string {
		return fmt.Sprintf("Z_RADR_I_%s_%s_O_DOR_%s_CAP.bin", *station, stamp, kind)
	}

	sc2 := fixture.DefaultSC2Header()
	files := []struct {
		name string
		data []byte
	}{
		{sabName("SA"), fixture.SABFile(fixture.SABRecordSize, fixture.VCP21Volume(*rays))},
		{sabName("CB"), fixture.SABFile(fixture.CBRecordSize, fixture.VCP21Volume(*rays))},
		{sabName("SC"), fixture.SABFile(fixture.SCLegacyRecordSize, fixture.SplitCutVolume())},
		{
			fmt.Sprintf("Z_RADR_I_%s_%s_O_DOR_CD_CAP.bin", sc2.StationNumber, sc2.Start.Format("20060102150405")),
			fixture.SC2File(sc2, 84, 192, 84, 128),
		},
	}

	for _, f := range files {
		data, ext, err := compressData(*compress, f.data)
		if err != nil {
			return err
		}
		path := filepath.Join(*out, f.name+ext)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("%s: %d bytes", path, len(data))
	}
	return nil
}

func compressData(kind string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	switch kind {
	case "none":
		return data, "", nil
	case "gzip":
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, "", err
		}
		if err := zw.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ".gz", nil
	case "zstd":
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, "", err
		}
		if _, err := zw.Write(data); err != nil {
			return nil, "", err
		}
		if err := zw.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ".zst", nil
	default:
		return nil, "", fmt.Errorf("unknown -compress %q", kind)
	}
}
