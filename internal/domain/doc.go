// Package domain models the messages that flow through the radar ETL
// pipeline.
//
// # Data Source
//
// CINRAD radars archive one base data file per volume scan. Files follow the
// national naming convention
//
//	Z_RADR_I_<station>_<yyyymmddhhmmss>_O_DOR_<type>_CAP.bin[.bz2]
//
// where <station> is a Z followed by four digits (e.g. Z9250, Nanjing) and
// <type> names the radar model (SA, SB, CB, SC, CD). Archives are often
// bzip2, gzip or zstd compressed. The file name is the only place SA/SB/CB
// files record their station; SC/CD 2.0 files also carry it in their header.
//
// # Volume Records
//
// Each decoded volume is published as a [VolumeRecord]: site metadata, time
// span, per-sweep geometry (fixed angle, ray and gate counts, nyquist
// velocity, unambiguous range) and per-moment statistics. Gate arrays are not
// published; consumers needing them decode the file with package basedata.
//
// Field statistics ignore missing gates. Coverage is the share of gates with
// data across the whole canonical grid, so sweeps shorter than the longest
// one lower it.
//
// # ID Generation
//
// Volume IDs are name-based (SHA-1) UUIDs of station|variant|start time|file
// name. Reprocessing the same file yields the same ID, so downstream upserts
// stay idempotent. See [generateID].
package domain
