// Package basedata decodes CINRAD weather-radar base data files and
// reconstructs a normalized volume scan from them.
//
// # Supported Layouts
//
// Two incompatible record families are handled:
//
//	SA/SB, CB and legacy SC files ("SAB family"):
//	  A sequence of fixed-size radial records with no file header.
//	  Record size identifies the variant: 2432 bytes (SA/SB), 4132 bytes (CB),
//	  3132 bytes (legacy SC). Every record carries the two-byte message type
//	  0x01 0x00 at offset 14. A 128-byte radial header is followed by the
//	  reflectivity gates, then the velocity gates, then the spectrum width
//	  gates, one byte per gate.
//
//	SC/CD 2.0 files ("SC2"):
//	  A 1024-byte file header (site, radar performance, observation
//	  parameters, 30 layer parameter slots, end time) followed by 4000-byte
//	  radials: an 8-byte sector header and 998 interleaved gates of
//	  (dBZ, V, dBT, W) bytes.
//
// All multi-byte integers are little-endian. Byte offsets live in the layout
// registry (layout.go) and are consumed by one generic decoder.
//
// # Physical Units
//
// Raw gate codes map to physical values by a linear transform per moment:
//
//	SAB family:  dBZ = (code-2)/2 - 32     V = W = (code-2)/2 - 63.5
//	             codes 0 and 1 mean "no data"
//	SC2:         dBZ = dBT = (code-64)/2
//	             V = MaxV*(code-128)/128   W = MaxV*code/256
//	             code 0 means "no data"; MaxV is the sweep's nyquist velocity
//
// Missing gates hold [Missing], a float32 NaN; use [IsMissing]
// rather than comparing values.
//
// Angles: SAB family codes are degrees*8*4096/180; SC2 stores a sector
// start and end code per ray and the ray angle is (start+end)*180/65536.
//
// Time: SAB family rays carry a day count (day 1 = 1970-01-01) and
// milliseconds of day. SC2 records only a volume start and end time in
// Beijing time; ray times are spread linearly between them and shifted
// back 8 hours to UTC.
//
// # Sweeps
//
// SAB family sweeps are delimited by the radial status code: 0 and 3 start a
// sweep, 2 and 4 end one. SC2 sweeps are consecutive runs of the per-layer
// record counts in the header.
//
// Some SA volume coverage patterns use split cuts: a surveillance sweep with
// reflectivity only, immediately followed by a Doppler sweep with velocity
// and width only at the same tilt. [Reconcile] copies reflectivity from the
// surveillance sweep onto the Doppler sweep by nearest azimuth and drops the
// surveillance sweep.
//
// # Fixed Angles
//
// SAB family files carry no nominal elevation. When the reconciled sweep
// count is 4, 6, 9 or 14 the nominal angles of the matching standard volume
// coverage pattern are reported; otherwise the first-ray elevation of each
// sweep is used. The table is keyed by sweep count only, which is a heuristic:
// two patterns with the same count cannot be told apart.
package basedata
