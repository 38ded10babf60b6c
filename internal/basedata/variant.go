package basedata

// Variant identifies an on-disk base data layout.
type Variant int

const (
	VariantUnknown  Variant = iota
	VariantSAB              // SA/SB, 2432-byte radials
	VariantCB               // CB, 4132-byte radials
	VariantSCLegacy         // SC in the SA-compatible layout, 3132-byte radials
	VariantSC2              // SC/CD 2.0, file header + 4000-byte radials
)

func (v Variant) String() string {
	switch v {
	case VariantSAB:
		return "SAB"
	case VariantCB:
		return "CB"
	case VariantSCLegacy:
		return "SC"
	case VariantSC2:
		return "SC2"
	default:
		return "unknown"
	}
}

// IsSABFamily reports whether v uses the headerless SA-style radial layout.
func (v Variant) IsSABFamily() bool {
	switch v {
	case VariantSAB, VariantCB, VariantSCLegacy:
		return true
	default:
		return false
	}
}

// RecordSize returns the size in bytes of one radial record, or 0 for
// VariantUnknown.
func (v Variant) RecordSize() int {
	return LayoutFor(v).RecordSize
}

// ParseVariant maps a variant name (as printed by String, case-sensitive) back
// to a Variant.
func ParseVariant(s string) (Variant, bool) {
	for _, v := range []Variant{VariantSAB, VariantCB, VariantSCLegacy, VariantSC2} {
		if v.String() == s {
			return v, true
		}
	}
	return VariantUnknown, false
}

// ScanType is the antenna scan mode of a volume.
type ScanType string

const (
	ScanPPI ScanType = "ppi" // plan position indicator
	ScanRHI ScanType = "rhi" // range height indicator
)
