package basedata

// hasSABMarker reports whether the first record carries the 0x01 0x00
// message type of a valid SAB family radial.
func hasSABMarker(data []byte) bool {
	return len(data) >= sabMarkerOff+2 && data[sabMarkerOff] == 0x01 && data[sabMarkerOff+1] == 0x00
}

// DetectSAB classifies an SAB family file by its total length. Exactly one of
// the family record sizes must divide the length. It returns the variant and
// the number of radial records.
func DetectSAB(data []byte) (Variant, int, error) {
	if !hasSABMarker(data) {
		return VariantUnknown, 0, formatErrorf("missing SA/SB/CB radial signature at offset %d", sabMarkerOff)
	}
	match := VariantUnknown
	for _, v := range sabFamily {
		if len(data)%v.RecordSize() != 0 {
			continue
		}
		if match != VariantUnknown {
			return VariantUnknown, 0, formatErrorf("ambiguous or corrupt size")
		}
		match = v
	}
	if match == VariantUnknown {
		return VariantUnknown, 0, formatErrorf("ambiguous or corrupt size")
	}
	return match, len(data) / match.RecordSize(), nil
}

// Detect picks the variant of data: the SAB family signature is tried first,
// then a plausible SC2 volume-scan header.
func Detect(data []byte) (Variant, error) {
	if hasSABMarker(data) {
		v, _, err := DetectSAB(data)
		return v, err
	}
	if len(data) >= sc2HeaderSize {
		scan := int(data[sc2ObservationOff])
		if scan > sc2VolumeScanOffset && scan-sc2VolumeScanOffset <= sc2MaxLayers {
			return VariantSC2, nil
		}
	}
	return VariantUnknown, formatErrorf("no known base data signature")
}
