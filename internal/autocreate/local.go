package autocreate

import "practicepad/internal/chart"

// minimumChordCount is the local extraction quality gate: OCR output
// must contain at least this many distinct chord names before the
// pipeline trusts it over a remote vision call.
const minimumChordCount = 2

// shouldUseLocalResult reports whether locally extracted text is good
// enough to skip remote analysis of the artifact it came from.
func shouldUseLocalResult(extracted string, minimum int) bool {
	if extracted == "" {
		return false
	}
	return chart.CountChordTokens(extracted) >= minimum
}
