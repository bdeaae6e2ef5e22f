package render

import "strings"

// LineDiff is one mismatching line between a generated document and the
// document on disk.
type LineDiff struct {
	Line int
	Orig string
	Gen  string
}

// maxReported caps how many mismatches a verification run reports in detail.
const maxReported = 10

// Verify compares a generated document against an original line by line and
// returns the total differing-line count plus the first mismatches.
func Verify(generated, original string) (int, []LineDiff) {
	genLines := strings.Split(generated, "\n")
	origLines := strings.Split(strings.ReplaceAll(original, "\r\n", "\n"), "\n")

	diffs := 0
	var reported []LineDiff
	for i := 0; i < max(len(genLines), len(origLines)); i++ {
		g, o := "", ""
		if i < len(genLines) {
			g = genLines[i]
		}
		if i < len(origLines) {
			o = origLines[i]
		}
		if g != o {
			if diffs < maxReported {
				reported = append(reported, LineDiff{Line: i + 1, Orig: truncate(o), Gen: truncate(g)})
			}
			diffs++
		}
	}
	return diffs, reported
}

func truncate(s string) string {
	if runes := []rune(s); len(runes) > 120 {
		return string(runes[:120])
	}
	return s
}
