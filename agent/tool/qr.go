package tool

import (
	"regexp"
	"strings"
)

const (
	qrMarkerPrefix = "[QR Code Image Saved to "
	qrMarkerSuffix = "]"
)

// Marker format is part of the loop/front-end contract: the dispatcher embeds
// it in checkout results and the orchestration layer scans final answers for
// it. The pattern is forgiving because the model sometimes reflows the text
// around it.
var qrMarkerPattern = regexp.MustCompile(`\[QR Code Image Saved to\s+(.*?)\]`)

// FormatQRMarker builds the marker embedded in a checkout result.
func FormatQRMarker(path string) string {
	return qrMarkerPrefix + path + qrMarkerSuffix
}

// ExtractQRMarker finds a QR marker in text. It returns the referenced path,
// the text with the marker replaced by a user-facing caption, and whether a
// marker was present.
func ExtractQRMarker(text string) (path, cleaned string, ok bool) {
	m := qrMarkerPattern.FindStringSubmatch(text)
	if m == nil {
		return "", text, false
	}
	path = strings.TrimSpace(m[1])
	cleaned = strings.Replace(text, m[0], "Here is your payment QR code:", 1)
	return path, cleaned, true
}
