package upload

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxSanitizedNameLength = 200
	uniqueSuffixLength     = 6
	timestampLayout        = "02_15.04.05"
	suffixAlphabet         = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^\w\s\-.]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// CreateSanitizedUniqueFileName builds the stored name for an uploaded file:
// <DD_HH.mm.ss>_<6 alnum>_<stem>.<ext>. The base is cut to 200 bytes before
// the extension is split off, so a long name can lose part of its extension.
func CreateSanitizedUniqueFileName(originalName string, now time.Time) string {
	name := unsafeNameChars.ReplaceAllString(originalName, "")
	name = whitespaceRuns.ReplaceAllString(name, "_")
	if len(name) > maxSanitizedNameLength {
		name = name[:maxSanitizedNameLength]
	}

	stem, ext := name, ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		stem, ext = name[:i], name[i+1:]
	}

	out := now.Format(timestampLayout) + "_" + uniqueSuffix() + "_" + stem
	if ext != "" {
		out += "." + ext
	}
	return out
}

// uniqueSuffix maps random UUID bytes onto [A-Za-z0-9]. Collisions within the
// same second are unlikely, not impossible; the value is not a secret.
func uniqueSuffix() string {
	id := uuid.New()
	out := make([]byte, uniqueSuffixLength)
	for i := range out {
		out[i] = suffixAlphabet[int(id[i])%len(suffixAlphabet)]
	}
	return string(out)
}
