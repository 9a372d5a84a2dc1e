package layout

import (
	"regexp"
	"strings"
)

// Plate tokens look like VW9327: two or three letters then three to six
// digits. Shorter matches are almost always route codes.
var (
	plateRe        = regexp.MustCompile(`\b([A-Za-z]{2,3}\d{3,6})\b`)
	plateHeaderRe  = regexp.MustCompile(`(?i)Plate#:\s*([^\n]+)`)
	blockRowRe     = regexp.MustCompile(`(?i)B-[A-Z0-9]+\s+[^\n]*`)
	concatenatedRe = regexp.MustCompile(`[A-Z][a-z]+([A-Z]{2,3}\d{3,6})`)
)

// Tokens that match the plate shape but are expense or program names.
var plateBlacklist = map[string]bool{
	"IFTA":      true,
	"PREPASS":   true,
	"SAFETY":    true,
	"INSURANCE": true,
	"DISPATCH":  true,
	"PAYROLL":   true,
}

// ValidPlate reports whether a token has the shape of a real vehicle plate
// and is not a known false positive.
func ValidPlate(token string) bool {
	p := strings.ToUpper(strings.TrimSpace(token))
	return len(p) >= 5 && len(p) <= 8 && !plateBlacklist[p] && !strings.HasPrefix(p, "#")
}

// Vehicles scans raw text for distinct vehicle identifiers. It checks the
// header plate line first (most reliable), then block rows, then plates glued
// to a driver name by the text layer. whitelist, when non-empty, restricts
// accepted plates to known fleet vehicles.
func Vehicles(text string, whitelist []string) []string {
	seen := make(map[string]bool)
	var plates []string
	add := func(raw string) {
		if !ValidPlate(raw) {
			return
		}
		p := strings.ToUpper(strings.TrimSpace(raw))
		if !seen[p] {
			seen[p] = true
			plates = append(plates, p)
		}
	}

	if m := plateHeaderRe.FindStringSubmatch(text); m != nil {
		for _, pm := range plateRe.FindAllStringSubmatch(m[1], -1) {
			add(pm[1])
		}
	}
	for _, row := range blockRowRe.FindAllString(text, -1) {
		for _, pm := range plateRe.FindAllStringSubmatch(row, -1) {
			add(pm[1])
		}
	}
	for _, cm := range concatenatedRe.FindAllStringSubmatch(text, -1) {
		add(cm[1])
	}

	if len(whitelist) > 0 {
		allowed := make(map[string]bool, len(whitelist))
		for _, w := range whitelist {
			allowed[strings.ToUpper(w)] = true
		}
		filtered := plates[:0]
		for _, p := range plates {
			if allowed[p] {
				filtered = append(filtered, p)
			}
		}
		plates = filtered
	}
	return plates
}

// VehicleCount reports how many distinct vehicles the document describes.
// A count above one routes the document to the allocation path.
func VehicleCount(text string, whitelist []string) int {
	return len(Vehicles(text, whitelist))
}
