package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var siretRegex = regexp.MustCompile(`^\d{14}$`)

// ValidateSiret validates a French SIRET number (14 digits)
func ValidateSiret(siret string) error {
	if !siretRegex.MatchString(siret) {
		return fmt.Errorf("siret must be 14 digits: %s", siret)
	}
	return nil
}

// NormalizeSiret strips the spacing commonly found in extracted SIRET
// numbers before validation
func NormalizeSiret(siret string) string {
	return strings.ReplaceAll(strings.TrimSpace(siret), " ", "")
}

// SanitizeFilename removes control characters and any path components
// from a client-supplied filename
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	sanitized := regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(name, "")
	if sanitized == "" || sanitized == "." || sanitized == "/" {
		return "upload"
	}
	return sanitized
}
