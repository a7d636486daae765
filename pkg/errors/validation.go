package errors

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// siteIDRegex matches glacier site identifiers such as "KOG" or "SEK2".
var siteIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_]{0,31}$`)

// dateTokenRegex matches one side of a date-range folder name.
var dateTokenRegex = regexp.MustCompile(`^[A-Za-z0-9]{1,16}$`)

// ValidateSiteID validates a glacier site identifier.
// Site IDs become directory names, so anything that could escape the
// configured base directory is rejected.
func ValidateSiteID(site string) error {
	if site == "" {
		return New(ErrCodeInvalidSite, "site cannot be empty")
	}
	if !siteIDRegex.MatchString(site) {
		return New(ErrCodeInvalidSite, "invalid site: %q", site)
	}
	return nil
}

// ValidateDateRange validates a "<early>-<later>" folder name and returns
// both halves. The halves are usually YYYYMMDD dates; when both are dates
// the early date must not come after the later one.
func ValidateDateRange(rangeID string) (early, later string, err error) {
	if rangeID == "" {
		return "", "", New(ErrCodeInvalidDateRange, "date range cannot be empty")
	}
	early, later, ok := strings.Cut(rangeID, "-")
	if !ok || strings.Contains(later, "-") {
		return "", "", New(ErrCodeInvalidDateRange, "date range must look like EARLY-LATER: %q", rangeID)
	}
	if !dateTokenRegex.MatchString(early) || !dateTokenRegex.MatchString(later) {
		return "", "", New(ErrCodeInvalidDateRange, "invalid date range: %q", rangeID)
	}

	e, errE := ParseDate(early)
	l, errL := ParseDate(later)
	if errE == nil && errL == nil && e.After(l) {
		return "", "", New(ErrCodeInvalidDateRange, "early date %s is after later date %s", early, later)
	}
	return early, later, nil
}

// ParseDate parses a YYYYMMDD capture date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, Wrap(ErrCodeInvalidDateRange, err, "invalid date %q (want YYYYMMDD)", s)
	}
	return t, nil
}

// ValidateShapefileName validates a shapefile name selected by a user.
// It must be a plain basename ending in .shp.
func ValidateShapefileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "shapefile name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "shapefile name cannot contain path separators")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "shapefile name cannot be a hidden file")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".shp") {
		return New(ErrCodeInvalidInput, "not a shapefile: %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "shapefile name contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a relative data path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
