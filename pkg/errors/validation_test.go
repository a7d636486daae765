package errors

import (
	"testing"
)

func TestValidateSiteID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "KOG", false},
		{"valid digits", "SEK2", false},
		{"valid underscore", "NOG_west", false},

		{"empty", "", true},
		{"path traversal", "../etc", true},
		{"slash", "KOG/x", true},
		{"dash", "KOG-all", true},
		{"too long", "ABCDEFGHIJKLMNOPQRSTUVWXYZABCDEFGH", true},
		{"null byte", "KO\x00G", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSiteID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSiteID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSite) {
				t.Errorf("ValidateSiteID(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateDateRange(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantEarly string
		wantLater string
		wantErr   bool
	}{
		{"valid", "20170611-20170713", "20170611", "20170713", false},
		{"same day", "20170611-20170611", "20170611", "20170611", false},
		{"non-date tokens", "KOG-all", "KOG", "all", false},

		{"empty", "", "", "", true},
		{"no dash", "20170611", "", "", true},
		{"reversed", "20170713-20170611", "", "", true},
		{"three parts", "2017-06-11", "", "", true},
		{"traversal", "..-20170611", "", "", true},
		{"slash", "2017/06-2017", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			early, later, err := ValidateDateRange(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDateRange(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !Is(err, ErrCodeInvalidDateRange) {
					t.Errorf("wrong error code: %v", err)
				}
				return
			}
			if early != tt.wantEarly || later != tt.wantLater {
				t.Errorf("got (%q, %q), want (%q, %q)", early, later, tt.wantEarly, tt.wantLater)
			}
		})
	}
}

func TestValidateShapefileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "20170611-berg3.shp", false},
		{"upper case extension", "BERG.SHP", false},

		{"empty", "", true},
		{"path", "KOG/berg.shp", true},
		{"backslash", "KOG\\berg.shp", true},
		{"hidden", ".berg.shp", true},
		{"wrong extension", "berg.dbf", true},
		{"control char", "be\x01rg.shp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShapefileName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateShapefileName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "Iceberg-shapefiles", false},
		{"valid nested", "Melt-rates/KOG/20170611-20170713", false},
		{"valid with dots", "data/Glacier-Locations.csv", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidSite,
		ErrCodeInvalidDateRange,
		ErrCodeInvalidFormat,
		ErrCodeInvalidMode,
		ErrCodeInvalidView,
		ErrCodeInvalidPath,
		ErrCodeInvalidConfig,
		ErrCodeInvalidGeometry,
		ErrCodeEmptyGeometry,
		ErrCodeMissingGeometry,
		ErrCodeUndefinedCRS,
		ErrCodeAmbiguousProjection,
		ErrCodeInsufficientData,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
