// Package atu classifies and resolves administrative territorial unit
// codes against two read-only reference datasets: the hierarchical NUTS
// classification and the LAU local-unit register. Both are loaded once at
// startup, so the resolver is safe for concurrent use without locking.
package atu

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"locator/internal/lookup/models"
)

//go:embed nuts.csv lau.csv
var dataFS embed.FS

// Resolver maps territorial codes to their level and Latin display name.
type Resolver struct {
	nuts map[string]string
	lau  map[string]string
}

// NewResolver loads the embedded reference datasets.
func NewResolver() (*Resolver, error) {
	nuts, err := loadDataset("nuts.csv")
	if err != nil {
		return nil, fmt.Errorf("load NUTS dataset: %w", err)
	}
	lau, err := loadDataset("lau.csv")
	if err != nil {
		return nil, fmt.Errorf("load LAU dataset: %w", err)
	}
	return &Resolver{nuts: nuts, lau: lau}, nil
}

// NewResolverFromData builds a resolver from explicit datasets. Intended
// for tests.
func NewResolverFromData(nuts, lau map[string]string) *Resolver {
	return &Resolver{nuts: nuts, lau: lau}
}

func loadDataset(name string) (map[string]string, error) {
	f, err := dataFS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out[rec[0]] = rec[1]
	}
	return out, nil
}

// nutsLevelFromLength maps a code length onto a NUTS level; ok is false for
// lengths outside the NUTS hierarchy.
func nutsLevelFromLength(n int) (models.ATULevel, bool) {
	switch n {
	case 2:
		return models.ATULevelNuts0, true
	case 3:
		return models.ATULevelNuts1, true
	case 4:
		return models.ATULevelNuts2, true
	case 5:
		return models.ATULevelNuts3, true
	default:
		return "", false
	}
}

// Resolve classifies an upper-cased territorial code and resolves its
// display name. Resolution never fails: codes absent from the reference
// data get an explicit placeholder name so that missing administrative
// metadata cannot block returning a provider.
func (r *Resolver) Resolve(code string) models.TerritorialUnit {
	if level, ok := nutsLevelFromLength(len(code)); ok {
		name, ok := r.nuts[code]
		if !ok {
			name = fmt.Sprintf("Unknown NUTS code '%s'", code)
		}
		return models.TerritorialUnit{Level: level, Code: code, Name: name}
	}

	if name, ok := r.lau[code]; ok {
		return models.TerritorialUnit{Level: models.ATULevelLAU, Code: code, Name: name}
	}

	// Neither a NUTS length nor a known LAU: undifferentiated fallback.
	return models.TerritorialUnit{
		Level: models.ATULevelEDU,
		Code:  code,
		Name:  fmt.Sprintf("Unknown territorial unit '%s'", code),
	}
}

// KnownNUTS reports whether the code is present in the NUTS dataset.
func (r *Resolver) KnownNUTS(code string) bool {
	_, ok := r.nuts[code]
	return ok
}

// KnownLAU reports whether the code is present in the LAU dataset.
func (r *Resolver) KnownLAU(code string) bool {
	_, ok := r.lau[code]
	return ok
}

// IsPlausibleCode reports whether a string has the shape of a territorial
// identifier: two ASCII letters followed by up to eight alphanumerics.
// This is a syntax check only; unknown but well-formed codes are accepted
// and resolved to placeholders later.
func IsPlausibleCode(code string) bool {
	if len(code) < 2 || len(code) > 10 {
		return false
	}
	upper := strings.ToUpper(code)
	for i, c := range upper {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i < 2 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
