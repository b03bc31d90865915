package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	t.Run("trims and removes duplicates preserving order", func(t *testing.T) {
		got := DedupeAndTrim([]string{"  BirthCertificate ", "MarriageCertificate", "BirthCertificate", "", "  "})
		assert.Equal(t, []string{"BirthCertificate", "MarriageCertificate"}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, DedupeAndTrim(nil))
		assert.Empty(t, DedupeAndTrim([]string{}))
	})

	t.Run("whitespace only elements are dropped", func(t *testing.T) {
		assert.Empty(t, DedupeAndTrim([]string{" ", "\t"}))
	})
}
