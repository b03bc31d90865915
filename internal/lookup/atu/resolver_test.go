package atu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locator/internal/lookup/models"
)

func TestResolver_EmbeddedDatasets(t *testing.T) {
	r, err := NewResolver()
	require.NoError(t, err)

	assert.True(t, r.KnownNUTS("AT130"))
	assert.True(t, r.KnownLAU("AT1301"))
	assert.False(t, r.KnownNUTS("XX999"))
}

func TestResolver_Resolve(t *testing.T) {
	r, err := NewResolver()
	require.NoError(t, err)

	t.Run("level follows code length", func(t *testing.T) {
		assert.Equal(t, models.TerritorialUnit{Level: models.ATULevelNuts0, Code: "AT", Name: "Österreich"}, r.Resolve("AT"))
		assert.Equal(t, models.ATULevelNuts1, r.Resolve("AT1").Level)
		assert.Equal(t, models.ATULevelNuts2, r.Resolve("AT13").Level)
		assert.Equal(t, models.TerritorialUnit{Level: models.ATULevelNuts3, Code: "AT130", Name: "Wien"}, r.Resolve("AT130"))
	})

	t.Run("unknown NUTS code gets a placeholder, not an error", func(t *testing.T) {
		got := r.Resolve("ZZ999")
		assert.Equal(t, models.ATULevelNuts3, got.Level)
		assert.Equal(t, "Unknown NUTS code 'ZZ999'", got.Name)
	})

	t.Run("non NUTS length resolves against LAU dataset", func(t *testing.T) {
		got := r.Resolve("AT1301")
		assert.Equal(t, models.TerritorialUnit{Level: models.ATULevelLAU, Code: "AT1301", Name: "Wien Innere Stadt"}, got)
	})

	t.Run("unknown local code falls back to undifferentiated level", func(t *testing.T) {
		got := r.Resolve("AT99999999")
		assert.Equal(t, models.ATULevelEDU, got.Level)
		assert.Equal(t, "Unknown territorial unit 'AT99999999'", got.Name)
	})

	t.Run("resolution is deterministic", func(t *testing.T) {
		first := r.Resolve("ES300")
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, r.Resolve("ES300"))
		}
	})
}

func TestIsPlausibleCode(t *testing.T) {
	valid := []string{"AT", "AT1", "AT130", "at130", "DE50011", "ES30079"}
	for _, code := range valid {
		assert.True(t, IsPlausibleCode(code), code)
	}

	invalid := []string{"", "A", "1T130", "AT 130", "AT-130", "AT1234567890", "Ö1"}
	for _, code := range invalid {
		assert.False(t, IsPlausibleCode(code), code)
	}
}
