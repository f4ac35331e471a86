package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesmerge/pkg/canonical"
)

func TestRegistryKnowsAllChannels(t *testing.T) {
	reg := NewRegistry()
	for _, c := range canonical.Channels() {
		desc, err := reg.Describe(c)
		require.NoError(t, err, "channel %s", c)
		assert.Equal(t, c, desc.Channel)
		assert.NotEmpty(t, desc.Required)
	}
	assert.Equal(t, canonical.Channels(), reg.Channels())
}

func TestDescribeUnknownChannel(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Describe("sysco")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "sku description", Normalize("SKU  Description"))
	assert.Equal(t, "sku description", Normalize("  sku\tdescription "))
	assert.Equal(t, "customer", Normalize("Customer"))
	assert.Equal(t, "", Normalize("   "))
}

func TestMissingColumns(t *testing.T) {
	reg := NewRegistry()
	desc, err := reg.Describe(canonical.Horizon)
	require.NoError(t, err)

	// Header drift in case and spacing still matches.
	complete := []string{"Customer", "Prov", "SKU#", "SKU  Description", "QUANTITY", "Sales"}
	assert.Empty(t, desc.MissingColumns(complete))

	partial := []string{"Customer", "SKU#", "Sales"}
	assert.ElementsMatch(t, []string{"sku description", "quantity"}, desc.MissingColumns(partial))
}

func TestFieldFor(t *testing.T) {
	reg := NewRegistry()
	desc, err := reg.Describe(canonical.Ollie)
	require.NoError(t, err)

	f, ok := desc.FieldFor("Variant Name")
	require.True(t, ok)
	assert.Equal(t, FieldProductName, f)

	f, ok = desc.FieldFor("State")
	require.True(t, ok)
	assert.Equal(t, FieldProvince, f)

	_, ok = desc.FieldFor("Zip/Postal Code")
	assert.False(t, ok, "unmapped optional columns resolve to nothing")
}

func TestDateFromName(t *testing.T) {
	reg := NewRegistry()

	horizon, _ := reg.Describe(canonical.Horizon)
	psc, _ := reg.Describe(canonical.PSC)
	ollie, _ := reg.Describe(canonical.Ollie)

	assert.True(t, horizon.DateFromName)
	assert.True(t, psc.DateFromName)
	assert.False(t, ollie.DateFromName)
}
