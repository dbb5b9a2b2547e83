package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/models"
)

func TestFyersSymbolDerivation(t *testing.T) {
	symbol, err := fyersSymbol(models.OrderSpec{
		Underlying: "NIFTY",
		Strike:     24000,
		OptionType: models.OptionCall,
		Expiry:     "2025-09-25",
	})
	require.NoError(t, err)
	assert.Equal(t, "NSE:NIFTY25SEP24000CE", symbol)
}

func TestFyersSymbolOverrideWins(t *testing.T) {
	symbol, err := fyersSymbol(models.OrderSpec{
		FyersSymbol: "NSE:BANKNIFTY25OCT52000PE",
		Underlying:  "NIFTY",
		Strike:      24000,
		OptionType:  models.OptionCall,
	})
	require.NoError(t, err)
	assert.Equal(t, "NSE:BANKNIFTY25OCT52000PE", symbol)
}

func TestFyersSymbolRequiresExpiry(t *testing.T) {
	_, err := fyersSymbol(models.OrderSpec{
		Underlying: "NIFTY",
		Strike:     24000,
		OptionType: models.OptionCall,
	})
	assert.ErrorIs(t, err, bberrors.ErrInvalidParameters)
}

func TestStoxkartSymbolDerivation(t *testing.T) {
	symbol, err := stoxkartSymbol(models.OrderSpec{
		Underlying: "BANKNIFTY",
		Strike:     52000,
		OptionType: models.OptionPut,
		Expiry:     "2025-10-28",
	})
	require.NoError(t, err)
	assert.Equal(t, "BANKNIFTY28OCT2552000PE", symbol)
}

func TestSymbolRejectsBadExpiry(t *testing.T) {
	_, err := stoxkartSymbol(models.OrderSpec{
		Underlying: "NIFTY",
		Strike:     24000,
		OptionType: models.OptionCall,
		Expiry:     "25-09-2025",
	})
	assert.ErrorIs(t, err, bberrors.ErrInvalidParameters)
}

func TestLegTag(t *testing.T) {
	tag := legTag("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "6ba7b8109dad11d180b4", tag)
	assert.LessOrEqual(t, len(tag), 20)
	assert.NotContains(t, tag, "-")
}
