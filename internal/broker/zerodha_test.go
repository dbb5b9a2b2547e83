package broker

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/models"
)

const instrumentsCSV = `instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange
101,11,NIFTY30JAN24000CE,NIFTY,12.5,2030-01-30,24000,0.05,75,CE,NFO-OPT,NFO
102,12,NIFTY27FEB24000CE,NIFTY,18.0,2030-02-27,24000,0.05,75,CE,NFO-OPT,NFO
103,13,NIFTY30JAN24000PE,NIFTY,9.5,2030-01-30,24000,0.05,75,PE,NFO-OPT,NFO
104,14,NIFTY20JAN24000CE,NIFTY,1.0,2020-01-30,24000,0.05,75,CE,NFO-OPT,NFO
105,15,BANKNIFTY30JAN51000CE,BANKNIFTY,33.0,2030-01-30,51000,0.05,15,CE,NFO-OPT,NFO
106,16,NIFTY30JAN24000CX,NIFTY,12.5,2030-01-30,24000,0.05,75,CE,BFO-OPT,BFO
`

// newZerodhaWithDump points the Kite client at a local instrument dump and
// counts how often the dump is fetched.
func newZerodhaWithDump(t *testing.T, fetches *int64) *ZerodhaAdapter {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/instruments" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		atomic.AddInt64(fetches, 1)
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, instrumentsCSV)
	}))
	t.Cleanup(backend.Close)

	z := NewZerodhaAdapter(models.Credentials{APIKey: "zkey", APISecret: "zsecret"})
	z.SetSession(models.Session{AccessToken: "ztoken"})
	z.kite().SetBaseURI(backend.URL)
	return z
}

func TestZerodhaResolveContract(t *testing.T) {
	var fetches int64
	z := newZerodhaWithDump(t, &fetches)

	// No expiry on the leg: nearest non-past expiry wins, past contracts
	// and other exchanges are skipped.
	inst, err := z.resolveContract(models.OrderSpec{
		Underlying: "NIFTY",
		Strike:     24000,
		OptionType: models.OptionCall,
	})
	require.NoError(t, err)
	assert.Equal(t, "NIFTY30JAN24000CE", inst.Tradingsymbol)

	inst, err = z.resolveContract(models.OrderSpec{
		Underlying: "NIFTY",
		Strike:     24000,
		OptionType: models.OptionCall,
		Expiry:     "2030-02-27",
	})
	require.NoError(t, err)
	assert.Equal(t, "NIFTY27FEB24000CE", inst.Tradingsymbol)

	_, err = z.resolveContract(models.OrderSpec{
		Underlying: "NIFTY",
		Strike:     26500,
		OptionType: models.OptionPut,
	})
	assert.ErrorIs(t, err, bberrors.ErrContractNotFound)

	assert.Equal(t, int64(1), fetches, "the dump is fetched once and cached")
}

func TestZerodhaInstrumentCacheConcurrent(t *testing.T) {
	var fetches int64
	z := newZerodhaWithDump(t, &fetches)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = z.resolveContract(models.OrderSpec{
				Underlying: "NIFTY",
				Strike:     24000,
				OptionType: models.OptionCall,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "goroutine %d", i)
	}
	require.GreaterOrEqual(t, fetches, int64(1))

	// Warm cache: further resolutions never refetch.
	before := atomic.LoadInt64(&fetches)
	_, err := z.resolveContract(models.OrderSpec{
		Underlying: "BANKNIFTY",
		Strike:     51000,
		OptionType: models.OptionCall,
	})
	require.NoError(t, err)
	assert.Equal(t, before, atomic.LoadInt64(&fetches))
}

func TestZerodhaResolveContractRequiresStrike(t *testing.T) {
	z := NewZerodhaAdapter(models.Credentials{APIKey: "zkey"})
	_, err := z.resolveContract(models.OrderSpec{Underlying: "NIFTY"})
	assert.ErrorIs(t, err, bberrors.ErrInvalidParameters)
}
