package alpaca

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omni_pulse/internal/market"
)

type fakeSource map[string]float64

func (f fakeSource) LatestPrice(ticker string) (float64, error) {
	p, ok := f[ticker]
	if !ok {
		return 0, errors.New("no trade")
	}
	return p, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping(" xlk=xlk , xlf=XLF,,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"xlk": "XLK", "xlf": "XLF"}, m)

	_, err = ParseMapping("xlk")
	assert.Error(t, err)

	m, err = ParseMapping("")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestSeeder_Reanchor(t *testing.T) {
	store := market.NewStore(market.DefaultUniverse())
	src := fakeSource{"XLK": 230.10, "XLE": 0}
	mapping := map[string]string{"xlk": "XLK", "xlf": "XLF", "xle": "XLE", "ghost": "XLK"}

	n := NewSeeder(src, mapping, quietLogger()).Reanchor(store)

	assert.Equal(t, 1, n)
	xlk, _ := store.Get("xlk")
	assert.Equal(t, 230.10, xlk.Price)
	xlf, _ := store.Get("xlf")
	assert.Equal(t, 42.36, xlf.Price)
}
