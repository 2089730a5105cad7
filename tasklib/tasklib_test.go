package tasklib

import (
	"testing"

	"github.com/dszqbsm/noveldl/engine"
	"github.com/stretchr/testify/assert"
)

func TestRegistered(t *testing.T) {
	downloaders, parsers := engine.Store.Names()
	assert.Equal(t, []string{"ExampleDownloader", "generic"}, downloaders)
	assert.Equal(t, []string{"ExampleParser", "generic"}, parsers)

	for _, name := range []string{"", "generic", "ExampleDownloader"} {
		_, err := engine.Store.Downloader(name)
		assert.NoError(t, err, name)
	}
	_, err := engine.Store.Parser("ExampleParser")
	assert.NoError(t, err)
	_, err = engine.Store.Parser("BeautifulParser")
	assert.Error(t, err)
}
