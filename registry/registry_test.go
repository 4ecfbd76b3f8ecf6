package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Icing-Project/DryBox"
	_ "github.com/Icing-Project/DryBox/adapters/loopback"
)

func TestResolveEntrypoint(t *testing.T) {
	a, info, err := Resolve("entrypoint:loopback", "")
	require.NoError(t, err)
	assert.Equal(t, SourceEntrypoint, info.Source)
	assert.NotNil(t, a)
}

func TestResolveUnknownEntrypointReturnsAdapterLoadError(t *testing.T) {
	_, _, err := Resolve("entrypoint:does-not-exist", "")
	require.Error(t, err)
	var ale *drybox.AdapterLoadError
	assert.ErrorAs(t, err, &ale)
}

func TestResolveMissingFileErrors(t *testing.T) {
	_, _, err := Resolve("nope.so", t.TempDir())
	require.Error(t, err)
	var ale *drybox.AdapterLoadError
	assert.ErrorAs(t, err, &ale)
}
