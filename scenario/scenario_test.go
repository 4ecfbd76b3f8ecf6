package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Icing-Project/DryBox"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTemp(t, `
mode: byte
duration_ms: 1000
seed: 1
bearer:
  type: ott_udp
  latency_ms: 20
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1500, s.Bearer.MtuBytes)
	assert.Equal(t, 20.0, s.Bearer.FrameMs)
}

func TestLoadRejectsBadMode(t *testing.T) {
	path := writeTemp(t, `
mode: carrier_pigeon
duration_ms: 1000
seed: 1
bearer: {type: ott_udp}
`)
	_, err := Load(path)
	require.Error(t, err)
	var si *drybox.ScenarioInvalidError
	require.ErrorAs(t, err, &si)
	assert.Equal(t, "mode", si.Field)
}

func TestLoadRejectsSmallMtu(t *testing.T) {
	path := writeTemp(t, `
mode: byte
duration_ms: 1000
seed: 1
bearer: {type: ott_udp, mtu_bytes: 2}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, drybox.ExitScenarioInvalid, drybox.ExitCodeFor(err))
}

func TestExpandSweepOverSNRList(t *testing.T) {
	path := writeTemp(t, `
mode: audio
duration_ms: 1000
seed: 1
bearer: {type: ott_udp}
channel:
  type: awgn
  snr_db: [0, 10, 20]
`)
	s, err := Load(path)
	require.NoError(t, err)

	expansions := s.ExpandSweep()
	require.Len(t, expansions, 3)
	for i, exp := range expansions {
		assert.Equal(t, float64(i*10), exp.Scenario.Channel.SNRDb)
		assert.NotEmpty(t, exp.Suffix)
	}
}

func TestExpandSweepScalarIsSingleton(t *testing.T) {
	path := writeTemp(t, `
mode: audio
duration_ms: 1000
seed: 1
bearer: {type: ott_udp}
channel: {type: awgn, snr_db: 10}
`)
	s, err := Load(path)
	require.NoError(t, err)

	expansions := s.ExpandSweep()
	require.Len(t, expansions, 1)
	assert.Equal(t, "", expansions[0].Suffix)
	assert.Equal(t, 10.0, expansions[0].Scenario.Channel.SNRDb)
}
