package keys

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeriveIsStableGivenSameInputs is invariant 7 from spec.md §8: HKDF
// stability — the same (seed, identifiers, side) always yields the same
// keypair.
func TestDeriveIsStableGivenSameInputs(t *testing.T) {
	k1, err := Derive(12345, CurveX25519, "adapter://left", "adapter://right", "L", nil)
	require.NoError(t, err)
	k2, err := Derive(12345, CurveX25519, "adapter://left", "adapter://right", "L", nil)
	require.NoError(t, err)
	assert.Equal(t, k1.Priv, k2.Priv)
	assert.Equal(t, k1.Pub, k2.Pub)
}

// TestDeriveIsOrderIndependentOfAdapterSpecs is invariant 8: salt
// canonicalization makes the derivation independent of which side is
// "left" vs "right" in argument order.
func TestDeriveIsOrderIndependentOfAdapterSpecs(t *testing.T) {
	k1, err := Derive(99, CurveX25519, "adapter://a", "adapter://b", "L", nil)
	require.NoError(t, err)
	k2, err := Derive(99, CurveX25519, "adapter://b", "adapter://a", "L", nil)
	require.NoError(t, err)
	assert.Equal(t, k1.Pub, k2.Pub)
}

func TestDeriveDiffersBySide(t *testing.T) {
	left, err := Derive(7, CurveX25519, "a", "b", "L", nil)
	require.NoError(t, err)
	right, err := Derive(7, CurveX25519, "a", "b", "R", nil)
	require.NoError(t, err)
	assert.NotEqual(t, left.Pub, right.Pub)
}

func TestDeriveDiffersBySeed(t *testing.T) {
	k1, err := Derive(1, CurveX25519, "a", "b", "L", nil)
	require.NoError(t, err)
	k2, err := Derive(2, CurveX25519, "a", "b", "L", nil)
	require.NoError(t, err)
	assert.NotEqual(t, k1.Pub, k2.Pub)
}

func TestOverrideTakesPrecedenceAndMarksScenarioProvenance(t *testing.T) {
	var seed [32]byte
	for i := range seed {
		seed[i] = byte(i)
	}
	k, err := Derive(1, CurveX25519, "a", "b", "L", &seed)
	require.NoError(t, err)
	assert.Equal(t, seed, k.Priv)
	assert.Equal(t, ProvenanceScenario, k.Provenance)
}

func TestEd25519PublicKeyDerivation(t *testing.T) {
	k, err := Derive(55, CurveEd25519, "a", "b", "R", nil)
	require.NoError(t, err)
	assert.NotEqual(t, [32]byte{}, k.Pub)
}

func TestKeyIDIsEightHexChars(t *testing.T) {
	k, err := Derive(1, CurveX25519, "a", "b", "L", nil)
	require.NoError(t, err)
	assert.Len(t, k.KeyID(), 8)
}

func TestSummaryNeverExposesPrivateKeyField(t *testing.T) {
	k, err := Derive(1, CurveX25519, "a", "b", "L", nil)
	require.NoError(t, err)
	s := SummaryOf(k)
	assert.NotContains(t, []string{s.PubHex, s.KeyID, s.Provenance}, hex.EncodeToString(k.Priv[:]))
}
