// Package keys implements the deterministic key derivation of spec.md
// §4.7: an HKDF-SHA256 seed derivation over (scenario_seed, adapter
// identifiers, side), producing an X25519 or Ed25519 keypair per side, with
// an explicit-override escape hatch and a public-only run summary.
package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// Curve selects which asymmetric primitive a run derives keys for.
type Curve string

const (
	CurveX25519  Curve = "x25519"
	CurveEd25519 Curve = "ed25519"
)

// Provenance records whether a side's private key came from the scenario
// file or was derived from the seed, per spec.md §4.7.
type Provenance string

const (
	ProvenanceScenario Provenance = "scenario"
	ProvenanceDerived  Provenance = "derived"
)

// KeyPair is one side's derived (or supplied) keypair plus its public
// summary fields. Priv is never serialized into a run artifact.
type KeyPair struct {
	Priv       [32]byte
	Pub        [32]byte
	Provenance Provenance
}

// PubHex returns the lowercase hex encoding of the public key.
func (k KeyPair) PubHex() string {
	return hex.EncodeToString(k.Pub[:])
}

// KeyID is sha256(pub)[:4] rendered as 8 hex characters, per spec.md §4.7.
func (k KeyPair) KeyID() string {
	sum := sha256.Sum256(k.Pub[:])
	return hex.EncodeToString(sum[:4])
}

// deriveSeed implements spec.md §4.7's HKDF-SHA256 algorithm: IKM is the
// little-endian scenario seed, salt canonicalizes the two adapter
// identifiers independent of L/R ordering, and info binds the output to
// the requested side.
func deriveSeed(scenarioSeed uint64, curve Curve, leftSpec, rightSpec string, side string) ([32]byte, error) {
	ikm := make([]byte, 8)
	binary.LittleEndian.PutUint64(ikm, scenarioSeed)

	specs := []string{leftSpec, rightSpec}
	sort.Strings(specs)
	aa, bb := specs[0], specs[1]

	saltInput := fmt.Sprintf("DryBox.%s.v1|%s|%s", curve, aa, bb)
	saltSum := sha256.Sum256([]byte(saltInput))

	info := []byte("side:" + side)

	r := hkdf.New(sha256.New, ikm, saltSum[:], info)
	var out [32]byte
	if _, err := r.Read(out[:]); err != nil {
		return out, fmt.Errorf("keys: hkdf expand: %w", err)
	}
	return out, nil
}

// Derive produces a side's keypair from the scenario seed and adapter
// identifiers, unless override is non-nil, in which case it takes
// precedence and Provenance is ProvenanceScenario.
func Derive(scenarioSeed uint64, curve Curve, leftSpec, rightSpec, side string, override *[32]byte) (KeyPair, error) {
	var priv [32]byte
	provenance := ProvenanceDerived
	if override != nil {
		priv = *override
		provenance = ProvenanceScenario
	} else {
		var err error
		priv, err = deriveSeed(scenarioSeed, curve, leftSpec, rightSpec, side)
		if err != nil {
			return KeyPair{}, err
		}
	}

	pub, err := publicKey(curve, priv)
	if err != nil {
		return KeyPair{}, err
	}

	return KeyPair{Priv: priv, Pub: pub, Provenance: provenance}, nil
}

func publicKey(curve Curve, priv [32]byte) ([32]byte, error) {
	var pub [32]byte
	switch curve {
	case CurveX25519:
		p, err := curve25519.X25519(priv[:], curve25519.Basepoint)
		if err != nil {
			return pub, fmt.Errorf("keys: x25519 public key: %w", err)
		}
		copy(pub[:], p)
		return pub, nil
	case CurveEd25519:
		edPriv := ed25519.NewKeyFromSeed(priv[:])
		edPub := edPriv.Public().(ed25519.PublicKey)
		copy(pub[:], edPub)
		return pub, nil
	default:
		return pub, fmt.Errorf("keys: unknown curve %q", curve)
	}
}

// Summary is the public-only run artifact record for one side, per
// spec.md §4.7: private keys must never be written to any run file.
type Summary struct {
	PubHex     string `json:"pub_hex"`
	KeyID      string `json:"key_id"`
	Provenance string `json:"provenance"`
}

// SummaryOf builds the run-artifact-safe summary of a keypair.
func SummaryOf(k KeyPair) Summary {
	return Summary{
		PubHex:     k.PubHex(),
		KeyID:      k.KeyID(),
		Provenance: string(k.Provenance),
	}
}
