package engine

import (
	"fmt"
	"os"

	"github.com/Icing-Project/DryBox"
	"github.com/Icing-Project/DryBox/keys"
)

// WritePubKeys writes the public-only key summary artifact of spec.md §6:
// key_id/pub_hex/provenance for both sides, plus the adapter spec lines.
// Private material is never written.
func (e *Engine) WritePubKeys(path, leftSpec, rightSpec string) error {
	left := keys.SummaryOf(e.leftKeys)
	right := keys.SummaryOf(e.rightKeys)

	content := fmt.Sprintf(
		"L.key_id=%s\nL.pub_hex=%s\nL.provenance=%s\nL.adapter=%s\nR.key_id=%s\nR.pub_hex=%s\nR.provenance=%s\nR.adapter=%s\n",
		left.KeyID, left.PubHex, left.Provenance, leftSpec,
		right.KeyID, right.PubHex, right.Provenance, rightSpec,
	)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &drybox.IoFailureError{Artifact: path, Err: err}
	}
	return nil
}
