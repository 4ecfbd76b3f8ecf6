package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrBadMagic is returned when a stream doesn't begin with the DBXC magic.
var ErrBadMagic = errors.New("capture: bad magic")

// Reader decodes a capture stream written by Writer. Used by tests and
// offline analysis tools, never by the engine itself at runtime.
type Reader struct {
	r       *bufio.Reader
	Version byte
}

// NewReader validates the header and returns a Reader positioned at the
// first record.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("capture: read magic: %w", err)
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}
	version, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("capture: read version: %w", err)
	}
	return &Reader{r: br, Version: version}, nil
}

// Next decodes the next record, or returns io.EOF when the stream is
// exhausted.
func (cr *Reader) Next() (Record, error) {
	var hdr [8 + 1 + 1 + 1 + 4]byte
	if _, err := io.ReadFull(cr.r, hdr[:]); err != nil {
		return Record{}, err
	}
	length := binary.LittleEndian.Uint32(hdr[11:15])
	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(cr.r, data); err != nil {
			return Record{}, fmt.Errorf("capture: read record data: %w", err)
		}
	}
	return Record{
		TMs:   binary.LittleEndian.Uint64(hdr[0:8]),
		Side:  Side(hdr[8]),
		Layer: Layer(hdr[9]),
		Event: Event(hdr[10]),
		Data:  data,
	}, nil
}
