package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ppiankov/canisense/internal/model"
)

// RecordingVersion is the current recording format version
const RecordingVersion = 1

const recordingMagic = "canisense-recording"

// ErrBadHeader is returned when a stream does not start with a valid header
var ErrBadHeader = errors.New("invalid recording header")

// Header opens every recording
type Header struct {
	Magic   string         `msgpack:"magic"`
	Version int            `msgpack:"version"`
	Created int64          `msgpack:"created"` // ms since epoch, also the session start
	Profile *model.Profile `msgpack:"profile,omitempty"`
}

// Writer appends signals to a recording
type Writer struct {
	enc   *msgpack.Encoder
	buf   *bufio.Writer
	count int
}

// NewWriter writes the header and returns a writer positioned after it
func NewWriter(w io.Writer, created time.Time, profile *model.Profile) (*Writer, error) {
	buf := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(buf)

	h := Header{
		Magic:   recordingMagic,
		Version: RecordingVersion,
		Created: created.UnixMilli(),
		Profile: profile,
	}
	if err := enc.Encode(&h); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{enc: enc, buf: buf}, nil
}

// Write appends one signal
func (w *Writer) Write(sig model.Signal) error {
	if err := w.enc.Encode(&sig); err != nil {
		return fmt.Errorf("write signal %d: %w", w.count, err)
	}
	w.count++
	return nil
}

// Count returns the number of signals written
func (w *Writer) Count() int {
	return w.count
}

// Flush writes buffered data to the underlying writer
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Reader replays a recording. It implements Source.
type Reader struct {
	dec    *msgpack.Decoder
	header Header
	count  int
}

// NewReader reads and validates the header
func NewReader(r io.Reader) (*Reader, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))

	var h Header
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if h.Magic != recordingMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadHeader, h.Magic)
	}
	if h.Version != RecordingVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadHeader, h.Version)
	}
	return &Reader{dec: dec, header: h}, nil
}

// Header returns the recording header
func (r *Reader) Header() Header {
	return r.header
}

// Next decodes the next signal, returning io.EOF at the end of the stream
func (r *Reader) Next(ctx context.Context) (model.Signal, error) {
	if err := ctx.Err(); err != nil {
		return model.Signal{}, err
	}
	var sig model.Signal
	if err := r.dec.Decode(&sig); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Signal{}, io.EOF
		}
		return model.Signal{}, fmt.Errorf("read signal %d: %w", r.count, err)
	}
	r.count++
	return sig, nil
}

// Recording is an open recording file
type Recording struct {
	*Reader
	file *os.File
}

// OpenFile opens a recording from disk
func OpenFile(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Recording{Reader: r, file: f}, nil
}

// Close closes the underlying file
func (r *Recording) Close() error {
	return r.file.Close()
}
