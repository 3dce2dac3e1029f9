// SPDX-License-Identifier: MIT

/*
Package matfile persists a spectrogram so it can be edited and
resynthesized later.

File layout (all integers big-endian):

	magic      [4]byte  "STFT"
	version    uint16
	precision  uint8    32 or 16 bits per component
	window     uint8    stft.WindowKind
	width      uint32
	height     uint32
	windowSize uint32
	padAmount  uint32
	lead       uint32
	samples    uint64
	sampleRate uint32

followed by width*height cells in storage order, each the real part then
the imaginary part as IEEE float32 or float16.
*/
package matfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	applog "spectro/internal/log"
	"spectro/internal/stft"

	"github.com/x448/float16"
)

var logger = applog.Named("matfile")

// Version is the layout version written by this package.
const Version = 1

var magic = [4]byte{'S', 'T', 'F', 'T'}

// MaxCells bounds the matrix size a header may declare.
const MaxCells = 1 << 28

// readChunk is the most cells allocated ahead of the data backing them.
const readChunk = 1 << 16

var (
	ErrBadMagic   = errors.New("matfile: not a spectrogram file")
	ErrVersion    = errors.New("matfile: unsupported version")
	ErrPrecision  = errors.New("matfile: unsupported precision")
	ErrDimensions = errors.New("matfile: dimensions do not match settings")
)

// Precision is the number of bits stored per real or imaginary component.
type Precision uint8

const (
	Float32 Precision = 32
	Float16 Precision = 16
)

func (p Precision) bytes() int {
	return int(p) / 8
}

// Meta carries everything besides the matrix needed to resynthesize it.
type Meta struct {
	Settings   stft.Settings
	SampleRate int
	Precision  Precision
}

type header struct {
	Magic      [4]byte
	Version    uint16
	Precision  uint8
	Window     uint8
	Width      uint32
	Height     uint32
	WindowSize uint32
	PadAmount  uint32
	Lead       uint32
	Samples    uint64
	SampleRate uint32
}

// Write encodes spec and meta to w.
func Write(w io.Writer, spec *stft.Spectrogram, meta Meta) error {
	if meta.Precision != Float32 && meta.Precision != Float16 {
		return fmt.Errorf("%w: %d", ErrPrecision, meta.Precision)
	}
	if spec.Height > meta.Settings.Bins() {
		return fmt.Errorf("%w: height %d, %d bins", ErrDimensions, spec.Height, meta.Settings.Bins())
	}

	h := header{
		Magic:      magic,
		Version:    Version,
		Precision:  uint8(meta.Precision),
		Window:     uint8(meta.Settings.Window),
		Width:      uint32(spec.Width),
		Height:     uint32(spec.Height),
		WindowSize: uint32(meta.Settings.WindowSize),
		PadAmount:  uint32(meta.Settings.PadAmount),
		Lead:       uint32(spec.Lead),
		Samples:    uint64(spec.Samples),
		SampleRate: uint32(meta.SampleRate),
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, &h); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var (
		cell     [16]byte
		size     = meta.Precision.bytes()
		overflow int
	)
	for _, z := range spec.Data {
		switch meta.Precision {
		case Float32:
			binary.BigEndian.PutUint32(cell[0:], math.Float32bits(float32(real(z))))
			binary.BigEndian.PutUint32(cell[4:], math.Float32bits(float32(imag(z))))
		case Float16:
			re, im := float16.Fromfloat32(float32(real(z))), float16.Fromfloat32(float32(imag(z)))
			if re.IsInf(0) || im.IsInf(0) {
				overflow++
			}
			binary.BigEndian.PutUint16(cell[0:], re.Bits())
			binary.BigEndian.PutUint16(cell[2:], im.Bits())
		}
		if _, err := bw.Write(cell[:2*size]); err != nil {
			return fmt.Errorf("failed to write cells: %w", err)
		}
	}
	if overflow > 0 {
		logger.Warnf("%d cells exceed the float16 range and were stored as infinity", overflow)
	}

	return bw.Flush()
}

// Read decodes a spectrogram written by Write.
func Read(r io.Reader) (*stft.Spectrogram, Meta, error) {
	br := bufio.NewReader(r)

	var h header
	if err := binary.Read(br, binary.BigEndian, &h); err != nil {
		return nil, Meta{}, fmt.Errorf("failed to read header: %w", err)
	}
	if h.Magic != magic {
		return nil, Meta{}, ErrBadMagic
	}
	if h.Version != Version {
		return nil, Meta{}, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}

	meta := Meta{
		Settings: stft.Settings{
			WindowSize: int(h.WindowSize),
			PadAmount:  int(h.PadAmount),
			Window:     stft.WindowKind(h.Window),
		},
		SampleRate: int(h.SampleRate),
		Precision:  Precision(h.Precision),
	}
	if meta.Precision != Float32 && meta.Precision != Float16 {
		return nil, Meta{}, fmt.Errorf("%w: %d", ErrPrecision, h.Precision)
	}
	if err := meta.Settings.Validate(); err != nil {
		return nil, Meta{}, err
	}
	if int(h.Height) > meta.Settings.Bins() {
		return nil, Meta{}, fmt.Errorf("%w: height %d, %d bins", ErrDimensions, h.Height, meta.Settings.Bins())
	}

	cells := uint64(h.Width) * uint64(h.Height)
	if cells > MaxCells {
		return nil, Meta{}, fmt.Errorf("%w: %dx%d exceeds %d cells", ErrDimensions, h.Width, h.Height, MaxCells)
	}

	// Data grows as cells arrive so a lying header cannot force a huge
	// allocation up front.
	data := make([]complex128, 0, min(cells, readChunk))
	size := meta.Precision.bytes()
	cell := make([]byte, 2*size)
	for i := uint64(0); i < cells; i++ {
		if _, err := io.ReadFull(br, cell); err != nil {
			return nil, Meta{}, fmt.Errorf("failed to read cell %d: %w", i, err)
		}
		var re, im float32
		switch meta.Precision {
		case Float32:
			re = math.Float32frombits(binary.BigEndian.Uint32(cell[0:]))
			im = math.Float32frombits(binary.BigEndian.Uint32(cell[4:]))
		case Float16:
			re = float16.Frombits(binary.BigEndian.Uint16(cell[0:])).Float32()
			im = float16.Frombits(binary.BigEndian.Uint16(cell[2:])).Float32()
		}
		data = append(data, complex(float64(re), float64(im)))
	}

	spec := &stft.Spectrogram{
		Width:   int(h.Width),
		Height:  int(h.Height),
		Data:    data,
		Lead:    int(h.Lead),
		Samples: int(h.Samples),
	}
	return spec, meta, nil
}

// WriteFile writes spec to path.
func WriteFile(path string, spec *stft.Spectrogram, meta Meta) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, spec, meta)
}

// ReadFile reads a spectrogram from path.
func ReadFile(path string) (*stft.Spectrogram, Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Meta{}, err
	}
	defer f.Close()
	return Read(f)
}
