package encoder

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// memSeeker is an in-memory io.WriteSeeker; the wav encoder needs to seek
// back and patch the RIFF header on Close.
type memSeeker struct {
	buf []byte
	pos int
}

func (m *memSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		m.buf = append(m.buf, make([]byte, need-len(m.buf))...)
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(m.pos) + offset
	case io.SeekEnd:
		pos = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position %d", pos)
	}
	m.pos = int(pos)
	return pos, nil
}

type WavEncoder struct {
	out         *memSeeker
	enc         *wav.Encoder
	totalFrames uint64
}

func NewWav() (*WavEncoder, error) {
	out := &memSeeker{}
	return &WavEncoder{
		out: out,
		enc: wav.NewEncoder(out, SampleRate, BitsPerSample, Channels, 1),
	}, nil
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	data := make([]int, len(block))
	for i, s := range block {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: BitsPerSample,
	}
	if err := e.enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav block: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	return e.enc.Close()
}

func (e *WavEncoder) Bytes() []byte { return e.out.buf }

func (e *WavEncoder) TotalFrames() uint64 { return e.totalFrames }

func (e *WavEncoder) ContentType() string { return "audio/wav" }

func (e *WavEncoder) FileExt() string { return "wav" }
