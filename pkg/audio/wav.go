package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mwidjaja/callscribe/pkg/errorsx"
)

const wavHeaderSize = 44

// wavHeader is the canonical 44-byte RIFF/WAVE PCM header.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// WAVEncoder wraps raw 16-bit PCM into a WAV container without touching the
// samples. It is the zero-dependency converter used when ffmpeg is not wanted.
type WAVEncoder struct {
	sampleRate int
	channels   int
}

func NewWAVEncoder(sampleRate, channels int) *WAVEncoder {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	return &WAVEncoder{sampleRate: sampleRate, channels: channels}
}

func (e *WAVEncoder) Name() string { return "wav" }

func (e *WAVEncoder) Convert(_ context.Context, pcm []byte) ([]byte, error) {
	out, err := EncodeWAV(pcm, e.sampleRate, e.channels)
	return out, errorsx.Wrap(err, errorsx.ReasonConvert)
}

// EncodeWAV prepends a RIFF/WAVE header to raw 16-bit little-endian PCM.
func EncodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio data")
	}
	if len(pcm)%BytesPerSample != 0 {
		return nil, fmt.Errorf("pcm data length %d is not 16-bit aligned", len(pcm))
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}

	bitsPerSample := uint16(16)
	dataSize := uint32(len(pcm))
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(wavHeaderSize-8) + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(channels) * uint32(bitsPerSample) / 8,
		BlockAlign:    uint16(channels) * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("write wav header: %w", err)
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}

// DecodeWAV parses a mono 16-bit PCM WAV file into samples and its sample
// rate. It walks the RIFF chunk list, so extra chunks (LIST/INFO metadata,
// fact) before or after the data chunk are skipped rather than misread as
// audio.
func DecodeWAV(data []byte) ([]int16, int, error) {
	if len(data) < 12 {
		return nil, 0, fmt.Errorf("wav data too short: need at least 12 bytes, got %d", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		fmtSeen    bool
		sampleRate int
		payload    []byte
	)
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := data[off+8:]
		if size > len(body) {
			size = len(body)
		}
		body = body[:size]
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if audioFormat != 1 {
				return nil, 0, fmt.Errorf("unsupported audio format %d (only PCM)", audioFormat)
			}
			if bits != 16 {
				return nil, 0, fmt.Errorf("unsupported bit depth %d (only 16-bit)", bits)
			}
			if channels != 1 {
				return nil, 0, fmt.Errorf("unsupported channel count %d (only mono)", channels)
			}
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			fmtSeen = true
		case "data":
			payload = body
		}
		// Chunk bodies are word aligned; odd sizes carry a pad byte.
		off += 8 + size + size%2
		if fmtSeen && payload != nil {
			break
		}
	}
	if !fmtSeen {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if payload == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}

	numSamples := len(payload) / BytesPerSample
	if numSamples <= 0 {
		return nil, 0, fmt.Errorf("no audio data found")
	}
	samples := make([]int16, numSamples)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2 : i*2+2]))
	}
	return samples, sampleRate, nil
}
