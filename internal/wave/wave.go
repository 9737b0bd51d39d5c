// Package wave reads and writes minimal mono PCM-16 WAV files for the
// offline scanner. Samples are exchanged as float64 in [-1, 1].
package wave

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// header is the canonical 44-byte RIFF/WAVE header for PCM data.
type header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16 // 1 = PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// fmtChunk holds the PCM fields of a "fmt " chunk body.
type fmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Encode serializes float samples in [-1, 1] as a mono PCM-16 WAV file.
// Out-of-range samples are clamped.
func Encode(samples []float64, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("wave: no samples to encode")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("wave: sample rate must be > 0: %d", sampleRate)
	}

	pcm := make([]int16, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}

		// Round to the nearest step so the quantization error stays
		// within half an LSB.
		pcm[i] = int16(math.Round(v * 32767))
	}

	dataSize := uint32(len(pcm) * 2)

	h := header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)*2))

	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("wave: write header: %w", err)
	}

	if err := binary.Write(buf, binary.LittleEndian, pcm); err != nil {
		return nil, fmt.Errorf("wave: write data: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode parses a mono PCM-16 WAV file into float samples in [-1, 1] and
// its sample rate. Unknown chunks (LIST, fact and the like, common in
// recorder output) are skipped until the data chunk is found.
func Decode(data []byte) ([]float64, int, error) {
	if len(data) < 12 {
		return nil, 0, fmt.Errorf("wave: data too short: %d bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("wave: not a RIFF/WAVE file")
	}

	var f fmtChunk
	haveFmt := false

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, 0, fmt.Errorf("wave: malformed fmt chunk")
			}

			if err := binary.Read(bytes.NewReader(data[body:body+16]), binary.LittleEndian, &f); err != nil {
				return nil, 0, fmt.Errorf("wave: read fmt chunk: %w", err)
			}

			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, 0, fmt.Errorf("wave: data chunk precedes fmt chunk")
			}

			end := body + size
			if end > len(data) {
				end = len(data)
			}

			return decodeSamples(data[body:end], f)
		}

		// Chunks are word-aligned; odd-sized bodies carry a pad byte.
		pos = body + size + size%2
	}

	return nil, 0, fmt.Errorf("wave: no data chunk")
}

func decodeSamples(body []byte, f fmtChunk) ([]float64, int, error) {
	switch {
	case f.AudioFormat != 1:
		return nil, 0, fmt.Errorf("wave: unsupported audio format %d, want PCM", f.AudioFormat)
	case f.BitsPerSample != 16:
		return nil, 0, fmt.Errorf("wave: unsupported bit depth %d, want 16", f.BitsPerSample)
	case f.NumChannels != 1:
		return nil, 0, fmt.Errorf("wave: unsupported channel count %d, want mono", f.NumChannels)
	}

	n := len(body) / 2
	if n <= 0 {
		return nil, 0, fmt.Errorf("wave: no sample data")
	}

	pcm := make([]int16, n)
	if err := binary.Read(bytes.NewReader(body[:n*2]), binary.LittleEndian, pcm); err != nil {
		return nil, 0, fmt.Errorf("wave: read data: %w", err)
	}

	// Divide by the encode full scale so a round trip is the identity up
	// to quantization; -32768 lands just below -1 and is clamped.
	out := make([]float64, n)
	for i, v := range pcm {
		x := float64(v) / 32767
		if x < -1 {
			x = -1
		}

		out[i] = x
	}

	return out, int(f.SampleRate), nil
}

// ReadFile decodes a WAV file from disk.
func ReadFile(path string) ([]float64, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("wave: %w", err)
	}

	return Decode(data)
}
