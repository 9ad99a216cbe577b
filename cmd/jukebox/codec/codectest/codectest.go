// Package codectest builds small audio payloads for tests.
package codectest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// WAV returns a mono 16-bit PCM WAV file containing a sine tone.
func WAV(seconds float64, sampleRate int, freq float64) []byte {
	n := int(seconds * float64(sampleRate))
	data := make([]int16, n)
	for i := range data {
		data[i] = int16(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * 0.5 * math.MaxInt16)
	}

	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	dataSize := n * blockAlign

	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+dataSize))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&b, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&b, binary.LittleEndian, uint32(sampleRate*blockAlign))
	_ = binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&b, binary.LittleEndian, uint16(bitsPerSample))
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(dataSize))
	_ = binary.Write(&b, binary.LittleEndian, data)
	return b.Bytes()
}

// Garbage returns bytes that no decoder accepts.
func Garbage() []byte {
	return []byte("definitely not audio, just some text pretending to be a file")
}
