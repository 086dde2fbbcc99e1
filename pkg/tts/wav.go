// Package tts synthesizes podcast audio: provider speech calls with
// transient-error retry, raw PCM wrapped into WAV containers.
package tts

import (
	"encoding/binary"
)

// Output audio format: mono 16-bit PCM at 24 kHz, which is what the speech
// models emit.
const (
	Channels    = 1
	SampleRate  = 24000
	SampleWidth = 2 // bytes per sample
)

// WrapWAV prefixes raw PCM with a RIFF/WAVE header.
func WrapWAV(pcm []byte) []byte {
	dataLen := uint32(len(pcm))
	byteRate := uint32(SampleRate * Channels * SampleWidth)
	blockAlign := uint16(Channels * SampleWidth)

	buf := make([]byte, 0, 44+len(pcm))
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, 36+dataLen)
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, Channels)
	buf = binary.LittleEndian.AppendUint32(buf, SampleRate)
	buf = binary.LittleEndian.AppendUint32(buf, byteRate)
	buf = binary.LittleEndian.AppendUint16(buf, blockAlign)
	buf = binary.LittleEndian.AppendUint16(buf, SampleWidth*8)

	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, dataLen)
	buf = append(buf, pcm...)
	return buf
}

// Duration returns the playback length in seconds for raw PCM of this
// package's format.
func Duration(pcmLen int) float64 {
	return float64(pcmLen) / float64(SampleRate*Channels*SampleWidth)
}
