package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

// Segments are 16-bit mono PCM throughout the pipeline.
const (
	bytesPerSample = 2
	numChannels    = 1
	bitsPerSample  = 16
)

// WriteWAV writes raw PCM samples to path as a 16-bit mono WAV file.
func WriteWAV(path string, pcm []byte, sampleRate int) error {
	if sampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	header := make([]byte, 44)
	dataLen := len(pcm)
	byteRate := sampleRate * numChannels * bytesPerSample

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], numChannels*bytesPerSample)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("failed to write wav header: %w", err)
	}
	if _, err := f.Write(pcm); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}

	return f.Sync()
}

// ReadWAV reads a 16-bit mono WAV file produced by WriteWAV and returns the
// PCM samples and sample rate.
func ReadWAV(path string) ([]byte, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read wav file: %w", err)
	}

	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a wav file")
	}

	sampleRate := int(binary.LittleEndian.Uint32(data[24:28]))
	dataLen := int(binary.LittleEndian.Uint32(data[40:44]))
	if dataLen > len(data)-44 {
		dataLen = len(data) - 44
	}

	return data[44 : 44+dataLen], sampleRate, nil
}

// Silence returns PCM samples of zeroed audio for the given duration.
func Silence(d time.Duration, sampleRate int) []byte {
	samples := int(d.Seconds() * float64(sampleRate))
	if samples < 0 {
		samples = 0
	}
	return make([]byte, samples*bytesPerSample)
}

// Duration computes the playback length of PCM samples at the given rate.
func Duration(pcm []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(pcm)/bytesPerSample) / float64(sampleRate)
}
