// Package beep plays short feedback tones around recording transitions.
package beep

import "math"

var disabled bool

// Disable silences all tones, for headless or test runs.
func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Recording started: high pitch, short.
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Recording stopped: medium pitch.
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Failure: low pitch double-beep.
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

// tone synthesizes a mono sine burst with an exponential decay envelope.
func tone(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func doubleTone(freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := tone(freq, beepDur, volume, decay)
	gap := make([]int16, int(sampleRate*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}
