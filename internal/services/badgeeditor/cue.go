package badgeeditor

import (
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	cueSampleRate = beep.SampleRate(44100)
	cueFrequency  = 880.0
	cueDuration   = 40 * time.Millisecond
)

// Tone returns a sine tone of freq lasting d.
func Tone(rate beep.SampleRate, freq float64, d time.Duration) (beep.Streamer, error) {
	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, fmt.Errorf("sine tone: %w", err)
	}
	return beep.Take(rate.N(d), sine), nil
}

// SpeakerCue plays the snap cue on the default audio device.
type SpeakerCue struct {
	rate beep.SampleRate
}

// NewSpeakerCue initializes the speaker. Callers treat a failure as "no
// sound" rather than a fatal error.
func NewSpeakerCue() (*SpeakerCue, error) {
	if err := speaker.Init(cueSampleRate, cueSampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &SpeakerCue{rate: cueSampleRate}, nil
}

// Play queues one short tone.
func (c *SpeakerCue) Play() {
	if c == nil {
		return
	}
	tone, err := Tone(c.rate, cueFrequency, cueDuration)
	if err != nil {
		return
	}
	speaker.Play(tone)
}

// Close releases the audio device.
func (c *SpeakerCue) Close() {
	if c == nil {
		return
	}
	speaker.Close()
}
