package session

import "github.com/cwbudde/algo-dsp/dsp/core"

// Config defines configuration for an analysis session.
type Config struct {
	core.ProcessorConfig

	// FFTSize is the analyser transform size. Each frame carries
	// FFTSize time-domain samples and FFTSize/2 magnitude bins.
	FFTSize int

	// FrameRate is the capture tick rate in frames per second.
	FrameRate float64

	// CalibrationFrames is the noise-floor calibration window length.
	CalibrationFrames int

	// MaxGapFrames is the quiet run that closes an open segment.
	MaxGapFrames int

	// MinSegmentFrames is the minimum accumulated frame count for a
	// segment to reach the classifier.
	MinSegmentFrames int

	// CooldownFrames suppresses further classifications after an
	// emission for this many frames.
	CooldownFrames int

	// HistoryCap bounds the retained classification history.
	HistoryCap int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults for a 30 Hz capture tick:
// ~3 s calibration, ~0.2 s gap tolerance, ~0.1 s minimum segment and a
// ~1 s classification cooldown.
func DefaultConfig() Config {
	return Config{
		ProcessorConfig:   core.DefaultProcessorConfig(),
		FFTSize:           2048,
		FrameRate:         30,
		CalibrationFrames: 90,
		MaxGapFrames:      6,
		MinSegmentFrames:  3,
		CooldownFrames:    30,
		HistoryCap:        50,
	}
}

// WithSampleRate sets the capture sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithFFTSize sets the analyser transform size.
func WithFFTSize(fftSize int) Option {
	return func(cfg *Config) {
		if fftSize >= 4 {
			cfg.FFTSize = fftSize
		}
	}
}

// WithFrameRate sets the capture tick rate in frames per second.
func WithFrameRate(frameRate float64) Option {
	return func(cfg *Config) {
		if frameRate > 0 {
			cfg.FrameRate = frameRate
		}
	}
}

// WithCalibrationFrames sets the calibration window length in frames.
func WithCalibrationFrames(frames int) Option {
	return func(cfg *Config) {
		if frames > 0 {
			cfg.CalibrationFrames = frames
		}
	}
}

// WithMaxGapFrames sets the segment-closing quiet run in frames.
func WithMaxGapFrames(frames int) Option {
	return func(cfg *Config) {
		if frames >= 1 {
			cfg.MaxGapFrames = frames
		}
	}
}

// WithMinSegmentFrames sets the minimum segment length in frames.
func WithMinSegmentFrames(frames int) Option {
	return func(cfg *Config) {
		if frames >= 1 {
			cfg.MinSegmentFrames = frames
		}
	}
}

// WithCooldownFrames sets the post-classification cooldown in frames.
// Zero disables rate limiting.
func WithCooldownFrames(frames int) Option {
	return func(cfg *Config) {
		if frames >= 0 {
			cfg.CooldownFrames = frames
		}
	}
}

// WithHistoryCap sets the retained classification count.
func WithHistoryCap(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.HistoryCap = n
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
