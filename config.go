package vigil

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the vigil service.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`

	// DataDir holds the sqlite database and the readable report files.
	DataDir string `yaml:"data_dir"`

	Capture CaptureConfig `yaml:"capture"`
	OCR     OCRConfig     `yaml:"ocr"`
	Summary SummaryConfig `yaml:"summary"`
	Report  ReportConfig  `yaml:"report"`
}

// CaptureConfig controls the cycle cadence and display selection.
type CaptureConfig struct {
	// Interval between capture cycles.
	Interval time.Duration `yaml:"interval"`
	// Display index to grab. 0 is the primary display.
	Display int `yaml:"display"`
}

// OCRConfig tunes recognition and the recognized-text quality gate.
type OCRConfig struct {
	Language     string  `yaml:"language"`
	MinPrintable float64 `yaml:"min_printable"`
	MinWordlike  float64 `yaml:"min_wordlike"`
	// MinConfidence rejects recognitions below this mean word confidence
	// (0..1). 0 disables the check.
	MinConfidence float64 `yaml:"min_confidence"`
}

// SummaryConfig controls the summarizer client and the trigger policy.
type SummaryConfig struct {
	// BaseURL of the OpenAI-compatible chat-completions server.
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// Timeout bounds one summarization call.
	Timeout time.Duration `yaml:"timeout"`
	// MinCycles triggers summarization once the buffer holds this many
	// entries.
	MinCycles int `yaml:"min_cycles"`
	// MaxWait flushes a partial window once the oldest buffered entry is
	// older than this. 0 disables the wall-clock flush.
	MaxWait time.Duration `yaml:"max_wait"`
	// CarryWindow re-tails the last N summarized entries into the next
	// window for context overlap. 0 clears the summarized window entirely.
	CarryWindow int `yaml:"carry_window"`
	// MaxInput caps the text sent to the model, in runes. 0 is unlimited.
	MaxInput  int           `yaml:"max_input"`
	MaxTokens int           `yaml:"max_tokens"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

// BreakerConfig controls failure shedding for the summarizer.
type BreakerConfig struct {
	Threshold  int           `yaml:"threshold"`
	ResetAfter time.Duration `yaml:"reset_after"`
}

// ReportConfig controls report rendering and the daily artifact files.
type ReportConfig struct {
	// ArtifactDir overrides where readable report files land. Empty means
	// <data_dir>/reports.
	ArtifactDir string `yaml:"artifact_dir"`
	// Username shown in the prose rendering. Empty resolves the OS user.
	Username string `yaml:"username"`
}

func (c *Config) defaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8787"
	}
	if c.DataDir == "" {
		c.DataDir = "./vigil-data"
	}
	if c.Capture.Interval <= 0 {
		c.Capture.Interval = 4 * time.Minute
	}
	if c.Capture.Display < 0 {
		c.Capture.Display = 0
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if c.OCR.MinPrintable <= 0 {
		c.OCR.MinPrintable = 0.5
	}
	if c.OCR.MinWordlike <= 0 {
		c.OCR.MinWordlike = 0.3
	}
	if c.Summary.BaseURL == "" {
		c.Summary.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Summary.Model == "" {
		c.Summary.Model = "facebook/bart-large-cnn"
	}
	if c.Summary.Timeout <= 0 {
		c.Summary.Timeout = 60 * time.Second
	}
	if c.Summary.MinCycles <= 0 {
		c.Summary.MinCycles = 3
	}
	if c.Summary.MaxTokens <= 0 {
		c.Summary.MaxTokens = 150
	}
	if c.Summary.Breaker.Threshold <= 0 {
		c.Summary.Breaker.Threshold = 5
	}
	if c.Summary.Breaker.ResetAfter <= 0 {
		c.Summary.Breaker.ResetAfter = 30 * time.Second
	}
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: ":8787",
		DataDir:    "./vigil-data",
		Capture: CaptureConfig{
			Interval: 4 * time.Minute,
		},
		OCR: OCRConfig{
			Language:     "eng",
			MinPrintable: 0.5,
			MinWordlike:  0.3,
		},
		Summary: SummaryConfig{
			BaseURL:   "http://127.0.0.1:8000",
			Model:     "facebook/bart-large-cnn",
			Timeout:   60 * time.Second,
			MinCycles: 3,
			MaxInput:  24000,
			MaxTokens: 150,
			Breaker: BreakerConfig{
				Threshold:  5,
				ResetAfter: 30 * time.Second,
			},
		},
	}
}

// artifactDir resolves where readable report files are written.
func (c *Config) artifactDir() string {
	if c.Report.ArtifactDir != "" {
		return c.Report.ArtifactDir
	}
	return filepath.Join(c.DataDir, "reports")
}

// LoadFile reads a YAML configuration file and applies defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.defaults()
	return &cfg, nil
}
