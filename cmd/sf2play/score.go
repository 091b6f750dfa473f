package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Alextopher/soundfont"
)

// score is the YAML document cmd/sf2play drives the synth with: preset
// selection, output configuration, and a timed event list. It stands in for
// the "MIDI-like event stream" of a real host without parsing an actual
// MIDI file, which is out of scope for the library.
type score struct {
	Preset struct {
		Bank    int `yaml:"bank"`
		Program int `yaml:"program"`
	} `yaml:"preset"`

	Output struct {
		SampleRate int     `yaml:"sample_rate"`
		Mode       string  `yaml:"mode"`
		GainDB     float64 `yaml:"gain_db"`
	} `yaml:"output"`

	Panning struct {
		Left  float64 `yaml:"left"`
		Right float64 `yaml:"right"`
	} `yaml:"panning"`

	DurationSeconds float64       `yaml:"duration_seconds"`
	Events          []scoreEvent  `yaml:"events"`
}

type scoreEvent struct {
	Time     float64 `yaml:"time"`
	Type     string  `yaml:"type"` // note_on | note_off | note_off_all
	Key      int     `yaml:"key"`
	Velocity float64 `yaml:"velocity"`
}

func loadScore(path string) (*score, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading score %s: %w", path, err)
	}
	var s score
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parsing score %s: %w", path, err)
	}
	if s.Panning.Left == 0 && s.Panning.Right == 0 {
		s.Panning.Left, s.Panning.Right = 1.0, 1.0
	}
	if s.Output.SampleRate == 0 {
		s.Output.SampleRate = 44100
	}
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].Time < s.Events[j].Time })
	return &s, nil
}

func parseOutputMode(name string) (soundfont.OutputMode, error) {
	switch name {
	case "", "stereo-interleaved":
		return soundfont.StereoInterleaved, nil
	case "stereo-unweaved":
		return soundfont.StereoUnweaved, nil
	case "mono":
		return soundfont.Mono, nil
	default:
		return 0, fmt.Errorf("unknown output mode %q", name)
	}
}
