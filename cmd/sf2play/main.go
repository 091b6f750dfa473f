// Command sf2play drives a soundfont.Synth from a YAML score file and
// renders the result to a WAV file. It exists to exercise the whole control
// surface end to end; it is a demonstration harness, not part of the
// rendering engine.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/Alextopher/soundfont"
)

func main() {
	sf2Path := flag.String("sf2", "", "path to the .sf2 SoundFont bank")
	scorePath := flag.String("score", "", "path to the YAML score file")
	outPath := flag.String("out", "out.wav", "output WAV path")
	sampleRate := flag.Int("sample-rate", 0, "override the score's output sample rate")
	outputMode := flag.String("output-mode", "", "override the score's output mode (stereo-interleaved|stereo-unweaved|mono)")
	gainDB := flag.Float64("gain", 0, "additional global gain in dB, added to the score's gain_db")
	flag.Parse()

	if *sf2Path == "" || *scorePath == "" {
		log.Fatal("both --sf2 and --score are required")
	}

	sc, err := loadScore(*scorePath)
	if err != nil {
		log.Fatal("loading score", "err", err)
	}

	synth, err := soundfont.LoadFile(*sf2Path)
	if err != nil {
		log.Fatal("loading soundfont", "path", *sf2Path, "err", err)
	}
	defer synth.Close()

	mode := sc.Output.Mode
	if *outputMode != "" {
		mode = *outputMode
	}
	om, err := parseOutputMode(mode)
	if err != nil {
		log.Fatal("output mode", "err", err)
	}

	rate := sc.Output.SampleRate
	if *sampleRate != 0 {
		rate = *sampleRate
	}

	synth.SetOutput(om, rate, sc.Output.GainDB+*gainDB)
	synth.SetPanning(sc.Panning.Left, sc.Panning.Right)

	presetIndex := synth.PresetIndex(sc.Preset.Bank, sc.Preset.Program)
	if presetIndex < 0 {
		log.Fatal("no such preset", "bank", sc.Preset.Bank, "program", sc.Preset.Program)
	}

	channels := 2
	if om == soundfont.Mono {
		channels = 1
	}
	totalSamples := int(sc.DurationSeconds * float64(rate))
	buf := make([]int16, totalSamples*channels)

	cursor := 0
	renderUpTo := func(t float64) {
		target := int(t * float64(rate))
		if target > totalSamples {
			target = totalSamples
		}
		if target <= cursor {
			return
		}
		n := target - cursor
		synth.RenderShort(buf[cursor*channels:target*channels], n, false)
		cursor = target
	}

	for _, ev := range sc.Events {
		renderUpTo(ev.Time)
		switch ev.Type {
		case "note_on":
			synth.NoteOn(presetIndex, ev.Key, ev.Velocity)
		case "note_off":
			synth.NoteOff(presetIndex, ev.Key)
		case "note_off_all":
			synth.NoteOffAll()
		default:
			log.Warn("unknown event type", "type", ev.Type)
		}
	}
	renderUpTo(sc.DurationSeconds)

	if err := writeWAV(*outPath, buf, channels, rate); err != nil {
		log.Fatal("writing wav", "err", err)
	}
	log.Info("rendered", "out", *outPath, "seconds", sc.DurationSeconds, "sample_rate", rate)
	os.Exit(0)
}
