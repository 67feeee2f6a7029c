package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/algo-siren/display"
	"github.com/cwbudde/algo-siren/script"
	"github.com/cwbudde/algo-siren/siren"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	blockSize := flag.Int("block", script.DefaultBlockSize, "Control block size in frames")
	scriptPath := flag.String("script", "", "Optional JSON script whose initial panel state is loaded at start")
	refresh := flag.Duration("refresh", display.DefaultRefresh, "LED display refresh period")
	flag.Parse()

	if *blockSize < 1 {
		fmt.Fprintf(os.Stderr, "Invalid -block %d (must be >= 1)\n", *blockSize)
		os.Exit(1)
	}

	initial := siren.ControlInput{}
	initial.Knobs = [siren.NumKnobs]float64{0.5, 0.3, 0.5, 0.4, 0.5, 0.6}
	var opts []siren.Option
	if *scriptPath != "" {
		s, err := script.LoadJSON(*scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading script %q: %v\n", *scriptPath, err)
			os.Exit(1)
		}
		initial = s.Initial
		if s.HasVolume {
			opts = append(opts, siren.WithInitialVolume(s.Volume))
		}
	}

	controls := newLiveControls(initial)
	panel := display.NewPanel(0)

	engine, err := siren.NewEngine(siren.NewDefaultParams(float64(*sampleRate)), append(opts, siren.WithSource(controls))...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	engine.SetListener(panel)

	out, err := newOtoOutput(*sampleRate, *blockSize, panel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio output: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	kb, err := newKeyboard(controls)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening keyboard: %v\n", err)
		os.Exit(1)
	}
	defer kb.Restore()

	fmt.Print(strings.ReplaceAll(helpText, "\n", "\r\n") + "\r\n\r\n")

	out.Attach(engine)
	out.Start()
	go kb.Run()

	ticker := time.NewTicker(*refresh)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-kb.Done():
			fmt.Print("\r\n")
			return
		case now := <-ticker.C:
			frame := panel.Render(now.Sub(last))
			last = now
			fmt.Print("\r\x1b[K" + formatFrame(frame, panel.Snapshot(), controls.Knobs()))
		}
	}
}
