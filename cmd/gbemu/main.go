package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/romfile"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ui"
)

type CLIFlags struct {
	ROMPath  string
	Scale    int
	Title    string
	Viewport bool
	Trace    bool

	InterruptCycles int

	ShotDir   string
	ShotScale int

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	PNGScale int
	Expect   string // expected frame fingerprint hex
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb, or .zip/.7z/.gz/.xz containing one)")
	flag.IntVar(&f.Scale, "scale", 2, "window scale")
	flag.StringVar(&f.Title, "title", "gbemu", "window title")
	flag.BoolVar(&f.Viewport, "viewport", false, "show the 160x144 scrolled window instead of the whole background map")
	flag.BoolVar(&f.Trace, "trace", false, "CPU trace log")
	flag.IntVar(&f.InterruptCycles, "intcycles", emu.Defaults().InterruptCycles, "cycles charged per interrupt dispatch")
	flag.StringVar(&f.ShotDir, "shotdir", ".", "directory for F12 screenshots")
	flag.IntVar(&f.ShotScale, "shotscale", 1, "integer upscaling of screenshots")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last frame to PNG at path")
	flag.IntVar(&f.PNGScale, "pngscale", 1, "integer upscaling of the PNG")
	flag.StringVar(&f.Expect, "expect", "", "assert frame fingerprint (hex)")
	flag.Parse()

	// the ROM may also be given as the first positional argument
	if f.ROMPath == "" && flag.NArg() > 0 {
		f.ROMPath = flag.Arg(0)
	}
	return f
}

func (f CLIFlags) uiConfig() ui.Config {
	return ui.Config{
		Title:           f.Title,
		Scale:           f.Scale,
		Viewport:        f.Viewport,
		ScreenshotDir:   f.ShotDir,
		ScreenshotScale: f.ShotScale,
	}
}

func runHeadless(m *emu.Machine, frames int, pngPath string, pngScale int, expect string) error {
	if frames <= 0 {
		frames = 1
	}

	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := m.StepFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	dur := time.Since(start)

	frame := m.Frame()
	fps := float64(frames) / dur.Seconds()
	speed := float64(m.Cycles()) / cpu.ClockSpeed / dur.Seconds()
	glog.Infof("headless: frames=%d cycles=%d elapsed=%s fps=%.2f speed=%.2fx fingerprint=%s",
		frames, m.Cycles(), dur.Truncate(time.Millisecond), fps, speed, frame.FingerprintHex())
	fmt.Println(frame.FingerprintHex())

	if pngPath != "" {
		if err := saveFramePNG(frame, pngScale, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		glog.Infof("wrote %s", pngPath)
	}

	if expect != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(expect), "0x")
		if got := frame.FingerprintHex(); got != want {
			return fmt.Errorf("fingerprint mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(frame emu.Frame, scale int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, ppu.Scale(frame.Image, scale))
}

func main() {
	f := parseFlags()
	defer glog.Flush()

	if f.ROMPath == "" {
		fmt.Fprintln(os.Stderr, "usage: gbemu [flags] -rom <path>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	rom, err := romfile.Load(f.ROMPath)
	if err != nil {
		glog.Exitf("read %s: %v", f.ROMPath, err)
	}

	cfg := emu.Defaults()
	cfg.Trace = f.Trace
	cfg.InterruptCycles = f.InterruptCycles
	m := emu.New(cfg)
	if err := m.LoadCartridge(rom); err != nil {
		glog.Exitf("load cart: %v", err)
	}
	if h := m.Header(); h != nil && !h.Supported() {
		glog.Warningf("cartridge type %s is not emulated", h.CartTypeStr)
	}

	if f.Headless {
		if err := runHeadless(m, f.Frames, f.PNGOut, f.PNGScale, f.Expect); err != nil {
			glog.Exit(err)
		}
		return
	}

	app := ui.NewApp(f.uiConfig(), m)
	if err := app.Run(); err != nil {
		glog.Exit(err)
	}
}
