// Package ui presents a Machine in an ebiten window and feeds it the wall
// time that passes between ticks.
package ui

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
)

type App struct {
	cfg    Config
	m      *emu.Machine
	tex    *ebiten.Image
	paused bool

	last time.Time
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	w, h := surfaceSize(cfg.Viewport)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(w*cfg.Scale, h*cfg.Scale)
	return &App{cfg: cfg, m: m}
}

func (a *App) Run() error {
	err := ebiten.RunGame(a)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func surfaceSize(viewport bool) (int, int) {
	if viewport {
		return ppu.ScreenWidth, ppu.ScreenHeight
	}
	return ppu.BackgroundSize, ppu.BackgroundSize
}

// elapsed returns the wall time since the previous tick. The first tick
// reports zero.
func (a *App) elapsed() time.Duration {
	now := time.Now()
	if a.last.IsZero() {
		a.last = now
		return 0
	}
	d := now.Sub(a.last)
	a.last = now
	return d
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	// Pause toggle (P)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	// Reset (R)
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.m.Reset()
	}
	// Viewport toggle (V)
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		a.cfg.Viewport = !a.cfg.Viewport
		a.tex = nil
		w, h := surfaceSize(a.cfg.Viewport)
		ebiten.SetWindowSize(w*a.cfg.Scale, h*a.cfg.Scale)
	}
	// Screenshot (F12)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if name, err := a.saveScreenshot(); err != nil {
			glog.Errorf("screenshot: %v", err)
		} else {
			glog.Infof("screenshot saved to %s", name)
		}
	}

	d := a.elapsed()
	if a.paused {
		// Frame-step when paused (N)
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			return a.m.StepFrame()
		}
		return nil
	}
	return a.m.Advance(d)
}

func (a *App) image() *image.RGBA {
	f := a.m.Frame()
	if a.cfg.Viewport {
		return f.Viewport()
	}
	return f.Image
}

func (a *App) Draw(screen *ebiten.Image) {
	img := a.image()
	if a.tex == nil {
		b := img.Bounds()
		a.tex = ebiten.NewImage(b.Dx(), b.Dy())
	}
	a.tex.WritePixels(img.Pix)
	screen.DrawImage(a.tex, nil)

	if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED", 4, 4)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return surfaceSize(a.cfg.Viewport) }

func (a *App) saveScreenshot() (string, error) {
	img := ppu.Scale(a.image(), a.cfg.ScreenshotScale)
	ts := time.Now().Format("20060102_150405")
	name := filepath.Join(a.cfg.ScreenshotDir, fmt.Sprintf("screenshot_%s.png", ts))
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", err
	}
	return name, nil
}
