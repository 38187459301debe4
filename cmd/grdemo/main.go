// Command grdemo draws a test scene through a gr.Context and writes it as a
// PNG. With -watch it redraws whenever the configuration file changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr"
	"github.com/gogpu/gr/backend"
	_ "github.com/gogpu/gr/backend/soft"
	_ "github.com/gogpu/gr/backend/wgpu"
	"github.com/gogpu/gr/cache"
	"github.com/gogpu/gr/config"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/text"
)

type flags struct {
	backend string
	config  string
	output  string
	width   int
	height  int
	watch   bool
	stats   bool
}

func main() {
	var f flags
	flag.StringVar(&f.backend, "backend", "", "device backend (wgpu, soft); empty picks the best available")
	flag.StringVar(&f.config, "config", "", "TOML configuration file")
	flag.StringVar(&f.output, "output", "grdemo.png", "output file")
	flag.IntVar(&f.width, "width", 640, "image width")
	flag.IntVar(&f.height, "height", 480, "image height")
	flag.BoolVar(&f.watch, "watch", false, "redraw when the configuration file changes")
	flag.BoolVar(&f.stats, "stats", false, "print context statistics after each frame")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "grdemo",
	})
	gr.SetLogger(slog.New(logger))

	if err := run(f, logger); err != nil {
		logger.Fatal("grdemo failed", "err", err)
	}
}

func run(f flags, logger *log.Logger) error {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return err
		}
	}
	if err := setLevel(logger, cfg); err != nil {
		return err
	}

	dev, name, err := openDevice(f.backend)
	if err != nil {
		return err
	}
	defer backend.Close(dev)
	logger.Info("device opened", "backend", name, "maxTexture", dev.Caps().MaxTextureSize)

	c, err := gr.New(dev, gr.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer c.Close()

	tc, err := text.NewContext(c)
	if err != nil {
		return err
	}
	defer tc.Close()

	d := &demo{gr: c, text: tc, width: f.width, height: f.height}
	if err := d.frame(f.output); err != nil {
		return err
	}
	if f.stats {
		_ = c.PrintStats(os.Stderr)
	}
	if !f.watch || f.config == "" {
		return nil
	}

	changes := make(chan *config.Config, 1)
	w, err := config.Watch(f.config, func(cfg *config.Config) {
		select {
		case changes <- cfg:
		default:
		}
	}, config.WithErrorHandler(func(err error) {
		logger.Warn("config reload failed", "err", err)
	}))
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger.Info("watching configuration", "path", f.config)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-changes:
			if err := setLevel(logger, cfg); err != nil {
				logger.Warn("bad log level", "err", err)
			}
			c.ApplyConfig(cfg)
			c.ResetStats()
			if err := d.frame(f.output); err != nil {
				return err
			}
			if f.stats {
				_ = c.PrintStats(os.Stderr)
			}
		}
	}
}

func openDevice(name string) (device.Device, string, error) {
	if name == "" {
		return backend.Default()
	}
	dev, err := backend.Open(name)
	return dev, name, err
}

func setLevel(logger *log.Logger, cfg *config.Config) error {
	lvl, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	logger.SetLevel(log.Level(lvl))
	return nil
}

// demo renders the scene into an offscreen target.
type demo struct {
	gr     *gr.Context
	text   *text.Context
	width  int
	height int
}

var errReadback = errors.New("grdemo: read back failed")

func (d *demo) frame(output string) error {
	c := d.gr
	desc := device.TextureDesc{
		Flags:  device.TextureRenderTarget,
		Width:  d.width,
		Height: d.height,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
	tok := c.CreateUncachedTexture(desc, nil, 0)
	if tok.IsEmpty() {
		return fmt.Errorf("grdemo: cannot create a %dx%d target", d.width, d.height)
	}
	defer c.UnlockTexture(tok)
	rt := c.Texture(tok).AsRenderTarget()

	restore := c.AutoRenderTarget(rt)
	defer restore()

	start := time.Now()
	d.draw()

	img := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	if !c.ReadRenderTargetPixels(rt, 0, 0, d.width, d.height, gputypes.TextureFormatRGBA8Unorm, img.Pix, img.Stride) {
		return errReadback
	}
	gr.Logger().Info("frame drawn", "elapsed", time.Since(start), "stats", c.Stats().String())

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (d *demo) draw() {
	c := d.gr
	c.Clear(nil, device.Color{R: 0.12, G: 0.14, B: 0.2, A: 1})

	// Antialiased and aliased rects, filled and stroked.
	p := gr.NewPaint()
	p.AntiAlias = true
	p.Color = device.Color{R: 0.9, G: 0.5, B: 0.1, A: 1}
	c.DrawRect(&p, geom.RectLTRB(40.5, 40.25, 200.5, 120.75), -1, nil)
	p.Color = device.White
	c.DrawRect(&p, geom.RectLTRB(40, 140, 200, 220), 3, nil)
	p.AntiAlias = false
	c.DrawRect(&p, geom.RectLTRB(40, 240, 200, 300), 0, nil)

	// A rotated star: concave, so it goes through the stencil and the
	// offscreen antialiasing pipeline.
	restore := c.AutoMatrix(geom.Translate(340, 160).PreConcat(geom.Rotate(math.Pi / 12)))
	p = gr.NewPaint()
	p.AntiAlias = true
	p.Color = device.Color{R: 0.95, G: 0.85, B: 0.2, A: 1}
	c.DrawPath(&p, star(0, 0, 90, 40, 5), gr.FillWinding, nil)
	restore()

	// Even-odd ring and an antialiased hairline.
	ring := gr.NewPath()
	ring.Circle(520, 160, 70)
	ring.Circle(520, 160, 35)
	p.Color = device.Color{R: 0.3, G: 0.7, B: 0.9, A: 1}
	c.DrawPath(&p, ring, gr.FillEvenOdd, nil)

	wave := gr.NewPath()
	wave.MoveTo(260, 300)
	wave.CubicTo(330, 240, 420, 360, 600, 290)
	p.Color = device.White
	c.DrawPath(&p, wave, gr.FillHairline, nil)

	// A repeat-tiled checkerboard.
	s := device.SamplerState{
		WrapX:  gputypes.AddressModeRepeat,
		WrapY:  gputypes.AddressModeRepeat,
		Filter: device.FilterNearest,
		Matrix: geom.Scale(1.0/24, 1.0/24),
	}
	if tok := d.checker(&s); !tok.IsEmpty() {
		tp := gr.NewPaint()
		tp.SetTexture(0, c.Texture(tok), s)
		c.DrawRect(&tp, geom.RectLTRB(260, 340, 600, 440), -1, nil)
		c.UnlockTexture(tok)
	}

	// Text.
	face := text.MustDefaultFont().Face(22)
	tp := gr.NewPaint()
	d.text.DrawString(&tp, "gr: cached GPU drawing", face, 40, 360)
	tp.Color = device.Color{R: 0.6, G: 0.9, B: 0.6, A: 1}
	d.text.DrawString(&tp, "Offscreen AA, stencil paths, glyph atlas", text.MustDefaultFont().Face(14), 40, 420)
}

// checkerKey identifies the checkerboard in the texture cache.
const checkerKey = 0x636865636b6572

// checker returns a locked checkerboard texture, creating it on a cache
// miss.
func (d *demo) checker(s *device.SamplerState) cache.Token {
	const size = 12
	if tok := d.gr.FindAndLockTexture(checkerKey, size, size, s); !tok.IsEmpty() {
		return tok
	}
	pix := make([]byte, size*size*4)
	for y := range size {
		for x := range size {
			v := byte(60)
			if (x/(size/2)+y/(size/2))%2 == 0 {
				v = 200
			}
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
		}
	}
	desc := device.TextureDesc{Width: size, Height: size, Format: gputypes.TextureFormatRGBA8Unorm}
	return d.gr.CreateAndLockTexture(checkerKey, s, desc, pix, size*4)
}

// star returns a star with n points around (cx, cy).
func star(cx, cy, outer, inner float64, n int) *gr.Path {
	p := gr.NewPath()
	for i := range 2 * n {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := float64(i)*math.Pi/float64(n) - math.Pi/2
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	p.Close()
	return p
}
