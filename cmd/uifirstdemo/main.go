// Command uifirstdemo renders a few windows through the sub-thread cache
// and writes the last composited frame as a PNG.
//
// Each window is a leash window with two app windows inside. Windows are
// replayed into cache surfaces by the scheduler's workers and composited
// from those caches onto the screen. One window moves a marker every frame
// so its cache is partially redrawn; another blurs what lies behind it.
//
// With -backend=noop the caches are allocated as textures on a noop HAL
// device, and stencil culling prepares the composite shader there.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/drawable"
	"github.com/gogpu/uifirst/internal/filter"
	"github.com/gogpu/uifirst/metrics"
	"github.com/gogpu/uifirst/scheduler"
	"github.com/gogpu/uifirst/subthread"
	"github.com/gogpu/uifirst/surface"
	"github.com/gogpu/uifirst/surface/halgpu"
)

func main() {
	var (
		width   = flag.Int("width", 800, "screen width")
		height  = flag.Int("height", 600, "screen height")
		frames  = flag.Int("frames", 10, "number of frames to render")
		workers = flag.Int("workers", 0, "worker count (0 uses the policy)")
		config  = flag.String("config", "", "TOML policy file")
		output  = flag.String("o", "uifirst.png", "output file")
		backend = flag.String("backend", "raster", "cache backend: raster or noop")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	uifirst.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	policy, err := loadPolicy(*config)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}
	if *workers > 0 {
		policy.Workers = *workers
	}

	d := demo{width: *width, height: *height, policy: policy, backend: *backend}
	if err := d.run(*frames, *output); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d, %d frames)\n", *output, *width, *height, *frames)
}

// openNoopDevice opens a Vulkan-flavored context on the noop HAL backend.
func openNoopDevice() (*halgpu.Context, func(), error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("noop instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, errors.New("noop: no adapter")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("noop device: %w", err)
	}
	ctx, err := halgpu.NewContext(openDev.Device, openDev.Queue, surface.APIVulkan)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, nil, err
	}
	return ctx, func() {
		ctx.Close()
		openDev.Device.Destroy()
		instance.Destroy()
	}, nil
}

func loadPolicy(path string) (uifirst.Policy, error) {
	if path == "" {
		return uifirst.DefaultPolicy(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return uifirst.Policy{}, err
	}
	defer f.Close()
	return uifirst.LoadPolicy(f)
}

type demo struct {
	width, height int
	policy        uifirst.Policy
	backend       string

	reg        *drawable.Registry
	windows    []*drawable.Surface
	moving     *drawable.Surface
	movingBase drawable.Painter
	marker     uifirst.RectF
}

func (d *demo) run(frames int, output string) error {
	env := subthread.DefaultEnv()
	env.Policy = d.policy

	promReg := prometheus.NewRegistry()
	col, err := metrics.NewCollector(promReg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	env.Metrics = col

	d.reg = drawable.NewRegistry(env)
	if err := d.buildScene(); err != nil {
		return err
	}

	backends := surface.NewRegistry()
	backends.Register("raster", 10, surface.RasterFactory, nil)
	switch d.backend {
	case "raster":
	case "noop":
		ctx, closeDevice, err := openNoopDevice()
		if err != nil {
			return err
		}
		defer closeDevice()
		backends.Register("vulkan", 100, halgpu.Factory(ctx, d.policy), nil)
	default:
		return fmt.Errorf("unknown backend %q", d.backend)
	}
	m, err := scheduler.New(env, scheduler.WithAllocatorRegistry(backends))
	if err != nil {
		return err
	}
	defer m.Close()

	screen, err := surface.NewImageSurface(surface.ImageInfo{Width: d.width, Height: d.height})
	if err != nil {
		return err
	}
	for range frames {
		frame := m.BeginFrame()
		d.animate(frame)
		for _, w := range d.windows {
			m.ScheduleRenderNodeDrawable(w.ID())
		}
		d.composite(screen.Canvas(), &uifirst.RenderThreadParams{
			FrameCount:            frame,
			StencilCullingEnabled: d.policy.StencilCulling,
			UIFirstDebugEnabled:   d.policy.DebugEnabled,
		})
		res := m.ProcessDoneNodes()
		uifirst.Logger().Debug("uifirstdemo: frame done", "frame", frame,
			"published", len(res.Published), "skipped", len(res.Skipped))
	}

	logMetrics(promReg)
	return writePNG(output, screen)
}

// buildScene lays three windows out side by side.
func (d *demo) buildScene() error {
	const (
		ww, wh = 220.0, 280.0
		gap    = 30.0
	)
	screen := uifirst.RectI{Width: d.width, Height: d.height}
	colors := []color.Color{
		color.RGBA{R: 0xe8, G: 0xee, B: 0xf6, A: 0xff},
		color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80},
		color.RGBA{R: 0xf6, G: 0xe8, B: 0xe8, A: 0xff},
	}
	for i, bg := range colors {
		x := gap + float64(i)*(ww+gap)
		y := 120.0
		id := uifirst.NodeID(100 * (i + 1))
		subs := []uifirst.NodeID{id + 1, id + 2}

		p := drawable.Paint{
			Shadow:     &drawable.RectPainter{Rect: uifirst.NewRectF(4, 4, ww, wh), Color: color.RGBA{A: 0x40}},
			Background: &drawable.SolidPainter{Color: color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}},
			Content: drawable.Group{
				&drawable.SolidPainter{Color: bg},
				&drawable.TextPainter{Text: fmt.Sprintf("window %d", i+1), X: 10, Y: 18, Color: color.Black},
			},
		}
		if i == 1 {
			p.Behind = filter.NewFrosted(6, 0.4)
		}
		leash, err := d.reg.Create(drawable.NodeLeashWindow, uifirst.SurfaceParams{
			ID:                id,
			Name:              fmt.Sprintf("window-%d", i+1),
			Bounds:            uifirst.NewRectF(0, 0, ww, wh),
			Matrix:            uifirst.Translate(x, y),
			DirtyRegionMatrix: uifirst.Translate(x, y),
			ScreenRect:        screen,
			SubSurfaceIDs:     subs,
		}, p)
		if err != nil {
			return err
		}
		d.windows = append(d.windows, leash)

		apps := []struct {
			rect uifirst.RectF
			col  color.Color
		}{
			{uifirst.NewRectF(10, 30, 200, 110), color.RGBA{R: 0x4a, G: 0x90, B: 0xd9, A: 0xff}},
			{uifirst.NewRectF(10, 150, 200, 120), color.RGBA{R: 0x50, G: 0xb8, B: 0x6c, A: 0xff}},
		}
		for j, a := range apps {
			_, err := d.reg.Create(drawable.NodeAppWindow, uifirst.SurfaceParams{
				ID:     subs[j],
				Name:   fmt.Sprintf("app-%d-%d", i+1, j+1),
				Bounds: uifirst.NewRectF(0, 0, a.rect.Width(), a.rect.Height()),
				Matrix: uifirst.Translate(a.rect.Left, a.rect.Top),
			}, drawable.Paint{Content: &drawable.SolidPainter{Color: a.col}})
			if err != nil {
				return err
			}
		}
	}
	d.moving = d.windows[0]
	d.movingBase = d.moving.Paint().Content
	return nil
}

// animate moves the marker of the first window and damages its old and new
// position.
func (d *demo) animate(frame uint64) {
	const size = 16.0
	bounds := d.moving.RenderParams().Bounds
	span := bounds.Width() - size - 20
	x := 10 + float64((frame*12)%uint64(span))
	next := uifirst.NewRectF(x, bounds.Height()-size-6, size, size)

	// Workers may still replay the previous paint list, so a new one is
	// built instead of editing it.
	p := d.moving.Paint()
	p.Content = drawable.Group{d.movingBase, &drawable.RectPainter{
		Rect:  next,
		Color: color.RGBA{R: 0xd9, G: 0x53, B: 0x4f, A: 0xff},
	}}
	d.moving.SetPaint(p)

	toScreen := d.moving.RenderParams().Matrix
	damage := toScreen.MapRect(next).RoundOut()
	if !d.marker.IsEmpty() {
		damage = damage.JoinRect(toScreen.MapRect(d.marker).RoundOut())
	}
	d.moving.MarkDirty(damage)
	d.marker = next
}

// composite draws the backdrop and every window from its cache, falling
// back to a direct draw when a window has no cache to show.
func (d *demo) composite(cv surface.Canvas, rp *uifirst.RenderThreadParams) {
	cv.Clear(color.RGBA{R: 0x20, G: 0x24, B: 0x30, A: 0xff})
	for y := 0; y < d.height; y += 40 {
		cv.DrawRect(uifirst.NewRectF(0, float64(y), float64(d.width), 20), color.RGBA{R: 0x38, G: 0x3e, B: 0x50, A: 0xff})
	}
	for _, w := range d.windows {
		if !w.SubThreadCache().DealWithUIFirstCache(w, cv, w.RenderParams(), rp) {
			w.Draw(cv)
		}
	}
}

func logMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		uifirst.Logger().Warn("uifirstdemo: gather metrics", "err", err)
		return
	}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				log.Printf("%s%s: %v\n", f.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				log.Printf("%s%s: count=%d sum=%.4fs\n", f.GetName(), labels, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}

func writePNG(path string, s *surface.ImageSurface) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, s.Image()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
