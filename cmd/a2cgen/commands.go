package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/gogpu/a2c"
	"github.com/gogpu/a2c/capture"
	"github.com/gogpu/a2c/database"
	"github.com/gogpu/a2c/generate"
	"github.com/gogpu/a2c/internal/gpuprobe"
	"github.com/gogpu/a2c/preview"
	"github.com/gogpu/a2c/probe"
	"github.com/gogpu/a2c/shader"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// paramFlags registers the probe parameter flags on fs.
func paramFlags(fs *flag.FlagSet) *a2c.Params {
	p := a2c.DefaultParams()
	fs.IntVar(&p.Size, "size", p.Size, "probe grid size in pixels")
	fs.IntVar(&p.SampleCount, "samples", p.SampleCount, "multisample count")
	fs.IntVar(&p.Increments, "increments", p.Increments, "number of alpha steps")
	return &p
}

func cmdList(args []string, stdout io.Writer) error {
	fs := newFlagSet("list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s := database.Builtin()
	for _, key := range s.Keys() {
		mark := " "
		if s.Populated(key) {
			mark = "*"
		}
		fmt.Fprintf(stdout, "%s %s\n", mark, key)
	}
	return nil
}

func cmdShow(args []string, stdout io.Writer) error {
	fs := newFlagSet("show")
	match := fs.Bool("match", false, "match the argument against catalog keys like a reported device name")
	wrap := fs.Bool("wrap", false, "print the emulator inside a consumer fragment shader")
	validate := fs.Bool("validate", false, "check that the emulator compiles")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("show: want exactly one device key")
	}

	s := database.Builtin()
	key := fs.Arg(0)
	if *match {
		k, ok := s.Match(key)
		if !ok {
			return fmt.Errorf("show: no catalog entry matches %q", key)
		}
		key = k
	}
	text, ok := s.Lookup(key)
	if !ok {
		return fmt.Errorf("show: unknown device %q", key)
	}
	if *validate {
		if err := shader.ValidateEmulator(text); err != nil {
			return fmt.Errorf("show: %w", err)
		}
	}
	if *wrap {
		text = shader.Wrap(text)
	}
	fmt.Fprintln(stdout, text)
	return nil
}

func cmdProbe(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("probe")
	p := paramFlags(fs)
	simulate := fs.String("simulate", "", "probe the emulator of this catalog device instead of the GPU")
	label := fs.String("label", "", "device label for the emitted comment")
	captureOut := fs.String("capture", "", "also write the probe runs to this capture file")
	force := fs.Bool("force", false, "probe even when the device is in the catalog")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := database.Builtin()
	var acq probe.Acquirer
	if *simulate != "" {
		fn, ok := store.Function(*simulate)
		if !ok {
			return fmt.Errorf("probe: no catalog emulator for %q", *simulate)
		}
		acq = probe.FromFunction(fn, p.Size)
	} else {
		pr, err := gpuprobe.Open(*p)
		if err != nil {
			return err
		}
		defer pr.Close()
		if key, ok := store.Match(pr.Label()); ok && !*force {
			a2c.Logger().Info("probe: device is in the catalog", "key", key)
			fmt.Fprintln(stdout, store.Get(key))
			return nil
		}
		acq = pr
	}

	g := &generate.Generator{
		Store:    store,
		Acquirer: acq,
		Params:   *p,
		Label:    *label,
		Progress: func(pr probe.Progress) {
			fmt.Fprintf(stderr, "progress: alpha = %.0f%%\n", pr.Percent())
		},
	}
	res, err := g.Run(ctx)
	if err != nil {
		return err
	}
	if err := shader.ValidateFunction(res.Function); err != nil {
		a2c.Logger().Warn("probe: emitted emulator does not compile", "err", err)
	}

	if *captureOut != "" {
		c := &capture.Capture{Params: *p, Label: res.Function.Label, Runs: res.Runs}
		if err := capture.WriteFile(*captureOut, c); err != nil {
			return err
		}
	}
	fmt.Fprintln(stdout, store.Get(database.GeneratedKey))
	return nil
}

func cmdCompress(args []string, stdout io.Writer) error {
	fs := newFlagSet("compress")
	name := fs.String("name", a2c.DefaultFunctionName, "WGSL function name")
	label := fs.String("label", "", "override the capture's device label")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("compress: want exactly one capture file")
	}

	c, err := capture.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	opts := []a2c.CompressOption{a2c.WithFunctionName(*name)}
	if *label != "" {
		opts = append(opts, a2c.WithLabel(*label))
	}
	fmt.Fprintln(stdout, c.Compress(opts...).WGSL())
	return nil
}

func cmdPreview(args []string, stdout io.Writer) error {
	fs := newFlagSet("preview")
	key := fs.String("device", "", "catalog device to draw")
	from := fs.String("capture", "", "capture file to compress and draw")
	output := fs.String("o", "preview.png", "output PNG file")
	scale := fs.Int("scale", 4, "ramp upscaling factor")
	cell := fs.Int("cell", 32, "tile cell size in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var fn *a2c.Function
	switch {
	case *key != "" && *from != "":
		return errors.New("preview: -device and -capture are exclusive")
	case *key != "":
		f, ok := database.Builtin().Function(*key)
		if !ok {
			return fmt.Errorf("preview: no catalog emulator for %q", *key)
		}
		fn = f
	case *from != "":
		c, err := capture.ReadFile(*from)
		if err != nil {
			return err
		}
		fn = c.Compress()
	default:
		return errors.New("preview: want -device or -capture")
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := preview.Encode(f, fn, preview.WithScale(*scale), preview.WithCellSize(*cell)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "preview saved to %s\n", *output)
	return nil
}
