// Command a2cgen discovers alpha-to-coverage patterns and prints emulator
// functions for them.
//
// Usage:
//
//	a2cgen [-v] <command> [flags]
//
// Commands:
//
//	list      list the device catalog
//	show      print the emulator of a catalog device
//	probe     probe this GPU (or a simulated catalog device) and print its emulator
//	compress  print the emulator of a saved capture
//	preview   draw an emulator as a PNG sheet
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/wgpu"

	"github.com/gogpu/a2c"
)

func main() {
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	a2c.SetLogger(logger)
	if *verbose {
		wgpu.SetLogger(logger)
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	if err := run(flag.Args(), os.Stdout, os.Stderr); err != nil {
		log.Fatalf("a2cgen: %v", err)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: a2cgen [-v] <command> [flags]

commands:
  list      list the device catalog
  show      print the emulator of a catalog device
  probe     probe this GPU (or a simulated catalog device) and print its emulator
  compress  print the emulator of a saved capture
  preview   draw an emulator as a PNG sheet

flags:
`)
	flag.PrintDefaults()
}

// run dispatches one command. Output goes to stdout, probe progress to
// stderr; diagnostics go through the a2c logger.
func run(args []string, stdout, stderr io.Writer) error {
	name, rest := args[0], args[1:]
	switch name {
	case "list":
		return cmdList(rest, stdout)
	case "show":
		return cmdShow(rest, stdout)
	case "probe":
		return cmdProbe(rest, stdout, stderr)
	case "compress":
		return cmdCompress(rest, stdout)
	case "preview":
		return cmdPreview(rest, stdout)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}
