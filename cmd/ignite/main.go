// Package main provides the torch-ignite CLI.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/JeiKeiLim/torch-ignite/anchors"
	"github.com/JeiKeiLim/torch-ignite/backend/cpu"
	"github.com/JeiKeiLim/torch-ignite/internal/config"
	"github.com/JeiKeiLim/torch-ignite/model"
	"github.com/JeiKeiLim/torch-ignite/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("torch-ignite %s\n", version)
	case "summary":
		if err := summary(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "ignite: %v\n", err)
			os.Exit(1)
		}
	case "fit-anchors":
		if err := fitAnchors(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "ignite: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("torch-ignite - Declarative model assembly for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version                      Show version")
	fmt.Println("  summary <config.yaml>        Print the assembled layer table")
	fmt.Println("    -height N                  Profile input height (default 256)")
	fmt.Println("    -width N                   Profile input width (default 256)")
	fmt.Println("  fit-anchors <sizes.txt>      Fit detection anchors to box sizes")
	fmt.Println("    -scales N                  Detection scale count (default 3)")
	fmt.Println("    -per-scale N               Anchors per scale (default 3)")
	fmt.Println("    -seed N                    Clustering seed (default 1)")
}

func summary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	height := fs.Int("height", 256, "profile input height")
	width := fs.Int("width", 256, "profile input width")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("summary: expected one config file, got %d arguments", fs.NArg())
	}

	arch, err := config.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	backend := cpu.New()
	input := tensor.Shape{1, arch.InputChannels, *height, *width}

	// Detection configs end with a YOLOHead row; plain configs do not.
	if n := len(arch.Specs); n > 0 && arch.Specs[n-1].Type == model.HeadType {
		m, err := model.NewDetection(arch.Specs, arch.InputChannels, backend)
		if err != nil {
			return err
		}
		prof, err := m.Profile(input)
		if err != nil {
			return err
		}
		fmt.Print(prof)
		return nil
	}

	m, err := model.New(arch.Specs, arch.InputChannels, backend)
	if err != nil {
		return err
	}
	prof, err := m.Profile(input)
	if err != nil {
		return err
	}
	fmt.Print(prof)
	return nil
}

func fitAnchors(args []string) error {
	fs := flag.NewFlagSet("fit-anchors", flag.ExitOnError)
	scales := fs.Int("scales", 3, "detection scale count")
	perScale := fs.Int("per-scale", 3, "anchors per scale")
	seed := fs.Int64("seed", 1, "clustering seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("fit-anchors: expected one sizes file, got %d arguments", fs.NArg())
	}

	sizes, err := readSizes(fs.Arg(0))
	if err != nil {
		return err
	}

	result, err := anchors.Fit(sizes, *scales, *perScale, rand.New(rand.NewSource(*seed)))
	if err != nil {
		return err
	}

	for i, scale := range result.Anchors {
		fmt.Printf("scale %d:", i)
		for _, v := range scale {
			fmt.Printf(" %.1f", v)
		}
		fmt.Println()
	}
	fmt.Printf("mean distance: %.3f (%d boxes)\n", result.MeanDistance, len(sizes))
	return nil
}

// readSizes parses a box-size file: one "width height" pair per line,
// blank lines and #-comments skipped.
func readSizes(path string) ([][2]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sizes [][2]float64
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected \"width height\", got %q", path, line, text)
		}
		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		h, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		sizes = append(sizes, [2]float64{w, h})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sizes, nil
}
