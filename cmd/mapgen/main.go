package main

import (
	"cmp"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

func logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func main() {
	seed := flag.Int64("seed", 0, "random seed (0 = random)")
	size := flag.String("size", "100x80", "map size as WxH")
	name := flag.String("name", "Wilderness", "map name")
	wrap := flag.String("wrap", "x", "wrapping axes: none, x, y or xy")
	out := flag.String("out", "", "output file (default: stdout)")
	flag.Parse()

	w, h, err := parseSize(*size)
	if err != nil {
		logf("Error: %v", err)
		os.Exit(1)
	}
	wrapX, wrapY, err := parseWrap(*wrap)
	if err != nil {
		logf("Error: %v", err)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	logf("Generating %dx%d map %q (seed %d, wrap %s)...", w, h, *name, *seed, *wrap)
	m, err := generate(genConfig{Name: *name, W: w, H: h, Seed: *seed, WrapX: wrapX, WrapY: wrapY})
	if err != nil {
		logf("Error: %v", err)
		os.Exit(1)
	}
	logf("Spawn: (%d, %d)", m.SpawnX, m.SpawnY)

	data, err := validate(m)
	if err != nil {
		logf("Error: %v", err)
		os.Exit(1)
	}

	if *out == "" {
		os.Stdout.Write(data)
		os.Stdout.WriteString("\n")
	} else {
		if err := os.WriteFile(*out, append(data, '\n'), 0644); err != nil {
			logf("Error writing file: %v", err)
			os.Exit(1)
		}
		logf("Wrote %s (%d bytes)", *out, len(data))
	}

	// Print tile distribution summary
	counts := make(map[string]int)
	for y := range h {
		for x := range w {
			counts[m.TileAt(x, y).Name]++
		}
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(counts[b], counts[a]), cmp.Compare(a, b))
	})
	logf("\nTile distribution:")
	for _, n := range names {
		logf("  %-15s %5d (%5.1f%%)", n, counts[n], float64(counts[n])/float64(w*h)*100)
	}
}

func parseSize(s string) (int, int, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q (expected WxH)", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w < 10 {
		return 0, 0, fmt.Errorf("invalid width %q (minimum 10)", parts[0])
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h < 10 {
		return 0, 0, fmt.Errorf("invalid height %q (minimum 10)", parts[1])
	}
	return w, h, nil
}

func parseWrap(s string) (bool, bool, error) {
	switch s {
	case "none", "":
		return false, false, nil
	case "x":
		return true, false, nil
	case "y":
		return false, true, nil
	case "xy":
		return true, true, nil
	}
	return false, false, fmt.Errorf("invalid wrap %q (none, x, y or xy)", s)
}
