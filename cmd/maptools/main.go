package main

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"tileview/internal/maps"
	"tileview/internal/nav"
	"tileview/internal/plan"
	"tileview/internal/render"
	"tileview/internal/view"
)

type command struct {
	name  string
	args  string
	help  string
	nargs []int
	run   func(args []string) error
}

var commands = []command{
	{"validate", "<maps-dir>", "Validate all maps in directory", []int{1}, func(a []string) error { return runValidate(a[0]) }},
	{"viz", "<map-file>", "Render map as colored ASCII art", []int{1}, func(a []string) error { return runViz(a[0]) }},
	{"stats", "<map-file>", "Show tile distribution and walkable %", []int{1}, func(a []string) error { return runStats(a[0]) }},
	{"plan", "<map-file> <x> <y> [w h]", "Dump the query plans of a view (w,h in tiles, default 20x10)", []int{3, 5}, func(a []string) error { return runPlan(a[0], a[1:]) }},
	{"all", "<maps-dir>", "Run validate + viz + stats for all maps", []int{1}, func(a []string) error { return runAll(a[0]) }},
}

// errInvalid reports problems already printed to stdout.
var errInvalid = errors.New("maps invalid")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	i := slices.IndexFunc(commands, func(c command) bool { return c.name == os.Args[1] })
	if i < 0 {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	c, args := commands[i], os.Args[2:]
	if !slices.Contains(c.nargs, len(args)) {
		fmt.Fprintf(os.Stderr, "Usage: maptools %s %s\n", c.name, c.args)
		os.Exit(1)
	}
	if err := c.run(args); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func printUsage() {
	var sb strings.Builder
	sb.WriteString("Usage: maptools <command> <path>\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&sb, "  %-8s %-26s %s\n", c.name, c.args, c.help)
	}
	fmt.Fprint(os.Stderr, sb.String())
}

// --- validate ---

// runValidate loads the directory, which checks portal targets exist, then
// checks every place a viewer can land on is walkable.
func runValidate(dir string) error {
	allMaps, err := maps.LoadMaps(dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(allMaps))
	for name := range allMaps {
		names = append(names, name)
	}
	slices.Sort(names)

	var problems []string
	for _, name := range names {
		m := allMaps[name]
		var found []string
		if !m.IsWalkable(m.SpawnX, m.SpawnY) {
			found = append(found, fmt.Sprintf("spawn %d,%d is blocked", m.SpawnX, m.SpawnY))
		}
		for _, p := range m.Portals {
			if tm := allMaps[p.TargetMap]; !tm.IsWalkable(p.TargetX, p.TargetY) {
				found = append(found, fmt.Sprintf("portal %d,%d lands on blocked %s %d,%d", p.X, p.Y, p.TargetMap, p.TargetX, p.TargetY))
			}
		}
		if len(found) == 0 {
			fmt.Printf("%-12s ok    %dx%d %s, %d layers, %d portals, %s\n",
				name, m.Width, m.Height, m.Grid, len(m.LayerNames()), len(m.Portals), wrapLabel(m))
			continue
		}
		for _, f := range found {
			fmt.Printf("%-12s error %s\n", name, f)
		}
		problems = append(problems, found...)
	}

	if len(problems) > 0 {
		fmt.Printf("%d problem(s) in %d maps\n", len(problems), len(allMaps))
		return errInvalid
	}
	fmt.Printf("%d maps valid\n", len(allMaps))
	return nil
}

func wrapLabel(m *maps.Map) string {
	switch {
	case m.Wrap.X && m.Wrap.Y:
		return "wraps x+y"
	case m.Wrap.X:
		return "wraps x"
	case m.Wrap.Y:
		return "wraps y"
	}
	return "bounded"
}

// --- viz ---

func runViz(path string) error {
	m, err := maps.LoadMap(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%dx%d, %s)\n", m.Name, m.Width, m.Height, wrapLabel(m))

	var sb strings.Builder
	for y := range m.Height {
		for x := range m.Width {
			def := m.TileAt(x, y)
			cell := render.Cell{Ch: def.Char, Fg: render.AnsiToRGB(def.Fg)}
			if def.Bg != 0 {
				cell.Bg = render.AnsiToRGB(def.Bg)
			}
			render.WriteCellSGR(&sb, cell)
		}
		sb.WriteString(render.Reset)
		sb.WriteByte('\n')
	}
	fmt.Print(sb.String())

	fmt.Printf("\nspawn  %d,%d\n", m.SpawnX, m.SpawnY)
	for _, p := range m.Portals {
		fmt.Printf("portal %d,%d -> %s %d,%d\n", p.X, p.Y, p.TargetMap, p.TargetX, p.TargetY)
	}
	return nil
}

// --- stats ---

type tileCount struct {
	name  string
	count int
}

// countTiles tallies ground tiles by legend name, most common first.
func countTiles(m *maps.Map) (counts []tileCount, walkable int) {
	byName := make(map[string]int)
	for y := range m.Height {
		for x := range m.Width {
			byName[m.TileAt(x, y).Name]++
			if m.IsWalkable(x, y) {
				walkable++
			}
		}
	}
	for name, n := range byName {
		counts = append(counts, tileCount{name, n})
	}
	slices.SortFunc(counts, func(a, b tileCount) int {
		return cmp.Or(cmp.Compare(b.count, a.count), cmp.Compare(a.name, b.name))
	})
	return counts, walkable
}

func runStats(path string) error {
	m, err := maps.LoadMap(path)
	if err != nil {
		return err
	}
	total := m.Width * m.Height
	percent := func(n int) float64 { return float64(n) / float64(total) * 100 }

	fmt.Printf("%s %dx%d, %d tiles\n\n", m.Name, m.Width, m.Height, total)
	counts, walkable := countTiles(m)
	for _, c := range counts {
		fmt.Printf("  %-10s %4d %5.1f%% %s\n", c.name, c.count, percent(c.count), strings.Repeat("█", int(percent(c.count)/2)))
	}
	fmt.Printf("\nwalkable %d/%d %.1f%%\n", walkable, total, percent(walkable))
	fmt.Printf("layers   %s\n", strings.Join(m.LayerNames(), ", "))
	fmt.Printf("portals  %d\n", len(m.Portals))
	return nil
}

// --- plan ---

func runPlan(path string, args []string) error {
	m, err := maps.LoadMap(path)
	if err != nil {
		return err
	}
	nums := make([]int, 0, 4)
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("%q is not a number", a)
		}
		nums = append(nums, n)
	}
	w, h := 20, 10
	if len(nums) == 4 {
		w, h = nums[2], nums[3]
	}

	// One pixel per tile keeps the dump in map units.
	v, err := view.New(view.Config{
		Bounds:   view.Rect{Width: w, Height: h},
		Tile:     view.Size{Width: 1, Height: 1},
		Focus:    nav.AtF(float64(nums[0])+0.5, float64(nums[1])+0.5),
		Topology: m.Topology(),
	})
	if err != nil {
		return err
	}

	plans := plan.ForGrid(m.Grid).Plan(v)
	fmt.Printf("%s %s, focus %s, view %dx%d: %d plan(s)\n", m.Name, wrapLabel(m), v.Focus(), w, h, len(plans))
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	cfg.Dump(plans)
	for i, p := range plans {
		a := p.ToArea()
		fmt.Printf("plan %d: %s -> cells (%d,%d)..(%d,%d), %d cells\n", i, p, a.X, a.Y, a.MaxX(), a.MaxY(), a.Width*a.Height)
	}
	return nil
}

// --- all ---

func runAll(dir string) error {
	fmt.Println("=== validate ===")
	if err := runValidate(dir); err != nil {
		return err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	for _, path := range paths {
		name := filepath.Base(path)
		fmt.Printf("\n=== viz %s ===\n", name)
		if err := runViz(path); err != nil {
			return err
		}
		fmt.Printf("\n=== stats %s ===\n", name)
		if err := runStats(path); err != nil {
			return err
		}
	}
	return nil
}
