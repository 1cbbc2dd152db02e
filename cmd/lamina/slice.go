package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/deadsy/sdfx/sdf"
	"github.com/spf13/cobra"

	"github.com/chazu/lamina/pkg/mesh"
	"github.com/chazu/lamina/pkg/meshio"
	"github.com/chazu/lamina/pkg/slice"
)

const timeResolution = time.Millisecond

var sliceCmd = &cobra.Command{
	Use:   "slice [file]",
	Short: "Cross-section a mesh into contour layers",
	Long: `Slice a mesh file (or a --demo solid) with evenly spaced horizontal
planes and print per-layer contour statistics. Gap closing and
tolerance behavior can be tuned with an INI file passed via --config;
see 'lamina slice --print-config' for the format.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSlice,
}

var sliceFlags struct {
	layerHeight float64
	firstLayer  float64
	configPath  string
	demo        string
	workers     int
	cells       int
	verbose     bool
	printConfig bool
}

func init() {
	f := sliceCmd.Flags()
	f.Float64VarP(&sliceFlags.layerHeight, "layer-height", "l", 0.2, "layer spacing in mm")
	f.Float64Var(&sliceFlags.firstLayer, "first-layer", 0, "first plane height in mm (default: half the layer height)")
	f.StringVarP(&sliceFlags.configPath, "config", "c", "", "INI config file for chaining tolerances")
	f.StringVar(&sliceFlags.demo, "demo", "", "slice a generated solid instead of a file: box, cylinder or sphere")
	f.IntVarP(&sliceFlags.workers, "workers", "w", 0, "slicing goroutines (0 = GOMAXPROCS)")
	f.IntVar(&sliceFlags.cells, "cells", 0, "marching cubes resolution for --demo solids")
	f.BoolVarP(&sliceFlags.verbose, "verbose", "v", false, "print a row per layer")
	f.BoolVar(&sliceFlags.printConfig, "print-config", false, "print an example config file and exit")
	rootCmd.AddCommand(sliceCmd)
}

func runSlice(cmd *cobra.Command, args []string) {
	if sliceFlags.printConfig {
		fmt.Print(ExampleConfigFile)
		return
	}

	cfg, layerHeight, firstLayer, err := loadConfig(sliceFlags.configPath, sliceFlags.layerHeight, sliceFlags.firstLayer)
	if err != nil {
		log.Fatal(err)
	}
	if firstLayer <= 0 {
		firstLayer = layerHeight / 2
	}
	cfg.Workers = sliceFlags.workers

	m, name, err := loadInput(args)
	if err != nil {
		log.Fatal(err)
	}
	if len(m.Triangles) == 0 {
		log.Fatalf("%s: mesh has no triangles", name)
	}
	if m.Stats.DegenerateTriangles > 0 || m.Stats.BoundaryEdges > 0 || m.Stats.NonManifoldEdges > 0 {
		log.Printf("warning: %s: %d degenerate triangles, %d boundary edges, %d non-manifold edges",
			name, m.Stats.DegenerateTriangles, m.Stats.BoundaryEdges, m.Stats.NonManifoldEdges)
	}

	var heights []float64
	for z := m.Bounds.Min.Z + firstLayer; z < m.Bounds.Max.Z; z += layerHeight {
		heights = append(heights, z)
	}
	if len(heights) == 0 {
		log.Fatalf("%s: no layers between z=%.3f and z=%.3f at %.3fmm spacing",
			name, m.Bounds.Min.Z, m.Bounds.Max.Z, layerHeight)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := slice.NewSlicer(m, cfg).Slice(ctx, heights)
	if err != nil {
		log.Fatal(err)
	}

	if sliceFlags.verbose {
		fmt.Printf("%10s %8s %8s %8s %8s\n", "z (mm)", "polys", "open", "gaps", "segs")
		for _, l := range res.Layers {
			open := 0
			for _, p := range l.Polygons {
				if !p.Closed {
					open++
				}
			}
			fmt.Printf("%10.3f %8d %8d %8d %8d\n",
				l.Z.MM(), len(l.Polygons), open, l.Diag.GapsClosed, l.Diag.Segments)
		}
		fmt.Println()
	}

	fmt.Printf("Sliced %s: %d triangles, %d layers in %s\n",
		name, len(m.Triangles), res.Stats.Layers, res.Stats.Elapsed.Round(timeResolution))
	fmt.Printf("  Segments: %d (%.1f candidate triangles/layer)\n",
		res.Stats.Segments, res.Stats.TrianglesPerLayer)
	fmt.Printf("  Gaps closed: %d, unresolved open contours: %d\n",
		res.Stats.GapsClosed, res.Stats.Unresolved)
	fmt.Printf("  Estimated volume: %.2f mm³\n", res.Stats.VolumeEstimate)
}

// loadInput resolves the mesh from either a file argument or the
// --demo flag.
func loadInput(args []string) (*mesh.Mesh, string, error) {
	switch {
	case sliceFlags.demo != "" && len(args) > 0:
		return nil, "", fmt.Errorf("pass a file or --demo, not both")

	case sliceFlags.demo != "":
		s, err := demoSolid(sliceFlags.demo)
		if err != nil {
			return nil, "", err
		}
		m, err := mesh.FromSDF(s, sliceFlags.cells)
		if err != nil {
			return nil, "", fmt.Errorf("tessellate demo solid: %w", err)
		}
		return m, "demo " + sliceFlags.demo, nil

	case len(args) == 1:
		m, err := meshio.Load(args[0])
		if err != nil {
			return nil, "", err
		}
		return m, args[0], nil

	default:
		return nil, "", fmt.Errorf("a mesh file or --demo solid is required")
	}
}

// demoSolid builds one of the built-in solids, all sized to slice in a
// couple dozen layers at default spacing.
func demoSolid(name string) (sdf.SDF3, error) {
	switch name {
	case "box":
		return mesh.BoxSolid(10, 10, 10)
	case "cylinder":
		return mesh.CylinderSolid(10, 5)
	case "sphere":
		return mesh.SphereSolid(5)
	default:
		return nil, fmt.Errorf("unknown demo solid %q (want box, cylinder or sphere)", name)
	}
}
