package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/chazu/lamina/pkg/meshio"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display mesh statistics without slicing",
	Long:  "Load a mesh and report triangle, vertex and edge counts, manifold defects, and the bounding box.",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	m, err := meshio.Load(args[0])
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("File: %s\n\n", args[0])
	fmt.Println("Geometry:")
	fmt.Printf("  Triangles: %d\n", len(m.Triangles))
	fmt.Printf("  Vertices:  %d\n", len(m.Vertices))
	fmt.Printf("  Edges:     %d\n\n", len(m.Edges))

	fmt.Println("Defects:")
	fmt.Printf("  Degenerate triangles: %d\n", m.Stats.DegenerateTriangles)
	fmt.Printf("  Boundary edges:       %d\n", m.Stats.BoundaryEdges)
	fmt.Printf("  Non-manifold edges:   %d\n", m.Stats.NonManifoldEdges)
	if m.Stats.BoundaryEdges == 0 && m.Stats.NonManifoldEdges == 0 {
		fmt.Println("  Mesh is closed and manifold.")
	}
	fmt.Println()

	size := m.Bounds.Size()
	fmt.Println("Bounding box (mm):")
	fmt.Printf("  Min:  (%.3f, %.3f, %.3f)\n", m.Bounds.Min.X, m.Bounds.Min.Y, m.Bounds.Min.Z)
	fmt.Printf("  Max:  (%.3f, %.3f, %.3f)\n", m.Bounds.Max.X, m.Bounds.Max.Y, m.Bounds.Max.Z)
	fmt.Printf("  Size: %.3f × %.3f × %.3f\n", size.X, size.Y, size.Z)
}
