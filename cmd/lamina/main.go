// Command lamina slices triangle meshes into planar contour layers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lamina",
	Short: "Slice triangle meshes into planar contour layers",
	Long: `lamina cross-sections STL and glTF meshes with horizontal planes and
chains the resulting segments into closed polygons. It reports per-layer
diagnostics so imperfect meshes are sliced with their defects visible
rather than silently patched.`,
	Version: "0.1.0",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
