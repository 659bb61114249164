// gcviewer is the headless backend of the GC log viewer. It serves the
// document model over HTTP and exposes the resource group codec and the
// preference store on the command line.
//
// Usage:
//
//	gcviewer serve
//	gcviewer serve --config ./gcviewer.config.xml
//	gcviewer group decode "file:/logs/gc.log;"
//	gcviewer prefs show
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "gcviewer",
	Short: "Headless backend of the GC log viewer",
	Long: `gcviewer hosts multi-dataset documents of garbage collector logs.

Commands:
  serve   Start the HTTP and WebSocket server
  group   Encode, decode and label resource groups
  prefs   Inspect the preferences file`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(prefsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
