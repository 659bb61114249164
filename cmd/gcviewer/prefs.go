package main

import (
	"fmt"
	"sort"

	"github.com/gcviewer/backend/internal/prefs"
	"github.com/spf13/cobra"
)

var (
	prefsFile string
	prefsJSON bool
)

func init() {
	prefsCmd.PersistentFlags().StringVarP(&prefsFile, "file", "f", "", "preferences file (default: ~/"+prefs.FileName+")")
	prefsShowCmd.Flags().BoolVar(&prefsJSON, "json", false, "output the structured settings as JSON")

	prefsCmd.AddCommand(prefsShowCmd)
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Inspect the preferences file",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := prefsFile
		if path == "" {
			var err error
			if path, err = prefs.DefaultPath(); err != nil {
				return err
			}
		}

		store := prefs.NewStore(path).Load()
		out := cmd.OutOrStdout()
		if store.State() == prefs.StateInvalid {
			return fmt.Errorf("could not load preferences from %s", path)
		}

		if prefsJSON {
			st := store.Settings()
			recent := make([]string, 0, len(st.RecentGroups))
			for _, g := range st.RecentGroups {
				recent = append(recent, g.Encode())
			}
			return writeJSON(out, struct {
				prefs.Settings
				Path   string   `json:"path"`
				Recent []string `json:"recent"`
			}{st, path, recent})
		}

		fmt.Fprintf(out, "# %s (%s)\n", path, store.State())
		m := store.Map()
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s=%s\n", k, m[k])
		}
		return nil
	},
}
