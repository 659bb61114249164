package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gcviewer/backend/internal/resource"
	"github.com/spf13/cobra"
)

var groupJSON bool

func init() {
	groupCmd.PersistentFlags().BoolVar(&groupJSON, "json", false, "output as JSON")

	groupCmd.AddCommand(groupEncodeCmd)
	groupCmd.AddCommand(groupDecodeCmd)
	groupCmd.AddCommand(groupLabelCmd)
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Encode, decode and label resource groups",
	Long: `A resource group is the list of logs shown together in one document.
Its encoded form ends every entry with ';' and joins the files of a
rotated series with '>'.`,
}

var groupEncodeCmd = &cobra.Command{
	Use:   "encode ENTRY...",
	Short: "Encode entries into a group",
	Long: `Each argument is one entry. Join rotated files of a series with '>'.

Example:
  gcviewer group encode /logs/a.log "/logs/b.log>/logs/b.log.1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := parseEntries(args)
		if err != nil {
			return err
		}
		return printGroup(cmd.OutOrStdout(), g, g.Encode())
	},
}

var groupDecodeCmd = &cobra.Command{
	Use:   "decode ENCODED",
	Short: "Show the entries of an encoded group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := resource.Decode(args[0])
		out := cmd.OutOrStdout()
		if groupJSON {
			return writeJSON(out, groupView(g))
		}
		for i, e := range g.Entries() {
			fmt.Fprintf(out, "%d\t%s\t%s\n", i, e.Kind(), e)
		}
		return nil
	},
}

var groupLabelCmd = &cobra.Command{
	Use:   "label ENCODED",
	Short: "Print the document title of an encoded group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := resource.Decode(args[0])
		return printGroup(cmd.OutOrStdout(), g, g.ShortLabel())
	},
}

func parseEntries(args []string) (resource.Group, error) {
	entries := make([]resource.Entry, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, resource.SeriesSeparator)
		ids := make([]resource.ID, 0, len(parts))
		for _, p := range parts {
			id, err := resource.Normalize(p)
			if err != nil {
				return resource.Group{}, err
			}
			ids = append(ids, id)
		}
		if len(ids) == 1 {
			entries = append(entries, resource.Single(ids[0]))
			continue
		}
		e, err := resource.Series(ids...)
		if err != nil {
			return resource.Group{}, err
		}
		entries = append(entries, e)
	}
	return resource.NewGroup(entries...), nil
}

type entryView struct {
	Kind      string   `json:"kind"`
	Resources []string `json:"resources"`
}

type groupOutput struct {
	Encoded string      `json:"encoded"`
	Label   string      `json:"label"`
	Entries []entryView `json:"entries"`
}

func groupView(g resource.Group) groupOutput {
	out := groupOutput{Encoded: g.Encode(), Label: g.ShortLabel()}
	for _, e := range g.Entries() {
		v := entryView{Kind: e.Kind().String()}
		for _, id := range e.IDs() {
			v.Resources = append(v.Resources, id.String())
		}
		out.Entries = append(out.Entries, v)
	}
	return out
}

func printGroup(w io.Writer, g resource.Group, plain string) error {
	if groupJSON {
		return writeJSON(w, groupView(g))
	}
	_, err := fmt.Fprintln(w, plain)
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
