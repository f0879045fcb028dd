// cmd/keys.go
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/synthinput/internal/bot/keys"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

// keyRow is one line of the key table as seen by a platform.
type keyRow struct {
	Name      string `json:"name"`
	KeyCode   int    `json:"key_code"`
	Char      string `json:"char,omitempty"`
	ShiftChar string `json:"shift_char,omitempty"`
	DOMKey    string `json:"dom_key"`
	DOMCode   string `json:"dom_code,omitempty"`
	Modifier  bool   `json:"modifier,omitempty"`
}

func newKeysCmd() *cobra.Command {
	var asJSON bool

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "List the key table with the key codes a platform reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			caps, err := cfg.Engine().Capabilities()
			if err != nil {
				return err
			}
			return runKeys(caps, asJSON, cmd.OutOrStdout())
		},
	}

	keysCmd.Flags().StringP("platform", "p", "", "browser engine whose key codes are listed (overrides engine.platform)")
	keysCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return keysCmd
}

func runKeys(caps platform.Capabilities, asJSON bool, out io.Writer) error {
	all := keys.All()
	rows := make([]keyRow, 0, len(all))
	for _, k := range all {
		rows = append(rows, keyRow{
			Name:      k.Name,
			KeyCode:   k.KeyCode(caps.GeckoKeyCodes),
			Char:      char(k.Char),
			ShiftChar: char(k.ShiftChar),
			DOMKey:    k.DOMKey,
			DOMCode:   k.DOMCode,
			Modifier:  k.IsModifier(),
		})
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"platform": caps.Name, "keys": rows})
	}

	fmt.Fprintf(out, "Key table for %s\n", caps.Name)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCODE\tCHAR\tSHIFT\tKEY\tDOM CODE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", r.Name, r.KeyCode, quoted(r.Char), quoted(r.ShiftChar), r.DOMKey, r.DOMCode)
	}
	return tw.Flush()
}

func char(r rune) string {
	if r == 0 {
		return ""
	}
	return string(r)
}

func quoted(s string) string {
	if s == "" {
		return "-"
	}
	return strconv.Quote(s)
}
