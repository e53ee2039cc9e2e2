package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zsiec/tsproto/descriptor"
)

func (a *app) descriptorsCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "descriptors <hex>...",
		Short: "Decode a descriptor loop",
		Long: `descriptors decodes a loop of tag-length-value descriptors given as hex and
prints every descriptor with its decoded fields. Arguments are joined, so a
loop can be split over several words.`,
		Example: `  tsprobe descriptors 0a04656e6700
  tsprobe descriptors -o json 05 04 43554549`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(strings.Join(strings.Fields(strings.Join(args, " ")), ""))
			if err != nil {
				return fmt.Errorf("decoding hex: %w", err)
			}
			ds, err := descriptor.DecodeAll(raw)
			if err != nil {
				return err
			}
			records := describe(ds)
			switch output {
			case "json", "yaml":
				return writeStructured(a.stdout, output, records)
			case "text":
				for _, r := range records {
					fmt.Fprintf(a.stdout, "0x%02X %s %+v\n", r.Tag, r.Name, r.Fields)
				}
				return nil
			}
			return fmt.Errorf("output must be one of: text, json, yaml")
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format (text, json, yaml)")
	return cmd
}
