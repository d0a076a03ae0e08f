package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cazamitos/cazamitos/internal/materials"
)

var materialsCmd = &cobra.Command{
	Use:   "materials",
	Short: "Manage the course materials catalog",
}

var materialsIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan <dir>/<subject>/*.pdf and write the catalog JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir = cfg.Materials.Dir
		}

		catalog, err := materials.Scan(dir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", dir, err)
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = filepath.Join(dir, "materials.json")
		}
		if err := catalog.WriteFile(out); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}

		for _, subject := range catalog.Subjects() {
			fmt.Fprintf(os.Stderr, "%-32s %d\n", subject, len(catalog[subject]))
		}
		fmt.Fprintf(os.Stderr, "Indexed %d files in %d subjects into %s\n",
			catalog.Count(), len(catalog), out)
		return nil
	},
}

func init() {
	materialsIndexCmd.Flags().String("dir", "", "Materials root (overrides materials.dir)")
	materialsIndexCmd.Flags().String("out", "", "Output file (default <dir>/materials.json)")

	materialsCmd.AddCommand(materialsIndexCmd)
}
