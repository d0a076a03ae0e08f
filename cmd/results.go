package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/results"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect the stored quiz results",
}

func openResultsCmd(cmd *cobra.Command) (*results.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openResults(cmd.Context(), cfg, zap.NewNop())
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openResultsCmd(cmd)
		if err != nil {
			return err
		}
		recs, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No results stored yet.")
			return nil
		}

		subject, _ := cmd.Flags().GetString("subject")

		fmt.Printf("%-4s  %-20s  %-24s  %-20s  %-24s  %-6s  %6s\n",
			"#", "Timestamp", "Nombre", "Asignatura", "Tema", "Nota", "Seg")
		fmt.Println(strings.Repeat("─", 116))
		for i, r := range recs {
			if subject != "" && !strings.EqualFold(r.Subject, subject) {
				continue
			}
			fmt.Printf("%-4d  %-20s  %-24s  %-20s  %-24s  %-6s  %6d\n",
				i+1,
				truncate(r.Timestamp, 20),
				truncate(r.Name, 24),
				truncate(r.Subject, 20),
				truncate(r.Topic, 24),
				r.ScoreLabel(),
				r.ElapsedSeconds,
			)
		}
		return nil
	},
}

var resultsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored results",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openResultsCmd(cmd)
		if err != nil {
			return err
		}
		n, err := svc.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the collection as indented JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openResultsCmd(cmd)
		if err != nil {
			return err
		}
		recs, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		if recs == nil {
			recs = []results.Record{}
		}
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		data = append(data, '\n')

		out, _ := cmd.Flags().GetString("out")
		if out == "" || out == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d results to %s\n", len(recs), out)
		return nil
	},
}

var resultsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Post a sample record to the results endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		endpoint, _ := cmd.Flags().GetString("endpoint")
		if endpoint == "" {
			endpoint = cfg.Results.Endpoint
		}
		if endpoint == "" {
			return errors.New("no endpoint: pass --endpoint or set results.endpoint")
		}

		client := results.NewClient(endpoint, userAgent(), cfg.Results.Timeout)
		receipt, err := client.Submit(cmd.Context(), results.SampleRecord())
		if err != nil {
			var re *results.RemoteError
			if errors.As(err, &re) {
				return fmt.Errorf("endpoint rejected the sample: %w", err)
			}
			return fmt.Errorf("post sample: %w", err)
		}
		fmt.Printf("OK: %s saved with score %s, %d results stored\n",
			receipt.StudentName, receipt.Score, receipt.TotalResults)
		return nil
	},
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func init() {
	resultsListCmd.Flags().String("subject", "", "Only show results for this subject")
	resultsExportCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	resultsTestCmd.Flags().String("endpoint", "", "Submission URL (overrides results.endpoint)")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsCountCmd)
	resultsCmd.AddCommand(resultsExportCmd)
	resultsCmd.AddCommand(resultsTestCmd)
}
