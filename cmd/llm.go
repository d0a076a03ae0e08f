package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cazamitos/cazamitos/internal/llm"
	"github.com/cazamitos/cazamitos/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the AI request log",
	Long: `Every quiz generation, evaluation and commentary request is logged to a
local SQLite database with its prompt, reply, token usage and latency.`,
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent AI requests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.QueryOpts{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			opts.Since = time.Now().Add(-since)
		}
		failedOnly, _ := cmd.Flags().GetBool("failed")

		s, err := openStoreCmd(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if failedOnly {
			kept := events[:0]
			for _, e := range events {
				if !e.Success {
					kept = append(kept, e)
				}
			}
			events = kept
		}
		if len(events) == 0 {
			fmt.Println("No AI requests logged.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-17s  %-26s  %6s  %6s  %6s  %s\n",
			"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "")
		rule(98)
		for _, e := range events {
			status := "✓"
			if !e.Success {
				status = "✗ " + truncate(e.ErrorMessage, 40)
			}
			fmt.Printf("%-5d  %-19s  %-17s  %-26s  %6d  %6d  %6d  %s\n",
				e.ID, localTime(e.Timestamp), e.Purpose, truncate(e.Model, 26),
				e.InputTokens, e.OutputTokens, e.LatencyMs, status)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one AI request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q", args[0])
		}

		s, err := openStoreCmd(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("no AI request with ID %d", id)
		}

		fields := [][2]string{
			{"Time", localTime(e.Timestamp)},
			{"Provider", e.Provider},
			{"Model", e.Model},
			{"Purpose", e.Purpose},
			{"Tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens)},
			{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
			{"Success", strconv.FormatBool(e.Success)},
		}
		if e.ErrorMessage != "" {
			fields = append(fields, [2]string{"Error", e.ErrorMessage})
		}
		for _, f := range fields {
			fmt.Printf("%-10s %s\n", f[0]+":", f[1])
		}

		section("PROMPT", e.RequestBody)
		section("REPLY", prettyJSON(e.ResponseBody))
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStoreCmd(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No AI usage recorded yet.")
			return nil
		}

		fmt.Println("By purpose")
		fmt.Printf("%-18s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Avg ms")
		rule(60)
		var calls, in, out int
		for _, u := range byPurpose {
			fmt.Printf("%-18s  %6d  %10d  %10d  %8d\n", u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
			calls += u.Calls
			in += u.InputTokens
			out += u.OutputTokens
		}
		rule(60)
		fmt.Printf("%-18s  %6d  %10d  %10d\n", "Total", calls, in, out)

		byModel, err := s.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		fmt.Println()
		fmt.Println("Estimated cost (USD)")
		fmt.Printf("%-30s  %6s  %10s\n", "Model", "Calls", "Cost")
		rule(50)
		var total float64
		var unpriced []string
		for _, u := range byModel {
			price := llm.LookupCost(u.Model)
			if price == nil {
				unpriced = append(unpriced, u.Model)
				fmt.Printf("%-30s  %6d  %10s\n", truncate(u.Model, 30), u.Calls, "?")
				continue
			}
			c := price.Cost(u.InputTokens, u.OutputTokens)
			total += c
			fmt.Printf("%-30s  %6d  %10s\n", truncate(u.Model, 30), u.Calls, formatCost(c))
		}
		rule(50)
		fmt.Printf("%-30s  %6s  %10s\n", "Total", "", formatCost(total))
		if len(unpriced) > 0 {
			fmt.Printf("\nNo pricing for %s; the total leaves them out.\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func openStoreCmd(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func localTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func rule(n int) {
	fmt.Println(strings.Repeat("─", n))
}

func section(title, body string) {
	fmt.Println()
	rule(60)
	fmt.Println(title)
	rule(60)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

// prettyJSON indents body when it is JSON and returns it unchanged
// otherwise.
func prettyJSON(body string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return body
	}
	return buf.String()
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "",
		"Only this purpose: "+strings.Join([]string{llm.PurposeQuizGeneration, llm.PurposeEvaluation, llm.PurposeCommentary}, ", "))
	llmListCmd.Flags().Duration("since", 0, "Only requests newer than this, e.g. 24h")
	llmListCmd.Flags().Bool("failed", false, "Only failed requests")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
