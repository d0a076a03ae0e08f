package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/extract"
	"github.com/cazamitos/cazamitos/internal/materials"
	"github.com/cazamitos/cazamitos/internal/quiz"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file | subject/file.pdf>",
	Short: "Generate and answer a quiz on stdin (no results stored)",
	Long: `Generate a quiz from a material file, answer it line by line and see the
evaluation.

This is a stateless tool for checking question quality: nothing is
submitted to the results collection. AI requests are still logged.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path, err := resolveMaterial(cfg.Materials.Dir, args[0])
	if err != nil {
		return err
	}
	material, err := extract.File(path)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	gw, err := newGateway(ctx, cfg.LLM, cfg.Quiz, st, zap.NewNop())
	if err != nil {
		return fmt.Errorf("AI provider: %w", err)
	}

	fmt.Printf("Generating %d questions from %s...\n\n", cfg.Quiz.QuestionCount, path)
	questions, err := gw.GenerateQuiz(ctx, material)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	answers := make([]*int, len(questions))
	for i, q := range questions {
		fmt.Printf("── Pregunta %d/%d ──\n", i+1, len(questions))
		fmt.Println(q.Question)
		for j, opt := range q.Options {
			fmt.Printf("  %d) %s\n", j+1, opt)
		}

		fmt.Print("\nTu respuesta: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || n < 1 || n > len(q.Options) {
			fmt.Println("(sin responder)")
			fmt.Println()
			continue
		}
		idx := n - 1
		answers[i] = &idx
		fmt.Println()
	}

	fmt.Println("Evaluating...")
	evals, err := gw.Evaluate(ctx, material, questions, quiz.MapAnswers(questions, answers))
	if err != nil {
		return err
	}

	for i, e := range evals {
		mark := "\033[32m✓\033[0m"
		if !e.IsCorrect {
			mark = "\033[31m✗\033[0m"
		}
		fmt.Printf("%s Pregunta %d: correcta %q\n", mark, i+1, e.CorrectAnswer)
		if e.Explanation != "" {
			fmt.Printf("  %s\n", e.Explanation)
		}
		fmt.Printf("  Mito: %s\n", questions[i].MythExplanation)
	}

	correct := quiz.Score(evals)
	fmt.Printf("\n── Resultado: %d/%d (%d%%) ──\n", correct, len(evals), quiz.Percentage(correct, len(evals)))
	fmt.Printf("Falladas: %s\n", quiz.FailedLabels(evals))
	return nil
}

// resolveMaterial accepts a file path or a subject/file reference into
// the materials directory.
func resolveMaterial(dir, arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	ref, err := materials.ParseRef(arg)
	if err != nil {
		return "", fmt.Errorf("%s is not a file or a catalog reference", arg)
	}
	p, err := materials.Resolve(dir, ref)
	if errors.Is(err, materials.ErrNotFound) {
		return "", fmt.Errorf("%w (materials dir %s)", err, dir)
	}
	return p, err
}
