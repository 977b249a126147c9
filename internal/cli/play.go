package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quizrunner/internal/app"
	"quizrunner/internal/catalog"
	"quizrunner/internal/config"
	"quizrunner/internal/domain"
	"quizrunner/internal/infra/memory"
	"quizrunner/internal/quiz"
	"quizrunner/internal/stats"
)

// NewPlayCmd plays a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		shuffleQuestions bool
		shuffleChoices   bool
		randomCount      int
	)
	cmd := &cobra.Command{
		Use:   "play [quiz file]",
		Short: "Play a quiz in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			return runPlay(cmd.Context(), *configPath, file, shuffleQuestions, shuffleChoices, randomCount)
		},
	}
	cmd.Flags().BoolVar(&shuffleQuestions, "shuffle-questions", false, "shuffle question order")
	cmd.Flags().BoolVar(&shuffleChoices, "shuffle-choices", false, "shuffle choice order")
	cmd.Flags().IntVar(&randomCount, "random", 0, "play a random mix of N questions from the quizzes directory")
	return cmd
}

func runPlay(ctx context.Context, configPath, file string, shuffleQuestions, shuffleChoices bool, randomCount int) error {
	quizzesDir := "quizzes"
	resultsDir := "results"
	if cfg, err := config.Load(configPath); err == nil {
		if cfg.Dirs.Quizzes != "" {
			quizzesDir = cfg.Dirs.Quizzes
		}
		if cfg.Dirs.Results != "" {
			resultsDir = cfg.Dirs.Results
		}
	}

	fileResults := stats.NewFileResults(resultsDir)
	recorder := stats.NewRecorder(memory.NewScoreStore(), fileResults, fileResults, nil)
	engine := app.NewEngine(catalog.NewDirSource(quizzesDir), recorder)

	switch {
	case randomCount > 0:
		if err := engine.LoadRandomMix(ctx, randomCount); err != nil {
			return err
		}
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if err := engine.LoadRaw(filepath.Base(file), data); err != nil {
			return err
		}
		if err := engine.Start(shuffleQuestions, shuffleChoices); err != nil {
			return err
		}
	default:
		return fmt.Errorf("pass a quiz file or --random N")
	}

	sess := engine.Session()
	fmt.Printf("\n%s (%d questions)\n", sess.QuizName(), len(sess.Questions()))
	fmt.Println("a-d select, p prev, n next, f finish, q quit")

	in := bufio.NewScanner(os.Stdin)
	for {
		pos, total, q, err := sess.Current()
		if err != nil {
			return err
		}
		mapping := quiz.BuildChoiceMapping(q, sess.ShuffleChoices())

		fmt.Printf("\n[%d/%d] %s\n", pos+1, total, q.Question)
		if q.Code != "" {
			fmt.Printf("\n%s\n", q.Code)
		}
		for i, choice := range mapping.DisplayChoices {
			marker := " "
			if sel := sess.Selected(); sel != domain.Unanswered && mapping.OriginalToDisplay[sel] == i {
				marker = "*"
			}
			fmt.Printf(" %s %c) %s\n", marker, 'a'+i, choice)
		}

		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		input := strings.ToLower(strings.TrimSpace(in.Text()))

		finished := false
		switch input {
		case "a", "b", "c", "d":
			display := int(input[0] - 'a')
			if err := engine.Select(mapping.DisplayToOriginal[display]); err != nil {
				fmt.Println(err)
			}
		case "p":
			if err := engine.Prev(); err != nil {
				fmt.Println(err)
			}
		case "n", "":
			finished, err = engine.Next(ctx)
			if err != nil {
				fmt.Println(err)
			}
		case "f":
			if _, err := engine.Finish(ctx); err != nil {
				fmt.Println(err)
			}
			finished = true
		case "q":
			return nil
		default:
			fmt.Println("a-d select, p prev, n next, f finish, q quit")
		}

		if finished {
			printResults(sess.Results())
			return nil
		}
	}
}

func printResults(rs domain.ResultSet) {
	fmt.Printf("\nScore: %d/%d (%d%%)\n", rs.CorrectCount, rs.Total, rs.Pct)
	for _, r := range rs.Results {
		if r.IsCorrect {
			continue
		}
		fmt.Printf("\n✗ %s\n", r.Question)
		if r.Selected != domain.Unanswered && r.Selected < len(r.Choices) {
			fmt.Printf("  your answer:    %s\n", r.Choices[r.Selected])
		} else {
			fmt.Printf("  your answer:    (none)\n")
		}
		if r.Correct >= 0 && r.Correct < len(r.Choices) {
			fmt.Printf("  correct answer: %s\n", r.Choices[r.Correct])
		}
		if r.Explanation != "" {
			fmt.Printf("  %s\n", r.Explanation)
		}
	}
}
