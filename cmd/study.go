package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"halomind/internal/adapters/ai"
	"halomind/internal/bootstrap"
)

var (
	sectionTitle  string
	contextFile   string
	rephraseFile  string
	scheduleGoal  string
	scheduleItems []string
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Stream Markdown notes for a section",
	RunE: withCore(func(ctx context.Context, c *bootstrap.Container, _ []string) error {
		source, err := readInput(contextFile)
		if err != nil {
			return err
		}
		stream, err := c.Study.GenerateNotesStream(ctx, sectionTitle, source)
		if err != nil {
			return err
		}
		return printStream(stream)
	}),
}

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a multiple-choice quiz for a section",
	RunE: withCore(func(ctx context.Context, c *bootstrap.Container, _ []string) error {
		source, err := readInput(contextFile)
		if err != nil {
			return err
		}
		quiz, err := c.Study.GenerateQuiz(ctx, sectionTitle, source)
		if err != nil {
			return err
		}
		return printJSON(quiz)
	}),
}

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Generate a simple explainer for a section",
	RunE: withCore(func(ctx context.Context, c *bootstrap.Container, _ []string) error {
		source, err := readInput(contextFile)
		if err != nil {
			return err
		}
		explainer, err := c.Study.GenerateSimpleExplainer(ctx, sectionTitle, source)
		if err != nil {
			return err
		}
		return printJSON(explainer)
	}),
}

var rephraseCmd = &cobra.Command{
	Use:   "rephrase",
	Short: "Stream a beginner-friendly rewrite of a text",
	RunE: withCore(func(ctx context.Context, c *bootstrap.Container, _ []string) error {
		text, err := readInput(rephraseFile)
		if err != nil {
			return err
		}
		stream, err := c.Study.RephraseStream(ctx, text)
		if err != nil {
			return err
		}
		return printStream(stream)
	}),
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Plan study days for a list of sections",
	RunE: withCore(func(ctx context.Context, c *bootstrap.Container, _ []string) error {
		schedule, err := c.Study.GenerateStudySchedule(ctx, scheduleGoal, scheduleItems)
		if err != nil {
			return err
		}
		return printJSON(schedule)
	}),
}

func init() {
	for _, cmd := range []*cobra.Command{notesCmd, quizCmd, explainCmd} {
		cmd.Flags().StringVarP(&sectionTitle, "title", "t", "", "Section title")
		cmd.Flags().StringVarP(&contextFile, "file", "f", "-", "Section context file, - for stdin")
		_ = cmd.MarkFlagRequired("title")
	}
	rephraseCmd.Flags().StringVarP(&rephraseFile, "file", "f", "-", "Text file, - for stdin")
	scheduleCmd.Flags().StringVarP(&scheduleGoal, "goal", "g", "", "Study goal")
	scheduleCmd.Flags().StringArrayVarP(&scheduleItems, "section", "s", nil, "Section title (repeatable)")
	_ = scheduleCmd.MarkFlagRequired("goal")

	rootCmd.AddCommand(notesCmd, quizCmd, explainCmd, rephraseCmd, scheduleCmd)
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintf(os.Stderr, "read %s of input\n", humanize.Bytes(uint64(len(data))))
	return string(data), nil
}

func printStream(stream *ai.Stream) error {
	defer stream.Close()
	for chunk, err := range stream.Chunks() {
		if err != nil {
			fmt.Fprintln(os.Stdout)
			return err
		}
		fmt.Fprint(os.Stdout, chunk.Text)
	}
	fmt.Fprintln(os.Stdout)
	fmt.Fprintf(os.Stderr, "served by %s\n", stream.Provider())
	return nil
}

// printJSON writes v indented; a nil result means the answer could not be read
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
