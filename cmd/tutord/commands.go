package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// interactionView mirrors the API wire form of an interaction.
type interactionView struct {
	ID        int64   `json:"id"`
	Question  string  `json:"question"`
	Answer    *string `json:"answer"`
	Feedback  *string `json:"feedback"`
	CreatedAt string  `json:"created_at"`
}

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate <youtube-url>",
	Short: "Generate comprehension questions from a YouTube video",
	Long: `Generate comprehension questions from a YouTube video.

Example:
  tutord generate https://www.youtube.com/watch?v=dQw4w9WgXcQ`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Fetching transcript and generating questions...")
		resp, err := client.post(cmd.Context(), "/generate-questions", map[string]string{"url": args[0]})
		if err != nil {
			return err
		}

		var interactions []interactionView
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		printSuccess("Generated %d questions", len(interactions))
		for _, ix := range interactions {
			fmt.Printf("\n%s %s\n", colorize(colorBold, fmt.Sprintf("[%d]", ix.ID)), ix.Question)
		}
		return nil
	},
}

// --- questions ---

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Browse stored questions",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored questions in creation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/get-questions?offset=%d&limit=%d", offset, limit)
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var interactions []interactionView
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No questions found.")
			return nil
		}

		for _, ix := range interactions {
			marker := " "
			if ix.Feedback != nil {
				marker = colorize(colorGreen, "✓")
			} else if ix.Answer != nil {
				marker = colorize(colorYellow, "~")
			}
			question := ix.Question
			if len(question) > 80 {
				question = question[:80] + "..."
			}
			fmt.Printf("%s %s  %s\n", marker, colorize(colorCyan, strconv.FormatInt(ix.ID, 10)), question)
		}
		return nil
	},
}

var questionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a question with its answer and feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/get-question/"+args[0])
		if err != nil {
			return err
		}

		var interaction any
		if err := decodeJSON(resp, &interaction); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(interaction)
	},
}

func init() {
	questionsListCmd.Flags().Int("offset", 0, "number of questions to skip")
	questionsListCmd.Flags().Int("limit", 10, "maximum number of questions to list")
	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsShowCmd)
}

// --- answer ---

var answerCmd = &cobra.Command{
	Use:   "answer <id> <answer...>",
	Short: "Answer a question and get tutoring feedback",
	Long: `Answer a question and get tutoring feedback.

Example:
  tutord answer 3 "Backpropagation applies the chain rule to compute gradients."`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid question id %q", args[0])
		}
		answer := strings.Join(args[1:], " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Generating feedback...")
		body := map[string]any{"interaction_id": id, "answer": answer}
		resp, err := client.post(cmd.Context(), "/generate-feedback", body)
		if err != nil {
			return err
		}

		var ix interactionView
		if err := decodeJSON(resp, &ix); err != nil {
			return err
		}

		fmt.Printf("\n%s %s\n", colorize(colorBold, "Question:"), ix.Question)
		if ix.Answer != nil {
			fmt.Printf("%s %s\n", colorize(colorBold, "Answer:"), *ix.Answer)
		}
		if ix.Feedback != nil {
			fmt.Printf("\n%s\n%s\n", colorize(colorBold, "Feedback:"), *ix.Feedback)
		}
		return nil
	},
}
