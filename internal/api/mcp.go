package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/tutord/internal/storage"
)

// NewMCPServer creates an MCP server exposing the tutoring lifecycle to
// agent clients over stdio.
func NewMCPServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"tutord",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("tutord — generates comprehension questions from YouTube lectures and grades answers."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("generate_questions",
			mcp.WithDescription("Fetch a YouTube video transcript and generate comprehension questions from it."),
			mcp.WithString("url", mcp.Description("YouTube video URL"), mcp.Required()),
		),
		mcpGenerateQuestions(deps),
	)

	s.AddTool(
		mcp.NewTool("list_questions",
			mcp.WithDescription("List stored question interactions in creation order."),
			mcp.WithNumber("offset", mcp.Description("Number of interactions to skip")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (capped at 10)")),
		),
		mcpListQuestions(deps),
	)

	s.AddTool(
		mcp.NewTool("get_question",
			mcp.WithDescription("Fetch one interaction with its question, answer, and feedback."),
			mcp.WithNumber("id", mcp.Description("Interaction id"), mcp.Required()),
		),
		mcpGetQuestion(deps),
	)

	s.AddTool(
		mcp.NewTool("submit_answer",
			mcp.WithDescription("Record an answer to a question and generate tutoring feedback for it."),
			mcp.WithNumber("id", mcp.Description("Interaction id"), mcp.Required()),
			mcp.WithString("answer", mcp.Description("The learner's answer"), mcp.Required()),
		),
		mcpSubmitAnswer(deps),
	)

	return s
}

func mcpGenerateQuestions(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := req.RequireString("url")
		if err != nil {
			return mcpError("url is required"), nil
		}

		questions, err := deps.Questions.Generate(ctx, url)
		if err != nil {
			return mcpError(fmt.Sprintf("generating questions: %v", err)), nil
		}

		created := make([]storage.Interaction, 0, len(questions))
		for _, q := range questions {
			inter, err := deps.Store.CreateInteraction(q)
			if err != nil {
				return mcpError(fmt.Sprintf("storing question: %v", err)), nil
			}
			created = append(created, inter)
		}

		return mcpInteractionsJSON(toInteractionList(created))
	}
}

func mcpListQuestions(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		offset := req.GetInt("offset", 0)
		limit := req.GetInt("limit", storage.MaxListLimit)

		interactions, err := deps.Store.ListInteractions(offset, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("listing questions: %v", err)), nil
		}
		return mcpInteractionsJSON(toInteractionList(interactions))
	}
}

func mcpGetQuestion(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		inter, err := deps.Store.GetInteraction(int64(id))
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("interaction %d not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("loading interaction: %v", err)), nil
		}
		return mcpInteractionsJSON(toInteractionJSON(inter))
	}
}

func mcpSubmitAnswer(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		answer, err := req.RequireString("answer")
		if err != nil || answer == "" {
			return mcpError("answer is required"), nil
		}

		inter, err := gradeAnswer(ctx, deps, int64(id), answer)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("interaction %d not found", id)), nil
		}
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpInteractionsJSON(toInteractionJSON(inter))
	}
}

func mcpInteractionsJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
