package generator

import (
	"fmt"
	"strings"

	"github.com/kalambet/tutord/internal/llm"
	"github.com/kalambet/tutord/internal/retrieval"
)

// questionPrompt instructs the model to produce five numbered, open-ended
// comprehension questions grounded in the lecture content only.
const questionPrompt = `You are an expert tutor evaluating a student's understanding of a lecture's core concepts. Your task is to generate five well-structured, thought-provoking questions that directly assess the student's grasp of the key principles, theories, mechanisms, or frameworks presented in the lecture.

Guidelines:
1. Only focus on the core subject matter. Strictly avoid questions about research papers, teaching methods, quizzes, grading, assignments, course logistics, or any other administrative aspects.
2. Ask questions that test conceptual understanding rather than simple recall:
   - Fundamental theories, models, or frameworks related to the lecture topic.
   - Key concepts and principles that drive understanding in the field.
   - Applications of these concepts in real-world or hypothetical scenarios.
   - Comparisons and contrasts between different theories, models, or approaches.
   - Implications or consequences of applying these concepts in practice.
3. Encourage higher-order thinking: ask the student to explain, analyze, compare, apply, or evaluate ideas rather than memorize facts.
4. Ensure all questions are clear, precise, and directly relevant to the lecture's subject matter. Avoid vague or overly broad questions.
5. Do NOT reference timestamps, slides, visuals, images, tables, or external sources. The questions must be fully based on the lecture's spoken content.

Output format:
1. [First question]
2. [Second question]
3. [Third question]
4. [Fourth question]
5. [Fifth question]

Now, generate five challenging, insightful questions that assess the student's understanding of the core concepts covered in the lecture.`

// feedbackPrompt carries the grading rubric. The question and answer are
// appended by feedbackMessages.
const feedbackPrompt = `You are an expert tutor assessing a student's answer to a conceptual question. Your goal is to provide detailed, constructive feedback that helps the student improve their understanding.

Evaluation criteria:
1. Accuracy: does the response correctly address the key concepts in the question? Are there any factual errors or misconceptions?
2. Depth of understanding: does the answer demonstrate surface-level knowledge or a deep conceptual grasp of the topic?
3. Clarity and coherence: is the response well-structured, easy to follow, and logically reasoned?
4. Critical thinking: does the student analyze, apply, or evaluate ideas instead of just recalling facts?

Your response should include:
1. Overall assessment: a summary of how well the student answered the question.
2. Strengths: what the student did well (clear explanation, strong reasoning, good use of examples).
3. Areas for improvement: specific weaknesses (missing key details, logical gaps, lack of depth).
4. Suggested enhancements: actionable tips to refine the answer.

Now, evaluate the following response based on these guidelines.`

// questionMessages assembles the chat request for question generation:
// retrieved lecture excerpts go into the system message, the task prompt
// is the user turn.
func questionMessages(chunks []retrieval.ScoredRecord) []llm.Message {
	var sb strings.Builder
	sb.WriteString("Use the following lecture excerpts to answer the user's request. Do not rely on outside knowledge of the lecture.\n")
	for i, ch := range chunks {
		fmt.Fprintf(&sb, "\n[Excerpt %d]\n%s\n", i+1, ch.Text)
	}

	return []llm.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: questionPrompt},
	}
}

func feedbackMessages(question, answer string) []llm.Message {
	user := fmt.Sprintf("Question: %s\n\nStudent's answer: %s\n\nFeedback:", question, answer)
	return []llm.Message{
		{Role: "system", Content: feedbackPrompt},
		{Role: "user", Content: user},
	}
}
