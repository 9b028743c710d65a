package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modalflow/modalflow/config"
	"github.com/modalflow/modalflow/types"
)

// DefaultTextTask is applied when a request names no task for text inputs.
const DefaultTextTask = "text_generation"

// Text processes text inputs. The wrapped backend is simulated; real
// deployments replace it behind the same interface.
type Text struct {
	modelPath string
	batchSize int
	tasks     []string
}

// NewText creates a text processor from its configuration.
func NewText(cfg config.ProcessorConfig) *Text {
	return &Text{
		modelPath: cfg.ModelPath,
		batchSize: cfg.BatchSize,
		tasks: []string{
			"text_generation",
			"summarization",
			"sentiment_analysis",
			"translation",
			"question_answering",
		},
	}
}

func (p *Text) Modality() types.Modality { return types.ModalityText }

func (p *Text) SupportedFormats() []string {
	return []string{"text/plain", "text/markdown", "application/json"}
}

func (p *Text) Capabilities() []string { return p.tasks }

// Process runs the selected task over each input in order.
func (p *Text) Process(ctx context.Context, inputs []types.Input, params map[string]any) ([]types.Output, error) {
	task := taskFromParams(params, DefaultTextTask)
	outputs := make([]types.Output, 0, len(inputs))

	for _, in := range inputs {
		if ctx.Err() != nil {
			return nil, aborted(ctx, types.ModalityText)
		}
		if err := checkInput(in, types.ModalityText); err != nil {
			return nil, err
		}

		result, format, err := p.run(task, string(in.Data), params)
		if err != nil {
			return nil, err
		}

		outputs = append(outputs, types.Output{
			Modality:   types.ModalityText,
			Data:       []byte(result),
			Format:     format,
			Confidence: standardProfile.score(len(in.Data), len(result)),
			Metadata: map[string]string{
				"task":          task,
				"input_length":  strconv.Itoa(len(in.Data)),
				"output_length": strconv.Itoa(len(result)),
			},
			Timestamp: time.Now(),
		})
	}

	return outputs, nil
}

func (p *Text) run(task, text string, params map[string]any) (string, string, error) {
	switch task {
	case "text_generation":
		return p.generate(text), "text/plain", nil
	case "summarization":
		return p.summarize(text), "text/plain", nil
	case "sentiment_analysis":
		return p.sentiment(text), "application/json", nil
	case "translation":
		return p.translate(text, params), "text/plain", nil
	case "question_answering":
		return p.answer(text), "text/plain", nil
	default:
		return "", "", types.NewErrorf(types.ErrUnsupportedTask,
			"text processor does not support task %q", task).WithModality(types.ModalityText)
	}
}

func (p *Text) generate(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) == 0 {
		return "Generated continuation of an empty prompt."
	}
	last := words[len(words)-1]
	return fmt.Sprintf("Continuing from %q, further aspects remain to be explored.", last)
}

func (p *Text) summarize(text string) string {
	sentences := strings.Split(text, ".")
	if len(sentences) <= 2 {
		return text
	}
	picks := []string{strings.TrimSpace(sentences[0])}
	if mid := strings.TrimSpace(sentences[len(sentences)/2]); mid != "" {
		picks = append(picks, mid)
	}
	for i := len(sentences) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(sentences[i]); s != "" {
			picks = append(picks, s)
			break
		}
	}
	return strings.Join(picks, ". ") + "."
}

func (p *Text) sentiment(text string) string {
	lower := strings.ToLower(text)
	positive := countAny(lower, []string{"good", "great", "excellent", "love", "happy"})
	negative := countAny(lower, []string{"bad", "terrible", "awful", "hate", "sad"})

	label := "neutral"
	switch {
	case positive > negative:
		label = "positive"
	case negative > positive:
		label = "negative"
	}

	out, _ := json.Marshal(map[string]any{
		"sentiment":           label,
		"positive_indicators": positive,
		"negative_indicators": negative,
	})
	return string(out)
}

func (p *Text) translate(text string, params map[string]any) string {
	target := "english"
	if params != nil {
		if t, ok := params["target_language"].(string); ok && t != "" {
			target = t
		}
	}
	if target == "english" {
		return text
	}
	return fmt.Sprintf("[%s] %s", target, text)
}

func (p *Text) answer(text string) string {
	idx := strings.Index(text, "?")
	if idx < 0 {
		return "No question found; expected a question ending with '?'."
	}
	question := strings.TrimSpace(text[:idx+1])
	return fmt.Sprintf("Answer to %q: it depends on the surrounding context.", question)
}

func countAny(haystack string, needles []string) int {
	total := 0
	for _, n := range needles {
		total += strings.Count(haystack, n)
	}
	return total
}
