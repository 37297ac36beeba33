// Package instructions produces custom processing instructions for a job by
// asking an LLM, falling back to a static text when no provider answers.
package instructions

import (
	"context"
	"fmt"
	"strings"

	"jsonlify-backend/internal/shared/telemetry"
)

const systemPromptTemplate = "You write short, actionable processing instructions for converting an uploaded %s file named %q to structured JSONL. Answer with the instructions only, no preamble."

const defaultInstructions = "Convert the file to JSONL with one record per logical unit (segment, page, or slide). Preserve the original text verbatim and keep records in source order."

// Provider is a single LLM backend able to complete a prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator tries providers in order and never fails the caller.
type Generator struct {
	providers []Provider
}

// NewGenerator constructs a generator over an ordered provider list.
func NewGenerator(providers ...Provider) *Generator {
	return &Generator{providers: providers}
}

// Generate returns instructions for the given user query. The job type and
// file name feed the system prompt so providers tailor their answer to the
// upload. Provider errors are logged and swallowed; the static fallback is
// always available.
func (g *Generator) Generate(ctx context.Context, userQuery, jobType, fileName string) string {
	query := strings.TrimSpace(userQuery)
	if query == "" {
		return defaultInstructions
	}

	system := fmt.Sprintf(systemPromptTemplate, jobType, fileName)
	for _, p := range g.providers {
		out, err := p.Complete(ctx, system, query)
		if err != nil {
			telemetry.Warn("instructions_provider_failed", map[string]any{
				"provider": p.Name(),
				"error":    err.Error(),
			})
			continue
		}
		if trimmed := strings.TrimSpace(out); trimmed != "" {
			return trimmed
		}
	}
	return defaultInstructions
}

// Default returns the static fallback text.
func Default() string {
	return defaultInstructions
}
