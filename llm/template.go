package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Template is a named system + user prompt. Placeholders use {name} syntax.
type Template struct {
	name string
	tmpl prompt.ChatTemplate
}

// NewTemplate builds a template from its system and user message text.
func NewTemplate(name, system, user string) *Template {
	return &Template{
		name: name,
		tmpl: prompt.FromMessages(schema.FString,
			schema.SystemMessage(system),
			schema.UserMessage(user),
		),
	}
}

// Name identifies the template in logs and errors.
func (t *Template) Name() string {
	return t.name
}

// Format renders the template with vars.
func (t *Template) Format(ctx context.Context, vars map[string]any) ([]*schema.Message, error) {
	msgs, err := t.tmpl.Format(ctx, vars)
	if err != nil {
		return nil, &ModelError{
			Kind: KindMalformedRequest,
			Err:  fmt.Errorf("format template %s: %w", t.name, err),
		}
	}
	return msgs, nil
}
