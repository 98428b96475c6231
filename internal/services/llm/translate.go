package llm

import (
	"context"
	"fmt"
	"strings"

	"narrator/internal/language"
	"narrator/internal/services"
)

const translationSystemPrompt = "You are a professional translator. Translate the following text to %s. " +
	"Preserve the original meaning, tone, and structure. " +
	"Output ONLY the translated text, nothing else."

const continuityInstruction = "\n\nThe text continues an earlier passage whose translation ended with:\n" +
	"<previous_translation>\n%s\n</previous_translation>\n" +
	"Keep tone and terminology consistent with it. Do not translate or repeat it."

// Translator translates transcript chunks through a chat model.
type Translator struct {
	client *Client
}

// NewTranslator wraps client for chunk translation.
func NewTranslator(client *Client) *Translator {
	return &Translator{client: client}
}

// Translate renders text in targetLanguage. contextHint, when present, is the
// tail of the previous chunk's translation and is used only for continuity.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage, contextHint string) (string, error) {
	if t == nil || t.client == nil {
		return "", services.Wrap(services.ErrConfiguration, "translating", "translate", "translator not configured", nil)
	}
	return t.translate(ctx, text, targetLanguage, contextHint)
}

func (t *Translator) translate(ctx context.Context, text, targetLanguage, contextHint string) (string, error) {
	name := targetLanguage
	if lang, ok := language.Lookup(targetLanguage); ok {
		name = lang.Name
	}
	system := BuildSystemPrompt(name, contextHint)
	translated, err := t.client.Complete(ctx, system, text)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "translating", "translate", "Translation failed", err)
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return "", services.Wrap(services.ErrExternalService, "translating", "translate", "model returned empty translation", nil)
	}
	return translated, nil
}

// BuildSystemPrompt renders the translation instructions for languageName.
func BuildSystemPrompt(languageName, contextHint string) string {
	prompt := fmt.Sprintf(translationSystemPrompt, languageName)
	if hint := strings.TrimSpace(contextHint); hint != "" {
		prompt += fmt.Sprintf(continuityInstruction, hint)
	}
	return prompt
}
