package studio

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/policy"
	"github.com/m-mizutani/singhoo/pkg/utils/logging"
	"google.golang.org/genai"
)

const defaultThinkingBudget = model.ThinkingBudget

// Think sends a text-only request with extended reasoning and returns the
// answer verbatim. Answers are not recorded in the history.
func (u *UseCase) Think(ctx context.Context, prompt string) (string, error) {
	return u.thinkPane.Run(ctx, func(ctx context.Context) (string, error) {
		if strings.TrimSpace(prompt) == "" {
			return "", goerr.New("Please enter a query.", goerr.T(model.TagValidation))
		}
		if err := u.check(ctx, policy.Request{Kind: policy.KindThink, Prompt: prompt}); err != nil {
			return "", err
		}

		budget := u.thinkingBudget
		config := &genai.GenerateContentConfig{
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: &budget,
			},
		}

		logging.From(ctx).Info("thinking", "model", model.ThinkModel, "budget", budget)

		resp, err := u.gemini.GenerateContent(ctx, model.ThinkModel, genai.Text(prompt), config)
		if err != nil {
			return "", goerr.Wrap(err, "reasoning request failed", goerr.T(model.TagProvider))
		}

		text := responseText(resp)
		if text == "" {
			return "", goerr.New("The model returned an empty response.", goerr.T(model.TagProvider))
		}
		return text, nil
	})
}
