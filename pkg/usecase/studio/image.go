package studio

import (
	"github.com/m-mizutani/singhoo/pkg/model"
	"google.golang.org/genai"
)

// firstInlineImage returns the first inline image of the first candidate as
// a data URL.
func firstInlineImage(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", false
	}

	for _, part := range content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		return model.EncodeDataURL(part.InlineData.MIMEType, part.InlineData.Data), true
	}
	return "", false
}

// responseText concatenates the answer parts of the first candidate,
// leaving out thought summaries.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text += part.Text
	}
	return text
}
