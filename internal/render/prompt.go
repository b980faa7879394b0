package render

import "fmt"

// negativePrompt steers the diffusion model away from anything that would
// stop the output looking like plain handwriting on a page.
const negativePrompt = "printed font, typeset text, decorations, " +
	"calligraphy, artistic style, blur, skewed lines"

const promptTemplate = `Render the following text as neat, legible human handwriting.

Rules:
- Write the provided text faithfully.
- Preserve line breaks.
- Do not add or remove content.
- Follow the handwriting reference for stroke and spacing.
- Keep margins fixed.

Text:
"""
%s
"""`

// buildPrompt embeds the page's exact text in the fixed rendering
// instruction. Content is never summarized or altered here.
func buildPrompt(pageText string) string {
	return fmt.Sprintf(promptTemplate, pageText)
}
