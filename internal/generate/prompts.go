package generate

import "fmt"

// System instructions for the two generation modes.
const (
	generationSystem = "You are an expert web app generator that returns well-structured code."
	revisionSystem   = "You update code precisely."
)

// buildGenerationPrompt embeds the brief in the strict three-section output
// format. Extraction depends on the literal tags below staying in sync with
// the patterns in generator.go.
func buildGenerationPrompt(brief string) string {
	return fmt.Sprintf(`You are a coding assistant that must output three distinct files for a minimal web app.
Based on this user brief:

%s

Please return your answer in this exact format:

<HTML>
(contents of index.html)
</HTML>

<CSS>
(contents of style.css)
</CSS>

<JS>
(contents of script.js)
</JS>

Make sure the HTML links to style.css and script.js correctly.
Do NOT include explanations, only the 3 file contents wrapped in these tags.`, brief)
}

// buildRevisionPrompt asks for a complete replacement document. No tagged
// format here: the raw response is used verbatim after trimming.
func buildRevisionPrompt(oldCode, brief string) string {
	return fmt.Sprintf(`You are a web developer assistant.
Modify the following HTML/JS/CSS based on this new request.

Existing index.html:
%s

New request:
%s

Output ONLY the full new HTML code.`, oldCode, brief)
}
