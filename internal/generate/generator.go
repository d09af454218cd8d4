// Package generate synthesizes the static web app artifacts for a round-1
// request: one model call, tagged-section extraction, fixed defaults for any
// section the model failed to produce.
package generate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	derrors "appforge/internal/foundation/errors"
	"appforge/internal/llm"
	"appforge/internal/logfields"
)

// Artifact file names are fixed; the markup must reference the other two.
const (
	MarkupFile     = "index.html"
	StylesheetFile = "style.css"
	ScriptFile     = "script.js"
)

// Defaults substituted per artifact when the response lacks its tag.
const (
	defaultMarkup     = "<h1>Hello World</h1>"
	defaultStylesheet = "body { background: #f9f9f9; }"
	defaultScript     = "console.log('JS loaded');"
)

// Tag matching is case-insensitive and unanchored across the whole response
// body; a tag appearing inside example text also matches. Accepted risk.
var (
	markupPattern     = regexp.MustCompile(`(?is)<HTML>(.*?)</HTML>`)
	stylesheetPattern = regexp.MustCompile(`(?is)<CSS>(.*?)</CSS>`)
	scriptPattern     = regexp.MustCompile(`(?is)<JS>(.*?)</JS>`)
)

// ArtifactSet holds the three generated text blobs.
type ArtifactSet struct {
	Markup     string
	Stylesheet string
	Script     string
}

// Generator turns a brief into an artifact set on disk.
type Generator struct {
	llm llm.TextGenerator
}

// New creates a Generator backed by the given text generator.
func New(tg llm.TextGenerator) *Generator {
	return &Generator{llm: tg}
}

// Generate invokes the model once and writes index.html, style.css and
// script.js into dir. A transport failure is fatal; missing tags degrade to
// defaults per artifact and never fail the generation.
func (g *Generator) Generate(ctx context.Context, brief, dir string) error {
	response, err := g.llm.GenerateText(ctx, generationSystem, buildGenerationPrompt(brief))
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryGeneration, "content generation failed").Build()
	}

	set := Extract(response)
	return writeArtifacts(dir, set)
}

// Extract pulls the three tagged sections out of a model response,
// substituting the fixed default for any section that is absent.
func Extract(response string) ArtifactSet {
	set := ArtifactSet{
		Markup:     defaultMarkup,
		Stylesheet: defaultStylesheet,
		Script:     defaultScript,
	}
	if m := markupPattern.FindStringSubmatch(response); m != nil {
		set.Markup = strings.TrimSpace(m[1])
	} else {
		slog.Warn("generation response missing markup tag, using default")
	}
	if m := stylesheetPattern.FindStringSubmatch(response); m != nil {
		set.Stylesheet = strings.TrimSpace(m[1])
	} else {
		slog.Warn("generation response missing stylesheet tag, using default")
	}
	if m := scriptPattern.FindStringSubmatch(response); m != nil {
		set.Script = strings.TrimSpace(m[1])
	} else {
		slog.Warn("generation response missing script tag, using default")
	}
	return set
}

func writeArtifacts(dir string, set ArtifactSet) error {
	files := map[string]string{
		MarkupFile:     set.Markup,
		StylesheetFile: set.Stylesheet,
		ScriptFile:     set.Script,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return derrors.WrapError(err, derrors.CategoryWorkspace, "failed to write artifact").
				WithContext("file", name).
				Build()
		}
	}
	slog.Debug("artifacts written", logfields.Path(dir))
	return nil
}

// Revision produces the replacement markup for a round-2 request. The old
// content arrives already truncated by the caller; the trimmed raw response
// is the new document, verbatim.
func (g *Generator) Revision(ctx context.Context, oldCode, brief string) (string, error) {
	response, err := g.llm.GenerateText(ctx, revisionSystem, buildRevisionPrompt(oldCode, brief))
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryGeneration, "revision generation failed").Build()
	}
	return strings.TrimSpace(response), nil
}
