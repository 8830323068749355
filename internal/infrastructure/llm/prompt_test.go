package llm

import "testing"

func TestBuildPromptSubstitutesVariables(t *testing.T) {
	t.Parallel()

	got := BuildPrompt("Rewrite the title: {title} in {language}", map[string]string{
		"title":    "Go 1.25 released",
		"language": "English",
	})

	want := "Rewrite the title: Go 1.25 released in English"
	if got != want {
		t.Fatalf("BuildPrompt = %q, want %q", got, want)
	}
}

func TestBuildPromptConditionalBranches(t *testing.T) {
	t.Parallel()

	template := "[if:tone]Use a {tone} tone.[else]Use a neutral tone.[/if]"

	if got := BuildPrompt(template, map[string]string{"tone": "formal"}); got != "Use a formal tone." {
		t.Fatalf("truthy branch: %q", got)
	}
	if got := BuildPrompt(template, nil); got != "Use a neutral tone." {
		t.Fatalf("falsy branch: %q", got)
	}
	if got := BuildPrompt(template, map[string]string{"tone": "0"}); got != "Use a neutral tone." {
		t.Fatalf("zero must be falsy: %q", got)
	}
}

func TestBuildPromptConditionalWithoutElse(t *testing.T) {
	t.Parallel()

	template := "Title: {title}.[if:keywords] Keywords: {keywords}.[/if]"

	got := BuildPrompt(template, map[string]string{"title": "X"})
	if got != "Title: X." {
		t.Fatalf("missing else branch must expand to nothing: %q", got)
	}

	got = BuildPrompt(template, map[string]string{"title": "X", "keywords": "go, news"})
	if got != "Title: X. Keywords: go, news." {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestBuildPromptUnknownVariableExpandsEmpty(t *testing.T) {
	t.Parallel()

	if got := BuildPrompt("a {missing} b", nil); got != "a  b" {
		t.Fatalf("unknown variable: %q", got)
	}
}
