package homepage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBookmarks(t *testing.T, content string) string {
	t.Helper()
	yamlPath := filepath.Join(t.TempDir(), "bookmarks.yaml")
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return yamlPath
}

func TestLoaderLoad(t *testing.T) {
	yamlPath := writeBookmarks(t, `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
- Social:
    - Reddit:
        - icon: reddit.png
          href: https://reddit.com/
`)

	loader := NewLoader(yamlPath)
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(config) != 2 {
		t.Fatalf("Load() returned %d categories, want 2", len(config))
	}
	if got := config[0]["Developer"][0]["Github"][0].Href; got != "https://github.com/" {
		t.Errorf("Load() href = %q, want https://github.com/", got)
	}
	if loader.Path() != yamlPath {
		t.Errorf("Path() = %q, want %q", loader.Path(), yamlPath)
	}
}

func TestLoaderLoadWithTemplateVariables(t *testing.T) {
	yamlPath := writeBookmarks(t, `---
- Internal:
    - Wiki:
        - abbr: WK
          href: {{HOMEPAGE_VAR_WIKI_URL}}
`)

	config, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := config[0]["Internal"][0]["Wiki"][0].Href; got != "" {
		t.Errorf("template variable not stripped, href = %q", got)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/bookmarks.yaml")
	_, err := loader.Load()
	if err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderLoadInvalidYAML(t *testing.T) {
	yamlPath := writeBookmarks(t, "- Developer: [unterminated\n")
	if _, err := NewLoader(yamlPath).Load(); err == nil {
		t.Error("Load() with invalid YAML should return error")
	}
}

func TestStripTemplateVariablesFunc(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "single template variable",
			input:    []byte("url: {{HOMEPAGE_VAR_URL}}"),
			expected: "url: \"\"",
		},
		{
			name:     "several template variables",
			input:    []byte("a: {{HOMEPAGE_VAR_A}}\nb: {{HOMEPAGE_FILE_B}}"),
			expected: "a: \"\"\nb: \"\"",
		},
		{
			name:     "no template variables",
			input:    []byte("plain text"),
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripTemplateVariables(tt.input)
			if string(result) != tt.expected {
				t.Errorf("stripTemplateVariables() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}
