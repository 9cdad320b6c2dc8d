package llm

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestPickHTTPClientHonorsCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	if got := pickHTTPClient(custom); got != custom {
		t.Fatalf("expected custom client to be returned")
	}
}

func TestPickHTTPClientUsesLongerTimeout(t *testing.T) {
	client := pickHTTPClient(nil)
	if client.Timeout != defaultLLMHTTPTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultLLMHTTPTimeout, client.Timeout)
	}
}

func TestNewFromEnvOllamaDefaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434/")
	t.Setenv("OLLAMA_MODEL", "llama3")

	client, err := NewFromEnv(Config{})
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	ollama, ok := client.(*ollamaClient)
	if !ok {
		t.Fatalf("expected ollama client, got %T", client)
	}
	if ollama.host != "http://gpu-box:11434" || ollama.model != "llama3" {
		t.Fatalf("unexpected client: %+v", ollama)
	}
	if client.Name() != "Ollama (llama3)" {
		t.Fatalf("unexpected name %q", client.Name())
	}
}

func TestNewFromEnvOpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewFromEnv(Config{Provider: ProviderOpenAI}); err == nil {
		t.Fatal("expected error without API key")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	client, err := NewFromEnv(Config{Provider: "OpenAI"})
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if client.Name() != "OpenAI (gpt-4o-mini)" {
		t.Fatalf("unexpected name %q", client.Name())
	}
}

func TestNewFromEnvUnknownProvider(t *testing.T) {
	if _, err := NewFromEnv(Config{Provider: "mystery"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	got := BuildPrompt("Summarize.\n\nPaper section:\n", "  body text ")
	if got != "Summarize.\n\nPaper section:\n\nbody text" {
		t.Fatalf("BuildPrompt = %q", got)
	}

	long := strings.Repeat("é", maxPromptChars+10)
	if n := len([]rune(BuildPrompt("x", long))); n != maxPromptChars+3 {
		t.Fatalf("expected clipped prompt, got %d runes", n)
	}
}
