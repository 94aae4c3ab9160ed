package prompt

import (
	"errors"
	"os"
	"strings"
	"testing"

	"tors/backend"
)

var taskQuestions = []Question{
	{Name: "name", Label: "Enter task name:"},
	{Name: "description", Label: "Enter task description:"},
	{Name: "eta", Label: "Enter task ETA:"},
}

func TestFillUsesArgsFirst(t *testing.T) {
	var out strings.Builder
	p := New(strings.NewReader("from prompt\n"), &out, false)

	values, err := p.Fill([]string{"a", "b"}, taskQuestions...)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	want := []string{"a", "b", "from prompt"}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d] = %q, want %q", i, values[i], want[i])
		}
	}
	if out.String() != "Enter task ETA:\n" {
		t.Errorf("expected only the ETA prompt, got %q", out.String())
	}
}

func TestFillPromptsSequentially(t *testing.T) {
	var out strings.Builder
	p := New(strings.NewReader("  write  \n\nfriday\n"), &out, false)

	values, err := p.Fill(nil, taskQuestions...)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if values[0] != "write" || values[1] != "" || values[2] != "friday" {
		t.Errorf("unexpected values %q", values)
	}
	for _, q := range taskQuestions {
		if !strings.Contains(out.String(), q.Label) {
			t.Errorf("output missing %q", q.Label)
		}
	}
}

func TestFillNoPrompt(t *testing.T) {
	p := New(strings.NewReader("ignored\n"), nil, true)

	_, err := p.Fill([]string{"only name"}, taskQuestions...)
	if !errors.Is(err, backend.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "description") {
		t.Errorf("error should name the missing argument: %v", err)
	}
}

func TestFillInputExhausted(t *testing.T) {
	p := New(strings.NewReader("one\n"), nil, false)
	if _, err := p.Fill(nil, taskQuestions...); !errors.Is(err, backend.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAskNoPromptMode(t *testing.T) {
	p := &Prompter{Reader: strings.NewReader("x\n"), NoPrompt: true}
	if _, err := p.Ask("Enter task ID:"); !errors.Is(err, ErrNoPromptMode) {
		t.Errorf("expected ErrNoPromptMode, got %v", err)
	}
}

func TestInteractive(t *testing.T) {
	if Interactive(nil) {
		t.Error("nil reader is not interactive")
	}
	if !Interactive(strings.NewReader("")) {
		t.Error("injected readers are interactive")
	}

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if Interactive(f) {
		t.Error("regular file is not a terminal")
	}
}
