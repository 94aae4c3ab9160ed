package views

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"tors/backend"
	"tors/internal/theme"
)

func strPtr(s string) *string { return &s }

func TestRenderGroupsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(NewStyles(ModeLocal, theme.Desert), &buf).RenderGroups(backend.Grouped{})

	if strings.TrimSpace(buf.String()) != NoTasksMessage {
		t.Errorf("expected %q, got %q", NoTasksMessage, buf.String())
	}
}

func TestRenderGroupsLayout(t *testing.T) {
	groups := backend.GroupTasks([]backend.Task{
		{ID: 1, Name: "write", Description: "report", ETA: "friday", Category: strPtr("Work")},
		{ID: 2, Name: "walk", Description: "dog", ETA: "today"},
		{ID: 3, Name: "mail", Description: "boss", ETA: "monday", Category: strPtr("Work")},
	}, func(t backend.Task) string { return t.CategoryOr(backend.LabelUncategorized) })

	var buf bytes.Buffer
	NewRenderer(NewStyles(ModeLocal, theme.Oasis), &buf).RenderGroups(groups)

	want := strings.Join([]string{
		"Uncategorized",
		"    walk [ID2]",
		"        - dog",
		"        - today",
		"Work",
		"    write [ID1]",
		"        - report",
		"        - friday",
		"    mail [ID3]",
		"        - boss",
		"        - monday",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderCategories(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(NewStyles(ModeRemote, theme.Snow), &buf)

	r.RenderCategories(nil)
	r.RenderCategories([]backend.Category{{ID: 1, Name: "Work"}, {ID: 2, Name: "Home"}})

	out := buf.String()
	for _, want := range []string{"No categories found.", "Work [ID1]", "Home [ID2]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(NewStyles(ModeLocal, "Unknown"), &buf)
	r.Success("Task created successfully!")
	r.Error("Task not found.")
	r.Accent("Theme changed successfully!")

	want := "Task created successfully!\nTask not found.\nTheme changed successfully!\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestNewStylesColors(t *testing.T) {
	tests := []struct {
		mode  Mode
		theme string
		want  string
	}{
		{ModeLocal, theme.Desert, "3"},
		{ModeLocal, theme.Forest, "2"},
		{ModeLocal, "Midnight", "4"},
		{ModeRemote, theme.Oasis, "#3A86FF"},
		{ModeRemote, "Midnight", "#D2B48C"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode)+"/"+tt.theme, func(t *testing.T) {
			got := NewStyles(tt.mode, tt.theme).Header.GetForeground()
			if got != lipgloss.Color(tt.want) {
				t.Errorf("header color = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestRenderGroupsJSON(t *testing.T) {
	groups := backend.GroupTasks([]backend.Task{{ID: 1, Name: "a"}}, func(backend.Task) string { return backend.LabelNoCategory })

	var buf bytes.Buffer
	if err := RenderGroupsJSON(&buf, groups); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Groups map[string][]backend.Task `json:"groups"`
		Count  int                       `json:"count"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON %s: %v", buf.String(), err)
	}
	if decoded.Count != 1 || decoded.Groups[backend.LabelNoCategory][0].Name != "a" {
		t.Errorf("unexpected decoded output %+v", decoded)
	}
}

func TestRenderCategoriesJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderCategoriesJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty array, got %q", buf.String())
	}
}
