// Package views prints grouped tasks, categories and status messages.
package views

import (
	"encoding/json"
	"fmt"
	"io"

	"tors/backend"
)

// NoTasksMessage is printed when a listing has no tasks at all
const NoTasksMessage = "No tasks found."

// Renderer writes styled output to a writer
type Renderer struct {
	styles Styles
	writer io.Writer
}

// NewRenderer creates a new renderer
func NewRenderer(styles Styles, writer io.Writer) *Renderer {
	return &Renderer{styles: styles, writer: writer}
}

// RenderGroups prints each group under its label, labels in sorted order:
//
//	<label>
//	    <name> [ID<n>]
//	        - <description>
//	        - <eta>
func (r *Renderer) RenderGroups(groups backend.Grouped) {
	if groups.Count() == 0 {
		r.Warning(NoTasksMessage)
		return
	}

	for _, label := range groups.Labels() {
		r.println(r.styles.Header.Render(label))
		for _, t := range groups[label] {
			r.println("    " + r.styles.Name.Render(t.Name) + " " + r.styles.ID.Render(backend.FormatID(t.ID)))
			r.println("        - " + r.styles.Description.Render(t.Description))
			r.println("        - " + r.styles.ETA.Render(t.ETA))
		}
	}
}

// RenderCategories prints one line per category in stored order
func (r *Renderer) RenderCategories(categories []backend.Category) {
	if len(categories) == 0 {
		r.Warning("No categories found.")
		return
	}
	for _, c := range categories {
		r.println(r.styles.Name.Render(c.Name) + " " + r.styles.ID.Render(backend.FormatID(c.ID)))
	}
}

// Success prints a confirmation message
func (r *Renderer) Success(msg string) {
	r.println(r.styles.Success.Render(msg))
}

// Error prints a recoverable error message
func (r *Renderer) Error(msg string) {
	r.println(r.styles.Error.Render(msg))
}

// Warning prints a notice
func (r *Renderer) Warning(msg string) {
	r.println(r.styles.Warning.Render(msg))
}

// Accent prints msg in the theme's accent color
func (r *Renderer) Accent(msg string) {
	r.println(r.styles.Accent.Render(msg))
}

func (r *Renderer) println(s string) {
	_, _ = fmt.Fprintln(r.writer, s)
}

type groupsJSON struct {
	Groups map[string][]backend.Task `json:"groups"`
	Count  int                       `json:"count"`
}

// RenderGroupsJSON writes the groups as one JSON object
func RenderGroupsJSON(w io.Writer, groups backend.Grouped) error {
	out := groupsJSON{Groups: map[string][]backend.Task(groups), Count: groups.Count()}
	if out.Groups == nil {
		out.Groups = map[string][]backend.Task{}
	}
	jsonBytes, err := json.Marshal(out)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, string(jsonBytes))
	return nil
}

// RenderCategoriesJSON writes the categories as a JSON array
func RenderCategoriesJSON(w io.Writer, categories []backend.Category) error {
	if categories == nil {
		categories = []backend.Category{}
	}
	jsonBytes, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, string(jsonBytes))
	return nil
}
