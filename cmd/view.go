package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
	"github.com/adirahman/ceritakita-go/internal/syncer"
)

// termView renders orchestrator output to the terminal.
type termView struct {
	out io.Writer
}

func (v *termView) RenderStories(stories []entities.Story, savedIDs map[string]bool) {
	if len(stories) == 0 {
		fmt.Fprintln(v.out, "No stories to show.")
		return
	}
	for i := range stories {
		s := &stories[i]
		marker := " "
		if savedIDs[s.ID] {
			marker = "*"
		}
		location := "no location"
		if s.HasLocation() {
			location = fmt.Sprintf("%.5f, %.5f", *s.Lat, *s.Lon)
		}
		fmt.Fprintf(v.out, "%s %s  %s\n", marker, s.ID, s.Name)
		fmt.Fprintf(v.out, "    %s\n", s.Description)
		fmt.Fprintf(v.out, "    %s · %s\n", s.CreatedAt.Local().Format(time.RFC822), location)
	}
	fmt.Fprintln(v.out, "\n(* saved for offline reading)")
}

func (v *termView) RenderError(message string) {
	fmt.Fprintf(v.out, "Error: %s\n", message)
}

func (v *termView) ShowMessage(message string, kind syncer.MessageKind) {
	switch kind {
	case syncer.MessageError:
		fmt.Fprintf(v.out, "Error: %s\n", message)
	default:
		fmt.Fprintln(v.out, message)
	}
}

func (v *termView) SetStorySaved(string, bool) {
	// The terminal has no persistent buttons to toggle.
}
