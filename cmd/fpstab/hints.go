package main

import (
	"errors"
	"fmt"
	"io"

	fperrors "fpstab/internal/errors"
)

// printError writes err and any suggested fixes attached to it.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var e *fperrors.Error
	if !errors.As(err, &e) || len(e.SuggestedFixes) == 0 {
		return
	}

	fmt.Fprintln(w, "\nSuggested fixes:")
	for _, fix := range e.SuggestedFixes {
		switch fix.Type {
		case fperrors.RunCommand:
			fmt.Fprintf(w, "  - %s: %s\n", fix.Description, fix.Command)
		case fperrors.InstallTool:
			fmt.Fprintf(w, "  - %s", fix.Description)
			if fix.URL != "" {
				fmt.Fprintf(w, " (%s)", fix.URL)
			}
			fmt.Fprintln(w)
		default:
			fmt.Fprintf(w, "  - %s\n", fix.Description)
		}
	}
}
