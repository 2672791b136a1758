package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/theimaginaryfoundation/charsheet/sheet"
)

// writeView prints the rendered sheet as plain text, one block per section.
func writeView(w io.Writer, v sheet.View) error {
	var b strings.Builder
	for _, r := range v.Identity {
		fmt.Fprintf(&b, "%s: %s\n", r.Label, r.Value)
	}

	var part sheet.Part
	for _, s := range v.Sections {
		if s.Part != part {
			part = s.Part
			fmt.Fprintf(&b, "\n== %s ==\n", part)
		}
		fmt.Fprintf(&b, "\n%s. %s\n", s.Ordinal, s.Title)
		for _, r := range s.Rows {
			if r.LongForm {
				fmt.Fprintf(&b, "  %s:\n    %s\n", r.Label, strings.ReplaceAll(r.Value, "\n", "\n    "))
				continue
			}
			fmt.Fprintf(&b, "  %s: %s\n", r.Label, r.Value)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
