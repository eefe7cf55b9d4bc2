package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the nodeflow ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"                 _      __ _               ", "#818cf8"},
		{"  _ __   ___   __| | ___/ _| | _____      __", "#a78bfa"},
		{" | '_ \\ / _ \\ / _` |/ _ \\ |_| |/ _ \\ \\ /\\ / /", "#c084fc"},
		{" | | | | (_) | (_| |  __/  _| | (_) \\ V  V / ", "#e879f9"},
		{" |_| |_|\\___/ \\__,_|\\___|_| |_|\\___/ \\_/\\_/  ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status renders a coloured status word: green for ok, red for anything else.
func Status(ok bool, text string) string {
	p := termenv.ColorProfile()
	color := "#22c55e"
	if !ok {
		color = "#ef4444"
	}
	return termenv.String(text).Foreground(p.Color(color)).Bold().String()
}
