package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	blue   = color.New(color.FgBlue)
	red    = color.New(color.FgRed)
)

// printer writes colored report output to one writer.
type printer struct {
	w io.Writer
}

func (p printer) header(text string) {
	line := strings.Repeat("=", 60)
	green.Fprintf(p.w, "\n%s\n", line)
	green.Fprintf(p.w, "%-60s\n", center(text, 60))
	green.Fprintf(p.w, "%s\n\n", line)
}

func (p printer) section(text string) {
	yellow.Fprintf(p.w, "%s\n", text)
}

func (p printer) success(format string, args ...any) {
	green.Fprintf(p.w, "  → %s\n", fmt.Sprintf(format, args...))
}

func (p printer) info(format string, args ...any) {
	fmt.Fprintf(p.w, "  → %s\n", fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	yellow.Fprintf(p.w, "  ⚠ %s\n", fmt.Sprintf(format, args...))
}

func (p printer) failure(format string, args ...any) {
	red.Fprintf(p.w, "  ✗ %s\n", fmt.Sprintf(format, args...))
}

func (p printer) row(label, value string) {
	blue.Fprintf(p.w, "  %-28s", label)
	fmt.Fprintf(p.w, " %s\n", value)
}

func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
