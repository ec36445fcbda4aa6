package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/seal-preview/pkg/aggregate"
	"github.com/Sternrassler/seal-preview/pkg/async"
	"github.com/Sternrassler/seal-preview/pkg/metadata"
	"github.com/fatih/color"
)

// Icon semantics:
//   ✓  success
//   ✗  error (written to the error stream)
//   ⚠  warning
//   ~  neutral info

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	infoColor = color.New(color.FgCyan)
	headColor = color.New(color.Bold)
)

func printSection(w io.Writer, title string) {
	headColor.Fprintf(w, "=== %s ===\n", title)
}

func printLine(w io.Writer, c *color.Color, icon, name, msg string) {
	if name == "" {
		c.Fprintf(w, "  %s  %s\n", icon, msg)
		return
	}
	c.Fprintf(w, "  %s  [%s] %s\n", icon, name, msg)
}

func printOK(w io.Writer, name, msg string)   { printLine(w, okColor, "✓", name, msg) }
func printErr(w io.Writer, name, msg string)  { printLine(w, errColor, "✗", name, msg) }
func printWarn(w io.Writer, name, msg string) { printLine(w, warnColor, "⚠", name, msg) }
func printInfo(w io.Writer, name, msg string) { printLine(w, infoColor, "~", name, msg) }

// printJoinFailures lists the failed keys of a join, one line each.
func printJoinFailures(w io.Writer, err *async.JoinError) {
	for _, k := range err.Keys() {
		printErr(w, k, err.Failures[k].Error())
	}
}

// printResult prints a human summary of a fetched contract.
func printResult(w io.Writer, id string, res *aggregate.Result) {
	printSection(w, "Contract "+id)
	printOK(w, "html", fmt.Sprintf("%d bytes", len(res.HTML)))
	printOK(w, "metadata", fmt.Sprintf("%d annotations", len(res.Metadata)))
	printAnnotationSummary(w, res.Metadata)
}

func printAnnotationSummary(w io.Writer, idx metadata.Index) {
	if cats := idx.Categories(); len(cats) > 0 {
		printInfo(w, "categories", strings.Join(cats, ", "))
	}
	if n := idx.InReview(); n > 0 {
		printWarn(w, "review", fmt.Sprintf("%d annotation(s) in review", n))
	}
}

// printAnnotations prints the annotations in document order.
func printAnnotations(w io.Writer, idx metadata.Index) {
	for _, a := range idx.Sorted() {
		mark := " "
		if a.InReview {
			mark = warnColor.Sprint("R")
		}
		fmt.Fprintf(w, "%8d %s %-28s %v\n", a.Offset, mark, a.ID, a.Value)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
