package preprocess

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
)

// Report lists the failures of one document.
type Report struct {
	Path     string
	Failures []*Failure
}

const maxReportDiagnostic = 120

// WriteReport writes a markdown summary of render failures, one section per
// document that has any.
func WriteReport(w io.Writer, reports []Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("typfence render failures")
	md.PlainText("")

	total := 0
	for _, r := range reports {
		total += len(r.Failures)
	}

	if total == 0 {
		md.PlainText("All blocks rendered.")

		return md.Build()
	}

	md.PlainTextf("%d block(s) failed.", total)
	md.PlainText("")

	for _, r := range reports {
		if len(r.Failures) == 0 {
			continue
		}

		md.H2(r.Path)
		md.PlainText("")

		rows := make([][]string, len(r.Failures))
		for i, f := range r.Failures {
			rows[i] = []string{
				strconv.Itoa(f.Line),
				f.Tag,
				f.Err.Error(),
				truncate(oneLine(f.Diagnostic), maxReportDiagnostic),
			}
		}

		md.Table(markdown.TableSet{
			Header: []string{"Line", "Tag", "Error", "Diagnostic"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return md.Build()
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	return strings.ReplaceAll(s, "|", `\|`)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-3]) + "..."
}
