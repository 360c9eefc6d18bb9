package preprocess

import (
	"bytes"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/ezerfernandes/typfence/internal/mdcode"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

const (
	typstLanguage = "typst"
	defaultStyle  = "github"
)

// HTMLOptions control ToHTML.
type HTMLOptions struct {
	// Style names the chroma style; empty selects github.
	Style string

	// HighlightInline highlights inline code spans as typst too.
	HighlightInline bool
}

// ToHTML converts a processed document to HTML. Raw HTML is kept so the image
// embeds survive. Blocks of the typ family that are still code, literal blocks
// and failure placeholders, are highlighted as typst.
func ToHTML(document []byte, opts HTMLOptions) ([]byte, error) {
	modified, retagged, err := mdcode.Walk(document, func(block *mdcode.Block) error {
		if block.Directive.Action() != mdcode.Passthrough {
			block.Replace = block.Retagged(typstLanguage)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if modified {
		document = retagged
	}

	style := opts.Style
	if len(style) == 0 {
		style = defaultStyle
	}

	extensions := []goldmark.Extender{
		extension.GFM,
		highlighting.NewHighlighting(highlighting.WithStyle(style)),
	}

	if opts.HighlightInline {
		extensions = append(extensions, newInlineHighlighter(style))
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	var buf bytes.Buffer

	if err := md.Convert(document, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// inlineHighlighter renders code spans as highlighted typst.
type inlineHighlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func newInlineHighlighter(style string) *inlineHighlighter {
	lexer := lexers.Get(typstLanguage)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	return &inlineHighlighter{
		lexer:     chroma.Coalesce(lexer),
		style:     styles.Get(style),
		formatter: chromahtml.New(chromahtml.InlineCode(true)),
	}
}

func (h *inlineHighlighter) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(h, 200)))
}

func (h *inlineHighlighter) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindCodeSpan, h.renderCodeSpan)
}

func (h *inlineHighlighter) renderCodeSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var code bytes.Buffer

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		text, ok := c.(*ast.Text)
		if !ok {
			continue
		}

		value := text.Segment.Value(source)
		if bytes.HasSuffix(value, []byte("\n")) {
			code.Write(value[:len(value)-1])
			code.WriteByte(' ')

			continue
		}

		code.Write(value)
	}

	iterator, err := h.lexer.Tokenise(nil, code.String())
	if err != nil {
		return ast.WalkStop, err
	}

	if err := h.formatter.Format(w, h.style, iterator); err != nil {
		return ast.WalkStop, err
	}

	return ast.WalkSkipChildren, nil
}
