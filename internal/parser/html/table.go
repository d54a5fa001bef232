package html

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"banketl/internal/bank"
	"banketl/internal/etlerr"
)

// Cell and anchor positions in the bank table, 0-based.
const (
	nameCell      = 1 // second <td>
	nameAnchor    = 1 // second <a> inside the name cell
	marketCapCell = 2 // third <td>
)

// TableOptions controls how rows that do not have the expected shape are
// handled. By default they abort the parse.
type TableOptions struct {
	// SkipMalformed drops rows with a missing cell, anchor or title instead
	// of failing.
	SkipMalformed bool

	// OnSkip is called for each dropped row (1-based index within <tbody>).
	OnSkip func(row int, err error)
}

// ParseBankTable reads an HTML document and returns one bank.Row per data row
// of the first <tbody> in the page, in document order.
//
// For each <tr> with at least one <td>:
//   - Name is the title attribute of the second <a> in the second cell;
//   - MarketCapUSD is the first text node of the third cell, trimmed.
//
// Rows without <td> cells (header rows) are skipped. A document with no
// <tbody> is an etlerr.ErrParse, and so is a data row missing any of the
// elements above unless opts.SkipMalformed is set.
func ParseBankTable(r io.Reader, opts TableOptions) ([]bank.Row, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrParse, err, "html: parse document")
	}

	tbody := findFirst(doc, atom.Tbody)
	if tbody == nil {
		return nil, etlerr.Newf(etlerr.ErrParse, "html: no <tbody> element in page")
	}

	var rows []bank.Row
	for i, tr := range findAll(tbody, atom.Tr) {
		cells := findAll(tr, atom.Td)
		if len(cells) == 0 {
			continue
		}
		row, err := bankRow(cells)
		if err != nil {
			err = etlerr.Wrapf(etlerr.ErrParse, err, "html: table row %d", i+1)
			if opts.SkipMalformed {
				if opts.OnSkip != nil {
					opts.OnSkip(i+1, err)
				}
				continue
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func bankRow(cells []*html.Node) (bank.Row, error) {
	if len(cells) <= marketCapCell {
		return bank.Row{}, fmt.Errorf("want at least %d cells, got %d", marketCapCell+1, len(cells))
	}

	anchors := findAll(cells[nameCell], atom.A)
	if len(anchors) <= nameAnchor {
		return bank.Row{}, fmt.Errorf("name cell has %d anchors, want at least %d", len(anchors), nameAnchor+1)
	}
	title, ok := attr(anchors[nameAnchor], "title")
	if !ok {
		return bank.Row{}, fmt.Errorf("name anchor has no title attribute")
	}

	mc, ok := firstText(cells[marketCapCell])
	if !ok {
		return bank.Row{}, fmt.Errorf("market cap cell is empty")
	}

	return bank.Row{Name: NormalizeName(title), MarketCapUSD: mc}, nil
}

// findFirst returns the first element with the given tag in document order.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant of n (excluding n) with the given tag.
func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == a {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// firstText returns the trimmed first child of n when it is a non-blank text
// node. Otherwise (e.g. the value sits in a <span> wrapper) the whole cell
// text is used.
func firstText(n *html.Node) (string, bool) {
	c := n.FirstChild
	if c == nil {
		return "", false
	}
	if c.Type == html.TextNode {
		if s := strings.TrimSpace(c.Data); s != "" {
			return s, true
		}
	}
	s := CollapseWhitespace(textContent(n))
	return s, s != ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		if p.Type == html.TextNode {
			b.WriteString(p.Data)
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
