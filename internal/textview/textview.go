// Package textview turns a results-region fragment into plain terminal text.
package textview

import (
    "bytes"
    "strings"
    "text/tabwriter"

    "golang.org/x/net/html"
    "golang.org/x/net/html/atom"
)

// FromHTML renders a region fragment as text. Tables become aligned columns
// with the header row underlined; paragraphs and loose text become lines.
// Unparseable input is returned trimmed as-is.
func FromHTML(fragment string) string {
    ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
    nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
    if err != nil {
        return strings.TrimSpace(fragment)
    }
    var b strings.Builder
    for _, n := range nodes {
        collect(&b, n)
    }
    return normalizeLines(b.String())
}

func collect(b *strings.Builder, n *html.Node) {
    switch n.Type {
    case html.TextNode:
        b.WriteString(collapseSpace(n.Data))
        return
    case html.ElementNode:
        switch n.DataAtom {
        case atom.Script, atom.Style:
            return
        case atom.Table:
            b.WriteString("\n")
            b.WriteString(renderTable(n))
            b.WriteString("\n")
            return
        case atom.Br:
            b.WriteString("\n")
            return
        case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3:
            b.WriteString("\n")
            defer b.WriteString("\n")
        }
    }
    for c := n.FirstChild; c != nil; c = c.NextSibling {
        collect(b, c)
    }
}

// renderTable lays out rows with a tabwriter. A row whose cells are all <th>
// is treated as the header.
func renderTable(t *html.Node) string {
    var buf bytes.Buffer
    w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
    for _, row := range findAll(t, atom.Tr) {
        var cells []string
        header := true
        for c := row.FirstChild; c != nil; c = c.NextSibling {
            if c.Type != html.ElementNode {
                continue
            }
            if c.DataAtom != atom.Td && c.DataAtom != atom.Th {
                continue
            }
            if c.DataAtom == atom.Td {
                header = false
            }
            cells = append(cells, strings.TrimSpace(collapseSpace(textOf(c))))
        }
        if len(cells) == 0 {
            continue
        }
        _, _ = w.Write([]byte(strings.Join(cells, "\t") + "\n"))
        if header {
            rule := make([]string, len(cells))
            for i, c := range cells {
                rule[i] = strings.Repeat("-", len([]rune(c)))
            }
            _, _ = w.Write([]byte(strings.Join(rule, "\t") + "\n"))
        }
    }
    _ = w.Flush()
    return buf.String()
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
    var out []*html.Node
    var dfs func(*html.Node)
    dfs = func(cur *html.Node) {
        if cur.Type == html.ElementNode && cur.DataAtom == a {
            out = append(out, cur)
            return
        }
        for c := cur.FirstChild; c != nil; c = c.NextSibling {
            dfs(c)
        }
    }
    dfs(n)
    return out
}

func textOf(n *html.Node) string {
    var b strings.Builder
    var dfs func(*html.Node)
    dfs = func(cur *html.Node) {
        if cur.Type == html.TextNode {
            b.WriteString(cur.Data)
        }
        for c := cur.FirstChild; c != nil; c = c.NextSibling {
            dfs(c)
        }
    }
    dfs(n)
    return b.String()
}

func collapseSpace(s string) string {
    s = strings.ReplaceAll(s, "\t", " ")
    s = strings.ReplaceAll(s, "\r", " ")
    s = strings.ReplaceAll(s, "\n", " ")
    for strings.Contains(s, "  ") {
        s = strings.ReplaceAll(s, "  ", " ")
    }
    return s
}

// normalizeLines trims trailing spaces and drops blank lines.
func normalizeLines(s string) string {
    lines := strings.Split(s, "\n")
    out := make([]string, 0, len(lines))
    for _, l := range lines {
        l = strings.TrimRight(l, " ")
        if strings.TrimSpace(l) == "" {
            continue
        }
        out = append(out, l)
    }
    return strings.Join(out, "\n")
}
