// Package document isolates machine diagram blocks from their host files.
// Markdown hosts contribute one block per mermaid fence; bare diagram files
// contribute the whole input as a single block. Everything downstream of this
// package operates on Block values and never sees the surrounding prose.
package document

import (
	"fmt"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/goliatone/go-machinegen/diagram"
)

// Block is one isolated diagram source lifted out of a host document.
type Block struct {
	Source string // raw diagram text, fences stripped
	Title  string // nearest preceding heading, or a derived fallback
	Line   int    // 1-based line of the first diagram line in the host text
	Fenced bool   // true when the block came from a fenced code region
}

// Extract isolates diagram blocks from text. Markdown input yields one Block
// per qualifying fence: info string `mermaid`, or no info string and a
// diagram-start first line. Input without any fences yields a single Block
// when a diagram-start line is present, zero Blocks otherwise. name seeds
// fallback titles for fences with no preceding heading.
func Extract(name string, text []byte) []Block {
	fences := fencedRegions(text)
	if len(fences) == 0 {
		return bareBlock(name, text)
	}

	lines := strings.Split(string(text), "\n")
	cursor := 0
	var blocks []Block
	for _, f := range fences {
		line, next := locateFence(lines, cursor, f.source)
		cursor = next
		if !isDiagramFence(f.info, f.source) {
			continue
		}
		title := f.heading
		if title == "" {
			title = fmt.Sprintf("%s %d", strings.TrimSpace(name), len(blocks)+1)
		}
		blocks = append(blocks, Block{Source: f.source, Title: title, Line: line, Fenced: true})
	}
	return blocks
}

type fencedRegion struct {
	info    string
	source  string
	heading string
}

// fencedRegions walks the Markdown AST and collects every fenced code block
// in document order, each paired with the heading text that most recently
// preceded it.
func fencedRegions(text []byte) []fencedRegion {
	md := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions))
	root := md.Parse(text)

	var (
		regions   []fencedRegion
		heading   strings.Builder
		inHeading bool
		last      string
	)
	root.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		switch node.Type {
		case blackfriday.Heading:
			if entering {
				heading.Reset()
				inHeading = true
			} else {
				last = strings.TrimSpace(heading.String())
				inHeading = false
			}
		case blackfriday.Text, blackfriday.Code:
			if entering && inHeading {
				heading.Write(node.Literal)
			}
		case blackfriday.CodeBlock:
			if entering && node.IsFenced {
				regions = append(regions, fencedRegion{
					info:    strings.TrimSpace(string(node.Info)),
					source:  strings.TrimSuffix(string(node.Literal), "\n"),
					heading: last,
				})
			}
		}
		return blackfriday.GoToNext
	})
	// blackfriday drops fences that never close, so an unterminated trailing
	// fence has to be captured off the raw text
	if tail, ok := trailingFence(text, last); ok {
		regions = append(regions, tail)
	}
	return regions
}

// trailingFence captures a fence that opens but never closes. Such a region
// runs to EOF and is absent from the Markdown AST.
func trailingFence(text []byte, heading string) (fencedRegion, bool) {
	lines := strings.Split(string(text), "\n")
	open := -1
	info := ""
	for i, line := range lines {
		t := strings.TrimLeft(line, " \t>")
		if !strings.HasPrefix(t, "```") && !strings.HasPrefix(t, "~~~") {
			continue
		}
		if open < 0 {
			open = i
			info = strings.TrimSpace(strings.TrimLeft(t, "`~"))
		} else {
			open = -1
		}
	}
	if open < 0 || open == len(lines)-1 {
		if open < 0 {
			return fencedRegion{}, false
		}
		return fencedRegion{info: info, heading: heading}, true
	}
	source := strings.TrimSuffix(strings.Join(lines[open+1:], "\n"), "\n")
	return fencedRegion{info: info, source: source, heading: heading}, true
}

// isDiagramFence reports whether a fenced region holds diagram text: either
// tagged mermaid, or untagged with a diagram-start first line.
func isDiagramFence(info, source string) bool {
	if info != "" {
		return strings.Fields(info)[0] == "mermaid"
	}
	first, _, _ := strings.Cut(source, "\n")
	_, ok := diagram.StartDirection(first)
	return ok
}

// locateFence finds the opening fence for the next region at or after cursor.
// It returns the 1-based line number of the region's first content line and
// the cursor position just past the closing fence. Unterminated fences run to
// EOF, so overshooting the slice is harmless.
func locateFence(lines []string, cursor int, source string) (int, int) {
	for i := cursor; i < len(lines); i++ {
		t := strings.TrimLeft(lines[i], " \t>")
		if !strings.HasPrefix(t, "```") && !strings.HasPrefix(t, "~~~") {
			continue
		}
		content := 0
		if source != "" {
			content = len(strings.Split(source, "\n"))
		}
		return i + 2, i + content + 2
	}
	return 1, cursor
}

// bareBlock handles input without fences: the whole text becomes one block
// when any line is a diagram start.
func bareBlock(name string, text []byte) []Block {
	src := string(text)
	for _, line := range strings.Split(src, "\n") {
		if _, ok := diagram.StartDirection(line); ok {
			return []Block{{Source: src, Title: strings.TrimSpace(name), Line: 1}}
		}
	}
	return nil
}
