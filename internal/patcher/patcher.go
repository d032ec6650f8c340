// Package patcher applies surgical edits to the raw text of a service
// definition file. Edits are byte splices guided by a freshly parsed yaml.v3
// node tree over the same text, so comments, quoting, and key order outside
// the touched range survive byte-for-byte. The structure is never re-encoded.
package patcher

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "stagectl/internal/errors"
)

// placeholderSpanMax is the value-span length below which an existing value is
// treated as an empty placeholder (e.g. "{}" or "null") and removed when a
// block is inserted under its key. This is a heuristic for replacing
// placeholders atomically, not a general redundancy detector.
const placeholderSpanMax = 4

// Patch inserts insertion under the top-level mapping entry named key. If the
// entry exists, the insertion lands immediately after the entry's last byte;
// a placeholder value shorter than placeholderSpanMax bytes is removed in the
// same splice. If the entry does not exist, a new "key:" block is appended at
// the end of the text.
//
// The node tree is re-parsed on every call because a prior patch invalidates
// all previously computed offsets.
func Patch(raw []byte, key, insertion string) ([]byte, error) {
	if !strings.HasSuffix(insertion, "\n") {
		insertion += "\n"
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &apperrors.ParseError{Err: err}
	}

	root := documentRoot(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return appendBlock(raw, key, insertion), nil
	}

	lines := lineOffsets(raw)

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		if keyNode.Value != key {
			continue
		}

		var valueStart, entryEnd int
		if isImplicitNull(valueNode) {
			// Nothing was written after the colon; the node carries no
			// usable text position.
			entryEnd = startOfLine(raw, lines, keyNode.Line+1)
			valueStart = entryEnd
		} else {
			valueStart = offsetAt(raw, lines, valueNode.Line, valueNode.Column)
			entryEnd = startOfLine(raw, lines, lastLine(valueNode)+1)
		}

		span := bytes.TrimRight(raw[valueStart:entryEnd], " \t\n")
		if len(span) < placeholderSpanMax {
			// Drop the placeholder so the inserted block does not sit next
			// to a dangling empty value.
			head := bytes.TrimRight(raw[:valueStart], " \t\n")
			return splice(head, []byte("\n"), []byte(insertion), raw[entryEnd:]), nil
		}

		prefix := raw[:entryEnd]
		if len(prefix) > 0 && prefix[len(prefix)-1] != '\n' {
			// Entry is the last thing in a file without a final newline.
			insertion = "\n" + insertion
		}
		return splice(prefix, []byte(insertion), raw[entryEnd:]), nil
	}

	return appendBlock(raw, key, insertion), nil
}

func isImplicitNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null" && n.Value == ""
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return nil
}

// appendBlock adds a new top-level "key:" block, preceded by a blank line,
// at the end of the text.
func appendBlock(raw []byte, key, insertion string) []byte {
	out := make([]byte, 0, len(raw)+len(key)+len(insertion)+3)
	out = append(out, raw...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, '\n')
	out = append(out, key...)
	out = append(out, ':', '\n')
	out = append(out, insertion...)
	return out
}

func splice(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// lineOffsets returns the byte offset of the start of each line, 0-indexed by
// line-1 to match yaml.v3's 1-based Line fields.
func lineOffsets(raw []byte) []int {
	offsets := []int{0}
	for i, b := range raw {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// startOfLine returns the byte offset where the given 1-based line begins, or
// len(raw) when the line is past the end of the text.
func startOfLine(raw []byte, lines []int, line int) int {
	if line-1 >= len(lines) {
		return len(raw)
	}
	return lines[line-1]
}

// offsetAt converts a 1-based line/column position to a byte offset, clamped
// to the end of the line. A null value node can report a column past the end
// of its line, since nothing was actually written there.
func offsetAt(raw []byte, lines []int, line, column int) int {
	start := startOfLine(raw, lines, line)
	end := startOfLine(raw, lines, line+1)
	off := start + column - 1
	if off > end {
		off = end
	}
	if off > len(raw) {
		off = len(raw)
	}
	return off
}

// lastLine returns the last text line covered by a node, including the extra
// lines of literal and folded block scalars, which have no child nodes.
func lastLine(n *yaml.Node) int {
	line := n.Line
	if n.Kind == yaml.ScalarNode && (n.Style == yaml.LiteralStyle || n.Style == yaml.FoldedStyle) {
		body := strings.TrimRight(n.Value, "\n")
		if body != "" {
			line += strings.Count(body, "\n") + 1
		}
	}
	for _, child := range n.Content {
		if l := lastLine(child); l > line {
			line = l
		}
	}
	return line
}
