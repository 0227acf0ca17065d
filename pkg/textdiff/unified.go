// Package textdiff renders unified diffs between the original and rewritten
// contents of a file.
package textdiff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines shown around each hunk.
const contextLines = 3

// Unified returns a unified diff between before and after, labelled with the
// file path. It returns "" when the contents are identical.
func Unified(path string, before, after []byte) string {
	if bytes.Equal(before, after) {
		return ""
	}

	ops := lineOps(before, after)
	hunks := groupHunks(ops)

	if len(hunks) == 0 {
		return ""
	}

	var out strings.Builder

	fmt.Fprintf(&out, "--- a/%s\n+++ b/%s\n", path, path)

	for _, h := range hunks {
		fmt.Fprintf(&out, "@@ -%d,%d +%d,%d @@\n", h.oldStart, h.oldCount, h.newStart, h.newCount)

		for _, line := range h.lines {
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}

	return out.String()
}

// Colorize applies terminal colors to a unified diff: additions green,
// removals red, hunk headers cyan.
func Colorize(diff string) string {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	lines := strings.Split(diff, "\n")

	for idx, line := range lines {
		switch {
		case strings.HasPrefix(line, "@@"):
			lines[idx] = header.Sprint(line)
		case strings.HasPrefix(line, "+"):
			lines[idx] = added.Sprint(line)
		case strings.HasPrefix(line, "-"):
			lines[idx] = removed.Sprint(line)
		}
	}

	return strings.Join(lines, "\n")
}

// lineOp is one diffed line with its operation.
type lineOp struct {
	kind diffmatchpatch.Operation
	text string
}

// lineOps computes a line-level diff. The char-mapping round trip keeps the
// diff aligned on line boundaries instead of arbitrary byte runs.
func lineOps(before, after []byte) []lineOp {
	dmp := diffmatchpatch.New()

	beforeChars, afterChars, lineIndex := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(beforeChars, afterChars, false), lineIndex)

	var ops []lineOp

	for _, segment := range diffs {
		for _, line := range splitLines(segment.Text) {
			ops = append(ops, lineOp{kind: segment.Type, text: line})
		}
	}

	return ops
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	lines              []string
}

// groupHunks turns the flat op list into unified hunks with context. Change
// runs closer than twice the context width share one hunk.
//
//nolint:cyclop,funlen // hunk assembly is one linear scan with bookkeeping.
func groupHunks(ops []lineOp) []hunk {
	type located struct {
		lineOp
		oldNo, newNo int
	}

	positioned := make([]located, len(ops))
	oldNo, newNo := 0, 0

	for idx, op := range ops {
		entry := located{lineOp: op}

		if op.kind != diffmatchpatch.DiffInsert {
			oldNo++
			entry.oldNo = oldNo
		}

		if op.kind != diffmatchpatch.DiffDelete {
			newNo++
			entry.newNo = newNo
		}

		positioned[idx] = entry
	}

	var hunks []hunk

	idx := 0
	for idx < len(positioned) {
		if positioned[idx].kind == diffmatchpatch.DiffEqual {
			idx++

			continue
		}

		// Extend this hunk over nearby change runs.
		start := max(0, idx-contextLines)
		end := idx

		for probe := idx; probe < len(positioned); probe++ {
			if positioned[probe].kind != diffmatchpatch.DiffEqual {
				end = probe + 1

				continue
			}

			if probe-end >= 2*contextLines {
				break
			}
		}

		stop := min(len(positioned), end+contextLines)

		current := hunk{}

		for _, entry := range positioned[start:stop] {
			switch entry.kind {
			case diffmatchpatch.DiffEqual:
				current.lines = append(current.lines, " "+entry.text)
				current.oldCount++
				current.newCount++
			case diffmatchpatch.DiffDelete:
				current.lines = append(current.lines, "-"+entry.text)
				current.oldCount++
			case diffmatchpatch.DiffInsert:
				current.lines = append(current.lines, "+"+entry.text)
				current.newCount++
			}

			if current.oldStart == 0 && entry.oldNo != 0 {
				current.oldStart = entry.oldNo
			}

			if current.newStart == 0 && entry.newNo != 0 {
				current.newStart = entry.newNo
			}
		}

		hunks = append(hunks, current)
		idx = stop
	}

	return hunks
}
