// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package documents

import (
	"errors"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/wml/ctypes"
)

// readDocx returns the paragraph text of a .docx file, one paragraph per
// line. Table cells contribute their paragraphs in reading order.
func readDocx(path string) (string, error) {
	doc, err := godocx.OpenDocument(path)
	if err != nil {
		return "", err
	}
	if doc.Document == nil || doc.Document.Body == nil {
		return "", errors.New("document has no body")
	}

	var out []string
	for _, child := range doc.Document.Body.Children {
		switch {
		case child.Para != nil:
			out = append(out, paragraphText(child.Para.GetCT()))
		case child.Table != nil:
			out = appendTable(out, child.Table.GetCT())
		}
	}
	return strings.Join(out, "\n"), nil
}

func appendTable(out []string, tbl *ctypes.Table) []string {
	for _, rc := range tbl.RowContents {
		if rc.Row == nil {
			continue
		}
		for _, cc := range rc.Row.Contents {
			if cc.Cell == nil {
				continue
			}
			for _, block := range cc.Cell.Contents {
				switch {
				case block.Paragraph != nil:
					out = append(out, paragraphText(block.Paragraph))
				case block.Table != nil:
					out = appendTable(out, block.Table)
				}
			}
		}
	}
	return out
}

func paragraphText(p *ctypes.Paragraph) string {
	var sb strings.Builder
	writeRuns(&sb, p.Children)
	return sb.String()
}

func writeRuns(sb *strings.Builder, children []ctypes.ParagraphChild) {
	for _, c := range children {
		if c.Link != nil {
			if c.Link.Run != nil {
				writeRun(sb, c.Link.Run)
			}
			writeRuns(sb, c.Link.Children)
		}
		if c.Run != nil {
			writeRun(sb, c.Run)
		}
	}
}

func writeRun(sb *strings.Builder, r *ctypes.Run) {
	for _, rc := range r.Children {
		switch {
		case rc.Text != nil:
			sb.WriteString(rc.Text.Text)
		case rc.Tab != nil:
			sb.WriteByte('\t')
		case rc.Break != nil, rc.CarrRtn != nil:
			sb.WriteByte('\n')
		}
	}
}
