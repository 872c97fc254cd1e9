// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sections

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// blockElements end a line of extracted text.
var blockElements = map[string]bool{
	"p": true, "title": true, "sec": true, "tr": true, "caption": true,
	"label": true, "list-item": true, "table-wrap": true, "fig": true,
}

// skippedAbstracts are abstract-type values that do not carry the summary.
var skippedAbstracts = map[string]bool{
	"graphical": true, "teaser": true, "toc": true,
}

// jatsBlocks walks a PMC JATS document. Abstracts become abstract blocks and
// each top-level <sec> of <body> becomes one block, with its sec-type
// attribute taking precedence over the title.
func jatsBlocks(body []byte) []block {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var (
		blocks    []block
		depth     int
		bodyDepth = -1
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			return blocks
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case t.Name.Local == "body" && bodyDepth < 0:
				bodyDepth = depth
			case t.Name.Local == "abstract" && bodyDepth < 0:
				title, text, err := collect(dec)
				depth--
				if !skippedAbstracts[attr(t, "abstract-type")] {
					blocks = append(blocks, block{heading: title, level: 1, kind: types.SectionAbstract, text: text})
				}
				if err != nil {
					return blocks
				}
			case t.Name.Local == "sec" && bodyDepth > 0 && depth == bodyDepth+1:
				title, text, err := collect(dec)
				depth--
				blocks = append(blocks, block{heading: title, level: 1, kind: secTypeKind(attr(t, "sec-type")), text: text})
				if err != nil {
					return blocks
				}
			}
		case xml.EndElement:
			if t.Name.Local == "body" && depth == bodyDepth {
				bodyDepth = -2
			}
			depth--
		}
	}
}

// collect consumes tokens up to the end of the element just opened and
// returns the text of its first direct <title> child and the remaining text.
func collect(dec *xml.Decoder) (string, string, error) {
	var buf, title strings.Builder
	depth := 1
	titleDepth := -1
	gotTitle := false

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return strings.TrimSpace(title.String()), buf.String(), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "title" && depth == 2 && !gotTitle {
				titleDepth = depth
				continue
			}
			if blockElements[t.Name.Local] {
				buf.WriteByte('\n')
			}
			if t.Name.Local == "td" || t.Name.Local == "th" {
				buf.WriteByte(' ')
			}
		case xml.EndElement:
			if depth == titleDepth {
				titleDepth = -1
				gotTitle = true
			} else if blockElements[t.Name.Local] {
				buf.WriteByte('\n')
			}
			depth--
		case xml.CharData:
			if titleDepth > 0 {
				title.Write(t)
			} else {
				buf.Write(t)
			}
		}
	}
	return strings.TrimSpace(title.String()), buf.String(), nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// secTypeKind maps JATS sec-type values such as "materials|methods".
func secTypeKind(secType string) types.SectionKind {
	st := strings.ToLower(secType)
	if st == "" {
		return ""
	}
	if strings.HasPrefix(st, "intro") {
		return types.SectionIntroduction
	}
	kind, _ := Classify(strings.ReplaceAll(st, "|", " "))
	return kind
}
