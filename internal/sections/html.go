// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sections

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/tool-miner/pkg/types"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

// htmlBlocks splits an HTML article at its headings. The text of a heading's
// block is every following sibling up to the next heading; siblings that
// contain headings of their own are left to those headings. An element whose
// class or id names the abstract is used when no heading introduces one.
func htmlBlocks(body []byte) []block {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	doc.Find("script, style, nav, header, footer").Remove()

	var blocks []block

	abstract := doc.Find("#abstract, .abstract, [id^=abstract], section[role=doc-abstract]").First()
	if abstract.Length() > 0 && abstract.Find(headingSelector).Length() <= 1 {
		blocks = append(blocks, block{level: 1, kind: types.SectionAbstract, text: abstract.Text()})
	}

	doc.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		var parts []string
		h.NextUntil(headingSelector).Each(func(_ int, sib *goquery.Selection) {
			if sib.Find(headingSelector).Length() > 0 {
				return
			}
			parts = append(parts, blockText(sib))
		})
		blocks = append(blocks, block{
			heading: strings.TrimSpace(h.Text()),
			level:   headingLevel(h),
			text:    strings.Join(parts, "\n"),
		})
	})

	return blocks
}

// blockText returns an element's text with paragraph and cell breaks kept.
func blockText(sel *goquery.Selection) string {
	if sel.Find("p, li, tr").Length() == 0 {
		return sel.Text()
	}
	var lines []string
	sel.Find("p, li, tr").Each(func(_ int, s *goquery.Selection) {
		if s.Is("tr") {
			var cells []string
			s.Find("td, th").Each(func(_ int, c *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(c.Text()))
			})
			lines = append(lines, strings.Join(cells, " "))
			return
		}
		if s.Parents().Filter("p, li").Length() > 0 {
			return
		}
		lines = append(lines, s.Text())
	})
	return strings.Join(lines, "\n")
}

func headingLevel(h *goquery.Selection) int {
	if len(h.Nodes) == 0 {
		return 6
	}
	name := h.Nodes[0].Data
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 6
}
