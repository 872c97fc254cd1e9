// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// maxSectionChars bounds each section quoted in the prompt.
const maxSectionChars = 6000

// validationPromptTmpl is sent once per batch of candidates.
var validationPromptTmpl = template.Must(template.New("validation").Parse(`You are curating a registry of research tools used in biomedical publications. A text-mining system found the candidate tool mentions listed below in one publication. Judge each candidate against the publication text.

For each candidate, return:
- candidate_id: the id given below
- verdict: "Accept" if the text names a real research tool of the stated category, "Reject" if it does not (a gene, a disease, a drug, a generic phrase, lab hardware), "Uncertain" otherwise
- confidence: a float between 0.0 and 1.0
- recommendation: "Keep", "Remove", or "Manual Review"
- reasoning: one short sentence
- metadata: an object of corrected or missing fields for the category, using only these field names: {{.Fields}}. Omit fields you cannot support from the text.

Respond with a JSON object containing a "verdicts" array and nothing else.

Example response:
{"verdicts": [{"candidate_id": "3f2a9c1b7d4e", "verdict": "Accept", "confidence": 0.93, "recommendation": "Keep", "reasoning": "ST88-14 is an MPNST cell line cultured in the methods.", "metadata": {"disease": "MPNST"}}]}

Publication: {{.Title}}

Candidates:
{{range .Candidates}}- id: {{.ID}} | category: {{.Category}} | name: {{.RawText}} | context: {{.Context}}
{{end}}
Publication text:
{{range .Sections}}
## {{.Kind}}
{{.Text}}
{{end}}`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeValidator calls the Claude Messages API.
type ClaudeValidator struct {
	APIKey string
	Model  string
	Client *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type verdictResponse struct {
	Verdicts []Verdict `json:"verdicts"`
}

// Validate sends one request and returns the well-formed verdicts. Verdicts
// for candidates not in req are dropped.
func (c *ClaudeValidator) Validate(ctx context.Context, req Request) ([]Verdict, error) {
	prompt, err := renderPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: 4096,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var vr verdictResponse
		if err := json.Unmarshal([]byte(extractJSON(block.Text)), &vr); err != nil {
			return nil, fmt.Errorf("parsing AI response JSON: %w", err)
		}
		return keepWellFormed(vr.Verdicts, req.Candidates), nil
	}
	return nil, fmt.Errorf("no text content in Claude API response")
}

// extractJSON trims prose or code fences around the outermost JSON object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func keepWellFormed(verdicts []Verdict, cands []types.ToolCandidate) []Verdict {
	known := make(map[string]bool, len(cands))
	for _, c := range cands {
		known[c.ID] = true
	}
	out := make([]Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Check() != nil || !known[v.CandidateID] {
			continue
		}
		out = append(out, v)
	}
	return out
}

type promptData struct {
	Title      string
	Fields     string
	Candidates []types.ToolCandidate
	Sections   []types.Section
}

func renderPrompt(req Request) (string, error) {
	data := promptData{Title: req.Publication.Title, Candidates: req.Candidates}
	if data.Title == "" {
		data.Title = req.Publication.ID
	}

	seen := make(map[string]bool)
	var fields []string
	for _, c := range req.Candidates {
		md := types.NewMetadata(c.Category)
		for _, f := range md.Fields() {
			if !seen[f] {
				seen[f] = true
				fields = append(fields, f)
			}
		}
	}
	data.Fields = strings.Join(fields, ", ")

	for _, s := range req.Sections {
		if len(s.Text) > maxSectionChars {
			s.Text = s.Text[:maxSectionChars]
		}
		data.Sections = append(data.Sections, s)
	}

	var buf bytes.Buffer
	if err := validationPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
