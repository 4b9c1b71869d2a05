// Package enrichment turns validated groups into long-form content and
// short descriptions with a text-generation model.
package enrichment

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/user/invite-harvester/internal/entity"
)

var contentTableTmpl = template.Must(template.New("table").Parse(
	`<table><tr><th>Group Name</th><th>Link</th></tr>` +
		`{{range .}}<tr><td>{{.Name}}</td><td><a href="{{.Link}}" target="_blank" rel="nofollow noopener">Join</a></td></tr>{{end}}` +
		`</table>`))

// ContentTable renders the groups as the HTML table embedded in articles.
// Only Active records are included.
func ContentTable(records []entity.GroupRecord) (string, error) {
	type row struct {
		Name string
		Link string
	}
	rows := make([]row, 0, len(records))
	for _, r := range entity.ActiveOnly(records) {
		rows = append(rows, row{Name: r.Name, Link: r.Link.String()})
	}
	var buf bytes.Buffer
	if err := contentTableTmpl.Execute(&buf, rows); err != nil {
		return "", fmt.Errorf("render groups table: %w", err)
	}
	return buf.String(), nil
}

var articlePromptTmpl = texttemplate.Must(texttemplate.New("article").Parse(`Write an engaging, conversational article of at least 500 words that recommends active, verified WhatsApp groups about "{{.Keyword}}".

Use "{{.Keyword}}" as the primary keyword early and naturally, plus 3-5 related keywords. Write in the first person with varied sentence length.

Structure:
1. An H1 introduction that hooks the reader and says what they will find.
2. An H2 section listing the groups below by name with one or two lines each, then the groups table exactly as given.
3. An H2 "What is {{.Keyword}}?" in plain language.
4. An H2 on the benefits of joining these groups.
5. An H2 step-by-step guide to joining and using the groups well.
6. An H2 on common mistakes: spamming, ignoring rules, sharing outdated links, scams.
7. An FAQ with each question as an H3.
8. An H2 conclusion with a call to action.

Finish with a meta title (50-60 characters), a meta description (150-160 characters) and the slug /{{.Slug}}-whatsapp-groups.

Target Keyword: {{.Keyword}}
Post Title: {{.Title}}
Groups Table:
{{.Table}}
`))

// ArticleRequest describes the article to generate.
type ArticleRequest struct {
	Keyword string
	Title   string
	Groups  []entity.GroupRecord
}

// BuildArticlePrompt renders the generation prompt for req.
func BuildArticlePrompt(req ArticleRequest) (string, error) {
	if strings.TrimSpace(req.Keyword) == "" {
		return "", fmt.Errorf("target keyword is required")
	}
	table, err := ContentTable(req.Groups)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = articlePromptTmpl.Execute(&buf, struct {
		Keyword string
		Title   string
		Slug    string
		Table   string
	}{
		Keyword: req.Keyword,
		Title:   req.Title,
		Slug:    slug(req.Keyword),
		Table:   table,
	})
	if err != nil {
		return "", fmt.Errorf("render article prompt: %w", err)
	}
	return buf.String(), nil
}

// DescriptionPrompt asks for a one-sentence blurb about a group.
func DescriptionPrompt(r entity.GroupRecord) string {
	return fmt.Sprintf("Write one friendly sentence (under 150 characters) describing a WhatsApp group named %q for people deciding whether to join. Reply with the sentence only.", r.Name)
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
