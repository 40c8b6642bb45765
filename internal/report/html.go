// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Research Report: {{.Topic}}</title>
<style>
body { font-family: Georgia, serif; max-width: 48em; margin: 2em auto; line-height: 1.5; color: #222; }
h1 { border-bottom: 2px solid #444; padding-bottom: 0.3em; }
h2 { color: #334; margin-top: 1.5em; }
pre { white-space: pre-wrap; font-family: inherit; margin: 0; }
</style>
</head>
<body>
<h1>Research Report: {{.Topic}}</h1>
{{range .Sections}}<h2>{{.Title}}</h2>
<pre>{{.Body}}</pre>
{{end}}</body>
</html>
`))

type htmlData struct {
	Topic    string
	Sections []htmlSection
}

type htmlSection struct {
	Title string
	Body  string
}

func assembleHTML(sess *session.Session, sections []types.ReportSection, rendered map[types.ReportSection]string) (string, error) {
	data := htmlData{Topic: sess.Topic}
	for _, s := range sections {
		data.Sections = append(data.Sections, htmlSection{Title: sectionTitles[s], Body: rendered[s]})
	}

	var b strings.Builder
	if err := htmlTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering HTML report: %w", err)
	}
	return b.String(), nil
}
