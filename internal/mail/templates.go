package mail

import (
	"bytes"
	"embed"
	"html/template"
)

const (
	TemplateStallSubmitted      = "stall_submitted"
	TemplateStallApproved       = "stall_approved"
	TemplateStallApprovedOptOut = "stall_approved_with_mail_optout"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// TemplateParams：三个模板共用的参数
type TemplateParams struct {
	PollingPlaceName    string
	PollingPlaceAddress string
	StallName           string
	StallDescription    string
	StallWebsite        string
	Deliciousness       string
	ConfirmOptOutURL    string
}

// Render：按名称渲染，名称不含 .html
func Render(name string, p TemplateParams) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name+".html", p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
