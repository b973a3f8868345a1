package bundler

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
)

//go:embed assets/index.html.tmpl
var defaultPageTemplate string

// Page is the data available to the HTML page template.
type Page struct {
	Title     string
	Scripts   []string
	Styles    []string
	DevServer bool
	Token     string
}

// pageSpec is the html plugin descriptor resolved for one build.
type pageSpec struct {
	filename  string
	template  string
	devServer bool
	token     string
}

func pageSpecFrom(p bundle.Plugin) pageSpec {
	filename := p.String("filename")
	if filename == "" {
		filename = "index.html"
	}
	return pageSpec{
		filename:  filename,
		template:  p.String("template"),
		devServer: p.Bool("devServer"),
		token:     p.String("token"),
	}
}

// loadTemplate returns a project override found at name (relative to
// workDir) or the embedded default page.
func loadTemplate(workDir, name string) (string, error) {
	if name != "" {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, name)
		}
		b, err := os.ReadFile(path) // #nosec G304 -- template path comes from project configuration
		if err == nil && strings.TrimSpace(string(b)) != "" {
			return string(b), nil
		}
	}
	return defaultPageTemplate, nil
}

// RenderPage renders the page template body with data.
func RenderPage(body string, data Page) ([]byte, error) {
	tpl, err := template.New("page").Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page template: %w", err)
	}
	return buf.Bytes(), nil
}

func assetURL(publicPath, name string) string {
	if publicPath == "" {
		return name
	}
	return strings.TrimSuffix(publicPath, "/") + "/" + name
}
