package email

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltpl "html/template"
	"io/fs"
	"os"
	"path/filepath"
	texttpl "text/template"
	"time"
)

//go:embed templates/*.html templates/*.txt
var defaultTemplates embed.FS

const (
	TemplateVerify  = "verify_email"
	TemplateReset   = "reset_password"
	TemplateWelcome = "welcome"
)

var templateNames = []string{TemplateVerify, TemplateReset, TemplateWelcome}

// Vars son las variables disponibles en todos los templates.
type Vars struct {
	AppName   string
	FirstName string
	Email     string
	Link      string
	TTL       string
}

type templatePair struct {
	html *htmltpl.Template
	text *texttpl.Template
}

type Templates struct {
	set map[string]templatePair
}

// LoadTemplates compila los templates. Si dir no está vacío, cada archivo
// presente ahí pisa al embebido; los que falten usan el default.
func LoadTemplates(dir string) (*Templates, error) {
	read := func(name string) (string, error) {
		if dir != "" {
			b, err := os.ReadFile(filepath.Join(dir, name))
			if err == nil {
				return string(b), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
		}
		b, err := defaultTemplates.ReadFile("templates/" + name)
		return string(b), err
	}

	t := &Templates{set: make(map[string]templatePair, len(templateNames))}
	for _, name := range templateNames {
		h, err := read(name + ".html")
		if err != nil {
			return nil, fmt.Errorf("email: read %s.html: %w", name, err)
		}
		x, err := read(name + ".txt")
		if err != nil {
			return nil, fmt.Errorf("email: read %s.txt: %w", name, err)
		}
		ht, err := htmltpl.New(name + "_html").Parse(h)
		if err != nil {
			return nil, fmt.Errorf("email: parse %s.html: %w", name, err)
		}
		tt, err := texttpl.New(name + "_txt").Parse(x)
		if err != nil {
			return nil, fmt.Errorf("email: parse %s.txt: %w", name, err)
		}
		t.set[name] = templatePair{html: ht, text: tt}
	}
	return t, nil
}

// Render ejecuta el par html/txt del template name.
func (t *Templates) Render(name string, v Vars) (htmlBody, textBody string, err error) {
	p, ok := t.set[name]
	if !ok {
		return "", "", fmt.Errorf("%w: unknown template %q", ErrTemplateRender, name)
	}
	var hb, tb bytes.Buffer
	if err := p.html.Execute(&hb, v); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	if err := p.text.Execute(&tb, v); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return hb.String(), tb.String(), nil
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	hours := int(d.Hours())
	if hours >= 24 {
		days := hours / 24
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	if hours >= 1 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	minutes := int(d.Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
