package mailer

import (
	"bytes"
	"fmt"
	"text/template"
)

// templates are the message bodies selectable through the template id.
var templates = map[string]*template.Template{
	"reminder": template.Must(template.New("reminder").Parse(
		"{{.message}}\n\n--\nSent by Task Master to {{.to_email}}\n")),
	"plain": template.Must(template.New("plain").Parse("{{.message}}\n")),
}

// TemplateNames lists the built-in template ids.
func TemplateNames() []string {
	return []string{"reminder", "plain"}
}

// render executes the named template with the message parameters.
func render(name string, msg Message) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg.Params()); err != nil {
		return "", fmt.Errorf("rendering template %q: %w", name, err)
	}
	return buf.String(), nil
}
