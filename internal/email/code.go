package email

import (
	"bytes"
	"fmt"
	htemplate "html/template"
	"math"
	ttemplate "text/template"
	"time"
)

const codeHTMLTmpl = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #2d3748;">
  <h2>{{.AppName}}</h2>
  <p>Tu código de verificación es:</p>
  <p style="font-size: 2rem; letter-spacing: 0.5rem; font-weight: bold;">{{.Code}}</p>
  <p>El código vence en {{.ExpiryMinutes}} minutos y sirve una sola vez.</p>
  <p>Si no pediste este código, ignorá este correo.</p>
</body>
</html>`

const codeTextTmpl = `{{.AppName}}

Tu código de verificación es: {{.Code}}

El código vence en {{.ExpiryMinutes}} minutos y sirve una sola vez.
Si no pediste este código, ignorá este correo.
`

type codeVars struct {
	AppName       string
	Code          string
	ExpiryMinutes int
}

// CodeMailer renderiza y envía el correo con el código passwordless.
type CodeMailer struct {
	sender  Sender
	appName string
	html    *htemplate.Template
	text    *ttemplate.Template
}

func NewCodeMailer(sender Sender, appName string) (*CodeMailer, error) {
	h, err := htemplate.New("code_html").Parse(codeHTMLTmpl)
	if err != nil {
		return nil, fmt.Errorf("email: parse html template: %w", err)
	}
	t, err := ttemplate.New("code_text").Parse(codeTextTmpl)
	if err != nil {
		return nil, fmt.Errorf("email: parse text template: %w", err)
	}
	return &CodeMailer{sender: sender, appName: appName, html: h, text: t}, nil
}

// SendCode envía el código al destinatario. ttl solo se muestra en el
// cuerpo; la expiración real la maneja el challenge.
func (m *CodeMailer) SendCode(to, code string, ttl time.Duration) error {
	vars := codeVars{
		AppName:       m.appName,
		Code:          code,
		ExpiryMinutes: int(math.Ceil(ttl.Minutes())),
	}
	var hb, tb bytes.Buffer
	if err := m.html.Execute(&hb, vars); err != nil {
		return fmt.Errorf("email: render html: %w", err)
	}
	if err := m.text.Execute(&tb, vars); err != nil {
		return fmt.Errorf("email: render text: %w", err)
	}
	subject := fmt.Sprintf("Tu código de verificación: %s", code)
	return m.sender.Send(to, subject, hb.String(), tb.String())
}
