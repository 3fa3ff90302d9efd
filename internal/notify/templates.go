package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var (
	successTmpl = template.Must(template.New("payment_success").Parse(`<html><body>
<h2>Payment received</h2>
<p>Thank you! Your payment for order #{{.OrderID}} has been confirmed.</p>
<p>Amount: {{.Amount}} {{.Currency}}</p>
<ul>{{range .Movies}}<li>{{.}}</li>{{end}}</ul>
<p>Your movies are now available in your library.</p>
</body></html>`))

	failureTmpl = template.Must(template.New("payment_failure").Parse(`<html><body>
<h2>Payment failed</h2>
<p>We could not process the payment for order #{{.OrderID}}.</p>
<p>Reason: {{.Reason}}</p>
<p>Your cart has been kept, so you can try again.</p>
</body></html>`))
)

type PaymentSuccess struct {
	OrderID  uint
	Amount   string
	Currency string
	Movies   []string
}

type PaymentFailure struct {
	OrderID uint
	Reason  string
}

const (
	SubjectPaymentSuccess = "Payment successful"
	SubjectPaymentFailure = "Payment failed"
)

func RenderPaymentSuccess(d PaymentSuccess) (string, error) {
	return render(successTmpl, d)
}

func RenderPaymentFailure(d PaymentFailure) (string, error) {
	if d.Reason == "" {
		d.Reason = "unknown error"
	}
	return render(failureTmpl, d)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
