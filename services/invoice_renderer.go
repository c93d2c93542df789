package services

import (
	"bytes"
	"fmt"
	"html/template"
)

// InvoiceRenderer turns the invoice data contract into a deliverable
// document. The renderer owns all formatting; callers persist its output
// verbatim so downloads stay byte-identical.
type InvoiceRenderer interface {
	Render(data *InvoiceData) (string, error)
}

var invoiceRendererInstance InvoiceRenderer

// InitInvoiceRenderer initializes the default HTML renderer
func InitInvoiceRenderer() InvoiceRenderer {
	invoiceRendererInstance = NewHTMLInvoiceRenderer()
	return invoiceRendererInstance
}

// GetInvoiceRenderer returns the initialized renderer instance
func GetInvoiceRenderer() InvoiceRenderer {
	if invoiceRendererInstance == nil {
		invoiceRendererInstance = NewHTMLInvoiceRenderer()
	}
	return invoiceRendererInstance
}

// SetInvoiceRenderer sets the renderer instance (primarily for testing)
func SetInvoiceRenderer(r InvoiceRenderer) {
	invoiceRendererInstance = r
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head><title>Invoice {{.InvoiceNumber}}</title></head>
<body>
<h1>GarageDesk Service Invoice</h1>
<p>Invoice No: {{.InvoiceNumber}}</p>
<p>Booking: #{{.BookingID}} | {{.Service.Date}} {{.Service.TimeSlot}}</p>
<h2>Customer</h2>
<p>{{.Customer.Name}} | {{.Customer.Email}} | {{.Customer.Phone}}</p>
<h2>Vehicle</h2>
<p>{{.Vehicle.Number}} - {{.Vehicle.Brand}} {{.Vehicle.Model}} ({{.Vehicle.Year}}, {{.Vehicle.FuelType}}, {{.Vehicle.Transmission}})</p>
<h2>Services</h2>
<ul>{{range .Service.Types}}<li>{{.}}</li>{{end}}</ul>
<h2>Labor</h2>
<table>
{{range .Mechanics}}<tr><td>{{.Name}}</td><td>{{.Specialization}}</td><td>{{printf "%.2f" .HourlyRate}}</td></tr>
{{end}}</table>
<h2>Parts</h2>
<table>
{{range .Parts}}<tr><td>{{.Name}}</td><td>{{.PartNumber}}</td><td>{{.Quantity}}</td><td>{{printf "%.2f" .UnitPrice}}</td><td>{{printf "%.2f" .TotalPrice}}</td></tr>
{{end}}</table>
<h2>Totals</h2>
<p>Labor: {{printf "%.2f" .Pricing.Labor}}</p>
<p>Parts: {{printf "%.2f" .Pricing.Parts}}</p>
<p>Tax: {{printf "%.2f" .Pricing.Tax}}</p>
<p><strong>Total: {{printf "%.2f" .Pricing.Total}}</strong></p>
</body>
</html>
`

// HTMLInvoiceRenderer renders invoices with html/template
type HTMLInvoiceRenderer struct {
	tmpl *template.Template
}

// NewHTMLInvoiceRenderer creates the default HTML renderer
func NewHTMLInvoiceRenderer() *HTMLInvoiceRenderer {
	return &HTMLInvoiceRenderer{
		tmpl: template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

// Render produces the HTML invoice document
func (r *HTMLInvoiceRenderer) Render(data *InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render invoice template: %w", err)
	}
	return buf.String(), nil
}
