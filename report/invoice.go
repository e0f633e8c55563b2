package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/billing"
	"github.com/bengkel-erp/bengkel-erp/internal/clients"
)

// InvoiceRenderer turns an invoice into a printable PDF via Gotenberg.
type InvoiceRenderer struct {
	billing   *billing.Service
	clients   *clients.Service
	gotenberg *Client
}

// NewInvoiceRenderer constructs the renderer.
func NewInvoiceRenderer(billingSvc *billing.Service, clientsSvc *clients.Service, gotenberg *Client) *InvoiceRenderer {
	return &InvoiceRenderer{billing: billingSvc, clients: clientsSvc, gotenberg: gotenberg}
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 40px; color: #222; }
h1 { font-size: 22px; margin-bottom: 0; }
.muted { color: #777; font-size: 12px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
th, td { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; font-size: 13px; }
th { background: #f5f5f5; }
td.num, th.num { text-align: right; }
.totals { margin-top: 16px; width: 40%; margin-left: auto; }
.totals td { border: none; padding: 4px 8px; }
.grand { font-weight: bold; border-top: 2px solid #222; }
</style>
</head>
<body>
<h1>Invoice {{.Invoice.Number}}</h1>
<p class="muted">Status: {{.Invoice.Status}}{{if .Invoice.DueDate}} &middot; Due {{.Invoice.DueDate.Format "2 Jan 2006"}}{{end}}</p>
<p>Billed to: <strong>{{.ClientName}}</strong></p>
<table>
<tr><th>Description</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Total</th></tr>
{{range .Invoice.Items}}
<tr><td>{{.Description}}</td><td class="num">{{.Quantity}}</td><td class="num">{{printf "%.2f" .UnitPrice}}</td><td class="num">{{printf "%.2f" .Total}}</td></tr>
{{end}}
</table>
<table class="totals">
<tr><td>Subtotal</td><td class="num">{{printf "%.2f" .Invoice.Subtotal}}</td></tr>
<tr><td>Discount</td><td class="num">{{printf "%.2f" .Invoice.Discount}}</td></tr>
<tr><td>Tax ({{printf "%.1f" .Invoice.TaxRate}}%)</td><td class="num">{{printf "%.2f" .Invoice.TaxAmount}}</td></tr>
<tr class="grand"><td>Total</td><td class="num">{{printf "%.2f" .Invoice.Total}}</td></tr>
<tr><td>Paid</td><td class="num">{{printf "%.2f" .Invoice.PaidAmount}}</td></tr>
<tr><td>Balance</td><td class="num">{{printf "%.2f" .Balance}}</td></tr>
</table>
{{if .Invoice.Notes}}<p class="muted">{{.Invoice.Notes}}</p>{{end}}
</body>
</html>`))

// InvoicePDF renders the invoice identified by id.
func (r *InvoiceRenderer) InvoicePDF(ctx context.Context, invoiceID uuid.UUID) ([]byte, error) {
	inv, err := r.billing.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	clientName := inv.ClientID.String()
	if client, err := r.clients.Get(ctx, inv.ClientID); err == nil {
		clientName = client.Name
	}

	var buf bytes.Buffer
	err = invoiceTemplate.Execute(&buf, struct {
		Invoice    *billing.Invoice
		ClientName string
		Balance    float64
	}{Invoice: inv, ClientName: clientName, Balance: inv.Balance()})
	if err != nil {
		return nil, fmt.Errorf("render invoice template: %w", err)
	}

	return r.gotenberg.RenderInvoiceHTML(ctx, buf.String())
}
