package llm

import (
	"fmt"
	"strings"

	"github.com/spherical/invoice-extractor/internal/domain"
)

const userInstruction = "Analyze these PDF pages and extract all important information. Provide a comprehensive summary."

var fieldDescriptions = map[string]string{
	"kunde_navn":           "Customer full name",
	"installationsadresse": "Installation address (full address with street, number, zip code, city)",
	"forbrug_kwh":          "Energy consumption in kWh (number only)",
	"el_abonnement":        "Electricity subscription cost (number only)",
	"el_afgift":            "Electricity tax (number only)",
	"transport":            "Transport cost (number only)",
	"samlet_pris":          "Total price (number only)",
	"faktura_dato":         "Invoice date in YYYY-MM-DD format",
	"udbyder":              "Provider/company name",
}

// buildSystemPrompt creates the extraction instruction listing every invoice field.
func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are an AI specialized in extracting structured information from invoice PDFs.
Extract ONLY the requested fields and return them in a JSON format with EXACTLY these keys:

{
`)
	for i, field := range domain.InvoiceFields {
		sep := ","
		if i == len(domain.InvoiceFields)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  %q: %q%s\n", field, fieldDescriptions[field], sep)
	}
	b.WriteString(`}

Important rules:
1. Return ONLY the JSON object, nothing else.
2. If you cannot find a specific field, use null for its value.
3. For numerical values, return only the number without currency symbols or thousand separators.
4. Dates must be in YYYY-MM-DD format.
5. Do not include any explanations, analysis, or additional text - ONLY the JSON.
6. Do not make up information - if not present, use null.`)
	return b.String()
}
