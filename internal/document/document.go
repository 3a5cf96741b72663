// Package document renders estimates as plain-text documents for printing or sharing.
package document

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/foamdesk/foamdesk/internal/estimator"
	"github.com/foamdesk/foamdesk/internal/model"
)

// Render writes est as a text document headed by the company in settings. customer may
// be nil when the estimate's customer has been deleted.
func Render(w io.Writer, est model.Estimate, customer *model.Customer, settings model.Settings) error {
	var b strings.Builder

	fmt.Fprintln(&b, settings.CompanyName)
	for _, line := range []string{settings.CompanyAddress, settings.CompanyPhone, settings.CompanyEmail} {
		if line != "" {
			fmt.Fprintln(&b, line)
		}
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "ESTIMATE %s\n", est.Number)
	fmt.Fprintf(&b, "Date: %s\n", est.Date.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "Status: %s\n", est.Status)
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "Customer: %s\n", customerName(customer))
	if customer != nil {
		if customer.CompanyName != "" {
			fmt.Fprintf(&b, "Company: %s\n", customer.CompanyName)
		}
		if addr := customerAddress(*customer); addr != "" {
			fmt.Fprintf(&b, "Address: %s\n", addr)
		}
	}
	fmt.Fprintf(&b, "Job: %s\n", est.JobName)
	if est.JobAddress != "" {
		fmt.Fprintf(&b, "Job address: %s\n", est.JobAddress)
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "Scope: %s\n", scope(est.CalcData))
	if est.TotalBoardFeetOpen > 0 {
		fmt.Fprintf(&b, "Open cell: %.0f board ft, %.2f sets\n", est.TotalBoardFeetOpen, est.SetsRequiredOpen)
	}
	if est.TotalBoardFeetClosed > 0 {
		fmt.Fprintf(&b, "Closed cell: %.0f board ft, %.2f sets\n", est.TotalBoardFeetClosed, est.SetsRequiredClosed)
	}
	fmt.Fprintln(&b)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Description\tQty\tUnit\tPrice\tTotal\t")
	for _, item := range est.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t\n", item.Description, quantity(item.Quantity), item.Unit, item.UnitPrice, item.Total)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("render line items: %w", err)
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "Subtotal: $%.2f\n", est.Subtotal)
	fmt.Fprintf(&b, "Tax (%.2f%%): $%.2f\n", taxRate(est), est.Tax)
	fmt.Fprintf(&b, "Total: $%.2f\n", est.Total)

	if est.Notes != "" {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Notes: %s\n", est.Notes)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write estimate document: %w", err)
	}
	return nil
}

// taxRate is the percentage the estimate was priced at, recovered from its own snapshot.
func taxRate(est model.Estimate) float64 {
	if est.Subtotal == 0 {
		return 0
	}
	return est.Tax / est.Subtotal * 100
}

func customerName(c *model.Customer) string {
	if c == nil || c.Name == "" {
		return "Unknown"
	}
	return c.Name
}

func customerAddress(c model.Customer) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Address, c.City, strings.TrimSpace(c.State + " " + c.Zip)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func scope(j estimator.Job) string {
	switch g := j.Geometry().(type) {
	case estimator.Building:
		roof := "flat roof"
		if g.RoofPitch > 0 {
			roof = fmt.Sprintf("%g/12 roof", g.RoofPitch)
		}
		if g.Gable {
			roof += ", gable ends"
		}
		return fmt.Sprintf("building %gx%g ft, %g ft walls, %s", g.Length, g.Width, g.WallHeight, roof)
	case estimator.WallsOnly:
		return fmt.Sprintf("walls %g linear ft x %g ft", g.LinearFeet, g.WallHeight)
	case estimator.FlatArea:
		return fmt.Sprintf("flat area %gx%g ft", g.Length, g.Width)
	}
	return "not measured"
}

func quantity(q float64) string {
	return strconv.FormatFloat(math.Round(q*100)/100, 'f', -1, 64)
}
