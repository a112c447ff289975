package verification

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// GenerateCertificate renders the verification certificate PDF handed to an
// organization once its request is verified.
func GenerateCertificate(req *Request, orgName string) ([]byte, error) {
	if req.Status != StatusVerified {
		return nil, fmt.Errorf("certificate requires a verified request, got %q", req.Status)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 20, "Certificate of Verification", "", 1, "C", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, orgName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "has completed partner verification.", "", 1, "C", false, 0, "")

	pdf.Ln(15)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Request ID: %s", req.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Verified on: %s", req.UpdatedAt.Format("2 January 2006")), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
