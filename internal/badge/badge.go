// Package badge renders visitor gate passes: the QR code scanned at the gate
// and a printable PDF pass.
package badge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/skip2/go-qrcode"
)

// QRPayload builds the payload encoded into a gate-pass QR code. The scanner
// side accepts either a bare visit ID or this JSON form.
func QRPayload(visitID string) string {
	b, _ := json.Marshal(map[string]string{"id": visitID})
	return string(b)
}

// QRPNG renders the gate-pass QR code for a visit as a PNG.
func QRPNG(visitID string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(QRPayload(visitID), qrcode.Medium, size)
}

// PassPDF renders a printable A6 gate pass for a visit: visitor name, host,
// department, purpose and the QR code verified by security at the gate.
func PassPDF(v *models.Visit) ([]byte, error) {
	qrPng, err := QRPNG(v.ID, 256)
	if err != nil {
		return nil, err
	}

	// A6 landscape: 148 x 105 mm
	pdf := gofpdf.New("L", "mm", "A6", "")
	pdf.SetMargins(8, 8, 8)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "CAMPUS VISITOR PASS", "", 1, "C", false, 0, "")
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(8, 18, 140, 18)

	pdf.SetY(24)
	pdf.SetFont("Arial", "", 10)
	writeField := func(label, value string) {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(28, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(64, 6, value, "", 1, "L", false, 0, "")
	}
	writeField("Visitor", v.Name)
	writeField("Meeting", v.WhomToMeet)
	writeField("Department", v.Department)
	writeField("Purpose", v.PurposeOfVisit)
	writeField("Date", v.CreatedAt.Format("02 Jan 2006 15:04"))
	writeField("Status", string(v.Status))

	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	_ = pdf.RegisterImageOptionsReader("pass_qr", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("pass_qr", 104, 22, 36, 36, false, imgOptions, 0, "")

	pdf.SetY(92)
	pdf.SetFont("Arial", "I", 7)
	pdf.CellFormat(0, 4, fmt.Sprintf("Pass ID: %s", v.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, "Present this pass with a valid ID document at the security gate.", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
