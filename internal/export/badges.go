package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const (
	badgesPerRow = 3
	badgeWidth   = 12 / badgesPerRow
	pngDataURL   = "data:image/png;base64,"
)

var (
	pdfHeaderColor = props.Color{Red: 50, Green: 50, Blue: 50}
	pdfMutedColor  = props.Color{Red: 120, Green: 120, Blue: 120}
	pdfLineColor   = props.Color{Red: 200, Green: 200, Blue: 200}

	pngSignature = []byte("\x89PNG\r\n\x1a\n")
)

// QRPayload is the text a member's badge encodes.
func QRPayload(id member.ID) string {
	data, err := json.Marshal(struct {
		ID member.ID `json:"id"`
	}{id})
	if err != nil {
		return id.String()
	}
	return string(data)
}

// DecodeQRImage extracts PNG bytes from a "data:image/png;base64," URL. It
// reports false for anything that is not a decodable PNG.
func DecodeQRImage(dataURL string) ([]byte, bool) {
	if !strings.HasPrefix(dataURL, pngDataURL) {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, pngDataURL))
	if err != nil || !bytes.HasPrefix(data, pngSignature) {
		return nil, false
	}
	return data, true
}

// Badges renders a sheet of member badges as a PDF. Members whose stored QR
// image is usable get it embedded; the rest get a code generated from their
// payload.
func Badges(title string, members []member.Member, groupNames map[member.ID]string) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, title, props.Text{
			Style: fontstyle.Bold,
			Size:  16,
			Color: &pdfHeaderColor,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, fmt.Sprintf("%d members", len(members)), props.Text{
			Size:  10,
			Color: &pdfMutedColor,
		}),
	)
	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	m.AddRow(4)

	for start := 0; start < len(members); start += badgesPerRow {
		end := min(start+badgesPerRow, len(members))
		row := members[start:end]

		codes := make([]core.Col, 0, len(row))
		names := make([]core.Col, 0, len(row))
		details := make([]core.Col, 0, len(row))
		for _, mem := range row {
			codes = append(codes, qrCol(mem))
			names = append(names, text.NewCol(badgeWidth, mem.Name, props.Text{
				Style: fontstyle.Bold,
				Size:  10,
				Align: align.Center,
				Color: &pdfHeaderColor,
			}))
			details = append(details, text.NewCol(badgeWidth, badgeDetail(mem, groupNames), props.Text{
				Size:  8,
				Align: align.Center,
				Color: &pdfMutedColor,
			}))
		}

		m.AddRow(45, codes...)
		m.AddRow(6, names...)
		m.AddRow(5, details...)
		m.AddRow(6)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func qrCol(mem member.Member) core.Col {
	rect := props.Rect{Center: true, Percent: 90}
	if png, ok := DecodeQRImage(mem.QRCode); ok {
		return image.NewFromBytesCol(badgeWidth, png, extension.Png, rect)
	}
	return code.NewQrCol(badgeWidth, QRPayload(mem.ID), rect)
}

func badgeDetail(mem member.Member, groupNames map[member.ID]string) string {
	if name, ok := groupNames[mem.GroupID]; ok && name != "" {
		return fmt.Sprintf("#%s - %s", mem.ID, name)
	}
	return "#" + mem.ID.String()
}
