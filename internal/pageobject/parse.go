package pageobject

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

const (
	errorMessageParseHTML = "pageobject: parse html"

	selectorTable          = "table"
	selectorTableHeader    = "thead th"
	selectorTableRow       = "tbody tr"
	selectorTableCell      = "td"
	selectorBadge          = "span[class*='status-'], span.tag, span.entity-count"
	selectorIcon           = "span[class*='zi-'], span.icon, button[class*='zi-']"
	classNoData            = "nothing-to-show"
	selectorMessage        = "output"
	selectorMessageTitle   = "span"
	selectorMessageDetails = "div.msg-details li"
	messageClassPrefix     = "msg-"
	iconClassPrefix        = "zi-"
)

// ErrNoTable indicates the HTML contains no table.
var ErrNoTable = errors.New("pageobject: no table in widget contents")

func parseDocument(html string) (*goquery.Document, error) {
	document, parseErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageParseHTML, parseErr)
	}
	return document, nil
}

func normalizedText(selection *goquery.Selection) string {
	return strings.Join(strings.Fields(selection.Text()), " ")
}

// ParseTable reads the first table of a widget's contents. The "No data found" placeholder row is
// not returned as a row.
func ParseTable(html string) (model.RenderedTable, error) {
	document, parseErr := parseDocument(html)
	if parseErr != nil {
		return model.RenderedTable{}, parseErr
	}
	table := document.Find(selectorTable).First()
	if table.Length() == 0 {
		return model.RenderedTable{}, ErrNoTable
	}

	rendered := model.RenderedTable{}
	table.Find(selectorTableHeader).Each(func(_ int, header *goquery.Selection) {
		rendered.Headers = append(rendered.Headers, normalizedText(header))
	})
	table.Find(selectorTableRow).Each(func(_ int, row *goquery.Selection) {
		if row.HasClass(classNoData) {
			return
		}
		var cells []model.RenderedCell
		row.Find(selectorTableCell).Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, parseCell(cell))
		})
		rendered.Rows = append(rendered.Rows, cells)
	})
	return rendered, nil
}

func parseCell(cell *goquery.Selection) model.RenderedCell {
	rendered := model.RenderedCell{Text: normalizedText(cell)}
	cell.Find(selectorBadge).Each(func(_ int, badge *goquery.Selection) {
		rendered.Badges = append(rendered.Badges, model.Badge{Text: normalizedText(badge), Classes: classes(badge)})
	})
	cell.Find(selectorIcon).Each(func(_ int, icon *goquery.Selection) {
		for _, class := range classes(icon) {
			if strings.HasPrefix(class, iconClassPrefix) || class == "icon" {
				rendered.Icons = append(rendered.Icons, class)
			}
		}
	})
	return rendered
}

func classes(selection *goquery.Selection) []string {
	class, _ := selection.Attr("class")
	return strings.Fields(class)
}

// ParseMessage reads a notification banner. It returns nil when the HTML holds no banner.
func ParseMessage(html string) (*model.Message, error) {
	document, parseErr := parseDocument(html)
	if parseErr != nil {
		return nil, parseErr
	}
	output := document.Find(selectorMessage).First()
	if output.Length() == 0 {
		return nil, nil
	}

	message := &model.Message{}
	for _, class := range classes(output) {
		switch model.MessageKind(strings.TrimPrefix(class, messageClassPrefix)) {
		case model.MessageKindGood:
			message.Kind = model.MessageKindGood
		case model.MessageKindBad:
			message.Kind = model.MessageKindBad
		case model.MessageKindWarning:
			message.Kind = model.MessageKindWarning
		}
	}
	message.Title = normalizedText(output.ChildrenFiltered(selectorMessageTitle).First())
	output.Find(selectorMessageDetails).Each(func(_ int, detail *goquery.Selection) {
		message.Details = append(message.Details, normalizedText(detail))
	})
	return message, nil
}

// Bounds is an element's bounding box in CSS pixels, relative to the dashboard grid.
type Bounds struct {
	Left      float64 `json:"left"`
	Top       float64 `json:"top"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GridWidth float64 `json:"gridWidth"`
}

// GeometryFromBounds converts a rendered widget box into grid cells.
func GeometryFromBounds(bounds Bounds, rowHeight float64) model.Geometry {
	if bounds.GridWidth <= 0 || rowHeight <= 0 {
		return model.Geometry{}
	}
	columnWidth := bounds.GridWidth / model.GridColumns
	return model.Geometry{
		X:      int(math.Round(bounds.Left / columnWidth)),
		Y:      int(math.Round(bounds.Top / rowHeight)),
		Width:  int(math.Round(bounds.Width / columnWidth)),
		Height: int(math.Round(bounds.Height / rowHeight)),
	}
}
