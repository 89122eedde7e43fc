package scraper

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/seat-watch/internal/course"
)

// Column offsets from the CRN cell in the timetable's results table:
// CRN, Subj, Num, Sec, Title, Text, Xlist, Period Code, Period,
// Room, Building, Instructor, WC, Dist, Lang Req, Lim, Enrl, ...
const (
	DefaultLimitOffset    = 15
	DefaultEnrolledOffset = 16
)

// Extractor finds the seat counts for a CRN in a timetable page
type Extractor interface {
	Extract(page []byte, crn string) (course.SeatSnapshot, error)
}

// ExtractorFunc adapts a function to the Extractor interface
type ExtractorFunc func(page []byte, crn string) (course.SeatSnapshot, error)

// Extract calls f(page, crn)
func (f ExtractorFunc) Extract(page []byte, crn string) (course.SeatSnapshot, error) {
	return f(page, crn)
}

// TableExtractor reads seat counts out of the timetable's HTML table.
//
// It first tries to locate the Lim and Enrl columns from the table's header row. When
// the page has no usable header it falls back to fixed offsets from the CRN cell across
// the document's flattened list of <td> cells.
type TableExtractor struct {
	LimitOffset    int
	EnrolledOffset int
}

// NewTableExtractor creates a TableExtractor with the timetable's default offsets
func NewTableExtractor() *TableExtractor {
	return &TableExtractor{
		LimitOffset:    DefaultLimitOffset,
		EnrolledOffset: DefaultEnrolledOffset,
	}
}

// Extract implements Extractor
func (e *TableExtractor) Extract(page []byte, crn string) (course.SeatSnapshot, error) {
	crn = strings.TrimSpace(crn)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return course.SeatSnapshot{}, &ParseError{Reason: "parsing HTML", Err: err}
	}

	cells := doc.Find("td")
	if cells.Length() == 0 {
		return course.SeatSnapshot{}, &ParseError{Reason: "no table cells in page"}
	}

	idx := -1
	cells.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if cellText(sel) == crn {
			idx = i
			return false
		}
		return true
	})
	if idx < 0 {
		return course.SeatSnapshot{}, &NotFoundError{CRN: crn}
	}

	limText, enrlText, ok := countsFromHeader(cells.Eq(idx))
	if !ok {
		limText, enrlText, err = e.countsFromOffsets(cells, idx)
		if err != nil {
			return course.SeatSnapshot{}, err
		}
	}

	limit, err := parseCount("Lim", limText)
	if err != nil {
		return course.SeatSnapshot{}, err
	}
	enrolled, err := parseCount("Enrl", enrlText)
	if err != nil {
		return course.SeatSnapshot{}, err
	}

	return course.NewSeatSnapshot(enrolled, limit), nil
}

func (e *TableExtractor) countsFromOffsets(cells *goquery.Selection, idx int) (string, string, error) {
	last := idx + e.LimitOffset
	if e.EnrolledOffset > e.LimitOffset {
		last = idx + e.EnrolledOffset
	}
	if last >= cells.Length() {
		return "", "", &ParseError{Reason: "row for CRN is truncated"}
	}
	return cellText(cells.Eq(idx + e.LimitOffset)), cellText(cells.Eq(idx + e.EnrolledOffset)), nil
}

// countsFromHeader uses the enclosing table's first row as a header. It only succeeds
// when the header names CRN, Lim and Enrl and the CRN column lines up with cell.
func countsFromHeader(cell *goquery.Selection) (string, string, bool) {
	row := cell.Closest("tr")
	table := row.Closest("table")
	if row.Length() == 0 || table.Length() == 0 {
		return "", "", false
	}

	header := table.Find("tr").First()
	if header.IsSelection(row) {
		return "", "", false
	}

	cols := map[string]int{}
	header.Children().Filter("th, td").Each(func(i int, sel *goquery.Selection) {
		label := strings.ToLower(cellText(sel))
		if _, seen := cols[label]; !seen {
			cols[label] = i
		}
	})

	crnCol, okCRN := cols["crn"]
	limCol, okLim := cols["lim"]
	enrlCol, okEnrl := cols["enrl"]
	if !okCRN || !okLim || !okEnrl {
		return "", "", false
	}

	rowCells := row.Children().Filter("th, td")
	if rowCells.IndexOfSelection(cell) != crnCol {
		return "", "", false
	}
	if limCol >= rowCells.Length() || enrlCol >= rowCells.Length() {
		return "", "", false
	}

	return cellText(rowCells.Eq(limCol)), cellText(rowCells.Eq(enrlCol)), true
}

// cellText collapses all whitespace runs so markup formatting never affects matching
func cellText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

func parseCount(column, text string) (int, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, &ParseError{Reason: "reading " + column + " column", Err: err}
	}
	if n < 0 {
		return 0, &ParseError{Reason: column + " column is negative: " + text}
	}
	return n, nil
}
