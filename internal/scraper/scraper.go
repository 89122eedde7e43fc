package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/pfrederiksen/seat-watch/internal/course"
)

const (
	TimetableURL = "https://oracle-www.dartmouth.edu/dart/groucho/timetable.display_courses"
	EnrollURL    = "https://oracle-www.dartmouth.edu/dart/groucho/timetable.main"
	UserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	Timeout = 30 * time.Second

	maxPageSize = 4 << 20 // 4MB
)

// noValue is the placeholder the timetable form sends for unselected options
const noValue = "no_value"

// timetableForm is the public "search by subject" form. The terms and depts keys are
// repeated; the first value is always the no_value placeholder.
type timetableForm struct {
	DistribRadio  string   `url:"distribradio"`
	SubjectRadio  string   `url:"subjectradio"`
	TermRadio     string   `url:"termradio"`
	HoursRadio    string   `url:"hoursradio"`
	Periods       string   `url:"periods"`
	Distribs      string   `url:"distribs"`
	DistribsI     string   `url:"distribs_i"`
	DistribsWC    string   `url:"distribs_wc"`
	DistribsLang  string   `url:"distribs_lang"`
	SortOrder     string   `url:"sortorder"`
	DeliveryRadio string   `url:"deliveryradio"`
	DeliveryModes string   `url:"deliverymodes"`
	PMode         string   `url:"pmode"`
	Term          string   `url:"term"`
	Levl          string   `url:"levl"`
	FYS           string   `url:"fys"`
	WRT           string   `url:"wrt"`
	PE            string   `url:"pe"`
	Review        string   `url:"review"`
	CRNL          string   `url:"crnl"`
	ClassYear     string   `url:"classyear"`
	SearchType    string   `url:"searchtype"`
	Terms         []string `url:"terms"`
	Depts         []string `url:"depts"`
}

func newTimetableForm(term, dept string) timetableForm {
	return timetableForm{
		DistribRadio:  "alldistribs",
		SubjectRadio:  "selectsubjects",
		TermRadio:     "selectterms",
		HoursRadio:    "allhours",
		Periods:       noValue,
		Distribs:      noValue,
		DistribsI:     noValue,
		DistribsWC:    noValue,
		DistribsLang:  noValue,
		SortOrder:     "dept",
		DeliveryRadio: "alldelivery",
		DeliveryModes: noValue,
		PMode:         "public",
		FYS:           "n",
		WRT:           "n",
		PE:            "n",
		Review:        "n",
		CRNL:          noValue,
		ClassYear:     "2008",
		SearchType:    "Subject Area(s)",
		Terms:         []string{noValue, term},
		Depts:         []string{noValue, dept},
	}
}

// Fetcher retrieves timetable pages. It never retries; the monitor owns retry policy.
type Fetcher struct {
	client    *http.Client
	url       string
	userAgent string
}

// NewFetcher creates a Fetcher for the given endpoint. An empty endpoint selects
// TimetableURL and a non-positive timeout selects Timeout.
func NewFetcher(endpoint string, timeout time.Duration) *Fetcher {
	if endpoint == "" {
		endpoint = TimetableURL
	}
	if timeout <= 0 {
		timeout = Timeout
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		url:       endpoint,
		userAgent: UserAgent,
	}
}

// URL returns the endpoint the fetcher posts to
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch posts the search form for the target's term and department and returns the page.
func (f *Fetcher) Fetch(ctx context.Context, target course.Target) ([]byte, error) {
	values, err := query.Values(newTimetableForm(target.Term, target.Dept))
	if err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetching timetable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, &NetworkError{Op: "reading timetable", Err: err}
	}

	return body, nil
}
