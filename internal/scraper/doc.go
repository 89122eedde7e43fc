// Package scraper fetches the Dartmouth timetable and extracts seat counts for one section.
//
// The Fetcher posts the public timetable search form for a term and department and
// returns the raw HTML. An Extractor turns that HTML into a course.SeatSnapshot; the
// default TableExtractor walks the page's table cells with goquery, so it tolerates
// whitespace, attribute order and nested markup. Failures are typed (NetworkError,
// HTTPStatusError, ParseError, NotFoundError) so callers can tell them apart with
// errors.As, though the monitor treats them all as a failed cycle.
package scraper
