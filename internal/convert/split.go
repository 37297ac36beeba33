package convert

import "regexp"

// Page and slide boundaries are heuristic: extracted text carries form feeds
// between PDF pages, while runs of blank lines separate logical sections in
// everything else. Both splitters are pure so they can be tested without any
// file or network I/O.
var (
	pageBoundary  = regexp.MustCompile(`\f|\n{3,}`)
	slideBoundary = regexp.MustCompile(`Slide \d+|\n{3,}`)
	formFeed      = regexp.MustCompile(`\f`)
)

// SplitPages splits extracted document text into page segments on form-feed
// characters or runs of three or more newlines. Segments are returned
// untrimmed and may be empty.
func SplitPages(text string) []string {
	return pageBoundary.Split(text, -1)
}

// SplitSlides splits extracted presentation text into slide segments on
// literal "Slide <number>" markers or runs of three or more newlines.
func SplitSlides(text string) []string {
	return slideBoundary.Split(text, -1)
}

// SplitFormFeed splits text on form-feed characters only; used for PDF slide
// decks where one page is one slide.
func SplitFormFeed(text string) []string {
	return formFeed.Split(text, -1)
}
