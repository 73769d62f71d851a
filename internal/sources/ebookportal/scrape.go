// Package ebookportal scrapes a library e-book portal that offers no
// API. The portal renders its search results client-side, so a headless
// browser does the fetching and a JS snippet lifts the rows out of the
// DOM.
package ebookportal

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultScrapeTimeout = 45 * time.Second

var (
	chromedpExecAllocator = chromedp.NewExecAllocator
	chromedpContext       = chromedp.NewContext
	chromedpRunner        = chromedp.Run
)

// scrapedBook is one row lifted from the portal's search results page.
type scrapedBook struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Publisher    string `json:"publisher"`
	Availability string `json:"availability"`
	Link         string `json:"link"`
}

// extractRowsJS maps the portal's result list into plain objects. Keep
// the selectors in sync with resultSelector below.
const extractRowsJS = `
Array.from(document.querySelectorAll('.book-list .book-item')).map((el) => ({
	title: (el.querySelector('.book-title')?.textContent || '').trim(),
	author: (el.querySelector('.book-author')?.textContent || '').trim(),
	publisher: (el.querySelector('.book-publisher')?.textContent || '').trim(),
	availability: (el.querySelector('.book-status')?.textContent || '').trim(),
	link: el.querySelector('a')?.href || '',
}))
`

// resultSelector is awaited before extraction; the portal shows it for
// both "results" and "no results" states.
const resultSelector = ".book-list"

func buildExecAllocatorOptions(headless bool) []chromedp.ExecAllocatorOption {
	return []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-default-browser-check", true),
	}
}

// scrapeSearch drives the browser through one keyword search. The whole
// browser session lives inside this call; nothing is shared between
// searches.
func (s *Source) scrapeSearch(parentCtx context.Context, keyword string) ([]scrapedBook, error) {
	ctx, cancel := context.WithTimeout(parentCtx, s.timeout)
	defer cancel()

	allocCtx, cancelAllocator := chromedpExecAllocator(ctx, buildExecAllocatorOptions(s.headless)...)
	defer cancelAllocator()

	browserCtx, cancelBrowser := chromedpContext(allocCtx)
	defer cancelBrowser()

	searchURL := fmt.Sprintf("%s/search?keyword=%s", s.baseURL, url.QueryEscape(keyword))

	var rows []scrapedBook
	err := chromedpRunner(browserCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitReady(resultSelector, chromedp.ByQuery),
		chromedp.Evaluate(extractRowsJS, &rows),
	)
	if err != nil {
		return nil, fmt.Errorf("ebook portal scrape failed: %w", err)
	}

	return filterRows(rows), nil
}

// filterRows drops rows without a title; those are layout artifacts,
// not books.
func filterRows(rows []scrapedBook) []scrapedBook {
	books := make([]scrapedBook, 0, len(rows))
	for _, row := range rows {
		if row.Title != "" {
			books = append(books, row)
		}
	}
	return books
}
