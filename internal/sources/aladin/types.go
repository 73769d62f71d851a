package aladin

import (
	"encoding/xml"
	"strings"
)

// Book is one item from the Aladin TTB API, flattened for internal use.
type Book struct {
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
	PubDate       string `json:"pub_date,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	ISBN13        string `json:"isbn13,omitempty"`
	Description   string `json:"description,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
	Link          string `json:"link,omitempty"`
	Category      string `json:"category,omitempty"`
	PriceSales    int    `json:"price_sales,omitempty"`
	PriceStandard int    `json:"price_standard,omitempty"`
}

// PreferredISBN returns the ISBN-13 when present, the ISBN-10 otherwise.
func (b Book) PreferredISBN() string {
	if b.ISBN13 != "" {
		return b.ISBN13
	}
	return b.ISBN
}

// MainTitle strips subtitle decoration (" - subtitle", trailing
// parenthetical) from the listed title. Aladin titles carry the full
// subtitle, which hurts title searches against other sources.
func (b Book) MainTitle() string {
	title := b.Title
	for _, sep := range []string{" - ", " ("} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}

// apiResponse is the XML envelope shared by ItemSearch and ItemLookUp.
// The TTB API reports failures in-band via errorCode/errorMessage.
type apiResponse struct {
	XMLName      xml.Name  `xml:"object"`
	ErrorCode    int       `xml:"errorCode"`
	ErrorMessage string    `xml:"errorMessage"`
	TotalResults int       `xml:"totalResults"`
	Items        []apiItem `xml:"item"`
}

type apiItem struct {
	Title         string `xml:"title"`
	Author        string `xml:"author"`
	Publisher     string `xml:"publisher"`
	PubDate       string `xml:"pubDate"`
	ISBN          string `xml:"isbn"`
	ISBN13        string `xml:"isbn13"`
	Description   string `xml:"description"`
	Cover         string `xml:"cover"`
	Link          string `xml:"link"`
	CategoryName  string `xml:"categoryName"`
	PriceSales    int    `xml:"priceSales"`
	PriceStandard int    `xml:"priceStandard"`
}

func (i apiItem) toBook() Book {
	return Book{
		Title:         i.Title,
		Author:        i.Author,
		Publisher:     i.Publisher,
		PubDate:       i.PubDate,
		ISBN:          i.ISBN,
		ISBN13:        i.ISBN13,
		Description:   i.Description,
		CoverURL:      i.Cover,
		Link:          i.Link,
		Category:      i.CategoryName,
		PriceSales:    i.PriceSales,
		PriceStandard: i.PriceStandard,
	}
}
