package guidelines

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/bobmcallan/pagoda/internal/interfaces"
)

// Page is the plain text of one PDF page.
type Page struct {
	Number int
	Text   string
}

// ExtractPages returns the text of every page that has any. Pages the
// reader cannot decode are skipped. A document that cannot be opened at
// all is ErrInvalidInput.
func ExtractPages(data []byte) (pages []Page, err error) {
	// The reader panics on some malformed documents.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("%w: unreadable PDF: %v", interfaces.ErrInvalidInput, rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable PDF: %v", interfaces.ErrInvalidInput, err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || len(bytes.TrimSpace([]byte(text))) == 0 {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
