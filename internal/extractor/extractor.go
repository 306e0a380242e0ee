package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pdfsummarizer/internal/domain"

	"github.com/gen2brain/go-fitz"
	"mvdan.cc/xurls/v2"
)

// PageSeparator is placed between the texts of adjacent pages.
const PageSeparator = "\n\n"

// headerWindow is how far into the file the %PDF- marker may appear.
const headerWindow = 1024

var pdfHeader = []byte("%PDF-")

type pageSource interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Close() error
}

// PDFExtractor pulls plain text out of PDF documents held in memory.
type PDFExtractor struct {
	open func(data []byte) (pageSource, error)
	log  *slog.Logger
}

func New(log *slog.Logger) *PDFExtractor {
	return &PDFExtractor{
		open: openFitz,
		log:  log,
	}
}

func openFitz(data []byte) (pageSource, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Extract reads every page in order and joins their text. Pages without
// extractable text (scans, images) contribute an empty string.
func (e *PDFExtractor) Extract(
	ctx context.Context,
	fileName string,
	data []byte,
) (domain.Document, error) {
	if len(data) == 0 {
		return domain.Document{}, domain.NewError(domain.ErrorKindDocumentParse, "document is empty", nil)
	}

	if !bytes.Contains(data[:min(len(data), headerWindow)], pdfHeader) {
		return domain.Document{}, domain.NewError(domain.ErrorKindDocumentParse, "document is not a PDF", nil)
	}

	src, err := e.open(data)
	if err != nil {
		return domain.Document{}, domain.NewError(domain.ErrorKindDocumentParse, "document cannot be opened as PDF", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			e.log.WarnContext(ctx, "Failed to close document",
				"error", closeErr,
				"fileName", fileName)
		}
	}()

	pageCount := src.NumPage()
	pages := make([]string, 0, pageCount)

	for i := range pageCount {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Document{}, domain.NewError(domain.ErrorKindCanceled, "extraction is canceled", ctxErr)
		}

		text, textErr := src.Text(i)
		if textErr != nil {
			return domain.Document{}, domain.NewError(
				domain.ErrorKindDocumentParse,
				fmt.Sprintf("page %d cannot be read", i+1),
				textErr,
			)
		}

		pages = append(pages, strings.TrimRight(text, " \t\r\n"))
	}

	text := JoinPages(pages)
	if strings.TrimSpace(text) == "" {
		text = ""
	}

	e.log.DebugContext(ctx, "Document is extracted",
		"fileName", fileName,
		"pageCount", pageCount,
		"textChars", len(text))

	return domain.Document{
		FileName:  fileName,
		Text:      text,
		PageCount: pageCount,
		Links:     FindLinks(text),
	}, nil
}

func JoinPages(pages []string) string {
	return strings.Join(pages, PageSeparator)
}

// FindLinks returns distinct URLs in order of first appearance.
func FindLinks(text string) []string {
	var links []string
	seen := make(map[string]struct{})

	for _, link := range xurls.Strict().FindAllString(text, -1) {
		if _, ok := seen[link]; ok {
			continue
		}

		seen[link] = struct{}{}
		links = append(links, link)
	}

	return links
}
