package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os/exec"
	"strings"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/logger"
	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

var errEmptyDocument = errors.New("no text extracted from PDF (PDF might be empty or images are unreadable)")

// PDFExtractor turns an uploaded resume into plain text. Scanned documents
// without a text layer go through tesseract when it is installed.
type PDFExtractor struct {
	Logger     *zap.Logger
	DisableOCR bool
}

// ExtractPDFText extracts text from r with the default extractor.
func ExtractPDFText(r io.Reader) (string, error) {
	return (&PDFExtractor{}).Extract(context.Background(), r)
}

func (e *PDFExtractor) Extract(ctx context.Context, r io.Reader) (string, error) {
	const op = "extract.pdf"
	log := logger.OrNop(e.Logger)

	data, err := io.ReadAll(r)
	if err != nil {
		return "", apperr.Wrap(op, apperr.ErrExtraction, fmt.Errorf("failed to read document: %w", err))
	}
	if len(data) == 0 {
		return "", apperr.Errorf(op, apperr.ErrExtraction, "document is empty")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return "", apperr.Wrap(op, apperr.ErrExtraction, fmt.Errorf("invalid PDF: %w", err))
	}

	doc, err := fitz.NewFromReader(bytes.NewReader(data))
	if err != nil {
		return "", apperr.Wrap(op, apperr.ErrExtraction, fmt.Errorf("failed to open PDF: %w", err))
	}
	defer doc.Close()

	log.Debug("pdf opened", zap.Int("pages", doc.NumPage()), zap.Int("bytes", len(data)))

	var fullText strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			return "", apperr.Wrap(op, apperr.ErrExtraction, fmt.Errorf("page %d: %w", n+1, err))
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			fullText.WriteString(pageText)
			fullText.WriteString("\n\n")
		}
	}

	if result := strings.TrimSpace(fullText.String()); result != "" {
		log.Debug("text layer extracted", zap.Int("chars", len(result)))
		return result, nil
	}

	if e.DisableOCR {
		return "", apperr.Wrap(op, apperr.ErrExtraction, errEmptyDocument)
	}

	log.Info("pdf has no text layer, falling back to OCR", zap.Int("pages", doc.NumPage()))
	result, err := ocrDocument(ctx, doc, log)
	if err != nil {
		return "", apperr.Wrap(op, apperr.ErrExtraction, err)
	}
	return result, nil
}

// ocrDocument renders every page and runs tesseract over it.
func ocrDocument(ctx context.Context, doc *fitz.Document, log *zap.Logger) (string, error) {
	if err := checkTesseract(ctx); err != nil {
		return "", fmt.Errorf("tesseract check failed: %w", err)
	}

	var fullText bytes.Buffer
	var lastErr error

	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		img, err := doc.Image(n)
		if err != nil {
			lastErr = fmt.Errorf("page %d: failed to extract image: %w", n+1, err)
			log.Warn("ocr page skipped", zap.Error(lastErr))
			continue
		}

		var page bytes.Buffer
		if err := png.Encode(&page, img); err != nil {
			lastErr = fmt.Errorf("page %d: failed to encode PNG: %w", n+1, err)
			log.Warn("ocr page skipped", zap.Error(lastErr))
			continue
		}

		cmd := exec.CommandContext(ctx, "tesseract", "stdin", "stdout", "-l", "eng")
		cmd.Stdin = &page
		out, err := cmd.Output()
		if err != nil {
			lastErr = fmt.Errorf("page %d: tesseract error: %w", n+1, err)
			log.Warn("ocr page skipped", zap.Error(lastErr))
			continue
		}

		pageText := strings.TrimSpace(string(out))
		log.Debug("ocr page done", zap.Int("page", n+1), zap.Int("chars", len(pageText)))
		if pageText != "" {
			fullText.WriteString(pageText)
			fullText.WriteString("\n\n")
		}
	}

	result := strings.TrimSpace(fullText.String())
	if result == "" {
		if lastErr != nil {
			return "", fmt.Errorf("failed to extract text via OCR: %w", lastErr)
		}
		return "", errEmptyDocument
	}
	return result, nil
}

// checkTesseract verifies tesseract is installed and runnable.
func checkTesseract(ctx context.Context) error {
	if _, err := exec.CommandContext(ctx, "tesseract", "--version").CombinedOutput(); err != nil {
		return fmt.Errorf("tesseract not found or not executable: %w", err)
	}
	return nil
}
