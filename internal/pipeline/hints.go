package pipeline

import (
	"errors"
	"os"

	"github.com/csheth/paperchunk/internal/config"
	"github.com/csheth/paperchunk/internal/output"
	"github.com/csheth/paperchunk/internal/pdftext"
	"github.com/csheth/paperchunk/internal/source"
)

// Hints suggests what the user can try after err.
func Hints(err error) []string {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, source.ErrUnreachable):
		return []string{
			"Check that the URL or file path is correct.",
			"Check your internet connection.",
			"Some publishers block automated downloads or require a subscription; download the PDF manually and pass the local file.",
		}
	case errors.Is(err, pdftext.ErrEncrypted):
		return []string{
			"The PDF is password protected. Save an unlocked copy and try again.",
		}
	case errors.Is(err, pdftext.ErrExtraction):
		return []string{
			"Make sure the file is a PDF with selectable text.",
			"Scanned papers need OCR before they can be chunked.",
			"Re-saving the PDF with another viewer sometimes repairs broken files.",
		}
	case errors.Is(err, output.ErrExists):
		return []string{
			"An output directory with the same name already exists. Wait a second and retry, or pick another --output directory.",
		}
	case errors.Is(err, config.ErrInvalid):
		return []string{
			"Check the config file and any PAPERCHUNK_* environment variables.",
		}
	case errors.Is(err, ErrNoSources):
		return []string{
			"Check the folder path, the --pattern glob, or the list file contents.",
		}
	case errors.Is(err, os.ErrPermission):
		return []string{
			"Check that the output directory is writable.",
		}
	default:
		return nil
	}
}
