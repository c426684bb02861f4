package source

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Fetcher opens remote objects
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// OpenInput opens a local path or s3:// URI as a workbook. fetcher may be
// nil for local input. The caller closes the workbook.
func OpenInput(ctx context.Context, input string, fetcher Fetcher) (*Workbook, error) {
	if !IsS3URI(input) {
		return Open(input)
	}
	if fetcher == nil {
		return nil, errors.New("s3 input requires an s3 fetcher")
	}
	bucket, key, err := ParseS3URI(input)
	if err != nil {
		return nil, err
	}
	body, err := fetcher.Fetch(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return OpenReader(body)
}

// Load opens a local path or s3:// URI and reads the named sheet, or the
// selected one when sheet is empty. fetcher may be nil for local input.
func Load(ctx context.Context, input, sheet string, fetcher Fetcher) (*Sheet, error) {
	wb, err := OpenInput(ctx, input, fetcher)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	s, err := wb.Sheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", input, err)
	}
	return s, nil
}
