package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v5"
	"github.com/jrsteele09/creator-relay/oauthmodel"
)

// Progress is reported after every uploaded chunk.
type Progress struct {
	Uploaded int64
	Total    int64
	Percent  int
}

type ProgressFunc func(Progress)

// UploadVideoFile PUTs size bytes of r to a pre-signed upload URL in
// fixed-size chunks. The transfer goes straight to storage, not through the relay.
// A chunk that fails after all attempts aborts the upload.
func (c *Client) UploadVideoFile(ctx context.Context, uploadURL string, r io.ReaderAt, size int64, progress ProgressFunc) error {
	return c.uploadVideoFile(ctx, uploadURL, r, size, c.chunkSize, progress)
}

func (c *Client) uploadVideoFile(ctx context.Context, uploadURL string, r io.ReaderAt, size, chunkSize int64, progress ProgressFunc) error {
	if size < 0 {
		return &APIError{Kind: oauthmodel.ErrUpload, Message: fmt.Sprintf("invalid video size %d", size)}
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, min(chunkSize, size))

	var uploaded int64
	for uploaded < size {
		end := min(uploaded+chunkSize, size)
		chunk := buf[:end-uploaded]
		n, err := r.ReadAt(chunk, uploaded)
		if n < len(chunk) {
			if err == nil || errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return &APIError{Kind: oauthmodel.ErrUpload, Message: fmt.Sprintf("read bytes %d-%d of %d", uploaded, end-1, size), Err: err}
		}

		if err := c.uploadChunkWithRetry(ctx, uploadURL, chunk, uploaded, size); err != nil {
			return err
		}
		uploaded = end

		if progress != nil {
			progress(Progress{
				Uploaded: uploaded,
				Total:    size,
				Percent:  int(uploaded * 100 / size),
			})
		}
	}
	return nil
}

func (c *Client) uploadChunkWithRetry(ctx context.Context, uploadURL string, chunk []byte, start, total int64) error {
	if c.chunkAttempts <= 1 {
		return c.uploadVideoChunk(ctx, uploadURL, chunk, start, total)
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.uploadVideoChunk(ctx, uploadURL, chunk, start, total)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(c.chunkAttempts))
	return err
}

// uploadVideoChunk PUTs one chunk starting at byte offset start.
func (c *Client) uploadVideoChunk(ctx context.Context, uploadURL string, chunk []byte, start, total int64) error {
	end := start + int64(len(chunk)) - 1
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(chunk))
	if err != nil {
		return &APIError{Kind: oauthmodel.ErrUpload, Err: err}
	}
	req.ContentLength = int64(len(chunk))
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: oauthmodel.ErrUpload, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			Kind:    oauthmodel.ErrUpload,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("bytes %d-%d/%d rejected", start, end, total),
			Body:    body,
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
