package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cavaliercoder/grab"

	"github.com/airbusgeo/stac-fetch/common"
	"github.com/airbusgeo/stac-fetch/service"
)

// errAuth marks a transfer rejected by the storage (401/403). On signed URLs
// this means the token lapsed before its advertised expiry.
type errAuth struct{ error }

func (e *errAuth) Unwrap() error { return e.error }

func isAuthError(err error) bool {
	var e *errAuth
	return errors.As(err, &e)
}

// transfer fetches the asset to dest, routing on the URL scheme, and returns
// the number of bytes written.
func (d *Downloader) transfer(ctx context.Context, itemID string, ref common.AssetRef, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, service.MakeTemporary(fmt.Errorf("make directory %s: %w", filepath.Dir(dest), err))
	}
	if strings.HasPrefix(ref.URL, "s3://") {
		return d.transferS3(ctx, ref.URL, dest)
	}
	return d.transferHTTP(ctx, itemID, ref, dest)
}

func (d *Downloader) transferHTTP(ctx context.Context, itemID string, ref common.AssetRef, dest string) (int64, error) {
	req, err := grab.NewRequest(dest, ref.URL)
	if err != nil {
		return 0, fmt.Errorf("transfer.NewRequest: %w", err)
	}
	req = req.WithContext(ctx)
	resp := d.grab.Do(req)

	d.watchProgress(ctx, itemID, ref.Key, resp)

	if err := resp.Err(); err != nil {
		err = fmt.Errorf("transfer[%s]: %w", ref.URL, err)
		if ctx.Err() != nil {
			return resp.BytesComplete(), service.MakeTemporary(err)
		}
		if resp.HTTPResponse == nil {
			return resp.BytesComplete(), service.MakeTemporary(err)
		}
		switch code := resp.HTTPResponse.StatusCode; {
		case code == 401 || code == 403:
			return resp.BytesComplete(), &errAuth{err}
		case service.TemporaryHTTPCode(code):
			return resp.BytesComplete(), service.MakeTemporary(err)
		default:
			return resp.BytesComplete(), service.MakeFatal(err)
		}
	}
	return resp.BytesComplete(), nil
}

// remoteSize returns the server-reported size of the asset, when the server
// reports one. Partial s3 files are simply re-fetched.
func (d *Downloader) remoteSize(ctx context.Context, ref common.AssetRef) (int64, bool) {
	if strings.HasPrefix(ref.URL, "s3://") {
		return 0, false
	}
	req, err := http.NewRequestWithContext(ctx, "HEAD", ref.URL, nil)
	if err != nil {
		return 0, false
	}
	resp, err := d.grab.HTTPClient.Do(req)
	if err != nil {
		return 0, false
	}
	resp.Body.Close()
	if resp.StatusCode != 200 || resp.ContentLength <= 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

// watchProgress forwards the transfer progress to the observer once per second
// until the transfer completes.
func (d *Downloader) watchProgress(ctx context.Context, itemID, assetKey string, resp *grab.Response) {
	if d.cfg.Observer == nil {
		<-resp.Done
		return
	}
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			d.cfg.Observer.TaskProgress(itemID, assetKey, resp.BytesComplete(), resp.Size)
		case <-resp.Done:
			return
		}
	}
}

func (d *Downloader) transferS3(ctx context.Context, rawURL, dest string) (int64, error) {
	if d.cfg.S3 == nil {
		return 0, fmt.Errorf("transfer[%s]: no s3 client configured", rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("transfer[%s]: %w", rawURL, err)
	}
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")

	f, err := os.Create(dest)
	if err != nil {
		return 0, service.MakeTemporary(fmt.Errorf("transfer.Create: %w", err))
	}
	defer f.Close()

	input := s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}
	if d.cfg.RequestPayer {
		input.RequestPayer = types.RequestPayerRequester
	}
	n, err := d.cfg.S3.Download(ctx, f, &input)
	if err != nil {
		os.Remove(dest)
		err = fmt.Errorf("transfer[%s]: %w", rawURL, err)
		if ctx.Err() != nil {
			return n, service.MakeTemporary(err)
		}
		var respErr interface{ HTTPStatusCode() int }
		if errors.As(err, &respErr) {
			switch code := respErr.HTTPStatusCode(); {
			case code == 401 || code == 403:
				return n, &errAuth{err}
			case service.TemporaryHTTPCode(code):
				return n, service.MakeTemporary(err)
			default:
				return n, service.MakeFatal(err)
			}
		}
		return n, err
	}
	return n, nil
}
