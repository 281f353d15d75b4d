package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"seiza/internal/ports"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// Client implements ports.StorageProvider backed by Google Drive.
// Uploads use the object key as the Drive file name and return the
// Drive file id, which later reads and deletes take as the key.
type Client struct {
	srv      *drive.Service
	folderID string
}

func NewClient(srv *drive.Service, folderID string) *Client {
	return &Client{srv: srv, folderID: folderID}
}

func (c *Client) Provider() string { return "gdrive" }

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("object_key is required")
	}

	file := &drive.File{Name: in.ObjectKey}
	if c.folderID != "" {
		file.Parents = []string{c.folderID}
	}

	call := c.srv.Files.Create(file)
	if in.ContentType != "" {
		call = call.Media(in.Reader, googleapi.ContentType(in.ContentType))
	} else {
		call = call.Media(in.Reader)
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		return ports.PutObjectOutput{}, fmt.Errorf("gdrive upload failed: %w", err)
	}

	return ports.PutObjectOutput{ObjectKey: created.Id, Size: in.Size}, nil
}

func (c *Client) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	resp, err := c.srv.Files.Get(objectKey).
		SupportsAllDrives(true).
		Download()
	if err != nil {
		return nil, "", 0, err
	}

	contentType = resp.Header.Get("Content-Type")
	size = resp.ContentLength
	return resp.Body, contentType, size, nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	err := c.srv.Files.Delete(objectKey).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil
		}
		return err
	}
	return nil
}

func (c *Client) ListObjects(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	query := "trashed = false"
	if c.folderID != "" {
		query = fmt.Sprintf("'%s' in parents and trashed = false", c.folderID)
	}

	var out []ports.ObjectInfo
	pageToken := ""
	for {
		call := c.srv.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, size, modifiedTime)").
			PageSize(200).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("gdrive list failed: %w", err)
		}

		for _, f := range res.Files {
			if prefix != "" && !strings.HasPrefix(f.Name, prefix) {
				continue
			}
			mod, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			out = append(out, ports.ObjectInfo{
				Key:     f.Id,
				Name:    f.Name,
				Size:    f.Size,
				ModTime: mod,
			})
		}

		if res.NextPageToken == "" {
			return out, nil
		}
		pageToken = res.NextPageToken
	}
}
