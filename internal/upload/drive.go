// Package upload pushes persisted artifacts into a fixed Google Drive
// folder using a service-account credential.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/umerkhan-dev/weather-etl/internal/persist"
)

// ErrNoCredentials indicates no service-account key file could be found.
var ErrNoCredentials = errors.New("no service account credentials file found")

// RemoteFile describes the created remote file.
type RemoteFile struct {
	ID          string
	Name        string
	WebViewLink string
}

// FileCreator abstracts the remote file-create call so tests can stub
// the Drive API.
type FileCreator interface {
	Create(ctx context.Context, name, folderID, mimeType string, content io.Reader) (RemoteFile, error)
}

// ResolveCredentials returns the first existing path among primary and
// alternate. Both absent means upload is disabled for the run.
func ResolveCredentials(primary, alternate string) (string, error) {
	for _, p := range []string{primary, alternate} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %q and %q", ErrNoCredentials, primary, alternate)
}

// driveCreator implements FileCreator against the Drive v3 API.
type driveCreator struct {
	svc *drive.Service
}

func (d *driveCreator) Create(ctx context.Context, name, folderID, mimeType string, content io.Reader) (RemoteFile, error) {
	meta := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}
	created, err := d.svc.Files.Create(meta).
		Media(content, googleapi.ContentType(mimeType)).
		Fields("id", "name", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return RemoteFile{}, err
	}
	return RemoteFile{
		ID:          created.Id,
		Name:        created.Name,
		WebViewLink: created.WebViewLink,
	}, nil
}

// Uploader creates one new remote file per artifact inside a fixed
// destination folder. No dedup and no versioning: two runs uploading the
// same basename produce two remote files.
type Uploader struct {
	creator  FileCreator
	folderID string
	log      *log.Logger
}

// NewUploader wires an Uploader over any FileCreator.
func NewUploader(creator FileCreator, folderID string, l *log.Logger) *Uploader {
	if l == nil {
		l = log.Default()
	}
	return &Uploader{creator: creator, folderID: folderID, log: l}
}

// NewDriveUploader authenticates with the service-account key file and
// builds an Uploader backed by the Drive v3 API.
func NewDriveUploader(ctx context.Context, credentialsFile, folderID string, l *log.Logger) (*Uploader, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	return NewUploader(&driveCreator{svc: svc}, folderID, l), nil
}

// Upload creates a remote file named after the artifact's basename with
// the MIME type fixed by its format. Failures are returned to the caller;
// deciding whether they are fatal is the pipeline's job.
func (u *Uploader) Upload(ctx context.Context, art persist.Artifact) (RemoteFile, error) {
	f, err := os.Open(art.Path)
	if err != nil {
		return RemoteFile{}, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	remote, err := u.creator.Create(ctx, filepath.Base(art.Path), u.folderID, art.Format.MIMEType(), f)
	if err != nil {
		return RemoteFile{}, fmt.Errorf("create remote file: %w", err)
	}

	u.log.Printf("uploaded %s (id=%s)", remote.Name, remote.ID)
	if remote.WebViewLink != "" {
		u.log.Printf("web view link: %s", remote.WebViewLink)
	}
	return remote, nil
}
