package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dgallion1/docqa/internal/parser"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	mimeFolder       = "application/vnd.google-apps.folder"
	mimeNativePrefix = "application/vnd.google-apps."

	listFields   = "nextPageToken, files(id, name, mimeType, size)"
	listPageSize = 1000
)

var (
	bareFolderID = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)
	folderInURL  = regexp.MustCompile(`/folders/([A-Za-z0-9_-]+)`)
)

// FolderID extracts a Drive folder id from a share link or a bare id.
func FolderID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if bareFolderID.MatchString(link) {
		return link, nil
	}
	if m := folderInURL.FindStringSubmatch(link); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("could not parse folder id from %q", link)
}

// DriveOptions tune the Drive source.
type DriveOptions struct {
	RequestsPerSecond float64 // <= 0 means unlimited
	MaxFileBytes      int64   // <= 0 means no cap
}

// Drive downloads the regular files of one Drive folder into a scratch
// directory. Native Google Workspace files and subfolders are skipped.
type Drive struct {
	svc      *drive.Service
	folderID string
	opts     DriveOptions
	limiter  *rate.Limiter
	log      *slog.Logger
}

// NewDrive authenticates with a service-account key file using the
// read-only Drive scope.
func NewDrive(ctx context.Context, credentialsFile, folderLink string, opts DriveOptions, log *slog.Logger) (*Drive, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return NewDriveFromService(svc, folderLink, opts, log)
}

// NewDriveFromService wraps an existing Drive client.
func NewDriveFromService(svc *drive.Service, folderLink string, opts DriveOptions, log *slog.Logger) (*Drive, error) {
	id, err := FolderID(folderLink)
	if err != nil {
		return nil, err
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Drive{
		svc:      svc,
		folderID: id,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		log:      log.With("folder_id", id),
	}, nil
}

func (d *Drive) Name() string { return "drive:" + d.folderID }

// Fetch lists the folder and downloads every regular file the loader can
// parse. The returned
// Batch owns a scratch directory that the caller must Cleanup.
func (d *Drive) Fetch(ctx context.Context) (*Batch, error) {
	files, err := d.list(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrEmptyFolder
	}

	dir, err := os.MkdirTemp("", "docqa-drive-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	b := &Batch{scratch: dir}

	used := make(map[string]bool)
	for _, f := range files {
		log := d.log.With("file", f.Name, "file_id", f.Id)
		switch {
		case f.MimeType == mimeFolder:
			log.Debug("skipping subfolder")
			b.Skipped = append(b.Skipped, f.Name)
			continue
		case strings.HasPrefix(f.MimeType, mimeNativePrefix):
			log.Info("skipping native Google file", "mime_type", f.MimeType)
			b.Skipped = append(b.Skipped, f.Name)
			continue
		case !parser.IsSupportedExtension(f.Name):
			log.Info("unsupported file type, skipping")
			b.Skipped = append(b.Skipped, f.Name)
			continue
		case d.opts.MaxFileBytes > 0 && f.Size > d.opts.MaxFileBytes:
			log.Warn("file too large, skipping", "size", f.Size, "max", d.opts.MaxFileBytes)
			b.Skipped = append(b.Skipped, f.Name)
			continue
		}

		dest := filepath.Join(dir, localName(f, used))
		if err := d.download(ctx, f.Id, dest); err != nil {
			if ctx.Err() != nil {
				b.Cleanup()
				return nil, ctx.Err()
			}
			log.Error("download failed, skipping", "error", err)
			b.Skipped = append(b.Skipped, f.Name)
			continue
		}
		b.Paths = append(b.Paths, dest)
	}

	d.log.Info("fetched drive folder", "listed", len(files), "downloaded", len(b.Paths), "skipped", len(b.Skipped))
	return b, nil
}

// list follows nextPageToken until the listing is exhausted.
func (d *Drive) list(ctx context.Context) ([]*drive.File, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", d.folderID)

	var files []*drive.File
	pageToken := ""
	for {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		call := d.svc.Files.List().
			Q(q).
			Fields(listFields).
			PageSize(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list drive folder: %w", wrapDriveError(err))
		}
		files = append(files, resp.Files...)
		if resp.NextPageToken == "" {
			return files, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (d *Drive) download(ctx context.Context, fileID, dest string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := d.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return wrapDriveError(err)
	}
	defer resp.Body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	var body io.Reader = resp.Body
	if d.opts.MaxFileBytes > 0 {
		body = io.LimitReader(resp.Body, d.opts.MaxFileBytes+1)
	}
	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && d.opts.MaxFileBytes > 0 && n > d.opts.MaxFileBytes {
		err = fmt.Errorf("download exceeds %d bytes", d.opts.MaxFileBytes)
	}
	if err != nil {
		os.Remove(dest)
	}
	return err
}

// localName picks a file name inside the scratch dir that keeps the
// original extension and does not collide with earlier downloads.
func localName(f *drive.File, used map[string]bool) string {
	name := filepath.Base(strings.ReplaceAll(f.Name, string(filepath.Separator), "_"))
	if name == "." || name == "" {
		name = f.Id
	}
	if used[name] {
		name = f.Id + "_" + name
	}
	used[name] = true
	return name
}
