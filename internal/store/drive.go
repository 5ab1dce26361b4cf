package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/felo/mailnotes/internal/notes"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveOptions configures the Google Drive store backend
type DriveOptions struct {
	CredentialsFile string // service account JSON key file
	FolderName      string // folder holding the notes, created when missing
	FolderID        string // optional folder id override, skips the lookup
	Impersonate     string // optional delegated user for domain-wide delegation
}

// Drive is a Store keeping each note as a Markdown file in a Google
// Drive folder. File names derive from the normalized note key, so
// lookups follow the same identity rules as the local backends.
type Drive struct {
	svc      *drive.Service
	folderID string
}

// NewDrive authenticates with a service account and resolves the notes
// folder, creating it when it does not exist
func NewDrive(ctx context.Context, opts DriveOptions) (*Drive, error) {
	data, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(data, drive.DriveFileScope, drive.DriveMetadataScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	if opts.Impersonate != "" {
		jwtCfg.Subject = opts.Impersonate
	}

	svc, err := drive.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	d := &Drive{svc: svc}
	d.folderID, err = d.ensureFolder(ctx, opts.FolderName, opts.FolderID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ensureFolder resolves the notes folder id, creating the folder when missing
func (d *Drive) ensureFolder(ctx context.Context, name, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(name), folderMimeType)
	list, err := d.svc.Files.List().Context(ctx).
		Q(query).
		Spaces("drive").
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up notes folder: %w", err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder, err := d.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}).Context(ctx).Fields("id").SupportsAllDrives(true).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create notes folder: %w", err)
	}
	return folder.Id, nil
}

// FindByKey returns the note stored under a key, or ErrNotFound
func (d *Drive) FindByKey(ctx context.Context, key string) (*Note, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false",
		escapeQuery(noteFileName(key)), d.folderID)
	list, err := d.svc.Files.List().Context(ctx).
		Q(query).
		Spaces("drive").
		Fields("files(id, name, modifiedTime)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search for note: %w", err)
	}
	if len(list.Files) == 0 {
		return nil, ErrNotFound
	}

	f := list.Files[0]
	body, err := d.download(ctx, f.Id)
	if err != nil {
		return nil, err
	}

	note := &Note{Ref: f.Id, Key: key, Body: body}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		note.UpdatedAt = t
	}
	return note, nil
}

// Create stores a new note as a Markdown file in the notes folder
func (d *Drive) Create(ctx context.Context, key, body string) (*Note, error) {
	f, err := d.svc.Files.Create(&drive.File{
		Name:     noteFileName(key),
		MimeType: "text/markdown",
		Parents:  []string{d.folderID},
	}).Context(ctx).
		Media(strings.NewReader(body), googleapi.ContentType("text/markdown")).
		Fields("id, webViewLink").
		SupportsAllDrives(true).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create note file: %w", err)
	}

	return &Note{Ref: f.Id, Key: key, Body: body, UpdatedAt: time.Now().UTC()}, nil
}

// Update replaces the body of the note file referenced by ref
func (d *Drive) Update(ctx context.Context, ref, body string) error {
	_, err := d.svc.Files.Update(ref, &drive.File{}).Context(ctx).
		Media(strings.NewReader(body), googleapi.ContentType("text/markdown")).
		Fields("id").
		SupportsAllDrives(true).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update note file: %w", err)
	}
	return nil
}

// List returns note metadata, most recently modified first. Bodies are
// not downloaded; use FindByKey for content.
func (d *Drive) List(ctx context.Context) ([]*Note, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = 'text/markdown' and trashed = false",
		d.folderID)
	list, err := d.svc.Files.List().Context(ctx).
		Q(query).
		Spaces("drive").
		OrderBy("modifiedTime desc").
		Fields("files(id, name, modifiedTime)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	out := make([]*Note, 0, len(list.Files))
	for _, f := range list.Files {
		note := &Note{Ref: f.Id, Key: strings.TrimSuffix(f.Name, ".md")}
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			note.UpdatedAt = t
		}
		out = append(out, note)
	}
	return out, nil
}

// download fetches the full content of a Drive file
func (d *Drive) download(ctx context.Context, fileID string) (string, error) {
	resp, err := d.svc.Files.Get(fileID).Context(ctx).SupportsAllDrives(true).Download()
	if err != nil {
		return "", fmt.Errorf("failed to download note %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read note %s: %w", fileID, err)
	}
	return string(data), nil
}

// noteFileName maps a note key to its Drive file name
func noteFileName(key string) string {
	return notes.SanitizeFileName(key) + ".md"
}

// escapeQuery escapes single quotes for Drive query strings
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}
