package dto

import "github.com/cesargomez89/powerhour/internal/domain"

// ScanRequest starts a library scan of a folder.
type ScanRequest struct {
	Path        string `json:"path"`
	Name        string `json:"name,omitempty"`
	MakeCurrent bool   `json:"make_current"`
	Force       bool   `json:"force"`
}

func (r *ScanRequest) Validate() []ValidationError {
	return validateRequired("path", r.Path)
}

// ExtractClipRequest cuts one clip out of a source song.
type ExtractClipRequest struct {
	SourcePath string  `json:"source_path"`
	SourceName string  `json:"source_name,omitempty"`
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
}

func (r *ExtractClipRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("source_path", r.SourcePath)...)
	errs = append(errs, validateNonNegative("start", r.Start)...)
	errs = append(errs, validatePositive("duration", r.Duration)...)
	return errs
}

// ComposeMixRequest renders a mix from the given clip references.
type ComposeMixRequest struct {
	Name            string           `json:"name"`
	Clips           []domain.ClipRef `json:"clips"`
	UseInterstitial bool             `json:"use_interstitial"`
}

func (r *ComposeMixRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("name", r.Name)...)
	if len(r.Clips) == 0 {
		errs = append(errs, ValidationError{Field: "clips", Message: "must contain at least one clip"})
	}
	return errs
}

// RenameRequest updates a record's display name.
type RenameRequest struct {
	Name string `json:"name"`
}

func (r *RenameRequest) Validate() []ValidationError {
	return validateRequired("name", r.Name)
}

// SavePlaylistRequest persists a reusable clip list.
type SavePlaylistRequest struct {
	Name             string           `json:"name"`
	Clips            []domain.ClipRef `json:"clips"`
	InterstitialPath string           `json:"interstitial_path,omitempty"`
}

func (r *SavePlaylistRequest) Validate() []ValidationError {
	return validateRequired("name", r.Name)
}

// AddSongRequest appends one file to a library record. An empty library
// path targets the current library.
type AddSongRequest struct {
	LibraryPath string `json:"library_path,omitempty"`
	Path        string `json:"path"`
}

func (r *AddSongRequest) Validate() []ValidationError {
	return validateRequired("path", r.Path)
}

// UpdateMetadataRequest patches tag fields of a cached song. Nil fields are
// left untouched.
type UpdateMetadataRequest struct {
	LibraryPath string `json:"library_path,omitempty"`

	Path   string  `json:"path"`
	Title  *string `json:"title,omitempty"`
	Artist *string `json:"artist,omitempty"`
	Album  *string `json:"album,omitempty"`
	Genre  *string `json:"genre,omitempty"`
	Year   *int    `json:"year,omitempty"`
}

func (r *UpdateMetadataRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("path", r.Path)...)
	if r.Year != nil && (*r.Year < 0 || *r.Year > 2100) {
		errs = append(errs, ValidationError{Field: "year", Message: "must be between 0 and 2100"})
	}
	return errs
}

// SettingRequest sets one application setting value.
type SettingRequest struct {
	Value string `json:"value"`
}

// ArchivePathRequest names the archive file an export writes or an import
// reads.
type ArchivePathRequest struct {
	Path string `json:"path"`
}

func (r *ArchivePathRequest) Validate() []ValidationError {
	return validateRequired("path", r.Path)
}
