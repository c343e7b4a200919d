// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package upload implements the upload workflow behind the upload page: file
// selection, one multipart upload to the separation backend, and tracking of
// the resulting job until its stems are available.
package upload

import "fmt"

// MediaKind classifies an accepted file.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// Model is the separation model requested from the backend.
type Model string

const (
	ModelStandard     Model = "standard"
	ModelAdvanced     Model = "advanced"
	ModelProfessional Model = "professional"
)

// Models lists the selectable models in display order.
func Models() []Model {
	return []Model{ModelStandard, ModelAdvanced, ModelProfessional}
}

// ParseModel validates a model name.
func ParseModel(s string) (Model, error) {
	for _, m := range Models() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// OutputFormat is the requested stem encoding.
type OutputFormat string

const (
	FormatMP3  OutputFormat = "mp3"
	FormatWAV  OutputFormat = "wav"
	FormatFLAC OutputFormat = "flac"
)

// OutputFormats lists the formats in menu order.
func OutputFormats() []OutputFormat { return []OutputFormat{FormatMP3, FormatWAV, FormatFLAC} }

// Label is the option text of the format menu.
func (f OutputFormat) Label() string {
	switch f {
	case FormatMP3:
		return "MP3 (Compressed)"
	case FormatWAV:
		return "WAV (Lossless)"
	case FormatFLAC:
		return "FLAC (High-quality)"
	default:
		return string(f)
	}
}

// Options is the model choice plus the advanced-options panel.
// Only HighQuality and EnhanceBass are sent upstream.
type Options struct {
	Model         Model        `json:"model"`
	HighQuality   bool         `json:"highQuality"`
	EnhanceBass   bool         `json:"enhanceBass"`
	EnhanceVocals bool         `json:"enhanceVocals"`
	OutputFormat  OutputFormat `json:"outputFormat"`
}

// DefaultOptions matches the page's initial form state.
func DefaultOptions() Options {
	return Options{Model: ModelStandard, OutputFormat: FormatMP3}
}

// Validate rejects unknown enum values. An empty output format means mp3.
func (o *Options) Validate() error {
	if _, err := ParseModel(string(o.Model)); err != nil {
		return err
	}
	switch o.OutputFormat {
	case "":
		o.OutputFormat = FormatMP3
	case FormatMP3, FormatWAV, FormatFLAC:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, o.OutputFormat)
	}
	return nil
}

// JobStatus is the lifecycle of the backend job.
type JobStatus string

const (
	StatusNone       JobStatus = "none"
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further transitions can follow.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Label is the status line of the processing panel.
func (s JobStatus) Label() string {
	switch s {
	case StatusQueued:
		return "In Queue..."
	case StatusProcessing:
		return "Processing..."
	case StatusCompleted:
		return "Processing Complete!"
	case StatusFailed:
		return "Processing Failed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return ""
	}
}

// Hint is the explanatory text under the progress bar.
func (s JobStatus) Hint() string {
	switch s {
	case StatusQueued:
		return "Your file is in the processing queue. We'll start working on it shortly."
	case StatusProcessing:
		return "We're separating your audio tracks. This may take a few minutes depending on file length."
	case StatusCompleted:
		return "Your audio has been successfully separated! Download the individual tracks below."
	case StatusFailed:
		return MsgProcessingFailed
	case StatusCancelled:
		return MsgCancelled
	default:
		return ""
	}
}

// OutputFile is one downloadable stem.
type OutputFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// StaticOutputs is the fixed stem list produced by the simulated tracker.
func StaticOutputs() []OutputFile {
	return []OutputFile{
		{Name: "vocals.mp3", URL: "#"},
		{Name: "instruments.mp3", URL: "#"},
		{Name: "drums.mp3", URL: "#"},
		{Name: "bass.mp3", URL: "#"},
	}
}

// Selection is the file currently chosen on the page.
type Selection struct {
	Name     string    `json:"name"`
	Kind     MediaKind `json:"kind"`
	MIMEType string    `json:"mimeType,omitempty"`
	Size     int64     `json:"size"`

	// Path is the spooled copy of the file content.
	Path string `json:"-"`
}

// State is a point-in-time snapshot of a controller.
type State struct {
	SessionID string `json:"sessionId"`
	// Seq increases with every published change.
	Seq uint64 `json:"seq"`

	Selection *Selection `json:"selection"`
	Options   Options    `json:"options"`

	Uploading      bool   `json:"uploading"`
	UploadProgress int    `json:"uploadProgress"`
	Uploaded       bool   `json:"uploaded"`
	Error          string `json:"error,omitempty"`

	JobID    string       `json:"jobId,omitempty"`
	Status   JobStatus    `json:"status"`
	Progress int          `json:"progress"`
	Message  string       `json:"message,omitempty"`
	Outputs  []OutputFile `json:"outputs"`
}

func (s State) clone() State {
	if s.Selection != nil {
		sel := *s.Selection
		s.Selection = &sel
	}
	s.Outputs = append(make([]OutputFile, 0, len(s.Outputs)), s.Outputs...)
	return s
}
