package models

import (
	"encoding/json"
	"time"
)

// MediaKind discriminates a frame's primary media slot.
type MediaKind string

const (
	MediaNone  MediaKind = ""
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media is the frame's primary media slot as a tagged variant. A frame
// carries at most one of image or video; setting either replaces the slot
// whole, so the exclusivity is structural rather than a call-site
// convention over two nullable fields.
type Media struct {
	Kind MediaKind
	URL  string
}

func ImageMedia(url string) Media { return Media{Kind: MediaImage, URL: url} }
func VideoMedia(url string) Media { return Media{Kind: MediaVideo, URL: url} }

// Frame is a single storyboard panel.
type Frame struct {
	ID          string          `json:"id"`
	Script      string          `json:"script"`
	Sound       string          `json:"sound"`
	Media       Media           `json:"-"`
	AudioURL    string          `json:"audioUrl,omitempty"`
	DrawingData json.RawMessage `json:"drawingData,omitempty"`
	ShotType    string          `json:"shotType,omitempty"`
	CameraMove  string          `json:"cameraMove,omitempty"`
	Comments    []Comment       `json:"comments,omitempty"`
}

// NewFrame returns an empty frame with a fresh id.
func NewFrame() Frame {
	return Frame{ID: NewFrameID()}
}

// AddComment appends to the frame's comment list. Comments are append-only;
// nothing in the editor removes or rewrites them.
func (f *Frame) AddComment(text, author string, at time.Time) Comment {
	c := Comment{
		ID:        NewCommentID(),
		Text:      text,
		Author:    author,
		CreatedAt: at,
	}
	f.Comments = append(f.Comments, c)
	return c
}

// frameWire is the stored/JSON shape of a frame. The media variant is
// flattened into the legacy imageUrl/videoUrl keys the original documents
// use, so existing data round-trips unchanged.
type frameWire struct {
	ID          string          `json:"id"`
	Script      string          `json:"script"`
	Sound       string          `json:"sound"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	VideoURL    string          `json:"videoUrl,omitempty"`
	AudioURL    string          `json:"audioUrl,omitempty"`
	DrawingData json.RawMessage `json:"drawingData,omitempty"`
	ShotType    string          `json:"shotType,omitempty"`
	CameraMove  string          `json:"cameraMove,omitempty"`
	Comments    []Comment       `json:"comments,omitempty"`
}

func (f Frame) MarshalJSON() ([]byte, error) {
	w := frameWire{
		ID:          f.ID,
		Script:      f.Script,
		Sound:       f.Sound,
		AudioURL:    f.AudioURL,
		DrawingData: f.DrawingData,
		ShotType:    f.ShotType,
		CameraMove:  f.CameraMove,
		Comments:    f.Comments,
	}
	switch f.Media.Kind {
	case MediaImage:
		w.ImageURL = f.Media.URL
	case MediaVideo:
		w.VideoURL = f.Media.URL
	}
	return json.Marshal(w)
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	var w frameWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*f = Frame{
		ID:          w.ID,
		Script:      w.Script,
		Sound:       w.Sound,
		AudioURL:    w.AudioURL,
		DrawingData: w.DrawingData,
		ShotType:    w.ShotType,
		CameraMove:  w.CameraMove,
		Comments:    w.Comments,
	}
	// Documents written before the exclusivity was enforced can carry both
	// keys; the image wins and the stale video url is dropped.
	switch {
	case w.ImageURL != "":
		f.Media = ImageMedia(w.ImageURL)
	case w.VideoURL != "":
		f.Media = VideoMedia(w.VideoURL)
	}
	return nil
}
