package service

import (
	"encoding/json"
	"fmt"
	"time"

	"frameline/internal/domain"
	"frameline/internal/domain/models"
)

// Edit operations produce a complete replacement value for the sequences
// key from the current document. The caller writes it back as a merge-patch
// of that one key, so concurrent editors resolve last-writer-wins over the
// whole list - the same model the original editor had.

// AddScene appends an empty scene numbered after the existing ones.
func AddScene(p *models.Project) []models.Scene {
	seqs := p.CloneSequences()
	return append(seqs, models.Scene{
		ID:     models.NewSceneID(),
		Title:  fmt.Sprintf("Scene %d", len(seqs)+1),
		Frames: []models.Frame{},
	})
}

// RenameScene sets a scene's title.
func RenameScene(p *models.Project, sceneID, title string) ([]models.Scene, error) {
	seqs := p.CloneSequences()
	for i := range seqs {
		if seqs[i].ID == sceneID {
			seqs[i].Title = title
			return seqs, nil
		}
	}
	return nil, sceneNotFound(sceneID)
}

// DeleteScene removes a scene and its frames.
func DeleteScene(p *models.Project, sceneID string) ([]models.Scene, error) {
	seqs := p.CloneSequences()
	for i := range seqs {
		if seqs[i].ID == sceneID {
			return append(seqs[:i], seqs[i+1:]...), nil
		}
	}
	return nil, sceneNotFound(sceneID)
}

// MoveScene moves a scene to position toIndex, shifting the rest.
func MoveScene(p *models.Project, sceneID string, toIndex int) ([]models.Scene, error) {
	seqs := p.CloneSequences()
	from := -1
	for i := range seqs {
		if seqs[i].ID == sceneID {
			from = i
			break
		}
	}
	if from == -1 {
		return nil, sceneNotFound(sceneID)
	}
	if toIndex < 0 || toIndex >= len(seqs) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("scene index %d out of range", toIndex)}
	}
	moved := seqs[from]
	seqs = append(seqs[:from], seqs[from+1:]...)
	seqs = append(seqs[:toIndex], append([]models.Scene{moved}, seqs[toIndex:]...)...)
	return seqs, nil
}

// AddFrame appends an empty frame to a scene and returns it.
func AddFrame(p *models.Project, sceneID string) ([]models.Scene, models.Frame, error) {
	seqs := p.CloneSequences()
	for i := range seqs {
		if seqs[i].ID == sceneID {
			frame := models.NewFrame()
			seqs[i].Frames = append(seqs[i].Frames, frame)
			return seqs, frame, nil
		}
	}
	return nil, models.Frame{}, sceneNotFound(sceneID)
}

// DeleteFrame removes a frame from whichever scene holds it.
func DeleteFrame(p *models.Project, frameID string) ([]models.Scene, error) {
	seqs := p.CloneSequences()
	for i := range seqs {
		for j := range seqs[i].Frames {
			if seqs[i].Frames[j].ID == frameID {
				seqs[i].Frames = append(seqs[i].Frames[:j], seqs[i].Frames[j+1:]...)
				return seqs, nil
			}
		}
	}
	return nil, frameNotFound(frameID)
}

// MoveFrame relocates a frame to toIndex within the scene toSceneID,
// which may be the frame's current scene or another one.
func MoveFrame(p *models.Project, frameID, toSceneID string, toIndex int) ([]models.Scene, error) {
	seqs := p.CloneSequences()

	var frame *models.Frame
	for i := range seqs {
		for j := range seqs[i].Frames {
			if seqs[i].Frames[j].ID == frameID {
				f := seqs[i].Frames[j]
				frame = &f
				seqs[i].Frames = append(seqs[i].Frames[:j], seqs[i].Frames[j+1:]...)
			}
		}
		if frame != nil {
			break
		}
	}
	if frame == nil {
		return nil, frameNotFound(frameID)
	}

	for i := range seqs {
		if seqs[i].ID != toSceneID {
			continue
		}
		if toIndex < 0 || toIndex > len(seqs[i].Frames) {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("frame index %d out of range", toIndex)}
		}
		frames := seqs[i].Frames
		seqs[i].Frames = append(frames[:toIndex], append([]models.Frame{*frame}, frames[toIndex:]...)...)
		return seqs, nil
	}
	return nil, sceneNotFound(toSceneID)
}

// FrameUpdate carries the fields of a frame update; nil pointers leave the
// field untouched. Image and video are mutually exclusive requests -
// setting either replaces the frame's media slot whole, and an empty url
// clears it.
type FrameUpdate struct {
	Script      *string          `json:"script"`
	Sound       *string          `json:"sound"`
	ShotType    *string          `json:"shotType"`
	CameraMove  *string          `json:"cameraMove"`
	ImageURL    *string          `json:"imageUrl"`
	VideoURL    *string          `json:"videoUrl"`
	AudioURL    *string          `json:"audioUrl"`
	DrawingData *json.RawMessage `json:"drawingData"`
}

// UpdateFrame applies a frame update.
func UpdateFrame(p *models.Project, frameID string, upd FrameUpdate) ([]models.Scene, error) {
	if upd.ImageURL != nil && upd.VideoURL != nil {
		return nil, &domain.ValidationError{Message: "a frame holds an image or a video, not both"}
	}

	seqs := p.CloneSequences()
	for i := range seqs {
		for j := range seqs[i].Frames {
			f := &seqs[i].Frames[j]
			if f.ID != frameID {
				continue
			}
			if upd.Script != nil {
				f.Script = *upd.Script
			}
			if upd.Sound != nil {
				f.Sound = *upd.Sound
			}
			if upd.ShotType != nil {
				f.ShotType = *upd.ShotType
			}
			if upd.CameraMove != nil {
				f.CameraMove = *upd.CameraMove
			}
			if upd.AudioURL != nil {
				f.AudioURL = *upd.AudioURL
			}
			if upd.DrawingData != nil {
				f.DrawingData = *upd.DrawingData
			}
			switch {
			case upd.ImageURL != nil && *upd.ImageURL == "":
				f.Media = models.Media{}
			case upd.ImageURL != nil:
				f.Media = models.ImageMedia(*upd.ImageURL)
			case upd.VideoURL != nil && *upd.VideoURL == "":
				f.Media = models.Media{}
			case upd.VideoURL != nil:
				f.Media = models.VideoMedia(*upd.VideoURL)
			}
			return seqs, nil
		}
	}
	return nil, frameNotFound(frameID)
}

// AddFrameComment appends a comment to a frame's list.
func AddFrameComment(p *models.Project, frameID, text, author string, at time.Time) ([]models.Scene, models.Comment, error) {
	seqs := p.CloneSequences()
	for i := range seqs {
		for j := range seqs[i].Frames {
			if seqs[i].Frames[j].ID == frameID {
				c := seqs[i].Frames[j].AddComment(text, author, at)
				return seqs, c, nil
			}
		}
	}
	return nil, models.Comment{}, frameNotFound(frameID)
}

func sceneNotFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("scene %s not found", id)}
}

func frameNotFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("frame %s not found", id)}
}
