package service

import (
	"encoding/json"
	"fmt"

	"frameline/internal/domain"
	"frameline/internal/domain/models"
	"frameline/internal/store"
)

// ValidateDocumentPatch checks a client-supplied merge-patch before it is
// handed to a sync controller: only the editable top-level keys are
// accepted, enum fields must hold legal values, and a sequences value must
// decode cleanly with project-wide unique scene and frame ids. The
// returned patch carries decoded values, so downstream writes re-serialize
// through the models (normalizing, among other things, the media slot).
func ValidateDocumentPatch(raw map[string]json.RawMessage) (store.Patch, error) {
	if len(raw) == 0 {
		return nil, &domain.ValidationError{Message: "empty patch"}
	}

	patch := store.Patch{}
	for key, value := range raw {
		switch key {
		case "projectTitle":
			var title string
			if err := json.Unmarshal(value, &title); err != nil {
				return nil, patchErr(key, err)
			}
			patch[key] = title

		case "aspectRatio":
			var ratio models.AspectRatio
			if err := json.Unmarshal(value, &ratio); err != nil {
				return nil, patchErr(key, err)
			}
			if err := ratio.Validate(); err != nil {
				return nil, patchErr(key, err)
			}
			patch[key] = ratio

		case "sequences":
			var seqs []models.Scene
			if err := json.Unmarshal(value, &seqs); err != nil {
				return nil, patchErr(key, err)
			}
			if err := checkUniqueIDs(seqs); err != nil {
				return nil, err
			}
			patch[key] = seqs

		default:
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("patch key %q is not editable", key),
			}
		}
	}
	return patch, nil
}

func checkUniqueIDs(seqs []models.Scene) error {
	sceneIDs := make(map[string]struct{}, len(seqs))
	frameIDs := make(map[string]struct{})
	for _, scene := range seqs {
		if scene.ID == "" {
			return &domain.ValidationError{Message: "scene without id"}
		}
		if _, dup := sceneIDs[scene.ID]; dup {
			return &domain.ValidationError{Message: fmt.Sprintf("duplicate scene id %s", scene.ID)}
		}
		sceneIDs[scene.ID] = struct{}{}
		for _, frame := range scene.Frames {
			if frame.ID == "" {
				return &domain.ValidationError{Message: "frame without id"}
			}
			if _, dup := frameIDs[frame.ID]; dup {
				return &domain.ValidationError{Message: fmt.Sprintf("duplicate frame id %s", frame.ID)}
			}
			frameIDs[frame.ID] = struct{}{}
		}
	}
	return nil
}

func patchErr(key string, err error) error {
	return &domain.ValidationError{Message: fmt.Sprintf("patch key %q: %v", key, err)}
}
