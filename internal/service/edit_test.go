package service

import (
	"errors"
	"testing"
	"time"

	"frameline/internal/domain"
	"frameline/internal/domain/models"
)

func board(t *testing.T) *models.Project {
	t.Helper()
	p := models.NewProject("u1", "Board")
	p.Sequences[0].Frames = []models.Frame{models.NewFrame(), models.NewFrame()}
	return p
}

func TestAddSceneNumbersAfterExisting(t *testing.T) {
	p := board(t)

	seqs := AddScene(p)
	if len(seqs) != 2 {
		t.Fatalf("len = %d, want 2", len(seqs))
	}
	if seqs[1].Title != "Scene 2" {
		t.Errorf("Title = %q, want Scene 2", seqs[1].Title)
	}
	if seqs[1].ID == seqs[0].ID {
		t.Error("new scene reuses an existing id")
	}
	if len(p.Sequences) != 1 {
		t.Error("AddScene mutated the source project")
	}
}

func TestRenameScene(t *testing.T) {
	p := board(t)

	seqs, err := RenameScene(p, p.Sequences[0].ID, "Opening")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if seqs[0].Title != "Opening" {
		t.Errorf("Title = %q, want Opening", seqs[0].Title)
	}

	if _, err := RenameScene(p, "missing", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteScene(t *testing.T) {
	p := board(t)
	extra := AddScene(p)
	p.Sequences = extra

	seqs, err := DeleteScene(p, p.Sequences[0].ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(seqs) != 1 || seqs[0].Title != "Scene 2" {
		t.Errorf("remaining scenes = %+v", seqs)
	}
}

func TestMoveScene(t *testing.T) {
	p := board(t)
	p.Sequences = AddScene(p)
	p.Sequences = AddScene(p)
	first := p.Sequences[0].ID

	seqs, err := MoveScene(p, first, 2)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if seqs[2].ID != first {
		t.Errorf("scene not at index 2: %+v", seqs)
	}

	if _, err := MoveScene(p, first, 5); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("out-of-range err = %v, want ErrValidation", err)
	}
	if _, err := MoveScene(p, "missing", 0); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing scene err = %v, want ErrNotFound", err)
	}
}

func TestAddFrame(t *testing.T) {
	p := board(t)

	seqs, frame, err := AddFrame(p, p.Sequences[0].ID)
	if err != nil {
		t.Fatalf("add frame: %v", err)
	}
	if len(seqs[0].Frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(seqs[0].Frames))
	}
	if seqs[0].Frames[2].ID != frame.ID {
		t.Error("returned frame is not the appended one")
	}
}

func TestDeleteFrame(t *testing.T) {
	p := board(t)
	victim := p.Sequences[0].Frames[0].ID

	seqs, err := DeleteFrame(p, victim)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(seqs[0].Frames) != 1 {
		t.Errorf("frames = %d, want 1", len(seqs[0].Frames))
	}
	if _, err := DeleteFrame(p, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMoveFrameAcrossScenes(t *testing.T) {
	p := board(t)
	p.Sequences = AddScene(p)
	frameID := p.Sequences[0].Frames[0].ID
	target := p.Sequences[1].ID

	seqs, err := MoveFrame(p, frameID, target, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(seqs[0].Frames) != 1 {
		t.Errorf("source frames = %d, want 1", len(seqs[0].Frames))
	}
	if len(seqs[1].Frames) != 1 || seqs[1].Frames[0].ID != frameID {
		t.Errorf("target frames = %+v, want the moved frame", seqs[1].Frames)
	}
}

func TestMoveFrameWithinScene(t *testing.T) {
	p := board(t)
	sceneID := p.Sequences[0].ID
	last := p.Sequences[0].Frames[1].ID

	seqs, err := MoveFrame(p, last, sceneID, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if seqs[0].Frames[0].ID != last {
		t.Errorf("frame order = %+v, want moved frame first", seqs[0].Frames)
	}
}

func TestUpdateFrame(t *testing.T) {
	p := board(t)
	frameID := p.Sequences[0].Frames[0].ID
	script := "close-up on the letter"
	img := "https://cdn/img.png"

	seqs, err := UpdateFrame(p, frameID, FrameUpdate{Script: &script, ImageURL: &img})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	f := seqs[0].Frames[0]
	if f.Script != script {
		t.Errorf("Script = %q, want %q", f.Script, script)
	}
	if f.Media.Kind != models.MediaImage || f.Media.URL != img {
		t.Errorf("Media = %+v, want image", f.Media)
	}
	// Untouched fields survive.
	if f.Sound != "" {
		t.Errorf("Sound = %q, want untouched", f.Sound)
	}
}

func TestUpdateFrameMediaExclusivity(t *testing.T) {
	p := board(t)
	frameID := p.Sequences[0].Frames[0].ID
	img := "https://cdn/img.png"
	vid := "https://cdn/clip.mp4"

	if _, err := UpdateFrame(p, frameID, FrameUpdate{ImageURL: &img, VideoURL: &vid}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for image+video", err)
	}

	// Setting a video replaces a previous image whole.
	seqs, err := UpdateFrame(p, frameID, FrameUpdate{ImageURL: &img})
	if err != nil {
		t.Fatalf("update image: %v", err)
	}
	p.Sequences = seqs
	seqs, err = UpdateFrame(p, frameID, FrameUpdate{VideoURL: &vid})
	if err != nil {
		t.Fatalf("update video: %v", err)
	}
	if m := seqs[0].Frames[0].Media; m.Kind != models.MediaVideo || m.URL != vid {
		t.Errorf("Media = %+v, want video replacing image", m)
	}

	// An empty url clears the slot.
	p.Sequences = seqs
	empty := ""
	seqs, err = UpdateFrame(p, frameID, FrameUpdate{VideoURL: &empty})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if m := seqs[0].Frames[0].Media; m.Kind != models.MediaNone {
		t.Errorf("Media = %+v, want cleared", m)
	}
}

func TestAddFrameComment(t *testing.T) {
	p := board(t)
	frameID := p.Sequences[0].Frames[1].ID
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	seqs, comment, err := AddFrameComment(p, frameID, "love this", "carol", at)
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	got := seqs[0].Frames[1].Comments
	if len(got) != 1 || got[0].ID != comment.ID || got[0].Author != "carol" {
		t.Errorf("comments = %+v", got)
	}
	if len(p.Sequences[0].Frames[1].Comments) != 0 {
		t.Error("AddFrameComment mutated the source project")
	}
}
