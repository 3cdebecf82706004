package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"frameline/internal/config"
	"frameline/internal/domain"
	"frameline/internal/domain/models"
	"frameline/internal/store"
)

// StoryboardService implements the storyboard operations behind the HTTP
// surface. Every mutation is a shallow merge-patch of the named top-level
// keys; unrelated keys in the stored document are never touched.
type StoryboardService struct {
	store  store.DocumentStore
	logger *slog.Logger
}

// NewStoryboardService creates a new storyboard service.
func NewStoryboardService(st store.DocumentStore, logger *slog.Logger) *StoryboardService {
	return &StoryboardService{store: st, logger: logger}
}

// CreateStoryboard creates a project owned by the caller, with restricted
// access and one empty default scene. Anonymous identities cannot create.
func (s *StoryboardService) CreateStoryboard(ctx context.Context, identity models.Identity, title string) (*models.Project, error) {
	if identity.Anonymous || identity.ID == "" {
		return nil, &domain.PermissionDeniedError{Message: "sign in to create a storyboard"}
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Storyboard"
	}

	id := uuid.NewString()
	project := models.NewProject(identity.ID, title)
	if err := s.store.Create(ctx, id, project); err != nil {
		return nil, err
	}

	s.logger.Info("storyboard created",
		"id", id,
		"title", title,
		"owner_id", identity.ID,
	)

	// Re-read for the store-assigned timestamps.
	return s.store.Get(ctx, id)
}

// GetStoryboard retrieves a project the caller may view.
func (s *StoryboardService) GetStoryboard(ctx context.Context, identity models.Identity, id string) (*models.Project, error) {
	return s.load(ctx, identity, id, models.Role.CanView)
}

// ListMine returns the caller's own storyboards, newest edited first.
func (s *StoryboardService) ListMine(ctx context.Context, identity models.Identity) ([]models.Project, error) {
	if identity.Anonymous || identity.ID == "" {
		return []models.Project{}, nil
	}
	return s.store.ListByOwner(ctx, identity.ID)
}

// MetaUpdate carries a project metadata patch.
type MetaUpdate struct {
	ProjectTitle *string             `json:"projectTitle"`
	AspectRatio  *models.AspectRatio `json:"aspectRatio"`
}

// UpdateMeta patches the project's title and/or aspect ratio.
func (s *StoryboardService) UpdateMeta(ctx context.Context, identity models.Identity, id string, upd MetaUpdate) (*models.Project, error) {
	if _, err := s.load(ctx, identity, id, models.Role.CanEdit); err != nil {
		return nil, err
	}

	patch := store.Patch{}
	if upd.ProjectTitle != nil {
		title := strings.TrimSpace(*upd.ProjectTitle)
		if err := validation.Validate(title, validation.Required, validation.Length(1, config.MaxTitleLength)); err != nil {
			return nil, fmt.Errorf("%w: projectTitle: %v", domain.ErrValidation, err)
		}
		patch["projectTitle"] = title
	}
	if upd.AspectRatio != nil {
		if err := upd.AspectRatio.Validate(); err != nil {
			return nil, fmt.Errorf("%w: aspectRatio: %v", domain.ErrValidation, err)
		}
		patch["aspectRatio"] = *upd.AspectRatio
	}
	if len(patch) == 0 {
		return nil, &domain.ValidationError{Message: "nothing to update"}
	}

	if err := s.store.MergePatch(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// SharingUpdate carries a sharing-settings patch. A nil Roles map leaves
// the roles key untouched; a non-nil map replaces it whole.
type SharingUpdate struct {
	PublicAccess *models.PublicAccess   `json:"publicAccess"`
	Roles        map[string]models.Role `json:"roles"`
}

// UpdateSharing patches publicAccess and/or the roles map. Only the owner
// may share, and the owner's own entry can never be dropped or demoted.
func (s *StoryboardService) UpdateSharing(ctx context.Context, identity models.Identity, id string, upd SharingUpdate) (*models.Project, error) {
	project, err := s.load(ctx, identity, id, func(r models.Role) bool { return r == models.RoleOwner })
	if err != nil {
		return nil, err
	}

	patch := store.Patch{}
	if upd.PublicAccess != nil {
		if err := upd.PublicAccess.Validate(); err != nil {
			return nil, fmt.Errorf("%w: publicAccess: %v", domain.ErrValidation, err)
		}
		patch["publicAccess"] = *upd.PublicAccess
	}
	if upd.Roles != nil {
		roles := make(map[string]models.Role, len(upd.Roles)+1)
		for userID, role := range upd.Roles {
			if userID == "" {
				return nil, &domain.ValidationError{Message: "roles: empty user id"}
			}
			if err := role.Validate(); err != nil {
				return nil, fmt.Errorf("%w: roles[%s]: %v", domain.ErrValidation, userID, err)
			}
			roles[userID] = role
		}
		// The owner entry is invariant whatever the request says.
		roles[project.OwnerID] = models.RoleOwner
		patch["roles"] = roles
	}
	if len(patch) == 0 {
		return nil, &domain.ValidationError{Message: "nothing to update"}
	}

	if err := s.store.MergePatch(ctx, id, patch); err != nil {
		return nil, err
	}

	s.logger.Info("sharing updated",
		"id", id,
		"by", identity.ID,
	)
	return s.store.Get(ctx, id)
}

// AddScene appends an empty scene.
func (s *StoryboardService) AddScene(ctx context.Context, identity models.Identity, id string) (*models.Project, error) {
	return s.editSequences(ctx, identity, id, func(p *models.Project) ([]models.Scene, error) {
		return AddScene(p), nil
	})
}

// RenameScene sets a scene's title.
func (s *StoryboardService) RenameScene(ctx context.Context, identity models.Identity, id, sceneID, title string) (*models.Project, error) {
	if err := validation.Validate(title, validation.Required, validation.Length(1, config.MaxTitleLength)); err != nil {
		return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
	}
	return s.editSequences(ctx, identity, id, func(p *models.Project) ([]models.Scene, error) {
		return RenameScene(p, sceneID, title)
	})
}

// DeleteScene removes a scene.
func (s *StoryboardService) DeleteScene(ctx context.Context, identity models.Identity, id, sceneID string) (*models.Project, error) {
	return s.editSequences(ctx, identity, id, func(p *models.Project) ([]models.Scene, error) {
		return DeleteScene(p, sceneID)
	})
}

// MoveScene reorders a scene.
func (s *StoryboardService) MoveScene(ctx context.Context, identity models.Identity, id, sceneID string, toIndex int) (*models.Project, error) {
	return s.editSequences(ctx, identity, id, func(p *models.Project) ([]models.Scene, error) {
		return MoveScene(p, sceneID, toIndex)
	})
}

// AddFrame appends an empty frame to a scene.
func (s *StoryboardService) AddFrame(ctx context.Context, identity models.Identity, id, sceneID string) (*models.Project, error) {
	return s.editSequences(ctx, identity, id, func(p *models.Project) ([]models.Scene, error) {
		seqs, _, err := AddFrame(p, sceneID)
		return seqs, err
	})
}

// UpdateFrame applies a partial frame update.
func (s *StoryboardService) UpdateFrame(ctx context.Context, identity models.Identity, id, frameID string, upd FrameUpdate) (*models.Project, error) {
	return s.editSequences(ctx, identity, id, func(p *models.Project) ([]models.Scene, error) {
		return UpdateFrame(p, frameID, upd)
	})
}

// DeleteFrame removes a frame.
func (s *StoryboardService) DeleteFrame(ctx context.Context, identity models.Identity, id, frameID string) (*models.Project, error) {
	return s.editSequences(ctx, identity, id, func(p *models.Project) ([]models.Scene, error) {
		return DeleteFrame(p, frameID)
	})
}

// MoveFrame relocates a frame within or across scenes.
func (s *StoryboardService) MoveFrame(ctx context.Context, identity models.Identity, id, frameID, toSceneID string, toIndex int) (*models.Project, error) {
	return s.editSequences(ctx, identity, id, func(p *models.Project) ([]models.Scene, error) {
		return MoveFrame(p, frameID, toSceneID, toIndex)
	})
}

// AddComment appends a comment to a frame. Commenting needs only viewer
// access - share-link holders, anonymous ones included, can comment when
// publicAccess permits viewing. The author name falls back from the
// identity to the supplied display name.
func (s *StoryboardService) AddComment(ctx context.Context, identity models.Identity, id, frameID, text, displayName string) (*models.Project, models.Comment, error) {
	text = strings.TrimSpace(text)
	if err := validation.Validate(text, validation.Required, validation.Length(1, config.MaxCommentLength)); err != nil {
		return nil, models.Comment{}, fmt.Errorf("%w: text: %v", domain.ErrValidation, err)
	}

	project, err := s.load(ctx, identity, id, models.Role.CanView)
	if err != nil {
		return nil, models.Comment{}, err
	}

	author := identity.DisplayName()
	if identity.Anonymous && strings.TrimSpace(displayName) != "" {
		author = strings.TrimSpace(displayName)
	}

	seqs, comment, err := AddFrameComment(project, frameID, text, author, time.Now().UTC())
	if err != nil {
		return nil, models.Comment{}, err
	}
	if err := s.store.MergePatch(ctx, id, store.Patch{"sequences": seqs}); err != nil {
		return nil, models.Comment{}, err
	}

	updated, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, models.Comment{}, err
	}
	return updated, comment, nil
}

// editSequences runs one editor-level sequences mutation: load with edit
// rights, apply, write the sequences key back whole.
func (s *StoryboardService) editSequences(ctx context.Context, identity models.Identity, id string, mutate func(*models.Project) ([]models.Scene, error)) (*models.Project, error) {
	project, err := s.load(ctx, identity, id, models.Role.CanEdit)
	if err != nil {
		return nil, err
	}

	seqs, err := mutate(project)
	if err != nil {
		return nil, err
	}
	if err := s.store.MergePatch(ctx, id, store.Patch{"sequences": seqs}); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *StoryboardService) load(ctx context.Context, identity models.Identity, id string, allowed func(models.Role) bool) (*models.Project, error) {
	project, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowed(project.RoleFor(identity.ID)) {
		return nil, denied(id)
	}
	return project, nil
}
