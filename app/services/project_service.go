package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"collab-go/app/errs"
	"collab-go/app/models"
	"collab-go/app/store"
)

// ProjectService handles projects, their notes and their members.
type ProjectService struct {
	projects store.ProjectStore
	users    store.UserStore
	now      func() time.Time
}

// NewProjectService creates a new instance of ProjectService.
func NewProjectService(projects store.ProjectStore, users store.UserStore) *ProjectService {
	return &ProjectService{projects: projects, users: users, now: time.Now}
}

func (s *ProjectService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// Create stores a project with the creator as its first member.
func (s *ProjectService) Create(ctx context.Context, creator models.User, req models.CreateProjectRequest) (*models.Project, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	p := &store.Project{
		Title:       req.Title,
		Description: req.Description,
		Members:     []store.Member{{ID: creator.ID, Name: creator.Name, Email: creator.Email}},
		CreatedBy:   creator.ID,
		CreatedAt:   s.stamp(),
	}
	if err := s.projects.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	slog.Info("Project created", "project_id", p.ID, "user", creator.Username)
	return toProject(p), nil
}

// List returns the projects userID is a member of.
func (s *ProjectService) List(ctx context.Context, userID string) ([]models.Project, error) {
	projects, err := s.projects.ProjectsForMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(projects))
	for i := range projects {
		out = append(out, *toProject(&projects[i]))
	}
	return out, nil
}

// Get returns a project visible to its members and its creator.
func (s *ProjectService) Get(ctx context.Context, projectID, userID string) (*models.Project, error) {
	p, err := s.member(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	return toProject(p), nil
}

func (s *ProjectService) member(ctx context.Context, projectID, userID string) (*store.Project, error) {
	p, err := s.projects.ProjectForMember(ctx, projectID, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Detail(errs.ErrNotFound, "Project not found")
	}
	return p, err
}

// AddNote appends a note to a project the caller belongs to.
func (s *ProjectService) AddNote(ctx context.Context, projectID, userID string, req models.NoteRequest) (*models.Note, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.member(ctx, projectID, userID); err != nil {
		return nil, err
	}
	n := &store.Note{Title: req.Title, Body: req.Body, CreatedAt: s.stamp()}
	if err := s.projects.AddNote(ctx, projectID, n); err != nil {
		return nil, err
	}
	note := toNote(*n)
	return &note, nil
}

// UpdateNote replaces a note's title and body and refreshes its timestamp.
func (s *ProjectService) UpdateNote(ctx context.Context, projectID, noteID, userID string, req models.NoteRequest) (*models.Note, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.member(ctx, projectID, userID); err != nil {
		return nil, err
	}
	n := store.Note{ID: noteID, Title: req.Title, Body: req.Body, CreatedAt: s.stamp()}
	if err := s.projects.UpdateNote(ctx, projectID, n); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Detail(errs.ErrNotFound, "Note not found")
		}
		return nil, err
	}
	note := toNote(n)
	return &note, nil
}

func (s *ProjectService) DeleteNote(ctx context.Context, projectID, noteID, userID string) error {
	if _, err := s.member(ctx, projectID, userID); err != nil {
		return err
	}
	err := s.projects.DeleteNote(ctx, projectID, noteID)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.Detail(errs.ErrNotFound, "Note not found")
	}
	return err
}

// AddMember adds the user registered under email. Only the creator may add
// members.
func (s *ProjectService) AddMember(ctx context.Context, projectID, requesterID string, req models.AddMemberRequest) (*models.Member, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	p, err := s.projects.ProjectByID(ctx, projectID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Detail(errs.ErrNotFound, "Project not found")
	}
	if err != nil {
		return nil, err
	}
	if p.CreatedBy != requesterID {
		return nil, errs.Detail(errs.ErrForbidden, "Only the creator can add members")
	}

	u, err := s.users.UserByEmail(ctx, req.Email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Detail(errs.ErrNotFound, "User with this email not found")
	}
	if err != nil {
		return nil, err
	}
	m := store.Member{ID: u.ID, Name: u.Name, Email: u.Email}
	if err := s.projects.AddMember(ctx, projectID, m); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, errs.Detail(errs.ErrConflict, "User is already a member")
		}
		return nil, err
	}
	member := toMember(m)
	return &member, nil
}
