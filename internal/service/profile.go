package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/JadeHendricks/mern-devconnector/internal/config"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/profile"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/user"
	"github.com/google/uuid"
)

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (profile.Profile, error)
	List(ctx context.Context) ([]profile.Profile, error)
	Upsert(ctx context.Context, userID string, req profile.UpsertRequest) (profile.Profile, error)
	AddExperience(ctx context.Context, userID string, e profile.Experience) (profile.Profile, error)
	RemoveExperience(ctx context.Context, userID, entryID string) (profile.Profile, error)
	AddEducation(ctx context.Context, userID string, e profile.Education) (profile.Profile, error)
	RemoveEducation(ctx context.Context, userID, entryID string) (profile.Profile, error)
}

type AccountDeleter interface {
	DeleteAccount(ctx context.Context, userID string) error
}

type RepoLister interface {
	ListRepos(ctx context.Context, username string) ([]json.RawMessage, error)
	Forget(ctx context.Context, username string) error
}

type ProfileService struct {
	profiles ProfileStore
	accounts AccountDeleter
	repos    RepoLister
	log      *slog.Logger
}

func NewProfileService(profiles ProfileStore, accounts AccountDeleter, repos RepoLister, log *slog.Logger) *ProfileService {
	if log == nil {
		log = slog.Default()
	}

	return &ProfileService{
		profiles: profiles,
		accounts: accounts,
		repos:    repos,
		log:      log,
	}
}

func (s *ProfileService) GetOwn(ctx context.Context, userID string) (profile.Profile, error) {
	return s.GetByUser(ctx, userID)
}

func (s *ProfileService) List(ctx context.Context) ([]profile.Profile, error) {
	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	out, err := s.profiles.List(cctx)
	if err != nil {
		s.log.ErrorContext(ctx, "list profiles failed", "err", err)
		return nil, err
	}

	return out, nil
}

// GetByUser treats a malformed id like an unknown one.
func (s *ProfileService) GetByUser(ctx context.Context, userID string) (profile.Profile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return profile.Profile{}, profile.ErrNotFound
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	p, err := s.profiles.GetByUserID(cctx, userID)
	return p, s.logged(ctx, "get profile", userID, err)
}

func (s *ProfileService) Upsert(ctx context.Context, userID string, req profile.UpsertRequest) (profile.Profile, error) {
	req.Status = strings.TrimSpace(req.Status)
	if req.Skills != nil {
		req.Skills = profile.NormalizeSkillList(req.Skills)
	}

	if err := Validate(req); err != nil {
		return profile.Profile{}, err
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	p, err := s.profiles.Upsert(cctx, userID, req)
	if err != nil {
		return p, s.logged(ctx, "upsert profile", userID, err)
	}

	// a newly linked account should not be answered from a stale entry
	if req.GitHubUsername != nil && p.GitHubUsername != "" {
		if err := s.repos.Forget(ctx, p.GitHubUsername); err != nil {
			s.log.WarnContext(ctx, "github cache evict failed", "username", p.GitHubUsername, "err", err)
		}
	}

	return p, nil
}

// DeleteAccount removes the profile and the user. Already-missing rows are
// fine.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID string) error {
	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	return s.logged(ctx, "delete account", userID, s.accounts.DeleteAccount(cctx, userID))
}

func (s *ProfileService) AddExperience(ctx context.Context, userID string, req profile.ExperienceRequest) (profile.Profile, error) {
	if err := Validate(req); err != nil {
		return profile.Profile{}, err
	}

	entry, err := profile.NewExperience(req)
	if err != nil {
		return profile.Profile{}, invalidField("from", "date", err.Error())
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	p, err := s.profiles.AddExperience(cctx, userID, entry)
	return p, s.logged(ctx, "add experience", userID, err)
}

func (s *ProfileService) RemoveExperience(ctx context.Context, userID, entryID string) (profile.Profile, error) {
	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	p, err := s.profiles.RemoveExperience(cctx, userID, entryID)
	return p, s.logged(ctx, "remove experience", userID, err)
}

func (s *ProfileService) AddEducation(ctx context.Context, userID string, req profile.EducationRequest) (profile.Profile, error) {
	if err := Validate(req); err != nil {
		return profile.Profile{}, err
	}

	entry, err := profile.NewEducation(req)
	if err != nil {
		return profile.Profile{}, invalidField("from", "date", err.Error())
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	p, err := s.profiles.AddEducation(cctx, userID, entry)
	return p, s.logged(ctx, "add education", userID, err)
}

func (s *ProfileService) RemoveEducation(ctx context.Context, userID, entryID string) (profile.Profile, error) {
	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	p, err := s.profiles.RemoveEducation(cctx, userID, entryID)
	return p, s.logged(ctx, "remove education", userID, err)
}

// ListRepos passes GitHub's repo objects through untouched. The lookup has
// its own timeout inside the client.
func (s *ProfileService) ListRepos(ctx context.Context, username string) ([]json.RawMessage, error) {
	repos, err := s.repos.ListRepos(ctx, username)
	if err != nil {
		s.log.WarnContext(ctx, "github repo lookup failed", "username", username, "err", err)
		return nil, err
	}

	return repos, nil
}

// logged reports unexpected store failures; domain outcomes pass through
// quietly.
func (s *ProfileService) logged(ctx context.Context, op, userID string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, profile.ErrNotFound) || errors.Is(err, profile.ErrEntryNotFound) || errors.Is(err, user.ErrNotFound) {
		return err
	}

	s.log.ErrorContext(ctx, op+" failed", "user_id", userID, "err", err)
	return err
}
