package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	t, err := ParseDate(raw)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func NewExperience(req ExperienceRequest) (Experience, error) {
	from, err := ParseDate(req.From)
	if err != nil {
		return Experience{}, err
	}

	to, err := parseOptionalDate(req.To)
	if err != nil {
		return Experience{}, err
	}

	return Experience{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Company:     strings.TrimSpace(req.Company),
		Location:    req.Location,
		From:        from,
		To:          to,
		Current:     req.Current,
		Description: req.Description,
	}, nil
}

func NewEducation(req EducationRequest) (Education, error) {
	from, err := ParseDate(req.From)
	if err != nil {
		return Education{}, err
	}

	to, err := parseOptionalDate(req.To)
	if err != nil {
		return Education{}, err
	}

	return Education{
		ID:           uuid.NewString(),
		School:       strings.TrimSpace(req.School),
		Degree:       strings.TrimSpace(req.Degree),
		FieldOfStudy: strings.TrimSpace(req.FieldOfStudy),
		From:         from,
		To:           to,
		Current:      req.Current,
		Description:  req.Description,
	}, nil
}

// SocialPatch holds only the social keys present in the request.
func (r UpsertRequest) SocialPatch() map[string]string {
	patch := make(map[string]string, 5)

	set := func(key string, v *string) {
		if v != nil {
			patch[key] = *v
		}
	}

	set("youtube", r.YouTube)
	set("twitter", r.Twitter)
	set("facebook", r.Facebook)
	set("linkedin", r.LinkedIn)
	set("instagram", r.Instagram)

	return patch
}

// Apply merges the request into p. Status and skills are required so they
// always overwrite; everything else follows the present/absent rule.
func (r UpsertRequest) Apply(p Profile) Profile {
	keep := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}

	keep(&p.Company, r.Company)
	keep(&p.Website, r.Website)
	keep(&p.Location, r.Location)
	keep(&p.Bio, r.Bio)
	keep(&p.GitHubUsername, r.GitHubUsername)

	p.Status = strings.TrimSpace(r.Status)
	p.Skills = []string(NormalizeSkillList(r.Skills))

	keep(&p.Social.YouTube, r.YouTube)
	keep(&p.Social.Twitter, r.Twitter)
	keep(&p.Social.Facebook, r.Facebook)
	keep(&p.Social.LinkedIn, r.LinkedIn)
	keep(&p.Social.Instagram, r.Instagram)

	return p
}

// New builds a fresh profile for userID from an upsert payload.
func New(userID string, req UpsertRequest) Profile {
	now := time.Now().UTC()

	p := Profile{
		ID:         uuid.NewString(),
		User:       Owner{ID: userID},
		Experience: []Experience{},
		Education:  []Education{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return req.Apply(p)
}
