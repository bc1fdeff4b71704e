package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JadeHendricks/mern-devconnector/internal/domain/profile"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/user"
	"github.com/JadeHendricks/mern-devconnector/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfilesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProfilesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProfilesRepo {
	return &ProfilesRepo{pool: pool, prom: prom}
}

// every read joins the owner's name and avatar
const profileSelect = `SELECT p.id, p.user_id, p.company, p.website, p.location, p.bio, p.status,
	p.githubusername, p.skills, p.social, p.experience, p.education, p.created_at, p.updated_at,
	u.name, u.avatar`

func scanProfile(row pgx.Row) (profile.Profile, error) {
	var (
		p                             profile.Profile
		social, experience, education []byte
	)

	err := row.Scan(
		&p.ID,
		&p.User.ID,
		&p.Company,
		&p.Website,
		&p.Location,
		&p.Bio,
		&p.Status,
		&p.GitHubUsername,
		&p.Skills,
		&social,
		&experience,
		&education,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.User.Name,
		&p.User.Avatar,
	)
	if err != nil {
		return profile.Profile{}, err
	}

	if err := json.Unmarshal(social, &p.Social); err != nil {
		return profile.Profile{}, fmt.Errorf("decode social: %w", err)
	}
	if err := json.Unmarshal(experience, &p.Experience); err != nil {
		return profile.Profile{}, fmt.Errorf("decode experience: %w", err)
	}
	if err := json.Unmarshal(education, &p.Education); err != nil {
		return profile.Profile{}, fmt.Errorf("decode education: %w", err)
	}

	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []profile.Experience{}
	}
	if p.Education == nil {
		p.Education = []profile.Education{}
	}

	return p, nil
}

func (r *ProfilesRepo) queryOne(ctx context.Context, op, query string, args ...any) (profile.Profile, error) {
	var p profile.Profile

	err := r.prom.ObserveDB(op, func() error {
		var err error
		p, err = scanProfile(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (r *ProfilesRepo) GetByUserID(ctx context.Context, userID string) (profile.Profile, error) {
	return r.queryOne(ctx, "profiles.get_by_user",
		profileSelect+` FROM profiles p JOIN users u ON u.id = p.user_id WHERE p.user_id = $1`,
		userID,
	)
}

func (r *ProfilesRepo) List(ctx context.Context) ([]profile.Profile, error) {
	out := []profile.Profile{}

	err := r.prom.ObserveDB("profiles.list", func() error {
		rows, err := r.pool.Query(ctx,
			profileSelect+` FROM profiles p JOIN users u ON u.id = p.user_id ORDER BY p.created_at ASC, p.id ASC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	return out, nil
}

// Upsert is a single INSERT ... ON CONFLICT. A NULL optional parameter means
// "absent": it stores '' on insert and keeps the current value on update.
// Social keys are merged with jsonb ||, so only keys present in the request
// change.
func (r *ProfilesRepo) Upsert(ctx context.Context, userID string, req profile.UpsertRequest) (profile.Profile, error) {
	social, err := json.Marshal(req.SocialPatch())
	if err != nil {
		return profile.Profile{}, fmt.Errorf("encode social: %w", err)
	}

	skills := []string(profile.NormalizeSkillList(req.Skills))

	p, err := r.queryOne(ctx, "profiles.upsert",
		`WITH upserted AS (
			INSERT INTO profiles (id, user_id, company, website, location, bio, status, githubusername, skills, social)
			VALUES (
				$1, $2,
				COALESCE($3::text, ''), COALESCE($4::text, ''), COALESCE($5::text, ''), COALESCE($6::text, ''),
				$7, COALESCE($8::text, ''), $9::text[], $10::jsonb
			)
			ON CONFLICT (user_id) DO UPDATE SET
				company        = COALESCE($3::text, profiles.company),
				website        = COALESCE($4::text, profiles.website),
				location       = COALESCE($5::text, profiles.location),
				bio            = COALESCE($6::text, profiles.bio),
				status         = EXCLUDED.status,
				githubusername = COALESCE($8::text, profiles.githubusername),
				skills         = EXCLUDED.skills,
				social         = profiles.social || EXCLUDED.social,
				updated_at     = NOW()
			RETURNING *
		)
		`+profileSelect+` FROM upserted p JOIN users u ON u.id = p.user_id`,
		uuid.NewString(), userID,
		req.Company, req.Website, req.Location, req.Bio,
		req.Status, req.GitHubUsername, skills, social,
	)
	if isForeignKeyViolation(err) {
		// the owner was deleted after the token was issued
		return profile.Profile{}, user.ErrNotFound
	}

	return p, err
}

func (r *ProfilesRepo) AddExperience(ctx context.Context, userID string, e profile.Experience) (profile.Profile, error) {
	return r.prepend(ctx, "profiles.add_experience", "experience", userID, e)
}

func (r *ProfilesRepo) AddEducation(ctx context.Context, userID string, e profile.Education) (profile.Profile, error) {
	return r.prepend(ctx, "profiles.add_education", "education", userID, e)
}

func (r *ProfilesRepo) RemoveExperience(ctx context.Context, userID, entryID string) (profile.Profile, error) {
	return r.remove(ctx, "profiles.remove_experience", "experience", userID, entryID)
}

func (r *ProfilesRepo) RemoveEducation(ctx context.Context, userID, entryID string) (profile.Profile, error) {
	return r.remove(ctx, "profiles.remove_education", "education", userID, entryID)
}

// prepend puts entry at the front of column in one UPDATE; column is one of
// the two fixed sub-collection names, never user input.
func (r *ProfilesRepo) prepend(ctx context.Context, op, column, userID string, entry any) (profile.Profile, error) {
	doc, err := json.Marshal([]any{entry})
	if err != nil {
		return profile.Profile{}, fmt.Errorf("encode %s: %w", column, err)
	}

	return r.queryOne(ctx, op,
		fmt.Sprintf(`WITH updated AS (
			UPDATE profiles SET %[1]s = $2::jsonb || %[1]s, updated_at = NOW()
			WHERE user_id = $1
			RETURNING *
		)
		`, column)+profileSelect+` FROM updated p JOIN users u ON u.id = p.user_id`,
		userID, doc,
	)
}

// remove drops the entry with entryID and keeps the order of the rest. The
// row only matches when the entry exists, so an unknown id changes nothing.
func (r *ProfilesRepo) remove(ctx context.Context, op, column, userID, entryID string) (profile.Profile, error) {
	p, err := r.queryOne(ctx, op,
		fmt.Sprintf(`WITH updated AS (
			UPDATE profiles SET
				%[1]s = COALESCE((
					SELECT jsonb_agg(e.elem ORDER BY e.ord)
					FROM jsonb_array_elements(profiles.%[1]s) WITH ORDINALITY AS e(elem, ord)
					WHERE e.elem->>'id' <> $2
				), '[]'::jsonb),
				updated_at = NOW()
			WHERE user_id = $1 AND %[1]s @> jsonb_build_array(jsonb_build_object('id', $2::text))
			RETURNING *
		)
		`, column)+profileSelect+` FROM updated p JOIN users u ON u.id = p.user_id`,
		userID, entryID,
	)

	if !errors.Is(err, profile.ErrNotFound) {
		return p, err
	}

	// nothing matched: tell "no profile" apart from "no such entry"
	if _, getErr := r.GetByUserID(ctx, userID); getErr != nil {
		return profile.Profile{}, getErr
	}

	return profile.Profile{}, profile.ErrEntryNotFound
}
