package controllers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/models"
)

// userRefs resolves ids to populated references with a single batched
// lookup. Ids that no longer resolve map to an id-only reference.
func (h *Handler) userRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.UserRef, error) {
	refs := make(map[primitive.ObjectID]*models.UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}
	users, err := h.store.UsersByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		refs[u.ID] = u.Ref()
	}
	for _, id := range ids {
		if _, ok := refs[id]; !ok {
			refs[id] = &models.UserRef{ID: id}
		}
	}
	return refs, nil
}

// initiativeViews populates organizers, and participants too when
// withParticipants is set. Otherwise participants carry their id only.
func (h *Handler) initiativeViews(ctx context.Context, list []models.Initiative, withParticipants bool) ([]models.InitiativeView, error) {
	var ids []primitive.ObjectID
	for _, in := range list {
		ids = append(ids, in.Organizer)
		if withParticipants {
			for _, p := range in.Participants {
				ids = append(ids, p.User)
			}
		}
	}
	refs, err := h.userRefs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.InitiativeView, 0, len(list))
	for _, in := range list {
		participants := make([]models.ParticipantView, 0, len(in.Participants))
		for _, p := range in.Participants {
			ref, ok := refs[p.User]
			if !ok {
				ref = &models.UserRef{ID: p.User}
			}
			participants = append(participants, models.ParticipantView{User: ref, JoinedAt: p.JoinedAt})
		}
		views = append(views, models.InitiativeView{
			ID:           in.ID,
			Title:        in.Title,
			Description:  in.Description,
			Category:     in.Category,
			Location:     in.Location,
			StartDate:    in.StartDate,
			EndDate:      in.EndDate,
			Participants: participants,
			Organizer:    refs[in.Organizer],
			Status:       in.Status,
			Impact:       in.Impact,
			CreatedAt:    in.CreatedAt,
			UpdatedAt:    in.UpdatedAt,
		})
	}
	return views, nil
}

func (h *Handler) initiativeView(ctx context.Context, in models.Initiative) (models.InitiativeView, error) {
	views, err := h.initiativeViews(ctx, []models.Initiative{in}, true)
	if err != nil {
		return models.InitiativeView{}, err
	}
	return views[0], nil
}

// applicationViews attaches an initiative summary to each application.
func (h *Handler) applicationViews(ctx context.Context, apps []models.VolunteerApplication) ([]models.ApplicationView, error) {
	summaries := map[primitive.ObjectID]*models.InitiativeSummary{}
	if len(apps) > 0 {
		ids := make([]primitive.ObjectID, 0, len(apps))
		for _, a := range apps {
			ids = append(ids, a.Initiative)
		}
		list, err := h.store.InitiativesByIDs(ctx, dedupe(ids))
		if err != nil {
			return nil, err
		}
		for _, in := range list {
			summaries[in.ID] = in.Summary()
		}
	}

	views := make([]models.ApplicationView, 0, len(apps))
	for _, a := range apps {
		views = append(views, applicationView(a, summaries[a.Initiative]))
	}
	return views, nil
}

func applicationView(a models.VolunteerApplication, in *models.InitiativeSummary) models.ApplicationView {
	skills := a.Skills
	if skills == nil {
		skills = []string{}
	}
	return models.ApplicationView{
		ID:           a.ID,
		User:         a.User,
		Initiative:   in,
		Skills:       skills,
		Availability: a.Availability,
		Motivation:   a.Motivation,
		Status:       a.Status,
		ReviewedBy:   a.ReviewedBy,
		ReviewNotes:  a.ReviewNotes,
		AppliedAt:    a.AppliedAt,
		ReviewedAt:   a.ReviewedAt,
	}
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
