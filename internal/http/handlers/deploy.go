package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/sqlinline"
)

type recurringConfig struct {
	Days []int  `json:"days"`
	Time string `json:"time"`
}

// DeploySchedulePost validates a dispatch request for a finished post and
// queues it as a pending row. Delivery happens asynchronously in the worker,
// so 202 means queued, not published.
func (a *App) DeploySchedulePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostID          string           `json:"post_id"`
		ScheduleType    string           `json:"schedule_type"`
		Platforms       []string         `json:"platforms"`
		ScheduleTime    *time.Time       `json:"schedule_time"`
		RecurringConfig *recurringConfig `json:"recurring_config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}

	ctx := r.Context()
	post, err := a.loadPost(ctx, req.PostID)
	if err != nil {
		a.domainError(w, err)
		return
	}

	scheduleType := domain.ScheduleType(req.ScheduleType)
	var scheduledAt *time.Time
	switch scheduleType {
	case domain.ScheduleImmediate:
	case domain.ScheduleAt:
		if req.ScheduleTime == nil {
			a.error(w, http.StatusBadRequest, "bad_request", "schedule_time is required for scheduled posts")
			return
		}
		scheduledAt = req.ScheduleTime
	case domain.ScheduleRecurring:
		if req.RecurringConfig == nil {
			a.error(w, http.StatusBadRequest, "bad_request", "recurring_config is required for recurring posts")
			return
		}
		next, err := domain.NextOccurrence(time.Now().UTC(), req.RecurringConfig.Days, req.RecurringConfig.Time)
		if err != nil {
			a.domainError(w, err)
			return
		}
		scheduledAt = &next
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "schedule_type must be immediate, scheduled or recurring")
		return
	}
	if len(req.Platforms) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "platforms list is empty")
		return
	}

	sp := domain.ScheduledPost{
		PostID:       post.ID,
		Platforms:    domain.EncodeImageList(req.Platforms),
		PostText:     composePostText(post),
		ScheduleType: scheduleType,
		ScheduledAt:  scheduledAt,
		Status:       domain.ScheduleStatusPending,
	}
	if key := post.FirstVariantPath(); key != "" {
		sp.MediaURL = a.Store.URL(key)
	}
	if scheduleType == domain.ScheduleRecurring {
		sp.RecurrenceDays = domain.EncodeRecurrenceDays(req.RecurringConfig.Days)
		sp.RecurrenceTime = req.RecurringConfig.Time
	}

	err = a.SQL.QueryRow(ctx, sqlinline.QInsertScheduledPost,
		sp.PostID, sp.Platforms, sp.PostText, sp.MediaURL, string(sp.ScheduleType),
		sp.ScheduledAt, sp.RecurrenceDays, sp.RecurrenceTime).
		Scan(&sp.ID, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		a.domainError(w, err)
		return
	}

	a.Logger.Info().
		Str("scheduled_post_id", sp.ID).
		Str("post_id", sp.PostID).
		Str("schedule_type", string(sp.ScheduleType)).
		Msg("http: post queued for dispatch")
	a.json(w, http.StatusAccepted, renderScheduled(sp))
}

// DeployScheduledPosts lists the dispatch queue, optionally filtered by post
// or campaign.
func (a *App) DeployScheduledPosts(w http.ResponseWriter, r *http.Request) {
	var postID, campaignID any
	if v := r.URL.Query().Get("post_id"); v != "" {
		if err := requireUUID(v); err != nil {
			a.domainError(w, err)
			return
		}
		postID = v
	}
	if v := r.URL.Query().Get("campaign_id"); v != "" {
		if err := requireUUID(v); err != nil {
			a.domainError(w, err)
			return
		}
		campaignID = v
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListScheduledPosts, postID, campaignID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		sp, err := scanScheduled(rows)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("http: skipping scheduled post row")
			continue
		}
		out = append(out, renderScheduled(sp))
	}
	if err := rows.Err(); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, out)
}

// DeployCancel flips a pending or failed row to cancelled and, when the post
// already reached the proxy, asks it to withdraw the remote copy. The remote
// call is best effort; the row stays cancelled either way.
func (a *App) DeployCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireUUID(id); err != nil {
		a.domainError(w, err)
		return
	}

	var cancelledID, externalRef string
	err := a.SQL.QueryRow(r.Context(), sqlinline.QCancelScheduledPost, id).Scan(&cancelledID, &externalRef)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "scheduled post not found or already dispatched")
		return
	}
	if err != nil {
		a.domainError(w, err)
		return
	}

	if externalRef != "" && a.Social.Configured() {
		if err := a.Social.Cancel(r.Context(), externalRef); err != nil {
			a.Logger.Warn().Err(err).Str("external_ref", externalRef).Msg("http: remote cancel failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// composePostText joins caption and body into the outbound message, one blank
// line between them.
func composePostText(p *domain.Post) string {
	caption := strings.TrimSpace(p.Caption)
	body := strings.TrimSpace(p.BodyText)
	switch {
	case caption == "":
		return body
	case body == "":
		return caption
	}
	return caption + "\n\n" + body
}
