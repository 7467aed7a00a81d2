package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/auth"
	"github.com/tahcohcat/fitchallenge-web/internal/challenge"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
	"github.com/tahcohcat/fitchallenge-web/internal/services"
)

func trackAndDay(r *http.Request) (challenge.Track, int, error) {
	vars := mux.Vars(r)
	track, err := challenge.ParseTrack(vars["type"])
	if err != nil {
		return "", 0, apperr.Validation(err.Error())
	}
	day, err := strconv.Atoi(vars["day"])
	if err != nil {
		return "", 0, apperr.Validationf("invalid day %q", vars["day"])
	}
	return track, day, nil
}

// GET /api/v1/classes?challenge_type=
func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	lang, err := h.requestLanguage(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	filter := models.ClassFilter{Language: lang, ChallengeType: r.URL.Query().Get("challenge_type")}
	if filter.ChallengeType != "" {
		if _, err := challenge.ParseTrack(filter.ChallengeType); err != nil {
			WriteError(w, r, apperr.Validation(err.Error()))
			return
		}
	}

	classes, err := h.catalog.ListClasses(r.Context(), filter)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	done, err := h.progress.CompletedClassIDs(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	views := make([]models.ClassView, 0, len(classes))
	for _, c := range classes {
		views = append(views, models.ClassView{ClassRecord: c, Completed: done[c.ID]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"language": lang, "classes": views})
}

// GET /api/v1/challenges/{type}/days/{day}
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	track, day, err := trackAndDay(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if !track.ValidDay(day) {
		WriteError(w, r, apperr.Validationf("day must be between 1 and %d for %s", track.TotalDays(), track))
		return
	}
	lang, err := h.requestLanguage(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	class, err := h.catalog.ResolveClass(r.Context(), track, day, lang)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	done, err := h.progress.IsCompleted(r.Context(), user.ID, class.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"class":      models.ClassView{ClassRecord: *class, Completed: done},
		"total_days": track.TotalDays(),
	})
}

type dayAction func(ctx context.Context, userID string, track challenge.Track, day int, language string) (*models.CompletionResult, error)

func (h *Handler) runDayAction(w http.ResponseWriter, r *http.Request, action dayAction) {
	user, _ := auth.UserFromContext(r.Context())

	track, day, err := trackAndDay(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	lang, err := h.requestLanguage(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	result, err := action(r.Context(), user.ID, track, day, lang)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/challenges/{type}/days/{day}/complete
func (h *Handler) CompleteDay(w http.ResponseWriter, r *http.Request) {
	h.runDayAction(w, r, h.progress.CompleteDay)
}

// POST /api/v1/challenges/{type}/days/{day}/achievements retries the unlock
// rules for a completed day.
func (h *Handler) EvaluateAchievements(w http.ResponseWriter, r *http.Request) {
	h.runDayAction(w, r, h.progress.EvaluateAchievements)
}

// GET /api/v1/progress
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	lang, err := h.requestLanguage(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	progress, err := h.progress.GetProgress(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	achievements, err := h.achievements.ListForUser(r.Context(), user.ID, lang)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"progress":     progress,
		"achievements": achievements,
		"language":     lang,
	})
}

// GET /api/v1/achievements
func (h *Handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	lang, err := h.requestLanguage(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	achievements, err := h.achievements.ListForUser(r.Context(), user.ID, lang)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"language": lang, "achievements": achievements})
}

// GET /api/v1/materials?category=
func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	lang, err := h.requestLanguage(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	materials, err := h.catalog.ListMaterials(r.Context(), models.MaterialFilter{
		Language: lang,
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"language":   lang,
		"categories": services.GroupMaterials(materials),
	})
}

// GET /api/v1/materials/{id}
func (h *Handler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	material, err := h.catalog.GetMaterial(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"material": material})
}
