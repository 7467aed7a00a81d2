package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/auth"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

// requireConfirm guards destructive admin calls: without ?confirm=true
// nothing is touched.
func requireConfirm(r *http.Request) error {
	if !queryBool(r, "confirm") {
		return apperr.Validation("deletion must be confirmed with confirm=true")
	}
	return nil
}

func auditLog(r *http.Request, action, target string) {
	admin, _ := auth.UserFromContext(r.Context())
	logger.New().Info("admin change", "admin_id", admin.ID, "action", action, "target", target)
}

// GET /api/v1/admin/classes?language=&challenge_type=
func (h *Handler) AdminListClasses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	classes, err := h.catalog.ListClasses(r.Context(), models.ClassFilter{
		Language:      q.Get("language"),
		ChallengeType: q.Get("challenge_type"),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

// POST /api/v1/admin/classes
func (h *Handler) AdminCreateClass(w http.ResponseWriter, r *http.Request) {
	var class models.ClassRecord
	if err := decodeJSON(r, &class); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.catalog.CreateClass(r.Context(), &class); err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "create_class", class.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"class": class})
}

// PUT /api/v1/admin/classes/{id}
func (h *Handler) AdminUpdateClass(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var class models.ClassRecord
	if err := decodeJSON(r, &class); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.catalog.UpdateClass(r.Context(), id, &class); err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "update_class", id)
	writeJSON(w, http.StatusOK, map[string]any{"class": class})
}

// DELETE /api/v1/admin/classes/{id}?confirm=true
func (h *Handler) AdminDeleteClass(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := requireConfirm(r); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.catalog.DeleteClass(r.Context(), id); err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "delete_class", id)
	success(w)
}

// GET /api/v1/admin/materials?language=&category=
func (h *Handler) AdminListMaterials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	materials, err := h.catalog.ListMaterials(r.Context(), models.MaterialFilter{
		Language: q.Get("language"),
		Category: q.Get("category"),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	categories, err := h.catalog.ListCategories(r.Context(), q.Get("language"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"materials": materials, "categories": categories})
}

// POST /api/v1/admin/materials
func (h *Handler) AdminCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var material models.MaterialRecord
	if err := decodeJSON(r, &material); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.catalog.CreateMaterial(r.Context(), &material); err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "create_material", material.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"material": material})
}

// PUT /api/v1/admin/materials/{id}
func (h *Handler) AdminUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var material models.MaterialRecord
	if err := decodeJSON(r, &material); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.catalog.UpdateMaterial(r.Context(), id, &material); err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "update_material", id)
	writeJSON(w, http.StatusOK, map[string]any{"material": material})
}

// DELETE /api/v1/admin/materials/{id}?confirm=true
func (h *Handler) AdminDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := requireConfirm(r); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.catalog.DeleteMaterial(r.Context(), id); err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "delete_material", id)
	success(w)
}

// GET /api/v1/admin/achievements?language=
func (h *Handler) AdminListAchievements(w http.ResponseWriter, r *http.Request) {
	defs, err := h.achievements.ListDefinitions(r.Context(), r.URL.Query().Get("language"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": defs})
}

// POST /api/v1/admin/achievements
func (h *Handler) AdminCreateAchievement(w http.ResponseWriter, r *http.Request) {
	var def models.AchievementDefinition
	if err := decodeJSON(r, &def); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.achievements.CreateDefinition(r.Context(), &def); err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "create_achievement", def.ID+"/"+def.Language)
	writeJSON(w, http.StatusCreated, map[string]any{"achievement": def})
}

// PUT /api/v1/admin/achievements/{id}; the body names the language.
func (h *Handler) AdminUpdateAchievement(w http.ResponseWriter, r *http.Request) {
	var def models.AchievementDefinition
	if err := decodeJSON(r, &def); err != nil {
		WriteError(w, r, err)
		return
	}
	def.ID = mux.Vars(r)["id"]

	if err := h.achievements.UpdateDefinition(r.Context(), &def); err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "update_achievement", def.ID+"/"+def.Language)
	writeJSON(w, http.StatusOK, map[string]any{"achievement": def})
}

// DELETE /api/v1/admin/achievements/{id}?language=&confirm=true
func (h *Handler) AdminDeleteAchievement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := requireConfirm(r); err != nil {
		WriteError(w, r, err)
		return
	}
	lang, ok := h.languages.Normalize(r.URL.Query().Get("language"))
	if !ok {
		WriteError(w, r, apperr.Validation("a supported language is required"))
		return
	}
	if err := h.achievements.DeleteDefinition(r.Context(), id, lang); err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "delete_achievement", id+"/"+lang)
	success(w)
}

// GET /api/v1/admin/authorized-emails
func (h *Handler) AdminListAuthorizedEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := h.allowList.List(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authorized_emails": emails})
}

// POST /api/v1/admin/authorized-emails grants access by hand, same as a
// purchase webhook would.
func (h *Handler) AdminAddAuthorizedEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	added, err := h.allowList.Add(r.Context(), req.Email)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	auditLog(r, "authorize_email", "allow-list")

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]bool{"success": true, "added": added})
}
