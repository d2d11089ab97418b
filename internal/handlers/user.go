package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/feedback-app/internal/httpx"
	"github.com/diewo77/feedback-app/internal/services"
	"github.com/diewo77/feedback-app/internal/validation"
	"github.com/diewo77/feedback-app/internal/view"
	"github.com/sirupsen/logrus"
)

// UserHandler sequences the /users form CRUD: decode, validate, invoke the
// service, then render or redirect. HTML is the primary mode; requests with
// Accept: application/json get JSON responses instead.
type UserHandler struct {
	Service *services.UserService
}

func NewUserHandler(s *services.UserService) *UserHandler { return &UserHandler{Service: s} }

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// formFromRequest reads the editable user fields from a submitted form.
// Nothing else travels in: role, enabled, timestamps and password are
// server-owned.
func formFromRequest(r *http.Request) services.UserForm {
	return services.UserForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Bio:      r.FormValue("bio"),
		Picture:  strings.TrimSpace(r.FormValue("picture")),
	}
}

// validateForm applies the submission constraints that gate the workflow.
func validateForm(form services.UserForm) validation.Violations {
	v := validation.Violations{}
	validation.Required("username", form.Username, v)
	validation.MaxLen("username", form.Username, 20, v)
	validation.Required("email", form.Email, v)
	validation.Email("email", form.Email, v)
	validation.MaxLen("email", form.Email, 60, v)
	validation.MaxLen("full_name", form.FullName, 60, v)
	validation.MaxLen("bio", form.Bio, 1000, v)
	validation.MaxLen("picture", form.Picture, 80, v)
	return v
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.FindAll(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, users)
		return
	}
	h.render(w, r, "user_index.html", http.StatusOK, map[string]any{"Users": users})
}

// Read shows a single record. A missing id renders the empty detail view;
// only the JSON mode reports 404.
func (h *UserHandler) Read(w http.ResponseWriter, r *http.Request) {
	var user any
	if id, ok := pathID(r); ok {
		u, err := h.Service.FindByID(r.Context(), id)
		if err != nil {
			h.storeError(w, r, err)
			return
		}
		if u != nil {
			user = u
		}
	}
	if wantsJSON(r) {
		if user == nil {
			httpx.JSONError(w, http.StatusNotFound, "user_not_found", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, user)
		return
	}
	h.render(w, r, "user_read.html", http.StatusOK, map[string]any{"User": user})
}

func (h *UserHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "user_create.html", http.StatusOK, map[string]any{
		"Form":   services.UserForm{},
		"Errors": validation.Violations{},
	})
}

// UpdateForm pre-fills the edit form from the stored record. A missing id
// sends the caller back to the collection.
func (h *UserHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	user, err := h.Service.FindByID(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if user == nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	h.render(w, r, "user_update.html", http.StatusOK, map[string]any{
		"Form":   services.FormFromUser(user),
		"Errors": validation.Violations{},
	})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.badForm(w, r)
		return
	}
	form := formFromRequest(r)
	if v := validateForm(form); !v.Empty() {
		h.invalid(w, r, "user_create.html", form, v)
		return
	}
	user, err := h.Service.Save(r.Context(), form)
	if err != nil {
		h.saveError(w, r, "user_create.html", form, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, user)
		return
	}
	http.Redirect(w, r, "/users/"+strconv.FormatUint(uint64(user.ID), 10)+"/update", http.StatusSeeOther)
}

// Update forces the record id from the path; an id smuggled in the form
// body is ignored.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.badForm(w, r)
		return
	}
	form := formFromRequest(r)
	form.ID = id
	if v := validateForm(form); !v.Empty() {
		h.invalid(w, r, "user_update.html", form, v)
		return
	}
	user, err := h.Service.Save(r.Context(), form)
	if errors.Is(err, services.ErrUserNotFound) {
		if wantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "user_not_found", nil)
			return
		}
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.saveError(w, r, "user_update.html", form, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, user)
		return
	}
	http.Redirect(w, r, "/users/"+strconv.FormatUint(uint64(user.ID), 10)+"/update", http.StatusSeeOther)
}

// Delete is unconditional; a missing id still lands on the collection view.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(r); ok {
		if err := h.Service.DeleteByID(r.Context(), id); err != nil {
			h.storeError(w, r, err)
			return
		}
		if wantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
			return
		}
	} else if wantsJSON(r) {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// invalid re-renders the originating form with the rejected values preserved.
func (h *UserHandler) invalid(w http.ResponseWriter, r *http.Request, page string, form services.UserForm, v validation.Violations) {
	if wantsJSON(r) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	h.render(w, r, page, http.StatusUnprocessableEntity, map[string]any{"Form": form, "Errors": v})
}

// saveError maps workflow conflicts onto the form; anything else is a
// storage failure.
func (h *UserHandler) saveError(w http.ResponseWriter, r *http.Request, page string, form services.UserForm, err error) {
	var dup *services.DuplicateEmailError
	switch {
	case errors.As(err, &dup):
		v := validation.Violations{"email": "email_taken"}
		if wantsJSON(r) {
			httpx.JSONError(w, http.StatusConflict, "email_taken", map[string]string{"email": dup.Email})
			return
		}
		h.render(w, r, page, http.StatusConflict, map[string]any{"Form": form, "Errors": v})
	case errors.Is(err, services.ErrUsernameTaken):
		v := validation.Violations{"username": "username_taken"}
		if wantsJSON(r) {
			httpx.JSONError(w, http.StatusConflict, "username_taken", nil)
			return
		}
		h.render(w, r, page, http.StatusConflict, map[string]any{"Form": form, "Errors": v})
	default:
		h.storeError(w, r, err)
	}
}

func (h *UserHandler) badForm(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	w.WriteHeader(http.StatusBadRequest)
	if _, werr := w.Write([]byte("invalid form")); werr != nil {
		_ = werr
	}
}

func (h *UserHandler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	logrus.WithError(err).Error("user store failure")
	if wantsJSON(r) {
		httpx.JSONError(w, http.StatusInternalServerError, "store_unavailable", nil)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	if _, werr := w.Write([]byte("storage error")); werr != nil {
		_ = werr
	}
}

func (h *UserHandler) render(w http.ResponseWriter, r *http.Request, name string, status int, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := view.Render(w, r, name, data); err != nil {
		if _, werr := w.Write([]byte("template render error: " + err.Error())); werr != nil {
			_ = werr
		}
	}
}
