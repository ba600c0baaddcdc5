package web

import (
	"net/http"

	"github.com/parleyhq/parley/types"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := decodeBody(r, &body); err != nil {
		h.respondErr(w, err)
		return
	}

	user, err := h.Service.Login(r.Context(), types.LoginUser{
		Username: body.Username,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, user, http.StatusOK)
}

func (h *Handler) searchUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	users, err := h.Service.SearchUsers(r.Context(), types.SearchUsers{
		Query:  q.Get("q"),
		UserID: q.Get("user_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if users == nil {
		users = []types.User{} // non null array
	}

	h.respond(w, users, http.StatusOK)
}
