package web

import (
	"net/http"

	"github.com/matryer/way"
	"github.com/parleyhq/parley/types"
)

func (h *Handler) createFriendship(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequesterID string `json:"requesterID"`
		ReceiverID  string `json:"receiverID"`
	}
	if err := decodeBody(r, &body); err != nil {
		h.respondErr(w, err)
		return
	}

	friendship, err := h.Service.CreateFriendship(r.Context(), types.CreateFriendship{
		RequesterID: body.RequesterID,
		ReceiverID:  body.ReceiverID,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, friendship, http.StatusCreated)
}

func (h *Handler) respondFriendship(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userID"`
		Action string `json:"action"`
	}
	if err := decodeBody(r, &body); err != nil {
		h.respondErr(w, err)
		return
	}

	ctx := r.Context()
	responded, err := h.Service.RespondFriendship(ctx, types.RespondFriendship{
		FriendshipID: way.Param(ctx, "friendship_id"),
		UserID:       body.UserID,
		Action:       types.FriendshipAction(body.Action),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, responded, http.StatusOK)
}

func (h *Handler) friends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.Service.Friends(r.Context(), types.ListFriends{
		UserID: r.URL.Query().Get("user_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if friends == nil {
		friends = []types.User{} // non null array
	}

	h.respond(w, friends, http.StatusOK)
}
