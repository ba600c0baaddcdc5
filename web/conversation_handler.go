package web

import (
	"net/http"

	"github.com/parleyhq/parley/types"
)

func (h *Handler) conversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.Service.Conversations(r.Context(), types.ListConversations{
		UserID: r.URL.Query().Get("user_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if conversations == nil {
		conversations = []types.Conversation{} // non null array
	}

	h.respond(w, conversations, http.StatusOK)
}

func (h *Handler) createConversation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID      string `json:"userID"`
		OtherUserID string `json:"otherUserID"`
	}
	if err := decodeBody(r, &body); err != nil {
		h.respondErr(w, err)
		return
	}

	conversation, err := h.Service.FindOrCreateDirectConversation(r.Context(), types.FindOrCreateDirectConversation{
		UserID:      body.UserID,
		OtherUserID: body.OtherUserID,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, conversation, http.StatusOK)
}
