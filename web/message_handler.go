package web

import (
	"net/http"

	"github.com/matryer/way"
	"github.com/parleyhq/parley/types"
)

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Service.Messages(r.Context(), types.ListMessages{
		ConversationID: way.Param(r.Context(), "conversation_id"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if messages == nil {
		messages = []types.Message{} // non null array
	}

	h.respond(w, messages, http.StatusOK)
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID  string `json:"userID"`
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		h.respondErr(w, err)
		return
	}

	message, err := h.Service.CreateMessage(r.Context(), types.CreateMessage{
		ConversationID: way.Param(r.Context(), "conversation_id"),
		UserID:         body.UserID,
		Content:        body.Content,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, message, http.StatusCreated)
}

func (h *Handler) typing(w http.ResponseWriter, r *http.Request) {
	var in types.BroadcastTyping
	if err := decodeBody(r, &in); err != nil {
		h.respondErr(w, err)
		return
	}

	if err := h.Service.BroadcastTyping(r.Context(), in); err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, struct{}{}, http.StatusOK)
}
