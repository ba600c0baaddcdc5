package web

import (
	"net/http"

	"github.com/matryer/way"
	"github.com/parleyhq/parley/types"
)

func (h *Handler) joinRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code     string `json:"code"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if err := decodeBody(r, &body); err != nil {
		h.respondErr(w, err)
		return
	}

	joined, err := h.Service.JoinOrCreateRoom(r.Context(), types.JoinRoom{
		Code:     body.Code,
		Password: body.Password,
		Username: body.Username,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	statusCode := http.StatusOK
	if joined.Created {
		statusCode = http.StatusCreated
	}
	h.respond(w, joined, statusCode)
}

func (h *Handler) roomMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Service.RoomMessages(r.Context(), types.ListRoomMessages{
		Code: way.Param(r.Context(), "code"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if messages == nil {
		messages = []types.RoomMessage{} // non null array
	}

	h.respond(w, messages, http.StatusOK)
}

func (h *Handler) createRoomMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Sender  string `json:"sender"`
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		h.respondErr(w, err)
		return
	}

	message, err := h.Service.CreateRoomMessage(r.Context(), types.CreateRoomMessage{
		Code:    way.Param(r.Context(), "code"),
		Sender:  body.Sender,
		Content: body.Content,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, message, http.StatusCreated)
}
