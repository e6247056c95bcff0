package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/render"
	"github.com/PyWorldGeo/chatroomproject2/internal/service"
	"github.com/PyWorldGeo/chatroomproject2/internal/validation"
)

// ForumHandler はルーム・メッセージ・トピックの画面を扱います
type ForumHandler struct {
	svc  *service.ForumService
	view *render.Renderer
}

func NewForumHandler(s *service.ForumService, view *render.Renderer) *ForumHandler {
	return &ForumHandler{svc: s, view: view}
}

// Home はルーム一覧（検索・ページ分割）を表示します
func (h *ForumHandler) Home(w http.ResponseWriter, r *http.Request, me *models.User) {
	q := r.URL.Query().Get("q")
	v, err := h.svc.Home(r.Context(), q, r.URL.Query().Get("page"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page(h.view, w, r, me, "home", render.Data{
		"Query":     v.Query,
		"Rooms":     v.Rooms,
		"Topics":    v.Topics,
		"RoomCount": v.RoomCount,
		"Messages":  v.Messages,
	})
}

// Room はルームのメッセージと参加者を表示します
func (h *ForumHandler) Room(w http.ResponseWriter, r *http.Request, me *models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	v, err := h.svc.Room(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page(h.view, w, r, me, "room", render.Data{
		"Room":         &v.Room,
		"IsHost":       v.Room.IsHostedBy(me),
		"Messages":     v.Messages,
		"Participants": v.Participants,
	})
}

// PostMessage はメッセージを投稿してルームへリダイレクトします
func (h *ForumHandler) PostMessage(w http.ResponseWriter, r *http.Request, me *models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	_, err := h.svc.PostMessage(r.Context(), id, me, r.PostFormValue("body"))
	if err != nil && !errors.Is(err, service.ErrEmptyMessage) {
		writeServiceError(w, r, err)
		return
	}
	redirect(w, r, fmt.Sprintf("/room/%d", id))
}

// CreateRoom はルーム作成フォームの表示（GET）と作成（POST）を行います
func (h *ForumHandler) CreateRoom(w http.ResponseWriter, r *http.Request, me *models.User) {
	form := roomForm{}
	var errs validation.FieldErrors
	if r.Method == http.MethodPost {
		form = parseRoomForm(r)
		if errs = validation.Validate(&form); errs == nil {
			if _, err := h.svc.CreateRoom(r.Context(), me, form.input()); err != nil {
				writeServiceError(w, r, err)
				return
			}
			redirect(w, r, "/")
			return
		}
	}
	h.roomForm(w, r, me, nil, form, errs)
}

// UpdateRoom はホストのみがルームを編集できます
func (h *ForumHandler) UpdateRoom(w http.ResponseWriter, r *http.Request, me *models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	room, err := h.svc.RoomForHost(r.Context(), id, me)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	form := roomForm{Topic: room.TopicName(), Name: room.Name, Description: room.Description}
	var errs validation.FieldErrors
	if r.Method == http.MethodPost {
		form = parseRoomForm(r)
		if errs = validation.Validate(&form); errs == nil {
			if _, err := h.svc.UpdateRoom(r.Context(), id, me, form.input()); err != nil {
				writeServiceError(w, r, err)
				return
			}
			redirect(w, r, "/")
			return
		}
	}
	h.roomForm(w, r, me, &room, form, errs)
}

func (h *ForumHandler) roomForm(w http.ResponseWriter, r *http.Request, me *models.User, room *models.Room, form roomForm, errs validation.FieldErrors) {
	topics, err := h.svc.AllTopics(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	data := render.Data{"Form": form, "Topics": topics, "Room": room}
	if errs != nil {
		data["Errors"] = errs
	}
	page(h.view, w, r, me, "room_form", data)
}

// DeleteRoom は確認画面（GET）と削除（POST）を行います。ホストのみ
func (h *ForumHandler) DeleteRoom(w http.ResponseWriter, r *http.Request, me *models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		if err := h.svc.DeleteRoom(r.Context(), id, me); err != nil {
			writeServiceError(w, r, err)
			return
		}
		redirect(w, r, "/")
		return
	}
	room, err := h.svc.RoomForHost(r.Context(), id, me)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page(h.view, w, r, me, "delete", render.Data{"Obj": room.Name, "Back": fmt.Sprintf("/room/%d", room.ID)})
}

// DeleteMessage は確認画面（GET）と削除（POST）を行います。投稿者のみ
func (h *ForumHandler) DeleteMessage(w http.ResponseWriter, r *http.Request, me *models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		if err := h.svc.DeleteMessage(r.Context(), id, me); err != nil {
			writeServiceError(w, r, err)
			return
		}
		redirect(w, r, "/")
		return
	}
	msg, err := h.svc.MessageForAuthor(r.Context(), id, me)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page(h.view, w, r, me, "delete", render.Data{"Obj": msg.Body, "Back": fmt.Sprintf("/room/%d", msg.RoomID)})
}

// Topics はトピックを検索します
func (h *ForumHandler) Topics(w http.ResponseWriter, r *http.Request, me *models.User) {
	q := r.URL.Query().Get("q")
	topics, err := h.svc.Topics(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page(h.view, w, r, me, "topics", render.Data{"Query": q, "Topics": topics})
}

// Activity は全メッセージを新しい順に表示します
func (h *ForumHandler) Activity(w http.ResponseWriter, r *http.Request, me *models.User) {
	msgs, err := h.svc.Activity(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page(h.view, w, r, me, "activity", render.Data{"Messages": msgs})
}
