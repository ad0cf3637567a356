// internal/app/features/chat/handler.go
package chat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/docuchat/docuchat/internal/app/features/errors"
	threadstore "github.com/docuchat/docuchat/internal/app/store/threads"
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/app/system/ragclient"
	"github.com/docuchat/docuchat/internal/app/system/viewdata"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves chat threads backed by the retrieval service.
type Handler struct {
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Threads *threadstore.Store
	RAG     *ragclient.Client

	sanitizer *bluemonday.Policy
}

func NewHandler(db *mongo.Database, rag *ragclient.Client, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:       logger,
		ErrLog:    errLog,
		Threads:   threadstore.New(db),
		RAG:       rag,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

type threadVM struct {
	ID      string
	Title   string
	Updated string
}

type messageVM struct {
	Role    string
	Text    string
	Sources []models.Source
}

type chatData struct {
	viewdata.BaseVM
	Threads  []threadVM
	Active   *threadVM
	Messages []messageVM
	Error    string
}

func ownerID(r *http.Request) (primitive.ObjectID, bool) {
	p, ok := auth.Principal(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	return p.ID, true
}

// ServeIndex lists the user's threads.
// GET /chat
func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/chat")
		return
	}

	ths, err := h.Threads.ListByOwner(r.Context(), owner)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: thread list failed", err, "Could not load your conversations.", "/chat")
		return
	}

	data := chatData{
		BaseVM:  viewdata.NewBaseVM(w, r, "Chat", "/chat"),
		Threads: threadVMs(ths),
	}
	templates.Render(w, r, "chat", data)
}

// HandleNewThread starts a thread and opens it.
// POST /chat/threads
func (h *Handler) HandleNewThread(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/chat")
		return
	}

	title := strings.TrimSpace(h.sanitizer.Sanitize(r.FormValue("title")))
	if title == "" {
		title = "New conversation"
	}

	th, err := h.Threads.Create(r.Context(), owner, title)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: thread create failed", err, "Could not start a conversation.", "/chat")
		return
	}

	http.Redirect(w, r, "/chat/threads/"+th.ID.Hex(), http.StatusSeeOther)
}

// ServeThread opens one thread with its transcript.
// GET /chat/threads/{id}
func (h *Handler) ServeThread(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/chat")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}

	th, err := h.Threads.GetOwned(r.Context(), id, owner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Redirect(w, r, "/chat", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "chat: thread load failed", err, "Could not load the conversation.", "/chat")
		return
	}

	ths, err := h.Threads.ListByOwner(r.Context(), owner)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: thread list failed", err, "Could not load your conversations.", "/chat")
		return
	}

	msgs := make([]messageVM, 0, len(th.Messages))
	for _, m := range th.Messages {
		msgs = append(msgs, messageVM{Role: m.Role, Text: m.Text, Sources: m.Sources})
	}

	active := threadVM{ID: th.ID.Hex(), Title: th.Title}
	data := chatData{
		BaseVM:   viewdata.NewBaseVM(w, r, th.Title, "/chat"),
		Threads:  threadVMs(ths),
		Active:   &active,
		Messages: msgs,
	}
	templates.Render(w, r, "chat", data)
}

// HandleSend posts a question to the retrieval backend and appends both the
// question and the answer to the thread. A backend failure is recorded
// verbatim as an assistant message so the transcript shows what happened;
// it never becomes an error page.
// POST /chat/threads/{id}/messages
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/chat")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}

	question := strings.TrimSpace(h.sanitizer.Sanitize(r.FormValue("question")))
	if question == "" {
		http.Redirect(w, r, "/chat/threads/"+id.Hex(), http.StatusSeeOther)
		return
	}

	th, err := h.Threads.GetOwned(r.Context(), id, owner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Redirect(w, r, "/chat", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "chat: thread load failed", err, "Could not load the conversation.", "/chat")
		return
	}

	userMsg := models.Message{
		Role: models.MessageUser,
		Text: question,
		Ts:   time.Now().UnixMilli(),
	}

	// The RAG call can be slow; give it its own generous deadline.
	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	var assistant models.Message
	ans, err := h.RAG.Query(ctx, question, th.RagID, owner.Hex())
	if err != nil {
		h.Log.Warn("chat: rag query failed",
			zap.String("thread_id", th.ID.Hex()), zap.Error(err))
		assistant = models.Message{
			Role: models.MessageAssistant,
			Text: err.Error(),
			Ts:   time.Now().UnixMilli(),
		}
	} else {
		sources := make([]models.Source, 0, len(ans.Sources))
		for _, s := range ans.Sources {
			sources = append(sources, models.Source{Source: s.Source, Page: s.Page, Snippet: s.Snippet})
		}
		assistant = models.Message{
			Role:    models.MessageAssistant,
			Text:    ans.Answer,
			Sources: sources,
			Ts:      time.Now().UnixMilli(),
		}
	}

	if err := h.Threads.AppendMessages(r.Context(), id, owner, userMsg, assistant); err != nil {
		h.ErrLog.LogServerError(w, r, "chat: message append failed", err, "Could not save the message.", "/chat/threads/"+id.Hex())
		return
	}

	// First question titles the thread.
	if len(th.Messages) == 0 {
		title := question
		if len(title) > 60 {
			title = title[:60]
		}
		if err := h.Threads.Rename(r.Context(), id, owner, title); err != nil {
			h.Log.Warn("chat: thread title not set", zap.Error(err))
		}
	}

	http.Redirect(w, r, "/chat/threads/"+id.Hex(), http.StatusSeeOther)
}

// HandleDelete removes a thread.
// POST /chat/threads/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/chat")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err == nil {
		if err := h.Threads.Delete(r.Context(), id, owner); err != nil && err != mongo.ErrNoDocuments {
			h.ErrLog.LogServerError(w, r, "chat: thread delete failed", err, "Could not delete the conversation.", "/chat")
			return
		}
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func threadVMs(ths []models.Thread) []threadVM {
	vms := make([]threadVM, 0, len(ths))
	for _, th := range ths {
		vms = append(vms, threadVM{
			ID:      th.ID.Hex(),
			Title:   th.Title,
			Updated: th.UpdatedAt.Format("Jan 2 15:04"),
		})
	}
	return vms
}
