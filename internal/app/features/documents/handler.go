// internal/app/features/documents/handler.go
package documents

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/docuchat/docuchat/internal/app/features/errors"
	categorystore "github.com/docuchat/docuchat/internal/app/store/categories"
	documentstore "github.com/docuchat/docuchat/internal/app/store/documents"
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/app/system/flash"
	"github.com/docuchat/docuchat/internal/app/system/ragclient"
	"github.com/docuchat/docuchat/internal/app/system/timeouts"
	"github.com/docuchat/docuchat/internal/app/system/viewdata"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxUploadBytes caps one document upload at 32 MB.
const maxUploadBytes = 32 << 20

// Handler manages document ingestion into the retrieval backend.
type Handler struct {
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	Documents  *documentstore.Store
	Categories *categorystore.Store
	RAG        *ragclient.Client
}

func NewHandler(db *mongo.Database, rag *ragclient.Client, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		ErrLog:     errLog,
		Documents:  documentstore.New(db),
		Categories: categorystore.New(db),
		RAG:        rag,
	}
}

type documentVM struct {
	ID          string
	Name        string
	Category    string
	Size        int64
	ChunksAdded int
	UploadedAt  string
}

type categoryOption struct {
	ID   string
	Name string
}

type listData struct {
	viewdata.BaseVM
	Documents  []documentVM
	Categories []categoryOption
	Filter     string
}

// ServeList renders the ingested documents, optionally filtered by category.
// GET /documents
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var filter *primitive.ObjectID
	filterHex := r.URL.Query().Get("category")
	if filterHex != "" {
		if id, err := primitive.ObjectIDFromHex(filterHex); err == nil {
			filter = &id
		}
	}

	docs, err := h.Documents.List(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "document list failed", err, "Could not load documents.", "/documents")
		return
	}
	cats, err := h.Categories.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category list failed", err, "Could not load categories.", "/documents")
		return
	}

	catNames := make(map[primitive.ObjectID]string, len(cats))
	opts := make([]categoryOption, 0, len(cats))
	for _, c := range cats {
		catNames[c.ID] = c.Name
		opts = append(opts, categoryOption{ID: c.ID.Hex(), Name: c.Name})
	}

	vms := make([]documentVM, 0, len(docs))
	for _, d := range docs {
		category := ""
		if d.CategoryID != nil {
			category = catNames[*d.CategoryID]
		}
		vms = append(vms, documentVM{
			ID:          d.ID.Hex(),
			Name:        d.Name,
			Category:    category,
			Size:        d.Size,
			ChunksAdded: d.ChunksAdded,
			UploadedAt:  d.CreatedAt.Format("Jan 2, 2006 15:04"),
		})
	}

	data := listData{
		BaseVM:     viewdata.NewBaseVM(w, r, "Documents", "/documents"),
		Documents:  vms,
		Categories: opts,
		Filter:     filterHex,
	}
	templates.Render(w, r, "documents_list", data)
}

// HandleUpload sends a file to the retrieval backend for indexing and
// records its metadata.
// POST /documents
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/documents")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.ErrLog.LogBadRequest(w, r, "document upload too large", err, "File is too large. Maximum size is 32 MB.", "/documents")
		return
	}

	categoryID, err := primitive.ObjectIDFromHex(r.FormValue("category"))
	if err != nil {
		flash.Set(w, flash.Error, "Choose a category.")
		http.Redirect(w, r, "/documents", http.StatusSeeOther)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		flash.Set(w, flash.Error, "Choose a file to upload.")
		http.Redirect(w, r, "/documents", http.StatusSeeOther)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	// Indexing large files can take a while.
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	res, err := h.RAG.Ingest(ctx, header.Filename, contentType, file)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "document ingest failed", err, "The document could not be indexed; please retry.", "/documents")
		return
	}

	doc := models.Document{
		Name:        header.Filename,
		CategoryID:  &categoryID,
		UploadedBy:  actor.ID,
		Size:        header.Size,
		ContentType: contentType,
		ChunksAdded: res.ChunksAdded,
	}
	if _, err := h.Documents.Create(ctx, doc); err != nil {
		h.ErrLog.LogServerError(w, r, "document record failed", err, "The document was indexed but not recorded; please retry.", "/documents")
		return
	}

	h.Log.Info("document ingested",
		zap.String("name", header.Filename),
		zap.Int("chunks", res.ChunksAdded),
		zap.String("uploaded_by", actor.ID.Hex()))

	flash.Set(w, flash.Success, "Document uploaded and indexed.")
	http.Redirect(w, r, "/documents", http.StatusSeeOther)
}

// HandleDelete removes a document record.
// POST /documents/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/documents", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Documents.GetByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			flash.Set(w, flash.Info, "Document no longer exists.")
			http.Redirect(w, r, "/documents", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "document load failed", err, "Could not delete the document.", "/documents")
		return
	}

	if err := h.Documents.Delete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "document delete failed", err, "Could not delete the document.", "/documents")
		return
	}

	flash.Set(w, flash.Success, "Document deleted.")
	http.Redirect(w, r, "/documents", http.StatusSeeOther)
}
