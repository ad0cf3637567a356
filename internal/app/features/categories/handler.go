// internal/app/features/categories/handler.go
package categories

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/docuchat/docuchat/internal/app/features/errors"
	categorystore "github.com/docuchat/docuchat/internal/app/store/categories"
	documentstore "github.com/docuchat/docuchat/internal/app/store/documents"
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/app/system/flash"
	"github.com/docuchat/docuchat/internal/app/system/normalize"
	"github.com/docuchat/docuchat/internal/app/system/timeouts"
	"github.com/docuchat/docuchat/internal/app/system/viewdata"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages document categories.
type Handler struct {
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	Categories *categorystore.Store
	Documents  *documentstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		ErrLog:     errLog,
		Categories: categorystore.New(db),
		Documents:  documentstore.New(db),
	}
}

type categoryVM struct {
	ID        string
	Name      string
	DocCount  int64
	CreatedAt string
}

type listData struct {
	viewdata.BaseVM
	Categories []categoryVM
}

// ServeList renders all categories with their document counts.
// GET /categories
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category list failed", err, "Could not load categories.", "/categories")
		return
	}

	vms := make([]categoryVM, 0, len(cats))
	for _, c := range cats {
		count, err := h.Documents.CountByCategory(ctx, c.ID)
		if err != nil {
			h.Log.Warn("category doc count failed", zap.String("category_id", c.ID.Hex()), zap.Error(err))
		}
		vms = append(vms, categoryVM{
			ID:        c.ID.Hex(),
			Name:      c.Name,
			DocCount:  count,
			CreatedAt: c.CreatedAt.Format("Jan 2, 2006"),
		})
	}

	data := listData{
		BaseVM:     viewdata.NewBaseVM(w, r, "Categories", "/categories"),
		Categories: vms,
	}
	templates.Render(w, r, "categories_list", data)
}

// HandleCreate adds a category.
// POST /categories
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/categories")
		return
	}

	name := normalize.Name(r.FormValue("name"))
	if name == "" {
		flash.Set(w, flash.Error, "Category name is required.")
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Categories.Create(ctx, name, actor.ID); err != nil {
		if err == categorystore.ErrDuplicateName {
			flash.Set(w, flash.Error, "A category with this name already exists.")
			http.Redirect(w, r, "/categories", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "category create failed", err, "Could not create the category.", "/categories")
		return
	}

	flash.Set(w, flash.Success, "Category created.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

// HandleRename renames a category.
// POST /categories/{id}/rename
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}

	name := normalize.Name(r.FormValue("name"))
	if name == "" {
		flash.Set(w, flash.Error, "Category name is required.")
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Categories.Rename(ctx, id, name); err != nil {
		if err == categorystore.ErrDuplicateName {
			flash.Set(w, flash.Error, "A category with this name already exists.")
			http.Redirect(w, r, "/categories", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "category rename failed", err, "Could not rename the category.", "/categories")
		return
	}

	flash.Set(w, flash.Success, "Category renamed.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

// HandleDelete removes an empty category. Categories still holding documents
// are refused so document records never dangle.
// POST /categories/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	count, err := h.Documents.CountByCategory(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "category count failed", err, "Could not delete the category.", "/categories")
		return
	}
	if count > 0 {
		flash.Set(w, flash.Error, "Remove the category's documents first.")
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}

	if err := h.Categories.Delete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "category delete failed", err, "Could not delete the category.", "/categories")
		return
	}

	flash.Set(w, flash.Success, "Category deleted.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}
