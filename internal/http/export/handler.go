package export

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/export"
	"github.com/MrJamesThe3rd/tally/internal/http/actor"
	"github.com/MrJamesThe3rd/tally/internal/http/respond"
)

const statementFile = "statement.txt"

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/counterparties/{id}/export", h.exportStatement)
}

// exportStatement answers with a zip holding statement.txt followed by the
// receipt images in statement order.
func (h *Handler) exportStatement(w http.ResponseWriter, r *http.Request) {
	counterparty, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	workDir, err := os.MkdirTemp("", "tally-export-*")
	if err != nil {
		respond.Error(w, r, fmt.Errorf("creating export dir: %w", err))
		return
	}
	defer os.RemoveAll(workDir)

	stmt, err := h.svc.Export(r.Context(), actor.ID(r.Context()), counterparty, workDir)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"statement_%s_%s.zip\"",
		counterparty.String()[:8], time.Now().Format("20060102")))

	if err := writeArchive(w, stmt); err != nil {
		// Headers are already sent; the client sees a truncated archive.
		slog.Error("failed to write export archive", "counterparty_id", counterparty, "error", err)
	}
}

func writeArchive(w io.Writer, stmt *export.Statement) error {
	zw := zip.NewWriter(w)

	entry, err := zw.Create(statementFile)
	if err != nil {
		return fmt.Errorf("adding %s: %w", statementFile, err)
	}

	if _, err := io.WriteString(entry, stmt.Body()); err != nil {
		return fmt.Errorf("writing %s: %w", statementFile, err)
	}

	for _, item := range stmt.Items {
		if item.FilePath == "" {
			continue
		}

		if err := addFile(zw, item.FilePath); err != nil {
			return err
		}
	}

	return zw.Close()
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	entry, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("adding %s: %w", path, err)
	}

	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("copying %s: %w", path, err)
	}

	return nil
}
