package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/turtacn/moldock/internal/application/docking"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/moldock/pkg/errors"
)

// StructureReader fetches artifact bytes, waiting out storage propagation lag.
type StructureReader interface {
	Await(ctx context.Context, path string) ([]byte, error)
}

// StructureHandler serves persisted PDB artifacts to molecular viewers.
type StructureHandler struct {
	reader StructureReader
	logger logging.Logger

	// cacheMaxAge controls the Cache-Control header on successful reads.
	// Artifacts are immutable once written, so clients may cache freely.
	cacheMaxAge int
}

func NewStructureHandler(reader StructureReader, logger logging.Logger) *StructureHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &StructureHandler{
		reader:      reader,
		logger:      logger,
		cacheMaxAge: 3600,
	}
}

// isPathSegment reports whether s can be used as a single path element.
// The artifact path is built by joining the query parameters, so separators
// and parent references would address files outside the results prefix.
func isPathSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\\")
}

// Get handles GET /api/v1/structures. The three query parameters identify one
// artifact: structure_type selects ligand or complex, target and molecule_id
// locate it under the results prefix. A still-propagating or absent artifact
// yields a plain 404 so viewers can poll without special-casing timeouts.
func (h *StructureHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind, err := docking.ParseStructureKind(q.Get("structure_type"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	targetName := q.Get("target")
	if !isPathSegment(targetName) {
		writeAppError(w, errors.New(errors.ErrCodeBadRequest, "target must be a plain name"))
		return
	}
	moleculeID := q.Get("molecule_id")
	if !isPathSegment(moleculeID) {
		writeAppError(w, errors.New(errors.ErrCodeBadRequest, "molecule_id must be a plain name"))
		return
	}

	path := docking.ArtifactPath(targetName, moleculeID, kind)

	data, err := h.reader.Await(r.Context(), path)
	if err != nil {
		if errors.IsNotFound(err) || errors.IsCode(err, errors.ErrCodeStorageTimeout) {
			h.logger.Warn("structure artifact not visible",
				logging.String("path", path),
				logging.String("target", targetName))
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Code:    errors.ErrCodeNotFound.String(),
				Message: "structure not found",
			})
			return
		}
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "chemical/x-pdb")
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(h.cacheMaxAge))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
