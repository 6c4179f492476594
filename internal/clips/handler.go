package clips

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"clip-storage/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const clipContentType = "video/mp4"

// Handler exposes the clip storage HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
	secret  string
}

// NewHandler returns a Handler for svc. Metrics may be nil to disable metric
// recording (e.g. in tests). An empty secret disables the ?secret= check.
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics, secret string) *Handler {
	return &Handler{svc: svc, log: log, metrics: m, secret: secret}
}

// Register mounts the clip routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireSecret)
		r.Get("/get/{id}", h.Get)
		r.Get("/api/clip/get/cdn/{server}/{id}", h.Get)
		r.Get("/info", h.Info)
		r.Get("/delete", h.Delete)
		r.Post("/upload", h.Upload)
		r.Get("/set", h.SetBounds)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "404 not found.")
	})
}

// requireSecret checks the shared ?secret= query parameter.
func (h *Handler) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.secret == "" {
			next.ServeHTTP(w, r)
			return
		}
		provided := r.URL.Query().Get("secret")
		if provided == "" {
			writeError(w, http.StatusBadRequest, "secret has to be set.")
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			writeError(w, http.StatusUnauthorized, "Secret is not valid.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /upload?id={id}&size={bytes}. The body is the raw clip.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	size, err := ParseDeclaredSize(q.Get("size"))
	if err != nil {
		h.rejected(w, err)
		return
	}
	id := q.Get("id")
	if !ValidUploadID(id) {
		h.rejected(w, invalidInput("Id has to be a string"))
		return
	}

	res, err := h.svc.Upload(r.Context(), id, size, r.Body)
	if err != nil {
		h.rejected(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.UploadCommitted(res.BytesReceived)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"uploaded": res.BytesReceived,
		"success":  true,
		"hex":      res.Digest,
	})
}

// rejected writes the response for a failed upload.
func (h *Handler) rejected(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	if kind == "" {
		kind = KindStorage
	}
	if h.metrics != nil {
		h.metrics.UploadRejected(string(kind))
	}

	status := statusFor(kind)
	if kind == KindPayloadTooLarge || kind == KindAborted {
		// The rest of the body was never read; don't reuse the connection.
		w.Header().Set("Connection", "close")
	}

	var ae *AdmissionError
	if !errors.As(err, &ae) {
		h.log.Error("upload failed", slog.String("error", err.Error()))
		writeError(w, status, "Upload failed.")
		return
	}
	if kind == KindStorage {
		h.log.Error("upload storage failure", slog.String("error", err.Error()))
	}
	writeError(w, status, ae.Reason)
}

func statusFor(kind Kind) int {
	switch kind {
	case KindInvalidInput, KindSizeMismatch, KindAborted:
		return http.StatusBadRequest
	case KindInsufficientCapacity:
		return http.StatusInsufficientStorage
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindInvalidVideo, KindDurationOutOfRange:
		return http.StatusUnprocessableEntity
	case KindNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Get handles GET /get/{id} and GET /api/clip/get/cdn/{server}/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !ValidClipID(id) {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	f, info, err := h.svc.Open(id)
	if err != nil {
		if errors.Is(err, ErrClipNotFound) {
			writeError(w, http.StatusNotFound, "A clip with that id does not exist on this server.")
			return
		}
		h.log.Error("open clip failed", slog.String("id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Could not read clip.")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", clipContentType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// Delete handles GET /delete?id={id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if !ValidUploadID(id) {
		writeError(w, http.StatusBadRequest, "Id has to be a string")
		return
	}

	if err := h.svc.Delete(id); err != nil {
		if errors.Is(err, ErrClipNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not delete file")
		return
	}

	if h.metrics != nil {
		h.metrics.ClipDeleted()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Info handles GET /info.
func (h *Handler) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"sizeLeft": h.svc.Remaining()})
}

// SetBounds handles GET /set?min={seconds}&max={seconds}.
func (h *Handler) SetBounds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	min, errMin := strconv.ParseFloat(q.Get("min"), 64)
	max, errMax := strconv.ParseFloat(q.Get("max"), 64)
	if errMin != nil || errMax != nil || math.IsNaN(min) || math.IsNaN(max) {
		writeError(w, http.StatusBadRequest, "Min and max in query have to be a number")
		return
	}

	if err := h.svc.SetBounds(min, max); err != nil {
		writeError(w, http.StatusBadRequest, "Max has to be greater than min.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
