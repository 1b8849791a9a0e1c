// Package web serves the HTTP upload surface and the live scan feed.
//
// Endpoints:
//
//	POST /api/scan      multipart upload: image, profile, confidence, zoom
//	GET  /api/profiles  available profiles and their defaults
//	GET  /api/live      websocket stream of scan events
//	GET  /health        liveness check
package web

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/scanlab/internal/detector"
	"github.com/ironsheep/scanlab/internal/imaging"
	"github.com/ironsheep/scanlab/internal/scan"
)

// Handler serves the HTTP API.
type Handler struct {
	svc            *scan.Service
	hub            *Hub
	maxUpload      int64
	defaultProfile string
	log            logrus.FieldLogger
}

// Options configures a Handler.
type Options struct {
	MaxUploadSize  int64
	DefaultProfile string
}

// NewHandler creates a Handler. hub may be nil to disable the live feed.
func NewHandler(svc *scan.Service, hub *Hub, opts Options, log logrus.FieldLogger) *Handler {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 10 << 20
	}
	return &Handler{
		svc:            svc,
		hub:            hub,
		maxUpload:      opts.MaxUploadSize,
		defaultProfile: opts.DefaultProfile,
		log:            log,
	}
}

// Routes returns the HTTP routes with CORS enabled.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", enableCORS(h.Health))
	mux.HandleFunc("/api/profiles", enableCORS(h.Profiles))
	mux.HandleFunc("/api/scan", enableCORS(h.Scan))
	if h.hub != nil {
		mux.HandleFunc("/api/live", h.hub.ServeWS)
	}
	return mux
}

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// profileInfo is the public view of a profile.
type profileInfo struct {
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	Threshold    float64 `json:"threshold"`
	Zoom         bool    `json:"zoom"`
	ReadPlates   bool    `json:"read_plates"`
	LabelVersion string  `json:"label_version,omitempty"`
	Default      bool    `json:"default"`
}

// Profiles lists the available profiles.
func (h *Handler) Profiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	all := h.svc.Profiles().All()
	out := make([]profileInfo, len(all))
	for i, p := range all {
		out[i] = profileInfo{
			Name:         p.Name,
			Title:        p.Title,
			Threshold:    p.Threshold,
			Zoom:         p.Options.ZoomEnabled,
			ReadPlates:   p.ReadPlates,
			LabelVersion: p.Labels.Version,
			Default:      p.Name == h.defaultProfile,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// scanResponse is a report plus the encoded annotated image.
type scanResponse struct {
	*scan.Report
	Image *imaging.EncodedImage `json:"image"`
}

// scanEvent is broadcast to live viewers after each scan.
type scanEvent struct {
	Type string `json:"type"`
	scanResponse
}

// Scan handles a multipart image upload.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided. Use 'image' as the form field name")
		return
	}
	defer file.Close()

	img, err := imaging.DecodeUpload(header.Filename, file)
	if err != nil {
		var inputErr *imaging.InputImageError
		if errors.As(err, &inputErr) {
			writeError(w, http.StatusBadRequest, inputErr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid image")
		return
	}

	req := scan.Request{Profile: r.FormValue("profile"), Image: img}
	if req.Profile == "" {
		req.Profile = h.defaultProfile
	}
	if v := strings.TrimSpace(r.FormValue("confidence")); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(c) || math.IsInf(c, 0) {
			writeError(w, http.StatusBadRequest, "confidence must be a number between 0.05 and 1.0")
			return
		}
		req.Threshold = c
	}
	if v := strings.TrimSpace(r.FormValue("zoom")); v != "" {
		z, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "zoom must be true or false")
			return
		}
		req.Zoom = &z
	}
	format := r.FormValue("format")
	if err := imaging.ValidFormat(format); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := h.svc.Scan(r.Context(), req)
	if err != nil {
		h.writeScanError(w, err)
		return
	}

	enc, err := imaging.Encode(rep.Image, format)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode annotated image")
		writeError(w, http.StatusInternalServerError, "Failed to encode image")
		return
	}

	h.log.WithFields(logrus.Fields{
		"scan_id": rep.ID,
		"file":    header.Filename,
		"size":    header.Size,
	}).Debug("Upload scanned")

	resp := scanResponse{Report: rep, Image: enc}
	if h.hub != nil {
		if msg, err := json.Marshal(scanEvent{Type: "scan", scanResponse: resp}); err == nil {
			h.hub.Broadcast(msg)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scan.ErrUnknownProfile):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, detector.ErrModelNotFound), errors.Is(err, scan.ErrNoDetector):
		h.log.WithError(err).Error("Scan unavailable")
		writeError(w, http.StatusServiceUnavailable, "Detection model unavailable")
	default:
		h.log.WithError(err).Error("Scan failed")
		writeError(w, http.StatusInternalServerError, "Scan failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
