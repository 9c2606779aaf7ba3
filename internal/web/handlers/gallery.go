package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/skinstric/onboarding/internal/imaging"
)

// GalleryHandler serves the image upload alternative to the camera.
type GalleryHandler struct {
	*Deps
}

// NewGalleryHandler creates the gallery handler.
func NewGalleryHandler(d *Deps) *GalleryHandler {
	return &GalleryHandler{Deps: d}
}

type galleryView struct {
	Page
	Error string
}

func (h *GalleryHandler) show(w http.ResponseWriter, status int, message string) {
	view := galleryView{Page: h.page("gallery", "Gallery", "Analysis"), Error: message}
	h.render(w, status, "gallery.html", view)
}

// Show renders the upload form. Arriving here unmounts any camera.
func (h *GalleryHandler) Show(w http.ResponseWriter, r *http.Request) {
	_, flow := h.visitor(r)
	flow.CloseCamera(0)
	h.show(w, http.StatusOK, "")
}

// Upload normalizes the uploaded image and stores it for analysis.
func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.Config.Flow.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		h.show(w, http.StatusRequestEntityTooLarge, "The image is too large.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.show(w, http.StatusBadRequest, "Choose an image to upload.")
		return
	}
	defer file.Close()

	if header.Size > limit {
		h.show(w, http.StatusRequestEntityTooLarge, "The image is too large.")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		h.show(w, http.StatusBadRequest, "The image could not be read.")
		return
	}

	b64, err := imaging.EncodeBase64(data, h.Config.Flow.MaxImageSize)
	if err != nil {
		if !errors.Is(err, imaging.ErrNotImage) {
			h.Logger.Error("Failed to encode upload", zap.Error(err))
		}
		h.show(w, http.StatusUnprocessableEntity, "The file is not a supported image.")
		return
	}

	visitor, flow := h.visitor(r)
	if err := visitor.SaveImage(r.Context(), b64); err != nil {
		h.Logger.Warn("Failed to store uploaded image",
			zap.String("visitor", visitor.ID()), zap.Error(err))
		h.show(w, http.StatusInternalServerError, "The image could not be saved. Please try again.")
		return
	}
	flow.DropReview()
	redirect(w, r, "/demographics")
}
