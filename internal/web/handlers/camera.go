package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/skinstric/onboarding/internal/capture"
	"github.com/skinstric/onboarding/internal/constants"
	"github.com/skinstric/onboarding/internal/imaging"
	"github.com/skinstric/onboarding/internal/store"
)

// CameraHandler serves the camera page and the JSON bridge the page reports to.
type CameraHandler struct {
	*Deps
}

// NewCameraHandler creates the camera handler.
func NewCameraHandler(d *Deps) *CameraHandler {
	return &CameraHandler{Deps: d}
}

type cameraView struct {
	Page
	Generation    int
	PrepareMillis int64
}

// cameraState is the bridge response. Release tells the page to stop its
// real tracks; Redirect tells it where to navigate.
type cameraState struct {
	State    string `json:"state"`
	Reason   string `json:"reason,omitempty"`
	Release  bool   `json:"release"`
	Redirect string `json:"redirect,omitempty"`
}

func stateOf(m *capture.Machine) cameraState {
	st := m.State()
	resp := cameraState{State: st.Name(), Release: m.Stream() == nil}
	if d, ok := st.(capture.Denied); ok {
		resp.Reason = d.Reason
	}
	return resp
}

// Show mounts a new camera machine and renders the page.
func (h *CameraHandler) Show(w http.ResponseWriter, r *http.Request) {
	_, flow := h.visitor(r)
	// The page owns the device, so it waits out the prepare delay before
	// calling getUserMedia and the machine replays the report immediately.
	_, generation := flow.MountCamera(capture.Delays{Analyzing: h.Config.Flow.AnalyzingDelay})
	view := cameraView{
		Page:          h.page("camera", "Camera", "Analysis"),
		Generation:    generation,
		PrepareMillis: h.Config.Flow.CameraPrepareDelay.Milliseconds(),
	}
	h.render(w, http.StatusOK, "camera.html", view)
}

// mounted returns the visitor's camera or answers 409.
func (h *CameraHandler) mounted(w http.ResponseWriter, r *http.Request) *capture.Machine {
	_, flow := h.visitor(r)
	m := flow.Camera()
	if m == nil {
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":   "camera is not mounted",
			"release": true,
		})
	}
	return m
}

// respondTransition maps a machine error onto the bridge response.
func (h *CameraHandler) respondTransition(w http.ResponseWriter, m *capture.Machine, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, stateOf(m))
	case errors.Is(err, capture.ErrClosed):
		respondJSON(w, http.StatusGone, cameraState{State: m.State().Name(), Release: true})
	case errors.Is(err, capture.ErrInvalidTransition):
		respondJSON(w, http.StatusConflict, stateOf(m))
	default:
		respondError(w, http.StatusServiceUnavailable, err.Error())
	}
}

func decodeReport(w http.ResponseWriter, r *http.Request) (capture.Report, error) {
	var report capture.Report
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxBridgeBodyBytes)).Decode(&report)
	return report, err
}

// Acquire replays the page's getUserMedia outcome through the machine.
func (h *CameraHandler) Acquire(w http.ResponseWriter, r *http.Request) {
	m := h.mounted(w, r)
	if m == nil {
		return
	}
	report, err := decodeReport(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	h.respondTransition(w, m, m.Start(r.Context(), report))
}

// Retry re-attempts acquisition after a denial.
func (h *CameraHandler) Retry(w http.ResponseWriter, r *http.Request) {
	m := h.mounted(w, r)
	if m == nil {
		return
	}
	report, err := decodeReport(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	h.respondTransition(w, m, m.Retry(r.Context(), report))
}

type captureRequest struct {
	Frame string `json:"frame"`
}

// Capture records the taken picture.
func (h *CameraHandler) Capture(w http.ResponseWriter, r *http.Request) {
	m := h.mounted(w, r)
	if m == nil {
		return
	}
	var req captureRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.Config.Flow.MaxUploadBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	h.respondTransition(w, m, m.TakePicture(imaging.StripDataURL(req.Frame)))
}

// Proceed releases the camera, stores the frame for analysis and, after the
// analyzing pause, sends the page on to the demographics review.
func (h *CameraHandler) Proceed(w http.ResponseWriter, r *http.Request) {
	m := h.mounted(w, r)
	if m == nil {
		return
	}
	visitor, flow := h.visitor(r)

	// The page may navigate away during the analyzing pause; the frame is
	// still stored and the machine still leaves Analyzing.
	ctx := context.WithoutCancel(r.Context())
	nav, err := m.Proceed(ctx)
	if err != nil {
		h.respondTransition(w, m, err)
		return
	}

	if frame := m.Frame(); frame != "" {
		if err := h.saveFrame(ctx, visitor, frame); err != nil {
			h.Logger.Warn("Failed to store captured frame",
				zap.String("visitor", visitor.ID()), zap.Error(err))
		} else {
			flow.DropReview()
		}
	}

	resp := stateOf(m)
	if nav == capture.NavigateNext {
		resp.Redirect = "/demographics"
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CameraHandler) saveFrame(ctx context.Context, visitor *store.Visitor, frame string) error {
	raw, err := base64.StdEncoding.DecodeString(frame)
	if err != nil {
		return err
	}
	b64, err := imaging.EncodeBase64(raw, h.Config.Flow.MaxImageSize)
	if err != nil {
		return err
	}
	return visitor.SaveImage(ctx, b64)
}

// Back releases the camera and sends the page to the chooser.
func (h *CameraHandler) Back(w http.ResponseWriter, r *http.Request) {
	_, flow := h.visitor(r)
	if m := flow.Camera(); m != nil {
		m.Back()
	}
	flow.CloseCamera(0)
	respondJSON(w, http.StatusOK, cameraState{State: "closed", Release: true, Redirect: "/testing"})
}

// Close is called by the page on unload.
func (h *CameraHandler) Close(w http.ResponseWriter, r *http.Request) {
	generation, _ := strconv.Atoi(r.URL.Query().Get("generation"))
	_, flow := h.visitor(r)
	flow.CloseCamera(generation)
	w.WriteHeader(http.StatusNoContent)
}

// State reports the current camera state.
func (h *CameraHandler) State(w http.ResponseWriter, r *http.Request) {
	m := h.mounted(w, r)
	if m == nil {
		return
	}
	respondJSON(w, http.StatusOK, stateOf(m))
}
