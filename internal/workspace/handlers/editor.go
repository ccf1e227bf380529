package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scene-editor/internal/common/middleware"
	"scene-editor/internal/scene/bridge"
	"scene-editor/internal/scene/editor"
	"scene-editor/internal/scene/fileio"
	"scene-editor/internal/scene/models"
	"scene-editor/internal/workspace"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ============================================================
// Editor Handler
// ============================================================

type EditorHandler struct {
	registry  *workspace.Registry
	log       logrus.FieldLogger
	heartbeat time.Duration
}

func NewEditorHandler(registry *workspace.Registry, log logrus.FieldLogger) *EditorHandler {
	return &EditorHandler{
		registry:  registry,
		log:       log.WithField("component", "editor"),
		heartbeat: 15 * time.Second,
	}
}

// Register mounts the workspace routes on r. r must already run
// middleware.RequireSession.
func (h *EditorHandler) Register(r fiber.Router) {
	r.Get("/state", h.GetState)
	r.Get("/notices", h.GetNotices)
	r.Get("/events", h.Events)

	r.Get("/objects", h.ListObjects)
	r.Post("/objects", h.AddObject)
	r.Get("/objects/:id", h.GetObject)
	r.Patch("/objects/:id", h.UpdateObject)
	r.Delete("/objects/:id", h.RemoveObject)
	r.Post("/objects/:id/duplicate", h.DuplicateObject)

	r.Put("/selection", h.Select)
	r.Put("/mode", h.SetMode)
	r.Put("/name", h.SetName)
	r.Post("/clear", h.Clear)
	r.Post("/undo", h.Undo)
	r.Post("/redo", h.Redo)
	r.Post("/keys", h.Key)

	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	r.Post("/save", h.Save)
	r.Get("/scenes", h.ListScenes)
	r.Post("/scenes", h.CreateScene)
	r.Post("/scenes/:id/load", h.LoadScene)
	r.Delete("/scenes/:id", h.DeleteScene)
}

type addObjectRequest struct {
	Type string `json:"type"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type modeRequest struct {
	Mode models.TransformMode `json:"mode"`
}

type nameRequest struct {
	Name string `json:"name"`
}

// ============================================================
// State
// ============================================================

// GetState returns the full editor state.
func (h *EditorHandler) GetState(c fiber.Ctx) error {
	return c.JSON(h.workspace(c).State())
}

// GetNotices returns and clears pending notices.
func (h *EditorHandler) GetNotices(c fiber.Ctx) error {
	return c.JSON(h.workspace(c).Notices())
}

// ============================================================
// Objects
// ============================================================

func (h *EditorHandler) ListObjects(c fiber.Ctx) error {
	var objects []models.Object
	h.workspace(c).Do(func(ed *editor.Editor) { objects = ed.Objects() })
	return c.JSON(objects)
}

func (h *EditorHandler) GetObject(c fiber.Ctx) error {
	var (
		obj models.Object
		ok  bool
	)
	h.workspace(c).Do(func(ed *editor.Editor) { obj, ok = ed.Object(c.Params("id")) })
	if !ok {
		return fiber.NewError(http.StatusNotFound, "object not found")
	}
	return c.JSON(obj)
}

// AddObject adds a primitive of the given type.
func (h *EditorHandler) AddObject(c fiber.Ctx) error {
	var req addObjectRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	kind, err := models.ParseKind(req.Type)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	var obj models.Object
	h.workspace(c).Do(func(ed *editor.Editor) { obj = ed.Add(kind) })
	return c.Status(http.StatusCreated).JSON(obj)
}

// UpdateObject applies a partial transform or color change.
func (h *EditorHandler) UpdateObject(c fiber.Ctx) error {
	var patch models.Patch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	if patch.Empty() {
		return fiber.NewError(http.StatusBadRequest, "nothing to update")
	}

	id := c.Params("id")
	var (
		obj models.Object
		ok  bool
	)
	h.workspace(c).Do(func(ed *editor.Editor) {
		if _, ok = ed.Object(id); ok {
			ed.Update(id, patch)
			obj, _ = ed.Object(id)
		}
	})
	if !ok {
		return fiber.NewError(http.StatusNotFound, "object not found")
	}
	return c.JSON(obj)
}

func (h *EditorHandler) RemoveObject(c fiber.Ctx) error {
	id := c.Params("id")
	h.workspace(c).Do(func(ed *editor.Editor) { ed.Remove(id) })
	return c.SendStatus(http.StatusNoContent)
}

func (h *EditorHandler) DuplicateObject(c fiber.Ctx) error {
	id := c.Params("id")
	var (
		dup models.Object
		ok  bool
	)
	h.workspace(c).Do(func(ed *editor.Editor) { dup, ok = ed.Duplicate(id) })
	if !ok {
		return fiber.NewError(http.StatusNotFound, "object not found")
	}
	return c.Status(http.StatusCreated).JSON(dup)
}

// ============================================================
// Selection, Mode, History
// ============================================================

func (h *EditorHandler) Select(c fiber.Ctx) error {
	var req selectRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	ws := h.workspace(c)
	ws.Do(func(ed *editor.Editor) { ed.Select(req.ID) })
	return c.JSON(ws.State())
}

func (h *EditorHandler) SetMode(c fiber.Ctx) error {
	var req modeRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if !req.Mode.Valid() {
		return fiber.NewError(http.StatusBadRequest, "mode must be translate, rotate or scale")
	}
	ws := h.workspace(c)
	ws.Do(func(ed *editor.Editor) { ed.SetTransformMode(req.Mode) })
	return c.JSON(ws.State())
}

func (h *EditorHandler) SetName(c fiber.Ctx) error {
	var req nameRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fiber.NewError(http.StatusBadRequest, "name required")
	}
	ws := h.workspace(c)
	ws.Do(func(ed *editor.Editor) { ed.SetSceneName(name) })
	return c.JSON(ws.State())
}

func (h *EditorHandler) Clear(c fiber.Ctx) error {
	ws := h.workspace(c)
	ws.Do(func(ed *editor.Editor) { ed.Clear() })
	return c.JSON(ws.State())
}

func (h *EditorHandler) Undo(c fiber.Ctx) error {
	ws := h.workspace(c)
	ws.Do(func(ed *editor.Editor) { ed.Undo() })
	return c.JSON(ws.State())
}

func (h *EditorHandler) Redo(c fiber.Ctx) error {
	ws := h.workspace(c)
	ws.Do(func(ed *editor.Editor) { ed.Redo() })
	return c.JSON(ws.State())
}

// Key runs an editor shortcut.
func (h *EditorHandler) Key(c fiber.Ctx) error {
	var req workspace.KeyPress
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	ws := h.workspace(c)
	action, err := ws.HandleKey(c.Context(), req)
	if err != nil {
		return h.bridgeError(c, err)
	}
	return c.JSON(fiber.Map{"action": action, "state": ws.State()})
}

// ============================================================
// Files
// ============================================================

// Export sends the scene as a JSON file download.
func (h *EditorHandler) Export(c fiber.Ctx) error {
	var buf bytes.Buffer
	name, err := h.workspace(c).Bridge().Export(&buf)
	if err != nil {
		return h.bridgeError(c, err)
	}
	c.Set("Content-Type", "application/json")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(buf.Bytes())
}

// Import accepts a scene file, either as multipart field "file" or as a
// JSON body with the file name in ?filename=.
func (h *EditorHandler) Import(c fiber.Ctx) error {
	var (
		r        io.Reader
		fileName = c.Query("filename", "scene"+fileio.Ext)
	)
	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "file field required")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "cannot read file")
		}
		defer f.Close()
		r, fileName = f, fh.Filename
	} else {
		r = bytes.NewReader(c.Body())
	}

	ws := h.workspace(c)
	if err := ws.Bridge().Import(r, fileName); err != nil {
		return h.bridgeError(c, err)
	}
	return c.JSON(ws.State())
}

// ============================================================
// Stored Scenes
// ============================================================

func (h *EditorHandler) Save(c fiber.Ctx) error {
	ws := h.workspace(c)
	if err := ws.Bridge().Save(c.Context()); err != nil {
		return h.bridgeError(c, err)
	}
	return c.JSON(ws.State())
}

func (h *EditorHandler) ListScenes(c fiber.Ctx) error {
	list, err := h.workspace(c).Bridge().List(c.Context())
	if err != nil {
		return h.bridgeError(c, err)
	}
	if list == nil {
		list = []models.SceneSummary{}
	}
	return c.JSON(list)
}

func (h *EditorHandler) CreateScene(c fiber.Ctx) error {
	var req nameRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	ws := h.workspace(c)
	if err := ws.Bridge().CreateNew(c.Context(), req.Name); err != nil {
		return h.bridgeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(ws.State())
}

func (h *EditorHandler) LoadScene(c fiber.Ctx) error {
	ws := h.workspace(c)
	if err := ws.Bridge().Load(c.Context(), c.Params("id")); err != nil {
		return h.bridgeError(c, err)
	}
	return c.JSON(ws.State())
}

func (h *EditorHandler) DeleteScene(c fiber.Ctx) error {
	if err := h.workspace(c).Bridge().Delete(c.Context(), c.Params("id")); err != nil {
		return h.bridgeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Event Stream
// ============================================================

// Events streams editor changes and notices over SSE. The first event
// carries the full state.
func (h *EditorHandler) Events(c fiber.Ctx) error {
	ws := h.workspace(c)
	updates, stop := ws.Watch(32)
	initial := ws.State()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	heartbeat := h.heartbeat
	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer stop()
		ping := time.NewTicker(heartbeat)
		defer ping.Stop()

		if err := writeEvent(w, "state", initial); err != nil {
			return
		}
		for {
			select {
			case u, ok := <-updates:
				if !ok {
					return
				}
				if err := writeEvent(w, "update", u); err != nil {
					return
				}
			case <-ping.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
}

func writeEvent(w *bufio.Writer, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return w.Flush()
}

// ============================================================
// Helpers
// ============================================================

func (h *EditorHandler) workspace(c fiber.Ctx) *workspace.Workspace {
	sess, _ := middleware.Session(c)
	return h.registry.Get(sess.Token)
}

// bridgeError maps persistence failures to HTTP statuses. The user-facing
// message has already been queued as a notice.
func (h *EditorHandler) bridgeError(c fiber.Ctx, err error) error {
	code := http.StatusBadGateway
	switch {
	case errors.Is(err, bridge.ErrNotSignedIn):
		code = http.StatusUnauthorized
	case errors.Is(err, bridge.ErrBusy):
		code = http.StatusConflict
	case errors.Is(err, bridge.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, bridge.ErrInvalidName), errors.Is(err, fileio.ErrMalformed):
		code = http.StatusBadRequest
	default:
		h.log.WithError(err).WithField("path", c.Path()).Error("scene operation failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func decodeBody(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return fiber.NewError(http.StatusBadRequest, "empty body")
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	return nil
}
