package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"classroom/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ClassroomRequest is the classroom creation payload. Any owner or user id
// sent by the client is not part of it; the owner is the requester.
type ClassroomRequest struct {
	Name    string `form:"name" json:"name" binding:"required,max=255" example:"CSE435"`
	Section string `form:"section" json:"section" binding:"omitempty,max=255" example:"1"`
	Subject string `form:"subject" json:"subject" binding:"omitempty,max=255" example:"SQA"`
	Room    string `form:"room" json:"room" binding:"omitempty,max=255" example:"107"`
	Slug    string `form:"slug" json:"slug" binding:"omitempty,slug" example:"cse_435"`
}

func (r *ClassroomRequest) oldInput() map[string]string {
	return map[string]string{
		"name": r.Name, "section": r.Section, "subject": r.Subject, "room": r.Room, "slug": r.Slug,
	}
}

// JoinRequest carries the join code of an existing classroom.
type JoinRequest struct {
	Classroom string `form:"classroom" json:"classroom" binding:"required" example:"cse_435"`
}

func (r *JoinRequest) oldInput() map[string]string {
	return map[string]string{"classroom": r.Classroom}
}

// @Summary      List classrooms
// @Description  Classrooms the requester owns and has joined.
// @Tags         classrooms
// @Produce      json
// @Success      200  {object}  service.ClassroomList
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/classrooms [get]
// @Security     BearerAuth
func (h *Handler) listClassrooms(c *gin.Context) {
	list, err := h.services.Classrooms.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.internalError(c, "classroom_list_failed", err, "userId", currentUserID(c))
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, list)
		return
	}
	f := popFlash(c)
	c.HTML(http.StatusOK, "classrooms.tmpl", gin.H{
		"user":   currentUser(c),
		"list":   list,
		"errors": f.Errors,
		"old":    f.Old,
	})
}

// @Summary      Create classroom
// @Description  A missing slug is generated. The owner is always the requester.
// @Tags         classrooms
// @Accept       json
// @Produce      json
// @Param        body  body  ClassroomRequest  true  "Classroom payload"
// @Success      201  {object}  models.Classroom
// @Failure      401  {object}  map[string]string
// @Failure      422  {object}  map[string]interface{}  "message, errors"
// @Router       /api/v1/classrooms [post]
// @Security     BearerAuth
func (h *Handler) createClassroom(c *gin.Context) {
	var input ClassroomRequest
	if ok := h.bindOrReject(c, &input, "/classroom"); !ok {
		return
	}

	userID := currentUserID(c)
	cls, err := h.services.Classrooms.Create(c.Request.Context(), userID, service.ClassroomParams{
		Name:    input.Name,
		Section: input.Section,
		Subject: input.Subject,
		Room:    input.Room,
		Slug:    input.Slug,
	})
	if err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			h.rejectInput(c, map[string][]string{"slug": {msgSlugTaken}}, "/classroom", input.oldInput())
			return
		}
		h.internalError(c, "classroom_create_failed", err, "userId", userID)
		return
	}
	if h.log != nil {
		h.log.Infow("classroom_created", "userId", userID, "slug", cls.Slug)
	}

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, cls)
		return
	}
	c.Redirect(http.StatusFound, "/classroom/"+cls.Slug)
}

// @Summary      Join classroom
// @Description  Joining twice is a no-op. Unknown codes are a field error on "classroom".
// @Tags         classrooms
// @Accept       json
// @Produce      json
// @Param        body  body  JoinRequest  true  "Join code"
// @Success      200  {object}  models.Classroom
// @Failure      401  {object}  map[string]string
// @Failure      422  {object}  map[string]interface{}  "message, errors"
// @Router       /api/v1/classrooms/join [post]
// @Security     BearerAuth
func (h *Handler) joinClassroom(c *gin.Context) {
	var input JoinRequest
	if ok := h.bindOrReject(c, &input, "/classroom"); !ok {
		return
	}

	userID := currentUserID(c)
	cls, err := h.services.Classrooms.Join(c.Request.Context(), userID, input.Classroom)
	if err != nil {
		if errors.Is(err, service.ErrClassroomNotFound) {
			h.rejectInput(c, map[string][]string{"classroom": {msgClassroomInvalid}}, "/classroom", input.oldInput())
			return
		}
		h.internalError(c, "classroom_join_failed", err, "userId", userID)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, cls)
		return
	}
	c.Redirect(http.StatusFound, "/classroom/"+cls.Slug)
}

// @Summary      Show classroom
// @Description  Visible to the owner and members only; others get 404.
// @Tags         classrooms
// @Produce      json
// @Param        slug  path  string  true  "Classroom slug"
// @Success      200  {object}  service.ClassroomDetail
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/classrooms/{slug} [get]
// @Security     BearerAuth
func (h *Handler) showClassroom(c *gin.Context) {
	detail, err := h.services.Classrooms.Get(c.Request.Context(), currentUserID(c), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrClassroomNotFound) {
			notFound(c)
			return
		}
		h.internalError(c, "classroom_show_failed", err, "slug", c.Param("slug"))
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, detail)
		return
	}
	c.HTML(http.StatusOK, "classroom.tmpl", gin.H{
		"user":   currentUser(c),
		"detail": detail,
	})
}

func (h *Handler) exportRoster(c *gin.Context) {
	slug := c.Param("slug")
	var buf bytes.Buffer
	if err := h.services.Roster.ExportRoster(c.Request.Context(), currentUserID(c), slug, &buf); err != nil {
		if errors.Is(err, service.ErrClassroomNotFound) {
			notFound(c)
			return
		}
		h.internalError(c, "classroom_roster_failed", err, "slug", slug)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+slug+`-roster.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
