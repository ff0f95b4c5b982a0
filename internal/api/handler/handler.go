package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/accountd/internal/account"
	"github.com/jon4hz/accountd/internal/api/models"
	"github.com/jon4hz/accountd/internal/database"
	"github.com/jon4hz/accountd/internal/gravatar"
)

// uploadFields are the multipart fields a profile picture is read from, in order of preference.
var uploadFields = []string{"upload", "file", "profile_picture"}

// multipartOverhead is the request body allowance for multipart framing and other form fields.
const multipartOverhead = 64 << 10

type Handler struct {
	svc       *account.Service
	gravatar  *gravatar.Resolver
	maxUpload int64
}

func New(svc *account.Service, gr *gravatar.Resolver, maxUpload int64) *Handler {
	return &Handler{
		svc:       svc,
		gravatar:  gr,
		maxUpload: maxUpload,
	}
}

func parseUintParam(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Convert[uint](id)
}

// userID reads the id path parameter. A malformed id can never match a user,
// so it is reported as not found.
func userID(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		respondError(c, account.ErrNotFound())
		return 0, false
	}
	return id, true
}

func (h *Handler) toUser(u *database.User) models.User {
	return models.ToUser(u, h.svc.PictureURL(u), h.gravatar.URL(u.Email))
}

// GetUser returns a single user.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toUser(user))
}

// UpdateUser applies a partial update to email, first name and last name.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req account.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, account.ErrInvalidJSON(err))
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toUser(user))
}

// UpdateProfilePicture stores the uploaded file as the new profile picture.
func (h *Handler) UpdateProfilePicture(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
	}

	var upload *account.Upload
	for _, field := range uploadFields {
		fh, err := c.FormFile(field)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				// an unknown user still wins over an oversized body
				if _, err := h.svc.GetUser(c.Request.Context(), id); err != nil {
					respondError(c, err)
					return
				}
				respondError(c, account.ErrFileTooLarge(h.maxUpload))
				return
			}
			continue
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close() //nolint:errcheck
		upload = &account.Upload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Content:  f,
		}
		log.Debug("received profile picture", "field", field, "filename", fh.Filename, "size", fh.Size)
		break
	}

	user, err := h.svc.UpdateProfilePicture(c.Request.Context(), id, upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toUser(user))
}

// ChangePassword replaces the password after verifying the current one.
func (h *Handler) ChangePassword(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req account.PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, account.ErrInvalidJSON(err))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), id, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PasswordChanged{
		ID:      id,
		Message: "Password updated successfully",
	})
}
