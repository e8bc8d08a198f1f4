package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"FitAI_V1.0/internal/storage"
)

/* ====================================================================
                   		Profile Photo Handlers
==================================================================== */

// uploadProfilePhotoHandler accepts a multipart photo upload.
func (s *Server) uploadProfilePhotoHandler(c echo.Context) error {
	ctx := c.Request().Context()

	// 1. Read form fields
	email := strings.TrimSpace(c.FormValue("email"))
	fh, err := c.FormFile("photo")
	if email == "" || err != nil {
		return c.JSON(http.StatusBadRequest, fail("Email and photo required"))
	}
	if !bindOwner(c, &email) {
		return c.JSON(http.StatusForbidden, fail(notOwnerMessage))
	}

	// 2. Open the file
	file, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, fail("Email and photo required"))
	}
	defer file.Close()

	// 3. Store photo and user record
	imageURL, err := s.photos.Upload(ctx, storage.Upload{
		Email:        email,
		FirstName:    c.FormValue("firstName"),
		LastName:     c.FormValue("lastName"),
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Body:         file,
	})
	if err != nil {
		if errors.Is(err, storage.ErrMissingPhotoFields) {
			return c.JSON(http.StatusBadRequest, fail("Email and photo required"))
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("Profile photo upload failed")
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Upload failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "imageUrl": imageURL})
}

// userProfilePhotoHandler returns the stored photo URL and names.
func (s *Server) userProfilePhotoHandler(c echo.Context) error {
	ctx := c.Request().Context()

	email, err := url.PathUnescape(c.Param("email"))
	if err != nil || strings.TrimSpace(email) == "" {
		return c.JSON(http.StatusBadRequest, fail("A valid email is required."))
	}

	profile, err := s.photos.Lookup(ctx, email)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error fetching profile photo")
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"photoUrl":  profile.PhotoURL,
		"firstName": profile.FirstName,
		"lastName":  profile.LastName,
		"createdAt": profile.CreatedAt,
	})
}
