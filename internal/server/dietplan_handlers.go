package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"FitAI_V1.0/internal/dietplan"
	"FitAI_V1.0/internal/utility"
)

/* ====================================================================
                   		Diet Plan Handlers
==================================================================== */

// generateDietPlanHandler builds, stores and returns a full weekly plan.
func (s *Server) generateDietPlanHandler(c echo.Context) error {
	ctx := c.Request().Context()
	logger := zerolog.Ctx(ctx)

	// 1. Bind
	var req dietplan.PlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fail("Invalid request body."))
	}

	// 2. Owner check when authenticated
	if !bindOwner(c, &req.Email) {
		return c.JSON(http.StatusForbidden, fail(notOwnerMessage))
	}

	// 3. Run the pipeline
	res, err := s.plans.CreatePlan(ctx, req)
	if err != nil {
		var verr *dietplan.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, validationBody("Missing required fields for diet plan generation.", verr))
		}
		logger.Error().Err(err).Msg("Top-level error generating diet plan")
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Failed to generate advanced diet plan due to an internal server error. Please try again.",
			"error":   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":             true,
		"plan":                res.Plan,
		"calculatedNutrition": res.Targets,
		"timestamp":           res.CreatedAt,
	})
}

// weeklyDietPlanHandler returns the seven days of meals without storing them.
func (s *Server) weeklyDietPlanHandler(c echo.Context) error {
	var req dietplan.PlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fail("Invalid request body."))
	}

	week, err := s.plans.WeeklyPlan(c.Request().Context(), req)
	if err != nil {
		var verr *dietplan.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, validationBody("Missing required fields.", verr))
		}
		return c.JSON(http.StatusInternalServerError, fail("Internal server error"))
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "weeklyPlan": week})
}

// dietHistoryHandler lists the stored plans for an email, newest first.
func (s *Server) dietHistoryHandler(c echo.Context) error {
	ctx := c.Request().Context()

	email, err := url.PathUnescape(c.Param("email"))
	if err != nil || strings.TrimSpace(email) == "" {
		return c.JSON(http.StatusBadRequest, fail("A valid email is required."))
	}
	if !bindOwner(c, &email) {
		return c.JSON(http.StatusForbidden, fail(notOwnerMessage))
	}

	history, err := s.plans.History(ctx, email)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error fetching diet plan history")
		return c.JSON(http.StatusInternalServerError, fail("Failed to fetch diet plan history."))
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "history": history})
}

// analyzeNutritionHandler returns targets plus BMI for a quick check.
func (s *Server) analyzeNutritionHandler(c echo.Context) error {
	var req dietplan.AnalysisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fail("Invalid request body."))
	}

	analysis, err := req.Analyze()
	if err != nil {
		var verr *dietplan.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, validationBody("Missing required fields for nutrition analysis.", verr))
		}
		return c.JSON(http.StatusInternalServerError, fail("Nutrition analysis failed."))
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "analysis": analysis})
}

func validationBody(message string, verr *dietplan.ValidationError) map[string]any {
	body := fail(message)
	if len(verr.Missing) > 0 {
		body["missing"] = verr.Missing
	}
	if len(verr.Invalid) > 0 {
		body["invalid"] = verr.Invalid
	}
	return body
}

const notOwnerMessage = "You can only access your own diet plans."

// bindOwner fills an empty email from the token and reports false for a
// different one. Without authentication every email is accepted.
func bindOwner(c echo.Context, email *string) bool {
	owner, err := utility.GetUserEmailFromContext(c)
	if err != nil {
		return true
	}
	if strings.TrimSpace(*email) == "" {
		*email = owner
		return true
	}
	return strings.EqualFold(strings.TrimSpace(*email), owner)
}
