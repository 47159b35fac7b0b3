package controllers

import (
	"errors"
	"fmt"
	"log"

	"mathfarm/backend/config"
	"mathfarm/backend/progress"
	"mathfarm/backend/storage"
	"mathfarm/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type ProgressController struct {
	Backend  storage.Backend
	Cfg      *config.Config
	Logger   *log.Logger
	Validate *validator.Validate
}

func NewProgressController(backend storage.Backend, cfg *config.Config, logger *log.Logger) *ProgressController {
	return &ProgressController{
		Backend:  backend,
		Cfg:      cfg,
		Logger:   logger,
		Validate: validator.New(),
	}
}

// storeFor builds the caller's progress store from the JWT user id. Stores
// are cheap per-request objects; the backend row is the source of truth.
func (pc *ProgressController) storeFor(c *fiber.Ctx) (*progress.Store, error) {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return nil, err
	}
	return progress.NewStore(pc.Backend, ProgressKey(userID), pc.Logger), nil
}

// ProgressKey is the storage slot key for one user's progress.
func ProgressKey(userID uint) string {
	return fmt.Sprintf("mathfarm-progress:%d", userID)
}

type RecordEventRequest struct {
	Kind string `json:"kind" validate:"required,oneof=visitSection exploreTopic useTool completePractice"`
	ID   string `json:"id" validate:"omitempty,max=200"`
}

// GetProgress godoc
// @Summary Get progress
// @Description Returns the caller's progress record, initializing it on first load
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	store, err := pc.storeFor(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	data, loadErr := store.Load()
	if loadErr != nil {
		pc.Logger.Printf("progress load degraded: %v", loadErr)
		return utils.Success(c, fiber.StatusOK, data, fiber.Map{"storage_degraded": true})
	}
	return utils.Success(c, fiber.StatusOK, data)
}

// RecordEvent godoc
// @Summary Record a progress event
// @Description Applies one tracked action and returns the updated record plus newly earned badges
// @Tags progress
// @Accept json
// @Produce json
// @Param event body RecordEventRequest true "Event kind and identifier"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/events [post]
func (pc *ProgressController) RecordEvent(c *fiber.Ctx) error {
	store, err := pc.storeFor(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req RecordEventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := pc.Validate.Struct(req); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		return utils.ValidationError(c, fields)
	}
	if req.Kind != string(progress.EventCompletePractice) && req.ID == "" {
		return utils.ValidationError(c, map[string]string{"id": "required"})
	}

	if _, err := store.Load(); err != nil {
		pc.Logger.Printf("progress load degraded: %v", err)
	}

	updated, newlyEarned, recordErr := store.RecordEvent(progress.EventKind(req.Kind), req.ID)
	if recordErr != nil && !errors.Is(recordErr, progress.ErrStorageWrite) {
		return utils.BadRequest(c, recordErr.Error())
	}

	response := fiber.Map{
		"progress":            updated,
		"newly_earned_badges": newlyEarned,
	}
	if recordErr != nil {
		pc.Logger.Printf("progress persist degraded: %v", recordErr)
		return utils.Success(c, fiber.StatusOK, response, fiber.Map{"storage_degraded": true})
	}
	return utils.Success(c, fiber.StatusOK, response)
}

// GetStats godoc
// @Summary Get completion stats
// @Description Returns 0-100 completion percentages per axis
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/stats [get]
func (pc *ProgressController) GetStats(c *fiber.Ctx) error {
	store, err := pc.storeFor(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	data, loadErr := store.Load()
	if loadErr != nil {
		pc.Logger.Printf("progress load degraded: %v", loadErr)
	}
	return utils.Success(c, fiber.StatusOK, progress.CalculateCompletionStats(data))
}

// GetSummary godoc
// @Summary Get progress summary
// @Description Returns a natural-language summary of the caller's progress
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/summary [get]
func (pc *ProgressController) GetSummary(c *fiber.Ctx) error {
	store, err := pc.storeFor(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	data, loadErr := store.Load()
	if loadErr != nil {
		pc.Logger.Printf("progress load degraded: %v", loadErr)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"summary": progress.GenerateProgressSummary(data),
	})
}

// Export godoc
// @Summary Export progress
// @Description Returns a versioned backup snapshot of the caller's progress
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} models.ExportSnapshot
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/export [get]
func (pc *ProgressController) Export(c *fiber.Ctx) error {
	store, err := pc.storeFor(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	data, loadErr := store.Load()
	if loadErr != nil {
		pc.Logger.Printf("progress load degraded: %v", loadErr)
	}

	snapshot := progress.ExportProgressData(data)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="mathfarm-progress.json"`)
	return c.JSON(snapshot)
}

// Import godoc
// @Summary Import progress
// @Description Restores progress from an exported snapshot; rejects invalid backups without partial application
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/import [post]
func (pc *ProgressController) Import(c *fiber.Ctx) error {
	store, err := pc.storeFor(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	data, importErr := progress.ImportProgressData(c.Body())
	if importErr != nil {
		return utils.UnprocessableEntity(c, "Import failed")
	}

	if err := store.Restore(*data); err != nil {
		return utils.InternalServerError(c, "Could not persist imported progress")
	}
	return utils.Success(c, fiber.StatusOK, store.Snapshot())
}

// Clear godoc
// @Summary Clear progress
// @Description Removes the caller's persisted progress and resets to defaults
// @Tags progress
// @Accept json
// @Produce json
// @Success 204
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [delete]
func (pc *ProgressController) Clear(c *fiber.Ctx) error {
	store, err := pc.storeFor(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	if err := store.Clear(); err != nil {
		return utils.InternalServerError(c, "Could not clear progress")
	}
	return utils.NoContent(c)
}
