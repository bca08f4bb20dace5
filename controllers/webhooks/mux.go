package webhookController

import (
	"academy/config"
	"academy/database"
	"academy/logger"
	"academy/middleware"
	"academy/models"
	"academy/utils"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type muxEvent struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Object struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"object"`
	Data muxEventData `json:"data"`
}

// muxEventData covers both asset and upload payloads
type muxEventData struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	AssetID     string  `json:"asset_id"`
	UploadID    string  `json:"upload_id"`
	Passthrough string  `json:"passthrough"`
	Duration    float64 `json:"duration"`
	PlaybackIDs []struct {
		ID     string `json:"id"`
		Policy string `json:"policy"`
	} `json:"playback_ids"`
	NewAssetSettings struct {
		Passthrough string `json:"passthrough"`
	} `json:"new_asset_settings"`
}

// toVideoAssetEvent maps the payload onto the fields used to find and update a lesson
func (e muxEvent) toVideoAssetEvent() utils.VideoAssetEvent {
	ev := utils.VideoAssetEvent{
		EventID:     e.ID,
		Type:        e.Type,
		Passthrough: e.Data.Passthrough,
		Duration:    e.Data.Duration,
	}
	if e.Object.Type == "upload" {
		ev.UploadID = e.Data.ID
		ev.AssetID = e.Data.AssetID
		if ev.Passthrough == "" {
			ev.Passthrough = e.Data.NewAssetSettings.Passthrough
		}
	} else {
		ev.AssetID = e.Data.ID
		ev.UploadID = e.Data.UploadID
	}
	for _, p := range e.Data.PlaybackIDs {
		if p.Policy == "public" {
			ev.PlaybackID = p.ID
			break
		}
	}
	if ev.PlaybackID == "" && len(e.Data.PlaybackIDs) > 0 {
		ev.PlaybackID = e.Data.PlaybackIDs[0].ID
	}
	return ev
}

// MuxWebhook acknowledges Mux events and hands them to the video asset worker
func MuxWebhook(c *fiber.Ctx) error {
	cfg := config.AppConfig
	if err := verify(c, models.ProviderMux, "Mux-Signature", cfg.MuxWebhookSecret, cfg.WebhookTolerance); err != nil {
		return err
	}

	var event muxEvent
	if err := json.Unmarshal(c.Body(), &event); err != nil || event.ID == "" || event.Type == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Malformed event payload!", nil)
	}

	row, err := claim(c.UserContext(), models.ProviderMux, event.ID, event.Type, c.Body())
	if err != nil {
		logger.Log.Error("storing mux event", zap.String("event_id", event.ID), zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store event!", nil)
	}
	if row == nil {
		return alreadyProcessed(c)
	}

	db := database.Database.Db
	utils.DispatchVideoAssetJob(db, utils.VideoAssetJob{
		Event: event.toVideoAssetEvent(),
		Done: func(applied bool, err error) {
			switch {
			case errors.Is(err, utils.ErrLessonNotLinked):
				finish(db, row, models.EventIgnored, err)
			case err != nil:
				finish(db, row, models.EventFailed, err)
				release(models.ProviderMux, event.ID)
			case applied:
				finish(db, row, models.EventProcessed, nil)
			default:
				finish(db, row, models.EventIgnored, nil)
			}
		},
	})

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Event received!", fiber.Map{
		"event_id": event.ID,
	})
}
