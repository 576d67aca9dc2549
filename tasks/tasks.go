package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"vestioapi/models"
	"vestioapi/services"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const (
	TypeOutfitDescribe = "outfit:describe"
	TypeItemUploaded   = "closet:item_uploaded"
	TypeAccountCleanup = "account:cleanup"
)

type OutfitDescribePayload struct {
	OutfitID uint `json:"outfit_id"`
}

type ItemUploadedPayload struct {
	ItemID uint `json:"item_id"`
}

// WorkerQueues is the queue/priority map the worker consumes from. Every
// enqueue and every scheduler registration must target one of these queues,
// asynq silently ignores queues outside this map.
var WorkerQueues = map[string]int{
	"closet": 7,
}

type ScheduledTask struct {
	Cron string
	Task *asynq.Task
	Opts []asynq.Option
	Desc string
}

// ScheduledTasks lists the cron entries the worker scheduler registers.
func ScheduledTasks() []ScheduledTask {
	return []ScheduledTask{
		{
			Cron: "0 4 * * *", // 4:00 AM daily
			Task: asynq.NewTask(TypeAccountCleanup, []byte{}),
			Opts: []asynq.Option{asynq.Queue("closet")},
			Desc: "Account deletion cleanup",
		},
	}
}

// NewClient initializes an asynq client for enqueuing tasks
func NewClient() (*asynq.Client, error) {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: services.GetEnv("ASYNC_BROKER_ADDRESS", "localhost:6379")}), nil
}

func NewOutfitDescribeTask(outfitID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(OutfitDescribePayload{OutfitID: outfitID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOutfitDescribe, payload), nil
}

func NewItemUploadedTask(itemID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(ItemUploadedPayload{ItemID: itemID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeItemUploaded, payload), nil
}

// HandleOutfitDescribeTask enriches a saved outfit with stylist notes.
func HandleOutfitDescribeTask(ctx context.Context, t *asynq.Task, db *gorm.DB, stylist services.StylistProvider, fbApp *firebase.App) error {
	googleKey := os.Getenv("GOOGLE_API_KEY")
	if googleKey == "" {
		sentry.CaptureException(fmt.Errorf("[QUEUE] %s Google API key is not set", string(t.Payload())))
		return fmt.Errorf("[QUEUE] %s Google API key is not set", string(t.Payload()))
	}
	var payload OutfitDescribePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	fmt.Printf("[Outfit: %v] Start describing\n", payload.OutfitID)
	var outfit models.SavedOutfit
	res := db.First(&outfit, payload.OutfitID)
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving outfit for describing %v", payload.OutfitID))
		return res.Error
	}
	if outfit.EnrichStatus == "completed" {
		fmt.Printf("[Outfit: %v] Already enriched, skipping\n", payload.OutfitID)
		return nil
	}

	var items []models.ClothingItem
	res = db.Where("id = ANY(?) AND owner_id = ?", outfit.ItemIDs, outfit.OwnerID).Find(&items)
	if res.Error != nil {
		saveOutfitEnrichFail(db, outfit, "Failed to load outfit items", true)
		sentry.CaptureException(fmt.Errorf("[Outfit: %v] Error on loading items: %v", payload.OutfitID, res.Error))
		return res.Error
	}
	if len(items) == 0 {
		saveOutfitEnrichFail(db, outfit, "Outfit has no items left in the closet", false)
		return fmt.Errorf("[Outfit: %v] no items found for outfit", payload.OutfitID)
	}

	model := services.GeminiFlash
	fmt.Printf("[Outfit: %v] Model: %s, items: %d\n", payload.OutfitID, model.String(), len(items))
	response, err := stylist.DescribeOutfit(outfit, items, model)
	if err != nil {
		saveOutfitEnrichFail(db, outfit, "Styling notes are not available right now", true)
		sentry.CaptureException(fmt.Errorf("[Outfit: %v] Error on describing outfit: %v", payload.OutfitID, err))
		return err
	}
	if response == nil {
		saveOutfitEnrichFail(db, outfit, "Styling notes are not available right now", true)
		return fmt.Errorf("[Outfit: %v] response is nil but no error provided", payload.OutfitID)
	}

	outfit.StylistNotes = &response.Notes
	outfit.EnrichStatus = "completed"
	outfit.EnrichErrorMessage = nil
	tx := db.Save(&outfit)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Outfit: %v] Error on saving stylist notes: %v", payload.OutfitID, tx.Error))
		return tx.Error
	}
	fmt.Printf("[Outfit: %v] Enriched, notes length: %d\n", payload.OutfitID, len(response.Notes))
	services.SendNotification(
		fbApp, db, outfit.OwnerID,
		"Your outfit notes are ready",
		"Your stylist left a note on the outfit you saved. Take a look!",
		map[string]string{"outfit_id": fmt.Sprint(outfit.ID), "type": "outfit_enriched"},
	)
	return nil
}

// HandleItemUploadedTask confirms the image landed in the bucket and flips
// the item out of draft.
func HandleItemUploadedTask(ctx context.Context, t *asynq.Task, db *gorm.DB, awsService services.AWSServiceProvider) error {
	var payload ItemUploadedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	var item models.ClothingItem
	res := db.First(&item, payload.ItemID)
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving clothing item %v", payload.ItemID))
		return res.Error
	}
	if item.ImageKey == nil || *item.ImageKey == "" {
		fmt.Printf("[Item: %v] No image attached, nothing to confirm\n", payload.ItemID)
		return nil
	}
	bucketName := os.Getenv("R2_BUCKET_NAME")
	_, err := awsService.GetPresignedR2FileReadURL(ctx, bucketName, *item.ImageKey)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Item: %v] Error on checking uploaded image %s: %v", payload.ItemID, *item.ImageKey, err))
		return err
	}
	item.ImageStatus = "uploaded"
	tx := db.Save(&item)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Item: %v] Error on saving uploaded status: %v", payload.ItemID, tx.Error))
		return tx.Error
	}
	fmt.Printf("[Item: %v] Image confirmed: %s\n", payload.ItemID, *item.ImageKey)
	return nil
}

// ScheduledAccountCleanupTask purges accounts whose deletion grace period
// has passed, with everything they own.
func ScheduledAccountCleanupTask(ctx context.Context, t *asynq.Task, db *gorm.DB) error {
	cutoff := time.Now().AddDate(0, 0, -30)
	var users []models.UserAccount
	result := db.Where("confirmed_delete_date IS NOT NULL AND confirmed_delete_date < ?", cutoff).Find(&users)
	if result.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Cleanup] Error fetching accounts to purge: %v", result.Error))
		return result.Error
	}
	fmt.Printf("[Cleanup] Found %d accounts past the grace period\n", len(users))
	for _, user := range users {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("owner_id = ?", user.ID).Delete(&models.SavedOutfit{}).Error; err != nil {
				return err
			}
			if err := tx.Where("owner_id = ?", user.ID).Delete(&models.ClothingItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_account_id = ?", user.ID).Delete(&models.UserPushToken{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.UserAccount{}, user.ID).Error
		})
		if err != nil {
			fmt.Printf("[Cleanup] Failed to purge user %d: %v\n", user.ID, err)
			sentry.CaptureException(fmt.Errorf("[Cleanup] Failed to purge user %d: %v", user.ID, err))
			continue
		}
		fmt.Printf("[Cleanup] Purged user %d\n", user.ID)
	}
	return nil
}

func saveOutfitEnrichFail(db *gorm.DB, outfit models.SavedOutfit, msg string, shouldRetry bool) error {
	outfit.EnrichRetryTimes = outfit.EnrichRetryTimes + 1
	outfit.EnrichErrorMessage = &msg
	if !shouldRetry || outfit.EnrichRetryTimes >= 3 {
		outfit.EnrichStatus = "failed"
	}
	tx := db.Save(&outfit)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Fail Outfit %v] Error on saving outfit for failed status", outfit.ID))
		return tx.Error
	}
	return nil
}
