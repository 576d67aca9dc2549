package tasks

import (
	"context"
	"os"
	"testing"
	"time"

	"vestioapi/dbhelper"
	"vestioapi/models"
	"vestioapi/test"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutfitDescribeTask(t *testing.T) {
	os.Setenv("GOOGLE_API_KEY", "fake-key")
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)

	top := test.FakeItem(db, user.ID, "White Tee", "t-shirt", nil, nil)
	bottom := test.FakeItem(db, user.ID, "Black Jeans", "jeans", nil, nil)

	outfit := models.SavedOutfit{
		OwnerID:      user.ID,
		Occasion:     "casual",
		Season:       "all-year",
		Style:        "comfortable",
		ItemIDs:      []int64{int64(top.ID), int64(bottom.ID)},
		Confidence:   0.9,
		EnrichStatus: "pending",
	}
	require.NoError(t, db.Create(&outfit).Error)

	task, err := NewOutfitDescribeTask(outfit.ID)
	require.NoError(t, err)

	err = HandleOutfitDescribeTask(context.Background(), task, db, test.StylistMock{}, nil)
	require.NoError(t, err)

	var enriched models.SavedOutfit
	require.NoError(t, db.First(&enriched, outfit.ID).Error)
	assert.Equal(t, "completed", enriched.EnrichStatus)
	require.NotNil(t, enriched.StylistNotes)
	assert.NotEmpty(t, *enriched.StylistNotes)
	assert.Nil(t, enriched.EnrichErrorMessage)
}

func TestOutfitDescribeTaskAlreadyCompleted(t *testing.T) {
	os.Setenv("GOOGLE_API_KEY", "fake-key")
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)

	notes := "already written"
	outfit := models.SavedOutfit{
		OwnerID:      user.ID,
		Occasion:     "casual",
		Season:       "all-year",
		Style:        "comfortable",
		ItemIDs:      []int64{1},
		Confidence:   0.9,
		EnrichStatus: "completed",
		StylistNotes: &notes,
	}
	require.NoError(t, db.Create(&outfit).Error)

	task, err := NewOutfitDescribeTask(outfit.ID)
	require.NoError(t, err)

	require.NoError(t, HandleOutfitDescribeTask(context.Background(), task, db, test.StylistMock{}, nil))

	var unchanged models.SavedOutfit
	require.NoError(t, db.First(&unchanged, outfit.ID).Error)
	assert.Equal(t, "already written", *unchanged.StylistNotes)
}

func TestOutfitDescribeTaskNoItemsFails(t *testing.T) {
	os.Setenv("GOOGLE_API_KEY", "fake-key")
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)

	// references items that were deleted from the closet
	outfit := models.SavedOutfit{
		OwnerID:      user.ID,
		Occasion:     "casual",
		Season:       "all-year",
		Style:        "comfortable",
		ItemIDs:      []int64{99999},
		Confidence:   0.9,
		EnrichStatus: "pending",
	}
	require.NoError(t, db.Create(&outfit).Error)

	task, err := NewOutfitDescribeTask(outfit.ID)
	require.NoError(t, err)

	err = HandleOutfitDescribeTask(context.Background(), task, db, test.StylistMock{}, nil)
	require.Error(t, err)

	var failed models.SavedOutfit
	require.NoError(t, db.First(&failed, outfit.ID).Error)
	assert.Equal(t, "failed", failed.EnrichStatus)
	assert.Equal(t, 1, failed.EnrichRetryTimes)
	require.NotNil(t, failed.EnrichErrorMessage)
}

func TestItemUploadedTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)

	item := test.FakeItem(db, user.ID, "White Tee", "t-shirt", nil, nil)
	imageKey := "items/1/tee.jpg"
	item.ImageKey = &imageKey
	require.NoError(t, db.Save(&item).Error)

	task, err := NewItemUploadedTask(item.ID)
	require.NoError(t, err)

	err = HandleItemUploadedTask(context.Background(), task, db, test.AWSProviderMock{MockUrl: "https://fakebucketurl.com/tee.jpg"})
	require.NoError(t, err)

	var updated models.ClothingItem
	require.NoError(t, db.First(&updated, item.ID).Error)
	assert.Equal(t, "uploaded", updated.ImageStatus)
}

func TestItemUploadedTaskNoImage(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)
	item := test.FakeItem(db, user.ID, "White Tee", "t-shirt", nil, nil)

	task, err := NewItemUploadedTask(item.ID)
	require.NoError(t, err)

	require.NoError(t, HandleItemUploadedTask(context.Background(), task, db, test.AWSProviderMock{}))

	var unchanged models.ClothingItem
	require.NoError(t, db.First(&unchanged, item.ID).Error)
	assert.Equal(t, "draft", unchanged.ImageStatus)
}

func TestScheduledTasksTargetConsumedQueues(t *testing.T) {
	for _, entry := range ScheduledTasks() {
		queue := "default"
		for _, opt := range entry.Opts {
			if opt.Type() == asynq.QueueOpt {
				queue = opt.Value().(string)
			}
		}
		_, consumed := WorkerQueues[queue]
		assert.True(t, consumed, "scheduled task %q targets queue %q which the worker does not consume", entry.Desc, queue)
	}
}

func TestScheduledAccountCleanupTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	expired := test.FakeUserV2(db, "Gone", "gone@example.com")
	pastCutoff := time.Now().AddDate(0, 0, -31)
	expired.ConfirmedDeleteDate = &pastCutoff
	expired.Banned = true
	require.NoError(t, db.Save(&expired).Error)
	test.FakeItem(db, expired.ID, "Their Tee", "t-shirt", nil, nil)

	recent := test.FakeUserV2(db, "Waiting", "waiting@example.com")
	justNow := time.Now()
	recent.ConfirmedDeleteDate = &justNow
	require.NoError(t, db.Save(&recent).Error)

	require.NoError(t, ScheduledAccountCleanupTask(context.Background(), asynq.NewTask(TypeAccountCleanup, []byte{}), db))

	var count int64
	db.Model(&models.UserAccount{}).Where("id = ?", expired.ID).Count(&count)
	assert.Equal(t, int64(0), count, "expired account should be purged")

	db.Model(&models.ClothingItem{}).Where("owner_id = ?", expired.ID).Count(&count)
	assert.Equal(t, int64(0), count, "purged account leaves no items behind")

	db.Model(&models.UserAccount{}).Where("id = ?", recent.ID).Count(&count)
	assert.Equal(t, int64(1), count, "grace period still running")
}
