package main

import (
	"context"
	"log"
	"os"

	"vestioapi/dbhelper"
	"vestioapi/services"
	"vestioapi/tasks"

	firebase "firebase.google.com/go/v4"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
)

func runScheduler() {

	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}, &asynq.SchedulerOpts{
		LogLevel: asynq.InfoLevel,
	})

	for _, t := range tasks.ScheduledTasks() {
		entryID, err := scheduler.Register(t.Cron, t.Task, t.Opts...)
		if err != nil {
			log.Fatalf("Failed to register task '%s': %v", t.Desc, err)
		}
		log.Printf("Registered task '%s' with ID: %s, cron: %s", t.Desc, entryID, t.Cron)
	}

	log.Println("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: tasks.WorkerQueues},
	)
	awsService := &services.AWSService{}
	stylist := services.GeminiStylist{}
	err := awsService.InitPresignClient(context.Background())
	if err != nil {
		log.Fatal("[Queue] Failed to initialize AWS provider: S3")
	}
	app, err := firebase.NewApp(context.Background(), nil)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v\n", err)
		return
	}
	mux := asynq.NewServeMux()
	db := dbhelper.SetupDB()
	mux.HandleFunc(tasks.TypeOutfitDescribe, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleOutfitDescribeTask(ctx, t, db, stylist, app)
	})
	mux.HandleFunc(tasks.TypeItemUploaded, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleItemUploadedTask(ctx, t, db, awsService)
	})
	mux.HandleFunc(tasks.TypeAccountCleanup, func(ctx context.Context, t *asynq.Task) error {
		return tasks.ScheduledAccountCleanupTask(ctx, t, db)
	})

	go runScheduler()
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
