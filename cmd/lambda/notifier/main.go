package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/ec-storefront/internal/app"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/email"
	"github.com/example/ec-storefront/internal/infrastructure/kinesis"
	"github.com/example/ec-storefront/internal/notification"
)

var notificationHandler *notification.Handler

func init() {
	cfg := config.Load()
	cfg.StoreDriver = config.DriverDynamo
	cfg.KafkaBrokers = nil

	shop, err := app.New(context.Background(), cfg, app.Options{})
	if err != nil {
		log.Fatalf("[Lambda Notifier] Failed to open DynamoDB store: %v", err)
	}

	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	notificationHandler = notification.NewHandler(emailSvc, shop.Users, shop.Orders)

	log.Printf("[Lambda Notifier] Initialized (tables: %s, %s; SMTP: %s:%s)",
		cfg.DynamoKVTable, cfg.DynamoLogTable, cfg.SMTPHost, cfg.SMTPPort)
}

func handler(ctx context.Context, kinesisEvent events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.Printf("[Lambda Notifier] Received %d records", len(kinesisEvent.Records))

	var batchItemFailures []events.KinesisBatchItemFailure
	fail := func(record events.KinesisEventRecord) {
		batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
			ItemIdentifier: record.Kinesis.SequenceNumber,
		})
	}

	for _, record := range kinesisEvent.Records {
		event, err := kinesis.ConvertFromKinesisRecord(record)
		if err != nil {
			log.Printf("[Lambda Notifier] Failed to convert record %s: %v", record.EventID, err)
			fail(record)
			continue
		}
		// Not an event stream insert
		if event == nil {
			continue
		}

		eventJSON, err := json.Marshal(event)
		if err != nil {
			log.Printf("[Lambda Notifier] Failed to marshal event %s: %v", event.ID, err)
			fail(record)
			continue
		}

		if err := notificationHandler.HandleEvent(ctx, []byte(event.AggregateID), eventJSON); err != nil {
			log.Printf("[Lambda Notifier] Failed to process event %s: %v", event.ID, err)
			fail(record)
		}
	}

	successCount := len(kinesisEvent.Records) - len(batchItemFailures)
	log.Printf("[Lambda Notifier] Processed %d/%d records successfully", successCount, len(kinesisEvent.Records))

	return events.KinesisEventResponse{BatchItemFailures: batchItemFailures}, nil
}

func main() {
	lambda.Start(handler)
}
