package kinesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/ec-storefront/internal/infrastructure/store"
)

// ConvertFromKinesisRecord converts a Kinesis record (DynamoDB Streams format)
// from the log table into a store.Event. It returns nil for records that
// are not inserts into an event stream, such as review log entries.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*store.Event, error) {
	var dynamoDBRecord events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &dynamoDBRecord); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}

	return ConvertFromDynamoDBStreamRecord(dynamoDBRecord)
}

// ConvertFromDynamoDBStreamRecord converts a DynamoDB Stream record to store.Event.
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*store.Event, error) {
	// Log items are only ever inserted.
	if record.EventName != "INSERT" {
		return nil, nil
	}

	return convertLogItem(record.Change.NewImage)
}

// convertLogItem decodes a log table item (stream, sk, value, created_at).
func convertLogItem(image map[string]events.DynamoDBAttributeValue) (*store.Event, error) {
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	stream, ok := image["stream"]
	if !ok || stream.DataType() != events.DataTypeString {
		return nil, fmt.Errorf("missing stream attribute")
	}
	if !strings.HasPrefix(stream.String(), store.StreamPrefix) {
		return nil, nil
	}

	value, ok := image["value"]
	if !ok || value.DataType() != events.DataTypeString {
		return nil, fmt.Errorf("missing value attribute in stream %s", stream.String())
	}

	var event store.Event
	if err := json.Unmarshal([]byte(value.String()), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event in stream %s: %w", stream.String(), err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("stream %s: %w", stream.String(), err)
	}

	return &event, nil
}

// BatchConvertFromKinesisEvent converts all records from a Kinesis event to store.Events.
// Returns successfully converted events and any errors encountered.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]*store.Event, []error) {
	var eventList []*store.Event
	var errs []error

	for _, record := range kinesisEvent.Records {
		event, err := ConvertFromKinesisRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", record.EventID, err))
			continue
		}
		if event != nil {
			eventList = append(eventList, event)
		}
	}

	return eventList, errs
}
