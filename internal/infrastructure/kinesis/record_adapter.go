// Package kinesis decodes the change stream of the event archive table, as
// delivered by DynamoDB's Kinesis integration, back into events.
package kinesis

import (
	"encoding/json"
	"fmt"

	awsevents "github.com/aws/aws-lambda-go/events"

	"github.com/example/mall-backoffice/internal/events"
	"github.com/example/mall-backoffice/internal/infrastructure/archive"
)

// ConvertFromKinesisRecord decodes one Kinesis record. It returns nil for
// changes other than inserts.
func ConvertFromKinesisRecord(record awsevents.KinesisEventRecord) (*events.Event, error) {
	var change awsevents.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &change); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}
	return ConvertFromDynamoDBStreamRecord(change)
}

// ConvertFromDynamoDBStreamRecord decodes a stream record read directly from
// DynamoDB Streams.
func ConvertFromDynamoDBStreamRecord(record awsevents.DynamoDBEventRecord) (*events.Event, error) {
	if record.EventName != "INSERT" {
		return nil, nil
	}
	return convertImage(record.Change.NewImage)
}

func convertImage(image map[string]awsevents.DynamoDBAttributeValue) (*events.Event, error) {
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	str := func(name string) string {
		if v, ok := image[name]; ok && v.DataType() == awsevents.DataTypeString {
			return v.String()
		}
		return ""
	}
	item := archive.Item{
		AggregateID: str(archive.AttrAggregateID),
		SortKey:     str(archive.AttrSortKey),
		ID:          str(archive.AttrID),
		EventType:   str(archive.AttrEventType),
		Data:        str(archive.AttrData),
		CreatedAt:   str(archive.AttrCreatedAt),
	}
	if item.ID == "" || item.AggregateID == "" || item.EventType == "" {
		return nil, fmt.Errorf("missing required fields: id=%q, aggregate_id=%q, event_type=%q",
			item.ID, item.AggregateID, item.EventType)
	}

	e, err := item.Event()
	if err != nil {
		return nil, err
	}
	return &e, nil
}
