package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archivedImage() map[string]awsevents.DynamoDBAttributeValue {
	return map[string]awsevents.DynamoDBAttributeValue{
		"aggregate_id": awsevents.NewStringAttribute("order-1"),
		"sk":           awsevents.NewStringAttribute("2026-05-12T10:30:00.123456789Z#evt-1"),
		"id":           awsevents.NewStringAttribute("evt-1"),
		"event_type":   awsevents.NewStringAttribute("order.placed"),
		"data":         awsevents.NewStringAttribute(`{"total":2000}`),
		"created_at":   awsevents.NewStringAttribute("2026-05-12T10:30:00.123456789Z"),
	}
}

func TestConvertImage(t *testing.T) {
	tests := []struct {
		name    string
		image   map[string]awsevents.DynamoDBAttributeValue
		wantErr bool
	}{
		{name: "archived event", image: archivedImage()},
		{name: "nil image", wantErr: true},
		{
			name:    "missing type",
			image:   map[string]awsevents.DynamoDBAttributeValue{"id": awsevents.NewStringAttribute("evt-1")},
			wantErr: true,
		},
		{
			name: "bad timestamp",
			image: func() map[string]awsevents.DynamoDBAttributeValue {
				img := archivedImage()
				img["created_at"] = awsevents.NewStringAttribute("not a time")
				return img
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := convertImage(tt.image)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "evt-1", event.ID)
			assert.Equal(t, "order-1", event.AggregateID)
			assert.Equal(t, "order.placed", event.Type)
			assert.JSONEq(t, `{"total":2000}`, string(event.Data))
			assert.Equal(t, 2026, event.Timestamp.Year())
		})
	}
}

func TestConvertFromDynamoDBStreamRecord_SkipsNonInserts(t *testing.T) {
	for _, name := range []string{"MODIFY", "REMOVE"} {
		event, err := ConvertFromDynamoDBStreamRecord(awsevents.DynamoDBEventRecord{
			EventName: name,
			Change:    awsevents.DynamoDBStreamRecord{NewImage: archivedImage()},
		})
		require.NoError(t, err)
		assert.Nil(t, event)
	}
}

func TestConvertFromKinesisRecord(t *testing.T) {
	data, err := json.Marshal(awsevents.DynamoDBEventRecord{
		EventName: "INSERT",
		Change:    awsevents.DynamoDBStreamRecord{NewImage: archivedImage()},
	})
	require.NoError(t, err)

	event, err := ConvertFromKinesisRecord(awsevents.KinesisEventRecord{
		Kinesis: awsevents.KinesisRecord{Data: data},
	})

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "evt-1", event.ID)

	_, err = ConvertFromKinesisRecord(awsevents.KinesisEventRecord{Kinesis: awsevents.KinesisRecord{Data: []byte("garbage")}})
	assert.Error(t, err)
}

func kinesisRecord(t *testing.T, seq, eventName string, image map[string]awsevents.DynamoDBAttributeValue) awsevents.KinesisEventRecord {
	t.Helper()
	data, err := json.Marshal(awsevents.DynamoDBEventRecord{
		EventName: eventName,
		Change:    awsevents.DynamoDBStreamRecord{NewImage: image},
	})
	require.NoError(t, err)
	return awsevents.KinesisEventRecord{Kinesis: awsevents.KinesisRecord{Data: data, SequenceNumber: seq}}
}

func TestProcessBatch(t *testing.T) {
	failing := archivedImage()
	failing["id"] = awsevents.NewStringAttribute("evt-fail")

	batch := awsevents.KinesisEvent{Records: []awsevents.KinesisEventRecord{
		kinesisRecord(t, "1", "INSERT", archivedImage()),
		kinesisRecord(t, "2", "MODIFY", archivedImage()),
		{Kinesis: awsevents.KinesisRecord{Data: []byte("garbage"), SequenceNumber: "3"}},
		kinesisRecord(t, "4", "INSERT", failing),
	}}

	var handled []string
	resp := ProcessBatch(context.Background(), "Test", batch, func(_ context.Context, key, value []byte) error {
		var e struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(value, &e))
		assert.Equal(t, "order-1", string(key))
		if e.ID == "evt-fail" {
			return errors.New("smtp down")
		}
		handled = append(handled, e.ID)
		return nil
	})

	assert.Equal(t, []string{"evt-1"}, handled)
	var failed []string
	for _, f := range resp.BatchItemFailures {
		failed = append(failed, f.ItemIdentifier)
	}
	assert.Equal(t, []string{"3", "4"}, failed)
}
