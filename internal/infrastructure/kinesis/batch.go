package kinesis

import (
	"context"
	"encoding/json"
	"log"

	awsevents "github.com/aws/aws-lambda-go/events"
)

// Handler has the signature of kafka.MessageHandler so the same projector and
// notifier code runs behind either transport.
type Handler func(ctx context.Context, key, value []byte) error

// ProcessBatch feeds every archived insert in the batch to handle. Records
// that fail are reported by sequence number so Lambda retries only those.
func ProcessBatch(ctx context.Context, component string, batch awsevents.KinesisEvent, handle Handler) awsevents.KinesisEventResponse {
	log.Printf("[%s] Received %d records", component, len(batch.Records))

	var failures []awsevents.KinesisBatchItemFailure
	fail := func(record awsevents.KinesisEventRecord) {
		failures = append(failures, awsevents.KinesisBatchItemFailure{
			ItemIdentifier: record.Kinesis.SequenceNumber,
		})
	}

	for _, record := range batch.Records {
		event, err := ConvertFromKinesisRecord(record)
		if err != nil {
			log.Printf("[%s] Failed to convert record %s: %v", component, record.EventID, err)
			fail(record)
			continue
		}
		if event == nil {
			continue
		}

		value, err := json.Marshal(event)
		if err != nil {
			fail(record)
			continue
		}
		if err := handle(ctx, []byte(event.AggregateID), value); err != nil {
			log.Printf("[%s] Failed to process event %s (%s): %v", component, event.ID, event.Type, err)
			fail(record)
		}
	}

	log.Printf("[%s] Processed %d/%d records successfully",
		component, len(batch.Records)-len(failures), len(batch.Records))
	return awsevents.KinesisEventResponse{BatchItemFailures: failures}
}
