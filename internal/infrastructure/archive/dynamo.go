// Package archive keeps every consumed order event in DynamoDB. The table is
// keyed by aggregate_id (order id) and sk (timestamp#event id), so one query
// returns an order's history in order.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/events"
)

// Attribute names of an archived item.
const (
	AttrAggregateID = "aggregate_id"
	AttrSortKey     = "sk"
	AttrID          = "id"
	AttrEventType   = "event_type"
	AttrData        = "data"
	AttrCreatedAt   = "created_at"
)

// Item is the DynamoDB representation of an archived event.
type Item struct {
	AggregateID string `dynamodbav:"aggregate_id"`
	SortKey     string `dynamodbav:"sk"`
	ID          string `dynamodbav:"id"`
	EventType   string `dynamodbav:"event_type"`
	Data        string `dynamodbav:"data"`
	CreatedAt   string `dynamodbav:"created_at"`
}

// ToItem flattens an event for storage.
func ToItem(e events.Event) Item {
	created := e.Timestamp.UTC().Format(time.RFC3339Nano)
	return Item{
		AggregateID: e.AggregateID,
		SortKey:     created + "#" + e.ID,
		ID:          e.ID,
		EventType:   e.Type,
		Data:        string(e.Data),
		CreatedAt:   created,
	}
}

// Event restores the archived event.
func (it Item) Event() (events.Event, error) {
	ts, err := time.Parse(time.RFC3339Nano, it.CreatedAt)
	if err != nil {
		return events.Event{}, fmt.Errorf("parse created_at: %w", err)
	}
	return events.Event{
		ID:          it.ID,
		Type:        it.EventType,
		AggregateID: it.AggregateID,
		Data:        []byte(it.Data),
		Timestamp:   ts,
	}, nil
}

type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoArchive implements projection.Archiver.
type DynamoArchive struct {
	client dynamoAPI
	table  string
}

func NewDynamoArchive(client *dynamodb.Client, table string) *DynamoArchive {
	return &DynamoArchive{client: client, table: table}
}

// Connect builds a client from the default AWS credential chain.
func Connect(ctx context.Context, region, table string) (*DynamoArchive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewDynamoArchive(dynamodb.NewFromConfig(cfg), table), nil
}

// Archive stores e. Storing the same event twice is not an error.
func (a *DynamoArchive) Archive(ctx context.Context, e events.Event) error {
	av, err := attributevalue.MarshalMap(ToItem(e))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(a.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(aggregate_id) AND attribute_not_exists(sk)"),
	})
	var exists *types.ConditionalCheckFailedException
	if errors.As(err, &exists) {
		log.Printf("[Archive] Event %s already archived", e.ID)
		return nil
	}
	if err != nil {
		return apperr.Storage("archive event", err)
	}
	return nil
}

// History returns the archived events of one order, oldest first.
func (a *DynamoArchive) History(ctx context.Context, aggregateID string) ([]events.Event, error) {
	var out []events.Event
	var start map[string]types.AttributeValue
	for {
		result, err := a.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(a.table),
			KeyConditionExpression: aws.String("aggregate_id = :aid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":aid": &types.AttributeValueMemberS{Value: aggregateID},
			},
			ScanIndexForward:  aws.Bool(true),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, apperr.Storage("query event history", err)
		}

		var items []Item
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %w", err)
		}
		for _, it := range items {
			e, err := it.Event()
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}

		if len(result.LastEvaluatedKey) == 0 {
			return out, nil
		}
		start = result.LastEvaluatedKey
	}
}
