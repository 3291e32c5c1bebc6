package readings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	dynamoBatchLimit = 25 // BatchWriteItem hard limit
	maxBatchRetries  = 3
)

// DynamoAPI is the subset of *dynamodb.Client the store needs.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoStore keeps one item per reading, hash key deviceId and range key
// timestamp, with sensor values as top-level number attributes.
type DynamoStore struct {
	client  DynamoAPI
	table   string
	backoff time.Duration
}

// NewDynamoStore returns store bound to table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table, backoff: 100 * time.Millisecond}
}

// Put writes a single reading, replacing any item with the same key.
func (s *DynamoStore) Put(ctx context.Context, r Reading) error {
	item, err := marshalItem(r)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("readings: dynamodb put: %w", err)
	}
	return nil
}

// PutBatch writes readings in chunks of 25, retrying unprocessed items.
func (s *DynamoStore) PutBatch(ctx context.Context, rs []Reading) error {
	for i := 0; i < len(rs); i += dynamoBatchLimit {
		end := i + dynamoBatchLimit
		if end > len(rs) {
			end = len(rs)
		}

		requests := make([]types.WriteRequest, 0, end-i)
		for _, r := range rs[i:end] {
			item, err := marshalItem(r)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}

		if err := s.writeBatchWithRetry(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoStore) writeBatchWithRetry(ctx context.Context, requests []types.WriteRequest) error {
	pending := requests
	for attempt := 0; attempt <= maxBatchRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * s.backoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: pending},
		})
		if err != nil {
			return fmt.Errorf("readings: batch write attempt %d: %w", attempt+1, err)
		}

		pending = out.UnprocessedItems[s.table]
		if len(pending) == 0 {
			return nil
		}
	}
	return fmt.Errorf("readings: batch write: %d items unprocessed after %d retries", len(pending), maxBatchRetries)
}

// Recent queries one device by key, or scans the table for all devices.
func (s *DynamoStore) Recent(ctx context.Context, q Query) ([]Reading, error) {
	if q.DeviceID != "" {
		return s.queryDevice(ctx, q)
	}
	return s.scanSince(ctx, q)
}

func (s *DynamoStore) queryDevice(ctx context.Context, q Query) ([]Reading, error) {
	limit := q.limit()
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("deviceId = :deviceId AND #ts >= :timestamp"),
		ExpressionAttributeNames: map[string]string{
			"#ts": AttrTimestamp,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":deviceId":  &types.AttributeValueMemberS{Value: q.DeviceID},
			":timestamp": &types.AttributeValueMemberN{Value: strconv.FormatInt(q.Since, 10)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	var result []Reading
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("readings: dynamodb query: %w", err)
		}
		for _, item := range out.Items {
			r, err := unmarshalItem(item)
			if err != nil {
				return nil, err
			}
			result = append(result, r)
		}
		if len(result) >= limit || len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *DynamoStore) scanSince(ctx context.Context, q Query) ([]Reading, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("#ts >= :timestamp"),
		ExpressionAttributeNames: map[string]string{
			"#ts": AttrTimestamp,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":timestamp": &types.AttributeValueMemberN{Value: strconv.FormatInt(q.Since, 10)},
		},
	}

	var result []Reading
	err := s.scan(ctx, input, func(item map[string]types.AttributeValue) error {
		r, err := unmarshalItem(item)
		if err != nil {
			return err
		}
		result = append(result, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(result)
	if limit := q.limit(); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeviceIDs scans the deviceId attribute only and returns distinct sorted IDs.
func (s *DynamoStore) DeviceIDs(ctx context.Context) ([]string, error) {
	input := &dynamodb.ScanInput{
		TableName:            aws.String(s.table),
		ProjectionExpression: aws.String(AttrDeviceID),
	}

	seen := make(map[string]struct{})
	err := s.scan(ctx, input, func(item map[string]types.AttributeValue) error {
		if v, ok := item[AttrDeviceID].(*types.AttributeValueMemberS); ok {
			seen[v.Value] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *DynamoStore) scan(ctx context.Context, input *dynamodb.ScanInput, visit func(map[string]types.AttributeValue) error) error {
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return fmt.Errorf("readings: dynamodb scan: %w", err)
		}
		for _, item := range out.Items {
			if err := visit(item); err != nil {
				return err
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Ping describes the table.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return fmt.Errorf("readings: describe table: %w", err)
	}
	return nil
}

func marshalItem(r Reading) (map[string]types.AttributeValue, error) {
	flat := make(map[string]any, len(r.Values)+2)
	for k, v := range r.Values {
		flat[k] = v
	}
	flat[AttrDeviceID] = r.DeviceID
	flat[AttrTimestamp] = r.Timestamp

	item, err := attributevalue.MarshalMap(flat)
	if err != nil {
		return nil, fmt.Errorf("readings: marshal item: %w", err)
	}
	return item, nil
}

func unmarshalItem(item map[string]types.AttributeValue) (Reading, error) {
	var flat map[string]any
	if err := attributevalue.UnmarshalMap(item, &flat); err != nil {
		return Reading{}, fmt.Errorf("readings: unmarshal item: %w", err)
	}

	r := Reading{Values: make(map[string]float64, len(flat))}
	for key, raw := range flat {
		switch key {
		case AttrDeviceID:
			r.DeviceID, _ = raw.(string)
		case AttrTimestamp:
			if ts, ok := raw.(float64); ok {
				r.Timestamp = int64(ts)
			}
		default:
			if v, ok := raw.(float64); ok {
				r.Values[key] = v
			}
		}
	}
	return r, nil
}
