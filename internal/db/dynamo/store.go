package dynamo

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/makoye224/cwru-courses-backend/internal/db"
)

// keyRecord is the fixed part of every stored item.
type keyRecord struct {
	Name    string `dynamodbav:"name"`
	Code    string `dynamodbav:"code"`
	Version int64  `dynamodbav:"version"`
}

// Get reads the item with a strongly consistent read.
func (s *Store) Get(ctx context.Context, key db.Key) (db.Item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            primaryKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return db.Item{}, &db.Error{Op: db.OpGet, Err: err}
	}
	if len(out.Item) == 0 {
		return db.Item{}, db.ErrKeyNotFound
	}
	return decodeItem(out.Item)
}

// Put writes the whole item under a condition expression derived from cond.
func (s *Store) Put(ctx context.Context, item db.Item, cond db.Precondition) error {
	av, err := encodeItem(item)
	if err != nil {
		return &db.Error{Op: db.OpPut, Err: err}
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}

	if c, ok := conditionFor(cond); ok {
		expr, err := expression.NewBuilder().WithCondition(c).Build()
		if err != nil {
			return fmt.Errorf("failed to build expression: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return db.ErrVersionConflict
		}
		return &db.Error{Op: db.OpPut, Err: err}
	}
	return nil
}

// Delete removes the item, failing with ErrKeyNotFound when nothing is stored.
func (s *Store) Delete(ctx context.Context, key db.Key) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(attrName).AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      primaryKey(key),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return db.ErrKeyNotFound
		}
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	return nil
}

// QueryByIndex pages through the createdBy GSI.
func (s *Store) QueryByIndex(ctx context.Context, index, value string) iter.Seq2[db.Item, error] {
	return func(yield func(db.Item, error) bool) {
		if index != db.IndexCreatedBy {
			yield(db.Item{}, db.ErrIndexNotFound)
			return
		}

		keyExpr := expression.Key(db.IndexCreatedBy).Equal(expression.Value(value))
		expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
		if err != nil {
			yield(db.Item{}, fmt.Errorf("failed to build expression: %w", err))
			return
		}

		p := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			IndexName:                 aws.String(createdByGSI),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				yield(db.Item{}, &db.Error{Op: db.OpQuery, Err: err})
				return
			}
			if !yieldItems(page.Items, yield) {
				return
			}
		}
	}
}

// ScanAll pages through the table. With more than one segment the segments are
// scanned concurrently and yielded once all of them complete.
func (s *Store) ScanAll(ctx context.Context) iter.Seq2[db.Item, error] {
	if s.segments > 1 {
		return s.parallelScan(ctx)
	}
	return func(yield func(db.Item, error) bool) {
		p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
			TableName:      aws.String(s.table),
			ConsistentRead: aws.Bool(true),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				yield(db.Item{}, &db.Error{Op: db.OpScan, Err: err})
				return
			}
			if !yieldItems(page.Items, yield) {
				return
			}
		}
	}
}

func (s *Store) parallelScan(ctx context.Context) iter.Seq2[db.Item, error] {
	return func(yield func(db.Item, error) bool) {
		pages := make([][]map[string]types.AttributeValue, s.segments)

		g, gctx := errgroup.WithContext(ctx)
		for seg := range s.segments {
			g.Go(func() error {
				p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
					TableName:      aws.String(s.table),
					ConsistentRead: aws.Bool(true),
					Segment:        aws.Int32(int32(seg)),
					TotalSegments:  aws.Int32(int32(s.segments)),
				})
				for p.HasMorePages() {
					page, err := p.NextPage(gctx)
					if err != nil {
						return fmt.Errorf("segment %d: %w", seg, err)
					}
					pages[seg] = append(pages[seg], page.Items...)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			yield(db.Item{}, &db.Error{Op: db.OpScan, Err: err})
			return
		}

		for _, items := range pages {
			if !yieldItems(items, yield) {
				return
			}
		}
	}
}

func yieldItems(items []map[string]types.AttributeValue, yield func(db.Item, error) bool) bool {
	for _, av := range items {
		item, err := decodeItem(av)
		if err != nil {
			yield(db.Item{}, err)
			return false
		}
		if !yield(item, nil) {
			return false
		}
	}
	return true
}

func conditionFor(cond db.Precondition) (expression.ConditionBuilder, bool) {
	if v, ok := cond.ExpectedVersion(); ok {
		return expression.Name(attrVersion).Equal(expression.Value(v)), true
	}
	if cond.IsAbsent() {
		return expression.Name(attrName).AttributeNotExists(), true
	}
	return expression.ConditionBuilder{}, false
}

func primaryKey(k db.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrName: &types.AttributeValueMemberS{Value: k.Name},
		attrCode: &types.AttributeValueMemberS{Value: k.Code},
	}
}

// encodeItem flattens an item into attribute values. Empty attributes are
// omitted: GSI key attributes may not be empty strings, and the converter
// reads a missing attribute as empty.
func encodeItem(item db.Item) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(keyRecord{
		Name:    item.Key.Name,
		Code:    item.Key.Code,
		Version: item.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	for k, v := range item.Attributes {
		if v == "" {
			continue
		}
		switch k {
		case attrName, attrCode, attrVersion:
			return nil, fmt.Errorf("attribute %q collides with table key", k)
		}
		av[k] = &types.AttributeValueMemberS{Value: v}
	}
	return av, nil
}

func decodeItem(av map[string]types.AttributeValue) (db.Item, error) {
	var rec keyRecord
	if err := attributevalue.UnmarshalMap(av, &rec); err != nil {
		return db.Item{}, fmt.Errorf("unmarshal key: %w", err)
	}

	item := db.Item{
		Key:        db.Key{Name: rec.Name, Code: rec.Code},
		Version:    rec.Version,
		Attributes: make(map[string]string, len(av)),
	}
	for k, v := range av {
		switch k {
		case attrName, attrCode, attrVersion:
			continue
		}
		var str string
		if err := attributevalue.Unmarshal(v, &str); err != nil {
			return db.Item{}, fmt.Errorf("attribute %s of %s: %w", k, item.Key, err)
		}
		item.Attributes[k] = str
	}
	return item, nil
}
