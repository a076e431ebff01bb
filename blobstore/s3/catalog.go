package s3

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/gomvg/featmatch/core"
	"github.com/gomvg/featmatch/desc"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrViewExists is returned when registering a view id that is already
// cataloged.
var ErrViewExists = errors.New("view already registered")

// DDBCatalog implements desc.Catalog backed by a DynamoDB table. It maps
// view ids to the S3 blob names holding their encoded descriptors, so that
// multiple feature extraction workers can safely publish views into one
// collection.
//
// DynamoDB conditional writes give Register the compare-and-swap semantics
// that S3 lacks: each view id is claimed exactly once.
//
// Table schema:
//   - Partition key: collection (string) - the descriptor collection name
//   - Sort key: view_id (number) - the view id
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name featmatch-views \
//	  --attribute-definitions AttributeName=collection,AttributeType=S AttributeName=view_id,AttributeType=N \
//	  --key-schema AttributeName=collection,KeyType=HASH AttributeName=view_id,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCatalog struct {
	client     DDBClient
	tableName  string
	collection string

	mu    sync.RWMutex
	blobs map[core.ViewID]string
}

var _ desc.Catalog = (*DDBCatalog)(nil)

// NewDDBCatalog creates a catalog over one collection in a DynamoDB table.
// Call Load to read the already-registered views.
func NewDDBCatalog(client DDBClient, tableName, collection string) *DDBCatalog {
	return &DDBCatalog{
		client:     client,
		tableName:  tableName,
		collection: collection,
		blobs:      make(map[core.ViewID]string),
	}
}

// Load reads all registered views of the collection into memory, following
// pagination. It replaces any previously loaded state.
func (c *DDBCatalog) Load(ctx context.Context) error {
	blobs := make(map[core.ViewID]string)

	var startKey map[string]types.AttributeValue
	for {
		resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(c.tableName),
			KeyConditionExpression: aws.String("#c = :c"),
			ExpressionAttributeNames: map[string]string{
				"#c": "collection",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":c": &types.AttributeValueMemberS{Value: c.collection},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return fmt.Errorf("failed to query DynamoDB: %w", err)
		}

		for _, item := range resp.Items {
			idAttr, ok := item["view_id"].(*types.AttributeValueMemberN)
			if !ok {
				return errors.New("invalid view_id attribute in DynamoDB")
			}
			nameAttr, ok := item["blob_name"].(*types.AttributeValueMemberS)
			if !ok {
				return errors.New("invalid blob_name attribute in DynamoDB")
			}
			id, err := strconv.ParseUint(idAttr.Value, 10, 32)
			if err != nil {
				return fmt.Errorf("failed to parse view_id: %w", err)
			}
			blobs[core.ViewID(id)] = nameAttr.Value
		}

		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	c.mu.Lock()
	c.blobs = blobs
	c.mu.Unlock()
	return nil
}

// Register claims a view id for a blob name using a DynamoDB conditional
// write. Returns ErrViewExists if the id is already registered.
func (c *DDBCatalog) Register(ctx context.Context, id core.ViewID, blobName string) error {
	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"collection": &types.AttributeValueMemberS{Value: c.collection},
			"view_id":    &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(id), 10)},
			"blob_name":  &types.AttributeValueMemberS{Value: blobName},
		},
		ConditionExpression: aws.String("attribute_not_exists(view_id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: view %d", ErrViewExists, id)
		}
		return fmt.Errorf("failed to register view in DynamoDB: %w", err)
	}

	c.mu.Lock()
	c.blobs[id] = blobName
	c.mu.Unlock()
	return nil
}

// Blob returns the blob name for a view.
func (c *DDBCatalog) Blob(id core.ViewID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.blobs[id]
	return name, ok
}

// Views returns all loaded view ids in ascending order.
func (c *DDBCatalog) Views() []core.ViewID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]core.ViewID, 0, len(c.blobs))
	for id := range c.blobs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
