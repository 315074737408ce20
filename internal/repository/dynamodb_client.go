package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"faq-assistant/internal/domain"
)

const (
	skMeta          = "META#"
	skPrefixEntry   = "ENTRY#"
	skPrefixKeyword = "KEYWORD#"
)

// ErrCatalogNotFound is returned when a catalog has no META# item.
var ErrCatalogNotFound = errors.New("repository: catalog not found")

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Client reads and writes FAQ catalogs in a single DynamoDB table. One
// catalog is one partition:
//
//	PK=CATALOG#<id> SK=META#          name, about, fallbackMessage, entryCount, keywordCount
//	PK=CATALOG#<id> SK=ENTRY#0001     position, question, answer
//	PK=CATALOG#<id> SK=KEYWORD#0001   position, trigger, question
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func catalogPK(catalogID string) string {
	return "CATALOG#" + catalogID
}

func positionSK(prefix string, pos int) string {
	return fmt.Sprintf("%s%04d", prefix, pos)
}

type positioned[T any] struct {
	pos int
	val T
}

// counts bounds the positions a META# item vouches for. Items above the
// bounds are left over from a longer catalog and are ignored on load.
type counts struct {
	entries  int
	keywords int
	set      bool
}

// queryPartition runs fn for every item of the partition, following
// pagination.
func (c *Client) queryPartition(ctx context.Context, pk string, projection string, fn func(map[string]types.AttributeValue) error) error {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		ConsistentRead: aws.Bool(true),
	}
	if projection != "" {
		in.ProjectionExpression = aws.String(projection)
	}
	for {
		out, err := c.api.Query(ctx, in)
		if err != nil {
			return err
		}
		for _, item := range out.Items {
			if err := fn(item); err != nil {
				return err
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// LoadCatalog reads every item of a catalog partition, following pagination,
// and rebuilds entries and keywords in their stored order.
func (c *Client) LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	if strings.TrimSpace(catalogID) == "" {
		return domain.Catalog{}, errors.New("repository: LoadCatalog: catalog id must not be empty")
	}

	var (
		cat      domain.Catalog
		bounds   counts
		haveMeta bool
		entries  []positioned[domain.FAQEntry]
		keywords []positioned[domain.KeywordRule]
	)
	err := c.queryPartition(ctx, catalogPK(catalogID), "", func(item map[string]types.AttributeValue) error {
		sk, err := strAttr(item, "SK")
		if err != nil {
			return err
		}
		switch {
		case sk == skMeta:
			b, err := itemToMeta(item, &cat)
			if err != nil {
				return fmt.Errorf("meta: %w", err)
			}
			bounds = b
			haveMeta = true
		case strings.HasPrefix(sk, skPrefixEntry):
			e, err := itemToEntry(item)
			if err != nil {
				return fmt.Errorf("%s: %w", sk, err)
			}
			entries = append(entries, e)
		case strings.HasPrefix(sk, skPrefixKeyword):
			k, err := itemToKeyword(item)
			if err != nil {
				return fmt.Errorf("%s: %w", sk, err)
			}
			keywords = append(keywords, k)
		}
		return nil
	})
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("repository: LoadCatalog query: %w", err)
	}
	if !haveMeta {
		return domain.Catalog{}, fmt.Errorf("%w: %q", ErrCatalogNotFound, catalogID)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].pos < entries[j].pos })
	sort.SliceStable(keywords, func(i, j int) bool { return keywords[i].pos < keywords[j].pos })
	for _, e := range entries {
		if bounds.set && e.pos > bounds.entries {
			continue
		}
		cat.Entries = append(cat.Entries, e.val)
	}
	for _, k := range keywords {
		if bounds.set && k.pos > bounds.keywords {
			continue
		}
		cat.Keywords = append(cat.Keywords, k.val)
	}
	return cat, nil
}

// PutCatalog replaces a catalog. Entries and keywords are written first and
// the META# item, which carries the new counts, last. Items left over from a
// previous, longer catalog are then deleted.
func (c *Client) PutCatalog(ctx context.Context, catalogID string, cat domain.Catalog) error {
	if strings.TrimSpace(catalogID) == "" {
		return errors.New("repository: PutCatalog: catalog id must not be empty")
	}
	pk := catalogPK(catalogID)

	existing := map[string]struct{}{}
	err := c.queryPartition(ctx, pk, "PK, SK", func(item map[string]types.AttributeValue) error {
		sk, err := strAttr(item, "SK")
		if err != nil {
			return err
		}
		existing[sk] = struct{}{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repository: PutCatalog query: %w", err)
	}

	items := make([]map[string]types.AttributeValue, 0, 1+len(cat.Entries)+len(cat.Keywords))
	for i, e := range cat.Entries {
		items = append(items, entryItem(pk, i+1, e))
	}
	for i, k := range cat.Keywords {
		items = append(items, keywordItem(pk, i+1, k))
	}
	items = append(items, metaItem(pk, cat))

	for _, item := range items {
		_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(c.tableName),
			Item:      item,
		})
		if err != nil {
			return fmt.Errorf("repository: PutCatalog: %w", err)
		}
		delete(existing, item["SK"].(*types.AttributeValueMemberS).Value)
	}

	stale := make([]string, 0, len(existing))
	for sk := range existing {
		stale = append(stale, sk)
	}
	sort.Strings(stale)
	for _, sk := range stale {
		_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(c.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: pk},
				"SK": &types.AttributeValueMemberS{Value: sk},
			},
		})
		if err != nil {
			return fmt.Errorf("repository: PutCatalog delete %s: %w", sk, err)
		}
	}
	return nil
}

func itemToMeta(item map[string]types.AttributeValue, cat *domain.Catalog) (counts, error) {
	fallback, err := strAttr(item, "fallbackMessage")
	if err != nil {
		return counts{}, err
	}
	cat.FallbackMessage = fallback
	cat.Name, _ = strAttr(item, "name")   // allow empty
	cat.About, _ = strAttr(item, "about") // allow empty

	// Catalogs written before counts were stored carry neither attribute.
	if _, ok := item["entryCount"]; !ok {
		return counts{}, nil
	}
	ne, err := intAttr(item, "entryCount")
	if err != nil {
		return counts{}, err
	}
	nk, err := intAttr(item, "keywordCount")
	if err != nil {
		return counts{}, err
	}
	return counts{entries: ne, keywords: nk, set: true}, nil
}

func itemToEntry(item map[string]types.AttributeValue) (positioned[domain.FAQEntry], error) {
	pos, err := intAttr(item, "position")
	if err != nil {
		return positioned[domain.FAQEntry]{}, err
	}
	q, err := strAttr(item, "question")
	if err != nil {
		return positioned[domain.FAQEntry]{}, err
	}
	a, err := strAttr(item, "answer")
	if err != nil {
		return positioned[domain.FAQEntry]{}, err
	}
	return positioned[domain.FAQEntry]{pos: pos, val: domain.FAQEntry{Question: q, Answer: a}}, nil
}

func itemToKeyword(item map[string]types.AttributeValue) (positioned[domain.KeywordRule], error) {
	pos, err := intAttr(item, "position")
	if err != nil {
		return positioned[domain.KeywordRule]{}, err
	}
	trigger, err := strAttr(item, "trigger")
	if err != nil {
		return positioned[domain.KeywordRule]{}, err
	}
	q, err := strAttr(item, "question")
	if err != nil {
		return positioned[domain.KeywordRule]{}, err
	}
	return positioned[domain.KeywordRule]{pos: pos, val: domain.KeywordRule{Trigger: trigger, TargetQuestion: q}}, nil
}

func metaItem(pk string, cat domain.Catalog) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":              &types.AttributeValueMemberS{Value: pk},
		"SK":              &types.AttributeValueMemberS{Value: skMeta},
		"name":            &types.AttributeValueMemberS{Value: cat.Name},
		"about":           &types.AttributeValueMemberS{Value: cat.About},
		"fallbackMessage": &types.AttributeValueMemberS{Value: cat.FallbackMessage},
		"entryCount":      &types.AttributeValueMemberN{Value: strconv.Itoa(len(cat.Entries))},
		"keywordCount":    &types.AttributeValueMemberN{Value: strconv.Itoa(len(cat.Keywords))},
	}
}

func entryItem(pk string, pos int, e domain.FAQEntry) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":       &types.AttributeValueMemberS{Value: pk},
		"SK":       &types.AttributeValueMemberS{Value: positionSK(skPrefixEntry, pos)},
		"position": &types.AttributeValueMemberN{Value: strconv.Itoa(pos)},
		"question": &types.AttributeValueMemberS{Value: e.Question},
		"answer":   &types.AttributeValueMemberS{Value: e.Answer},
	}
}

func keywordItem(pk string, pos int, k domain.KeywordRule) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":       &types.AttributeValueMemberS{Value: pk},
		"SK":       &types.AttributeValueMemberS{Value: positionSK(skPrefixKeyword, pos)},
		"position": &types.AttributeValueMemberN{Value: strconv.Itoa(pos)},
		"trigger":  &types.AttributeValueMemberS{Value: k.Trigger},
		"question": &types.AttributeValueMemberS{Value: k.TargetQuestion},
	}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
