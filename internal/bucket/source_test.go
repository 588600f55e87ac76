package bucket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

type memObjects struct {
	objects map[string]string
	err     error
	keys    []string
}

func (m *memObjects) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	m.keys = append(m.keys, key)
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, fs.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

func TestSource_Load(t *testing.T) {
	objs := &memObjects{objects: map[string]string{
		"exports/customers.csv":   "customer_id,city\nC1,dubai\n",
		"exports/orders.csv":      "order_id,customer_id\nO1,C1\n",
		"exports/order_items.csv": "order_id,item_total\nO1,10\n",
		"exports/fulfillment.csv": "order_id\nO1\n",
	}}
	s := NewSource(objs, "analytics", "exports")
	assert.Equal(t, "bucket:analytics/exports", s.Name())

	raw, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, raw.Customers)
	assert.Equal(t, [][]string{{"C1", "dubai"}}, raw.Customers.Records)
	assert.Nil(t, raw.Returns, "missing object leaves the table nil")
	assert.Len(t, objs.keys, len(entity.TableNames))
}

func TestSource_LoadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewSource(&memObjects{err: boom}, "analytics", "").Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestBucket_GetObject(t *testing.T) {
	endpoint := os.Getenv("BUCKET_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("BUCKET_TEST_ENDPOINT is not set")
	}
	c := &Config{
		S3AccessKey:       os.Getenv("BUCKET_TEST_ACCESS_KEY"),
		S3SecretAccessKey: os.Getenv("BUCKET_TEST_SECRET_KEY"),
		S3Endpoint:        endpoint,
		S3BucketName:      os.Getenv("BUCKET_TEST_NAME"),
		Insecure:          true,
	}
	b, err := c.New()
	require.NoError(t, err)

	_, err = b.GetObject(context.Background(), "definitely/missing.csv")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
