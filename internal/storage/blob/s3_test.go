package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := aws.ToString(in.Bucket) + ":" + aws.ToString(in.Key)
	f.objects[k] = data
	f.types[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+":"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+":"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Bucket)+":"+aws.ToString(in.Key)]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	store := newS3Store(fake, S3Config{Bucket: "pagoda", Prefix: "/photos/"}, common.NewSilentLogger())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "uploads/a.jpg", []byte("img"), "image/jpeg"))
	assert.Contains(t, fake.objects, "pagoda:photos/uploads/a.jpg")
	assert.Equal(t, "image/jpeg", fake.types["pagoda:photos/uploads/a.jpg"])

	data, err := store.Get(ctx, "uploads/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	ok, err := store.Exists(ctx, "uploads/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "uploads/a.jpg"))

	ok, err = store.Exists(ctx, "uploads/a.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, "uploads/a.jpg")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestS3Store_DefaultContentType(t *testing.T) {
	fake := newFakeS3()
	store := newS3Store(fake, S3Config{Bucket: "b"}, common.NewSilentLogger())

	require.NoError(t, store.Put(context.Background(), "x.bin", []byte{1}, ""))
	assert.Equal(t, "application/octet-stream", fake.types["b:x.bin"])
}
