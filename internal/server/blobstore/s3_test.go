package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte

	putErr    error
	lastPut   *s3.PutObjectInput
	deleteErr error
	headErr   error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	key := aws.ToString(in.Key)
	if _, ok := f.objects[key]; ok && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(b)))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{Message: aws.String("not found")}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	ts := time.Unix(1700000000, 0)
	for k, v := range f.objects {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(v))), LastModified: &ts})
	}
	return out, nil
}

type fakePresigner struct {
	calls int
	err   error
}

func (p *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &v4.PresignedHTTPRequest{
		URL: "http://minio:9000/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key) + "?X-Amz-Expires=" + opts.Expires.String(),
	}, nil
}

func TestS3_PutOpenExistsDelete(t *testing.T) {
	f := newFakeS3()
	s := newS3(f, &fakePresigner{}, "classdocs", time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "1-a.pdf", strings.NewReader("pdf")))
	assert.Equal(t, "classdocs", aws.ToString(f.lastPut.Bucket))
	assert.Equal(t, "*", aws.ToString(f.lastPut.IfNoneMatch))

	ok, err := s.Exists(ctx, "1-a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, "1-a.pdf")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "pdf", string(b))

	require.NoError(t, s.Delete(ctx, "1-a.pdf"))
	require.NoError(t, s.Delete(ctx, "1-a.pdf"))

	ok, err = s.Exists(ctx, "1-a.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Open(ctx, "1-a.pdf")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestS3_PutExistingMapsToErrExists(t *testing.T) {
	f := newFakeS3()
	s := newS3(f, &fakePresigner{}, "b", time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "1-a.pdf", strings.NewReader("one")))
	err := s.Put(ctx, "1-a.pdf", strings.NewReader("two"))
	require.ErrorIs(t, err, ErrExists)
}

func TestS3_ErrorsAreWrapped(t *testing.T) {
	f := newFakeS3()
	f.putErr = errors.New("connection reset")
	f.deleteErr = errors.New("503 slow down")
	f.headErr = errors.New("timeout")
	s := newS3(f, &fakePresigner{}, "b", time.Minute)
	ctx := context.Background()

	assert.ErrorContains(t, s.Put(ctx, "1-a.pdf", strings.NewReader("x")), "put object 1-a.pdf: connection reset")
	assert.ErrorContains(t, s.Delete(ctx, "1-a.pdf"), "delete object 1-a.pdf: 503 slow down")
	_, err := s.Exists(ctx, "1-a.pdf")
	assert.ErrorContains(t, err, "head object 1-a.pdf: timeout")
}

func TestS3_URLUsesExpiry(t *testing.T) {
	p := &fakePresigner{}
	s := newS3(newFakeS3(), p, "b", 10*time.Minute)

	u, err := s.URL(context.Background(), "1-a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/b/1-a.pdf?X-Amz-Expires=10m0s", u)
}

func TestS3_List(t *testing.T) {
	f := newFakeS3()
	s := newS3(f, &fakePresigner{}, "b", 0)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "1-a.pdf", strings.NewReader("abc")))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, Info{Name: "1-a.pdf", Size: 3, ModTime: time.Unix(1700000000, 0)}, infos[0])
}

func TestNewS3_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.New(opts)
	}

	s, err := NewS3(context.Background(), S3Config{
		Region:       "us-east-1",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Bucket:       "classdocs",
		BaseEndpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, 15*time.Minute, s.expiry)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = NewS3(context.Background(), S3Config{})
	require.ErrorContains(t, err, "load-fail")
}

func TestURLCache_CachesAndInvalidates(t *testing.T) {
	p := &fakePresigner{}
	c := NewURLCache(newS3(newFakeS3(), p, "b", time.Minute), 16, time.Minute)
	ctx := context.Background()

	u1, err := c.URL(ctx, "1-a.pdf")
	require.NoError(t, err)
	u2, err := c.URL(ctx, "1-a.pdf")
	require.NoError(t, err)
	assert.Equal(t, u1, u2)
	assert.Equal(t, 1, p.calls)

	require.NoError(t, c.Delete(ctx, "1-a.pdf"))
	_, err = c.URL(ctx, "1-a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestURLCache_DoesNotCacheErrors(t *testing.T) {
	p := &fakePresigner{err: errors.New("sign failed")}
	c := NewURLCache(newS3(newFakeS3(), p, "b", time.Minute), 16, time.Minute)

	_, err := c.URL(context.Background(), "1-a.pdf")
	require.Error(t, err)
	_, err = c.URL(context.Background(), "1-a.pdf")
	require.Error(t, err)
	assert.Equal(t, 2, p.calls)
}
