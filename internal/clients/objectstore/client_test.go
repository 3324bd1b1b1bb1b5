package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  string
	out   *manager.UploadOutput
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	data, _ := io.ReadAll(input.Body)
	f.body = string(data)
	return f.out, f.err
}

func TestUpload(t *testing.T) {
	up := &fakeUploader{out: &manager.UploadOutput{}}
	c := NewWithUploader(up, "solar-exports", "csv", zerolog.Nop())

	location, err := c.Upload(context.Background(), "solar_data_33.4484_-112.0740.csv", strings.NewReader("date\n"), "text/csv")
	require.NoError(t, err)

	assert.Equal(t, "s3://solar-exports/csv/solar_data_33.4484_-112.0740.csv", location)
	assert.Equal(t, "solar-exports", aws.ToString(up.input.Bucket))
	assert.Equal(t, "csv/solar_data_33.4484_-112.0740.csv", aws.ToString(up.input.Key))
	assert.Equal(t, "text/csv", aws.ToString(up.input.ContentType))
	assert.Equal(t, "date\n", up.body)
}

func TestUpload_UsesReportedLocation(t *testing.T) {
	up := &fakeUploader{out: &manager.UploadOutput{Location: "https://example.r2.dev/a.csv"}}
	c := NewWithUploader(up, "b", "", zerolog.Nop())

	location, err := c.Upload(context.Background(), "a.csv", strings.NewReader(""), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "https://example.r2.dev/a.csv", location)
	assert.Equal(t, "a.csv", aws.ToString(up.input.Key))
}

func TestUpload_WrapsErrors(t *testing.T) {
	boom := errors.New("access denied")
	c := NewWithUploader(&fakeUploader{err: boom}, "b", "", zerolog.Nop())

	_, err := c.Upload(context.Background(), "a.csv", strings.NewReader(""), "text/csv")
	assert.ErrorIs(t, err, boom)
}

func TestUpload_NilClient(t *testing.T) {
	var c *Client
	_, err := c.Upload(context.Background(), "a.csv", strings.NewReader(""), "text/csv")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNew_WithStaticCredentials(t *testing.T) {
	c, err := New(context.Background(), Config{
		Bucket:          "exports",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Prefix:          "solar",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "solar/x.csv", c.Key("x.csv"))
}
