package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core"
)

func upload(name, content string) core.Upload {
	return core.Upload{Filename: name, ContentType: "application/pdf", Size: int64(len(content)), Content: strings.NewReader(content)}
}

func Test_objectKey(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		prefix   string
		suffix   string
	}{
		{name: "plain", filename: "report.pdf", prefix: "notes/", suffix: "-report.pdf"},
		{name: "upper ext", filename: "Scan.PDF", prefix: "notes/", suffix: "-Scan.pdf"},
		{name: "unsafe chars", filename: "my report (final).docx", prefix: "notes/", suffix: "-my-report-final.docx"},
		{name: "path traversal", filename: "../../etc/passwd", prefix: "notes/", suffix: "-passwd"},
		{name: "no name", filename: ".pdf", prefix: "notes/", suffix: ".pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := objectKey("notes", tt.filename)
			assert.True(t, strings.HasPrefix(key, tt.prefix), key)
			assert.True(t, strings.HasSuffix(key, tt.suffix), key)
			assert.True(t, validKey(key), key)
		})
	}
	assert.NotEqual(t, objectKey("notes", "a.pdf"), objectKey("notes", "a.pdf"))
}

func Test_validKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{key: "", want: false},
		{key: "/etc/passwd", want: false},
		{key: "../secret", want: false},
		{key: "notes/../../secret", want: false},
		{key: "notes//a.pdf", want: false},
		{key: "notes/a.pdf", want: true},
	}
	for _, tt := range tests {
		if got := validKey(tt.key); got != tt.want {
			t.Errorf("validKey(%q) = %v; want %v", tt.key, got, tt.want)
		}
	}
}

func TestDiskStorage(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewDiskStorage(root, "uploads/")
	require.NoError(t, err)

	ref, err := store.Save(ctx, "submissions", upload("answers.pdf", "42"))
	require.NoError(t, err)
	assert.Equal(t, "answers.pdf", ref.OriginalName)
	assert.Equal(t, "/uploads/"+ref.Filename, ref.URL)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref.Filename)))
	require.NoError(t, err)
	assert.Equal(t, "42", string(data))

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ref.Filename)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, ref), "deleting a missing file")
	assert.Equal(t, ErrInvalidKey, store.Delete(ctx, core.FileRef{Filename: "../outside"}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Save(cancelled, "submissions", upload("late.pdf", "x"))
	assert.Equal(t, context.Canceled, errors.Cause(err))
	entries, err := os.ReadDir(filepath.Join(root, "submissions"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	ctx := context.Background()
	conf := core.NewTestConfig()
	conf.S3.Bucket = "edureach"
	conf.S3.Region = "eu-west-1"

	client := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	store := NewS3Storage(client, conf)

	ref, err := store.Save(ctx, "notes", upload("week 1.pdf", "notes"))
	require.NoError(t, err)
	assert.Equal(t, "https://edureach.s3.eu-west-1.amazonaws.com/"+ref.Filename, ref.URL)
	assert.Equal(t, []byte("notes"), client.objects["edureach/"+ref.Filename])
	assert.Equal(t, "application/pdf", client.types[ref.Filename])

	require.NoError(t, store.Delete(ctx, ref))
	assert.Empty(t, client.objects)
	assert.Equal(t, ErrInvalidKey, store.Delete(ctx, core.FileRef{Filename: "/abs"}))

	conf.S3.PublicURL = "https://cdn.test.io/"
	store = NewS3Storage(client, conf)
	ref, err = store.Save(ctx, "notes", upload("a.pdf", "a"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test.io/"+ref.Filename, ref.URL)

	client.err = errors.New("boom")
	_, err = store.Save(ctx, "notes", upload("b.pdf", "b"))
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Uploads.Dir = t.TempDir()

	store, err := New(context.Background(), conf)
	require.NoError(t, err)
	assert.IsType(t, &DiskStorage{}, store)

	conf.Uploads.Driver = "ftp"
	_, err = New(context.Background(), conf)
	assert.Equal(t, ErrUnknownDriver, errors.Cause(err))
}
