package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/rbright/candor/internal/interview"
)

func sampleResult() interview.Result {
	return interview.Result{
		ID:  "iv-42",
		Job: interview.Job{Title: "Backend Engineer"},
		Responses: []interview.Response{
			{QuestionID: "q1", Transcript: "first", Recording: &interview.Recording{Data: []byte("RIFFdata"), MIMEType: "audio/wav", Size: 8, Duration: time.Second}},
			{QuestionID: "q2", Transcript: "no recording"},
			{QuestionID: "q3", Transcript: "third", Recording: &interview.Recording{Data: []byte("webm"), MIMEType: "video/webm", Size: 4}},
		},
		AverageScore: 71,
	}
}

func TestObjectsLayout(t *testing.T) {
	objs, err := objects("/interviews/", sampleResult())
	require.NoError(t, err)
	require.Len(t, objs, 3)
	require.Equal(t, "interviews/iv-42/result.json", objs[0].key)
	require.Equal(t, "application/json", objs[0].contentType)
	require.Equal(t, "interviews/iv-42/answer-01.wav", objs[1].key)
	require.Equal(t, "interviews/iv-42/answer-03.webm", objs[2].key)

	var decoded interview.Result
	require.NoError(t, json.Unmarshal(objs[0].body, &decoded))
	require.Equal(t, 71, decoded.AverageScore)
	require.Nil(t, decoded.Responses[0].Recording.Data)
}

func TestObjectsRequireID(t *testing.T) {
	_, err := objects("", interview.Result{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no interview id")
}

func TestExtension(t *testing.T) {
	require.Equal(t, ".wav", extension("audio/wav"))
	require.Equal(t, ".webm", extension("video/webm"))
	require.Equal(t, ".bin", extension(""))
	require.Equal(t, ".bin", extension("application/x-candor-unknown"))
}

func TestDirStoreWritesResultAndRecordings(t *testing.T) {
	root := t.TempDir()
	sink := NewDir(root)

	location, err := sink.Store(context.Background(), sampleResult())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "iv-42"), location)

	data, err := os.ReadFile(filepath.Join(location, "result.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"id": "iv-42"`)

	wav, err := os.ReadFile(filepath.Join(location, "answer-01.wav"))
	require.NoError(t, err)
	require.Equal(t, "RIFFdata", string(wav))

	_, err = os.Stat(filepath.Join(location, "answer-02.bin"))
	require.True(t, os.IsNotExist(err))
}

func TestDirStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDir(t.TempDir()).Store(ctx, sampleResult())
	require.ErrorIs(t, err, context.Canceled)
}

type fakePutter struct {
	mu      sync.Mutex
	puts    map[string][]byte
	types   map[string]string
	buckets []string
	failKey string
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failKey {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.puts == nil {
		f.puts = map[string][]byte{}
		f.types = map[string]string{}
	}
	f.puts[key] = body
	f.types[key] = aws.ToString(in.ContentType)
	f.buckets = append(f.buckets, aws.ToString(in.Bucket))
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreUploadsObjects(t *testing.T) {
	putter := &fakePutter{}
	sink := NewS3(putter, "candor-archive", "interviews/")

	location, err := sink.Store(context.Background(), sampleResult())
	require.NoError(t, err)
	require.Equal(t, "s3://candor-archive/interviews/iv-42", location)

	require.Len(t, putter.puts, 3)
	require.Equal(t, "RIFFdata", string(putter.puts["interviews/iv-42/answer-01.wav"]))
	require.Equal(t, "video/webm", putter.types["interviews/iv-42/answer-03.webm"])
	require.Equal(t, []string{"candor-archive", "candor-archive", "candor-archive"}, putter.buckets)
}

func TestS3StoreWrapsUploadFailure(t *testing.T) {
	putter := &fakePutter{failKey: "iv-42/result.json"}
	sink := NewS3(putter, "bucket", "")

	_, err := sink.Store(context.Background(), sampleResult())
	require.Error(t, err)
	require.Contains(t, err.Error(), "upload iv-42/result.json")
	require.Contains(t, err.Error(), "access denied")
}

func TestNopStore(t *testing.T) {
	location, err := Nop{}.Store(context.Background(), sampleResult())
	require.NoError(t, err)
	require.Empty(t, location)
}
