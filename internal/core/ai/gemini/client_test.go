package gemini

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chefmate/internal/core/ai/provider"
	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
)

// fakeFiles 依序回傳 states 的 Files API 替身
type fakeFiles struct {
	mu        sync.Mutex
	states    []genai.FileState
	polls     int
	uploaded  []byte
	uploadErr error
	deleteErr error
	deleted   []string
}

func (f *fakeFiles) UploadFile(_ context.Context, _ string, r io.Reader, opts *genai.UploadFileOptions) (*genai.File, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploaded = data
	return &genai.File{Name: "files/abc", MIMEType: opts.MIMEType, State: genai.FileStateProcessing}, nil
}

func (f *fakeFiles) GetFile(_ context.Context, name string) (*genai.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.states[len(f.states)-1]
	if f.polls < len(f.states) {
		state = f.states[f.polls]
	}
	f.polls++
	return &genai.File{Name: name, URI: "https://files/abc", MIMEType: "video/mp4", State: state}, nil
}

func (f *fakeFiles) DeleteFile(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return f.deleteErr
}

type captured struct {
	model  string
	system string
	parts  []genai.Part
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}},
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 4, TotalTokenCount: 7},
	}
}

func newTestClient(files *fakeFiles, got *captured, resp *genai.GenerateContentResponse, genErr error) *Client {
	c := &Client{
		cfg:          config.GeminiConfig{TextModel: "flash", VideoModel: "pro", Temperature: 0.4},
		pollInterval: time.Millisecond,
		pollTimeout:  50 * time.Millisecond,
		files:        files,
	}
	c.generate = func(_ context.Context, model, system string, parts []genai.Part) (*genai.GenerateContentResponse, error) {
		got.model, got.system, got.parts = model, system, parts
		return resp, genErr
	}
	return c
}

func writeVideo(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(p, []byte("video-bytes"), 0o644))
	return p
}

func TestGenerateTextUsesTextModel(t *testing.T) {
	var got captured
	c := newTestClient(&fakeFiles{}, &got, textResponse(`{"a":1}`), nil)

	resp, err := c.Generate(context.Background(), &provider.Request{SystemInstruction: "sys", Prompt: "Pizza"})
	require.NoError(t, err)

	assert.Equal(t, `{"a":1}`, resp.Content)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
	assert.Equal(t, "flash", got.model)
	assert.Equal(t, "sys", got.system)
	assert.Equal(t, []genai.Part{genai.Text("Pizza")}, got.parts)
}

func TestGenerateImageInlinesBlob(t *testing.T) {
	var got captured
	c := newTestClient(&fakeFiles{}, &got, textResponse(`{}`), nil)

	_, err := c.Generate(context.Background(), &provider.Request{
		Prompt: "scan",
		Media:  &provider.Media{Kind: provider.MediaImage, Data: []byte{1, 2}},
	})
	require.NoError(t, err)

	require.Len(t, got.parts, 2)
	assert.Equal(t, genai.Blob{MIMEType: "image/jpeg", Data: []byte{1, 2}}, got.parts[0])
	assert.Equal(t, "flash", got.model)
}

func TestGenerateVideoLifecycle(t *testing.T) {
	var got captured
	files := &fakeFiles{states: []genai.FileState{genai.FileStateProcessing, genai.FileStateProcessing, genai.FileStateActive}}
	c := newTestClient(files, &got, textResponse(`{}`), nil)

	_, err := c.Generate(context.Background(), &provider.Request{
		Prompt: "video",
		Media:  &provider.Media{Kind: provider.MediaVideo, Path: writeVideo(t), MIMEType: "video/mp4", DisplayName: "clip"},
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("video-bytes"), files.uploaded)
	assert.Equal(t, 3, files.polls)
	assert.Equal(t, "pro", got.model)
	assert.Equal(t, genai.FileData{MIMEType: "video/mp4", URI: "https://files/abc"}, got.parts[0])
	assert.Equal(t, []string{"files/abc"}, files.deleted)
}

func TestGenerateVideoFailedState(t *testing.T) {
	files := &fakeFiles{states: []genai.FileState{genai.FileStateProcessing, genai.FileStateFailed}}
	c := newTestClient(files, &captured{}, nil, nil)

	_, err := c.Generate(context.Background(), &provider.Request{
		Media: &provider.Media{Kind: provider.MediaVideo, Path: writeVideo(t)},
	})

	var fileErr *common.FileProcessingError
	require.True(t, errors.As(err, &fileErr), "got %v", err)
	assert.Equal(t, "FAILED", fileErr.State)
	assert.Equal(t, []string{"files/abc"}, files.deleted)
}

func TestGenerateVideoTimeout(t *testing.T) {
	files := &fakeFiles{states: []genai.FileState{genai.FileStateProcessing}}
	c := newTestClient(files, &captured{}, nil, nil)
	c.pollTimeout = 10 * time.Millisecond

	_, err := c.Generate(context.Background(), &provider.Request{
		Media: &provider.Media{Kind: provider.MediaVideo, Path: writeVideo(t)},
	})

	var fileErr *common.FileProcessingError
	require.True(t, errors.As(err, &fileErr), "got %v", err)
	assert.ErrorIs(t, err, common.ErrProcessingTimeout)
	assert.Equal(t, []string{"files/abc"}, files.deleted)
}

func TestGenerateVideoDeletesAfterModelFailure(t *testing.T) {
	files := &fakeFiles{states: []genai.FileState{genai.FileStateActive}, deleteErr: errors.New("already gone")}
	c := newTestClient(files, &captured{}, nil, errors.New("quota exceeded"))

	_, err := c.Generate(context.Background(), &provider.Request{
		Media: &provider.Media{Kind: provider.MediaVideo, Path: writeVideo(t)},
	})

	var upstream *common.UpstreamError
	require.True(t, errors.As(err, &upstream), "got %v", err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, []string{"files/abc"}, files.deleted)
}

func TestGenerateVideoUploadFailure(t *testing.T) {
	files := &fakeFiles{uploadErr: errors.New("413")}
	c := newTestClient(files, &captured{}, nil, nil)

	_, err := c.Generate(context.Background(), &provider.Request{
		Media: &provider.Media{Kind: provider.MediaVideo, Path: writeVideo(t)},
	})

	var fileErr *common.FileProcessingError
	assert.True(t, errors.As(err, &fileErr))
	assert.Empty(t, files.deleted)
}

func TestWaitForActiveHonoursCancellation(t *testing.T) {
	files := &fakeFiles{states: []genai.FileState{genai.FileStateProcessing}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := waitForActive(ctx, files, "files/abc", time.Second, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResponseText(t *testing.T) {
	_, err := responseText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)

	text, err := responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
	}}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)
}
