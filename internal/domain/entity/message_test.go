package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidMessage(t *testing.T) {
	msg := ConversionMessage{
		ID:           "m-1",
		ReceiptToken: "r-1",
		Body:         []byte(`{"fileName":"clip.mp4","userId":"u1","fileStorageKey":"raw/clip.mp4","fileId":"f1","screenshotsTime":20}`),
	}

	req, err := msg.Parse()
	require.NoError(t, err)
	assert.Equal(t, ConversionRequest{
		UserID:               "u1",
		FileID:               "f1",
		FileName:             "clip.mp4",
		SourceStorageKey:     "raw/clip.mp4",
		FrameIntervalSeconds: 20,
	}, req)
}

func TestParseRejectsIncompleteMessages(t *testing.T) {
	tests := map[string]string{
		"empty body":          ``,
		"malformed json":      `{invalid json`,
		"missing storage key": `{"fileName":"clip.mp4","userId":"u1","fileId":"f1","screenshotsTime":20}`,
		"missing user":        `{"fileName":"clip.mp4","fileStorageKey":"raw/clip.mp4","fileId":"f1","screenshotsTime":20}`,
		"blank file id":       `{"fileName":"clip.mp4","userId":"u1","fileStorageKey":"raw/clip.mp4","fileId":"  ","screenshotsTime":20}`,
		"missing interval":    `{"fileName":"clip.mp4","userId":"u1","fileStorageKey":"raw/clip.mp4","fileId":"f1"}`,
		"negative interval":   `{"fileName":"clip.mp4","userId":"u1","fileStorageKey":"raw/clip.mp4","fileId":"f1","screenshotsTime":-5}`,
		"tiny interval":       `{"fileName":"clip.mp4","userId":"u1","fileStorageKey":"raw/clip.mp4","fileId":"f1","screenshotsTime":1e-10}`,
		"huge interval":       `{"fileName":"clip.mp4","userId":"u1","fileStorageKey":"raw/clip.mp4","fileId":"f1","screenshotsTime":1e12}`,
		"interval wrong type": `{"fileName":"clip.mp4","userId":"u1","fileStorageKey":"raw/clip.mp4","fileId":"f1","screenshotsTime":"20"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ConversionMessage{ID: "m", Body: []byte(body)}.Parse()
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestFrameIntervalAtBounds(t *testing.T) {
	for _, tc := range []struct {
		body string
		want time.Duration
	}{
		{`{"fileName":"c.mp4","userId":"u1","fileStorageKey":"k","fileId":"f1","screenshotsTime":0.001}`, time.Millisecond},
		{`{"fileName":"c.mp4","userId":"u1","fileStorageKey":"k","fileId":"f1","screenshotsTime":2.5}`, 2500 * time.Millisecond},
		{`{"fileName":"c.mp4","userId":"u1","fileStorageKey":"k","fileId":"f1","screenshotsTime":86400}`, 24 * time.Hour},
	} {
		req, err := ConversionMessage{Body: []byte(tc.body)}.Parse()
		require.NoError(t, err)
		assert.Equal(t, tc.want, req.FrameInterval())
	}
}

func TestParseReportsFailingField(t *testing.T) {
	_, err := ConversionMessage{Body: []byte(`{"fileName":"clip.mp4","userId":"u1","fileId":"f1","screenshotsTime":20}`)}.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SourceStorageKey")
}

func TestArchiveName(t *testing.T) {
	at := time.Date(2023, 1, 5, 9, 5, 7, 0, time.UTC)

	assert.Equal(t, "clip_20230105090507.zip", ArchiveName("Clip.MP4", at))
	assert.Equal(t, "my.video_20230105090507.zip", ArchiveName("my.video.mov", at))
	assert.Equal(t, "clip_20230105090507.zip", ArchiveName("../../clip.mp4", at))
}

func TestArchiveKeyIsNamespacedByUser(t *testing.T) {
	assert.Equal(t, "u1/images/clip_20230105090507.zip", ArchiveKey("u1", "clip_20230105090507.zip"))
}

func TestConversionTransitions(t *testing.T) {
	c := NewConversion(uuid.New(), "m-1", ConversionRequest{UserID: "u1", FileID: "f1"})
	assert.Equal(t, ConversionProcessing, c.Status)
	assert.Nil(t, c.CompletedAt)

	c.MarkProcessed("u1/images/a.zip")
	assert.Equal(t, ConversionProcessed, c.Status)
	assert.Equal(t, "u1/images/a.zip", c.ArchiveKey)
	require.NotNil(t, c.CompletedAt)

	c.MarkFailed("boom")
	assert.Equal(t, ConversionFailed, c.Status)
	assert.Equal(t, "boom", c.ErrorMessage)
}
