package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaObjectKey(t *testing.T) {
	key := MediaObjectKey("abc123", "video", "Squat Demo.MP4")

	assert.True(t, strings.HasPrefix(key, MediaKeyPrefix("abc123", "video")))
	assert.Equal(t, "exercises/abc123/video/", MediaKeyPrefix("abc123", "video"))
	assert.True(t, strings.HasSuffix(key, ".mp4"))
	assert.NotEqual(t, key, MediaObjectKey("abc123", "video", "Squat Demo.MP4"))
}

func TestIsExternalURL(t *testing.T) {
	assert.True(t, IsExternalURL("https://cdn.example.com/a.gif"))
	assert.False(t, IsExternalURL("exercises/abc/gif/x.gif"))
	assert.False(t, IsExternalURL(""))
}
