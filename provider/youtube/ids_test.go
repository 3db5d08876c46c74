package youtube

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	assert := assert_.New(t)

	valid := []string{
		"dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"http://m.youtube.com/watch?v=dQw4w9WgXcQ&t=10s",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf",
		"https://music.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/details?v=dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ?start=3",
		"https://youtu.be/dQw4w9WgXcQ",
		"youtu.be/dQw4w9WgXcQ",
	}
	for _, s := range valid {
		id, err := extractVideoID(s)
		assert.NoError(err, s)
		assert.Equal("dQw4w9WgXcQ", id, s)
	}

	for _, s := range []string{
		"",
		"short",
		"https://www.youtube.com/watch",
		"https://www.youtube.com/playlist?list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf",
		"UCuAXFkgsw1L7xaCfnd5JJOw",
	} {
		_, err := extractVideoID(s)
		assert.ErrorIs(err, ErrNoVideoID, s)
	}

	_, err := extractVideoID("https://vimeo.com/watch?v=dQw4w9WgXcQ")
	assert.ErrorIs(err, ErrNotYouTube)
}

func TestExtractPlaylistID(t *testing.T) {
	assert := assert_.New(t)
	const id = "PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf"

	for _, s := range []string{
		id,
		"https://www.youtube.com/playlist?list=" + id,
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=" + id,
		"www.youtube.com/playlist?list=" + id,
	} {
		got, err := extractPlaylistID(s)
		assert.NoError(err, s)
		assert.Equal(id, got, s)
	}

	got, err := extractPlaylistID("UUuAXFkgsw1L7xaCfnd5JJOw")
	assert.NoError(err)
	assert.Equal("UUuAXFkgsw1L7xaCfnd5JJOw", got)

	for _, s := range []string{"dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "UCuAXFkgsw1L7xaCfnd5JJOw"} {
		_, err := extractPlaylistID(s)
		assert.ErrorIs(err, ErrNoPlaylistID, s)
	}
}

func TestExtractChannelID(t *testing.T) {
	assert := assert_.New(t)
	const id = "UCuAXFkgsw1L7xaCfnd5JJOw"

	for _, s := range []string{
		id,
		"https://www.youtube.com/channel/" + id,
		"https://www.youtube.com/channel/" + id + "/videos",
	} {
		got, err := extractChannelID(s)
		assert.NoError(err, s)
		assert.Equal(id, got, s)
	}

	for _, s := range []string{"@someone", "https://www.youtube.com/@someone", "https://www.youtube.com/c/custom", "https://www.youtube.com/user/legacy"} {
		_, err := extractChannelID(s)
		assert.ErrorIs(err, ErrUnsupportedInput, s)
	}
	_, err := extractChannelID("dQw4w9WgXcQ")
	assert.ErrorIs(err, ErrNoChannelID)

	assert.Equal("UUuAXFkgsw1L7xaCfnd5JJOw", uploadsPlaylistID(id))
}
